package api

import (
	"fmt"
	"net/http"

	"entrenafit/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
)

// UploadHandler issues presigned URLs for exercise demo videos.
type UploadHandler struct {
	mediaService service.MediaService
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(mediaService service.MediaService) *UploadHandler {
	return &UploadHandler{mediaService: mediaService}
}

type VideoUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

// RequestVideoUpload handles POST /uploads/video. The browser PUTs the file
// straight to object storage with the returned URL.
func (h *UploadHandler) RequestVideoUpload(c *gin.Context) {
	actorRef, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "No se pudo identificar al usuario")
		return
	}

	var req VideoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Datos no válidos: %v", err))
		return
	}

	ticket, err := h.mediaService.RequestVideoUpload(c.Request.Context(), actorRef, req.ContentType)
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}
