package api

import (
	"fmt"
	"net/http"

	"entrenafit/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
)

// AssignmentHandler exposes workout assignment.
type AssignmentHandler struct {
	assignmentService service.AssignmentService
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(assignmentService service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

type AssignWorkoutRequest struct {
	CoachIDs    []string `json:"coachIds"`
	CustomerIDs []string `json:"customerIds"`
}

// AssignWorkout handles POST /workouts/:id/assign. The service reports
// failures inside the result object rather than with an error status, so the
// UI can render a non-fatal message and offer a retry; the response is 200
// either way.
func (h *AssignmentHandler) AssignWorkout(c *gin.Context) {
	actorRef, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "No se pudo identificar al usuario")
		return
	}

	var req AssignWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Datos no válidos: %v", err))
		return
	}

	result := h.assignmentService.Assign(c.Request.Context(), actorRef, c.Param("id"), req.CoachIDs, req.CustomerIDs)
	c.JSON(http.StatusOK, result)
}
