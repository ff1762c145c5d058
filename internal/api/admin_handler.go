package api

import (
	"fmt"
	"net/http"

	"entrenafit/coaching-app/internal/domain"
	"entrenafit/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes account administration: role management and rosters.
type AdminHandler struct {
	userService service.UserService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(userService service.UserService) *AdminHandler {
	return &AdminHandler{userService: userService}
}

type UpdateRolesRequest struct {
	Roles []domain.Role `json:"roles" binding:"required,min=1"`
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	actorRef, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "No se pudo identificar al usuario")
		return
	}

	users, err := h.userService.ListUsers(c.Request.Context(), actorRef)
	if err != nil {
		abortServiceError(c, err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = MapUserToResponse(&users[i])
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateRoles handles PATCH /admin/users/:id/roles.
func (h *AdminHandler) UpdateRoles(c *gin.Context) {
	actorRef, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "No se pudo identificar al usuario")
		return
	}

	var req UpdateRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Datos no válidos: %v", err))
		return
	}

	user, err := h.userService.UpdateRoles(c.Request.Context(), actorRef, c.Param("id"), req.Roles)
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// ListCustomers handles GET /coach/customers.
func (h *AdminHandler) ListCustomers(c *gin.Context) {
	actorRef, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "No se pudo identificar al usuario")
		return
	}

	customers, err := h.userService.ListCustomers(c.Request.Context(), actorRef)
	if err != nil {
		abortServiceError(c, err)
		return
	}

	resp := make([]UserResponse, len(customers))
	for i := range customers {
		resp[i] = MapUserToResponse(&customers[i])
	}
	c.JSON(http.StatusOK, resp)
}
