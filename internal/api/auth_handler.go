package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"entrenafit/coaching-app/internal/domain"
	"entrenafit/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// --- Request/Response Structs ---

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// UserResponse excludes sensitive info like the password hash and converts
// ObjectIDs to strings.
type UserResponse struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Email            string        `json:"email"`
	Roles            []domain.Role `json:"roles"`
	PrimaryRole      domain.Role   `json:"primaryRole"`
	AssignedWorkouts []string      `json:"assignedWorkouts,omitempty"`
	CoachedWorkouts  []string      `json:"coachedWorkouts,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// --- Handler Methods ---

// Register creates a new account. Every new account starts as a customer;
// roles are only widened later by an admin.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Datos no válidos: %v", err))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			abortWithError(c, http.StatusConflict, err.Error())
		} else if errors.Is(err, service.ErrHashingFailed) {
			abortWithError(c, http.StatusInternalServerError, err.Error())
		} else {
			abortServiceError(c, err)
		}
		return
	}

	c.JSON(http.StatusCreated, MapUserToResponse(user))
}

// Login authenticates a user and returns a JWT token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Datos no válidos: %v", err))
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuthenticationFailed) {
			abortWithError(c, http.StatusUnauthorized, err.Error())
		} else if errors.Is(err, service.ErrTokenGeneration) {
			abortWithError(c, http.StatusInternalServerError, err.Error())
		} else {
			abortServiceError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token: token,
		User:  MapUserToResponse(user),
	})
}

// MapUserToResponse converts a domain User to a UserResponse DTO.
func MapUserToResponse(user *domain.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}

	resp := UserResponse{
		ID:          user.ID.Hex(),
		Name:        user.Name,
		Email:       user.Email,
		Roles:       user.Roles,
		PrimaryRole: user.PrimaryRole(),
		CreatedAt:   user.CreatedAt,
	}

	if len(user.AssignedWorkouts) > 0 {
		resp.AssignedWorkouts = make([]string, len(user.AssignedWorkouts))
		for i, id := range user.AssignedWorkouts {
			resp.AssignedWorkouts[i] = id.Hex()
		}
	}
	if len(user.CoachedWorkouts) > 0 {
		resp.CoachedWorkouts = make([]string, len(user.CoachedWorkouts))
		for i, id := range user.CoachedWorkouts {
			resp.CoachedWorkouts[i] = id.Hex()
		}
	}

	return resp
}
