package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"entrenafit/coaching-app/internal/domain"
	"entrenafit/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// Constants for context keys
const (
	ContextUserIDKey    = "userID"
	ContextUserRolesKey = "userRoles"
)

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Falta la cabecera de autorización")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "La cabecera de autorización debe ser 'Bearer {token}'")
			return
		}
		tokenString := parts[1]

		claims := &service.SessionClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})

		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "La sesión ha caducado")
			} else {
				abortWithError(c, http.StatusUnauthorized, "Token no válido")
			}
			return
		}

		if !token.Valid || claims.UserID == "" || len(claims.Roles) == 0 {
			abortWithError(c, http.StatusUnauthorized, "Token no válido o incompleto")
			return
		}

		// Token is valid: stash the actor for downstream handlers.
		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUserRolesKey, claims.Roles)

		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// RoleMiddleware creates middleware allowing only actors holding at least one
// of the given roles. Must run AFTER AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, err := getUserRolesFromContext(c)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, "Roles de usuario no disponibles en el contexto")
			return
		}

		allowed := false
	outer:
		for _, have := range roles {
			for _, want := range allowedRoles {
				if have == want {
					allowed = true
					break outer
				}
			}
		}

		if !allowed {
			abortWithError(c, http.StatusForbidden, "No tienes permiso para acceder a este recurso")
			return
		}

		c.Next()
	}
}

// Helper function to get User ID from context (used by handlers)
func getUserIDFromContext(c *gin.Context) (string, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", errors.New("user ID not found in context")
	}
	idStr, ok := idRaw.(string)
	if !ok {
		return "", errors.New("invalid user ID type in context")
	}
	return idStr, nil
}

// Helper function to get the user's roles from context (used by handlers)
func getUserRolesFromContext(c *gin.Context) ([]domain.Role, error) {
	rolesRaw, exists := c.Get(ContextUserRolesKey)
	if !exists {
		return nil, errors.New("user roles not found in context")
	}
	roles, ok := rolesRaw.([]domain.Role)
	if !ok {
		return nil, errors.New("invalid user roles type in context")
	}
	return roles, nil
}

// statusForError maps service sentinel errors to HTTP status codes. The
// message travels verbatim: the UI surfaces it as a toast.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidID),
		errors.Is(err, service.ErrInvalidPath),
		errors.Is(err, service.ErrEmptyName),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidZone),
		errors.Is(err, service.ErrInvalidVideoURL),
		errors.Is(err, service.ErrInvalidRoles),
		errors.Is(err, service.ErrUnsupportedMedia):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrAuthenticationFailed):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrWorkoutNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrLimitReached):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// abortServiceError reports a service failure, hiding internals behind a
// generic message when the error is not one of the known sentinels.
func abortServiceError(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		abortWithError(c, status, "Ha ocurrido un error inesperado")
		return
	}
	abortWithError(c, status, err.Error())
}
