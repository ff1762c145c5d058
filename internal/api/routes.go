package api

import (
	"net/http"

	"entrenafit/coaching-app/internal/domain"
	"entrenafit/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	userService service.UserService,
	workoutService service.WorkoutService,
	assignmentService service.AssignmentService,
	mediaService service.MediaService,
) {
	authHandler := NewAuthHandler(authService)
	workoutHandler := NewWorkoutHandler(workoutService)
	assignmentHandler := NewAssignmentHandler(assignmentService)
	adminHandler := NewAdminHandler(userService)
	uploadHandler := NewUploadHandler(mediaService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "No se pudo leer el usuario del token")
				return
			}
			roles, _ := getUserRolesFromContext(c)
			c.JSON(http.StatusOK, gin.H{
				"userId":      userIDStr,
				"roles":       roles,
				"primaryRole": domain.PrimaryRole(roles),
			})
		})

		// --- Workout Routes ---
		workoutGroup := protected.Group("/workouts")
		{
			workoutGroup.GET("", workoutHandler.ListWorkouts)
			workoutGroup.POST("", workoutHandler.CreateWorkout)
			// Registered before /:id so Gin does not treat "limit" as an id.
			workoutGroup.GET("/limit", workoutHandler.CheckLimit)
			workoutGroup.GET("/:id", workoutHandler.GetWorkout)
			workoutGroup.PATCH("/:id", workoutHandler.UpdateWorkout)
			workoutGroup.DELETE("/:id", workoutHandler.DeleteWorkout)
			workoutGroup.POST("/:id/duplicate", workoutHandler.DuplicateWorkout)
			workoutGroup.POST("/:id/assign", assignmentHandler.AssignWorkout)

			// Day / block / exercise tree mutations, addressed by index path.
			workoutGroup.POST("/:id/days", workoutHandler.AddDay)
			workoutGroup.PATCH("/:id/days/:day", workoutHandler.RenameDay)
			workoutGroup.DELETE("/:id/days/:day", workoutHandler.DeleteDay)
			workoutGroup.POST("/:id/days/:day/blocks", workoutHandler.AddBlock)
			workoutGroup.PATCH("/:id/days/:day/blocks/:block", workoutHandler.RenameBlock)
			workoutGroup.DELETE("/:id/days/:day/blocks/:block", workoutHandler.DeleteBlock)
			workoutGroup.POST("/:id/days/:day/blocks/:block/exercises", workoutHandler.AddExercise)
			workoutGroup.PATCH("/:id/days/:day/blocks/:block/exercises/:exercise", workoutHandler.UpdateExercise)
			workoutGroup.DELETE("/:id/days/:day/blocks/:block/exercises/:exercise", workoutHandler.DeleteExercise)
		}

		// --- Upload Routes ---
		protected.POST("/uploads/video", RoleMiddleware(domain.RoleCoach, domain.RoleAdmin), uploadHandler.RequestVideoUpload)

		// --- Coach Routes ---
		coachGroup := protected.Group("/coach")
		coachGroup.Use(RoleMiddleware(domain.RoleCoach, domain.RoleAdmin))
		{
			coachGroup.GET("/customers", adminHandler.ListCustomers)
		}

		// --- Admin Routes ---
		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			adminGroup.GET("/users", adminHandler.ListUsers)
			adminGroup.PATCH("/users/:id/roles", adminHandler.UpdateRoles)
		}
	}
}
