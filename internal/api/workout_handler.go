package api

import (
	"fmt"
	"net/http"
	"strconv"

	"entrenafit/coaching-app/internal/domain"
	"entrenafit/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
)

// WorkoutHandler exposes the workout aggregate: CRUD, duplication, the
// creation-limit check and the day/block/exercise tree mutations.
type WorkoutHandler struct {
	workoutService service.WorkoutService
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// --- Request DTOs ---

type ExerciseRequest struct {
	Name     string            `json:"name" binding:"required"`
	Sets     int               `json:"sets" binding:"min=0"`
	Reps     int               `json:"reps" binding:"min=0"`
	Weight   float64           `json:"weight" binding:"min=0"`
	VideoURL string            `json:"videoUrl"`
	Notes    string            `json:"notes"`
	Tags     []domain.BodyZone `json:"tags"`
}

type BlockRequest struct {
	Name      string            `json:"name"`
	Exercises []ExerciseRequest `json:"exercises"`
}

type DayRequest struct {
	Name   string         `json:"name"`
	Blocks []BlockRequest `json:"blocks"`
}

type CreateWorkoutRequest struct {
	Name        string       `json:"name" binding:"required"`
	Description string       `json:"description"`
	Days        []DayRequest `json:"days"`
}

type UpdateWorkoutRequest struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	Status      *domain.WorkoutStatus `json:"status"`
}

type DuplicateWorkoutRequest struct {
	NewName        string `json:"newName"`
	NewDescription string `json:"newDescription"`
}

type NamedNodeRequest struct {
	Name string `json:"name"`
}

// --- Response DTOs ---

type ExerciseResponse struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Sets     int               `json:"sets"`
	Reps     int               `json:"reps"`
	Weight   float64           `json:"weight"`
	VideoURL string            `json:"videoUrl"`
	Notes    string            `json:"notes"`
	Tags     []domain.BodyZone `json:"tags"`
}

type BlockResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Exercises []ExerciseResponse `json:"exercises"`
}

type DayResponse struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Blocks []BlockResponse `json:"blocks"`
}

// WorkoutResponse carries both `id` and `_id` with the same value; older
// client code still reads the raw field.
type WorkoutResponse struct {
	ID                string               `json:"id"`
	RawID             string               `json:"_id"`
	UserID            string               `json:"userId"`
	CreatedBy         string               `json:"createdBy"`
	Name              string               `json:"name"`
	Description       string               `json:"description"`
	Status            domain.WorkoutStatus `json:"status"`
	AssignedCoaches   []string             `json:"assignedCoaches"`
	AssignedCustomers []string             `json:"assignedCustomers"`
	Days              []DayResponse        `json:"days"`
	CreatedAt         string               `json:"createdAt"`
	UpdatedAt         string               `json:"updatedAt"`
}

// MapWorkoutToResponse converts a domain Workout to its DTO, stringifying
// every ObjectID before it crosses the UI boundary.
func MapWorkoutToResponse(w *domain.Workout) WorkoutResponse {
	if w == nil {
		return WorkoutResponse{}
	}
	days := make([]DayResponse, len(w.Days))
	for di, day := range w.Days {
		blocks := make([]BlockResponse, len(day.Blocks))
		for bi, block := range day.Blocks {
			exercises := make([]ExerciseResponse, len(block.Exercises))
			for ei, ex := range block.Exercises {
				tags := ex.Tags
				if tags == nil {
					tags = []domain.BodyZone{}
				}
				exercises[ei] = ExerciseResponse{
					ID:       ex.ID.Hex(),
					Name:     ex.Name,
					Sets:     ex.Sets,
					Reps:     ex.Reps,
					Weight:   ex.Weight,
					VideoURL: ex.VideoURL,
					Notes:    ex.Notes,
					Tags:     tags,
				}
			}
			blocks[bi] = BlockResponse{ID: block.ID.Hex(), Name: block.Name, Exercises: exercises}
		}
		days[di] = DayResponse{ID: day.ID.Hex(), Name: day.Name, Blocks: blocks}
	}

	coaches := make([]string, len(w.AssignedCoaches))
	for i, id := range w.AssignedCoaches {
		coaches[i] = id.Hex()
	}
	customers := make([]string, len(w.AssignedCustomers))
	for i, id := range w.AssignedCustomers {
		customers[i] = id.Hex()
	}

	idHex := w.ID.Hex()
	return WorkoutResponse{
		ID:                idHex,
		RawID:             idHex,
		UserID:            w.UserID.Hex(),
		CreatedBy:         w.CreatedBy.Hex(),
		Name:              w.Name,
		Description:       w.Description,
		Status:            w.Status,
		AssignedCoaches:   coaches,
		AssignedCustomers: customers,
		Days:              days,
		CreatedAt:         w.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:         w.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// --- Handler Methods ---

// CreateWorkout handles POST /workouts.
func (h *WorkoutHandler) CreateWorkout(c *gin.Context) {
	actorRef, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "No se pudo identificar al usuario")
		return
	}

	var req CreateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Datos no válidos: %v", err))
		return
	}

	workout, err := h.workoutService.Create(c.Request.Context(), actorRef, req.Name, req.Description, mapDays(req.Days))
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapWorkoutToResponse(workout))
}

// ListWorkouts handles GET /workouts (owned plus assigned).
func (h *WorkoutHandler) ListWorkouts(c *gin.Context) {
	actorRef, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "No se pudo identificar al usuario")
		return
	}

	workouts, err := h.workoutService.ListForActor(c.Request.Context(), actorRef)
	if err != nil {
		abortServiceError(c, err)
		return
	}

	resp := make([]WorkoutResponse, len(workouts))
	for i := range workouts {
		resp[i] = MapWorkoutToResponse(&workouts[i])
	}
	c.JSON(http.StatusOK, resp)
}

// GetWorkout handles GET /workouts/:id.
func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	actorRef, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "No se pudo identificar al usuario")
		return
	}

	workout, err := h.workoutService.Get(c.Request.Context(), actorRef, c.Param("id"))
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

// UpdateWorkout handles PATCH /workouts/:id (name, description, status).
func (h *WorkoutHandler) UpdateWorkout(c *gin.Context) {
	actorRef, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "No se pudo identificar al usuario")
		return
	}

	var req UpdateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Datos no válidos: %v", err))
		return
	}

	workout, err := h.workoutService.UpdateMeta(c.Request.Context(), actorRef, c.Param("id"), service.MetaUpdate{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

// DeleteWorkout handles DELETE /workouts/:id.
func (h *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	actorRef, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "No se pudo identificar al usuario")
		return
	}

	if err := h.workoutService.Delete(c.Request.Context(), actorRef, c.Param("id")); err != nil {
		abortServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DuplicateWorkout handles POST /workouts/:id/duplicate.
func (h *WorkoutHandler) DuplicateWorkout(c *gin.Context) {
	actorRef, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "No se pudo identificar al usuario")
		return
	}

	// Body is optional: an empty duplicate request keeps the source's
	// description and appends " (Copia)" to the name.
	var req DuplicateWorkoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Datos no válidos: %v", err))
			return
		}
	}

	workout, err := h.workoutService.Duplicate(c.Request.Context(), actorRef, c.Param("id"), req.NewName, req.NewDescription)
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapWorkoutToResponse(workout))
}

// CheckLimit handles GET /workouts/limit.
func (h *WorkoutHandler) CheckLimit(c *gin.Context) {
	actorRef, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "No se pudo identificar al usuario")
		return
	}

	status, err := h.workoutService.CheckLimit(c.Request.Context(), actorRef)
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// --- Tree mutation handlers ---

// AddDay handles POST /workouts/:id/days.
func (h *WorkoutHandler) AddDay(c *gin.Context) {
	h.namedNodeOp(c, func(actorRef, id, name string) (*domain.Workout, error) {
		return h.workoutService.AddDay(c.Request.Context(), actorRef, id, name)
	})
}

// RenameDay handles PATCH /workouts/:id/days/:day.
func (h *WorkoutHandler) RenameDay(c *gin.Context) {
	day, ok := pathIndex(c, "day")
	if !ok {
		return
	}
	h.namedNodeOp(c, func(actorRef, id, name string) (*domain.Workout, error) {
		return h.workoutService.RenameDay(c.Request.Context(), actorRef, id, day, name)
	})
}

// DeleteDay handles DELETE /workouts/:id/days/:day.
func (h *WorkoutHandler) DeleteDay(c *gin.Context) {
	day, ok := pathIndex(c, "day")
	if !ok {
		return
	}
	h.bareNodeOp(c, func(actorRef, id string) (*domain.Workout, error) {
		return h.workoutService.DeleteDay(c.Request.Context(), actorRef, id, day)
	})
}

// AddBlock handles POST /workouts/:id/days/:day/blocks.
func (h *WorkoutHandler) AddBlock(c *gin.Context) {
	day, ok := pathIndex(c, "day")
	if !ok {
		return
	}
	h.namedNodeOp(c, func(actorRef, id, name string) (*domain.Workout, error) {
		return h.workoutService.AddBlock(c.Request.Context(), actorRef, id, day, name)
	})
}

// RenameBlock handles PATCH /workouts/:id/days/:day/blocks/:block.
func (h *WorkoutHandler) RenameBlock(c *gin.Context) {
	day, ok := pathIndex(c, "day")
	if !ok {
		return
	}
	block, ok := pathIndex(c, "block")
	if !ok {
		return
	}
	h.namedNodeOp(c, func(actorRef, id, name string) (*domain.Workout, error) {
		return h.workoutService.RenameBlock(c.Request.Context(), actorRef, id, day, block, name)
	})
}

// DeleteBlock handles DELETE /workouts/:id/days/:day/blocks/:block.
func (h *WorkoutHandler) DeleteBlock(c *gin.Context) {
	day, ok := pathIndex(c, "day")
	if !ok {
		return
	}
	block, ok := pathIndex(c, "block")
	if !ok {
		return
	}
	h.bareNodeOp(c, func(actorRef, id string) (*domain.Workout, error) {
		return h.workoutService.DeleteBlock(c.Request.Context(), actorRef, id, day, block)
	})
}

// AddExercise handles POST /workouts/:id/days/:day/blocks/:block/exercises.
func (h *WorkoutHandler) AddExercise(c *gin.Context) {
	day, ok := pathIndex(c, "day")
	if !ok {
		return
	}
	block, ok := pathIndex(c, "block")
	if !ok {
		return
	}
	h.exerciseOp(c, func(actorRef, id string, in service.ExerciseInput) (*domain.Workout, error) {
		return h.workoutService.AddExercise(c.Request.Context(), actorRef, id, day, block, in)
	})
}

// UpdateExercise handles PATCH .../exercises/:exercise.
func (h *WorkoutHandler) UpdateExercise(c *gin.Context) {
	day, ok := pathIndex(c, "day")
	if !ok {
		return
	}
	block, ok := pathIndex(c, "block")
	if !ok {
		return
	}
	exercise, ok := pathIndex(c, "exercise")
	if !ok {
		return
	}
	h.exerciseOp(c, func(actorRef, id string, in service.ExerciseInput) (*domain.Workout, error) {
		return h.workoutService.UpdateExercise(c.Request.Context(), actorRef, id, day, block, exercise, in)
	})
}

// DeleteExercise handles DELETE .../exercises/:exercise.
func (h *WorkoutHandler) DeleteExercise(c *gin.Context) {
	day, ok := pathIndex(c, "day")
	if !ok {
		return
	}
	block, ok := pathIndex(c, "block")
	if !ok {
		return
	}
	exercise, ok := pathIndex(c, "exercise")
	if !ok {
		return
	}
	h.bareNodeOp(c, func(actorRef, id string) (*domain.Workout, error) {
		return h.workoutService.DeleteExercise(c.Request.Context(), actorRef, id, day, block, exercise)
	})
}

// --- Shared plumbing for the tree handlers ---

func (h *WorkoutHandler) namedNodeOp(c *gin.Context, op func(actorRef, id, name string) (*domain.Workout, error)) {
	actorRef, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "No se pudo identificar al usuario")
		return
	}

	var req NamedNodeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Datos no válidos: %v", err))
			return
		}
	}

	workout, err := op(actorRef, c.Param("id"), req.Name)
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

func (h *WorkoutHandler) bareNodeOp(c *gin.Context, op func(actorRef, id string) (*domain.Workout, error)) {
	actorRef, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "No se pudo identificar al usuario")
		return
	}

	workout, err := op(actorRef, c.Param("id"))
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

func (h *WorkoutHandler) exerciseOp(c *gin.Context, op func(actorRef, id string, in service.ExerciseInput) (*domain.Workout, error)) {
	actorRef, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "No se pudo identificar al usuario")
		return
	}

	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Datos no válidos: %v", err))
		return
	}

	workout, err := op(actorRef, c.Param("id"), service.ExerciseInput{
		Name:     req.Name,
		Sets:     req.Sets,
		Reps:     req.Reps,
		Weight:   req.Weight,
		VideoURL: req.VideoURL,
		Notes:    req.Notes,
		Tags:     req.Tags,
	})
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

func pathIndex(c *gin.Context, name string) (int, bool) {
	idx, err := strconv.Atoi(c.Param(name))
	if err != nil || idx < 0 {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Índice %q no válido", name))
		return 0, false
	}
	return idx, true
}

func mapDays(days []DayRequest) []domain.Day {
	out := make([]domain.Day, len(days))
	for di, day := range days {
		blocks := make([]domain.Block, len(day.Blocks))
		for bi, block := range day.Blocks {
			exercises := make([]domain.Exercise, len(block.Exercises))
			for ei, ex := range block.Exercises {
				exercises[ei] = domain.Exercise{
					Name:     ex.Name,
					Sets:     ex.Sets,
					Reps:     ex.Reps,
					Weight:   ex.Weight,
					VideoURL: ex.VideoURL,
					Notes:    ex.Notes,
					Tags:     ex.Tags,
				}
			}
			blocks[bi] = domain.Block{Name: block.Name, Exercises: exercises}
		}
		out[di] = domain.Day{Name: day.Name, Blocks: blocks}
	}
	return out
}
