package service

import (
	"context"
	"errors"

	"entrenafit/coaching-app/internal/domain"
	"entrenafit/coaching-app/internal/repository"
	"entrenafit/coaching-app/internal/sanitize"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrInvalidID       = errors.New("identificador no válido")
	ErrWorkoutNotFound = errors.New("rutina no encontrada")
	ErrLimitReached    = errors.New("has alcanzado el límite de rutinas activas")
	ErrInvalidPath     = errors.New("posición no válida dentro de la rutina")
	ErrEmptyName       = errors.New("el nombre no puede estar vacío")
	ErrInvalidStatus   = errors.New("estado de rutina no válido")
	ErrInvalidZone     = errors.New("zona corporal no válida")
	ErrInvalidVideoURL = errors.New("la URL del vídeo no está permitida")
)

// UnlimitedWorkouts marks a quota-exempt role in LimitStatus.MaxAllowed.
const UnlimitedWorkouts = -1

// LimitStatus reports where an actor stands against the creation quota.
type LimitStatus struct {
	CanCreate    bool        `json:"canCreate"`
	CurrentCount int         `json:"currentCount"`
	MaxAllowed   int         `json:"maxAllowed"` // UnlimitedWorkouts for admin/coach
	Role         domain.Role `json:"userRole"`
}

// MetaUpdate carries the optional top-level workout fields of a PATCH.
type MetaUpdate struct {
	Name        *string
	Description *string
	Status      *domain.WorkoutStatus
}

// ExerciseInput is the validated payload for creating or replacing an exercise.
type ExerciseInput struct {
	Name     string
	Sets     int
	Reps     int
	Weight   float64
	VideoURL string
	Notes    string
	Tags     []domain.BodyZone
}

// WorkoutService owns the workout aggregate: CRUD, the day/block/exercise
// tree mutations, duplication and the creation quota.
type WorkoutService interface {
	Create(ctx context.Context, actorRef, name, description string, days []domain.Day) (*domain.Workout, error)
	Get(ctx context.Context, actorRef, workoutID string) (*domain.Workout, error)
	ListForActor(ctx context.Context, actorRef string) ([]domain.Workout, error)
	UpdateMeta(ctx context.Context, actorRef, workoutID string, upd MetaUpdate) (*domain.Workout, error)
	Delete(ctx context.Context, actorRef, workoutID string) error
	Duplicate(ctx context.Context, actorRef, workoutID, newName, newDescription string) (*domain.Workout, error)
	CheckLimit(ctx context.Context, actorRef string) (LimitStatus, error)

	AddDay(ctx context.Context, actorRef, workoutID, name string) (*domain.Workout, error)
	RenameDay(ctx context.Context, actorRef, workoutID string, day int, name string) (*domain.Workout, error)
	DeleteDay(ctx context.Context, actorRef, workoutID string, day int) (*domain.Workout, error)
	AddBlock(ctx context.Context, actorRef, workoutID string, day int, name string) (*domain.Workout, error)
	RenameBlock(ctx context.Context, actorRef, workoutID string, day, block int, name string) (*domain.Workout, error)
	DeleteBlock(ctx context.Context, actorRef, workoutID string, day, block int) (*domain.Workout, error)
	AddExercise(ctx context.Context, actorRef, workoutID string, day, block int, in ExerciseInput) (*domain.Workout, error)
	UpdateExercise(ctx context.Context, actorRef, workoutID string, day, block, exercise int, in ExerciseInput) (*domain.Workout, error)
	DeleteExercise(ctx context.Context, actorRef, workoutID string, day, block, exercise int) (*domain.Workout, error)
}

type workoutService struct {
	workoutRepo repository.WorkoutRepository
	users       UserService
	maxActive   int
	videoHosts  []string
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(workoutRepo repository.WorkoutRepository, users UserService, maxActive int, videoHosts []string) WorkoutService {
	if maxActive <= 0 {
		maxActive = 3
	}
	return &workoutService{
		workoutRepo: workoutRepo,
		users:       users,
		maxActive:   maxActive,
		videoHosts:  videoHosts,
	}
}

// loadAuthorized runs the shared entry sequence of every workout operation:
// id well-formedness, actor resolution, existence, then authorization — in
// that order, so a malformed id never reaches the database and an unknown
// workout reads as not-found rather than forbidden.
func (s *workoutService) loadAuthorized(ctx context.Context, actorRef, workoutID string, action Action) (*domain.User, *domain.Workout, error) {
	id, err := primitive.ObjectIDFromHex(workoutID)
	if err != nil {
		return nil, nil, ErrInvalidID
	}

	actor, err := s.users.ResolveActor(ctx, actorRef)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, err
	}

	workout, err := s.workoutRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrWorkoutNotFound
		}
		return nil, nil, err
	}
	workout.Normalize()

	if decision := Authorize(actor, workout, action); !decision.Allowed {
		return nil, nil, ErrForbidden
	}
	return actor, workout, nil
}

// checkQuota enforces the active-workout quota for non-privileged actors.
func (s *workoutService) checkQuota(ctx context.Context, actor *domain.User) error {
	if actor.IsPrivileged() {
		return nil
	}
	count, err := s.workoutRepo.CountActiveOwned(ctx, actor.ID)
	if err != nil {
		return err
	}
	if count >= int64(s.maxActive) {
		return ErrLimitReached
	}
	return nil
}

// CheckLimit reports the actor's standing against the creation quota.
// Admins and coaches are unconditionally exempt. An unresolvable actor gets a
// fail-closed answer instead of an error so the UI can render it directly.
func (s *workoutService) CheckLimit(ctx context.Context, actorRef string) (LimitStatus, error) {
	actor, err := s.users.ResolveActor(ctx, actorRef)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LimitStatus{CanCreate: false, MaxAllowed: 0}, nil
		}
		return LimitStatus{}, err
	}

	if actor.IsPrivileged() {
		return LimitStatus{
			CanCreate:  true,
			MaxAllowed: UnlimitedWorkouts,
			Role:       actor.PrimaryRole(),
		}, nil
	}

	count, err := s.workoutRepo.CountActiveOwned(ctx, actor.ID)
	if err != nil {
		return LimitStatus{}, err
	}
	return LimitStatus{
		CanCreate:    count < int64(s.maxActive),
		CurrentCount: int(count),
		MaxAllowed:   s.maxActive,
		Role:         actor.PrimaryRole(),
	}, nil
}

// Create builds a new workout owned by the actor. Non-privileged actors are
// quota-gated. The incoming tree is sanitized and validated exercise by
// exercise before the single insert.
func (s *workoutService) Create(ctx context.Context, actorRef, name, description string, days []domain.Day) (*domain.Workout, error) {
	actor, err := s.users.ResolveActor(ctx, actorRef)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	if err := s.checkQuota(ctx, actor); err != nil {
		return nil, err
	}

	name = sanitize.Text(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	if days == nil {
		days = []domain.Day{}
	}
	for di := range days {
		days[di].Name = sanitize.Text(days[di].Name)
		for bi := range days[di].Blocks {
			days[di].Blocks[bi].Name = sanitize.Text(days[di].Blocks[bi].Name)
			for ei := range days[di].Blocks[bi].Exercises {
				cleaned, err := s.cleanExercise(exerciseInputFrom(days[di].Blocks[bi].Exercises[ei]))
				if err != nil {
					return nil, err
				}
				cleaned.ID = days[di].Blocks[bi].Exercises[ei].ID
				days[di].Blocks[bi].Exercises[ei] = cleaned
			}
		}
	}

	workout := &domain.Workout{
		UserID:            actor.ID,
		CreatedBy:         actor.ID,
		Name:              name,
		Description:       sanitize.Text(description),
		Status:            domain.StatusActive,
		AssignedCoaches:   []primitive.ObjectID{},
		AssignedCustomers: []primitive.ObjectID{},
		Days:              days,
	}
	workout.Normalize()

	id, err := s.workoutRepo.Create(ctx, workout)
	if err != nil {
		return nil, err
	}
	workout.ID = id
	return workout, nil
}

// Get returns a single workout after the read-time normalization pass.
func (s *workoutService) Get(ctx context.Context, actorRef, workoutID string) (*domain.Workout, error) {
	_, workout, err := s.loadAuthorized(ctx, actorRef, workoutID, ActionView)
	if err != nil {
		return nil, err
	}
	return workout, nil
}

// ListForActor returns the workouts the actor owns or is assigned to.
func (s *workoutService) ListForActor(ctx context.Context, actorRef string) ([]domain.Workout, error) {
	actor, err := s.users.ResolveActor(ctx, actorRef)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	workouts, err := s.workoutRepo.ListForUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	for i := range workouts {
		workouts[i].Normalize()
	}
	return workouts, nil
}

// UpdateMeta changes name, description and/or status of a workout.
func (s *workoutService) UpdateMeta(ctx context.Context, actorRef, workoutID string, upd MetaUpdate) (*domain.Workout, error) {
	_, workout, err := s.loadAuthorized(ctx, actorRef, workoutID, ActionEdit)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name := sanitize.Text(*upd.Name)
		if name == "" {
			return nil, ErrEmptyName
		}
		workout.Name = name
	}
	if upd.Description != nil {
		workout.Description = sanitize.Text(*upd.Description)
	}
	if upd.Status != nil {
		if !domain.IsValidStatus(*upd.Status) {
			return nil, ErrInvalidStatus
		}
		workout.Status = *upd.Status
	}

	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		return nil, err
	}
	return workout, nil
}

// Delete removes a workout.
func (s *workoutService) Delete(ctx context.Context, actorRef, workoutID string) error {
	_, workout, err := s.loadAuthorized(ctx, actorRef, workoutID, ActionDelete)
	if err != nil {
		return err
	}
	return s.workoutRepo.Delete(ctx, workout.ID)
}

// Duplicate deep-copies a workout for the requesting actor. Every day, block
// and exercise in the copy gets a fresh identity; the copy starts owned by
// the actor alone, assigned to them as customer and stripped of the source's
// coach set. The copy is built in memory and persisted in one insert, so a
// failure at any step writes nothing.
func (s *workoutService) Duplicate(ctx context.Context, actorRef, workoutID, newName, newDescription string) (*domain.Workout, error) {
	id, err := primitive.ObjectIDFromHex(workoutID)
	if err != nil {
		return nil, ErrInvalidID
	}

	actor, err := s.users.ResolveActor(ctx, actorRef)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	if err := s.checkQuota(ctx, actor); err != nil {
		return nil, err
	}

	source, err := s.workoutRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	source.Normalize()

	// Duplication reads the source; anyone with view access may copy it.
	if decision := Authorize(actor, source, ActionView); !decision.Allowed {
		return nil, ErrForbidden
	}

	name := sanitize.Text(newName)
	if name == "" {
		name = source.Name + " (Copia)"
	}
	description := sanitize.Text(newDescription)
	if newDescription == "" {
		description = source.Description
	}

	dup := &domain.Workout{
		UserID:            actor.ID,
		CreatedBy:         actor.ID,
		Name:              name,
		Description:       description,
		Status:            domain.StatusActive,
		AssignedCoaches:   []primitive.ObjectID{},
		AssignedCustomers: []primitive.ObjectID{actor.ID},
		Days:              source.CloneDays(),
	}

	dupID, err := s.workoutRepo.Create(ctx, dup)
	if err != nil {
		return nil, err
	}
	dup.ID = dupID
	return dup, nil
}

// --- Tree mutations ---
// Each loads the workout, requires edit permission, mutates the addressed
// node and writes the whole document back (single-document read-modify-write;
// no cross-document atomicity needed here).

func (s *workoutService) AddDay(ctx context.Context, actorRef, workoutID, name string) (*domain.Workout, error) {
	_, workout, err := s.loadAuthorized(ctx, actorRef, workoutID, ActionEdit)
	if err != nil {
		return nil, err
	}
	workout.Days = append(workout.Days, domain.Day{
		ID:     primitive.NewObjectID(),
		Name:   sanitize.Text(name),
		Blocks: []domain.Block{},
	})
	workout.Normalize()
	return s.save(ctx, workout)
}

func (s *workoutService) RenameDay(ctx context.Context, actorRef, workoutID string, day int, name string) (*domain.Workout, error) {
	_, workout, err := s.loadAuthorized(ctx, actorRef, workoutID, ActionEdit)
	if err != nil {
		return nil, err
	}
	if day < 0 || day >= len(workout.Days) {
		return nil, ErrInvalidPath
	}
	name = sanitize.Text(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	workout.Days[day].Name = name
	return s.save(ctx, workout)
}

func (s *workoutService) DeleteDay(ctx context.Context, actorRef, workoutID string, day int) (*domain.Workout, error) {
	_, workout, err := s.loadAuthorized(ctx, actorRef, workoutID, ActionEdit)
	if err != nil {
		return nil, err
	}
	if day < 0 || day >= len(workout.Days) {
		return nil, ErrInvalidPath
	}
	workout.Days = append(workout.Days[:day], workout.Days[day+1:]...)
	return s.save(ctx, workout)
}

func (s *workoutService) AddBlock(ctx context.Context, actorRef, workoutID string, day int, name string) (*domain.Workout, error) {
	_, workout, err := s.loadAuthorized(ctx, actorRef, workoutID, ActionEdit)
	if err != nil {
		return nil, err
	}
	if day < 0 || day >= len(workout.Days) {
		return nil, ErrInvalidPath
	}
	workout.Days[day].Blocks = append(workout.Days[day].Blocks, domain.Block{
		ID:        primitive.NewObjectID(),
		Name:      sanitize.Text(name),
		Exercises: []domain.Exercise{},
	})
	workout.Normalize()
	return s.save(ctx, workout)
}

func (s *workoutService) RenameBlock(ctx context.Context, actorRef, workoutID string, day, block int, name string) (*domain.Workout, error) {
	_, workout, err := s.loadAuthorized(ctx, actorRef, workoutID, ActionEdit)
	if err != nil {
		return nil, err
	}
	if err := checkPath(workout, day, block, -1); err != nil {
		return nil, err
	}
	name = sanitize.Text(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	workout.Days[day].Blocks[block].Name = name
	return s.save(ctx, workout)
}

func (s *workoutService) DeleteBlock(ctx context.Context, actorRef, workoutID string, day, block int) (*domain.Workout, error) {
	_, workout, err := s.loadAuthorized(ctx, actorRef, workoutID, ActionEdit)
	if err != nil {
		return nil, err
	}
	if err := checkPath(workout, day, block, -1); err != nil {
		return nil, err
	}
	blocks := workout.Days[day].Blocks
	workout.Days[day].Blocks = append(blocks[:block], blocks[block+1:]...)
	return s.save(ctx, workout)
}

func (s *workoutService) AddExercise(ctx context.Context, actorRef, workoutID string, day, block int, in ExerciseInput) (*domain.Workout, error) {
	_, workout, err := s.loadAuthorized(ctx, actorRef, workoutID, ActionEdit)
	if err != nil {
		return nil, err
	}
	if err := checkPath(workout, day, block, -1); err != nil {
		return nil, err
	}
	exercise, err := s.cleanExercise(in)
	if err != nil {
		return nil, err
	}
	exercise.ID = primitive.NewObjectID()
	workout.Days[day].Blocks[block].Exercises = append(workout.Days[day].Blocks[block].Exercises, exercise)
	return s.save(ctx, workout)
}

func (s *workoutService) UpdateExercise(ctx context.Context, actorRef, workoutID string, day, block, exercise int, in ExerciseInput) (*domain.Workout, error) {
	_, workout, err := s.loadAuthorized(ctx, actorRef, workoutID, ActionEdit)
	if err != nil {
		return nil, err
	}
	if err := checkPath(workout, day, block, exercise); err != nil {
		return nil, err
	}
	cleaned, err := s.cleanExercise(in)
	if err != nil {
		return nil, err
	}
	// Identity is stable across edits; only the fields change.
	cleaned.ID = workout.Days[day].Blocks[block].Exercises[exercise].ID
	workout.Days[day].Blocks[block].Exercises[exercise] = cleaned
	return s.save(ctx, workout)
}

func (s *workoutService) DeleteExercise(ctx context.Context, actorRef, workoutID string, day, block, exercise int) (*domain.Workout, error) {
	_, workout, err := s.loadAuthorized(ctx, actorRef, workoutID, ActionEdit)
	if err != nil {
		return nil, err
	}
	if err := checkPath(workout, day, block, exercise); err != nil {
		return nil, err
	}
	exercises := workout.Days[day].Blocks[block].Exercises
	workout.Days[day].Blocks[block].Exercises = append(exercises[:exercise], exercises[exercise+1:]...)
	return s.save(ctx, workout)
}

func (s *workoutService) save(ctx context.Context, workout *domain.Workout) (*domain.Workout, error) {
	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return workout, nil
}

// checkPath bounds-checks an index path into the tree. Pass -1 for levels
// that are not addressed.
func checkPath(w *domain.Workout, day, block, exercise int) error {
	if day < 0 || day >= len(w.Days) {
		return ErrInvalidPath
	}
	if block < 0 || block >= len(w.Days[day].Blocks) {
		return ErrInvalidPath
	}
	if exercise >= 0 && exercise >= len(w.Days[day].Blocks[block].Exercises) {
		return ErrInvalidPath
	}
	return nil
}

// cleanExercise validates and sanitizes exercise input.
func (s *workoutService) cleanExercise(in ExerciseInput) (domain.Exercise, error) {
	name := sanitize.Text(in.Name)
	if name == "" {
		return domain.Exercise{}, ErrEmptyName
	}
	if in.Sets < 0 || in.Reps < 0 || in.Weight < 0 {
		return domain.Exercise{}, errors.New("las series, repeticiones y peso no pueden ser negativos")
	}
	tags := make([]domain.BodyZone, 0, len(in.Tags))
	for _, tag := range in.Tags {
		if !domain.IsValidZone(tag) {
			return domain.Exercise{}, ErrInvalidZone
		}
		tags = append(tags, tag)
	}
	videoURL, ok := sanitize.VideoURL(in.VideoURL, s.videoHosts)
	if !ok {
		return domain.Exercise{}, ErrInvalidVideoURL
	}
	return domain.Exercise{
		Name:     name,
		Sets:     in.Sets,
		Reps:     in.Reps,
		Weight:   in.Weight,
		VideoURL: videoURL,
		Notes:    sanitize.Text(in.Notes),
		Tags:     tags,
	}, nil
}

func exerciseInputFrom(ex domain.Exercise) ExerciseInput {
	return ExerciseInput{
		Name:     ex.Name,
		Sets:     ex.Sets,
		Reps:     ex.Reps,
		Weight:   ex.Weight,
		VideoURL: ex.VideoURL,
		Notes:    ex.Notes,
		Tags:     ex.Tags,
	}
}
