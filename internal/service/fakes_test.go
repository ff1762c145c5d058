package service

import (
	"context"
	"errors"
	"time"

	"entrenafit/coaching-app/internal/domain"
	"entrenafit/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. The tx runner snapshots both stores before
// running the callback and restores them when it fails, mimicking the
// all-or-nothing commit of a real transaction.

type fakeStore struct {
	users    map[primitive.ObjectID]*domain.User
	workouts map[primitive.ObjectID]*domain.Workout

	// failAssignedFor makes AddAssignedWorkout fail for the given user,
	// to force a mid-transaction abort.
	failAssignedFor primitive.ObjectID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[primitive.ObjectID]*domain.User{},
		workouts: map[primitive.ObjectID]*domain.Workout{},
	}
}

func (s *fakeStore) putUser(u *domain.User) *domain.User {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	s.users[u.ID] = cloneUser(u)
	return u
}

func (s *fakeStore) putWorkout(w *domain.Workout) *domain.Workout {
	if w.ID.IsZero() {
		w.ID = primitive.NewObjectID()
	}
	s.workouts[w.ID] = cloneWorkout(w)
	return w
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Roles = append([]domain.Role(nil), u.Roles...)
	c.AssignedWorkouts = append([]primitive.ObjectID(nil), u.AssignedWorkouts...)
	c.CoachedWorkouts = append([]primitive.ObjectID(nil), u.CoachedWorkouts...)
	return &c
}

func cloneWorkout(w *domain.Workout) *domain.Workout {
	c := *w
	c.AssignedCoaches = append([]primitive.ObjectID(nil), w.AssignedCoaches...)
	c.AssignedCustomers = append([]primitive.ObjectID(nil), w.AssignedCustomers...)
	c.Days = make([]domain.Day, len(w.Days))
	for di, day := range w.Days {
		cd := day
		cd.Blocks = make([]domain.Block, len(day.Blocks))
		for bi, block := range day.Blocks {
			cb := block
			cb.Exercises = make([]domain.Exercise, len(block.Exercises))
			for ei, ex := range block.Exercises {
				ce := ex
				ce.Tags = append([]domain.BodyZone(nil), ex.Tags...)
				cb.Exercises[ei] = ce
			}
			cd.Blocks[bi] = cb
		}
		c.Days[di] = cd
	}
	return &c
}

// --- UserRepository fake ---

type fakeUserRepo struct {
	store *fakeStore
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, existing := range r.store.users {
		if existing.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
	}
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	r.store.putUser(user)
	return user.ID, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.store.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range r.store.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByAuthSubject(ctx context.Context, subject string) (*domain.User, error) {
	for _, u := range r.store.users {
		if u.AuthSubject != "" && u.AuthSubject == subject {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) List(ctx context.Context) ([]domain.User, error) {
	out := []domain.User{}
	for _, u := range r.store.users {
		out = append(out, *cloneUser(u))
	}
	return out, nil
}

func (r *fakeUserRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	out := []domain.User{}
	for _, u := range r.store.users {
		if u.HasRole(role) {
			out = append(out, *cloneUser(u))
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateRoles(ctx context.Context, id primitive.ObjectID, roles []domain.Role) error {
	u, ok := r.store.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Roles = append([]domain.Role(nil), roles...)
	return nil
}

func (r *fakeUserRepo) AddAssignedWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) error {
	if r.store.failAssignedFor == userID {
		return errors.New("forced failure")
	}
	return r.addToSet(userID, workoutID, false)
}

func (r *fakeUserRepo) AddCoachedWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) error {
	return r.addToSet(userID, workoutID, true)
}

func (r *fakeUserRepo) addToSet(userID, workoutID primitive.ObjectID, coached bool) error {
	u, ok := r.store.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	target := &u.AssignedWorkouts
	if coached {
		target = &u.CoachedWorkouts
	}
	for _, existing := range *target {
		if existing == workoutID {
			return nil
		}
	}
	*target = append(*target, workoutID)
	return nil
}

// --- WorkoutRepository fake ---

type fakeWorkoutRepo struct {
	store *fakeStore
}

func (r *fakeWorkoutRepo) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now
	if workout.Status == "" {
		workout.Status = domain.StatusActive
	}
	r.store.workouts[workout.ID] = cloneWorkout(workout)
	return workout.ID, nil
}

func (r *fakeWorkoutRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	w, ok := r.store.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneWorkout(w), nil
}

func (r *fakeWorkoutRepo) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Workout, error) {
	out := []domain.Workout{}
	for _, w := range r.store.workouts {
		if w.UserID == userID || w.IsAssignedCustomer(userID) || w.IsAssignedCoach(userID) {
			out = append(out, *cloneWorkout(w))
		}
	}
	return out, nil
}

func (r *fakeWorkoutRepo) Update(ctx context.Context, workout *domain.Workout) error {
	if _, ok := r.store.workouts[workout.ID]; !ok {
		return repository.ErrNotFound
	}
	r.store.workouts[workout.ID] = cloneWorkout(workout)
	return nil
}

func (r *fakeWorkoutRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := r.store.workouts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.store.workouts, id)
	return nil
}

func (r *fakeWorkoutRepo) CountActiveOwned(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	var n int64
	for _, w := range r.store.workouts {
		if w.UserID == userID && w.CreatedBy == userID && w.Status == domain.StatusActive {
			n++
		}
	}
	return n, nil
}

func (r *fakeWorkoutRepo) AddAssignments(ctx context.Context, workoutID primitive.ObjectID, coachIDs, customerIDs []primitive.ObjectID) error {
	w, ok := r.store.workouts[workoutID]
	if !ok {
		return repository.ErrNotFound
	}
	w.AssignedCoaches = unionIDs(w.AssignedCoaches, coachIDs)
	w.AssignedCustomers = unionIDs(w.AssignedCustomers, customerIDs)
	return nil
}

func unionIDs(existing, incoming []primitive.ObjectID) []primitive.ObjectID {
	for _, id := range incoming {
		found := false
		for _, have := range existing {
			if have == id {
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, id)
		}
	}
	return existing
}

// --- TxRunner fake ---

type fakeTxRunner struct {
	store *fakeStore
}

func (r *fakeTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	usersSnapshot := map[primitive.ObjectID]*domain.User{}
	for id, u := range r.store.users {
		usersSnapshot[id] = cloneUser(u)
	}
	workoutsSnapshot := map[primitive.ObjectID]*domain.Workout{}
	for id, w := range r.store.workouts {
		workoutsSnapshot[id] = cloneWorkout(w)
	}

	if err := fn(ctx); err != nil {
		r.store.users = usersSnapshot
		r.store.workouts = workoutsSnapshot
		return err
	}
	return nil
}

// --- Shared fixtures ---

func newTestEnv() (*fakeStore, *fakeUserRepo, *fakeWorkoutRepo, UserService) {
	store := newFakeStore()
	userRepo := &fakeUserRepo{store: store}
	workoutRepo := &fakeWorkoutRepo{store: store}
	return store, userRepo, workoutRepo, NewUserService(userRepo)
}

func newTestUser(store *fakeStore, name string, roles ...domain.Role) *domain.User {
	if len(roles) == 0 {
		roles = []domain.Role{domain.RoleCustomer}
	}
	return store.putUser(&domain.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "x",
		Roles:        roles,
	})
}

func newTestWorkout(store *fakeStore, owner primitive.ObjectID, name string, days []domain.Day) *domain.Workout {
	return store.putWorkout(&domain.Workout{
		UserID:    owner,
		CreatedBy: owner,
		Name:      name,
		Status:    domain.StatusActive,
		Days:      days,
	})
}

func dayTree(numDays, blocksPerDay, exercisesPerBlock int) []domain.Day {
	days := make([]domain.Day, numDays)
	for di := range days {
		blocks := make([]domain.Block, blocksPerDay)
		for bi := range blocks {
			exercises := make([]domain.Exercise, exercisesPerBlock)
			for ei := range exercises {
				exercises[ei] = domain.Exercise{
					ID:   primitive.NewObjectID(),
					Name: "Sentadilla",
					Sets: 3, Reps: 10, Weight: 60,
					Tags: []domain.BodyZone{domain.ZoneLegs},
				}
			}
			blocks[bi] = domain.Block{ID: primitive.NewObjectID(), Name: "Bloque", Exercises: exercises}
		}
		days[di] = domain.Day{ID: primitive.NewObjectID(), Name: "Día", Blocks: blocks}
	}
	return days
}
