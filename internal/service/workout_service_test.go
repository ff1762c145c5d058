package service

import (
	"context"
	"errors"
	"testing"

	"entrenafit/coaching-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newWorkoutService(store *fakeStore, users UserService) WorkoutService {
	workoutRepo := &fakeWorkoutRepo{store: store}
	return NewWorkoutService(workoutRepo, users, 3, []string{"youtube.com", "vimeo.com"})
}

func TestDuplicateAssignsFreshIdentitiesToEveryNode(t *testing.T) {
	store, _, _, users := newTestEnv()
	svc := newWorkoutService(store, users)

	owner := newTestUser(store, "owner")
	workout := newTestWorkout(store, owner.ID, "Fuerza", dayTree(2, 2, 3))

	dup, err := svc.Duplicate(context.Background(), owner.ID.Hex(), workout.ID.Hex(), "", "")
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}

	if dup.NodeCount() != workout.NodeCount() {
		t.Fatalf("node count changed: source %d, copy %d", workout.NodeCount(), dup.NodeCount())
	}

	sourceIDs := map[primitive.ObjectID]bool{workout.ID: true}
	for _, id := range workout.NodeIDs() {
		sourceIDs[id] = true
	}
	for _, id := range dup.NodeIDs() {
		if sourceIDs[id] {
			t.Fatalf("copy reuses identity %s from source tree", id.Hex())
		}
	}
	if dup.ID == workout.ID {
		t.Fatalf("copy reuses the source workout id")
	}
}

func TestDuplicateResetsOwnershipAndAssignmentSets(t *testing.T) {
	store, _, _, users := newTestEnv()
	svc := newWorkoutService(store, users)

	owner := newTestUser(store, "owner", domain.RoleCoach)
	other := newTestUser(store, "other", domain.RoleCoach)
	actor := newTestUser(store, "actor", domain.RoleCoach)

	workout := newTestWorkout(store, owner.ID, "Base", dayTree(1, 1, 1))
	workout.AssignedCoaches = []primitive.ObjectID{other.ID}
	workout.AssignedCustomers = []primitive.ObjectID{owner.ID, other.ID}
	store.putWorkout(workout)

	dup, err := svc.Duplicate(context.Background(), actor.ID.Hex(), workout.ID.Hex(), "", "")
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}

	if dup.UserID != actor.ID || dup.CreatedBy != actor.ID {
		t.Fatalf("copy not owned by duplicating actor: userId=%s createdBy=%s", dup.UserID.Hex(), dup.CreatedBy.Hex())
	}
	if len(dup.AssignedCoaches) != 0 {
		t.Fatalf("copy kept %d assigned coaches, want none", len(dup.AssignedCoaches))
	}
	if len(dup.AssignedCustomers) != 1 || dup.AssignedCustomers[0] != actor.ID {
		t.Fatalf("copy assignedCustomers = %v, want exactly the actor", dup.AssignedCustomers)
	}
}

func TestDuplicateByAssignedCustomerPreservesStructure(t *testing.T) {
	store, _, _, users := newTestEnv()
	svc := newWorkoutService(store, users)

	coach := newTestUser(store, "coach", domain.RoleCoach)
	customer := newTestUser(store, "customer")

	workout := newTestWorkout(store, coach.ID, "Plan semanal", dayTree(2, 1, 3))
	workout.AssignedCustomers = []primitive.ObjectID{customer.ID}
	store.putWorkout(workout)

	dup, err := svc.Duplicate(context.Background(), customer.ID.Hex(), workout.ID.Hex(), "", "")
	if err != nil {
		t.Fatalf("assigned customer should be able to duplicate: %v", err)
	}

	if len(dup.Days) != 2 {
		t.Fatalf("copy has %d days, want 2", len(dup.Days))
	}
	for di, day := range dup.Days {
		if len(day.Blocks) != 1 {
			t.Fatalf("day %d has %d blocks, want 1", di, len(day.Blocks))
		}
		if len(day.Blocks[0].Exercises) != 3 {
			t.Fatalf("day %d block has %d exercises, want 3", di, len(day.Blocks[0].Exercises))
		}
	}
	if len(dup.AssignedCustomers) != 1 || dup.AssignedCustomers[0] != customer.ID {
		t.Fatalf("copy assignedCustomers = %v, want [customer]", dup.AssignedCustomers)
	}
	if len(dup.AssignedCoaches) != 0 {
		t.Fatalf("copy assignedCoaches = %v, want empty", dup.AssignedCoaches)
	}
}

func TestDuplicateDefaultsNameAndDescription(t *testing.T) {
	store, _, _, users := newTestEnv()
	svc := newWorkoutService(store, users)

	owner := newTestUser(store, "owner")
	workout := newTestWorkout(store, owner.ID, "Hipertrofia", nil)
	workout.Description = "Bloque de 8 semanas"
	store.putWorkout(workout)

	dup, err := svc.Duplicate(context.Background(), owner.ID.Hex(), workout.ID.Hex(), "", "")
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if dup.Name != "Hipertrofia (Copia)" {
		t.Fatalf("default copy name = %q", dup.Name)
	}
	if dup.Description != "Bloque de 8 semanas" {
		t.Fatalf("default copy description = %q", dup.Description)
	}

	renamed, err := svc.Duplicate(context.Background(), owner.ID.Hex(), workout.ID.Hex(), "<b>Nueva</b>", "sin <i>html</i>")
	if err != nil {
		t.Fatalf("duplicate with name: %v", err)
	}
	if renamed.Name != "Nueva" {
		t.Fatalf("sanitized copy name = %q", renamed.Name)
	}
	if renamed.Description != "sin html" {
		t.Fatalf("sanitized copy description = %q", renamed.Description)
	}
}

func TestDuplicateErrorOrdering(t *testing.T) {
	store, _, _, users := newTestEnv()
	svc := newWorkoutService(store, users)

	owner := newTestUser(store, "owner")
	workout := newTestWorkout(store, owner.ID, "Fuerza", nil)
	stranger := newTestUser(store, "stranger")

	if _, err := svc.Duplicate(context.Background(), owner.ID.Hex(), "not-an-id", "", ""); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("malformed id: got %v, want ErrInvalidID", err)
	}
	ghost := primitive.NewObjectID()
	if _, err := svc.Duplicate(context.Background(), ghost.Hex(), workout.ID.Hex(), "", ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unknown actor: got %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Duplicate(context.Background(), owner.ID.Hex(), ghost.Hex(), "", ""); !errors.Is(err, ErrWorkoutNotFound) {
		t.Fatalf("missing workout: got %v, want ErrWorkoutNotFound", err)
	}
	if _, err := svc.Duplicate(context.Background(), stranger.ID.Hex(), workout.ID.Hex(), "", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger: got %v, want ErrForbidden", err)
	}
}

func TestDuplicateEnforcesQuotaForCustomers(t *testing.T) {
	store, _, _, users := newTestEnv()
	svc := newWorkoutService(store, users)

	customer := newTestUser(store, "customer")
	var last *domain.Workout
	for i := 0; i < 3; i++ {
		last = newTestWorkout(store, customer.ID, "Rutina", nil)
	}

	if _, err := svc.Duplicate(context.Background(), customer.ID.Hex(), last.ID.Hex(), "", ""); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("customer at quota: got %v, want ErrLimitReached", err)
	}
}

func TestCreateRejectedAtQuota(t *testing.T) {
	store, _, _, users := newTestEnv()
	svc := newWorkoutService(store, users)

	customer := newTestUser(store, "customer")
	for i := 0; i < 3; i++ {
		newTestWorkout(store, customer.ID, "Rutina", nil)
	}

	if _, err := svc.Create(context.Background(), customer.ID.Hex(), "Una más", "", nil); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("create at quota: got %v, want ErrLimitReached", err)
	}

	status, err := svc.CheckLimit(context.Background(), customer.ID.Hex())
	if err != nil {
		t.Fatalf("check limit: %v", err)
	}
	if status.CanCreate || status.CurrentCount != 3 || status.MaxAllowed != 3 {
		t.Fatalf("limit status = %+v, want canCreate=false current=3 max=3", status)
	}
}

func TestCheckLimitExemptsPrivilegedRoles(t *testing.T) {
	store, _, _, users := newTestEnv()
	svc := newWorkoutService(store, users)

	coach := newTestUser(store, "coach", domain.RoleCoach)
	admin := newTestUser(store, "admin", domain.RoleAdmin, domain.RoleCoach)
	for i := 0; i < 10; i++ {
		newTestWorkout(store, coach.ID, "Rutina", nil)
		newTestWorkout(store, admin.ID, "Rutina", nil)
	}

	for _, actor := range []*domain.User{coach, admin} {
		status, err := svc.CheckLimit(context.Background(), actor.ID.Hex())
		if err != nil {
			t.Fatalf("check limit for %s: %v", actor.Name, err)
		}
		if !status.CanCreate || status.MaxAllowed != UnlimitedWorkouts {
			t.Fatalf("privileged %s got %+v, want canCreate=true max=unlimited", actor.Name, status)
		}
	}
	if admin.PrimaryRole() != domain.RoleAdmin {
		t.Fatalf("admin+coach primary role = %s", admin.PrimaryRole())
	}
}

func TestCheckLimitFailsClosedForUnknownActor(t *testing.T) {
	store, _, _, users := newTestEnv()
	svc := newWorkoutService(store, users)

	status, err := svc.CheckLimit(context.Background(), primitive.NewObjectID().Hex())
	if err != nil {
		t.Fatalf("check limit: %v", err)
	}
	if status.CanCreate || status.MaxAllowed != 0 {
		t.Fatalf("unknown actor got %+v, want canCreate=false max=0", status)
	}
}

func TestCreateStripsHTMLFromNameAndDescription(t *testing.T) {
	store, _, _, users := newTestEnv()
	svc := newWorkoutService(store, users)

	owner := newTestUser(store, "owner")
	workout, err := svc.Create(context.Background(), owner.ID.Hex(), "<script>x</script>Pierna", "con <b>énfasis</b>", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if workout.Name != "Pierna" {
		t.Fatalf("name = %q, want HTML stripped", workout.Name)
	}
	if workout.Description != "con énfasis" {
		t.Fatalf("description = %q, want HTML stripped", workout.Description)
	}
}

func TestAddDayAndBlocksGetFreshIdentitiesAndPlaceholders(t *testing.T) {
	store, _, _, users := newTestEnv()
	svc := newWorkoutService(store, users)

	owner := newTestUser(store, "owner")
	workout := newTestWorkout(store, owner.ID, "Rutina", nil)

	updated, err := svc.AddDay(context.Background(), owner.ID.Hex(), workout.ID.Hex(), "")
	if err != nil {
		t.Fatalf("add day: %v", err)
	}
	if len(updated.Days) != 1 {
		t.Fatalf("workout has %d days, want 1", len(updated.Days))
	}
	if updated.Days[0].ID.IsZero() {
		t.Fatalf("new day has no identity")
	}
	if updated.Days[0].Name != "Día 1" {
		t.Fatalf("empty day name defaulted to %q, want \"Día 1\"", updated.Days[0].Name)
	}

	updated, err = svc.AddBlock(context.Background(), owner.ID.Hex(), workout.ID.Hex(), 0, "")
	if err != nil {
		t.Fatalf("add block: %v", err)
	}
	if updated.Days[0].Blocks[0].Name != "Bloque 1" {
		t.Fatalf("empty block name defaulted to %q, want \"Bloque 1\"", updated.Days[0].Blocks[0].Name)
	}
}

func TestUpdateExerciseKeepsStableIdentity(t *testing.T) {
	store, _, _, users := newTestEnv()
	svc := newWorkoutService(store, users)

	owner := newTestUser(store, "owner")
	workout := newTestWorkout(store, owner.ID, "Rutina", dayTree(1, 1, 1))
	originalID := workout.Days[0].Blocks[0].Exercises[0].ID

	updated, err := svc.UpdateExercise(context.Background(), owner.ID.Hex(), workout.ID.Hex(), 0, 0, 0, ExerciseInput{
		Name: "Peso muerto", Sets: 5, Reps: 5, Weight: 100,
		Tags: []domain.BodyZone{domain.ZoneBack, domain.ZoneLegs},
	})
	if err != nil {
		t.Fatalf("update exercise: %v", err)
	}
	got := updated.Days[0].Blocks[0].Exercises[0]
	if got.ID != originalID {
		t.Fatalf("exercise identity changed on edit: %s -> %s", originalID.Hex(), got.ID.Hex())
	}
	if got.Name != "Peso muerto" || got.Sets != 5 {
		t.Fatalf("exercise fields not updated: %+v", got)
	}
}

func TestTreeMutationsRejectOutOfRangePaths(t *testing.T) {
	store, _, _, users := newTestEnv()
	svc := newWorkoutService(store, users)

	owner := newTestUser(store, "owner")
	workout := newTestWorkout(store, owner.ID, "Rutina", dayTree(1, 1, 1))

	if _, err := svc.DeleteDay(context.Background(), owner.ID.Hex(), workout.ID.Hex(), 5); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("delete day out of range: got %v, want ErrInvalidPath", err)
	}
	if _, err := svc.RenameBlock(context.Background(), owner.ID.Hex(), workout.ID.Hex(), 0, 3, "x"); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("rename block out of range: got %v, want ErrInvalidPath", err)
	}
	if _, err := svc.DeleteExercise(context.Background(), owner.ID.Hex(), workout.ID.Hex(), 0, 0, 9); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("delete exercise out of range: got %v, want ErrInvalidPath", err)
	}
}

func TestAssignedCustomerMayViewButNotEdit(t *testing.T) {
	store, _, _, users := newTestEnv()
	svc := newWorkoutService(store, users)

	coach := newTestUser(store, "coach", domain.RoleCoach)
	customer := newTestUser(store, "customer")
	workout := newTestWorkout(store, coach.ID, "Plan", dayTree(1, 1, 1))
	workout.AssignedCustomers = []primitive.ObjectID{customer.ID}
	store.putWorkout(workout)

	if _, err := svc.Get(context.Background(), customer.ID.Hex(), workout.ID.Hex()); err != nil {
		t.Fatalf("assigned customer should view: %v", err)
	}
	if _, err := svc.AddDay(context.Background(), customer.ID.Hex(), workout.ID.Hex(), "Extra"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("assigned customer edit: got %v, want ErrForbidden", err)
	}
}

func TestExerciseVideoURLMustBeAllowlisted(t *testing.T) {
	store, _, _, users := newTestEnv()
	svc := newWorkoutService(store, users)

	owner := newTestUser(store, "owner")
	workout := newTestWorkout(store, owner.ID, "Rutina", dayTree(1, 1, 0))

	_, err := svc.AddExercise(context.Background(), owner.ID.Hex(), workout.ID.Hex(), 0, 0, ExerciseInput{
		Name: "Press banca", VideoURL: "https://evil.example.com/v.mp4",
	})
	if !errors.Is(err, ErrInvalidVideoURL) {
		t.Fatalf("disallowed host: got %v, want ErrInvalidVideoURL", err)
	}

	updated, err := svc.AddExercise(context.Background(), owner.ID.Hex(), workout.ID.Hex(), 0, 0, ExerciseInput{
		Name: "Press banca", VideoURL: "https://youtube.com/watch?v=abc",
	})
	if err != nil {
		t.Fatalf("allowlisted host rejected: %v", err)
	}
	if updated.Days[0].Blocks[0].Exercises[0].VideoURL == "" {
		t.Fatalf("allowlisted video url dropped")
	}
}

func TestGetNormalizesLegacyTreesWithoutIdentities(t *testing.T) {
	store, _, _, users := newTestEnv()
	svc := newWorkoutService(store, users)

	owner := newTestUser(store, "owner")
	// Legacy document: nodes without ids, negative numerics, nil slices.
	workout := store.putWorkout(&domain.Workout{
		UserID:    owner.ID,
		CreatedBy: owner.ID,
		Name:      "Antigua",
		Status:    domain.StatusActive,
		Days: []domain.Day{{
			Blocks: []domain.Block{{
				Exercises: []domain.Exercise{{Name: "Curl", Sets: -1, Reps: -2, Weight: -3}},
			}},
		}},
	})

	got, err := svc.Get(context.Background(), owner.ID.Hex(), workout.ID.Hex())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	day := got.Days[0]
	if day.ID.IsZero() || day.Blocks[0].ID.IsZero() || day.Blocks[0].Exercises[0].ID.IsZero() {
		t.Fatalf("normalization did not synthesize node identities")
	}
	if day.Name != "Día 1" || day.Blocks[0].Name != "Bloque 1" {
		t.Fatalf("placeholder names not applied: day=%q block=%q", day.Name, day.Blocks[0].Name)
	}
	ex := day.Blocks[0].Exercises[0]
	if ex.Sets != 0 || ex.Reps != 0 || ex.Weight != 0 {
		t.Fatalf("negative numerics not clamped: %+v", ex)
	}
	if ex.Tags == nil {
		t.Fatalf("nil tags not defaulted to empty set")
	}
}
