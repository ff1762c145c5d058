package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"entrenafit/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrTransactionFailed = errors.New("no se pudo completar la asignación")

// AssignmentResult is what the assignment endpoint hands back to the UI.
// Assignment never throws past its boundary: failures come back with
// Success=false and a message the UI can show, so the caller decides whether
// to retry. Set-union semantics make a retry always safe.
type AssignmentResult struct {
	Success           bool     `json:"success"`
	ID                string   `json:"id,omitempty"`
	Name              string   `json:"name,omitempty"`
	AssignedCoaches   []string `json:"assignedCoaches"`
	AssignedCustomers []string `json:"assignedCustomers"`
	Error             string   `json:"error,omitempty"`
}

func assignmentFailure(msg string) AssignmentResult {
	return AssignmentResult{
		Success:           false,
		AssignedCoaches:   []string{},
		AssignedCustomers: []string{},
		Error:             msg,
	}
}

// AssignmentService attaches coaches and customers to a workout and mirrors
// the reverse reference onto each user document, all-or-nothing.
type AssignmentService interface {
	Assign(ctx context.Context, actorRef, workoutID string, coachIDs, customerIDs []string) AssignmentResult
}

type assignmentService struct {
	workoutRepo repository.WorkoutRepository
	userRepo    repository.UserRepository
	users       UserService
	tx          repository.TxRunner
}

// NewAssignmentService creates a new instance of assignmentService.
func NewAssignmentService(workoutRepo repository.WorkoutRepository, userRepo repository.UserRepository, users UserService, tx repository.TxRunner) AssignmentService {
	return &assignmentService{
		workoutRepo: workoutRepo,
		userRepo:    userRepo,
		users:       users,
		tx:          tx,
	}
}

// Assign validates every id up front, then runs the workout update and the
// per-user back-reference updates inside one transaction. Any malformed id
// aborts the whole call before I/O; any failure inside the transaction leaves
// both the workout and every user document untouched. Re-assigning an already
// assigned id is a no-op, so the operation is idempotent and commutative.
func (s *assignmentService) Assign(ctx context.Context, actorRef, workoutID string, coachIDs, customerIDs []string) AssignmentResult {
	// 1. Validate every id before touching storage. All offenders are
	// reported together so the UI can point at each one.
	var malformed []string
	wID, err := primitive.ObjectIDFromHex(workoutID)
	if err != nil {
		malformed = append(malformed, workoutID)
	}
	coaches, bad := parseIDs(coachIDs)
	malformed = append(malformed, bad...)
	customers, bad := parseIDs(customerIDs)
	malformed = append(malformed, bad...)
	if len(malformed) > 0 {
		return assignmentFailure(fmt.Sprintf("identificadores no válidos: %s", strings.Join(malformed, ", ")))
	}

	// 2. Resolve and authorize the actor against the existing workout.
	actor, err := s.users.ResolveActor(ctx, actorRef)
	if err != nil {
		return assignmentFailure(ErrUnauthorized.Error())
	}
	workout, err := s.workoutRepo.GetByID(ctx, wID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return assignmentFailure(ErrWorkoutNotFound.Error())
		}
		return assignmentFailure(ErrTransactionFailed.Error())
	}
	if decision := Authorize(actor, workout, ActionAssign); !decision.Allowed {
		return assignmentFailure(ErrForbidden.Error())
	}

	// 3. One transaction: union the workout's sets, then mirror the back
	// reference onto every named user. A missing user aborts everything.
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.workoutRepo.AddAssignments(txCtx, wID, coaches, customers); err != nil {
			return err
		}
		for _, coachID := range coaches {
			if err := s.userRepo.AddCoachedWorkout(txCtx, coachID, wID); err != nil {
				return err
			}
		}
		for _, customerID := range customers {
			if err := s.userRepo.AddAssignedWorkout(txCtx, customerID, wID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("ERROR: assignment transaction for workout %s aborted: %v", wID.Hex(), err)
		return assignmentFailure(ErrTransactionFailed.Error())
	}

	// 4. Re-read the committed state for the response.
	updated, err := s.workoutRepo.GetByID(ctx, wID)
	if err != nil {
		return assignmentFailure(ErrTransactionFailed.Error())
	}
	updated.Normalize()

	return AssignmentResult{
		Success:           true,
		ID:                updated.ID.Hex(),
		Name:              updated.Name,
		AssignedCoaches:   hexIDs(updated.AssignedCoaches),
		AssignedCustomers: hexIDs(updated.AssignedCustomers),
	}
}

func parseIDs(raw []string) ([]primitive.ObjectID, []string) {
	ids := make([]primitive.ObjectID, 0, len(raw))
	var malformed []string
	for _, r := range raw {
		id, err := primitive.ObjectIDFromHex(r)
		if err != nil {
			malformed = append(malformed, r)
			continue
		}
		ids = append(ids, id)
	}
	return ids, malformed
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}
