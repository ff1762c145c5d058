package repository

import (
	"context"

	"entrenafit/coaching-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicateKey = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByAuthSubject(ctx context.Context, subject string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	UpdateRoles(ctx context.Context, id primitive.ObjectID, roles []domain.Role) error

	// Back-reference maintenance for workout assignment. Both use set semantics:
	// adding an id that is already present is a no-op, not an error.
	AddAssignedWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) error
	AddCoachedWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) error
}

// WorkoutRepository defines the interface for interacting with workout data.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	// ListForUser returns workouts the user owns plus those assigned to them
	// in either role.
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Workout, error)
	Update(ctx context.Context, workout *domain.Workout) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// CountActiveOwned counts active workouts both owned and created by the user.
	// Feeds the creation quota.
	CountActiveOwned(ctx context.Context, userID primitive.ObjectID) (int64, error)
	// AddAssignments unions the given ids into the workout's coach/customer sets.
	AddAssignments(ctx context.Context, workoutID primitive.ObjectID, coachIDs, customerIDs []primitive.ObjectID) error
}

// TxRunner runs a function inside a single storage transaction. Every
// repository call made with the callback's context joins the transaction;
// if the callback returns an error nothing is committed.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
