package service

import (
	"context"
	"errors"

	"entrenafit/coaching-app/internal/domain"
	"entrenafit/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrUserNotFound = errors.New("usuario no encontrado")
	ErrUnauthorized = errors.New("no autorizado: sesión no válida")
	ErrInvalidRoles = errors.New("el conjunto de roles no es válido")
)

// UserService resolves actors and owns the admin-side user operations.
type UserService interface {
	// ResolveActor resolves a user from a canonical id, an email address or an
	// external identity provider subject, tried in that order.
	ResolveActor(ctx context.Context, ref string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	// UpdateRoles replaces a user's role set. Admin only.
	UpdateRoles(ctx context.Context, actorRef string, targetID string, roles []domain.Role) (*domain.User, error)
	// ListUsers returns every account. Admin only.
	ListUsers(ctx context.Context, actorRef string) ([]domain.User, error)
	// ListCustomers returns every customer account. Coach or admin.
	ListCustomers(ctx context.Context, actorRef string) ([]domain.User, error)
}

type userService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new instance of userService.
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// ResolveActor tries canonical-id lookup first, then email, then the external
// subject claim. Resolution failure is ErrUserNotFound, which is distinct from
// an authorization failure on an existing resource.
func (s *userService) ResolveActor(ctx context.Context, ref string) (*domain.User, error) {
	if ref == "" {
		return nil, ErrUserNotFound
	}

	if id, err := primitive.ObjectIDFromHex(ref); err == nil {
		user, err := s.userRepo.GetByID(ctx, id)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	user, err := s.userRepo.GetByEmail(ctx, ref)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	user, err = s.userRepo.GetByAuthSubject(ctx, ref)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	return nil, ErrUserNotFound
}

func (s *userService) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateRoles replaces the target user's role set. Only admins may change
// roles; the set must be non-empty and every role must be known.
func (s *userService) UpdateRoles(ctx context.Context, actorRef string, targetID string, roles []domain.Role) (*domain.User, error) {
	actor, err := s.ResolveActor(ctx, actorRef)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	if len(roles) == 0 {
		return nil, ErrInvalidRoles
	}
	seen := map[domain.Role]bool{}
	for _, r := range roles {
		if !domain.IsValidRole(r) || seen[r] {
			return nil, ErrInvalidRoles
		}
		seen[r] = true
	}

	id, err := primitive.ObjectIDFromHex(targetID)
	if err != nil {
		return nil, ErrInvalidID
	}

	if err := s.userRepo.UpdateRoles(ctx, id, roles); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// ListUsers returns every account, admin only.
func (s *userService) ListUsers(ctx context.Context, actorRef string) ([]domain.User, error) {
	actor, err := s.ResolveActor(ctx, actorRef)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.userRepo.List(ctx)
}

// ListCustomers returns every customer account, for coach rosters.
func (s *userService) ListCustomers(ctx context.Context, actorRef string) ([]domain.User, error) {
	actor, err := s.ResolveActor(ctx, actorRef)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	return s.userRepo.ListByRole(ctx, domain.RoleCustomer)
}
