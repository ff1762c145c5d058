package service

import (
	"testing"

	"entrenafit/coaching-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAuthorizeViewIsAnOrOfIndependentGrants(t *testing.T) {
	owner := &domain.User{ID: primitive.NewObjectID(), Roles: []domain.Role{domain.RoleCustomer}}
	stranger := &domain.User{ID: primitive.NewObjectID(), Roles: []domain.Role{domain.RoleCustomer}}
	coach := &domain.User{ID: primitive.NewObjectID(), Roles: []domain.Role{domain.RoleCoach}}
	admin := &domain.User{ID: primitive.NewObjectID(), Roles: []domain.Role{domain.RoleAdmin}}

	workout := &domain.Workout{ID: primitive.NewObjectID(), UserID: owner.ID}

	if d := Authorize(stranger, workout, ActionView); d.Allowed {
		t.Fatalf("stranger allowed to view with no grant")
	}
	for name, actor := range map[string]*domain.User{"owner": owner, "coach": coach, "admin": admin} {
		if d := Authorize(actor, workout, ActionView); !d.Allowed {
			t.Fatalf("%s denied view: %s", name, d.Reason)
		}
	}

	// Adding the stranger to the assignment set flips exactly the view grant.
	workout.AssignedCustomers = []primitive.ObjectID{stranger.ID}
	if d := Authorize(stranger, workout, ActionView); !d.Allowed {
		t.Fatalf("assigned customer denied view: %s", d.Reason)
	}
	if d := Authorize(stranger, workout, ActionEdit); d.Allowed {
		t.Fatalf("assigned customer allowed to edit")
	}
	if d := Authorize(stranger, workout, ActionDelete); d.Allowed {
		t.Fatalf("assigned customer allowed to delete")
	}
}

func TestAuthorizeMutationsRequireOwnerAdminOrCoach(t *testing.T) {
	owner := &domain.User{ID: primitive.NewObjectID(), Roles: []domain.Role{domain.RoleCustomer}}
	coach := &domain.User{ID: primitive.NewObjectID(), Roles: []domain.Role{domain.RoleCoach}}
	assignedCoach := &domain.User{ID: primitive.NewObjectID(), Roles: []domain.Role{domain.RoleCoach}}
	stranger := &domain.User{ID: primitive.NewObjectID(), Roles: []domain.Role{domain.RoleCustomer}}

	workout := &domain.Workout{
		ID:              primitive.NewObjectID(),
		UserID:          owner.ID,
		AssignedCoaches: []primitive.ObjectID{assignedCoach.ID},
	}

	for _, action := range []Action{ActionEdit, ActionAssign, ActionDelete} {
		if d := Authorize(owner, workout, action); !d.Allowed {
			t.Fatalf("owner denied %s: %s", action, d.Reason)
		}
		if d := Authorize(coach, workout, action); !d.Allowed {
			t.Fatalf("coach denied %s: %s", action, d.Reason)
		}
		if d := Authorize(stranger, workout, action); d.Allowed {
			t.Fatalf("stranger allowed %s", action)
		}
	}
	// Assigned coaches hold the coach role anyway; the set itself grants view.
	if d := Authorize(assignedCoach, workout, ActionView); !d.Allowed {
		t.Fatalf("assigned coach denied view: %s", d.Reason)
	}
}

func TestAuthorizeDeniesNilActorOrWorkout(t *testing.T) {
	workout := &domain.Workout{ID: primitive.NewObjectID()}
	actor := &domain.User{ID: primitive.NewObjectID()}

	if d := Authorize(nil, workout, ActionView); d.Allowed {
		t.Fatalf("nil actor allowed")
	}
	if d := Authorize(actor, nil, ActionView); d.Allowed {
		t.Fatalf("nil workout allowed")
	}
	if d := Authorize(actor, workout, Action("purge")); d.Allowed {
		t.Fatalf("unknown action allowed")
	}
}
