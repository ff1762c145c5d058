package service

import (
	"errors"

	"entrenafit/coaching-app/internal/domain"
)

var ErrForbidden = errors.New("no tienes permiso para realizar esta acción")

// Action is what an actor wants to do with a workout.
type Action string

const (
	// ActionView covers reading a workout and duplicating it: duplication only
	// reads the source, the copy belongs to the duplicating actor.
	ActionView Action = "view"
	// ActionEdit covers renaming, status changes and day/block/exercise mutations.
	ActionEdit Action = "edit"
	// ActionAssign covers attaching coaches/customers to a workout.
	ActionAssign Action = "assign"
	// ActionDelete covers removing the workout.
	ActionDelete Action = "delete"
)

// Decision is the result of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Authorize decides whether an actor may perform an action on a workout.
// The policy is an OR of independent grants: any true predicate allows, there
// is no deny-overrides rule. Viewing is open to the owner, any admin, any
// coach and anyone in either assignment set. Mutations require owner, admin
// or coach; assigned customers can view and duplicate but not edit the
// routine assigned to them.
//
// Existence is the caller's problem: an unknown workout must be reported as
// not-found before this check runs, so a denied actor cannot probe ids.
func Authorize(actor *domain.User, workout *domain.Workout, action Action) Decision {
	if actor == nil || workout == nil {
		return deny("no autorizado")
	}

	isOwner := workout.UserID == actor.ID
	isAdmin := actor.IsAdmin()
	isCoach := actor.IsCoach()

	switch action {
	case ActionView:
		if isOwner || isAdmin || isCoach ||
			workout.IsAssignedCustomer(actor.ID) || workout.IsAssignedCoach(actor.ID) {
			return allow()
		}
		return deny("no tienes acceso a esta rutina")
	case ActionEdit, ActionAssign, ActionDelete:
		if isOwner || isAdmin || isCoach {
			return allow()
		}
		return deny("no tienes permiso para modificar esta rutina")
	}
	return deny("acción desconocida")
}
