package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles. A user may hold several at once.
type Role string

// Define constants for roles
const (
	RoleAdmin    Role = "admin"
	RoleCoach    Role = "coach"
	RoleCustomer Role = "customer"
)

// rolePriority orders roles for display purposes only; it confers no permission.
// Lower value wins when computing the primary role.
var rolePriority = map[Role]int{
	RoleAdmin:    1,
	RoleCoach:    2,
	RoleCustomer: 3,
}

// RolePriority returns the display priority of a role. Unknown roles sort last.
func RolePriority(r Role) int {
	if p, ok := rolePriority[r]; ok {
		return p
	}
	return 99
}

// PrimaryRole picks the highest-priority role from a set.
// An empty set defaults to customer.
func PrimaryRole(roles []Role) Role {
	primary := RoleCustomer
	best := 99
	for _, r := range roles {
		if p := RolePriority(r); p < best {
			best = p
			primary = r
		}
	}
	return primary
}

// IsValidRole reports whether r is one of the known roles.
func IsValidRole(r Role) bool {
	_, ok := rolePriority[r]
	return ok
}

// User represents an account in the system. Roles are a set: an admin may also
// coach, and a coach may train under another coach as a customer.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Roles        []Role             `bson:"roles" json:"roles"`
	AuthSubject  string             `bson:"authSubject,omitempty" json:"-"` // External identity provider subject claim

	// Workouts assigned to this user as a customer.
	AssignedWorkouts []primitive.ObjectID `bson:"assignedWorkouts,omitempty" json:"assignedWorkouts,omitempty"`
	// Workouts this user coaches.
	CoachedWorkouts []primitive.ObjectID `bson:"coachedWorkouts,omitempty" json:"coachedWorkouts,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(r Role) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

func (u *User) IsCoach() bool {
	return u.HasRole(RoleCoach)
}

// IsPrivileged reports whether the user is exempt from the workout quota.
func (u *User) IsPrivileged() bool {
	return u.IsAdmin() || u.IsCoach()
}

// PrimaryRole returns the user's display role.
func (u *User) PrimaryRole() Role {
	return PrimaryRole(u.Roles)
}
