package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutStatus tracks the lifecycle of a routine.
type WorkoutStatus string

const (
	StatusActive   WorkoutStatus = "active"
	StatusComplete WorkoutStatus = "complete"
	StatusArchived WorkoutStatus = "archived"
)

// IsValidStatus reports whether s is a known workout status.
func IsValidStatus(s WorkoutStatus) bool {
	switch s {
	case StatusActive, StatusComplete, StatusArchived:
		return true
	}
	return false
}

// BodyZone labels the muscle group an exercise targets.
type BodyZone string

const (
	ZoneChest     BodyZone = "chest"
	ZoneBack      BodyZone = "back"
	ZoneShoulders BodyZone = "shoulders"
	ZoneArms      BodyZone = "arms"
	ZoneCore      BodyZone = "core"
	ZoneLegs      BodyZone = "legs"
	ZoneGlutes    BodyZone = "glutes"
	ZoneFullBody  BodyZone = "fullbody"
	ZoneCardio    BodyZone = "cardio"
)

var validZones = map[BodyZone]bool{
	ZoneChest: true, ZoneBack: true, ZoneShoulders: true, ZoneArms: true,
	ZoneCore: true, ZoneLegs: true, ZoneGlutes: true, ZoneFullBody: true,
	ZoneCardio: true,
}

// IsValidZone reports whether z is a known body zone.
func IsValidZone(z BodyZone) bool {
	return validZones[z]
}

// Exercise is the leaf of the workout tree.
type Exercise struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Sets     int                `bson:"sets" json:"sets"`
	Reps     int                `bson:"reps" json:"reps"`
	Weight   float64            `bson:"weight" json:"weight"`
	VideoURL string             `bson:"videoUrl,omitempty" json:"videoUrl"`
	Notes    string             `bson:"notes,omitempty" json:"notes"`
	Tags     []BodyZone         `bson:"tags,omitempty" json:"tags"`
}

// Block groups exercises within a day (e.g. warm-up, main lifts, accessories).
type Block struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Exercises []Exercise         `bson:"exercises" json:"exercises"`
}

// Day is one training day within a workout. Order in the slice is execution order.
type Day struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name   string             `bson:"name" json:"name"`
	Blocks []Block            `bson:"blocks" json:"blocks"`
}

// Workout is the aggregate root of a training routine. Days, blocks and
// exercises have no existence outside their parent workout; assignment sets
// are non-owning references into the users collection.
type Workout struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`       // Owner
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"` // Creator (equals owner except for admin-seeded routines)
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description"`
	Status      WorkoutStatus      `bson:"status" json:"status"`

	AssignedCoaches   []primitive.ObjectID `bson:"assignedCoaches,omitempty" json:"assignedCoaches"`
	AssignedCustomers []primitive.ObjectID `bson:"assignedCustomers,omitempty" json:"assignedCustomers"`

	Days []Day `bson:"days" json:"days"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Normalize repairs a workout after load so the API never serves an unkeyed or
// malformed tree. Legacy documents may lack node ids; those are synthesized for
// this load only and never written back. Empty day/block names get numbered
// placeholders, negative numerics are clamped to zero and nil slices become
// empty ones.
func (w *Workout) Normalize() {
	if w.Status == "" {
		w.Status = StatusActive
	}
	if w.AssignedCoaches == nil {
		w.AssignedCoaches = []primitive.ObjectID{}
	}
	if w.AssignedCustomers == nil {
		w.AssignedCustomers = []primitive.ObjectID{}
	}
	if w.Days == nil {
		w.Days = []Day{}
	}
	for di := range w.Days {
		day := &w.Days[di]
		if day.ID.IsZero() {
			day.ID = primitive.NewObjectID()
		}
		if day.Name == "" {
			day.Name = fmt.Sprintf("Día %d", di+1)
		}
		if day.Blocks == nil {
			day.Blocks = []Block{}
		}
		for bi := range day.Blocks {
			block := &day.Blocks[bi]
			if block.ID.IsZero() {
				block.ID = primitive.NewObjectID()
			}
			if block.Name == "" {
				block.Name = fmt.Sprintf("Bloque %d", bi+1)
			}
			if block.Exercises == nil {
				block.Exercises = []Exercise{}
			}
			for ei := range block.Exercises {
				ex := &block.Exercises[ei]
				if ex.ID.IsZero() {
					ex.ID = primitive.NewObjectID()
				}
				if ex.Sets < 0 {
					ex.Sets = 0
				}
				if ex.Reps < 0 {
					ex.Reps = 0
				}
				if ex.Weight < 0 {
					ex.Weight = 0
				}
				if ex.Tags == nil {
					ex.Tags = []BodyZone{}
				}
			}
		}
	}
}

// CloneDays deep-copies the day tree assigning a fresh identity to every day,
// block and exercise in a single traversal. No identity from the source tree
// survives into the copy, so original and duplicate can never alias.
func (w *Workout) CloneDays() []Day {
	days := make([]Day, len(w.Days))
	for di, day := range w.Days {
		copied := Day{
			ID:     primitive.NewObjectID(),
			Name:   day.Name,
			Blocks: make([]Block, len(day.Blocks)),
		}
		for bi, block := range day.Blocks {
			copiedBlock := Block{
				ID:        primitive.NewObjectID(),
				Name:      block.Name,
				Exercises: make([]Exercise, len(block.Exercises)),
			}
			for ei, ex := range block.Exercises {
				ex.ID = primitive.NewObjectID()
				ex.Tags = append([]BodyZone(nil), ex.Tags...)
				copiedBlock.Exercises[ei] = ex
			}
			copied.Blocks[bi] = copiedBlock
		}
		days[di] = copied
	}
	return days
}

// NodeCount returns the total number of days, blocks and exercises.
func (w *Workout) NodeCount() int {
	n := 0
	for _, day := range w.Days {
		n++
		for _, block := range day.Blocks {
			n++
			n += len(block.Exercises)
		}
	}
	return n
}

// NodeIDs collects the identity of every day, block and exercise.
func (w *Workout) NodeIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, w.NodeCount())
	for _, day := range w.Days {
		ids = append(ids, day.ID)
		for _, block := range day.Blocks {
			ids = append(ids, block.ID)
			for _, ex := range block.Exercises {
				ids = append(ids, ex.ID)
			}
		}
	}
	return ids
}

// IsAssignedCoach reports whether id is in the workout's coach set.
func (w *Workout) IsAssignedCoach(id primitive.ObjectID) bool {
	for _, c := range w.AssignedCoaches {
		if c == id {
			return true
		}
	}
	return false
}

// IsAssignedCustomer reports whether id is in the workout's customer set.
func (w *Workout) IsAssignedCustomer(id primitive.ObjectID) bool {
	for _, c := range w.AssignedCustomers {
		if c == id {
			return true
		}
	}
	return false
}
