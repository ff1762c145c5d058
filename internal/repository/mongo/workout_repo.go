package mongo

import (
	"context"
	"errors"
	"log"
	"time"

	"entrenafit/coaching-app/internal/domain"
	"entrenafit/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const workoutCollectionName = "workouts"

// mongoWorkoutRepository implements repository.WorkoutRepository
type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutRepository creates a new Workout repository.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
	}
}

// Create inserts a new workout. The whole day tree goes in with the single
// insert, so a failed create never leaves a partial tree behind.
func (r *mongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.UserID == primitive.NilObjectID || workout.Name == "" {
		return primitive.NilObjectID, errors.New("workout requires userId and name")
	}
	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now
	if workout.Status == "" {
		workout.Status = domain.StatusActive
	}

	result, err := r.collection.InsertOne(ctx, workout)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted workout ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single workout by its ID.
func (r *mongoWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	var workout domain.Workout
	filter := bson.M{"_id": id}
	err := r.collection.FindOne(ctx, filter).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// ListForUser retrieves workouts the user owns or is assigned to, newest first.
func (r *mongoWorkoutRepository) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Workout, error) {
	filter := bson.M{"$or": []bson.M{
		{"userId": userID},
		{"assignedCustomers": userID},
		{"assignedCoaches": userID},
	}}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	workouts := []domain.Workout{}
	if err = cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return workouts, nil
}

// Update replaces the mutable fields of a workout, including the day tree.
func (r *mongoWorkoutRepository) Update(ctx context.Context, workout *domain.Workout) error {
	if workout.ID == primitive.NilObjectID {
		return errors.New("workout ID is required for update")
	}

	filter := bson.M{"_id": workout.ID}
	updateDoc := bson.M{
		"$set": bson.M{
			"name":        workout.Name,
			"description": workout.Description,
			"status":      workout.Status,
			"days":        workout.Days,
			"updatedAt":   time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a workout. Ownership is checked in the service layer, which
// already loaded the document; the filter is by id only.
func (r *mongoWorkoutRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CountActiveOwned counts active workouts both owned and created by the user.
func (r *mongoWorkoutRepository) CountActiveOwned(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	filter := bson.M{
		"userId":    userID,
		"createdBy": userID,
		"status":    domain.StatusActive,
	}
	return r.collection.CountDocuments(ctx, filter)
}

// AddAssignments unions coach and customer ids into the workout's assignment
// sets. $addToSet keeps the operation idempotent: re-assigning is a no-op.
func (r *mongoWorkoutRepository) AddAssignments(ctx context.Context, workoutID primitive.ObjectID, coachIDs, customerIDs []primitive.ObjectID) error {
	addToSet := bson.M{}
	if len(coachIDs) > 0 {
		addToSet["assignedCoaches"] = bson.M{"$each": coachIDs}
	}
	if len(customerIDs) > 0 {
		addToSet["assignedCustomers"] = bson.M{"$each": customerIDs}
	}
	if len(addToSet) == 0 {
		return nil
	}

	filter := bson.M{"_id": workoutID}
	update := bson.M{
		"$addToSet": addToSet,
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureWorkoutIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Quota counting: owner + creator + status.
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdBy", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "assignedCustomers", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "assignedCoaches", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// Not fatal: queries still work unindexed.
		log.Printf("WARN: could not ensure workout indexes: %v", err)
	}
}
