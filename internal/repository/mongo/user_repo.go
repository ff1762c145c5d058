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

const userCollectionName = "users"

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
// It expects a connected *mongo.Database instance.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(userCollectionName),
	}
}

// Create inserts a new user into the database.
func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" || len(user.Roles) == 0 {
		return primitive.NilObjectID, errors.New("user email, password hash, and roles are required")
	}

	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves a user by their MongoDB ObjectID.
func (r *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail retrieves a user by their email address.
func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetByAuthSubject retrieves a user by their external identity provider subject.
func (r *mongoUserRepository) GetByAuthSubject(ctx context.Context, subject string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"authSubject": subject})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List retrieves every user, sorted by name.
func (r *mongoUserRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.findAll(ctx, bson.M{})
}

// ListByRole retrieves every user holding the given role.
func (r *mongoUserRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	return r.findAll(ctx, bson.M{"roles": role})
}

func (r *mongoUserRepository) findAll(ctx context.Context, filter bson.M) ([]domain.User, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []domain.User{}
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateRoles replaces the user's role set.
func (r *mongoUserRepository) UpdateRoles(ctx context.Context, id primitive.ObjectID, roles []domain.Role) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"roles":     roles,
			"updatedAt": time.Now().UTC(),
		},
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

// AddAssignedWorkout adds a workout id to the user's assignedWorkouts set.
func (r *mongoUserRepository) AddAssignedWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) error {
	return r.addToSet(ctx, userID, "assignedWorkouts", workoutID)
}

// AddCoachedWorkout adds a workout id to the user's coachedWorkouts set.
func (r *mongoUserRepository) AddCoachedWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) error {
	return r.addToSet(ctx, userID, "coachedWorkouts", workoutID)
}

func (r *mongoUserRepository) addToSet(ctx context.Context, userID primitive.ObjectID, field string, workoutID primitive.ObjectID) error {
	filter := bson.M{"_id": userID}
	update := bson.M{
		"$addToSet": bson.M{field: workoutID}, // $addToSet prevents duplicates
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	// ModifiedCount may be 0 when the workout was already in the set, which is fine.
	return nil
}

// EnsureUserIndexes creates necessary indexes for the users collection.
// Call this once during application startup.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "authSubject", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "roles", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// Not fatal: queries still work unindexed.
		log.Printf("WARN: could not ensure user indexes: %v", err)
	}
}
