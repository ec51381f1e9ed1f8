package repository

import (
	"context"
	"errors"

	"github.com/content-platform-api/internal/database"
	"github.com/content-platform-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoUserRepo is the MongoDB implementation of UserRepository
type mongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo creates a user repository over the users collection
func NewMongoUserRepo(m *database.MongoDB) UserRepository {
	return &mongoUserRepo{coll: m.Users}
}

// GetByID retrieves a user by ID. Users written by the auth service carry
// ObjectID keys, so hex ids are tried as ObjectIDs first.
func (r *mongoUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	var key interface{} = id
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		key = oid
	}

	var raw bson.M
	opts := options.FindOne().SetProjection(bson.M{"name": 1, "email": 1, "role": 1, "createdAt": 1, "updatedAt": 1})
	err := r.coll.FindOne(ctx, bson.M{"_id": key}, opts).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	user := &models.User{ID: id}
	user.Name, _ = raw["name"].(string)
	user.Email, _ = raw["email"].(string)
	user.Role, _ = raw["role"].(string)
	if ts, ok := raw["createdAt"].(primitive.DateTime); ok {
		user.CreatedAt = ts.Time()
	}
	if ts, ok := raw["updatedAt"].(primitive.DateTime); ok {
		user.UpdatedAt = ts.Time()
	}
	return user, nil
}

// Count returns the total number of users
func (r *mongoUserRepo) Count(ctx context.Context) (int, error) {
	n, err := r.coll.EstimatedDocumentCount(ctx)
	return int(n), err
}
