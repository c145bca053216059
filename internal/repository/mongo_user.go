package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dharsanguruparan/VaultBox/internal/database"
	"github.com/dharsanguruparan/VaultBox/internal/model"
)

// MongoUserRepository keeps users in the "users" collection.
type MongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository constructs a repository.
func NewMongoUserRepository(db *database.Mongo) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(database.UsersCollection)}
}

// CreateUser inserts a new user with fresh timestamps.
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now().UTC()
	stored := *user
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, &stored); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &stored, nil
}

// FindUserByEmail looks a user up by exact email.
func (r *MongoUserRepository) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

// FindUserByID looks a user up by id.
func (r *MongoUserRepository) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "id", Value: id}})
}

// UpdateUser merges the patch and returns the updated user.
func (r *MongoUserRepository) UpdateUser(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	set := bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}
	if patch.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *patch.Name})
	}
	if patch.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *patch.Email})
	}
	if patch.Phone != nil {
		set = append(set, bson.E{Key: "phone", Value: *patch.Phone})
	}
	if patch.PasswordHash != nil {
		set = append(set, bson.E{Key: "password", Value: *patch.PasswordHash})
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user model.User
	err := r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "id", Value: id}}, bson.D{{Key: "$set", Value: set}}, opts).Decode(&user)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, ErrDuplicate
	case err != nil:
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &user, nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.D) (*model.User, error) {
	var user model.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}
