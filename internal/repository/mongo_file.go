package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dharsanguruparan/VaultBox/internal/database"
	"github.com/dharsanguruparan/VaultBox/internal/model"
)

// MongoFileRepository keeps file records in the "files" collection.
type MongoFileRepository struct {
	coll *mongo.Collection
}

// NewMongoFileRepository constructs a repository.
func NewMongoFileRepository(db *database.Mongo) *MongoFileRepository {
	return &MongoFileRepository{coll: db.Collection(database.FilesCollection)}
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}}

// CreateFile inserts a file record with fresh timestamps.
func (r *MongoFileRepository) CreateFile(ctx context.Context, file *model.FileItem) (*model.FileItem, error) {
	now := time.Now().UTC()
	stored := *file
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, &stored); err != nil {
		return nil, fmt.Errorf("insert file: %w", err)
	}
	return &stored, nil
}

// GetFilesByUserID lists the owner's files, newest first.
func (r *MongoFileRepository) GetFilesByUserID(ctx context.Context, userID string) ([]model.FileItem, error) {
	return r.find(ctx, bson.D{{Key: "userId", Value: userID}})
}

// GetFileByID returns the file only when it belongs to userID.
func (r *MongoFileRepository) GetFileByID(ctx context.Context, id, userID string) (*model.FileItem, error) {
	var file model.FileItem
	if err := r.coll.FindOne(ctx, ownerFilter(id, userID)).Decode(&file); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find file: %w", err)
	}
	return &file, nil
}

// UpdateFile merges the patch into the owner's file.
func (r *MongoFileRepository) UpdateFile(ctx context.Context, id, userID string, patch model.FilePatch) (*model.FileItem, error) {
	set := bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}
	if patch.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *patch.Name})
	}
	if patch.Type != nil {
		set = append(set, bson.E{Key: "type", Value: *patch.Type})
	}
	if patch.Size != nil {
		set = append(set, bson.E{Key: "size", Value: *patch.Size})
	}
	if patch.Content != nil {
		set = append(set, bson.E{Key: "content", Value: *patch.Content})
	}
	if patch.Details != nil {
		set = append(set, bson.E{Key: "details", Value: *patch.Details})
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var file model.FileItem
	err := r.coll.FindOneAndUpdate(ctx, ownerFilter(id, userID), bson.D{{Key: "$set", Value: set}}, opts).Decode(&file)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update file: %w", err)
	}
	return &file, nil
}

// DeleteFile hard-deletes the owner's file and reports whether one was removed.
func (r *MongoFileRepository) DeleteFile(ctx context.Context, id, userID string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, ownerFilter(id, userID))
	if err != nil {
		return false, fmt.Errorf("delete file: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// SearchFiles matches query literally and case-insensitively against name or
// details. The query goes through regexp.QuoteMeta first: users type plain
// text, and an input like "a.b" or "(" must not be read as a pattern.
func (r *MongoFileRepository) SearchFiles(ctx context.Context, userID, query string) ([]model.FileItem, error) {
	pattern := bson.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.D{
		{Key: "userId", Value: userID},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: pattern}},
			bson.D{{Key: "details", Value: pattern}},
		}},
	}
	return r.find(ctx, filter)
}

// GetFileStats groups the owner's files by type.
func (r *MongoFileRepository) GetFileStats(ctx context.Context, userID string) (model.FileStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "userId", Value: userID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$type"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	var stats model.FileStats
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return stats, fmt.Errorf("aggregate stats: %w", err)
	}
	var groups []struct {
		Type  model.FileType `bson:"_id"`
		Count int64          `bson:"count"`
	}
	if err := cur.All(ctx, &groups); err != nil {
		return stats, fmt.Errorf("decode stats: %w", err)
	}
	for _, g := range groups {
		stats.Add(g.Type, g.Count)
	}
	return stats, nil
}

func (r *MongoFileRepository) find(ctx context.Context, filter bson.D) ([]model.FileItem, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("find files: %w", err)
	}
	files := []model.FileItem{}
	if err := cur.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("decode files: %w", err)
	}
	return files, nil
}

func ownerFilter(id, userID string) bson.D {
	return bson.D{{Key: "id", Value: id}, {Key: "userId", Value: userID}}
}
