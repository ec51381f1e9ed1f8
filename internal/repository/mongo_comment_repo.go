package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/content-platform-api/internal/database"
	"github.com/content-platform-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoCommentRepo is the MongoDB implementation of CommentRepository
type mongoCommentRepo struct {
	coll *mongo.Collection
}

// NewMongoCommentRepo creates a comment repository over the comments collection
func NewMongoCommentRepo(m *database.MongoDB) CommentRepository {
	return &mongoCommentRepo{coll: m.Comments}
}

// Insert stores a new comment document
func (r *mongoCommentRepo) Insert(ctx context.Context, comment *models.Comment) error {
	if comment.Replies == nil {
		comment.Replies = []string{}
	}
	if _, err := r.coll.InsertOne(ctx, comment); err != nil {
		return fmt.Errorf("insert comment %s: %w", comment.ID, err)
	}
	return nil
}

// GetByID retrieves a comment by ID
func (r *mongoCommentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	err := r.coll.FindOne(ctx, bson.M{"_id": matchID(id)}).Decode(&comment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get comment %s: %w", id, err)
	}
	if comment.Replies == nil {
		comment.Replies = []string{}
	}
	return &comment, nil
}

// Find returns comments matching the filter
func (r *mongoCommentRepo) Find(ctx context.Context, filter CommentFilter) ([]*models.Comment, error) {
	query, opts := buildMongoFind(filter)

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find comments: %w", err)
	}
	defer cursor.Close(ctx)

	comments := make([]*models.Comment, 0)
	for cursor.Next(ctx) {
		var comment models.Comment
		if err := cursor.Decode(&comment); err != nil {
			return nil, fmt.Errorf("decode comment: %w", err)
		}
		if comment.Replies == nil {
			comment.Replies = []string{}
		}
		comments = append(comments, &comment)
	}

	return comments, cursor.Err()
}

// UpdateContent replaces the content and bumps updatedAt
func (r *mongoCommentRepo) UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": matchID(id)},
		bson.M{"$set": bson.M{"content": content, "updatedAt": updatedAt}},
	)
	if err != nil {
		return fmt.Errorf("update comment %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByID removes a single comment document
func (r *mongoCommentRepo) DeleteByID(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": matchID(id)})
	if err != nil {
		return fmt.Errorf("delete comment %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddReply atomically adds childID to the parent's replies
func (r *mongoCommentRepo) AddReply(ctx context.Context, parentID, childID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": matchID(parentID)},
		bson.M{"$addToSet": bson.M{"replies": childID}},
	)
	if err != nil {
		return fmt.Errorf("append reply to %s: %w", parentID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveReply atomically pulls childID from the parent's replies
func (r *mongoCommentRepo) RemoveReply(ctx context.Context, parentID, childID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": matchID(parentID)},
		bson.M{"$pull": bson.M{"replies": matchID(childID)}},
	)
	if err != nil {
		return fmt.Errorf("remove reply from %s: %w", parentID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the total number of comments
func (r *mongoCommentRepo) Count(ctx context.Context) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	return int(n), err
}

// matchID returns a filter value for an id field. Documents written by the
// original deployment carry ObjectID keys and references, so a hex id matches
// either its string or its ObjectID form.
func matchID(id string) interface{} {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return id
	}
	return bson.M{"$in": bson.A{id, oid}}
}

// buildMongoFind translates a filter into a query document and find options
func buildMongoFind(filter CommentFilter) (bson.M, *options.FindOptions) {
	query := bson.M{}
	if filter.ArticleID != "" {
		query["article"] = matchID(filter.ArticleID)
	}
	if filter.TopLevel {
		// matches both explicit null and a missing field
		query["parentComment"] = nil
	} else if filter.ParentID != "" {
		query["parentComment"] = matchID(filter.ParentID)
	}

	direction := 1
	if filter.Sort == NewestFirst {
		direction = -1
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: direction},
		{Key: "_id", Value: direction},
	})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	return query, opts
}
