package repository

import (
	"context"
	"errors"
	"time"

	"github.com/content-platform-api/internal/database"
	"github.com/content-platform-api/internal/models"
)

// ErrNotFound is returned by mutations that matched no document
var ErrNotFound = errors.New("document not found")

// SortOrder orders comment listings by creation time
type SortOrder int

const (
	OldestFirst SortOrder = iota
	NewestFirst
)

// CommentFilter is an equality filter over comment documents.
// Empty fields do not constrain the result.
type CommentFilter struct {
	ArticleID string
	ParentID  string
	// TopLevel restricts to comments without a parent; it overrides ParentID
	TopLevel bool
	Sort     SortOrder
	Limit    int
	Offset   int
}

// CommentRepository is the document store behind the comment tree
type CommentRepository interface {
	Insert(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	Find(ctx context.Context, filter CommentFilter) ([]*models.Comment, error)
	UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) error
	DeleteByID(ctx context.Context, id string) error
	AddReply(ctx context.Context, parentID, childID string) error
	RemoveReply(ctx context.Context, parentID, childID string) error
	Count(ctx context.Context) (int, error)
}

// UserRepository resolves comment authors
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	Count(ctx context.Context) (int, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	User    UserRepository
	Comment CommentRepository
	// Ping checks the underlying connection; nil for in-memory stores
	Ping func(ctx context.Context) error
}

// New creates all repositories over a PostgreSQL connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepo(db),
		Comment: NewCommentRepo(db),
		Ping:    db.HealthCheck,
	}
}

// NewMongo creates all repositories over a MongoDB connection
func NewMongo(m *database.MongoDB) *Repositories {
	return &Repositories{
		User:    NewMongoUserRepo(m),
		Comment: NewMongoCommentRepo(m),
		Ping:    m.HealthCheck,
	}
}
