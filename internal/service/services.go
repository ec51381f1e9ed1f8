package service

import (
	"context"

	"github.com/content-platform-api/internal/config"
	"github.com/content-platform-api/internal/models"
	"github.com/content-platform-api/internal/repository"
	"github.com/content-platform-api/internal/validation"
	"github.com/rs/zerolog"
)

// CommentService manages comments and their reply trees
type CommentService interface {
	ListTopLevel(ctx context.Context, articleID string, page models.Page) ([]*models.Comment, error)
	ExpandWithReplies(ctx context.Context, commentID string) (*models.CommentNode, error)
	Create(ctx context.Context, authorID string, req *models.CreateCommentRequest) (*models.Comment, error)
	Update(ctx context.Context, commentID, authorID, content string) (*models.Comment, error)
	Delete(ctx context.Context, commentID, authorID string) (int, error)
}

// StatsService reports store counters
type StatsService interface {
	GetCount(ctx context.Context, resource string) (int, error)
	Ping(ctx context.Context) error
}

// Services holds all service interfaces
type Services struct {
	Comment CommentService
	Stats   StatsService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *Services {
	validator := validation.NewValidator(cfg.Comments.MaxWords)
	return &Services{
		Comment: newCommentService(repos, validator, cfg.Comments.MaxPageLimit, log),
		Stats:   newStatsService(repos),
	}
}
