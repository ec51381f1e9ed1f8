package service

import (
	"context"
	"fmt"

	"github.com/content-platform-api/internal/repository"
)

type statsService struct {
	repos *repository.Repositories
}

func newStatsService(repos *repository.Repositories) *statsService {
	return &statsService{repos: repos}
}

// Ping reports whether the store is reachable
func (s *statsService) Ping(ctx context.Context) error {
	if s.repos.Ping == nil {
		return nil
	}
	return s.repos.Ping(ctx)
}

// GetCount returns the number of stored records for "users" or "comments"
func (s *statsService) GetCount(ctx context.Context, resource string) (int, error) {
	switch resource {
	case "users":
		return s.repos.User.Count(ctx)
	case "comments":
		return s.repos.Comment.Count(ctx)
	default:
		return 0, fmt.Errorf("unknown resource: %s", resource)
	}
}
