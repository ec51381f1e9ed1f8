package mocks

import (
	"context"
	"fmt"

	"github.com/content-platform-api/internal/models"
	"github.com/content-platform-api/internal/service"
)

// MockCommentService is a mock implementation of CommentService
type MockCommentService struct {
	ListFunc   func(ctx context.Context, articleID string, page models.Page) ([]*models.Comment, error)
	ExpandFunc func(ctx context.Context, commentID string) (*models.CommentNode, error)
	CreateFunc func(ctx context.Context, authorID string, req *models.CreateCommentRequest) (*models.Comment, error)
	UpdateFunc func(ctx context.Context, commentID, authorID, content string) (*models.Comment, error)
	DeleteFunc func(ctx context.Context, commentID, authorID string) (int, error)

	// Callers records the author id passed to each authenticated call
	Callers   []string
	LastPage  models.Page
	LastInput *models.CreateCommentRequest
}

// Verify interface compliance
var _ service.CommentService = (*MockCommentService)(nil)

func NewMockCommentService() *MockCommentService {
	return &MockCommentService{}
}

func (m *MockCommentService) ListTopLevel(ctx context.Context, articleID string, page models.Page) ([]*models.Comment, error) {
	m.LastPage = page
	if m.ListFunc != nil {
		return m.ListFunc(ctx, articleID, page)
	}
	return []*models.Comment{}, nil
}

func (m *MockCommentService) ExpandWithReplies(ctx context.Context, commentID string) (*models.CommentNode, error) {
	if m.ExpandFunc != nil {
		return m.ExpandFunc(ctx, commentID)
	}
	return &models.CommentNode{Comment: models.Comment{ID: commentID}, Children: []*models.CommentNode{}}, nil
}

func (m *MockCommentService) Create(ctx context.Context, authorID string, req *models.CreateCommentRequest) (*models.Comment, error) {
	m.Callers = append(m.Callers, authorID)
	m.LastInput = req
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, authorID, req)
	}
	return &models.Comment{ID: "new-comment", Content: req.Content, AuthorID: authorID, ArticleID: req.ArticleID}, nil
}

func (m *MockCommentService) Update(ctx context.Context, commentID, authorID, content string) (*models.Comment, error) {
	m.Callers = append(m.Callers, authorID)
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, commentID, authorID, content)
	}
	return &models.Comment{ID: commentID, Content: content, AuthorID: authorID}, nil
}

func (m *MockCommentService) Delete(ctx context.Context, commentID, authorID string) (int, error) {
	m.Callers = append(m.Callers, authorID)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, commentID, authorID)
	}
	return 1, nil
}

// MockStatsService is a mock implementation of StatsService
type MockStatsService struct {
	Counts  map[string]int
	PingErr error
}

// Verify interface compliance
var _ service.StatsService = (*MockStatsService)(nil)

func NewMockStatsService() *MockStatsService {
	return &MockStatsService{Counts: make(map[string]int)}
}

func (m *MockStatsService) GetCount(ctx context.Context, resource string) (int, error) {
	if count, ok := m.Counts[resource]; ok {
		return count, nil
	}
	return 0, fmt.Errorf("unknown resource: %s", resource)
}

func (m *MockStatsService) Ping(ctx context.Context) error {
	return m.PingErr
}
