package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/content-platform-api/internal/models"
	"github.com/content-platform-api/internal/repository"
)

// Verify interface compliance
var (
	_ repository.CommentRepository = (*MockCommentRepository)(nil)
	_ repository.UserRepository    = (*MockUserRepository)(nil)
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mu       sync.Mutex
	Users    map[string]*models.User
	GetError error
	GetCalls int
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*models.User),
	}
}

// Add registers a user with a display name
func (m *MockUserRepository) Add(id, name string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := &models.User{ID: id, Name: name, Email: id + "@test.com", Role: "user", CreatedAt: time.Now()}
	m.Users[id] = user
	return user
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	if m.GetError != nil {
		return nil, m.GetError
	}
	return m.Users[id], nil
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Users), nil
}

// MockCommentRepository is an in-memory document store for comments
type MockCommentRepository struct {
	mu       sync.Mutex
	Comments map[string]*models.Comment

	InsertError      error
	FindError        error
	GetError         error
	UpdateError      error
	AddReplyError    error
	RemoveReplyError error
	// DeleteFailAfter makes DeleteByID fail once this many deletes succeeded; negative disables
	DeleteFailAfter int
	DeleteError     error

	FindCalls    int
	DeleteCalls  int
	DeletedOrder []string
	// OnFind runs before every Find; tests use it to cancel contexts mid-walk
	OnFind func(filter repository.CommentFilter)
}

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{
		Comments:        make(map[string]*models.Comment),
		DeleteFailAfter: -1,
	}
}

// Seed stores a comment as-is, bypassing error injection
func (m *MockCommentRepository) Seed(c *models.Comment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.Replies == nil {
		c.Replies = []string{}
	}
	m.Comments[c.ID] = clone(c)
}

func (m *MockCommentRepository) Insert(ctx context.Context, comment *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertError != nil {
		return m.InsertError
	}
	if comment.Replies == nil {
		comment.Replies = []string{}
	}
	m.Comments[comment.ID] = clone(comment)
	return nil
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	c, ok := m.Comments[id]
	if !ok {
		return nil, nil
	}
	return clone(c), nil
}

func (m *MockCommentRepository) Find(ctx context.Context, filter repository.CommentFilter) ([]*models.Comment, error) {
	if m.OnFind != nil {
		m.OnFind(filter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindCalls++
	if m.FindError != nil {
		return nil, m.FindError
	}

	out := make([]*models.Comment, 0)
	for _, c := range m.Comments {
		if filter.ArticleID != "" && c.ArticleID != filter.ArticleID {
			continue
		}
		if filter.TopLevel {
			if c.ParentID != nil {
				continue
			}
		} else if filter.ParentID != "" && (c.ParentID == nil || *c.ParentID != filter.ParentID) {
			continue
		}
		out = append(out, clone(c))
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if filter.Sort == repository.NewestFirst {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if filter.Sort == repository.NewestFirst {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*models.Comment{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MockCommentRepository) UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return m.UpdateError
	}
	c, ok := m.Comments[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Content = content
	c.UpdatedAt = updatedAt
	return nil
}

func (m *MockCommentRepository) DeleteByID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteFailAfter >= 0 && len(m.DeletedOrder) >= m.DeleteFailAfter {
		return m.DeleteError
	}
	m.DeleteCalls++
	if _, ok := m.Comments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.Comments, id)
	m.DeletedOrder = append(m.DeletedOrder, id)
	return nil
}

func (m *MockCommentRepository) AddReply(ctx context.Context, parentID, childID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddReplyError != nil {
		return m.AddReplyError
	}
	p, ok := m.Comments[parentID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, r := range p.Replies {
		if r == childID {
			return nil
		}
	}
	p.Replies = append(p.Replies, childID)
	return nil
}

func (m *MockCommentRepository) RemoveReply(ctx context.Context, parentID, childID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RemoveReplyError != nil {
		return m.RemoveReplyError
	}
	p, ok := m.Comments[parentID]
	if !ok {
		return repository.ErrNotFound
	}
	kept := p.Replies[:0]
	for _, r := range p.Replies {
		if r != childID {
			kept = append(kept, r)
		}
	}
	p.Replies = kept
	return nil
}

func (m *MockCommentRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Comments), nil
}

func clone(c *models.Comment) *models.Comment {
	cp := *c
	if c.ParentID != nil {
		pid := *c.ParentID
		cp.ParentID = &pid
	}
	cp.Replies = append([]string{}, c.Replies...)
	return &cp
}
