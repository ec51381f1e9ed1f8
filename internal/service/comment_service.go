package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/content-platform-api/internal/models"
	"github.com/content-platform-api/internal/repository"
	"github.com/content-platform-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// commentService is the concrete implementation of CommentService
type commentService struct {
	repos        *repository.Repositories
	validator    *validation.Validator
	maxPageLimit int
	log          zerolog.Logger
}

// newCommentService creates a new CommentService
func newCommentService(repos *repository.Repositories, validator *validation.Validator, maxPageLimit int, log zerolog.Logger) *commentService {
	return &commentService{
		repos:        repos,
		validator:    validator,
		maxPageLimit: maxPageLimit,
		log:          log.With().Str("service", "comment").Logger(),
	}
}

// ListTopLevel returns the article's comments without a parent, newest first
func (s *commentService) ListTopLevel(ctx context.Context, articleID string, page models.Page) ([]*models.Comment, error) {
	if errs := s.validator.ValidateID("articleId", articleID); len(errs) > 0 {
		return nil, invalid(errs)
	}
	if page.Page < 0 || page.Limit < 0 {
		return nil, invalid([]validation.ValidationError{{Field: "page", Message: "page and limit must not be negative"}})
	}
	if s.maxPageLimit > 0 && page.Limit > s.maxPageLimit {
		page.Limit = s.maxPageLimit
	}

	comments, err := s.repos.Comment.Find(ctx, repository.CommentFilter{
		ArticleID: articleID,
		TopLevel:  true,
		Sort:      repository.NewestFirst,
		Limit:     page.Limit,
		Offset:    page.Offset(),
	})
	if err != nil {
		return nil, storeErr("failed to list comments", err)
	}

	names := s.newAuthorNames()
	for _, c := range comments {
		if err := names.fill(ctx, c); err != nil {
			return nil, err
		}
	}
	return comments, nil
}

// ExpandWithReplies returns the comment with every descendant attached as
// nested children. Children are discovered through their parent pointer and
// ordered oldest first.
func (s *commentService) ExpandWithReplies(ctx context.Context, commentID string) (*models.CommentNode, error) {
	if errs := s.validator.ValidateID("id", commentID); len(errs) > 0 {
		return nil, invalid(errs)
	}

	root, err := s.repos.Comment.GetByID(ctx, commentID)
	if err != nil {
		return nil, storeErr("failed to get comment", err)
	}
	if root == nil {
		return nil, notFound("comment", commentID)
	}

	names := s.newAuthorNames()
	if err := names.fill(ctx, root); err != nil {
		return nil, err
	}

	tree := &models.CommentNode{Comment: *root, Children: []*models.CommentNode{}}
	visited := map[string]bool{root.ID: true}
	stack := []*models.CommentNode{tree}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := ctx.Err(); err != nil {
			return nil, storeErr("comment expansion cancelled", err)
		}

		children, err := s.repos.Comment.Find(ctx, repository.CommentFilter{
			ParentID: node.ID,
			Sort:     repository.OldestFirst,
		})
		if err != nil {
			return nil, storeErr("failed to load replies", err)
		}

		for _, child := range children {
			if visited[child.ID] {
				s.log.Error().
					Str("comment_id", commentID).
					Str("repeated_id", child.ID).
					Msg("Cycle detected in comment tree")
				return nil, integrity(fmt.Sprintf("cycle detected at comment %s", child.ID))
			}
			visited[child.ID] = true

			if err := names.fill(ctx, child); err != nil {
				return nil, err
			}
			childNode := &models.CommentNode{Comment: *child, Children: []*models.CommentNode{}}
			node.Children = append(node.Children, childNode)
		}

		// push in reverse so the walk visits siblings in order
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}

	s.log.Debug().
		Str("comment_id", commentID).
		Int("nodes", len(visited)).
		Msg("Comment tree expanded")

	return tree, nil
}

// Create stores a new comment, optionally as a reply to a comment on the same article
func (s *commentService) Create(ctx context.Context, authorID string, req *models.CreateCommentRequest) (*models.Comment, error) {
	content, errs := s.validator.ValidateContent(req.Content)
	errs = append(errs, s.validator.ValidateID("articleId", req.ArticleID)...)
	if req.ParentCommentID != "" {
		errs = append(errs, s.validator.ValidateID("parentCommentId", req.ParentCommentID)...)
	}
	if len(errs) > 0 {
		return nil, invalid(errs)
	}

	var parentID *string
	if req.ParentCommentID != "" {
		parent, err := s.repos.Comment.GetByID(ctx, req.ParentCommentID)
		if err != nil {
			return nil, storeErr("failed to get parent comment", err)
		}
		if parent == nil {
			return nil, notFound("parent comment", req.ParentCommentID)
		}
		if parent.ArticleID != req.ArticleID {
			return nil, invalid([]validation.ValidationError{{
				Field:   "parentCommentId",
				Message: "parent comment belongs to a different article",
				Value:   req.ParentCommentID,
			}})
		}
		parentID = &parent.ID
	}

	now := time.Now().UTC()
	comment := &models.Comment{
		ID:        uuid.New().String(),
		Content:   content,
		AuthorID:  authorID,
		ArticleID: req.ArticleID,
		ParentID:  parentID,
		Replies:   []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repos.Comment.Insert(ctx, comment); err != nil {
		return nil, storeErr("failed to create comment", err)
	}

	if parentID != nil {
		// the parent pointer is authoritative; a stale replies cache is tolerated
		if err := s.repos.Comment.AddReply(ctx, *parentID, comment.ID); err != nil {
			s.log.Warn().Err(err).
				Str("comment_id", comment.ID).
				Str("parent_id", *parentID).
				Msg("Failed to update parent replies")
		}
	}

	s.fillAuthorAfterWrite(ctx, comment)

	s.log.Info().
		Str("comment_id", comment.ID).
		Str("article_id", comment.ArticleID).
		Bool("reply", parentID != nil).
		Msg("Comment created")

	return comment, nil
}

// Update replaces the content of a comment owned by authorID
func (s *commentService) Update(ctx context.Context, commentID, authorID, content string) (*models.Comment, error) {
	if errs := s.validator.ValidateID("id", commentID); len(errs) > 0 {
		return nil, invalid(errs)
	}

	comment, err := s.repos.Comment.GetByID(ctx, commentID)
	if err != nil {
		return nil, storeErr("failed to get comment", err)
	}
	if comment == nil {
		return nil, notFound("comment", commentID)
	}
	if comment.AuthorID != authorID {
		return nil, forbidden("not authorized to update this comment")
	}

	clean, errs := s.validator.ValidateContent(content)
	if len(errs) > 0 {
		return nil, invalid(errs)
	}

	updatedAt := time.Now().UTC()
	if err := s.repos.Comment.UpdateContent(ctx, commentID, clean, updatedAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("comment", commentID)
		}
		return nil, storeErr("failed to update comment", err)
	}
	comment.Content = clean
	comment.UpdatedAt = updatedAt

	s.fillAuthorAfterWrite(ctx, comment)

	s.log.Info().Str("comment_id", commentID).Msg("Comment updated")

	return comment, nil
}

// Delete removes a comment owned by authorID together with all of its
// replies and returns the number of comments removed. Replies are deleted
// before their parents. A store failure mid-cascade leaves the comments
// deleted so far removed.
func (s *commentService) Delete(ctx context.Context, commentID, authorID string) (int, error) {
	if errs := s.validator.ValidateID("id", commentID); len(errs) > 0 {
		return 0, invalid(errs)
	}

	root, err := s.repos.Comment.GetByID(ctx, commentID)
	if err != nil {
		return 0, storeErr("failed to get comment", err)
	}
	if root == nil {
		return 0, notFound("comment", commentID)
	}
	if root.AuthorID != authorID {
		return 0, forbidden("not authorized to delete this comment")
	}

	if !root.IsTopLevel() {
		if err := s.repos.Comment.RemoveReply(ctx, *root.ParentID, root.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.log.Warn().Err(err).
				Str("comment_id", root.ID).
				Str("parent_id", *root.ParentID).
				Msg("Failed to detach comment from parent replies")
		}
	}

	order, err := s.collectSubtree(ctx, root.ID)
	if err != nil {
		return 0, err
	}

	deleted := 0
	rootDeleted := false
	// reverse pre-order puts every child ahead of its parent and the root last
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		if err := ctx.Err(); err != nil {
			s.logPartialDelete(commentID, deleted, len(order), err)
			return deleted, storeErr("comment deletion cancelled", err)
		}

		err := s.repos.Comment.DeleteByID(ctx, id)
		switch {
		case err == nil:
			deleted++
			if id == root.ID {
				rootDeleted = true
			}
		case errors.Is(err, repository.ErrNotFound):
			// removed by a concurrent delete
		default:
			s.logPartialDelete(commentID, deleted, len(order), err)
			return deleted, storeErr(fmt.Sprintf("cascade delete stopped after %d of %d comments", deleted, len(order)), err)
		}
	}

	if !rootDeleted {
		return deleted, notFound("comment", commentID)
	}

	s.log.Info().
		Str("comment_id", commentID).
		Int("deleted", deleted).
		Msg("Comment and replies deleted")

	return deleted, nil
}

// collectSubtree returns the ids of rootID and all its descendants in pre-order
func (s *commentService) collectSubtree(ctx context.Context, rootID string) ([]string, error) {
	visited := map[string]bool{rootID: true}
	order := make([]string, 0, 1)
	stack := []string{rootID}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, id)

		if err := ctx.Err(); err != nil {
			return nil, storeErr("comment deletion cancelled", err)
		}

		children, err := s.repos.Comment.Find(ctx, repository.CommentFilter{
			ParentID: id,
			Sort:     repository.OldestFirst,
		})
		if err != nil {
			return nil, storeErr("failed to load replies", err)
		}

		for i := len(children) - 1; i >= 0; i-- {
			child := children[i]
			if visited[child.ID] {
				return nil, integrity(fmt.Sprintf("cycle detected at comment %s", child.ID))
			}
			visited[child.ID] = true
			stack = append(stack, child.ID)
		}
	}

	return order, nil
}

func (s *commentService) logPartialDelete(commentID string, deleted, total int, err error) {
	s.log.Error().Err(err).
		Str("comment_id", commentID).
		Int("deleted", deleted).
		Int("total", total).
		Msg("Cascade delete aborted, subtree partially removed")
}

// fillAuthorAfterWrite sets the author name on a comment that is already
// persisted. A lookup failure leaves the name empty so the write still succeeds.
func (s *commentService) fillAuthorAfterWrite(ctx context.Context, c *models.Comment) {
	if err := s.newAuthorNames().fill(ctx, c); err != nil {
		s.log.Warn().Err(err).
			Str("comment_id", c.ID).
			Str("author_id", c.AuthorID).
			Msg("Failed to resolve author name")
		c.AuthorName = ""
	}
}

// authorNames resolves author display names, caching lookups for one call
type authorNames struct {
	users repository.UserRepository
	names map[string]string
}

func (s *commentService) newAuthorNames() *authorNames {
	return &authorNames{users: s.repos.User, names: make(map[string]string)}
}

// fill sets c.AuthorName; an unknown author leaves it empty
func (a *authorNames) fill(ctx context.Context, c *models.Comment) error {
	if name, ok := a.names[c.AuthorID]; ok {
		c.AuthorName = name
		return nil
	}
	user, err := a.users.GetByID(ctx, c.AuthorID)
	if err != nil {
		return storeErr("failed to load comment author", err)
	}
	name := ""
	if user != nil {
		name = user.Name
	}
	a.names[c.AuthorID] = name
	c.AuthorName = name
	return nil
}
