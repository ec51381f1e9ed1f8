package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/content-platform-api/internal/database"
	"github.com/content-platform-api/internal/models"
	"github.com/lib/pq"
)

const commentColumns = `id, content, author_id, article_id, parent_id, replies, created_at, updated_at`

// commentRepo is the PostgreSQL implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

// Insert stores a new comment
func (r *commentRepo) Insert(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (` + commentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	replies := comment.Replies
	if replies == nil {
		replies = []string{}
	}
	_, err := r.db.ExecContext(ctx, query,
		comment.ID, comment.Content, comment.AuthorID, comment.ArticleID,
		comment.ParentID, pq.Array(replies), comment.CreatedAt, comment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert comment %s: %w", comment.ID, err)
	}
	return nil
}

// GetByID retrieves a comment by ID
func (r *commentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	comment, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get comment %s: %w", id, err)
	}

	return comment, nil
}

// Find returns comments matching the filter
func (r *commentRepo) Find(ctx context.Context, filter CommentFilter) ([]*models.Comment, error) {
	query, args := buildFindQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	return comments, rows.Err()
}

// UpdateContent replaces the content and bumps updated_at
func (r *commentRepo) UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1`,
		id, content, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("update comment %s: %w", id, err)
	}
	return requireAffected(res)
}

// DeleteByID removes a single comment
func (r *commentRepo) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment %s: %w", id, err)
	}
	return requireAffected(res)
}

// AddReply appends childID to the parent's replies in a single statement
func (r *commentRepo) AddReply(ctx context.Context, parentID, childID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE comments SET replies = array_append(replies, $2) WHERE id = $1 AND NOT ($2 = ANY(replies))`,
		parentID, childID,
	)
	if err != nil {
		return fmt.Errorf("append reply to %s: %w", parentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the parent is gone or the reply is already cached
		exists, err := r.exists(ctx, parentID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

// RemoveReply drops childID from the parent's replies in a single statement
func (r *commentRepo) RemoveReply(ctx context.Context, parentID, childID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE comments SET replies = array_remove(replies, $2) WHERE id = $1`,
		parentID, childID,
	)
	if err != nil {
		return fmt.Errorf("remove reply from %s: %w", parentID, err)
	}
	return requireAffected(res)
}

// Count returns the total number of comments
func (r *commentRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments").Scan(&count)
	return count, err
}

func (r *commentRepo) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM comments WHERE id = $1)", id).Scan(&exists)
	return exists, err
}

// buildFindQuery translates a filter into a parameterized SELECT
func buildFindQuery(filter CommentFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.ArticleID != "" {
		args = append(args, filter.ArticleID)
		conds = append(conds, fmt.Sprintf("article_id = $%d", len(args)))
	}
	if filter.TopLevel {
		conds = append(conds, "parent_id IS NULL")
	} else if filter.ParentID != "" {
		args = append(args, filter.ParentID)
		conds = append(conds, fmt.Sprintf("parent_id = $%d", len(args)))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + commentColumns + ` FROM comments`)
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	if filter.Sort == NewestFirst {
		sb.WriteString(" ORDER BY created_at DESC, id DESC")
	} else {
		sb.WriteString(" ORDER BY created_at ASC, id ASC")
	}
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		sb.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
	}
	return sb.String(), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var (
		comment  models.Comment
		parentID sql.NullString
		replies  []string
	)
	err := row.Scan(
		&comment.ID, &comment.Content, &comment.AuthorID, &comment.ArticleID,
		&parentID, pq.Array(&replies), &comment.CreatedAt, &comment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		comment.ParentID = &parentID.String
	}
	if replies == nil {
		replies = []string{}
	}
	comment.Replies = replies
	return &comment, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
