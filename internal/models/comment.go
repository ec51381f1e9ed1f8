package models

import (
	"time"
)

// Comment represents a comment on an article. ParentID is the only
// structural edge of the reply tree; Replies is a denormalized cache of
// child ids and is never used to discover children.
type Comment struct {
	ID         string    `json:"_id" bson:"_id" db:"id"`
	Content    string    `json:"content" bson:"content" db:"content"`
	AuthorID   string    `json:"author" bson:"author" db:"author_id"`
	AuthorName string    `json:"authorName,omitempty" bson:"-" db:"-"`
	ArticleID  string    `json:"article" bson:"article" db:"article_id"`
	ParentID   *string   `json:"parentComment" bson:"parentComment" db:"parent_id"`
	Replies    []string  `json:"replies" bson:"replies" db:"replies"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt" db:"updated_at"`
}

// IsTopLevel reports whether the comment is attached directly to its article
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

// CommentNode is a comment with its replies expanded into a tree
type CommentNode struct {
	Comment
	Children []*CommentNode `json:"children"`
}

// CreateCommentRequest is the body of POST /api/comments
type CreateCommentRequest struct {
	Content         string `json:"content"`
	ArticleID       string `json:"articleId"`
	ParentCommentID string `json:"parentCommentId,omitempty"`
}

// UpdateCommentRequest is the body of PUT /api/comments/:id
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// DeleteResult reports how much of a subtree a delete removed
type DeleteResult struct {
	Message string `json:"message"`
	Deleted int    `json:"deleted"`
}

// Page selects a window of a listing; a zero Limit means no window
type Page struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// Offset returns the number of records to skip
func (p Page) Offset() int {
	if p.Limit <= 0 || p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// DefaultMaxCommentWords is the maximum allowed words in a comment body
const DefaultMaxCommentWords = 500
