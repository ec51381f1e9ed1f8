package api

import (
	"errors"
	"net/http"

	"github.com/content-platform-api/internal/models"
	"github.com/content-platform-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CommentHandler handles comment endpoints
type CommentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		log:      log.With().Str("handler", "comment").Logger(),
	}
}

// ListTopLevel handles GET /api/comments/article/:articleId
// Optional query parameters: page, limit
func (h *CommentHandler) ListTopLevel(c *gin.Context) {
	var page models.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "page and limit must be integers"})
		return
	}

	comments, err := h.services.Comment.ListTopLevel(c.Request.Context(), c.Param("articleId"), page)
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, comments)
}

// GetWithReplies handles GET /api/comments/:id
func (h *CommentHandler) GetWithReplies(c *gin.Context) {
	tree, err := h.services.Comment.ExpandWithReplies(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, tree)
}

// Create handles POST /api/comments
func (h *CommentHandler) Create(c *gin.Context) {
	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	comment, err := h.services.Comment.Create(c.Request.Context(), callerID(c), &req)
	if err != nil {
		h.respondError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// Update handles PUT /api/comments/:id
func (h *CommentHandler) Update(c *gin.Context) {
	var req models.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	comment, err := h.services.Comment.Update(c.Request.Context(), c.Param("id"), callerID(c), req.Content)
	if err != nil {
		h.respondError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusOK, comment)
}

// Delete handles DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	deleted, err := h.services.Comment.Delete(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, models.DeleteResult{
		Message: "Comment and all nested replies removed",
		Deleted: deleted,
	})
}

// respondError maps service errors to status codes; fallback covers store
// failures and anything unclassified
func (h *CommentHandler) respondError(c *gin.Context, err error, fallback int) {
	status := fallback
	message := err.Error()

	var se *service.Error
	if errors.As(err, &se) {
		message = se.Message
		switch se.Kind {
		case service.KindNotFound:
			status = http.StatusNotFound
		case service.KindForbidden:
			status = http.StatusForbidden
		case service.KindValidation:
			status = http.StatusBadRequest
		case service.KindDataIntegrity:
			status = http.StatusInternalServerError
		}
	}

	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Comment request failed")
	}

	body := gin.H{"message": message}
	if se != nil && len(se.Fields) > 0 {
		body["errors"] = se.Fields
	}
	c.JSON(status, body)
}
