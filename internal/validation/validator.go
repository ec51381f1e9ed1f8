package validation

import (
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validator checks and normalizes comment input
type Validator struct {
	maxWords int
	policy   *bluemonday.Policy
}

// NewValidator creates a validator that allows at most maxWords words per comment
func NewValidator(maxWords int) *Validator {
	return &Validator{
		maxWords: maxWords,
		// comments are plain text; any markup is stripped
		policy: bluemonday.StrictPolicy(),
	}
}

// maxSanitizePasses bounds how many layers of entity encoding are unwrapped
const maxSanitizePasses = 8

// SanitizeContent strips markup and surrounding whitespace. The text is
// stripped and unescaped until it stops changing, so entity-encoded markup
// cannot come back as raw tags. Input still changing after
// maxSanitizePasses is kept in escaped form.
func (v *Validator) SanitizeContent(content string) string {
	text := content
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(v.policy.Sanitize(text))
		if next == text {
			return strings.TrimSpace(text)
		}
		text = next
	}
	return strings.TrimSpace(v.policy.Sanitize(text))
}

// ValidateContent sanitizes content and checks it is non-empty and within the word limit
func (v *Validator) ValidateContent(content string) (string, []ValidationError) {
	var errors []ValidationError

	clean := v.SanitizeContent(content)
	if clean == "" {
		errors = append(errors, ValidationError{
			Field:   "content",
			Message: "content is required",
		})
		return "", errors
	}

	if words := len(strings.Fields(clean)); v.maxWords > 0 && words > v.maxWords {
		errors = append(errors, ValidationError{
			Field:   "content",
			Message: fmt.Sprintf("content exceeds %d words (got %d)", v.maxWords, words),
			Value:   words,
		})
	}

	return clean, errors
}

// ValidateID checks that id is a well-formed document id
func (v *Validator) ValidateID(field, id string) []ValidationError {
	if id == "" {
		return []ValidationError{{Field: field, Message: field + " is required"}}
	}
	if !IsValidID(id) {
		return []ValidationError{{Field: field, Message: "invalid " + field + " format", Value: id}}
	}
	return nil
}

// IsValidID accepts UUIDs issued by this service and ObjectID hex strings
// issued by the document database for legacy records
func IsValidID(id string) bool {
	if _, err := uuid.Parse(id); err == nil {
		return true
	}
	return primitive.IsValidObjectID(id)
}
