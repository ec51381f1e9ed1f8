package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("no token, authorization denied")
	ErrInvalidToken = errors.New("token is not valid")
)

// Identity is the authenticated caller carried by a token
type Identity struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Claims is the token payload: {"user": {"id", "role"}} plus the standard claims
type Claims struct {
	User Identity `json:"user"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 bearer tokens signed with a shared secret
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier for the given secret
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a token string, returning the caller identity
func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.User.ID == "" {
		return nil, ErrInvalidToken
	}
	return &claims.User, nil
}

// Sign issues a token for the identity; it is used by tooling and tests,
// the API itself never issues tokens
func (v *Verifier) Sign(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		User: id,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// TokenFromHeaders extracts a token from an Authorization bearer header,
// falling back to the x-auth-token header when no bearer token is present
func TokenFromHeaders(authorization, xAuthToken string) string {
	const prefix = "Bearer "
	if len(authorization) > len(prefix) && strings.EqualFold(authorization[:len(prefix)], prefix) {
		if tok := strings.TrimSpace(authorization[len(prefix):]); tok != "" {
			return tok
		}
	}
	return strings.TrimSpace(xAuthToken)
}
