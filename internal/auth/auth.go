// Package auth resolves caller identity from bearer tokens.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Config holds signer verification parameters.
type Config struct {
	Secret string
	Issuer string
}

// ErrMissingToken is returned when the Authorization header is absent.
var ErrMissingToken = errors.New("missing bearer token")

// ErrInvalidToken wraps parsing/validation errors.
var ErrInvalidToken = errors.New("invalid bearer token")

// Verifier validates bearer JWTs and extracts the caller's user id.
type Verifier struct {
	cfg Config
}

// NewVerifier constructs a Verifier.
func NewVerifier(cfg Config) *Verifier {
	return &Verifier{cfg: cfg}
}

// ResolveBearer takes the raw Authorization header value and returns the
// authenticated user id.
func (v *Verifier) ResolveBearer(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return "", ErrInvalidToken
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	if token == "" {
		return "", ErrMissingToken
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(v.cfg.Secret), nil
	}, jwt.WithIssuer(v.cfg.Issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", ErrInvalidToken
	}

	subject, _ := claims["sub"].(string)
	if subject == "" {
		return "", ErrInvalidToken
	}
	return subject, nil
}
