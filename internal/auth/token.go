// Package auth provides operator credentials for the REST boundary.
package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource yields a bearer token for authenticated REST calls.
type TokenSource interface {
	Token() (string, error)
}

// Claims mirror the backend's operator token claims.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// StaticToken is a fixed, externally issued bearer token.
type StaticToken string

// Token returns the static token.
func (t StaticToken) Token() (string, error) {
	if t == "" {
		return "", errors.New("empty API token")
	}
	return string(t), nil
}

// Minter self-issues short-lived HS256 operator tokens from a shared
// secret. Tokens are cached and reissued shortly before expiry. Safe for
// concurrent use: the history fetch and the read receipt request tokens
// from separate goroutines.
type Minter struct {
	secret   []byte
	subject  string
	lifetime time.Duration

	mu      sync.Mutex
	cached  string
	expires time.Time
}

// NewMinter creates a token minter for the given operator.
func NewMinter(secret, subject string, lifetime time.Duration) (*Minter, error) {
	if secret == "" {
		return nil, errors.New("JWT secret is required")
	}
	if lifetime <= 0 {
		lifetime = 15 * time.Minute
	}
	return &Minter{
		secret:   []byte(secret),
		subject:  subject,
		lifetime: lifetime,
	}, nil
}

// Token returns a valid operator token, minting a new one when the cached
// token is within a minute of expiry.
func (m *Minter) Token() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if m.cached != "" && now.Before(m.expires.Add(-time.Minute)) {
		return m.cached, nil
	}

	expires := now.Add(m.lifetime)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   m.subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Role: "operator",
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign operator token: %w", err)
	}

	m.cached = token
	m.expires = expires
	return token, nil
}

// FromConfig selects a token source: a static token when provided,
// otherwise a minter from the shared secret.
func FromConfig(apiToken, jwtSecret, operator string, lifetime time.Duration) (TokenSource, error) {
	if apiToken != "" {
		return StaticToken(apiToken), nil
	}
	if jwtSecret != "" {
		return NewMinter(jwtSecret, operator, lifetime)
	}
	return nil, errors.New("either API_TOKEN or JWT_SECRET must be set")
}
