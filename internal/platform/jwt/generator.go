// Package jwtmw issues and verifies the HS256 bearer tokens that carry a
// caller's identity.
package jwtmw

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptyIdentity is returned when a token is requested for an empty identity.
var ErrEmptyIdentity = errors.New("identity must not be empty")

// Generator creates signed tokens whose subject is an identity.
type Generator interface {
	GenerateToken(identity string) (string, error)
}

type generator struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewGenerator creates a Generator signing with secret.
func NewGenerator(secret string, expiration time.Duration) *generator {
	return &generator{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}
}

// GenerateToken creates a signed token with sub, iat and exp claims.
func (g *generator) GenerateToken(identity string) (string, error) {
	if identity == "" {
		return "", ErrEmptyIdentity
	}
	now := g.now()
	claims := jwt.RegisteredClaims{
		Subject:   identity,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.expiration)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
