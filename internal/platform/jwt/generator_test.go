package jwtmw

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerator(t *testing.T) {
	t.Parallel()

	gen := NewGenerator("my-secret-key", time.Hour)

	assert.Equal(t, []byte("my-secret-key"), gen.secret)
	assert.Equal(t, time.Hour, gen.expiration)
}

func TestGenerator_GenerateToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		identity   string
		expiration time.Duration
	}{
		{"uuid identity", "0b8a3c1e-7f7e-4f0e-9a37-2b8c1d5e6f70", time.Hour},
		{"plain identity", "alice", 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := NewGenerator("secret", tt.expiration)
			fixed := time.Now().Truncate(time.Second)
			gen.now = func() time.Time { return fixed }

			signed, err := gen.GenerateToken(tt.identity)
			require.NoError(t, err)

			var claims jwt.RegisteredClaims
			_, err = jwt.ParseWithClaims(signed, &claims, func(*jwt.Token) (any, error) {
				return []byte("secret"), nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.identity, claims.Subject)
			assert.True(t, fixed.Equal(claims.IssuedAt.Time))
			assert.True(t, fixed.Add(tt.expiration).Equal(claims.ExpiresAt.Time))
		})
	}
}

func TestGenerator_EmptyIdentity(t *testing.T) {
	t.Parallel()

	_, err := NewGenerator("secret", time.Hour).GenerateToken("")

	assert.ErrorIs(t, err, ErrEmptyIdentity)
}
