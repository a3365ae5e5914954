package db

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"phish_backend/internal/platform/config"
)

func TestBuildDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "defaults for port and sslmode",
			cfg:  Config{User: "u", Password: "p", Name: "phish", Host: "db"},
			want: "host=db port=5432 user=u password=p dbname=phish sslmode=disable TimeZone=UTC",
		},
		{
			name: "explicit values",
			cfg:  Config{User: "u", Password: "p", Name: "phish", Host: "db", Port: "6432", SSLMode: "require"},
			want: "host=db port=6432 user=u password=p dbname=phish sslmode=require TimeZone=UTC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, BuildDSN(tt.cfg))
		})
	}
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	got := FromConfig(config.DBConfig{Driver: "postgres", Host: "h", Port: "1", User: "u", Password: "p", Name: "n"})

	assert.Equal(t, Config{Host: "h", Port: "1", User: "u", Password: "p", Name: "n"}, got)
}

func TestConnectWithRetry_SuccessOnFirstTry(t *testing.T) {
	t.Parallel()

	mockDB := &gorm.DB{}
	attempts := 0
	db, err := ConnectWithRetry("dsn", 5*time.Second, func(string) (*gorm.DB, error) {
		attempts++
		return mockDB, nil
	})

	require.NoError(t, err)
	assert.Same(t, mockDB, db)
	assert.Equal(t, 1, attempts)
}

func TestConnectWithRetry_RetriesOnFailure(t *testing.T) {
	t.Parallel()

	mockDB := &gorm.DB{}
	attempts := 0
	db, err := ConnectWithRetry("dsn", 5*time.Second, func(string) (*gorm.DB, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection refused")
		}
		return mockDB, nil
	})

	require.NoError(t, err)
	assert.Same(t, mockDB, db)
	assert.Equal(t, 3, attempts)
}

func TestConnectWithRetry_Timeout(t *testing.T) {
	t.Parallel()

	attempts := 0
	_, err := ConnectWithRetry("dsn", 100*time.Millisecond, func(string) (*gorm.DB, error) {
		attempts++
		return nil, errors.New("connection refused")
	})

	require.Error(t, err)
	assert.ErrorContains(t, err, "connection refused")
	assert.GreaterOrEqual(t, attempts, 1)
}

func TestOpen_SQLiteMigrates(t *testing.T) {
	cfg := config.NewConfig()
	cfg.DB.Path = filepath.Join(t.TempDir(), "nested", "phish.db")

	db, err := Open(cfg)
	require.NoError(t, err)

	for _, table := range []string{"detection_sessions", "detection_audits", "detection_settings"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestConnectWithRetry_StopsOnRejectedCredentials(t *testing.T) {
	t.Parallel()

	attempts := 0
	_, err := ConnectWithRetry("dsn", 5*time.Second, func(string) (*gorm.DB, error) {
		attempts++
		return nil, &pgconn.PgError{Code: "28P01", Message: "password authentication failed"}
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	var pgErr *pgconn.PgError
	assert.ErrorAs(t, err, &pgErr)
}
