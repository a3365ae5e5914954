package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phish_backend/internal/feature/detection/decision"
	"phish_backend/internal/feature/detection/domain/entity"
	"phish_backend/internal/feature/detection/usecase"
)

// mockSettingsRepository is a SettingsRepository with pluggable functions.
type mockSettingsRepository struct {
	GetFunc   func(ctx context.Context, identity string) (*entity.DetectionSettings, error)
	SaveFunc  func(ctx context.Context, identity string, s entity.DetectionSettings) error
	SaveCalls int
}

func (m *mockSettingsRepository) Get(ctx context.Context, identity string) (*entity.DetectionSettings, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, identity)
	}
	return nil, usecase.ErrSettingsNotFound
}

func (m *mockSettingsRepository) Save(ctx context.Context, identity string, s entity.DetectionSettings) error {
	m.SaveCalls++
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, identity, s)
	}
	return nil
}

func newSettingsUsecase(t *testing.T, repo usecase.SettingsRepository) *usecase.SettingsUsecase {
	t.Helper()
	mreg, err := usecase.NewMethodRegistry(verdictMethod(entity.MethodReverseImageSearch, entity.VerdictPhishing))
	require.NoError(t, err)
	sreg, err := usecase.NewStrategyRegistry(decision.All()...)
	require.NoError(t, err)
	return usecase.NewSettingsUsecase(repo, mreg, sreg)
}

func TestSettingsUsecase_Resolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		getFunc func(ctx context.Context, identity string) (*entity.DetectionSettings, error)
		want    entity.DetectionSettings
		wantErr bool
	}{
		{
			name: "defaults when nothing stored",
			want: entity.DefaultSettings(),
		},
		{
			name: "stored settings are normalized",
			getFunc: func(context.Context, string) (*entity.DetectionSettings, error) {
				return &entity.DetectionSettings{DetectionMethods: []string{"x", "x"}, DecisionStrategy: "strict"}, nil
			},
			want: entity.DetectionSettings{
				DetectionMethods: []string{"x"},
				DecisionStrategy: "strict",
				RegionLimit:      entity.DefaultRegionLimit,
				ResultsPerRegion: entity.DefaultResultsPerRegion,
			},
		},
		{
			name: "repository failure",
			getFunc: func(context.Context, string) (*entity.DetectionSettings, error) {
				return nil, errors.New("db down")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			uc := newSettingsUsecase(t, &mockSettingsRepository{GetFunc: tt.getFunc})
			got, err := uc.Resolve(context.Background(), "user-1")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSettingsUsecase_Save(t *testing.T) {
	t.Parallel()

	t.Run("valid settings are stored", func(t *testing.T) {
		t.Parallel()
		repo := &mockSettingsRepository{}
		uc := newSettingsUsecase(t, repo)

		got, err := uc.Save(context.Background(), "user-1", entity.DetectionSettings{DecisionStrategy: entity.StrategyStrict})
		require.NoError(t, err)
		assert.Equal(t, []string{entity.MethodReverseImageSearch}, got.DetectionMethods)
		assert.Equal(t, 1, repo.SaveCalls)
	})

	t.Run("unknown method is rejected", func(t *testing.T) {
		t.Parallel()
		repo := &mockSettingsRepository{}
		uc := newSettingsUsecase(t, repo)

		_, err := uc.Save(context.Background(), "user-1", entity.DetectionSettings{DetectionMethods: []string{"nope"}})
		assert.ErrorIs(t, err, usecase.ErrConfiguration)
		assert.Equal(t, 0, repo.SaveCalls)
	})

	t.Run("unknown strategy is rejected", func(t *testing.T) {
		t.Parallel()
		repo := &mockSettingsRepository{}
		uc := newSettingsUsecase(t, repo)

		_, err := uc.Save(context.Background(), "user-1", entity.DetectionSettings{DecisionStrategy: "nope"})
		assert.ErrorIs(t, err, usecase.ErrUnknownStrategy)
	})
}
