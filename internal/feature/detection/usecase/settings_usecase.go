package usecase

import (
	"context"
	"errors"
	"fmt"

	"phish_backend/internal/feature/detection/domain/entity"
)

// SettingsUsecase resolves and stores per-identity detection settings.
type SettingsUsecase struct {
	repo       SettingsRepository
	methods    *MethodRegistry
	strategies *StrategyRegistry
}

// NewSettingsUsecase creates a SettingsUsecase.
func NewSettingsUsecase(repo SettingsRepository, methods *MethodRegistry, strategies *StrategyRegistry) *SettingsUsecase {
	return &SettingsUsecase{repo: repo, methods: methods, strategies: strategies}
}

// Resolve returns the stored settings of identity, or the defaults.
func (u *SettingsUsecase) Resolve(ctx context.Context, identity string) (entity.DetectionSettings, error) {
	s, err := u.repo.Get(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrSettingsNotFound) {
			return entity.DefaultSettings(), nil
		}
		return entity.DetectionSettings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return s.Normalize(), nil
}

// Save validates settings against the registries and stores them for identity.
func (u *SettingsUsecase) Save(ctx context.Context, identity string, settings entity.DetectionSettings) (entity.DetectionSettings, error) {
	settings = settings.Normalize()
	for _, name := range settings.DetectionMethods {
		if _, err := u.methods.Lookup(name); err != nil {
			return entity.DetectionSettings{}, err
		}
	}
	if _, err := u.strategies.Lookup(settings.DecisionStrategy); err != nil {
		return entity.DetectionSettings{}, err
	}
	if err := u.repo.Save(ctx, identity, settings); err != nil {
		return entity.DetectionSettings{}, fmt.Errorf("failed to save settings: %w", err)
	}
	return settings, nil
}
