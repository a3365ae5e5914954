package adapters

import (
	"context"
	"log/slog"

	"phish_backend/internal/feature/detection/domain/entity"
	"phish_backend/internal/feature/detection/usecase"
)

// FanoutArchive appends to a primary archive and copies each record to
// secondary sinks. Only the primary's error is returned.
type FanoutArchive struct {
	primary usecase.Archive
	sinks   []usecase.Archive
	logger  *slog.Logger
}

var _ usecase.Archive = (*FanoutArchive)(nil)

func NewFanoutArchive(logger *slog.Logger, primary usecase.Archive, sinks ...usecase.Archive) *FanoutArchive {
	if logger == nil {
		logger = slog.Default()
	}
	return &FanoutArchive{primary: primary, sinks: sinks, logger: logger}
}

func (a *FanoutArchive) Append(ctx context.Context, rec entity.AuditRecord) error {
	if err := a.primary.Append(ctx, rec); err != nil {
		return err
	}
	for _, s := range a.sinks {
		if err := s.Append(ctx, rec); err != nil {
			a.logger.Warn("secondary archive sink failed", "record", rec.ID, "error", err)
		}
	}
	return nil
}
