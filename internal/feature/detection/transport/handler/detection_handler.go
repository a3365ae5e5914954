// Package handler provides the HTTP handlers of the detection feature.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"phish_backend/internal/api"
	"phish_backend/internal/feature/detection/domain/entity"
	"phish_backend/internal/feature/detection/transport/http/dto"
	"phish_backend/internal/feature/detection/usecase"
	jwtmw "phish_backend/internal/platform/jwt"
)

// DetectionUsecase is the orchestrator as seen by the handler.
type DetectionUsecase interface {
	Check(ctx context.Context, identity string, req entity.DetectionRequest, settings entity.DetectionSettings) (*entity.DetectionResult, error)
	State(ctx context.Context, identity, url string) (entity.SessionState, error)
	Capabilities() entity.Capabilities
}

// SettingsUsecase resolves and stores per-identity settings.
type SettingsUsecase interface {
	Resolve(ctx context.Context, identity string) (entity.DetectionSettings, error)
	Save(ctx context.Context, identity string, settings entity.DetectionSettings) (entity.DetectionSettings, error)
}

// DetectionHandler serves the /v2 API.
type DetectionHandler struct {
	detection DetectionUsecase
	settings  SettingsUsecase
	logger    *slog.Logger
}

// NewDetectionHandler creates a DetectionHandler. A nil logger means slog.Default().
func NewDetectionHandler(detection DetectionUsecase, settings SettingsUsecase, logger *slog.Logger) *DetectionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DetectionHandler{detection: detection, settings: settings, logger: logger}
}

// identity prefers the authenticated token subject over the body uuid.
func identity(c *gin.Context, bodyUUID string) (string, bool) {
	if id, ok := jwtmw.Identity(c); ok {
		return id, true
	}
	id := strings.TrimSpace(bodyUUID)
	return id, id != ""
}

// status maps usecase errors to HTTP codes.
func status(err error) int {
	if errors.Is(err, usecase.ErrConfiguration) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

// Check classifies one page.
//
// POST /v2/check {"uuid", "url", "pagetitle", "screenshot_url", "phishURL"}
func (h *DetectionHandler) Check(c *gin.Context) {
	var req dto.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	id, ok := identity(c, req.UUID)
	if !ok {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "uuid is required"})
		return
	}
	target := strings.TrimSpace(req.TargetURL())
	if target == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "url is required"})
		return
	}

	ctx := c.Request.Context()
	settings, err := h.settings.Resolve(ctx, id)
	if err != nil {
		h.logger.Error("failed to resolve settings", "identity", id, "error", err)
		c.JSON(status(err), api.ErrorResponse{Error: err.Error()})
		return
	}

	res, err := h.detection.Check(ctx, id, entity.DetectionRequest{
		URL:           target,
		ScreenshotURL: req.ScreenshotURL,
		PageTitle:     req.PageTitle,
		Identity:      id,
		OverrideURL:   req.PhishURL,
	}, settings)
	if err != nil {
		h.logger.Warn("check failed", "identity", id, "url", target, "error", err)
		c.JSON(status(err), api.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.FromResult(res))
}

// State reports the session state of a URL.
//
// POST /v2/state {"uuid", "URL"}
func (h *DetectionHandler) State(c *gin.Context) {
	var req dto.StateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	id, ok := identity(c, req.UUID)
	if !ok {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "uuid is required"})
		return
	}
	st, err := h.detection.State(c.Request.Context(), id, req.URL)
	if err != nil {
		c.JSON(status(err), api.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.FromState(st))
}

// Capabilities lists the registered method and strategy names.
//
// GET /v2/capabilities
func (h *DetectionHandler) Capabilities(c *gin.Context) {
	c.JSON(http.StatusOK, dto.FromCapabilities(h.detection.Capabilities()))
}

// PutSettings validates and stores the caller's settings.
//
// PUT /v2/settings {"uuid", "settings"}
func (h *DetectionHandler) PutSettings(c *gin.Context) {
	var req dto.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	id, ok := identity(c, req.UUID)
	if !ok {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "uuid is required"})
		return
	}
	saved, err := h.settings.Save(c.Request.Context(), id, req.Settings)
	if err != nil {
		c.JSON(status(err), api.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, saved)
}
