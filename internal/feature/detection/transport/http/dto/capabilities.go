package dto

import "phish_backend/internal/feature/detection/domain/entity"

// CapabilitiesResponse is the body of GET /v2/capabilities.
type CapabilitiesResponse struct {
	DetectionMethods   []string `json:"detection_methods"`
	DecisionStrategies []string `json:"decision_strategies"`
}

func FromCapabilities(c entity.Capabilities) CapabilitiesResponse {
	out := CapabilitiesResponse{DetectionMethods: c.DetectionMethods, DecisionStrategies: c.DecisionStrategies}
	if out.DetectionMethods == nil {
		out.DetectionMethods = []string{}
	}
	if out.DecisionStrategies == nil {
		out.DecisionStrategies = []string{}
	}
	return out
}

// SettingsRequest is the body of PUT /v2/settings.
type SettingsRequest struct {
	UUID     string                   `json:"uuid"`
	Settings entity.DetectionSettings `json:"settings"`
}
