package dto

import "phish_backend/internal/feature/detection/domain/entity"

// StateRequest is the body of POST /v2/state.
type StateRequest struct {
	UUID string `json:"uuid"`
	URL  string `json:"URL" binding:"required"`
}

// StateResponse is one element of the POST /v2/state reply.
type StateResponse struct {
	Result entity.Verdict `json:"result"`
	State  string         `json:"state"`
}

// FromState reports the stage label, or the phase when no stage was recorded.
func FromState(s entity.SessionState) []StateResponse {
	label := s.Stage
	if label == "" {
		label = string(s.Phase)
	}
	return []StateResponse{{Result: s.Verdict, State: label}}
}
