package handler_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phish_backend/internal/feature/detection/domain/entity"
	"phish_backend/internal/feature/detection/transport/handler"
	"phish_backend/internal/feature/detection/usecase"
	jwtmw "phish_backend/internal/platform/jwt"
)

type mockDetection struct {
	CheckFunc        func(ctx context.Context, identity string, req entity.DetectionRequest, settings entity.DetectionSettings) (*entity.DetectionResult, error)
	StateFunc        func(ctx context.Context, identity, url string) (entity.SessionState, error)
	CapabilitiesFunc func() entity.Capabilities
	checkCalls       int
}

func (m *mockDetection) Check(ctx context.Context, identity string, req entity.DetectionRequest, settings entity.DetectionSettings) (*entity.DetectionResult, error) {
	m.checkCalls++
	return m.CheckFunc(ctx, identity, req, settings)
}

func (m *mockDetection) State(ctx context.Context, identity, url string) (entity.SessionState, error) {
	return m.StateFunc(ctx, identity, url)
}

func (m *mockDetection) Capabilities() entity.Capabilities {
	return m.CapabilitiesFunc()
}

type mockSettings struct {
	ResolveFunc func(ctx context.Context, identity string) (entity.DetectionSettings, error)
	SaveFunc    func(ctx context.Context, identity string, s entity.DetectionSettings) (entity.DetectionSettings, error)
}

func (m *mockSettings) Resolve(ctx context.Context, identity string) (entity.DetectionSettings, error) {
	if m.ResolveFunc == nil {
		return entity.DefaultSettings(), nil
	}
	return m.ResolveFunc(ctx, identity)
}

func (m *mockSettings) Save(ctx context.Context, identity string, s entity.DetectionSettings) (entity.DetectionSettings, error) {
	return m.SaveFunc(ctx, identity, s)
}

func newRouter(det handler.DetectionUsecase, set handler.SettingsUsecase, subject string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if subject != "" {
		r.Use(func(c *gin.Context) {
			c.Set(jwtmw.ContextIdentity, subject)
			c.Next()
		})
	}
	h := handler.NewDetectionHandler(det, set, nil)
	r.POST("/v2/check", h.Check)
	r.POST("/v2/state", h.State)
	r.GET("/v2/capabilities", h.Capabilities)
	r.PUT("/v2/settings", h.PutSettings)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDetectionHandler_Check(t *testing.T) {
	done := &entity.DetectionResult{URL: "https://login.example.test", URLHash: "abc", State: entity.StateDone, Verdict: entity.VerdictPhishing}

	tests := []struct {
		name           string
		body           string
		subject        string
		check          func(t *testing.T) func(ctx context.Context, identity string, req entity.DetectionRequest, s entity.DetectionSettings) (*entity.DetectionResult, error)
		expectedStatus int
		expectedBody   string
		expectedCalls  int
	}{
		{
			name: "success",
			body: `{"uuid":"u1","url":"https://login.example.test","pagetitle":"Sign in","screenshot_url":"file:///s.png"}`,
			check: func(t *testing.T) func(context.Context, string, entity.DetectionRequest, entity.DetectionSettings) (*entity.DetectionResult, error) {
				return func(_ context.Context, identity string, req entity.DetectionRequest, s entity.DetectionSettings) (*entity.DetectionResult, error) {
					assert.Equal(t, "u1", identity)
					assert.Equal(t, "https://login.example.test", req.URL)
					assert.Equal(t, "Sign in", req.PageTitle)
					assert.Equal(t, "file:///s.png", req.ScreenshotURL)
					assert.Equal(t, entity.DefaultSettings(), s)
					return done, nil
				}
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"url":"https://login.example.test","status":"DONE","result":"PHISHING","sha256":"abc"}`,
			expectedCalls:  1,
		},
		{
			name: "deprecated URL key and override",
			body: `{"uuid":"u1","URL":"https://login.example.test","phishURL":"https://real.example.test"}`,
			check: func(t *testing.T) func(context.Context, string, entity.DetectionRequest, entity.DetectionSettings) (*entity.DetectionResult, error) {
				return func(_ context.Context, _ string, req entity.DetectionRequest, _ entity.DetectionSettings) (*entity.DetectionResult, error) {
					assert.Equal(t, "https://login.example.test", req.URL)
					assert.Equal(t, "https://real.example.test", req.OverrideURL)
					return done, nil
				}
			},
			expectedStatus: http.StatusOK,
			expectedCalls:  1,
		},
		{
			name:    "token subject wins over body uuid",
			body:    `{"uuid":"spoofed","url":"https://login.example.test"}`,
			subject: "alice",
			check: func(t *testing.T) func(context.Context, string, entity.DetectionRequest, entity.DetectionSettings) (*entity.DetectionResult, error) {
				return func(_ context.Context, identity string, req entity.DetectionRequest, _ entity.DetectionSettings) (*entity.DetectionResult, error) {
					assert.Equal(t, "alice", identity)
					assert.Equal(t, "alice", req.Identity)
					return done, nil
				}
			},
			expectedStatus: http.StatusOK,
			expectedCalls:  1,
		},
		{
			name:           "missing uuid",
			body:           `{"url":"https://login.example.test"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"uuid is required"}`,
		},
		{
			name:           "missing url",
			body:           `{"uuid":"u1"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"url is required"}`,
		},
		{
			name:           "malformed body",
			body:           `{"uuid":`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid request"}`,
		},
		{
			name: "configuration error maps to 400",
			body: `{"uuid":"u1","url":"https://login.example.test"}`,
			check: func(*testing.T) func(context.Context, string, entity.DetectionRequest, entity.DetectionSettings) (*entity.DetectionResult, error) {
				return func(context.Context, string, entity.DetectionRequest, entity.DetectionSettings) (*entity.DetectionResult, error) {
					return nil, fmt.Errorf("%w: %q", usecase.ErrUnknownMethod, "nope")
				}
			},
			expectedStatus: http.StatusBadRequest,
			expectedCalls:  1,
		},
		{
			name: "other errors map to 502",
			body: `{"uuid":"u1","url":"https://login.example.test"}`,
			check: func(*testing.T) func(context.Context, string, entity.DetectionRequest, entity.DetectionSettings) (*entity.DetectionResult, error) {
				return func(context.Context, string, entity.DetectionRequest, entity.DetectionSettings) (*entity.DetectionResult, error) {
					return nil, errors.New("store unavailable")
				}
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"error":"store unavailable"}`,
			expectedCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := &mockDetection{}
			if tt.check != nil {
				det.CheckFunc = tt.check(t)
			}
			r := newRouter(det, &mockSettings{}, tt.subject)

			w := do(r, http.MethodPost, "/v2/check", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
			assert.Equal(t, tt.expectedCalls, det.checkCalls)
		})
	}
}

func TestDetectionHandler_Check_SettingsFailure(t *testing.T) {
	det := &mockDetection{}
	set := &mockSettings{ResolveFunc: func(context.Context, string) (entity.DetectionSettings, error) {
		return entity.DetectionSettings{}, errors.New("db down")
	}}
	r := newRouter(det, set, "")

	w := do(r, http.MethodPost, "/v2/check", `{"uuid":"u1","url":"https://a.test"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Zero(t, det.checkCalls)
}

func TestDetectionHandler_State(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		state          entity.SessionState
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "done",
			body:           `{"uuid":"u1","URL":"https://a.test"}`,
			state:          entity.SessionState{Phase: entity.PhaseDone, Stage: entity.StageDone, Verdict: entity.VerdictNotPhishing},
			expectedStatus: http.StatusOK,
			expectedBody:   `[{"result":"NOT_PHISHING","state":"DONE"}]`,
		},
		{
			name:           "processing stage",
			body:           `{"uuid":"u1","URL":"https://a.test"}`,
			state:          entity.SessionState{Phase: entity.PhaseProcessing, Stage: "image_search", Verdict: entity.VerdictProcessing},
			expectedStatus: http.StatusOK,
			expectedBody:   `[{"result":"PROCESSING","state":"image_search"}]`,
		},
		{
			name:           "unknown url",
			body:           `{"uuid":"u1","URL":"https://a.test"}`,
			state:          entity.NoneState(),
			expectedStatus: http.StatusOK,
			expectedBody:   `[{"result":"INCONCLUSIVE","state":"NONE"}]`,
		},
		{
			name:           "missing URL",
			body:           `{"uuid":"u1"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "store error",
			body:           `{"uuid":"u1","URL":"https://a.test"}`,
			err:            errors.New("redis: connection refused"),
			expectedStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := &mockDetection{StateFunc: func(_ context.Context, identity, url string) (entity.SessionState, error) {
				assert.Equal(t, "u1", identity)
				assert.Equal(t, "https://a.test", url)
				return tt.state, tt.err
			}}
			r := newRouter(det, &mockSettings{}, "")

			w := do(r, http.MethodPost, "/v2/state", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestDetectionHandler_Capabilities(t *testing.T) {
	det := &mockDetection{CapabilitiesFunc: func() entity.Capabilities {
		return entity.Capabilities{
			DetectionMethods:   []string{"reverse_image_search"},
			DecisionStrategies: []string{"majority", "strict"},
		}
	}}
	r := newRouter(det, &mockSettings{}, "")

	w := do(r, http.MethodGet, "/v2/capabilities", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"detection_methods":["reverse_image_search"],"decision_strategies":["majority","strict"]}`, w.Body.String())
}

func TestDetectionHandler_PutSettings(t *testing.T) {
	t.Run("stores normalized settings", func(t *testing.T) {
		set := &mockSettings{SaveFunc: func(_ context.Context, identity string, s entity.DetectionSettings) (entity.DetectionSettings, error) {
			assert.Equal(t, "u1", identity)
			assert.Equal(t, []string{"title_analysis"}, s.DetectionMethods)
			return s.Normalize(), nil
		}}
		r := newRouter(&mockDetection{}, set, "")

		w := do(r, http.MethodPut, "/v2/settings", `{"uuid":"u1","settings":{"detection_methods":["title_analysis"],"decision_strategy":"strict"}}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"detection_methods":["title_analysis"],"decision_strategy":"strict","bypass_cache":false,"region_limit":3,"results_per_region":10}`, w.Body.String())
	})

	t.Run("unknown strategy is a bad request", func(t *testing.T) {
		set := &mockSettings{SaveFunc: func(context.Context, string, entity.DetectionSettings) (entity.DetectionSettings, error) {
			return entity.DetectionSettings{}, fmt.Errorf("%w: %q", usecase.ErrUnknownStrategy, "coin_flip")
		}}
		r := newRouter(&mockDetection{}, set, "")

		w := do(r, http.MethodPut, "/v2/settings", `{"uuid":"u1","settings":{"decision_strategy":"coin_flip"}}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "unknown decision strategy")
	})
}
