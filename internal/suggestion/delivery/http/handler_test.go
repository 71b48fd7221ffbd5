package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"talk-support/internal/model"
	"talk-support/internal/suggestion"
)

// Mock logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, arg ...any)                    {}
func (m *mockLogger) Debugf(ctx context.Context, template string, arg ...any)  {}
func (m *mockLogger) Info(ctx context.Context, arg ...any)                     {}
func (m *mockLogger) Infof(ctx context.Context, template string, arg ...any)   {}
func (m *mockLogger) Warn(ctx context.Context, arg ...any)                     {}
func (m *mockLogger) Warnf(ctx context.Context, template string, arg ...any)   {}
func (m *mockLogger) Error(ctx context.Context, arg ...any)                    {}
func (m *mockLogger) Errorf(ctx context.Context, template string, arg ...any)  {}
func (m *mockLogger) Fatal(ctx context.Context, arg ...any)                    {}
func (m *mockLogger) Fatalf(ctx context.Context, template string, arg ...any)  {}
func (m *mockLogger) DPanic(ctx context.Context, arg ...any)                   {}
func (m *mockLogger) DPanicf(ctx context.Context, template string, arg ...any) {}
func (m *mockLogger) Panic(ctx context.Context, arg ...any)                    {}
func (m *mockLogger) Panicf(ctx context.Context, template string, arg ...any)  {}

type fakeUseCase struct {
	createFunc  func(ctx context.Context, input suggestion.CreateSessionInput) (suggestion.CreateSessionOutput, error)
	processFunc func(ctx context.Context, input suggestion.ProcessTurnInput) (suggestion.ProcessTurnOutput, error)
	closeFunc   func(ctx context.Context, sessionID string) error
}

func (f *fakeUseCase) CreateSession(ctx context.Context, input suggestion.CreateSessionInput) (suggestion.CreateSessionOutput, error) {
	if f.createFunc != nil {
		return f.createFunc(ctx, input)
	}
	return suggestion.CreateSessionOutput{SessionID: "test-session"}, nil
}

func (f *fakeUseCase) ProcessTurn(ctx context.Context, input suggestion.ProcessTurnInput) (suggestion.ProcessTurnOutput, error) {
	if f.processFunc != nil {
		return f.processFunc(ctx, input)
	}
	return suggestion.ProcessTurnOutput{SessionID: input.SessionID}, nil
}

func (f *fakeUseCase) CloseSession(ctx context.Context, sessionID string) error {
	if f.closeFunc != nil {
		return f.closeFunc(ctx, sessionID)
	}
	return nil
}

func newTestRouter(uc suggestion.UseCase, autoDelete bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(&mockLogger{}, uc, autoDelete)
	sessions := r.Group("/api/v1/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.DELETE("/:id", h.DeleteSession)
		sessions.GET("/:id/topics", h.StreamTopics)
	}
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateSessionHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		uc := &fakeUseCase{
			createFunc: func(ctx context.Context, input suggestion.CreateSessionInput) (suggestion.CreateSessionOutput, error) {
				if input.Speaker.UserID != "u1" {
					t.Errorf("unexpected speaker: %+v", input.Speaker)
				}
				return suggestion.CreateSessionOutput{
					SessionID:       "s1",
					CommonInterests: []string{"アウトドア"},
					InitialSuggestions: []model.Suggestion{
						{Text: "opener", Type: model.SuggestionSilenceBreak},
					},
				}, nil
			},
		}
		w := doJSON(t, newTestRouter(uc, true), http.MethodPost, "/api/v1/sessions", gin.H{
			"speaker":  gin.H{"user_id": "u1", "likes": []string{"アウトドア"}},
			"listener": gin.H{"user_id": "u2", "likes": []string{"アウトドア"}},
		})

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var resp struct {
			Data createSessionResp `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Data.SessionID != "s1" || len(resp.Data.InitialSuggestions) != 1 {
			t.Errorf("unexpected response: %+v", resp.Data)
		}
	})

	t.Run("missing user id rejected", func(t *testing.T) {
		w := doJSON(t, newTestRouter(&fakeUseCase{}, true), http.MethodPost, "/api/v1/sessions", gin.H{
			"speaker":  gin.H{"user_id": ""},
			"listener": gin.H{"user_id": "u2"},
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewBufferString("{not json"))
		w := httptest.NewRecorder()
		newTestRouter(&fakeUseCase{}, true).ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestDeleteSessionHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var closed string
		uc := &fakeUseCase{
			closeFunc: func(ctx context.Context, sessionID string) error {
				closed = sessionID
				return nil
			},
		}
		w := doJSON(t, newTestRouter(uc, true), http.MethodDelete, "/api/v1/sessions/s1", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if closed != "s1" {
			t.Errorf("expected close of s1, got %q", closed)
		}
	})

	t.Run("unknown session returns 404", func(t *testing.T) {
		uc := &fakeUseCase{
			closeFunc: func(ctx context.Context, sessionID string) error {
				return suggestion.ErrSessionNotFound
			},
		}
		w := doJSON(t, newTestRouter(uc, true), http.MethodDelete, "/api/v1/sessions/missing", nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
	})
}
