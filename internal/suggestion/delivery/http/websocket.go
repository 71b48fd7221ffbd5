package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"talk-support/internal/model"
	"talk-support/internal/suggestion"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsConn serializes writes; turns resolve concurrently and progress
// events arrive from processing goroutines.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return w.conn.WriteJSON(v)
}

func (w *wsConn) close(code int, reason string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(writeTimeout))
	_ = w.conn.Close()
}

// StreamTopics godoc
// @Summary     Stream turn suggestions
// @Description Websocket endpoint. The client sends transcript batches or silence notifications; the server replies with ranked suggestions per turn plus optional progress events.
// @Tags        Sessions
// @Param       id path string true "Session ID"
// @Success     101 {string} string "Switching Protocols"
// @Router      /api/v1/sessions/{id}/topics [get]
func (h *handler) StreamTopics(c *gin.Context) {
	sessionID := c.Param("id")

	raw, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.l.Warnf(c.Request.Context(), "websocket upgrade failed: session=%s error=%v", sessionID, err)
		return
	}
	conn := &wsConn{conn: raw}

	// The request context dies with the HTTP handler; turns need a
	// lifetime tied to the websocket instead.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
		if h.autoDelete {
			if err := h.uc.CloseSession(context.Background(), sessionID); err != nil &&
				!errors.Is(err, suggestion.ErrSessionNotFound) {
				h.l.Warnf(context.Background(), "auto-close failed: session=%s error=%v", sessionID, err)
			}
		}
		_ = raw.Close()
	}()

	for {
		var msg turnMsg
		if err := raw.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.l.Warnf(ctx, "websocket read failed: session=%s error=%v", sessionID, err)
			}
			return
		}

		signal, err := msg.toSignal()
		if err != nil {
			_ = conn.writeJSON(topicsMsg{Type: "error", Status: "invalid", Error: err.Error()})
			continue
		}

		// Each turn runs on its own goroutine so a newer message can
		// supersede an in-flight one instead of queueing behind it.
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.processStreamTurn(ctx, conn, sessionID, signal)
		}()
	}
}

func (h *handler) processStreamTurn(ctx context.Context, conn *wsConn, sessionID string, signal model.TurnSignal) {
	out, err := h.uc.ProcessTurn(ctx, suggestion.ProcessTurnInput{
		SessionID: sessionID,
		Signal:    signal,
		OnNode: func(e model.NodeEvent) {
			_ = conn.writeJSON(progressMsg{
				Type:       "progress",
				Node:       string(e.Node),
				Generation: e.Generation,
				Detail:     e.Detail,
			})
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, suggestion.ErrSuperseded):
			// A newer turn won; this one produces no output.
			return
		case errors.Is(err, suggestion.ErrSessionNotFound), errors.Is(err, suggestion.ErrSessionTerminated):
			conn.close(websocket.ClosePolicyViolation, "unknown session")
			return
		case errors.Is(err, suggestion.ErrInvalidSignal):
			_ = conn.writeJSON(topicsMsg{Type: "error", Status: "invalid", Error: err.Error()})
			return
		default:
			h.l.Errorf(ctx, "uc.ProcessTurn: session=%s error=%v", sessionID, err)
			_ = conn.writeJSON(topicsMsg{Type: "error", Status: "failed", Error: "turn processing failed"})
			return
		}
	}

	_ = conn.writeJSON(topicsMsg{
		Type:         "topics",
		Status:       "ok",
		CurrentTopic: out.CurrentTopic,
		Suggestions:  newSuggestionResps(out.Suggestions),
	})
}
