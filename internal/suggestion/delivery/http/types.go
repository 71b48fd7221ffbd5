package http

import (
	"errors"
	"time"

	"talk-support/internal/model"
	"talk-support/internal/suggestion"
)

type userDataReq struct {
	UserID string   `json:"user_id"`
	Posts  []string `json:"posts"`
	Likes  []string `json:"likes"`
}

type createSessionReq struct {
	Speaker  userDataReq `json:"speaker"`
	Listener userDataReq `json:"listener"`
}

func (r createSessionReq) validate() error {
	if r.Speaker.UserID == "" || r.Listener.UserID == "" {
		return errors.New("speaker.user_id and listener.user_id are required")
	}
	return nil
}

func (r createSessionReq) toInput() suggestion.CreateSessionInput {
	return suggestion.CreateSessionInput{
		Speaker: suggestion.SnsData{
			UserID: r.Speaker.UserID,
			Posts:  r.Speaker.Posts,
			Likes:  r.Speaker.Likes,
		},
		Listener: suggestion.SnsData{
			UserID: r.Listener.UserID,
			Posts:  r.Listener.Posts,
			Likes:  r.Listener.Likes,
		},
	}
}

type suggestionResp struct {
	Text         string  `json:"text"`
	Type         string  `json:"type"`
	Score        float64 `json:"score"`
	TargetUserID string  `json:"target_user_id,omitempty"`
	Category     string  `json:"category,omitempty"`
}

func newSuggestionResps(in []model.Suggestion) []suggestionResp {
	out := make([]suggestionResp, 0, len(in))
	for _, s := range in {
		out = append(out, suggestionResp{
			Text:         s.Text,
			Type:         string(s.Type),
			Score:        s.Score,
			TargetUserID: s.TargetUserID,
			Category:     s.Category,
		})
	}
	return out
}

type createSessionResp struct {
	SessionID          string           `json:"session_id"`
	CommonInterests    []string         `json:"common_interests"`
	InitialSuggestions []suggestionResp `json:"initial_suggestions"`
}

func newCreateSessionResp(out suggestion.CreateSessionOutput) createSessionResp {
	return createSessionResp{
		SessionID:          out.SessionID,
		CommonInterests:    out.CommonInterests,
		InitialSuggestions: newSuggestionResps(out.InitialSuggestions),
	}
}

// turnMsg is one inbound websocket message: either a transcript batch
// or a silence notification.
type turnMsg struct {
	Conversations []conversationEntry `json:"conversations,omitempty"`
	Silence       *silenceEntry       `json:"silence,omitempty"`
}

type conversationEntry struct {
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type silenceEntry struct {
	DurationSeconds float64 `json:"duration_seconds"`
}

func (m turnMsg) toSignal() (model.TurnSignal, error) {
	switch {
	case m.Silence != nil:
		return model.TurnSignal{
			Type:            model.SignalSilence,
			DurationSeconds: m.Silence.DurationSeconds,
		}, nil
	case len(m.Conversations) > 0:
		sig := model.TurnSignal{Type: model.SignalText}
		for _, e := range m.Conversations {
			ts := e.Timestamp
			if ts.IsZero() {
				ts = time.Now()
			}
			sig.Turns = append(sig.Turns, model.ConversationTurn{
				UserID:    e.UserID,
				Text:      e.Text,
				Timestamp: ts,
			})
		}
		return sig, nil
	default:
		return model.TurnSignal{}, errors.New("message needs conversations or silence")
	}
}

// topicsMsg is the per-turn websocket reply.
type topicsMsg struct {
	Type         string           `json:"type"`
	Status       string           `json:"status"`
	CurrentTopic string           `json:"current_topic,omitempty"`
	Suggestions  []suggestionResp `json:"suggestions,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// progressMsg forwards a node-completion event.
type progressMsg struct {
	Type       string `json:"type"`
	Node       string `json:"node"`
	Generation int64  `json:"generation"`
	Detail     string `json:"detail,omitempty"`
}
