package suggestion

import (
	"talk-support/internal/model"
)

// SnsData is the raw social data a profile is built from.
type SnsData struct {
	UserID string
	Posts  []string
	Likes  []string
}

// CreateSessionInput carries both participants' SNS data.
type CreateSessionInput struct {
	Speaker  SnsData
	Listener SnsData
}

// CreateSessionOutput returns the new session id, the computed common
// interests, and opening silence-break suggestions.
type CreateSessionOutput struct {
	SessionID          string
	CommonInterests    []string
	InitialSuggestions []model.Suggestion
}

// ProcessTurnInput is one turn for an existing session. OnNode, when
// set, receives best-effort node-completion events during processing.
type ProcessTurnInput struct {
	SessionID string
	Signal    model.TurnSignal
	OnNode    func(model.NodeEvent)
}

// ProcessTurnOutput is the ranked suggestion list for the turn.
type ProcessTurnOutput struct {
	SessionID    string
	CurrentTopic string
	Suggestions  []model.Suggestion
}
