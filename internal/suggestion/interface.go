package suggestion

import (
	"context"

	"talk-support/internal/model"
)

// UseCase defines the business logic interface for the suggestion domain.
type UseCase interface {
	// CreateSession builds interest profiles from both users' SNS data,
	// stores the initial session state, and returns opening suggestions.
	CreateSession(ctx context.Context, input CreateSessionInput) (CreateSessionOutput, error)

	// ProcessTurn routes one turn signal through the engine and returns
	// the ranked suggestions for it. A newer call for the same session
	// supersedes an older in-flight one; the superseded call returns
	// ErrSuperseded and commits nothing.
	ProcessTurn(ctx context.Context, input ProcessTurnInput) (ProcessTurnOutput, error)

	// CloseSession terminates the session, cancels in-flight work, and
	// deletes the stored record.
	CloseSession(ctx context.Context, sessionID string) error
}

// EmbeddingPort turns text into vectors. Implemented by the voyage
// client; failures surface as provider errors.
type EmbeddingPort interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// GenerationPort turns a prompt into generated text. Implemented by
// the llmprovider manager.
type GenerationPort interface {
	Generate(ctx context.Context, systemInstruction, prompt string) (string, error)
}

// SafetyScorer supplies the safety term of the scoring formula. The
// default implementation returns a constant until a real classifier
// is wired in.
type SafetyScorer interface {
	SafetyScore(s model.Suggestion) float64
}
