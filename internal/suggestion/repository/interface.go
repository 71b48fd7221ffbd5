package repository

import (
	"context"

	"talk-support/internal/model"
)

// SessionRepository is the session store contract. One record per
// session, holding the full state; Save replaces the record atomically.
type SessionRepository interface {
	Load(ctx context.Context, sessionID string) (*model.SessionState, error)
	Save(ctx context.Context, state *model.SessionState) error
	Delete(ctx context.Context, sessionID string) error
}
