package memory

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"talk-support/internal/model"
	"talk-support/internal/suggestion/repository"
)

const defaultCapacity = 1024

// SessionRepository keeps sessions in an expirable LRU. Intended for
// development and tests; eviction stands in for external session
// expiry.
type SessionRepository struct {
	cache *expirable.LRU[string, *model.SessionState]
}

var _ repository.SessionRepository = (*SessionRepository)(nil)

// New creates an in-memory session repository. ttl <= 0 keeps entries
// until LRU eviction.
func New(ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		cache: expirable.NewLRU[string, *model.SessionState](defaultCapacity, nil, ttl),
	}
}

func (r *SessionRepository) Load(_ context.Context, sessionID string) (*model.SessionState, error) {
	state, ok := r.cache.Get(sessionID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return state, nil
}

func (r *SessionRepository) Save(_ context.Context, state *model.SessionState) error {
	r.cache.Add(state.ID, state)
	return nil
}

func (r *SessionRepository) Delete(_ context.Context, sessionID string) error {
	if !r.cache.Remove(sessionID) {
		return repository.ErrNotFound
	}
	return nil
}
