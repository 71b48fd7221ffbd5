package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"talk-support/internal/model"
	"talk-support/internal/suggestion/repository"
	"talk-support/pkg/log"
)

const keyPrefix = "session:"

// SessionRepository stores sessions in Redis as JSON records with a
// sliding TTL.
type SessionRepository struct {
	client *goredis.Client
	ttl    time.Duration
	logger log.Logger
}

var _ repository.SessionRepository = (*SessionRepository)(nil)

// New creates a Redis-backed session repository. ttl <= 0 disables
// expiry.
func New(client *goredis.Client, ttl time.Duration, logger log.Logger) *SessionRepository {
	return &SessionRepository{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *SessionRepository) Load(ctx context.Context, sessionID string) (*model.SessionState, error) {
	raw, err := r.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	var state model.SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	return &state, nil
}

func (r *SessionRepository) Save(ctx context.Context, state *model.SessionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", state.ID, err)
	}

	if err := r.client.Set(ctx, keyPrefix+state.ID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", state.ID, err)
	}

	r.logger.Debugf(ctx, "session saved: id=%s generation=%d bytes=%d", state.ID, state.Generation, len(raw))
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	deleted, err := r.client.Del(ctx, keyPrefix+sessionID).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	if deleted == 0 {
		return repository.ErrNotFound
	}
	return nil
}
