package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"talk-support/internal/model"
	"talk-support/internal/suggestion"
	"talk-support/internal/suggestion/repository"
)

// ProcessTurn routes one signal through the engine. Entering a turn
// supersedes any in-flight turn for the same session: the older turn
// is cancelled and returns ErrSuperseded without committing state.
func (uc *implUseCase) ProcessTurn(ctx context.Context, input suggestion.ProcessTurnInput) (suggestion.ProcessTurnOutput, error) {
	if err := validateSignal(input.Signal); err != nil {
		return suggestion.ProcessTurnOutput{}, err
	}

	// The handle must be registered before the session is loaded so a
	// concurrent CloseSession always reaches this turn's handle.
	h := uc.handle(input.SessionID)

	stored, err := uc.loadSession(ctx, input.SessionID)
	if err != nil {
		uc.releaseIfUnused(input.SessionID, h)
		return suggestion.ProcessTurnOutput{}, err
	}
	// A close that raced the load leaves the handle terminated even
	// when the load still returned the old record.
	if h.terminated.Load() {
		return suggestion.ProcessTurnOutput{}, suggestion.ErrSessionNotFound
	}
	h.seed(stored.Generation)

	turnCtx, cancel, gen := h.begin(ctx)
	defer cancel()

	state := stored.Clone()
	state.Generation = gen

	uc.l.Debugf(ctx, "turn started: session=%s generation=%d signal=%s state=%s",
		state.ID, gen, input.Signal.Type, stateRouting)

	var (
		suggestions  []model.Suggestion
		currentTopic string
	)

	if input.Signal.Type == model.SignalSilence {
		suggestions = uc.runFastPath(state)
	} else {
		suggestions, currentTopic, err = uc.runNormalPath(turnCtx, h, gen, state, input)
		if err != nil {
			return suggestion.ProcessTurnOutput{}, err
		}
	}
	if currentTopic == "" && len(state.VisitedCategories) > 0 {
		currentTopic = state.VisitedCategories[len(state.VisitedCategories)-1]
	}

	if err := uc.commit(turnCtx, h, gen, state); err != nil {
		return suggestion.ProcessTurnOutput{}, err
	}

	uc.l.Infof(ctx, "turn delivered: session=%s generation=%d suggestions=%d topic=%s state=%s",
		state.ID, gen, len(suggestions), currentTopic, stateDelivered)

	return suggestion.ProcessTurnOutput{
		SessionID:    state.ID,
		CurrentTopic: currentTopic,
		Suggestions:  suggestions,
	}, nil
}

// runFastPath handles silence without touching external services.
func (uc *implUseCase) runFastPath(state *model.SessionState) []model.Suggestion {
	suggestions := uc.suggestForSilence(state)
	for _, s := range suggestions {
		if s.Category != "" && !state.HasVisited(s.Category) {
			state.VisitedCategories = append(state.VisitedCategories, s.Category)
		}
	}
	return suggestions
}

// runNormalPath performs maintenance, topic tracking, the generator
// fork/join, and scoring for a text signal.
func (uc *implUseCase) runNormalPath(
	ctx context.Context,
	h *sessionHandle,
	gen int64,
	state *model.SessionState,
	input suggestion.ProcessTurnInput,
) ([]model.Suggestion, string, error) {
	state.Turns = append(state.Turns, input.Signal.Turns...)
	state.Recent = append(state.Recent, input.Signal.Turns...)

	if uc.needsMaintenance(state) {
		if err := uc.compressContext(ctx, state); err != nil {
			return nil, "", uc.asTurnError(h, gen, err)
		}
		uc.emit(input.OnNode, state, gen, model.NodeMaintenance, "")
	}

	topic, err := uc.updateTopic(ctx, state, latestText(input.Signal.Turns))
	if err != nil {
		return nil, "", uc.asTurnError(h, gen, err)
	}
	uc.emit(input.OnNode, state, gen, model.NodeTracking, topic)

	var (
		deepenOut, shiftOut []model.Suggestion
		deepenErr, shiftErr error
	)

	g, forkCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deepenOut, deepenErr = uc.generateDeepen(forkCtx, h, gen, state)
		if errors.Is(deepenErr, suggestion.ErrSuperseded) {
			return deepenErr
		}
		return nil
	})
	g.Go(func() error {
		shiftOut, shiftErr = uc.generateShift(forkCtx, h, gen, state)
		if errors.Is(shiftErr, suggestion.ErrSuperseded) {
			return shiftErr
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, "", uc.asTurnError(h, gen, err)
	}
	if !h.isCurrent(gen) {
		return nil, "", suggestion.ErrSuperseded
	}

	if deepenErr != nil {
		uc.l.Warnf(ctx, "deepening generator degraded: session=%s generation=%d error=%v", state.ID, gen, deepenErr)
		uc.emit(input.OnNode, state, gen, model.NodeDeepen, "degraded")
	} else {
		uc.emit(input.OnNode, state, gen, model.NodeDeepen, fmt.Sprintf("%d candidates", len(deepenOut)))
	}
	if shiftErr != nil {
		uc.l.Warnf(ctx, "shifting generator degraded: session=%s generation=%d error=%v", state.ID, gen, shiftErr)
		uc.emit(input.OnNode, state, gen, model.NodeShift, "degraded")
	} else {
		uc.emit(input.OnNode, state, gen, model.NodeShift, fmt.Sprintf("%d candidates", len(shiftOut)))
	}

	// Merge is an explicit concatenation after join; generator output
	// stays disjoint until here.
	candidates := make([]model.Suggestion, 0, len(deepenOut)+len(shiftOut))
	candidates = append(candidates, deepenOut...)
	candidates = append(candidates, shiftOut...)

	// Both generators failing, or an exhausted category space, falls
	// back to the non-generative path rather than aborting the turn.
	if len(candidates) == 0 {
		candidates = uc.suggestForSilence(state)
	}

	ranked := uc.scoreCandidates(candidates, state)
	uc.emit(input.OnNode, state, gen, model.NodeScoring, fmt.Sprintf("%d ranked", len(ranked)))

	if len(ranked) == 0 {
		return nil, "", suggestion.ErrAllSourcesFailed
	}

	for _, s := range ranked {
		if s.Category != "" && !state.HasVisited(s.Category) {
			state.VisitedCategories = append(state.VisitedCategories, s.Category)
		}
	}

	return ranked, topic, nil
}

// commit persists the mutated state, but only while this turn is still
// the newest. The handle lock serializes commit against the next
// turn's begin, so a superseded turn can never overwrite a newer one.
func (uc *implUseCase) commit(ctx context.Context, h *sessionHandle, gen int64, state *model.SessionState) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.generation.Load() != gen || h.terminated.Load() {
		return suggestion.ErrSuperseded
	}

	state.UpdatedAt = time.Now()
	if err := uc.repo.Save(ctx, state); err != nil {
		return fmt.Errorf("failed to commit turn %d for session %s: %w", gen, state.ID, err)
	}
	return nil
}

// CloseSession terminates the session, cancelling in-flight work and
// deleting the stored record. The terminated handle stays registered
// as a tombstone so a turn that raced the close can never commit.
func (uc *implUseCase) CloseSession(ctx context.Context, sessionID string) error {
	h := uc.handle(sessionID)
	h.terminate()

	if err := uc.repo.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return suggestion.ErrSessionNotFound
		}
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}

	uc.l.Infof(ctx, "session closed: id=%s state=%s", sessionID, stateTerminated)
	return nil
}

func (uc *implUseCase) loadSession(ctx context.Context, sessionID string) (*model.SessionState, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", suggestion.ErrInvalidSignal)
	}
	state, err := uc.repo.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, suggestion.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if state.Terminated {
		return nil, suggestion.ErrSessionTerminated
	}
	return state, nil
}

// asTurnError maps a node failure: a superseded or cancelled turn
// reports ErrSuperseded, anything else passes through.
func (uc *implUseCase) asTurnError(h *sessionHandle, gen int64, err error) error {
	if errors.Is(err, suggestion.ErrSuperseded) || !h.isCurrent(gen) || errors.Is(err, context.Canceled) {
		return suggestion.ErrSuperseded
	}
	return err
}

// emit forwards a node-completion event when the caller asked for
// progress. Best-effort and informational only.
func (uc *implUseCase) emit(onNode func(model.NodeEvent), state *model.SessionState, gen int64, node model.NodeName, detail string) {
	if onNode == nil {
		return
	}
	onNode(model.NodeEvent{
		SessionID:  state.ID,
		Node:       node,
		Generation: gen,
		Detail:     detail,
		At:         time.Now(),
	})
}

func validateSignal(sig model.TurnSignal) error {
	switch sig.Type {
	case model.SignalText:
		if len(sig.Turns) == 0 {
			return fmt.Errorf("%w: text signal carries no transcript entries", suggestion.ErrInvalidSignal)
		}
		for _, t := range sig.Turns {
			if t.UserID == "" || t.Text == "" {
				return fmt.Errorf("%w: transcript entries need user_id and text", suggestion.ErrInvalidSignal)
			}
		}
	case model.SignalSilence:
		if sig.DurationSeconds < 0 {
			return fmt.Errorf("%w: silence duration must be non-negative", suggestion.ErrInvalidSignal)
		}
	default:
		return fmt.Errorf("%w: unknown signal type %q", suggestion.ErrInvalidSignal, sig.Type)
	}
	return nil
}
