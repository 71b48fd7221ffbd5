package usecase

import (
	"context"
	"sync"
	"sync/atomic"
)

// turnState is the orchestrator's position inside a turn. Transitions
// are linear per path; the value is logged, never branched on from
// outside the orchestrator.
type turnState int

const (
	stateIdle turnState = iota
	stateRouting
	stateFastPath
	stateMaintenancePath
	stateTracking
	stateForked
	stateJoining
	stateScoring
	stateDelivered
	stateTerminated
)

func (s turnState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRouting:
		return "routing"
	case stateFastPath:
		return "fast_path"
	case stateMaintenancePath:
		return "maintenance_path"
	case stateTracking:
		return "tracking"
	case stateForked:
		return "forked"
	case stateJoining:
		return "joining"
	case stateScoring:
		return "scoring"
	case stateDelivered:
		return "delivered"
	case stateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// sessionHandle tracks the in-flight turn of one session. generation
// increases monotonically; a turn whose captured generation falls
// behind must abort without committing.
type sessionHandle struct {
	mu         sync.Mutex
	generation atomic.Int64
	cancel     context.CancelFunc
	terminated atomic.Bool
}

// begin starts a new turn: bumps the generation, cancels the previous
// turn's context, and returns a cancellable context tagged with the
// new generation.
func (h *sessionHandle) begin(ctx context.Context) (context.Context, context.CancelFunc, int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
	}

	gen := h.generation.Add(1)
	turnCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	return turnCtx, cancel, gen
}

// seed raises the generation floor to the value persisted with the
// session, so a freshly created handle (after a restart) never reuses
// counter values an earlier process already committed.
func (h *sessionHandle) seed(min int64) {
	for {
		cur := h.generation.Load()
		if cur >= min {
			return
		}
		if h.generation.CompareAndSwap(cur, min) {
			return
		}
	}
}

// current returns the latest generation for the session.
func (h *sessionHandle) current() int64 {
	return h.generation.Load()
}

// isCurrent reports whether gen is still the active generation.
func (h *sessionHandle) isCurrent(gen int64) bool {
	return h.generation.Load() == gen && !h.terminated.Load()
}

// terminate cancels any in-flight turn and marks the handle dead.
func (h *sessionHandle) terminate() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.terminated.Store(true)
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// handle returns the per-session handle, creating it on first use.
// Terminated handles are kept as tombstones; a closed session's id
// must keep resolving to a terminated handle.
func (uc *implUseCase) handle(sessionID string) *sessionHandle {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	h, ok := uc.handles[sessionID]
	if !ok {
		h = &sessionHandle{}
		uc.handles[sessionID] = h
	}
	return h
}

// releaseIfUnused discards a handle that never ran a turn, so lookups
// of unknown session ids do not grow the registry. Tombstones and
// handles with committed generations stay.
func (uc *implUseCase) releaseIfUnused(sessionID string, h *sessionHandle) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.handles[sessionID] == h && h.generation.Load() == 0 && !h.terminated.Load() {
		delete(uc.handles, sessionID)
	}
}
