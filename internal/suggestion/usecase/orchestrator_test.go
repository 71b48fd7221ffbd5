package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"talk-support/internal/model"
	"talk-support/internal/suggestion"
	"talk-support/internal/suggestion/repository"
	"talk-support/internal/suggestion/repository/memory"
)

// gatedRepo pauses the first Load after it has read the record, so a
// test can interleave another operation into that window.
type gatedRepo struct {
	*memory.SessionRepository

	loadEntered chan struct{}
	loadRelease chan struct{}
	once        sync.Once
}

func (g *gatedRepo) Load(ctx context.Context, sessionID string) (*model.SessionState, error) {
	state, err := g.SessionRepository.Load(ctx, sessionID)
	g.once.Do(func() {
		close(g.loadEntered)
		<-g.loadRelease
	})
	return state, err
}

func seedSession(t *testing.T, repo *memory.SessionRepository, state *model.SessionState) {
	t.Helper()
	if err := repo.Save(context.Background(), state); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
}

func baseState(id string) *model.SessionState {
	return &model.SessionState{
		ID: id,
		Speaker: model.InterestProfile{UserID: "u1", Clusters: []model.InterestCluster{
			{Category: "旅行", Centroid: unitVec(1), Keywords: []string{"温泉"}, Salience: 2},
		}},
		Listener: model.InterestProfile{UserID: "u2", Clusters: []model.InterestCluster{
			{Category: "旅行", Centroid: unitVec(1), Salience: 1},
			{Category: "料理", Centroid: unitVec(2), Salience: 1},
		}},
		CommonInterests: []string{"旅行"},
	}
}

func textSignal(texts ...string) model.TurnSignal {
	sig := model.TurnSignal{Type: model.SignalText}
	for _, text := range texts {
		sig.Turns = append(sig.Turns, testTurn("u1", text))
	}
	return sig
}

func TestProcessTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("text turn delivers ranked suggestions and commits state", func(t *testing.T) {
		repo := memory.New(0)
		seedSession(t, repo, baseState("s1"))
		uc := New(&mockLogger{}, repo, &fakeEmbedder{}, &fakeLLM{}, nil, Config{})

		out, err := uc.ProcessTurn(ctx, suggestion.ProcessTurnInput{
			SessionID: "s1",
			Signal:    textSignal("温泉の話"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.Suggestions) == 0 {
			t.Fatal("expected suggestions")
		}

		stored, _ := repo.Load(ctx, "s1")
		if len(stored.Recent) != 1 || stored.Recent[0].Text != "温泉の話" {
			t.Errorf("expected transcript committed, got %+v", stored.Recent)
		}
		if stored.Generation != 1 {
			t.Errorf("expected generation 1, got %d", stored.Generation)
		}
		if len(stored.TopicVector) == 0 {
			t.Error("expected topic vector committed")
		}
	})

	t.Run("silence turn takes the fast path", func(t *testing.T) {
		repo := memory.New(0)
		seedSession(t, repo, baseState("s1"))
		llmCalls := 0
		uc := New(&mockLogger{}, repo, &fakeEmbedder{}, &fakeLLM{
			generateFunc: func(ctx context.Context, sys, prompt string) (string, error) {
				llmCalls++
				return `["x"]`, nil
			},
		}, nil, Config{})

		out, err := uc.ProcessTurn(ctx, suggestion.ProcessTurnInput{
			SessionID: "s1",
			Signal:    model.TurnSignal{Type: model.SignalSilence, DurationSeconds: 5},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Suggestions[0].Type != model.SuggestionSilenceBreak {
			t.Errorf("expected silence_break, got %s", out.Suggestions[0].Type)
		}
		if llmCalls != 0 {
			t.Errorf("fast path must not call the generation port, got %d calls", llmCalls)
		}
	})

	t.Run("silence with no unvisited common interest falls back generically", func(t *testing.T) {
		repo := memory.New(0)
		state := baseState("s1")
		state.VisitedCategories = []string{"旅行"}
		seedSession(t, repo, state)
		uc := New(&mockLogger{}, repo, &fakeEmbedder{}, &fakeLLM{}, nil, Config{})

		out, err := uc.ProcessTurn(ctx, suggestion.ProcessTurnInput{
			SessionID: "s1",
			Signal:    model.TurnSignal{Type: model.SignalSilence, DurationSeconds: 5},
		})
		if err != nil {
			t.Fatalf("expected generic fallback, got error: %v", err)
		}
		if len(out.Suggestions) == 0 {
			t.Fatal("expected fallback suggestion")
		}
	})

	t.Run("window overflow triggers compression during the turn", func(t *testing.T) {
		repo := memory.New(0)
		state := baseState("s1")
		state.Recent = windowOf(8)
		state.Turns = append([]model.ConversationTurn(nil), state.Recent...)
		seedSession(t, repo, state)

		uc := New(&mockLogger{}, repo, &fakeEmbedder{}, &fakeLLM{
			generateFunc: func(ctx context.Context, sys, prompt string) (string, error) {
				if strings.Contains(sys, "要約者") {
					return "まとめ", nil
				}
				return `["提案"]`, nil
			},
		}, nil, Config{HistoryThreshold: 8, HistoryKeep: 5})

		var events []model.NodeEvent
		_, err := uc.ProcessTurn(ctx, suggestion.ProcessTurnInput{
			SessionID: "s1",
			Signal:    textSignal("新しい発言"),
			OnNode:    func(e model.NodeEvent) { events = append(events, e) },
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		stored, _ := repo.Load(ctx, "s1")
		if len(stored.Recent) != 5 {
			t.Errorf("expected compressed window of 5, got %d", len(stored.Recent))
		}
		if stored.Summary != "まとめ" {
			t.Errorf("expected summary committed, got %q", stored.Summary)
		}

		var sawMaintenance bool
		for _, e := range events {
			if e.Node == model.NodeMaintenance {
				sawMaintenance = true
			}
		}
		if !sawMaintenance {
			t.Error("expected maintenance node event")
		}
	})

	t.Run("one failing generator degrades to the survivor", func(t *testing.T) {
		repo := memory.New(0)
		seedSession(t, repo, baseState("s1"))
		uc := New(&mockLogger{}, repo, &fakeEmbedder{}, &fakeLLM{
			generateFunc: func(ctx context.Context, sys, prompt string) (string, error) {
				if strings.Contains(sys, "深掘り") {
					return "", errors.New("provider down")
				}
				return `["切り替え案"]`, nil
			},
		}, nil, Config{})

		out, err := uc.ProcessTurn(ctx, suggestion.ProcessTurnInput{
			SessionID: "s1",
			Signal:    textSignal("こんにちは"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.Suggestions) == 0 {
			t.Fatal("expected survivor's suggestions")
		}
		for _, s := range out.Suggestions {
			if s.Type == model.SuggestionDeepen {
				t.Errorf("failed generator's output leaked: %+v", s)
			}
		}
	})

	t.Run("both generators failing yields a fallback suggestion", func(t *testing.T) {
		repo := memory.New(0)
		seedSession(t, repo, baseState("s1"))
		uc := New(&mockLogger{}, repo, &fakeEmbedder{}, &fakeLLM{
			generateFunc: func(ctx context.Context, sys, prompt string) (string, error) {
				return "", errors.New("provider down")
			},
		}, nil, Config{})

		out, err := uc.ProcessTurn(ctx, suggestion.ProcessTurnInput{
			SessionID: "s1",
			Signal:    textSignal("こんにちは"),
		})
		if err != nil {
			t.Fatalf("expected degraded output, got error: %v", err)
		}
		if len(out.Suggestions) == 0 {
			t.Fatal("expected fallback suggestion")
		}
		if out.Suggestions[0].Type != model.SuggestionSilenceBreak {
			t.Errorf("expected silence_break fallback, got %s", out.Suggestions[0].Type)
		}
	})

	t.Run("validation and lookup failures", func(t *testing.T) {
		repo := memory.New(0)
		seedSession(t, repo, baseState("s1"))
		uc := New(&mockLogger{}, repo, &fakeEmbedder{}, &fakeLLM{}, nil, Config{})

		_, err := uc.ProcessTurn(ctx, suggestion.ProcessTurnInput{
			SessionID: "missing",
			Signal:    textSignal("x"),
		})
		if !errors.Is(err, suggestion.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}

		_, err = uc.ProcessTurn(ctx, suggestion.ProcessTurnInput{
			SessionID: "s1",
			Signal:    model.TurnSignal{Type: model.SignalText},
		})
		if !errors.Is(err, suggestion.ErrInvalidSignal) {
			t.Errorf("expected ErrInvalidSignal for empty batch, got %v", err)
		}

		_, err = uc.ProcessTurn(ctx, suggestion.ProcessTurnInput{
			SessionID: "s1",
			Signal:    model.TurnSignal{Type: model.SignalSilence, DurationSeconds: -1},
		})
		if !errors.Is(err, suggestion.ErrInvalidSignal) {
			t.Errorf("expected ErrInvalidSignal for negative duration, got %v", err)
		}

		stored, _ := repo.Load(ctx, "s1")
		if stored.Generation != 0 {
			t.Errorf("rejected signals must not touch state, generation=%d", stored.Generation)
		}
	})
}

func TestProcessTurnSupersede(t *testing.T) {
	ctx := context.Background()

	t.Run("newer turn discards an in-flight older one", func(t *testing.T) {
		repo := memory.New(0)
		state := baseState("s1")
		// No unvisited shift targets: keep the deepening generator as
		// the only generation call per turn.
		state.VisitedCategories = []string{"旅行", "料理"}
		seedSession(t, repo, state)

		aStarted := make(chan struct{})
		bDone := make(chan struct{})
		var once sync.Once

		uc := New(&mockLogger{}, repo, &fakeEmbedder{}, &fakeLLM{
			generateFunc: func(ctx context.Context, sys, prompt string) (string, error) {
				if strings.Contains(prompt, "話題A") {
					once.Do(func() { close(aStarted) })
					<-bDone
					return `["A案"]`, nil
				}
				return `["B案"]`, nil
			},
		}, nil, Config{})

		type result struct {
			out suggestion.ProcessTurnOutput
			err error
		}
		aResult := make(chan result, 1)
		go func() {
			out, err := uc.ProcessTurn(ctx, suggestion.ProcessTurnInput{
				SessionID: "s1",
				Signal:    textSignal("話題A"),
			})
			aResult <- result{out, err}
		}()

		select {
		case <-aStarted:
		case <-time.After(5 * time.Second):
			t.Fatal("turn A never reached the generation port")
		}

		outB, err := uc.ProcessTurn(ctx, suggestion.ProcessTurnInput{
			SessionID: "s1",
			Signal:    textSignal("話題B"),
		})
		if err != nil {
			t.Fatalf("turn B failed: %v", err)
		}
		close(bDone)

		var foundB bool
		for _, s := range outB.Suggestions {
			if s.Text == "B案" {
				foundB = true
			}
			if s.Text == "A案" {
				t.Error("turn A's output leaked into turn B")
			}
		}
		if !foundB {
			t.Errorf("expected B's suggestions, got %+v", outB.Suggestions)
		}

		select {
		case res := <-aResult:
			if !errors.Is(res.err, suggestion.ErrSuperseded) {
				t.Errorf("expected ErrSuperseded for turn A, got %v (out=%+v)", res.err, res.out)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("turn A never finished")
		}

		stored, _ := repo.Load(ctx, "s1")
		if stored.Generation != 2 {
			t.Errorf("expected committed generation 2, got %d", stored.Generation)
		}
		for _, turn := range stored.Recent {
			if turn.Text == "話題A" {
				t.Error("superseded turn mutated the transcript")
			}
		}
	})
}

func TestCloseSession(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the record and stops further turns", func(t *testing.T) {
		repo := memory.New(0)
		seedSession(t, repo, baseState("s1"))
		uc := New(&mockLogger{}, repo, &fakeEmbedder{}, &fakeLLM{}, nil, Config{})

		if err := uc.CloseSession(ctx, "s1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err := uc.ProcessTurn(ctx, suggestion.ProcessTurnInput{
			SessionID: "s1",
			Signal:    textSignal("x"),
		})
		if !errors.Is(err, suggestion.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound after close, got %v", err)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		uc := New(&mockLogger{}, memory.New(0), &fakeEmbedder{}, &fakeLLM{}, nil, Config{})
		if err := uc.CloseSession(ctx, "missing"); !errors.Is(err, suggestion.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("close racing an in-flight load cannot be undone by the turn", func(t *testing.T) {
		base := memory.New(0)
		seedSession(t, base, baseState("s1"))
		repo := &gatedRepo{
			SessionRepository: base,
			loadEntered:       make(chan struct{}),
			loadRelease:       make(chan struct{}),
		}
		uc := New(&mockLogger{}, repo, &fakeEmbedder{}, &fakeLLM{}, nil, Config{})

		turnErr := make(chan error, 1)
		go func() {
			_, err := uc.ProcessTurn(ctx, suggestion.ProcessTurnInput{
				SessionID: "s1",
				Signal:    textSignal("x"),
			})
			turnErr <- err
		}()

		select {
		case <-repo.loadEntered:
		case <-time.After(5 * time.Second):
			t.Fatal("turn never reached the session store")
		}

		// The turn has read the record but not yet registered its
		// generation; the close must still reach it.
		if err := uc.CloseSession(ctx, "s1"); err != nil {
			t.Fatalf("unexpected close error: %v", err)
		}
		close(repo.loadRelease)

		select {
		case err := <-turnErr:
			if !errors.Is(err, suggestion.ErrSessionNotFound) {
				t.Errorf("expected ErrSessionNotFound for the raced turn, got %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("turn never finished")
		}

		if _, err := base.Load(ctx, "s1"); !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("closed session must stay deleted, got %v", err)
		}
	})
}
