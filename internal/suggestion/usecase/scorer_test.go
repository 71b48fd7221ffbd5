package usecase

import (
	"testing"

	"talk-support/internal/model"
	"talk-support/internal/suggestion/repository/memory"
)

func newScorerTestUseCase(cap int) *implUseCase {
	return New(&mockLogger{}, memory.New(0), &fakeEmbedder{}, &fakeLLM{}, nil, Config{
		SuggestionCap: cap,
	})
}

func TestScoreCandidates(t *testing.T) {
	t.Run("sorted by non-increasing score", func(t *testing.T) {
		uc := newScorerTestUseCase(10)
		state := &model.SessionState{
			TopicVector: unitVec(0),
			Speaker: model.InterestProfile{UserID: "u1", Clusters: []model.InterestCluster{
				{Category: "旅行", Centroid: unitVec(1)},
			}},
		}
		candidates := []model.Suggestion{
			{Text: "a", Type: model.SuggestionDeepen, Vector: unitVec(3)}, // no similarity anywhere
			{Text: "b", Type: model.SuggestionDeepen, Vector: unitVec(0)}, // topic match
			{Text: "c", Type: model.SuggestionDeepen, Vector: unitVec(1)}, // profile match
		}

		ranked := uc.scoreCandidates(candidates, state)
		for i := 1; i < len(ranked); i++ {
			if ranked[i].Score > ranked[i-1].Score {
				t.Fatalf("not sorted at %d: %v", i, ranked)
			}
		}
		if ranked[0].Text != "c" {
			t.Errorf("expected profile match first (w=0.5), got %q", ranked[0].Text)
		}
	})

	t.Run("shift rewards topical distance", func(t *testing.T) {
		uc := newScorerTestUseCase(10)
		state := &model.SessionState{TopicVector: unitVec(0)}
		candidates := []model.Suggestion{
			{Text: "near", Type: model.SuggestionShift, Vector: unitVec(0)},
			{Text: "far", Type: model.SuggestionShift, Vector: unitVec(1)},
		}

		ranked := uc.scoreCandidates(candidates, state)
		if ranked[0].Text != "far" {
			t.Errorf("expected distant candidate first, got %q", ranked[0].Text)
		}
	})

	t.Run("tie break prefers deepen then shift then silence break", func(t *testing.T) {
		uc := newScorerTestUseCase(10)
		state := &model.SessionState{}
		// No vectors anywhere: every candidate scores the same baseline.
		candidates := []model.Suggestion{
			{Text: "s", Type: model.SuggestionSilenceBreak},
			{Text: "d", Type: model.SuggestionDeepen},
		}

		ranked := uc.scoreCandidates(candidates, state)
		if ranked[0].Type != model.SuggestionDeepen {
			t.Errorf("expected deepen first on tie, got %s", ranked[0].Type)
		}
	})

	t.Run("equal type ties keep insertion order", func(t *testing.T) {
		uc := newScorerTestUseCase(10)
		state := &model.SessionState{}
		candidates := []model.Suggestion{
			{Text: "first", Type: model.SuggestionDeepen},
			{Text: "second", Type: model.SuggestionDeepen},
		}

		ranked := uc.scoreCandidates(candidates, state)
		if ranked[0].Text != "first" {
			t.Errorf("expected insertion order preserved, got %q first", ranked[0].Text)
		}
	})

	t.Run("truncates to configured cap", func(t *testing.T) {
		uc := newScorerTestUseCase(2)
		state := &model.SessionState{}
		candidates := []model.Suggestion{
			{Text: "a", Type: model.SuggestionDeepen},
			{Text: "b", Type: model.SuggestionDeepen},
			{Text: "c", Type: model.SuggestionDeepen},
		}

		if got := uc.scoreCandidates(candidates, state); len(got) != 2 {
			t.Errorf("expected cap of 2, got %d", len(got))
		}
	})

	t.Run("does not mutate input order", func(t *testing.T) {
		uc := newScorerTestUseCase(10)
		state := &model.SessionState{TopicVector: unitVec(0)}
		candidates := []model.Suggestion{
			{Text: "near", Type: model.SuggestionShift, Vector: unitVec(0)},
			{Text: "far", Type: model.SuggestionShift, Vector: unitVec(1)},
		}

		_ = uc.scoreCandidates(candidates, state)
		if candidates[0].Text != "near" {
			t.Error("input slice reordered")
		}
	})
}

func TestConstantSafety(t *testing.T) {
	if got := (constantSafety{}).SafetyScore(model.Suggestion{}); got != 1.0 {
		t.Errorf("expected 1.0, got %f", got)
	}
}
