package usecase

import (
	"context"
	"math"

	"talk-support/internal/model"
	"talk-support/internal/suggestion"
)

// shiftSalienceWeight biases target-category selection toward clusters
// the user engages with more, without overriding topical distance.
const shiftSalienceWeight = 0.05

// generateDeepen asks for follow-up questions on the current topic.
// Aborts between suspension points when the turn is superseded.
func (uc *implUseCase) generateDeepen(ctx context.Context, h *sessionHandle, gen int64, state *model.SessionState) ([]model.Suggestion, error) {
	if !h.isCurrent(gen) {
		return nil, suggestion.ErrSuperseded
	}

	genCtx, cancel := context.WithTimeout(ctx, uc.cfg.GenerateTimeout)
	defer cancel()

	raw, err := uc.llm.Generate(genCtx, deepenSystemInstruction, buildDeepenPrompt(state))
	if err != nil {
		return nil, err
	}
	if !h.isCurrent(gen) {
		return nil, suggestion.ErrSuperseded
	}

	texts := parseSuggestionTexts(raw)
	candidates := make([]model.Suggestion, 0, len(texts))
	for _, text := range texts {
		candidates = append(candidates, model.Suggestion{
			Text: text,
			Type: model.SuggestionDeepen,
		})
	}

	uc.embedCandidates(ctx, h, gen, candidates)
	if !h.isCurrent(gen) {
		return nil, suggestion.ErrSuperseded
	}
	return candidates, nil
}

// generateShift proposes a move to the least topic-adjacent unvisited
// interest category across both users. An exhausted category space
// yields an empty list, not an error.
func (uc *implUseCase) generateShift(ctx context.Context, h *sessionHandle, gen int64, state *model.SessionState) ([]model.Suggestion, error) {
	if !h.isCurrent(gen) {
		return nil, suggestion.ErrSuperseded
	}

	target, targetUser, ok := pickShiftTarget(state)
	if !ok {
		return nil, nil
	}

	genCtx, cancel := context.WithTimeout(ctx, uc.cfg.GenerateTimeout)
	defer cancel()

	raw, err := uc.llm.Generate(genCtx, shiftSystemInstruction, buildShiftPrompt(state, target.Category, target.Keywords, targetUser))
	if err != nil {
		return nil, err
	}
	if !h.isCurrent(gen) {
		return nil, suggestion.ErrSuperseded
	}

	texts := parseSuggestionTexts(raw)
	candidates := make([]model.Suggestion, 0, len(texts))
	for _, text := range texts {
		candidates = append(candidates, model.Suggestion{
			Text:         text,
			Type:         model.SuggestionShift,
			TargetUserID: targetUser,
			Category:     target.Category,
		})
	}

	uc.embedCandidates(ctx, h, gen, candidates)
	if !h.isCurrent(gen) {
		return nil, suggestion.ErrSuperseded
	}
	return candidates, nil
}

// pickShiftTarget chooses the unvisited cluster with the lowest
// topic similarity, salience-weighted, across both users.
func pickShiftTarget(state *model.SessionState) (model.InterestCluster, string, bool) {
	var (
		best     model.InterestCluster
		bestUser string
		bestSel  = math.Inf(1)
		found    bool
	)
	for _, profile := range state.Profiles() {
		for _, cluster := range profile.Clusters {
			if state.HasVisited(cluster.Category) {
				continue
			}
			sel := cosine(state.TopicVector, cluster.Centroid) - shiftSalienceWeight*math.Log1p(math.Max(cluster.Salience, 0))
			if sel < bestSel {
				best, bestUser, bestSel, found = cluster, profile.UserID, sel, true
			}
		}
	}
	return best, bestUser, found
}

// embedCandidates attaches embeddings so the scorer can compare the
// candidates against profile centroids and the topic vector. Failure
// leaves vectors nil; scoring degrades to the safety term.
func (uc *implUseCase) embedCandidates(ctx context.Context, h *sessionHandle, gen int64, candidates []model.Suggestion) {
	if len(candidates) == 0 || !h.isCurrent(gen) {
		return
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}

	embedCtx, cancel := context.WithTimeout(ctx, uc.cfg.EmbedTimeout)
	defer cancel()

	vectors, err := uc.embedder.Embed(embedCtx, texts)
	if err != nil || len(vectors) != len(candidates) {
		uc.l.Warnf(ctx, "candidate embedding unavailable: error=%v", err)
		return
	}
	for i := range candidates {
		candidates[i].Vector = vectors[i]
	}
}
