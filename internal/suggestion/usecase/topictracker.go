package usecase

import (
	"context"

	"talk-support/internal/model"
)

// updateTopic embeds the latest text, blends it into the topic vector,
// and records the derived category. Returns the derived category label
// (may be empty when no embedding was available).
func (uc *implUseCase) updateTopic(ctx context.Context, state *model.SessionState, text string) (string, error) {
	if text == "" {
		return "", nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, uc.cfg.EmbedTimeout)
	defer cancel()

	embed, err := uc.embedder.EmbedOne(embedCtx, text)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// Topic tracking degrades for this turn; the previous vector
		// keeps steering generation and scoring.
		uc.l.Warnf(ctx, "topic embedding failed, keeping previous vector: session=%s error=%v", state.ID, err)
		return "", nil
	}

	state.TopicVector = emaUpdate(state.TopicVector, embed, uc.cfg.EMAAlpha)

	category := uc.deriveCategory(ctx, state)
	if category != "" && !state.HasVisited(category) {
		state.VisitedCategories = append(state.VisitedCategories, category)
	}
	return category, nil
}

// deriveCategory finds the closest category to the topic vector,
// preferring the fixed prototype set and degrading to the profiles'
// cluster centroids when prototypes cannot be built.
func (uc *implUseCase) deriveCategory(ctx context.Context, state *model.SessionState) string {
	if len(state.TopicVector) == 0 {
		return ""
	}

	protos := uc.categoryPrototypes(ctx)
	if len(protos) > 0 {
		best, bestSim := "", -1.0
		for label, vec := range protos {
			if sim := cosine(state.TopicVector, vec); sim > bestSim {
				best, bestSim = label, sim
			}
		}
		return best
	}

	best, bestSim := "", -1.0
	for _, profile := range state.Profiles() {
		for _, cluster := range profile.Clusters {
			if sim := cosine(state.TopicVector, cluster.Centroid); sim > bestSim {
				best, bestSim = cluster.Category, sim
			}
		}
	}
	return best
}

// categoryPrototypes lazily embeds the fixed category labels, once per
// process. Returns nil when the embedding port is unavailable; the
// next turn retries.
func (uc *implUseCase) categoryPrototypes(ctx context.Context) map[string][]float32 {
	uc.protoMu.Lock()
	defer uc.protoMu.Unlock()

	if uc.protos != nil {
		return uc.protos
	}

	embedCtx, cancel := context.WithTimeout(ctx, uc.cfg.EmbedTimeout)
	defer cancel()

	vectors, err := uc.embedder.Embed(embedCtx, model.Categories)
	if err != nil || len(vectors) != len(model.Categories) {
		uc.l.Warnf(ctx, "category prototype embedding unavailable: error=%v", err)
		return nil
	}

	protos := make(map[string][]float32, len(model.Categories))
	for i, label := range model.Categories {
		protos[label] = vectors[i]
	}
	uc.protos = protos
	return protos
}
