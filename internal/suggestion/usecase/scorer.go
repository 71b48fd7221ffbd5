package usecase

import (
	"sort"

	"talk-support/internal/model"
)

// constantSafety is the placeholder safety term until a real
// classifier is wired in.
type constantSafety struct{}

func (constantSafety) SafetyScore(model.Suggestion) float64 { return 1.0 }

// scoreCandidates ranks the candidate pool and truncates it to the
// configured cap. Pure function of its inputs; no suspension.
func (uc *implUseCase) scoreCandidates(candidates []model.Suggestion, state *model.SessionState) []model.Suggestion {
	scored := make([]model.Suggestion, len(candidates))
	copy(scored, candidates)

	for i := range scored {
		scored[i].Score = uc.score(scored[i], state)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Type.TieBreakRank() < scored[j].Type.TieBreakRank()
	})

	if len(scored) > uc.cfg.SuggestionCap {
		scored = scored[:uc.cfg.SuggestionCap]
	}
	return scored
}

func (uc *implUseCase) score(c model.Suggestion, state *model.SessionState) float64 {
	profileSim := profileSimilarity(c, state)
	topicSim := cosine(c.Vector, state.TopicVector)
	safety := uc.safety.SafetyScore(c)

	switch c.Type {
	case model.SuggestionShift:
		return uc.cfg.WeightProfile*profileSim + uc.cfg.WeightContext*(1-topicSim) + uc.cfg.WeightSafety*safety
	default:
		return uc.cfg.WeightProfile*profileSim + uc.cfg.WeightContext*topicSim + uc.cfg.WeightSafety*safety
	}
}

// profileSimilarity is the best cosine match between the candidate and
// the relevant interest centroids. A targeted candidate compares only
// against its target user's profile.
func profileSimilarity(c model.Suggestion, state *model.SessionState) float64 {
	best := 0.0
	for _, profile := range state.Profiles() {
		if c.TargetUserID != "" && profile.UserID != c.TargetUserID {
			continue
		}
		for _, cluster := range profile.Clusters {
			if sim := cosine(c.Vector, cluster.Centroid); sim > best {
				best = sim
			}
		}
	}
	return best
}
