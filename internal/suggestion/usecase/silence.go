package usecase

import (
	"fmt"

	"talk-support/internal/model"
)

// genericSilenceBreakers cover the case where no shared unvisited
// interest exists. This path must always yield something.
var genericSilenceBreakers = []string{
	"最近の天気はどうですか？季節の変わり目の話をしてみましょう。",
	"最近気になったニュースはありますか？",
	"今週末は何か予定がありますか？",
}

// suggestForSilence builds silence-break suggestions from shared
// interest bookkeeping. Synchronous, no external calls, never fails.
func (uc *implUseCase) suggestForSilence(state *model.SessionState) []model.Suggestion {
	candidates := uc.sharedUnvisitedClusters(state)
	if len(candidates) == 0 {
		text := genericSilenceBreakers[len(state.VisitedCategories)%len(genericSilenceBreakers)]
		return []model.Suggestion{{
			Text: text,
			Type: model.SuggestionSilenceBreak,
		}}
	}

	picked := candidates[weightedPick(candidates)]
	text := fmt.Sprintf("お二人とも%sに興味があるようですね。%sの話をしてみませんか？", picked.Category, picked.Category)
	if len(picked.Keywords) > 0 {
		text = fmt.Sprintf("お二人とも%sに興味があるようですね。例えば「%s」について話してみませんか？", picked.Category, picked.Keywords[0])
	}
	return []model.Suggestion{{
		Text:     text,
		Type:     model.SuggestionSilenceBreak,
		Category: picked.Category,
	}}
}

// sharedUnvisitedClusters returns the speaker's clusters whose category
// both users share and the session has not covered yet. Salience is
// summed across the two users so the pick reflects both.
func (uc *implUseCase) sharedUnvisitedClusters(state *model.SessionState) []model.InterestCluster {
	listenerSalience := make(map[string]float64)
	for _, c := range state.Listener.Clusters {
		listenerSalience[c.Category] += c.Salience
	}

	var shared []model.InterestCluster
	seen := make(map[string]struct{})
	for _, c := range state.Speaker.Clusters {
		ls, common := listenerSalience[c.Category]
		if !common || state.HasVisited(c.Category) {
			continue
		}
		if _, dup := seen[c.Category]; dup {
			continue
		}
		seen[c.Category] = struct{}{}
		c.Salience += ls
		shared = append(shared, c)
	}
	return shared
}
