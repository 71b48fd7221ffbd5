package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"talk-support/internal/model"
	"talk-support/internal/suggestion"
)

const maxCommonInterests = 5

// CreateSession builds both interest profiles, stores the initial
// state, and returns opening silence-break suggestions. Profile
// construction is rule-based; no language model is involved here.
func (uc *implUseCase) CreateSession(ctx context.Context, input suggestion.CreateSessionInput) (suggestion.CreateSessionOutput, error) {
	if input.Speaker.UserID == "" || input.Listener.UserID == "" {
		return suggestion.CreateSessionOutput{}, fmt.Errorf("%w: both user ids are required", suggestion.ErrInvalidSignal)
	}
	if input.Speaker.UserID == input.Listener.UserID {
		return suggestion.CreateSessionOutput{}, fmt.Errorf("%w: user ids must differ", suggestion.ErrInvalidSignal)
	}

	speaker := uc.buildProfile(ctx, input.Speaker)
	listener := uc.buildProfile(ctx, input.Listener)

	now := time.Now()
	state := &model.SessionState{
		ID:              uuid.NewString(),
		Speaker:         speaker,
		Listener:        listener,
		CommonInterests: commonInterests(speaker, listener),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	initial := uc.suggestForSilence(state)

	if err := uc.repo.Save(ctx, state); err != nil {
		return suggestion.CreateSessionOutput{}, fmt.Errorf("failed to store new session: %w", err)
	}

	uc.l.Infof(ctx, "session created: id=%s common_interests=%v", state.ID, state.CommonInterests)

	return suggestion.CreateSessionOutput{
		SessionID:          state.ID,
		CommonInterests:    state.CommonInterests,
		InitialSuggestions: initial,
	}, nil
}

// buildProfile derives interest clusters from raw SNS data. One
// cluster per distinct liked term; salience counts likes plus posts
// mentioning the term; centroids are embedded best-effort.
func (uc *implUseCase) buildProfile(ctx context.Context, data suggestion.SnsData) model.InterestProfile {
	type entry struct {
		term     string
		salience float64
	}

	index := make(map[string]int)
	var entries []entry
	for _, like := range data.Likes {
		term := strings.TrimSpace(like)
		if term == "" {
			continue
		}
		if i, ok := index[term]; ok {
			entries[i].salience++
			continue
		}
		index[term] = len(entries)
		entries = append(entries, entry{term: term, salience: 1})
	}
	for _, post := range data.Posts {
		for term, i := range index {
			if strings.Contains(post, term) {
				entries[i].salience++
			}
		}
	}

	profile := model.InterestProfile{UserID: data.UserID}
	if len(entries) == 0 {
		return profile
	}

	terms := make([]string, len(entries))
	for i, e := range entries {
		terms[i] = e.term
	}
	centroids := uc.embedTerms(ctx, terms)

	for i, e := range entries {
		category := model.CategoryOther
		if model.IsKnownCategory(e.term) {
			category = e.term
		}
		cluster := model.InterestCluster{
			Category: category,
			Keywords: []string{e.term},
			Salience: e.salience,
		}
		if centroids != nil {
			cluster.Centroid = centroids[i]
		}
		profile.Clusters = append(profile.Clusters, cluster)
	}
	return profile
}

// embedTerms embeds interest terms in one batch. Returns nil on
// failure; centroids stay empty and similarity terms degrade to zero.
func (uc *implUseCase) embedTerms(ctx context.Context, terms []string) [][]float32 {
	embedCtx, cancel := context.WithTimeout(ctx, uc.cfg.EmbedTimeout)
	defer cancel()

	vectors, err := uc.embedder.Embed(embedCtx, terms)
	if err != nil || len(vectors) != len(terms) {
		uc.l.Warnf(ctx, "profile centroid embedding unavailable: error=%v", err)
		return nil
	}
	return vectors
}

// commonInterests intersects both users' category sets, keeping the
// speaker's order and capping the result.
func commonInterests(speaker, listener model.InterestProfile) []string {
	listenerSet := make(map[string]struct{})
	for _, c := range listener.Categories() {
		listenerSet[c] = struct{}{}
	}

	var common []string
	for _, c := range speaker.Categories() {
		if _, ok := listenerSet[c]; ok {
			common = append(common, c)
			if len(common) == maxCommonInterests {
				break
			}
		}
	}
	return common
}
