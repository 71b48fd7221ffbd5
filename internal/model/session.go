package model

import "time"

// ConversationTurn is one transcript entry.
type ConversationTurn struct {
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// InterestCluster groups one slice of a user's expressed interests.
// Category comes from the fixed closed category set; Centroid is a
// unit vector or nil when embedding was unavailable.
type InterestCluster struct {
	Category string    `json:"category"`
	Centroid []float32 `json:"centroid,omitempty"`
	Keywords []string  `json:"keywords"`
	Salience float64   `json:"salience"`
}

// InterestProfile is the per-user profile built at session start.
// Read-only after creation.
type InterestProfile struct {
	UserID   string            `json:"user_id"`
	Clusters []InterestCluster `json:"clusters"`
}

// Categories returns the distinct category labels across all clusters,
// in cluster order.
func (p InterestProfile) Categories() []string {
	seen := make(map[string]struct{}, len(p.Clusters))
	var out []string
	for _, c := range p.Clusters {
		if _, ok := seen[c.Category]; ok {
			continue
		}
		seen[c.Category] = struct{}{}
		out = append(out, c.Category)
	}
	return out
}

// SessionState is the full state of one active conversation. It is
// owned by the orchestrator for the session's lifetime and committed
// to the session store as a single replacement after each winning turn.
type SessionState struct {
	ID string `json:"id"`

	// Transcript
	Turns   []ConversationTurn `json:"turns"`   // full ordered transcript
	Recent  []ConversationTurn `json:"recent"`  // bounded recent window
	Summary string             `json:"summary"` // compressed history

	// Topic tracking
	TopicVector       []float32 `json:"topic_vector,omitempty"` // unit-normalized or empty
	VisitedCategories []string  `json:"visited_categories"`     // grows monotonically

	// Participants
	Speaker         InterestProfile `json:"speaker"`
	Listener        InterestProfile `json:"listener"`
	CommonInterests []string        `json:"common_interests"`

	// Lifecycle
	Generation int64     `json:"generation"` // invalidates stale in-flight work
	Terminated bool      `json:"terminated"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Clone returns a copy whose mutable slices are detached from the
// receiver, so a turn can mutate freely and commit the result as one
// replacement. Profiles are read-only and shared.
func (s *SessionState) Clone() *SessionState {
	out := *s
	out.Turns = append([]ConversationTurn(nil), s.Turns...)
	out.Recent = append([]ConversationTurn(nil), s.Recent...)
	out.TopicVector = append([]float32(nil), s.TopicVector...)
	out.VisitedCategories = append([]string(nil), s.VisitedCategories...)
	out.CommonInterests = append([]string(nil), s.CommonInterests...)
	return &out
}

// HasVisited reports whether the category label was already covered in
// this session.
func (s *SessionState) HasVisited(category string) bool {
	for _, v := range s.VisitedCategories {
		if v == category {
			return true
		}
	}
	return false
}

// Profiles returns both participants' profiles.
func (s *SessionState) Profiles() []InterestProfile {
	return []InterestProfile{s.Speaker, s.Listener}
}
