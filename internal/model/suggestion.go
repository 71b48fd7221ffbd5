package model

// SuggestionType tags where a suggestion came from. The scorer uses it
// both for the formula variant and for the tie-break order.
type SuggestionType string

const (
	SuggestionDeepen       SuggestionType = "deepen"
	SuggestionShift        SuggestionType = "shift"
	SuggestionSilenceBreak SuggestionType = "silence_break"
)

// TieBreakRank orders suggestion types for equal scores: deepen before
// shift before silence-break.
func (t SuggestionType) TieBreakRank() int {
	switch t {
	case SuggestionDeepen:
		return 0
	case SuggestionShift:
		return 1
	case SuggestionSilenceBreak:
		return 2
	default:
		return 3
	}
}

// Suggestion is one candidate topic, ranked by the scorer before
// delivery.
type Suggestion struct {
	Text         string         `json:"text"`
	Type         SuggestionType `json:"type"`
	Score        float64        `json:"score"`
	TargetUserID string         `json:"target_user_id,omitempty"`
	Category     string         `json:"category,omitempty"`

	// Vector is the candidate's own embedding, attached by the
	// generator that produced it. Not serialized to clients.
	Vector []float32 `json:"-"`
}
