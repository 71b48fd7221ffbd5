package model

// SignalType distinguishes the two kinds of turn input.
type SignalType string

const (
	SignalText    SignalType = "text"
	SignalSilence SignalType = "silence"
)

// TurnSignal is the unit of input to a session: a batch of new
// transcript entries, or a detected silence with its duration.
type TurnSignal struct {
	Type            SignalType
	Turns           []ConversationTurn // for SignalText
	DurationSeconds float64            // for SignalSilence
}
