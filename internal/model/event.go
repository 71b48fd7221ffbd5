package model

import "time"

// NodeName identifies a processing node inside a turn.
type NodeName string

const (
	NodeMaintenance NodeName = "maintenance"
	NodeTracking    NodeName = "tracking"
	NodeDeepen      NodeName = "deepen"
	NodeShift       NodeName = "shift"
	NodeScoring     NodeName = "scoring"
)

// NodeEvent is an informational progress notification emitted when a
// node completes during a turn. Delivery is best-effort; correctness
// never depends on it.
type NodeEvent struct {
	SessionID  string    `json:"session_id"`
	Node       NodeName  `json:"node"`
	Generation int64     `json:"generation"`
	Detail     string    `json:"detail,omitempty"`
	At         time.Time `json:"at"`
}
