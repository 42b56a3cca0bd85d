package domain

import "time"

// Turn represents one request/response exchange with the reasoning
// backend. A turn is created on submission and becomes immutable once
// it reaches a terminal status.
type Turn struct {
	ID            string
	InputText     string
	Status        TurnStatus
	ResponseText  string
	ResponseAudio []byte // decoded synthesized speech, nil when text-only
	StartedAt     time.Time
	FinishedAt    time.Time
}

// TurnStatus tracks the lifecycle of a conversational turn.
type TurnStatus int

const (
	TurnPending TurnStatus = iota
	TurnSucceeded
	TurnFailed
)

// String returns a human-readable turn status.
func (s TurnStatus) String() string {
	switch s {
	case TurnPending:
		return "pending"
	case TurnSucceeded:
		return "succeeded"
	case TurnFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TurnResult is what the reasoning backend returns for one turn.
type TurnResult struct {
	Text  string
	Audio []byte // synthesized speech, nil when the backend sent none
}
