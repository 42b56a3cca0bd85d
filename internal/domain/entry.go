// Package domain holds the core types and ports shared across layers.
package domain

import "time"

// Sender identifies which side of the conversation produced an entry.
type Sender int

const (
	SenderUser Sender = iota
	SenderAssistant
)

// String returns a human-readable sender name.
func (s Sender) String() string {
	switch s {
	case SenderUser:
		return "user"
	case SenderAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// Entry is one chat message. Entries are append-only: once recorded
// they are never mutated or removed.
type Entry struct {
	Sender Sender
	Text   string
	At     time.Time
}
