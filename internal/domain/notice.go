package domain

// Severity classifies a status notice.
type Severity int

const (
	// SeverityInfo — transient informational notice, self-expires.
	SeverityInfo Severity = iota
	// SeverityListening — shown while the microphone is live; persists
	// until replaced or cleared.
	SeverityListening
	// SeverityError — failure notice; persists until replaced or cleared.
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityListening:
		return "listening"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Notice is the single-slot transient status message, distinct from the
// persistent chat log. At most one notice is live at any time.
type Notice struct {
	Message  string
	Severity Severity
}
