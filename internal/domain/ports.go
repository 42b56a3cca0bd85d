package domain

import "context"

// Recorder acquires the microphone. Implementations can be backed by a
// real capture device or a test double.
type Recorder interface {
	Open(ctx context.Context) (AudioStream, error)
}

// AudioStream is one exclusively-held microphone stream. Exactly one
// stream exists at a time; Close releases the device and must be called
// on every path out of a recording, including error paths.
type AudioStream interface {
	// Chunks delivers captured audio fragments in arrival order. The
	// channel is closed when the stream is closed.
	Chunks() <-chan []byte
	// Fault reports an asynchronous device failure mid-capture.
	Fault() <-chan error
	// Close stops capture and releases the device. Idempotent.
	Close() error
}

// Transcriber converts a recorded audio payload to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Reasoner submits one conversational turn to the reasoning backend.
type Reasoner interface {
	Respond(ctx context.Context, input string) (*TurnResult, error)
}

// Player plays a synthesized audio payload. Blocks until playback
// finishes or fails.
type Player interface {
	Play(audio []byte) error
}

// Announcer renders the single-slot status notice. A new notice
// replaces any live one; informational notices self-expire.
type Announcer interface {
	Announce(message string, severity Severity)
	Clear()
}

// ConversationView is the rendering surface the dispatcher drives for
// transient elements. Chat entries themselves flow through the EntryLog;
// the view derives its scrollback from it.
type ConversationView interface {
	ShowTyping(id string)
	HideTyping(id string)
}

// EntryLog is the durable, append-only record of chat entries. It is
// the session-lifetime source of truth the view renders from.
type EntryLog interface {
	Append(e Entry)
	Entries() []Entry
	Len() int
}
