package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrMicPermission  = errors.New("microphone permission denied")
	ErrMicUnavailable = errors.New("no microphone device found")
	ErrMicFault       = errors.New("microphone device fault")
	ErrTurnInFlight   = errors.New("a turn is already in flight")
	ErrEmptyInput     = errors.New("empty input")
	ErrNoAudio        = errors.New("no audio captured")
)
