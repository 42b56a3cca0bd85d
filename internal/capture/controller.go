// Package capture owns the microphone lifecycle as a small state
// machine: idle, requesting the device, recording, and processing the
// finished recording into a transcript.
package capture

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/echomind-ai/echomind/internal/audio"
	"github.com/echomind-ai/echomind/internal/domain"
	"github.com/echomind-ai/echomind/internal/logger"
)

// State identifies where the controller is in the capture lifecycle.
type State int

const (
	// StateIdle means no capture is in progress.
	StateIdle State = iota
	// StateRequesting means the microphone is being acquired.
	StateRequesting
	// StateRecording means audio chunks are being collected.
	StateRecording
	// StateProcessing means a finished recording is being transcribed.
	StateProcessing
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// TranscriptFunc receives the finished transcript of a recording.
type TranscriptFunc func(text string)

// Option configures the Controller.
type Option func(*Controller)

// WithSampleRate sets the rate stamped on the uploaded WAV container.
func WithSampleRate(hz int) Option {
	return func(c *Controller) { c.sampleRate = hz }
}

// WithTranscribeTimeout bounds the transcription call.
func WithTranscribeTimeout(d time.Duration) Option {
	return func(c *Controller) { c.transcribeTimeout = d }
}

// Controller drives one microphone through record/stop cycles. A single
// Toggle entry point serves both halves of the cycle; calls that land
// mid-acquisition or mid-processing are ignored rather than queued.
type Controller struct {
	recorder     domain.Recorder
	transcriber  domain.Transcriber
	announcer    domain.Announcer
	onTranscript TranscriptFunc
	log          *logger.Logger

	sampleRate        int
	transcribeTimeout time.Duration

	mu      sync.Mutex
	state   State
	session *session
}

// session is one live recording: the open stream plus everything
// collected from it so far.
type session struct {
	stream domain.AudioStream
	buf    *audio.ChunkBuffer
	done   chan struct{} // closed when the drain loop exits
}

// New creates a capture controller in the idle state.
func New(recorder domain.Recorder, transcriber domain.Transcriber, announcer domain.Announcer,
	onTranscript TranscriptFunc, log *logger.Logger, opts ...Option) *Controller {
	c := &Controller{
		recorder:          recorder,
		transcriber:       transcriber,
		announcer:         announcer,
		onTranscript:      onTranscript,
		log:               log,
		sampleRate:        audio.CaptureSampleRate,
		transcribeTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the controller's current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Recording reports whether a capture cycle is in progress, in any of
// its non-idle phases.
func (c *Controller) Recording() bool {
	return c.State() != StateIdle
}

// Toggle starts a recording when idle and stops it when recording.
// During acquisition or processing it does nothing.
func (c *Controller) Toggle() {
	c.mu.Lock()
	switch c.state {
	case StateIdle:
		c.state = StateRequesting
		c.mu.Unlock()
		c.log.Debug("capture: acquiring microphone")
		go c.begin()
	case StateRecording:
		s := c.session
		c.state = StateProcessing
		c.mu.Unlock()
		c.log.Debug("capture: stopping recording")
		go c.finish(s)
	default:
		state := c.state
		c.mu.Unlock()
		c.log.Debug("capture: toggle ignored while %s", state)
	}
}

// begin acquires the microphone and, on success, starts collecting.
func (c *Controller) begin() {
	stream, err := c.recorder.Open(context.Background())
	if err != nil {
		c.log.Error("capture: microphone acquisition failed: %v", err)
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
		c.announcer.Announce(micErrorMessage(err), domain.SeverityError)
		return
	}

	s := &session{
		stream: stream,
		buf:    audio.NewChunkBuffer(),
		done:   make(chan struct{}),
	}

	c.mu.Lock()
	c.state = StateRecording
	c.session = s
	c.mu.Unlock()

	c.announcer.Announce("Listening...", domain.SeverityListening)
	go c.drain(s)
}

// drain collects chunks until the stream closes. A device fault while
// still recording aborts the session; a fault that arrives after stop
// has already taken over is irrelevant and draining continues so no
// buffered chunk is lost.
func (c *Controller) drain(s *session) {
	defer close(s.done)
	for {
		select {
		case chunk, ok := <-s.stream.Chunks():
			if !ok {
				return
			}
			s.buf.Append(chunk)
		case err := <-s.stream.Fault():
			if c.abort(s, err) {
				return
			}
		}
	}
}

// abort tears down a faulted session. Returns false when the fault lost
// the race against a normal stop, in which case the caller keeps
// draining.
func (c *Controller) abort(s *session, err error) bool {
	c.mu.Lock()
	if c.session != s || c.state != StateRecording {
		c.mu.Unlock()
		return false
	}
	c.state = StateIdle
	c.session = nil
	c.mu.Unlock()

	c.log.Error("capture: recording aborted: %v", err)
	s.stream.Close()
	c.announcer.Announce(micErrorMessage(err), domain.SeverityError)
	return true
}

// finish closes the stream, waits for the drain loop to hand over every
// remaining chunk, and turns the recording into a transcript.
func (c *Controller) finish(s *session) {
	c.announcer.Clear()
	s.stream.Close()
	<-s.done

	defer func() {
		c.mu.Lock()
		if c.session == s {
			c.session = nil
		}
		c.state = StateIdle
		c.mu.Unlock()
	}()

	pcm := s.buf.Concat()
	if len(pcm) == 0 {
		c.log.Info("capture: recording produced no audio")
		c.announcer.Announce(domain.ErrNoAudio.Error(), domain.SeverityInfo)
		return
	}

	c.log.Debug("capture: transcribing %d bytes (%d chunks)", len(pcm), s.buf.Count())
	wav := audio.EncodeWAV(pcm, c.sampleRate)

	ctx, cancel := context.WithTimeout(context.Background(), c.transcribeTimeout)
	defer cancel()

	text, err := c.transcriber.Transcribe(ctx, wav)
	if err != nil {
		c.log.Error("capture: transcription failed: %v", err)
		c.announcer.Announce("transcription failed: "+err.Error(), domain.SeverityError)
		return
	}
	if strings.TrimSpace(text) == "" {
		c.log.Info("capture: transcript was empty")
		c.announcer.Announce("no speech detected", domain.SeverityInfo)
		return
	}

	c.log.Info("capture: transcript ready (%d chars)", len(text))
	c.onTranscript(text)
}

// micErrorMessage renders a microphone failure as a user-facing notice,
// specific to its cause where the cause is known.
func micErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrMicPermission):
		return "microphone access denied"
	case errors.Is(err, domain.ErrMicUnavailable):
		return "no microphone available"
	case errors.Is(err, domain.ErrMicFault):
		return "microphone stopped unexpectedly"
	default:
		return "microphone error: " + err.Error()
	}
}
