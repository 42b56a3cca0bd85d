package audio

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/echomind-ai/echomind/internal/domain"
	"github.com/echomind-ai/echomind/internal/logger"
)

// Compile-time interface check.
var _ domain.Recorder = (*Mic)(nil)

// MicOption configures the Mic.
type MicOption func(*Mic)

// WithSampleRate overrides the capture sample rate.
func WithSampleRate(hz int) MicOption {
	return func(m *Mic) { m.sampleRate = uint32(hz) }
}

// WithChunkMillis sets the approximate duration of each delivered chunk.
func WithChunkMillis(ms int) MicOption {
	return func(m *Mic) { m.chunkMillis = uint32(ms) }
}

// Mic acquires the system microphone through miniaudio. Each Open call
// initializes a fresh capture context and device; the returned stream
// owns both exclusively and releases them on Close.
type Mic struct {
	log         *logger.Logger
	sampleRate  uint32
	chunkMillis uint32
}

// NewMic creates a microphone recorder. No device is touched until Open.
func NewMic(log *logger.Logger, opts ...MicOption) *Mic {
	m := &Mic{
		log:         log,
		sampleRate:  CaptureSampleRate,
		chunkMillis: 100,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open acquires the microphone and starts capturing PCM16 mono chunks.
func (m *Mic) Open(ctx context.Context) (domain.AudioStream, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		m.log.Debug("miniaudio: %s", strings.TrimSpace(message))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMicUnavailable, err)
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = ChannelCount
	cfg.SampleRate = m.sampleRate
	cfg.PeriodSizeInMilliseconds = m.chunkMillis
	cfg.Alsa.NoMMap = 1

	s := &micStream{
		mctx: mctx,
		log:  m.log,
		// Capacity covers well over a minute of audio at the default
		// chunk size; the capture controller drains continuously.
		chunks: make(chan []byte, 1024),
		fault:  make(chan error, 1),
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			s.push(input)
		},
		Stop: func() {
			s.reportStopped()
		},
	}

	device, err := malgo.InitDevice(mctx.Context, cfg, callbacks)
	if err != nil {
		mctx.Uninit()
		mctx.Free()
		return nil, classifyMicError(err)
	}
	s.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		mctx.Uninit()
		mctx.Free()
		return nil, classifyMicError(err)
	}

	m.log.Debug("mic: capture started (rate=%d, chunk=%dms)", m.sampleRate, m.chunkMillis)
	return s, nil
}

// micStream is one live microphone capture. It exclusively owns the
// miniaudio context and device until Close.
type micStream struct {
	mctx   *malgo.AllocatedContext
	device *malgo.Device
	log    *logger.Logger

	mu     sync.Mutex
	closed bool
	chunks chan []byte
	fault  chan error
}

// Chunks delivers captured fragments in arrival order.
func (s *micStream) Chunks() <-chan []byte { return s.chunks }

// Fault reports an asynchronous device failure mid-capture.
func (s *micStream) Fault() <-chan error { return s.fault }

// push copies one callback buffer into the chunk channel. Called from
// the miniaudio capture thread, so it must never block.
func (s *micStream) push(input []byte) {
	if len(input) == 0 {
		return
	}
	chunk := make([]byte, len(input))
	copy(chunk, input)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.chunks <- chunk:
	default:
		// Only reachable if the consumer stalls for minutes.
		s.log.Warn("mic: chunk channel full, dropping %d bytes", len(chunk))
	}
}

// reportStopped surfaces an unexpected device stop as a fault. A stop
// triggered by our own Close is not a fault.
func (s *micStream) reportStopped() {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	s.log.Error("mic: device stopped unexpectedly")
	select {
	case s.fault <- domain.ErrMicFault:
	default:
	}
}

// Close stops capture and releases the device and context. Idempotent.
func (s *micStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	// Uninit blocks until the capture callback has drained, so closing
	// the channel afterwards cannot race a push.
	s.device.Uninit()
	if err := s.mctx.Uninit(); err != nil {
		s.log.Warn("mic: context uninit: %v", err)
	}
	s.mctx.Free()

	close(s.chunks)
	s.log.Debug("mic: stream released")
	return nil
}

// classifyMicError maps a device init/start failure onto the domain's
// error taxonomy so the UI can show a cause-specific message.
// Miniaudio reports causes as message strings only.
func classifyMicError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "access denied") || strings.Contains(msg, "permission"):
		return fmt.Errorf("%w: %v", domain.ErrMicPermission, err)
	case strings.Contains(msg, "no device") || strings.Contains(msg, "device type") ||
		strings.Contains(msg, "no backend"):
		return fmt.Errorf("%w: %v", domain.ErrMicUnavailable, err)
	default:
		return fmt.Errorf("opening microphone: %w", err)
	}
}
