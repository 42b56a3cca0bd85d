package capture

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/echomind-ai/echomind/internal/audio"
	"github.com/echomind-ai/echomind/internal/domain"
	"github.com/echomind-ai/echomind/internal/logger"
)

// ── Fakes ────────────────────────────────────────────────────────

type fakeStream struct {
	chunks chan []byte
	fault  chan error

	mu     sync.Mutex
	closed bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		chunks: make(chan []byte, 64),
		fault:  make(chan error, 1),
	}
}

func (s *fakeStream) Chunks() <-chan []byte { return s.chunks }
func (s *fakeStream) Fault() <-chan error   { return s.fault }

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.chunks)
	}
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeRecorder struct {
	stream  *fakeStream
	err     error
	barrier chan struct{} // when non-nil, Open blocks until it is closed

	mu    sync.Mutex
	opens int
}

func (r *fakeRecorder) Open(ctx context.Context) (domain.AudioStream, error) {
	r.mu.Lock()
	r.opens++
	r.mu.Unlock()
	if r.barrier != nil {
		<-r.barrier
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.stream, nil
}

func (r *fakeRecorder) openCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opens
}

type fakeTranscriber struct {
	text string
	err  error

	mu    sync.Mutex
	got   [][]byte
	calls int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	f.mu.Lock()
	f.calls++
	f.got = append(f.got, audio)
	f.mu.Unlock()
	return f.text, f.err
}

func (f *fakeTranscriber) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeTranscriber) lastUpload() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.got) == 0 {
		return nil
	}
	return f.got[len(f.got)-1]
}

type fakeAnnouncer struct {
	mu      sync.Mutex
	notices []domain.Notice
	clears  int
}

func (f *fakeAnnouncer) Announce(message string, severity domain.Severity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, domain.Notice{Message: message, Severity: severity})
}

func (f *fakeAnnouncer) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
}

func (f *fakeAnnouncer) last() (domain.Notice, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.notices) == 0 {
		return domain.Notice{}, false
	}
	return f.notices[len(f.notices)-1], true
}

// ── Helpers ──────────────────────────────────────────────────────

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newTestController(rec *fakeRecorder, tr *fakeTranscriber, ann *fakeAnnouncer,
	transcripts chan string) *Controller {
	return New(rec, tr, ann,
		func(text string) { transcripts <- text },
		logger.New(logger.LevelOff, nil))
}

// ── Tests ────────────────────────────────────────────────────────

func TestFullRecordingCycle(t *testing.T) {
	stream := newFakeStream()
	rec := &fakeRecorder{stream: stream}
	tr := &fakeTranscriber{text: "hello world"}
	ann := &fakeAnnouncer{}
	transcripts := make(chan string, 1)
	c := newTestController(rec, tr, ann, transcripts)

	c.Toggle()
	waitFor(t, "recording state", func() bool { return c.State() == StateRecording })

	n, ok := ann.last()
	if !ok || n.Severity != domain.SeverityListening {
		t.Fatalf("expected listening notice, got %+v", n)
	}

	chunks := [][]byte{{1, 2}, {3, 4}, {5, 6}}
	for _, chunk := range chunks {
		stream.chunks <- chunk
	}

	c.Toggle()

	select {
	case text := <-transcripts:
		if text != "hello world" {
			t.Fatalf("expected transcript 'hello world', got %q", text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("transcript never delivered")
	}

	waitFor(t, "idle state", func() bool { return c.State() == StateIdle })

	if !stream.isClosed() {
		t.Error("stream not released after stop")
	}

	// The upload must contain every chunk, in order, exactly once.
	info, err := audio.DecodeWAV(tr.lastUpload())
	if err != nil {
		t.Fatalf("uploaded payload is not valid WAV: %v", err)
	}
	want := []byte{1, 2, 3, 4, 5, 6}
	if !bytes.Equal(info.PCM, want) {
		t.Fatalf("expected PCM %v, got %v", want, info.PCM)
	}
}

func TestEmptyRecordingSkipsTranscription(t *testing.T) {
	stream := newFakeStream()
	rec := &fakeRecorder{stream: stream}
	tr := &fakeTranscriber{text: "should never appear"}
	ann := &fakeAnnouncer{}
	transcripts := make(chan string, 1)
	c := newTestController(rec, tr, ann, transcripts)

	c.Toggle()
	waitFor(t, "recording state", func() bool { return c.State() == StateRecording })
	c.Toggle()
	waitFor(t, "idle state", func() bool { return c.State() == StateIdle })

	if tr.callCount() != 0 {
		t.Error("transcriber called for an empty recording")
	}
	n, ok := ann.last()
	if !ok || n.Severity != domain.SeverityInfo || n.Message != "no audio captured" {
		t.Fatalf("expected 'no audio captured' info notice, got %+v", n)
	}
	select {
	case text := <-transcripts:
		t.Fatalf("unexpected transcript %q", text)
	default:
	}
}

func TestMicPermissionDenied(t *testing.T) {
	rec := &fakeRecorder{err: domain.ErrMicPermission}
	ann := &fakeAnnouncer{}
	c := newTestController(rec, &fakeTranscriber{}, ann, make(chan string, 1))

	c.Toggle()
	waitFor(t, "error notice", func() bool {
		n, ok := ann.last()
		return ok && n.Severity == domain.SeverityError
	})

	if c.State() != StateIdle {
		t.Fatalf("expected idle after denied acquisition, got %s", c.State())
	}
	n, _ := ann.last()
	if n.Message != "microphone access denied" {
		t.Errorf("expected cause-specific message, got %q", n.Message)
	}
}

func TestToggleIgnoredWhileRequesting(t *testing.T) {
	barrier := make(chan struct{})
	stream := newFakeStream()
	rec := &fakeRecorder{stream: stream, barrier: barrier}
	c := newTestController(rec, &fakeTranscriber{}, &fakeAnnouncer{}, make(chan string, 1))

	c.Toggle()
	waitFor(t, "requesting state", func() bool { return c.State() == StateRequesting })

	// Re-entrant presses while acquiring must neither stop nor re-open.
	c.Toggle()
	c.Toggle()

	close(barrier)
	waitFor(t, "recording state", func() bool { return c.State() == StateRecording })

	if got := rec.openCount(); got != 1 {
		t.Fatalf("expected exactly one Open call, got %d", got)
	}

	c.Toggle()
	waitFor(t, "idle state", func() bool { return c.State() == StateIdle })
}

func TestDeviceFaultMidRecording(t *testing.T) {
	stream := newFakeStream()
	rec := &fakeRecorder{stream: stream}
	tr := &fakeTranscriber{}
	ann := &fakeAnnouncer{}
	c := newTestController(rec, tr, ann, make(chan string, 1))

	c.Toggle()
	waitFor(t, "recording state", func() bool { return c.State() == StateRecording })

	stream.chunks <- []byte{9, 9}
	stream.fault <- domain.ErrMicFault

	waitFor(t, "idle state", func() bool { return c.State() == StateIdle })

	if !stream.isClosed() {
		t.Error("stream not released after fault")
	}
	if tr.callCount() != 0 {
		t.Error("faulted recording must not be transcribed")
	}
	n, _ := ann.last()
	if n.Severity != domain.SeverityError {
		t.Fatalf("expected error notice after fault, got %+v", n)
	}
}

func TestEmptyTranscript(t *testing.T) {
	stream := newFakeStream()
	rec := &fakeRecorder{stream: stream}
	tr := &fakeTranscriber{text: "   \n  "}
	ann := &fakeAnnouncer{}
	transcripts := make(chan string, 1)
	c := newTestController(rec, tr, ann, transcripts)

	c.Toggle()
	waitFor(t, "recording state", func() bool { return c.State() == StateRecording })
	stream.chunks <- []byte{1, 2}
	c.Toggle()
	waitFor(t, "idle state", func() bool { return c.State() == StateIdle })

	n, _ := ann.last()
	if n.Severity != domain.SeverityInfo || n.Message != "no speech detected" {
		t.Fatalf("expected 'no speech detected' info notice, got %+v", n)
	}
	select {
	case text := <-transcripts:
		t.Fatalf("unexpected transcript %q", text)
	default:
	}
}

func TestTranscriptionFailure(t *testing.T) {
	stream := newFakeStream()
	rec := &fakeRecorder{stream: stream}
	tr := &fakeTranscriber{err: errors.New("backend 503")}
	ann := &fakeAnnouncer{}
	c := newTestController(rec, tr, ann, make(chan string, 1))

	c.Toggle()
	waitFor(t, "recording state", func() bool { return c.State() == StateRecording })
	stream.chunks <- []byte{1, 2}
	c.Toggle()
	waitFor(t, "idle state", func() bool { return c.State() == StateIdle })

	n, _ := ann.last()
	if n.Severity != domain.SeverityError {
		t.Fatalf("expected error notice, got %+v", n)
	}
}
