package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/echomind-ai/echomind/internal/display"
	"github.com/echomind-ai/echomind/internal/logger"
)

// ── Fakes ────────────────────────────────────────────────────────

type fakeUI struct {
	events chan display.Event

	mu        sync.Mutex
	inputs    []string
	clears    int
	recording []bool
}

func newFakeUI() *fakeUI {
	return &fakeUI{events: make(chan display.Event, 16)}
}

func (f *fakeUI) Events() <-chan display.Event { return f.events }

func (f *fakeUI) SetInput(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, text)
}

func (f *fakeUI) ClearInput() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
}

func (f *fakeUI) SetRecording(active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recording = append(f.recording, active)
}

func (f *fakeUI) lastInput() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inputs) == 0 {
		return "", false
	}
	return f.inputs[len(f.inputs)-1], true
}

func (f *fakeUI) clearCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clears
}

type fakeCapturer struct {
	mu        sync.Mutex
	recording bool
	toggles   int
}

func (f *fakeCapturer) Toggle() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggles++
	f.recording = !f.recording
}

func (f *fakeCapturer) Recording() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recording
}

func (f *fakeCapturer) toggleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.toggles
}

type fakeSubmitter struct {
	mu        sync.Mutex
	submitted []string
}

func (f *fakeSubmitter) Submit(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, text)
	return nil
}

func (f *fakeSubmitter) InFlight() bool { return false }

func (f *fakeSubmitter) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.submitted...)
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

func startApp(t *testing.T, ui *fakeUI, cap *fakeCapturer, sub *fakeSubmitter,
	opts ...Option) *App {
	t.Helper()
	a := New(ui, cap, sub, logger.New(logger.LevelOff, nil), opts...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return a
}

// ── Tests ────────────────────────────────────────────────────────

func TestTypedSubmission(t *testing.T) {
	ui := newFakeUI()
	sub := &fakeSubmitter{}
	startApp(t, ui, &fakeCapturer{}, sub)

	ui.events <- display.SubmitEvent{Text: "hello"}

	waitFor(t, "submission", func() bool { return len(sub.all()) == 1 })
	if got := sub.all()[0]; got != "hello" {
		t.Fatalf("expected 'hello', got %q", got)
	}
	waitFor(t, "input cleared", func() bool { return ui.clearCount() == 1 })
}

func TestTranscriptAutoSubmitsSameText(t *testing.T) {
	ui := newFakeUI()
	sub := &fakeSubmitter{}
	a := startApp(t, ui, &fakeCapturer{}, sub, WithAutoSubmitDelay(20*time.Millisecond))

	a.TranscriptSink()("turn on the lights")

	waitFor(t, "input populated", func() bool {
		text, ok := ui.lastInput()
		return ok && text == "turn on the lights"
	})
	waitFor(t, "auto-submission", func() bool { return len(sub.all()) == 1 })

	if got := sub.all()[0]; got != "turn on the lights" {
		t.Fatalf("auto-submitted text diverged from transcript: %q", got)
	}
}

func TestManualSubmitCancelsAutoSubmit(t *testing.T) {
	ui := newFakeUI()
	sub := &fakeSubmitter{}
	a := startApp(t, ui, &fakeCapturer{}, sub, WithAutoSubmitDelay(50*time.Millisecond))

	a.TranscriptSink()("original transcript")
	waitFor(t, "input populated", func() bool {
		_, ok := ui.lastInput()
		return ok
	})

	// The user edits and submits before the review window elapses.
	ui.events <- display.SubmitEvent{Text: "edited transcript"}

	waitFor(t, "manual submission", func() bool { return len(sub.all()) == 1 })
	time.Sleep(100 * time.Millisecond)

	if got := sub.all(); len(got) != 1 || got[0] != "edited transcript" {
		t.Fatalf("expected only the edited submission, got %v", got)
	}
}

func TestSubmissionBlockedWhileRecording(t *testing.T) {
	ui := newFakeUI()
	cap := &fakeCapturer{recording: true}
	sub := &fakeSubmitter{}
	startApp(t, ui, cap, sub)

	ui.events <- display.SubmitEvent{Text: "should not go through"}

	time.Sleep(50 * time.Millisecond)
	if got := sub.all(); len(got) != 0 {
		t.Fatalf("submission must be blocked while recording, got %v", got)
	}
}

func TestToggleForwarded(t *testing.T) {
	ui := newFakeUI()
	cap := &fakeCapturer{}
	startApp(t, ui, cap, &fakeSubmitter{})

	ui.events <- display.ToggleRecordEvent{}

	waitFor(t, "toggle", func() bool { return cap.toggleCount() == 1 })
}

func TestQuitEventStopsRun(t *testing.T) {
	ui := newFakeUI()
	a := New(ui, &fakeCapturer{}, &fakeSubmitter{}, logger.New(logger.LevelOff, nil))

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()

	ui.events <- display.QuitEvent{}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean exit, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on quit event")
	}
}
