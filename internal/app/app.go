// Package app runs the arbiter loop that serializes every source of
// user intent. Typed submissions, record toggles, and finished
// transcripts all funnel through one goroutine, so voice and keyboard
// can never race each other into the dispatcher.
package app

import (
	"context"
	"time"

	"github.com/echomind-ai/echomind/internal/display"
	"github.com/echomind-ai/echomind/internal/logger"
)

// UserInterface is the slice of the terminal UI the arbiter drives.
type UserInterface interface {
	Events() <-chan display.Event
	SetInput(text string)
	ClearInput()
	SetRecording(active bool)
}

// Capturer drives the microphone lifecycle.
type Capturer interface {
	Toggle()
	Recording() bool
}

// Submitter starts conversation turns.
type Submitter interface {
	Submit(text string) error
	InFlight() bool
}

// Option configures the App.
type Option func(*App)

// WithAutoSubmitDelay sets the pause between a transcript landing in
// the input box and its automatic submission.
func WithAutoSubmitDelay(d time.Duration) Option {
	return func(a *App) { a.autoSubmitDelay = d }
}

// App is the arbiter. One Run loop owns all intent handling.
type App struct {
	ui        UserInterface
	capturer  Capturer
	submitter Submitter
	log       *logger.Logger

	autoSubmitDelay time.Duration
	transcripts     chan string
}

// New creates the arbiter.
func New(ui UserInterface, capturer Capturer, submitter Submitter, log *logger.Logger,
	opts ...Option) *App {
	a := &App{
		ui:              ui,
		capturer:        capturer,
		submitter:       submitter,
		log:             log,
		autoSubmitDelay: 500 * time.Millisecond,
		transcripts:     make(chan string, 4),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// TranscriptSink returns the callback the capture controller invokes
// when a transcript is ready. Safe to call from any goroutine.
func (a *App) TranscriptSink() func(text string) {
	return func(text string) { a.transcripts <- text }
}

// Run processes intents until the context is cancelled or the user
// quits. Blocking; call from its own goroutine next to the UI loop.
func (a *App) Run(ctx context.Context) error {
	// pending holds a transcript waiting out its review window; autoCh
	// is nil (blocking forever) whenever nothing is pending.
	var pending string
	var autoCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-a.ui.Events():
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case display.SubmitEvent:
				pending, autoCh = "", nil
				a.submit(ev.Text)
			case display.ToggleRecordEvent:
				pending, autoCh = "", nil
				a.toggle()
			case display.QuitEvent:
				a.log.Info("app: quit requested")
				return nil
			}

		case text := <-a.transcripts:
			a.log.Debug("app: transcript ready, arming auto-submit")
			a.ui.SetRecording(false)
			a.ui.SetInput(text)
			pending = text
			autoCh = time.After(a.autoSubmitDelay)

		case <-autoCh:
			text := pending
			pending, autoCh = "", nil
			a.submit(text)
		}
	}
}

// submit routes one piece of input into the dispatcher, unless a
// recording is in progress.
func (a *App) submit(text string) {
	if a.capturer.Recording() {
		a.log.Debug("app: submission blocked while capturing")
		return
	}
	if err := a.submitter.Submit(text); err != nil {
		a.log.Debug("app: submission not accepted: %v", err)
		return
	}
	a.ui.ClearInput()
}

// toggle forwards a record press and refreshes the UI hint.
func (a *App) toggle() {
	a.capturer.Toggle()
	a.ui.SetRecording(a.capturer.Recording())
}
