// Package dispatch turns submitted input into conversation turns: one
// backend round trip per submission, with at most one turn in flight.
package dispatch

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/echomind-ai/echomind/internal/domain"
	"github.com/echomind-ai/echomind/internal/logger"
)

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithTimeout bounds each reasoning call.
func WithTimeout(d time.Duration) Option {
	return func(d2 *Dispatcher) { d2.timeout = d }
}

// Dispatcher runs conversation turns. Submissions that arrive while a
// turn is already in flight are dropped, not queued; the conversation
// advances one exchange at a time.
type Dispatcher struct {
	reasoner  domain.Reasoner
	player    domain.Player // nil disables playback
	entries   domain.EntryLog
	view      domain.ConversationView
	announcer domain.Announcer
	log       *logger.Logger
	timeout   time.Duration

	mu       sync.Mutex
	inFlight bool
}

// New creates a dispatcher. A nil player disables audio playback; turns
// still complete with their text replies.
func New(reasoner domain.Reasoner, player domain.Player, entries domain.EntryLog,
	view domain.ConversationView, announcer domain.Announcer, log *logger.Logger,
	opts ...Option) *Dispatcher {
	d := &Dispatcher{
		reasoner:  reasoner,
		player:    player,
		entries:   entries,
		view:      view,
		announcer: announcer,
		log:       log,
		timeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// InFlight reports whether a turn is currently awaiting its reply.
func (d *Dispatcher) InFlight() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inFlight
}

// Submit starts a turn for the given input. Blank input returns
// ErrEmptyInput; a submission made while another turn is in flight is
// dropped with ErrTurnInFlight, not queued.
func (d *Dispatcher) Submit(input string) error {
	text := strings.TrimSpace(input)
	if text == "" {
		return domain.ErrEmptyInput
	}

	d.mu.Lock()
	if d.inFlight {
		d.mu.Unlock()
		d.log.Debug("dispatch: submission dropped, turn already in flight")
		return domain.ErrTurnInFlight
	}
	d.inFlight = true
	d.mu.Unlock()

	turn := &domain.Turn{
		ID:        uuid.NewString(),
		InputText: text,
		Status:    domain.TurnPending,
		StartedAt: time.Now(),
	}

	// The user's entry, the cleared status slot, and the typing
	// indicator all appear before the network is touched.
	d.entries.Append(domain.Entry{Sender: domain.SenderUser, Text: text, At: turn.StartedAt})
	d.announcer.Clear()
	d.view.ShowTyping(turn.ID)

	d.log.Debug("dispatch: turn %s started (%d chars)", turn.ID, len(text))
	go d.run(turn)
	return nil
}

// run performs the backend round trip for one turn and lands its
// outcome in the conversation.
func (d *Dispatcher) run(turn *domain.Turn) {
	defer func() {
		d.mu.Lock()
		d.inFlight = false
		d.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	result, err := d.reasoner.Respond(ctx, turn.InputText)
	turn.FinishedAt = time.Now()
	d.view.HideTyping(turn.ID)

	if err != nil {
		turn.Status = domain.TurnFailed
		d.log.Error("dispatch: turn %s failed: %v", turn.ID, err)
		d.entries.Append(domain.Entry{
			Sender: domain.SenderAssistant,
			Text:   "error: " + err.Error(),
			At:     turn.FinishedAt,
		})
		d.announcer.Announce("request failed: "+err.Error(), domain.SeverityError)
		return
	}

	turn.Status = domain.TurnSucceeded
	turn.ResponseText = result.Text
	turn.ResponseAudio = result.Audio
	d.log.Debug("dispatch: turn %s succeeded in %s", turn.ID, turn.FinishedAt.Sub(turn.StartedAt))

	d.entries.Append(domain.Entry{
		Sender: domain.SenderAssistant,
		Text:   result.Text,
		At:     turn.FinishedAt,
	})

	if d.player == nil {
		return
	}
	if len(result.Audio) == 0 {
		d.announcer.Announce("text-only reply, no audio returned", domain.SeverityInfo)
		return
	}
	// Playback failure downgrades the turn to text-only; the reply
	// itself already landed.
	if err := d.player.Play(result.Audio); err != nil {
		d.log.Warn("dispatch: playback failed: %v", err)
		d.announcer.Announce("audio playback failed", domain.SeverityInfo)
	}
}
