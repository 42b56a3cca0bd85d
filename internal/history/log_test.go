package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/echomind-ai/echomind/internal/domain"
	"github.com/echomind-ai/echomind/internal/logger"
)

func TestAppendPreservesOrder(t *testing.T) {
	log := NewLog(logger.New(logger.LevelOff, nil))

	for i := 0; i < 5; i++ {
		sender := domain.SenderUser
		if i%2 == 1 {
			sender = domain.SenderAssistant
		}
		log.Append(domain.Entry{Sender: sender, Text: fmt.Sprintf("message %d", i), At: time.Now()})
	}

	entries := log.Entries()
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}
	for i, e := range entries {
		want := fmt.Sprintf("message %d", i)
		if e.Text != want {
			t.Fatalf("entry %d: expected %q, got %q", i, want, e.Text)
		}
	}
}

func TestEntriesReturnsSnapshot(t *testing.T) {
	log := NewLog(logger.New(logger.LevelOff, nil))
	log.Append(domain.Entry{Sender: domain.SenderUser, Text: "hello"})

	snap := log.Entries()
	snap[0].Text = "mutated"

	if got := log.Entries()[0].Text; got != "hello" {
		t.Fatalf("snapshot mutation leaked into log: %q", got)
	}
}

func TestOnAppendFires(t *testing.T) {
	log := NewLog(logger.New(logger.LevelOff, nil))

	var seen []string
	log.OnAppend(func(e domain.Entry) { seen = append(seen, e.Text) })

	log.Append(domain.Entry{Sender: domain.SenderUser, Text: "one"})
	log.Append(domain.Entry{Sender: domain.SenderAssistant, Text: "two"})

	if len(seen) != 2 || seen[0] != "one" || seen[1] != "two" {
		t.Fatalf("expected subscriber to see [one two], got %v", seen)
	}
}
