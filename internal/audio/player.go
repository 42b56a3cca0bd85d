package audio

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/echomind-ai/echomind/internal/domain"
	"github.com/echomind-ai/echomind/internal/logger"
)

// Compile-time interface check.
var _ domain.Player = (*Player)(nil)

// Player plays WAV payloads through the system speaker via oto. The
// backend decides the synthesis format, so decoded audio is downmixed
// and resampled to the player's fixed output rate as needed.
type Player struct {
	ctx    *oto.Context
	log    *logger.Logger
	mu     sync.Mutex
	active *oto.Player // currently playing, nil when idle
}

// NewPlayer creates an audio player. Initializes the system audio
// context; returns an error if the audio device is unavailable.
func NewPlayer(log *logger.Logger) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   PlaybackSampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-readyChan

	log.Debug("audio player initialized (rate=%d, channels=%d)", PlaybackSampleRate, ChannelCount)
	return &Player{ctx: ctx, log: log}, nil
}

// Play plays a WAV payload synchronously. Blocks until playback
// finishes or Stop is called.
func (p *Player) Play(wavData []byte) error {
	info, err := DecodeWAV(wavData)
	if err != nil {
		return fmt.Errorf("decoding response audio: %w", err)
	}

	pcm := info.PCM
	switch info.Channels {
	case 1:
	case 2:
		pcm = DownmixStereo(pcm)
	default:
		return fmt.Errorf("unsupported channel count %d", info.Channels)
	}
	if info.SampleRate != PlaybackSampleRate {
		pcm = ResampleS16Mono(pcm, info.SampleRate, PlaybackSampleRate)
	}

	player := p.ctx.NewPlayer(bytes.NewReader(pcm))

	p.mu.Lock()
	p.active = player
	p.mu.Unlock()

	player.Play()
	p.log.Debug("audio player: playing %d bytes of PCM", len(pcm))

	// Wait for playback to complete or be interrupted.
	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}

	p.mu.Lock()
	p.active = nil
	p.mu.Unlock()

	return player.Close()
}

// Stop interrupts the currently playing audio, if any. Safe to call
// concurrently and when nothing is playing.
func (p *Player) Stop() {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()

	if active != nil {
		active.Pause()
		p.log.Debug("audio player: interrupted")
	}
}
