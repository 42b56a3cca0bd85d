// EchoMind — a terminal voice and text chat client.
//
// Usage:
//
//	echomind [-verbose] [-quiet] [-no-audio]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"

	"github.com/echomind-ai/echomind/internal/app"
	"github.com/echomind-ai/echomind/internal/audio"
	"github.com/echomind-ai/echomind/internal/backend"
	"github.com/echomind-ai/echomind/internal/capture"
	"github.com/echomind-ai/echomind/internal/config"
	"github.com/echomind-ai/echomind/internal/dispatch"
	"github.com/echomind-ai/echomind/internal/display"
	"github.com/echomind-ai/echomind/internal/domain"
	"github.com/echomind-ai/echomind/internal/history"
	"github.com/echomind-ai/echomind/internal/logger"
	"github.com/echomind-ai/echomind/internal/status"
)

func main() {
	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	logFile := flag.String("log-file", ".echomind-logs/echomind.log", "file to write logs to (use \"stderr\" to log to console)")
	noAudio := flag.Bool("no-audio", false, "disable speaker playback of responses")
	serverURL := flag.String("server", "", "backend base URL (overrides ECHOMIND_SERVER_URL)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}

	// Configure logger.
	logLevel := logger.LevelNormal
	if *verbose {
		logLevel = logger.LevelVerbose
	}
	if *quiet {
		logLevel = logger.LevelOff
	}

	// Direct logs to a file by default so Bubble Tea owns the terminal.
	var logOut io.Writer = os.Stderr
	if *logFile != "" && *logFile != "stderr" {
		dir := filepath.Dir(*logFile)
		if dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", *logFile, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}

	// Redirect Go's default log package (used by third-party audio libs)
	// to the same output so it doesn't garble the display.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(logLevel, logOut)
	log.Info("echomind starting (server=%s)", cfg.ServerURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Wire dependencies.
	entries := history.NewLog(log)
	ui := display.NewUI(entries)
	entries.OnAppend(func(domain.Entry) { ui.Refresh() })

	announcer := status.New(ui.SetNotice, log, status.WithTTL(cfg.NoticeTTL()))

	reasoner := backend.NewReasoningClient(cfg.ReasoningURL(), log,
		backend.WithReasoningTimeout(cfg.RequestTimeout()))
	transcriber := backend.NewTranscriptionClient(cfg.TranscribeURL(), log,
		backend.WithTranscriptionTimeout(cfg.RequestTimeout()))

	// Speaker playback is best-effort: without a usable output device
	// the client still runs as a text-plus-mic chat.
	var player domain.Player
	if !*noAudio {
		p, err := audio.NewPlayer(log)
		if err != nil {
			log.Error("audio playback disabled: %v", err)
		} else {
			player = p
		}
	} else {
		log.Info("audio playback disabled by flag")
	}

	dispatcher := dispatch.New(reasoner, player, entries, ui, announcer, log,
		dispatch.WithTimeout(cfg.RequestTimeout()))

	mic := audio.NewMic(log,
		audio.WithSampleRate(cfg.SampleRate),
		audio.WithChunkMillis(cfg.ChunkMillis))

	// The controller and arbiter reference each other; the sink closure
	// breaks the construction cycle and only fires once both exist.
	var arbiter *app.App
	controller := capture.New(mic, transcriber, announcer,
		func(text string) { arbiter.TranscriptSink()(text) }, log,
		capture.WithSampleRate(cfg.SampleRate),
		capture.WithTranscribeTimeout(cfg.RequestTimeout()))
	arbiter = app.New(ui, controller, dispatcher, log,
		app.WithAutoSubmitDelay(cfg.AutoSubmitDelay()))

	fmt.Println(display.RenderBanner())

	// Run the arbiter in a background goroutine.
	go func() {
		ui.WaitReady()
		if err := arbiter.Run(ctx); err != nil && err != context.Canceled {
			log.Error("app: %v", err)
		}
		ui.Quit()
	}()

	// Bubble Tea owns the terminal — blocks until quit.
	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}
	cancel()
	log.Info("echomind stopped")
}
