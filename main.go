// ABOUTME: Entry point for the soundboard
// ABOUTME: Loads configuration, opens one player per file and runs the TUI or headless playback
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Soundboard/soundboard-go/internal/config"
	"github.com/Soundboard/soundboard-go/internal/ui"
	"github.com/Soundboard/soundboard-go/internal/version"
	"github.com/Soundboard/soundboard-go/pkg/audio/output"
	"github.com/Soundboard/soundboard-go/pkg/soundboard"
	"github.com/spf13/pflag"
)

func main() {
	fs := pflag.NewFlagSet("soundboard", pflag.ExitOnError)
	config.RegisterFlags(fs)
	showVersion := fs.Bool("version", false, "Print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] FILE...\n\nPlays .mp3 and .wav files, one player per file.\n\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	useTUI := !cfg.UI.Disabled

	// Set up logging
	f, err := os.OpenFile(cfg.Log.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}
	log.Printf("Starting %s", version.String())

	files := fs.Args()
	if !useTUI && len(files) == 0 {
		fs.Usage()
		os.Exit(2)
	}

	mixer, err := newMixer(cfg)
	if err != nil {
		log.Fatalf("Failed to start mixer: %v", err)
	}
	defer func() {
		if err := mixer.Close(); err != nil {
			log.Printf("Error closing mixer: %v", err)
		}
	}()

	// headless mode has no play key
	autoplay := cfg.Playback.Autoplay || !useTUI
	for _, file := range files {
		openFile(mixer, file, cfg.Playback, autoplay)
	}

	if useTUI {
		if err := ui.Run(ui.NewMixerController(mixer), cfg.UI.Refresh()); err != nil {
			log.Printf("TUI error: %v", err)
		}
		log.Printf("Soundboard stopped")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	runHeadless(ctx, mixer, cfg.UI.Refresh())
	log.Printf("Soundboard stopped")
}

// newMixer opens the configured backend and selects the configured device
func newMixer(cfg *config.Config) (*soundboard.Mixer, error) {
	backend, err := output.New(cfg.Output.Backend)
	if err != nil {
		return nil, err
	}
	mode, err := cfg.Output.RoutingMode()
	if err != nil {
		backend.Close()
		return nil, err
	}

	mixer, err := soundboard.NewMixer(soundboard.Config{
		Backend:         backend,
		FramesPerBuffer: cfg.Output.FramesPerBuffer,
		Latency:         cfg.Output.Latency(),
		Mode:            mode,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}

	if cfg.Output.Device != "" {
		d, err := mixer.DeviceByName(cfg.Output.Device)
		if err != nil {
			mixer.Close()
			return nil, err
		}
		if err := mixer.SetDevice(d.Index); err != nil {
			mixer.Close()
			return nil, err
		}
	}
	return mixer, nil
}

func openFile(mixer *soundboard.Mixer, file string, pb config.PlaybackConfig, autoplay bool) {
	p, err := mixer.Player(mixer.NewPlayer())
	if err != nil {
		log.Printf("Error creating player: %v", err)
		return
	}
	p.SetGain(float32(pb.Gain))
	p.SetRepeat(pb.Repeat)

	if err := p.Open(file); err != nil {
		log.Printf("Error opening %s: %v", file, err)
		return
	}
	if autoplay {
		if err := p.Play(); err != nil {
			log.Printf("Error playing %s: %v", file, err)
		}
	}
}

// runHeadless logs player status until ctx ends or nothing is playing
func runHeadless(ctx context.Context, mixer *soundboard.Mixer, refresh time.Duration) {
	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	// Status lines are slower than the poll
	statusTicker := time.NewTicker(2 * time.Second)
	defer statusTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Shutdown signal received")
			return
		case <-statusTicker.C:
			logStatus(mixer)
		case <-ticker.C:
			if !anyPlaying(mixer) {
				log.Printf("All players finished")
				return
			}
		}
	}
}

func anyPlaying(mixer *soundboard.Mixer) bool {
	for _, id := range mixer.Players() {
		if p, err := mixer.Player(id); err == nil && p.IsPlaying() {
			return true
		}
	}
	return false
}

func logStatus(mixer *soundboard.Mixer) {
	for _, id := range mixer.Players() {
		p, err := mixer.Player(id)
		if err != nil || p.State() == soundboard.StateClosed {
			continue
		}
		stats := p.Stats()
		log.Printf("Player %d: %s %s level %.2f | queued %d underruns %d decode errors %d",
			id, filepath.Base(p.Filename()), p.State(), p.Level(),
			stats.Queued, stats.Underruns, stats.DecodeErrors)
	}
}
