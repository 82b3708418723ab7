// ABOUTME: Offline decode check for soundboard audio files
// ABOUTME: Decodes files without an audio device and reports parameters, length, peak and errors
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/Soundboard/soundboard-go/pkg/audio"
	"github.com/Soundboard/soundboard-go/pkg/audio/decode"
	"github.com/Soundboard/soundboard-go/pkg/audio/output"
	"github.com/Soundboard/soundboard-go/pkg/soundboard"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

var (
	chunk    = pflag.Int("chunk", 512, "Frames per pop")
	doRender = pflag.Bool("render", false, "Render through a player on the manual backend instead of popping the decoder directly")
	gain     = pflag.Float64("gain", soundboard.DefaultGain, "Player gain when rendering")
	mode     = pflag.String("mode", "stereo", "Channel routing when rendering (stereo, left, right)")
	jobs     = pflag.Int("jobs", runtime.NumCPU(), "Files checked concurrently")
)

type report struct {
	path         string
	params       audio.Parameters
	frames       int64
	peak         float32
	decodeErrors int64
	underruns    int64
	err          error
}

func (r report) duration() time.Duration {
	if r.params.SampleRateHz <= 0 {
		return 0
	}
	return time.Duration(r.frames) * time.Second / time.Duration(r.params.SampleRateHz)
}

func main() {
	pflag.Parse()
	log.SetFlags(0)

	files := pflag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: decode-check [flags] FILE...")
		pflag.PrintDefaults()
		os.Exit(2)
	}
	routing, err := soundboard.ParseMode(*mode)
	if err != nil {
		log.Fatalf("Invalid mode: %v", err)
	}

	reports := make([]report, len(files))
	var g errgroup.Group
	g.SetLimit(max(*jobs, 1))
	for i, path := range files {
		g.Go(func() error {
			if *doRender {
				reports[i] = render(path, float32(*gain), routing, *chunk)
			} else {
				reports[i] = check(path, *chunk)
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := false
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tFORMAT\tFRAMES\tDURATION\tPEAK\tDECODE ERRORS\tUNDERRUNS")
	for _, r := range reports {
		if r.err != nil {
			failed = true
			fmt.Fprintf(w, "%s\terror: %v\t\t\t\t\t\n", r.path, r.err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%.3f\t%d\t%d\n",
			r.path, r.params, r.frames, r.duration().Round(time.Millisecond), r.peak, r.decodeErrors, r.underruns)
	}
	w.Flush()

	if failed {
		os.Exit(1)
	}
}

// check pops every frame straight from the decoder
func check(path string, n int) report {
	r := report{path: path}

	dec, err := decode.NewForPath(path)
	if err != nil {
		r.err = err
		return r
	}
	defer dec.Close()

	if err := dec.Open(path); err != nil {
		r.err = err
		return r
	}
	if err := dec.Start(); err != nil {
		r.err = err
		return r
	}
	r.params = dec.Parameters()

	for {
		frames, err := dec.PopFrames(context.Background(), n)
		if err != nil {
			r.err = err
			return r
		}
		if len(frames) == 0 {
			break
		}
		r.frames += int64(len(frames))
		for _, f := range frames {
			r.peak = max(r.peak, abs(f.Left), abs(f.Right))
		}
	}

	r.decodeErrors = dec.Stats().DecodeErrors
	return r
}

// render plays the file through a soundboard player whose output stream is
// pumped by hand, so gain and routing are applied as during playback
func render(path string, g float32, m soundboard.Mode, fpb int) report {
	r := report{path: path}

	backend := output.NewManual()
	mixer, err := soundboard.NewMixer(soundboard.Config{Backend: backend, FramesPerBuffer: fpb, Mode: m})
	if err != nil {
		r.err = err
		return r
	}
	defer mixer.Close()

	p, err := mixer.Player(mixer.NewPlayer())
	if err != nil {
		r.err = err
		return r
	}
	p.SetGain(g)
	if err := p.Open(path); err != nil {
		r.err = err
		return r
	}
	if err := p.Play(); err != nil {
		r.err = err
		return r
	}
	r.params = p.Parameters()

	streams := backend.Streams()
	s := streams[len(streams)-1]
	for buf := s.Pump(); buf != nil; buf = s.Pump() {
		for _, v := range buf {
			r.peak = max(r.peak, abs(v))
		}
	}

	// padding from underruns and the final buffer is not counted
	stats := p.Stats()
	r.frames = stats.Played
	r.decodeErrors = stats.DecodeErrors
	r.underruns = stats.Underruns
	return r
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
