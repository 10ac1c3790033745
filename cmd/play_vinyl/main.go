package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cbegin/retrovinyl-go"
	"github.com/cbegin/retrovinyl-go/internal/decode"
	"github.com/cbegin/retrovinyl-go/internal/routing"
)

func main() {
	def := routing.DefaultChainState()
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		path       = flag.String("file", "", "path to an audio file (mp3, wav, ogg, aiff)")
		lofi       = flag.Bool("lofi", false, "enable the lo-fi low-pass filter")
		cutoff     = flag.Float64("cutoff", def.LofiCutoffHz, "lo-fi cutoff in Hz (20..20000)")
		reso       = flag.Float64("reso", def.LofiResonance, "lo-fi resonance (0.001..20)")
		reverb     = flag.Bool("reverb", false, "enable reverb")
		mix        = flag.Float64("mix", def.ReverbMix, "reverb dry/wet mix (0..1)")
		room       = flag.Float64("room", def.ReverbRoomSize, "reverb room size in seconds (0.1..10)")
		decay      = flag.Float64("decay", def.ReverbDecay, "reverb decay (0.01..100)")
		speed      = flag.Float64("speed", 1.0, "playback speed (0.25..4)")
		volume     = flag.Float64("volume", 1.0, "master volume scalar")
		loop       = flag.Bool("loop", false, "start over when the track ends")
		outPath    = flag.String("out", "", "render offline to this WAV file instead of playing")
	)
	flag.Parse()

	if strings.TrimSpace(*path) == "" {
		log.Fatal("missing -file")
	}
	chain := routing.ChainState{
		LofiEnabled:    *lofi,
		LofiCutoffHz:   *cutoff,
		LofiResonance:  *reso,
		ReverbEnabled:  *reverb,
		ReverbMix:      *mix,
		ReverbRoomSize: *room,
		ReverbDecay:    *decay,
	}.Clamp()

	if *outPath != "" {
		if err := renderOffline(*path, *outPath, *sampleRate, chain, *speed, *volume); err != nil {
			log.Fatal(err)
		}
		return
	}

	pl, err := retrovinyl.NewPlayer(*sampleRate, retrovinyl.WithChainState(chain))
	if err != nil {
		log.Fatal(err)
	}
	defer pl.Close()
	pl.SetRate(*speed)
	pl.SetVolume(*volume)
	events := pl.Watch()

	start := time.Now()
	res, err := pl.Open(*path)
	if err != nil {
		log.Fatal(err)
	}
	if err := pl.Load(<-res); err != nil {
		log.Fatal(err)
	}
	st := pl.State()
	log.Printf("decoded %s in %s (%s, chain %s)", pl.Name(), time.Since(start).Round(time.Millisecond), formatTime(st.DurationSec), pl.Topology())

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	lastReport := time.Now()
	for {
		select {
		case ev := <-events:
			switch ev.Kind {
			case retrovinyl.EventPlaybackEnded:
				if !*loop {
					fmt.Println("playback completed")
					return
				}
				fmt.Println("looping")
				if err := pl.Resume(); err != nil {
					log.Fatal(err)
				}
			case retrovinyl.EventLoadFailed:
				log.Fatal(ev.Err)
			}
		case <-ticker.C:
			pl.Update()
			if time.Since(lastReport) >= time.Second {
				lastReport = time.Now()
				fmt.Printf("%s / %s  level %.3f\n", formatTime(pl.CurrentTime()), formatTime(st.DurationSec), pl.Level())
			}
		}
	}
}

func renderOffline(in, out string, sampleRate int, chain routing.ChainState, speed, volume float64) error {
	buf, err := decode.File(context.Background(), in, sampleRate)
	if err != nil {
		if errors.Is(err, decode.ErrUnsupportedFile) {
			return err
		}
		return fmt.Errorf("%w: %w", retrovinyl.ErrDecodeFailure, err)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	s := retrovinyl.DefaultRenderSettings()
	s.Chain = chain
	s.Rate = speed
	s.Volume = volume
	if err := retrovinyl.Render(buf, s, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("rendered %s to %s (chain %s)", in, out, routing.ComputeTopology(chain, true))
	return nil
}

// formatTime renders seconds as m:ss.
func formatTime(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	total := int(sec)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
