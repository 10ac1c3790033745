package retrovinyl

import (
	"context"
	"errors"
	"sync"

	intaudio "github.com/cbegin/retrovinyl-go/internal/audio"
	"github.com/cbegin/retrovinyl-go/internal/decode"
	"github.com/cbegin/retrovinyl-go/internal/graph"
	"github.com/cbegin/retrovinyl-go/internal/routing"
)

type EventKind int

const (
	EventLoaded EventKind = iota
	EventPaused
	EventResumed
	EventSeeked
	EventPlaybackEnded
	EventLoadFailed
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventSeeked:
		return "seeked"
	case EventPlaybackEnded:
		return "ended"
	case EventLoadFailed:
		return "load failed"
	default:
		return "unknown"
	}
}

// PlaybackEvent carries transport events from Watch().
type PlaybackEvent struct {
	Kind EventKind
	Name string // track name, when known
	Err  error  // set for EventLoadFailed
}

// PlaybackState is the transport state. Exactly one of not loaded, playing,
// or paused-while-loaded holds.
type PlaybackState struct {
	Loaded          bool
	Playing         bool
	Paused          bool
	SeekPositionSec float64 // resume point while paused
	DurationSec     float64
}

// Output is an audio device stream pulling from the graph.
type Output interface {
	Play()
	Pause()
	Stop() error
}

// OutputFactory opens an Output that pulls from src. New outputs start
// paused.
type OutputFactory func(sampleRate int, src intaudio.SampleSource) (Output, error)

func defaultOutput(sampleRate int, src intaudio.SampleSource) (Output, error) {
	pl, err := intaudio.NewPlayer(sampleRate, src)
	if err != nil {
		return nil, err
	}
	return pl, nil
}

type PlayerOption func(*playerConfig)

type playerConfig struct {
	sampleTap      func([]float32)
	output         OutputFactory
	chain          routing.ChainState
	meterSmoothing float64
	registry       *decode.Registry
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{
		output: defaultOutput,
		chain:  routing.DefaultChainState(),
	}
}

// WithSampleTap installs a callback invoked with each output stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

// WithOutput replaces the ebiten audio output, mostly for tests and
// headless use.
func WithOutput(f OutputFactory) PlayerOption {
	return func(cfg *playerConfig) {
		if f != nil {
			cfg.output = f
		}
	}
}

// WithChainState sets the initial effect settings.
func WithChainState(s routing.ChainState) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.chain = s
	}
}

// WithMeterSmoothing sets the level meter's decay factor in [0, 1).
// Zero reports the raw RMS of each block.
func WithMeterSmoothing(smoothing float64) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.meterSmoothing = smoothing
	}
}

// WithDecoders replaces the decoder registry.
func WithDecoders(r *decode.Registry) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.registry = r
	}
}

type Player struct {
	mu         sync.Mutex
	sampleRate int
	registry   *decode.Registry
	graph      *graph.Graph
	routing    *routing.Controller
	newOutput  OutputFactory
	out        Output
	state      PlaybackState
	name       string

	loadSeq    uint64
	cancelLoad context.CancelFunc

	eventCh   chan PlaybackEvent
	eventChMu sync.Mutex
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.registry == nil {
		cfg.registry = decode.DefaultRegistry()
	}
	g := graph.New(sampleRate, cfg.meterSmoothing)
	g.SetSampleTap(cfg.sampleTap)
	return &Player{
		sampleRate: sampleRate,
		registry:   cfg.registry,
		graph:      g,
		routing:    routing.NewController(g, cfg.chain),
		newOutput:  cfg.output,
	}, nil
}

func (p *Player) SampleRate() int { return p.sampleRate }

func (p *Player) sendEvent(ev PlaybackEvent) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full; drop event
		}
	}
}

// Watch returns a channel that receives playback events. The channel is
// buffered (cap 8) and events are dropped when it is full. Only the most
// recent Watch() channel receives events.
func (p *Player) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 8)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}

// Pause captures the current time and halts output.
func (p *Player) Pause() error {
	p.mu.Lock()
	if !p.state.Loaded {
		p.mu.Unlock()
		return ErrNoSource
	}
	if p.state.Paused {
		p.mu.Unlock()
		return nil
	}
	p.state.SeekPositionSec = p.graph.Position()
	p.state.Paused, p.state.Playing = true, false
	p.out.Pause()
	name := p.name
	p.mu.Unlock()
	p.sendEvent(PlaybackEvent{Kind: EventPaused, Name: name})
	return nil
}

// Resume restarts output from the captured time.
func (p *Player) Resume() error {
	p.mu.Lock()
	if !p.state.Loaded {
		p.mu.Unlock()
		return ErrNoSource
	}
	if p.state.Playing {
		p.mu.Unlock()
		return nil
	}
	p.graph.Seek(p.state.SeekPositionSec)
	p.state.Paused, p.state.Playing = false, true
	p.out.Play()
	name := p.name
	p.mu.Unlock()
	p.sendEvent(PlaybackEvent{Kind: EventResumed, Name: name})
	return nil
}

// TogglePause pauses while playing and resumes while paused.
func (p *Player) TogglePause() error {
	p.mu.Lock()
	paused := p.state.Paused
	p.mu.Unlock()
	if paused {
		return p.Resume()
	}
	return p.Pause()
}

// Seek jumps to sec, clamped to the track. While paused it only moves the
// resume point.
func (p *Player) Seek(sec float64) error {
	p.mu.Lock()
	if !p.state.Loaded {
		p.mu.Unlock()
		return ErrNoSource
	}
	sec = clamp(sec, 0, p.state.DurationSec)
	p.graph.Seek(sec)
	p.state.SeekPositionSec = sec
	name := p.name
	p.mu.Unlock()
	p.sendEvent(PlaybackEvent{Kind: EventSeeked, Name: name})
	return nil
}

// SeekFraction seeks to f of the duration, f in [0, 1].
func (p *Player) SeekFraction(f float64) error {
	p.mu.Lock()
	dur := p.state.DurationSec
	p.mu.Unlock()
	return p.Seek(clamp(f, 0, 1) * dur)
}

// Update polls for the end of the track. Call it once per frame; on the
// end the player moves to paused at the start and emits
// EventPlaybackEnded.
func (p *Player) Update() {
	p.mu.Lock()
	if !p.state.Loaded || p.state.Paused || !p.graph.Ended() {
		p.mu.Unlock()
		return
	}
	p.out.Pause()
	p.graph.Seek(0)
	p.state.Paused, p.state.Playing = true, false
	p.state.SeekPositionSec = 0
	name := p.name
	p.mu.Unlock()
	p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded, Name: name})
}

// CurrentTime is the resume point while paused and the source position
// otherwise.
func (p *Player) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case !p.state.Loaded:
		return 0
	case p.state.Paused:
		return p.state.SeekPositionSec
	default:
		return p.graph.Position()
	}
}

func (p *Player) State() PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Name is the loaded track's name, empty when nothing is loaded.
func (p *Player) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

// Level is the latest meter reading in [0, 1].
func (p *Player) Level() float64 {
	return p.graph.Level()
}

// SetRate sets the playback speed (varispeed, pitch follows).
func (p *Player) SetRate(rate float64) {
	p.graph.SetRate(rate)
}

func (p *Player) Rate() float64 { return p.graph.Rate() }

// SetVolume sets the master gain. 1.0 is unity.
func (p *Player) SetVolume(volume float64) {
	p.graph.SetGain(volume)
}

func (p *Player) Volume() float64 { return p.graph.Gain() }

func (p *Player) ChainState() routing.ChainState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.routing.State()
}

func (p *Player) Topology() routing.Topology {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.routing.Topology()
}

func (p *Player) SetLofiEnabled(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routing.SetLofiEnabled(on)
}

// SetLofiCutoff takes a cutoff in Hz; see routing.CutoffFromSlider for the
// logarithmic slider mapping.
func (p *Player) SetLofiCutoff(hz float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routing.SetLofiCutoff(hz)
}

func (p *Player) SetLofiResonance(q float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routing.SetLofiResonance(q)
}

func (p *Player) SetReverbEnabled(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routing.SetReverbEnabled(on)
}

func (p *Player) SetReverbParams(mix, roomSec, decay float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routing.SetReverbParams(mix, roomSec, decay)
}

// Stop unloads the current track.
func (p *Player) Stop() error {
	p.mu.Lock()
	if p.out == nil {
		p.mu.Unlock()
		return nil
	}
	err := p.out.Stop()
	p.out = nil
	p.routing.Unload()
	p.graph.ClearSource()
	name := p.name
	p.state = PlaybackState{}
	p.name = ""
	p.mu.Unlock()
	p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded, Name: name})
	return err
}

// Close abandons any pending load and stops playback.
func (p *Player) Close() error {
	p.mu.Lock()
	if p.cancelLoad != nil {
		p.cancelLoad()
		p.cancelLoad = nil
	}
	p.loadSeq++
	p.mu.Unlock()
	return p.Stop()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
