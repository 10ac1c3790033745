// Package graph is the audio graph the routing controller rewires: a decoded
// source with transport controls, the lo-fi filter, the reverb, a master
// gain and a metering tap. All mutation and processing happens under one
// mutex, so the UI thread and the audio thread never see a half-built path.
package graph

import (
	"math"
	"sync"

	"github.com/cbegin/retrovinyl-go/internal/decode"
	"github.com/cbegin/retrovinyl-go/internal/effects"
	"github.com/cbegin/retrovinyl-go/internal/routing"
)

const (
	MinRate = 0.25
	MaxRate = 4.0
	MaxGain = 2.0

	// maxHops bounds the walk from source to master so a miswired cycle
	// produces silence instead of spinning.
	maxHops = 8
)

type Graph struct {
	mu         sync.Mutex
	sampleRate int

	source *decode.Buffer
	cursor float64 // frame position, fractional under varispeed
	rate   float64
	gain   float32
	ended  bool

	lofi   *effects.LowPass
	reverb *effects.Reverb
	meter  *effects.Meter

	edges   map[routing.Node]map[routing.Node]struct{}
	metered routing.Node
	pre     *effects.Chain // up to and including the metered node
	post    *effects.Chain // after the metered node
	live    bool           // path reaches master

	tap func([]float32)
}

// New creates a graph with neutral effect settings and nothing connected.
func New(sampleRate int, meterSmoothing float64) *Graph {
	g := &Graph{
		sampleRate: sampleRate,
		rate:       1,
		gain:       1,
		lofi:       effects.NewLowPass(sampleRate, routing.NeutralCutoffHz, routing.NeutralResonance),
		reverb:     effects.NewReverb(sampleRate, 2.2, 2.5, 0),
		meter:      effects.NewMeter(meterSmoothing),
		edges:      make(map[routing.Node]map[routing.Node]struct{}),
		metered:    routing.NodeMaster,
		pre:        effects.NewChain(),
		post:       effects.NewChain(),
	}
	return g
}

func (g *Graph) SampleRate() int { return g.sampleRate }

// SetSampleTap installs a callback that sees every master output block on
// the audio thread.
func (g *Graph) SetSampleTap(tap func([]float32)) {
	g.mu.Lock()
	g.tap = tap
	g.mu.Unlock()
}

// SetSource replaces the source at the head of the graph and rewinds.
func (g *Graph) SetSource(buf *decode.Buffer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.source = buf
	g.cursor = 0
	g.ended = false
	g.lofi.Reset()
	g.reverb.Reset()
	g.meter.Reset()
}

func (g *Graph) ClearSource() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.source = nil
	g.cursor = 0
	g.ended = false
	g.meter.Reset()
}

// Seek moves the source cursor, clamped to the source duration.
func (g *Graph) Seek(sec float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.source == nil {
		return
	}
	frame := math.Max(0, sec) * float64(g.sampleRate)
	if last := float64(g.source.Frames()); frame > last {
		frame = last
	}
	g.cursor = frame
	g.ended = false
}

// Position returns the source cursor in seconds.
func (g *Graph) Position() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cursor / float64(g.sampleRate)
}

// Ended reports whether the cursor ran past the last frame.
func (g *Graph) Ended() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ended
}

func (g *Graph) SetRate(rate float64) {
	g.mu.Lock()
	g.rate = clamp(rate, MinRate, MaxRate)
	g.mu.Unlock()
}

func (g *Graph) Rate() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rate
}

func (g *Graph) SetGain(gain float64) {
	g.mu.Lock()
	g.gain = float32(clamp(gain, 0, MaxGain))
	g.mu.Unlock()
}

func (g *Graph) Gain() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return float64(g.gain)
}

// Level is the metering tap reading.
func (g *Graph) Level() float64 { return g.meter.Level() }

func (g *Graph) Connect(from, to routing.Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.edges[from] == nil {
		g.edges[from] = make(map[routing.Node]struct{})
	}
	g.edges[from][to] = struct{}{}
	g.rebuild()
}

func (g *Graph) Disconnect(from routing.Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.edges[from]) == 0 {
		return routing.ErrNotConnected
	}
	delete(g.edges, from)
	g.rebuild()
	return nil
}

// BindMeter points the metering tap at n. There is a single tap; binding
// again moves it.
func (g *Graph) BindMeter(n routing.Node) {
	g.mu.Lock()
	g.metered = n
	g.rebuild()
	g.mu.Unlock()
}

func (g *Graph) meteredNode() routing.Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.metered
}

func (g *Graph) SetLofi(cutoffHz, resonance float64) {
	g.mu.Lock()
	g.lofi.SetCutoff(cutoffHz)
	g.lofi.SetResonance(resonance)
	g.mu.Unlock()
}

// Lofi returns the effective filter parameters.
func (g *Graph) Lofi() (cutoffHz, resonance float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lofi.Cutoff(), g.lofi.Resonance()
}

func (g *Graph) ConfigureReverb(roomSec, decay float64) {
	g.mu.Lock()
	g.reverb.Configure(roomSec, decay)
	g.mu.Unlock()
}

// SetReverbMix does not take the graph lock; the reverb stores it atomically.
func (g *Graph) SetReverbMix(mix float64) {
	g.reverb.SetDryWet(mix)
}

func (g *Graph) ReverbMix() float64 { return g.reverb.DryWet() }

// Edges returns a snapshot of the current connections in node order.
func (g *Graph) Edges() []routing.Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []routing.Edge
	for from := routing.NodeSource; from <= routing.NodeMaster; from++ {
		for to := routing.NodeSource; to <= routing.NodeMaster; to++ {
			if _, ok := g.edges[from][to]; ok {
				out = append(out, routing.Edge{From: from, To: to})
			}
		}
	}
	return out
}

// Path returns the processing nodes between source and master, and whether
// the walk reached master.
func (g *Graph) Path() ([]routing.Node, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.walk()
}

func (g *Graph) walk() ([]routing.Node, bool) {
	var path []routing.Node
	node := routing.NodeSource
	for hops := 0; hops < maxHops; hops++ {
		next, ok := g.next(node)
		if !ok {
			return path, false
		}
		if next == routing.NodeMaster {
			return path, true
		}
		path = append(path, next)
		node = next
	}
	return path, false
}

// next picks the downstream node of n. Nodes carry one downstream edge in
// every topology the controller builds; with several, the lowest wins.
func (g *Graph) next(n routing.Node) (routing.Node, bool) {
	for to := routing.NodeSource; to <= routing.NodeMaster; to++ {
		if _, ok := g.edges[n][to]; ok {
			return to, true
		}
	}
	return 0, false
}

// rebuild splits the current path into the chains before and after the
// metering tap. A tap on a node outside the path meters the full output.
func (g *Graph) rebuild() {
	path, live := g.walk()
	split := len(path)
	if g.metered == routing.NodeSource {
		split = 0
	}
	for i, n := range path {
		if n == g.metered {
			split = i + 1
		}
	}
	pre, post := effects.NewChain(), effects.NewChain()
	for i, n := range path {
		e := g.effector(n)
		if e == nil {
			continue
		}
		if i < split {
			pre.Add(e)
		} else {
			post.Add(e)
		}
	}
	g.pre, g.post = pre, post
	g.live = live
}

func (g *Graph) effector(n routing.Node) effects.Effector {
	switch n {
	case routing.NodeLofi:
		return g.lofi
	case routing.NodeReverb:
		return g.reverb
	default:
		return nil
	}
}

// Process renders one interleaved stereo block. It implements the audio
// package's SampleSource.
func (g *Graph) Process(dst []float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	clear(dst)
	if g.source == nil {
		g.meter.Observe(dst)
		return
	}
	g.pull(dst)
	if !g.live {
		clear(dst)
		g.meter.Observe(dst)
		return
	}
	// Volume acts at the head of the chain so the meter hears what plays.
	if g.gain != 1 {
		for i := range dst {
			dst[i] *= g.gain
		}
	}
	g.pre.ProcessBuffer(dst)
	g.meter.Observe(dst)
	g.post.ProcessBuffer(dst)
	if g.tap != nil {
		g.tap(dst)
	}
}

// pull copies frames from the source at the current rate.
func (g *Graph) pull(dst []float32) {
	src := g.source.Samples
	frames := g.source.Frames()
	if g.ended || frames == 0 {
		g.ended = true
		return
	}
	for i := 0; i+1 < len(dst); i += 2 {
		idx := int(g.cursor)
		if idx >= frames {
			g.ended = true
			g.cursor = float64(frames)
			return
		}
		frac := float32(g.cursor - float64(idx))
		l, r := src[2*idx], src[2*idx+1]
		if frac > 0 && idx+1 < frames {
			l += (src[2*idx+2] - l) * frac
			r += (src[2*idx+3] - r) * frac
		}
		dst[i], dst[i+1] = l, r
		g.cursor += g.rate
	}
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
