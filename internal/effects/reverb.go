package effects

import (
	"math"
	"sync/atomic"
)

// Reverb implements a Schroeder-style reverb with four damped comb filters
// and two allpass filters. The dry/wet mix is stored as float32 bits so the
// UI thread can change it while the audio thread is processing.
type Reverb struct {
	sampleRate int
	combs      [4]combFilter
	allpass    [2]allpassFilter
	wet        atomic.Uint32
	roomSec    float64
	decay      float64
}

type combFilter struct {
	buf   []float32
	pos   int
	fb    float32
	damp  float32
	store float32
}

type allpassFilter struct {
	buf []float32
	pos int
	fb  float32
}

// NewReverb creates a reverb effect.
// roomSec: length of the tail in seconds
// decay: how steeply the tail falls off; higher is shorter and darker
// wet: wet/dry mix 0..1
func NewReverb(sampleRate int, roomSec, decay, wet float64) *Reverb {
	base := int(float64(sampleRate) * 0.0297)
	if base < 10 {
		base = 10
	}
	r := &Reverb{sampleRate: sampleRate}
	// Comb filter delay lengths (prime-ish ratios to avoid resonances)
	combLens := [4]int{base, base * 1117 / 1000, base * 1271 / 1000, base * 1437 / 1000}
	for i := range r.combs {
		r.combs[i] = combFilter{buf: make([]float32, combLens[i])}
	}
	apLens := [2]int{base * 347 / 1000, base * 213 / 1000}
	for i := range r.allpass {
		r.allpass[i] = allpassFilter{
			buf: make([]float32, maxInt(apLens[i], 1)),
			fb:  0.5,
		}
	}
	r.Configure(roomSec, decay)
	r.SetDryWet(wet)
	return r
}

// Configure sets the tail length and decay without reallocating delay lines,
// so it is safe to call while audio is running.
func (r *Reverb) Configure(roomSec, decay float64) {
	r.roomSec = clamp64(roomSec, 0.1, 10)
	r.decay = clamp64(decay, 0.01, 100)
	rt60 := r.RT60()
	damp := float32(clamp64(r.decay/20, 0, 0.7))
	for i := range r.combs {
		delaySec := float64(len(r.combs[i].buf)) / float64(r.sampleRate)
		g := math.Pow(10, -3*delaySec/rt60)
		r.combs[i].fb = clamp(float32(g), 0, 0.98)
		r.combs[i].damp = damp
	}
}

// RT60 is the time for the tail to fall by 60 dB.
func (r *Reverb) RT60() float64 {
	return r.roomSec * 3 / (r.decay + 1)
}

func (r *Reverb) RoomSize() float64 { return r.roomSec }
func (r *Reverb) Decay() float64    { return r.decay }

// SetDryWet sets the wet/dry mix (0 = dry only, 1 = wet only).
func (r *Reverb) SetDryWet(mix float64) {
	r.wet.Store(math.Float32bits(float32(clamp64(mix, 0, 1))))
}

func (r *Reverb) DryWet() float64 {
	return float64(math.Float32frombits(r.wet.Load()))
}

func (r *Reverb) Process(l, r2 float32) (float32, float32) {
	wet := math.Float32frombits(r.wet.Load())
	mono := (l + r2) * 0.5
	var out float32
	for i := range r.combs {
		out += r.combs[i].process(mono)
	}
	out *= 0.25
	for i := range r.allpass {
		out = r.allpass[i].process(out)
	}
	return l*(1-wet) + out*wet, r2*(1-wet) + out*wet
}

func (r *Reverb) Reset() {
	for i := range r.combs {
		clear(r.combs[i].buf)
		r.combs[i].pos = 0
		r.combs[i].store = 0
	}
	for i := range r.allpass {
		clear(r.allpass[i].buf)
		r.allpass[i].pos = 0
	}
}

func (c *combFilter) process(in float32) float32 {
	out := c.buf[c.pos]
	c.store = out*(1-c.damp) + c.store*c.damp
	c.buf[c.pos] = in + c.store*c.fb
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

func (a *allpassFilter) process(in float32) float32 {
	bufOut := a.buf[a.pos]
	out := -in + bufOut
	a.buf[a.pos] = in + bufOut*a.fb
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
