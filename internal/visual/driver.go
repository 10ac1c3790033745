// Package visual turns the metered output level into the turntable
// animation: a smoothed display level, the disc's angular motion and the
// expanding ripples around it. It holds no audio state and never fails;
// inputs outside their ranges are clamped.
package visual

import (
	"math"
	"slices"
	"time"
)

const (
	SmoothLevel    = 0.25
	SmoothVelocity = 0.12

	BaseRPM      = 26.0
	BaseVelocity = BaseRPM * 2 * math.Pi / 60 // rad/s
	VelocityGain = 0.6

	EmitHz       = 2.0
	EmitInterval = time.Second / time.Duration(EmitHz)
	RippleSpeed  = 40.0 // px/s
	RippleLife   = 1.8  // s
	RippleStroke = 4.0

	// Level-mapped spawn ranges.
	RippleRadiusMin = 40.0
	RippleRadiusMax = 110.0
	RippleAlphaMin  = 90.0
	RippleAlphaMax  = 220.0

	// Seek feedback ripple.
	PulseRadius   = 70.0
	PulseAlpha    = 160.0
	PulseLifetime = 0.9

	// HasLevelThreshold is the display level above which the backdrop
	// brightens.
	HasLevelThreshold = 0.02
)

type Ripple struct {
	Radius       float64
	InitialAlpha float64
	Age          float64
	Lifetime     float64
}

// Progress is Age/Lifetime; a ripple is removed once it reaches 1.
func (r Ripple) Progress() float64 {
	if r.Lifetime <= 0 {
		return 1
	}
	return r.Age / r.Lifetime
}

// Alpha fades linearly from InitialAlpha to zero over the lifetime.
func (r Ripple) Alpha() float64 {
	return (1 - clamp(r.Progress(), 0, 1)) * r.InitialAlpha
}

type State struct {
	DisplayLevel float64
	DiscAngle    float64 // radians, kept in [0, 2π)
	DiscVelocity float64 // rad/s
	Ripples      []Ripple
}

// Frame is the input of one animation step. Active means a source is
// loaded and playing; Level is the raw meter reading.
type Frame struct {
	Now    time.Duration
	Dt     float64 // seconds since the previous frame
	Active bool
	Level  float64
}

type Driver struct {
	state    State
	lastEmit time.Duration
}

func NewDriver() *Driver {
	return &Driver{}
}

// Tick advances the animation by one frame.
func (d *Driver) Tick(f Frame) {
	s := &d.state
	raw := 0.0
	if f.Active {
		raw = clamp(f.Level, 0, 1)
	}
	s.DisplayLevel = lerp(s.DisplayLevel, raw, SmoothLevel)

	target := 0.0
	if f.Active {
		target = BaseVelocity + VelocityGain*s.DisplayLevel
	}
	s.DiscVelocity = lerp(s.DiscVelocity, target, SmoothVelocity)

	dt := math.Max(0, f.Dt)
	s.DiscAngle = math.Mod(s.DiscAngle+s.DiscVelocity*dt, 2*math.Pi)

	live := s.Ripples[:0]
	for _, r := range s.Ripples {
		r.Age += dt
		r.Radius += RippleSpeed * dt
		if r.Progress() >= 1 {
			continue
		}
		live = append(live, r)
	}
	s.Ripples = live

	if f.Active && f.Now-d.lastEmit >= EmitInterval {
		s.Ripples = append(s.Ripples, Ripple{
			Radius:       mapRange(s.DisplayLevel, RippleRadiusMin, RippleRadiusMax),
			InitialAlpha: mapRange(s.DisplayLevel, RippleAlphaMin, RippleAlphaMax),
			Lifetime:     RippleLife,
		})
		d.lastEmit = f.Now
	}
}

// Reset prepares for a new source: no ripples, level and velocity at rest,
// and the emission clock restarted at now. The disc keeps its angle.
func (d *Driver) Reset(now time.Duration) {
	d.state.Ripples = d.state.Ripples[:0]
	d.state.DisplayLevel = 0
	d.state.DiscVelocity = 0
	d.lastEmit = now
}

// Pulse spawns the short ripple shown after a seek.
func (d *Driver) Pulse() {
	d.state.Ripples = append(d.state.Ripples, Ripple{
		Radius:       PulseRadius,
		InitialAlpha: PulseAlpha,
		Lifetime:     PulseLifetime,
	})
}

// State returns a copy of the animation state.
func (d *Driver) State() State {
	s := d.state
	s.Ripples = slices.Clone(d.state.Ripples)
	return s
}

func (d *Driver) Level() float64 { return d.state.DisplayLevel }

func (d *Driver) HasLevel() bool { return d.state.DisplayLevel > HasLevelThreshold }

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// mapRange maps a level in [0, 1] onto [lo, hi].
func mapRange(level, lo, hi float64) float64 {
	return lo + (hi-lo)*clamp(level, 0, 1)
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
