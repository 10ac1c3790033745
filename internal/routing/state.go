package routing

import "math"

// Control ranges for ChainState. Cutoff is mapped on a logarithmic scale.
const (
	MinCutoffHz     = 20.0
	MaxCutoffHz     = 20000.0
	MinResonance    = 0.001
	MaxResonance    = 20.0
	MinRoomSize     = 0.1
	MaxRoomSize     = 10.0
	MinDecay        = 0.01
	MaxDecay        = 100.0
	NeutralCutoffHz = 22050.0
	// NeutralResonance together with NeutralCutoffHz makes the filter a passthrough.
	NeutralResonance = 0.001
)

// ChainState holds the user-facing effect settings. It decides the topology
// and the parameters pushed to the graph.
type ChainState struct {
	LofiEnabled    bool
	LofiCutoffHz   float64
	LofiResonance  float64
	ReverbEnabled  bool
	ReverbMix      float64
	ReverbRoomSize float64
	ReverbDecay    float64
}

func DefaultChainState() ChainState {
	return ChainState{
		LofiCutoffHz:   800,
		LofiResonance:  1,
		ReverbMix:      0.18,
		ReverbRoomSize: 2.2,
		ReverbDecay:    2.5,
	}
}

// Clamp returns s with every parameter inside its control range.
func (s ChainState) Clamp() ChainState {
	s.LofiCutoffHz = clamp(s.LofiCutoffHz, MinCutoffHz, MaxCutoffHz)
	s.LofiResonance = clamp(s.LofiResonance, MinResonance, MaxResonance)
	s.ReverbMix = clamp(s.ReverbMix, 0, 1)
	s.ReverbRoomSize = clamp(s.ReverbRoomSize, MinRoomSize, MaxRoomSize)
	s.ReverbDecay = clamp(s.ReverbDecay, MinDecay, MaxDecay)
	return s
}

// FilterParams returns the cutoff and resonance the filter should run at:
// the slider values when lo-fi is on, the neutral passthrough otherwise.
func (s ChainState) FilterParams() (cutoffHz, resonance float64) {
	if !s.LofiEnabled {
		return NeutralCutoffHz, NeutralResonance
	}
	return s.LofiCutoffHz, s.LofiResonance
}

// CutoffFromSlider maps a linear slider value in [20, 20000] onto the same
// range with a logarithmic curve.
func CutoffFromSlider(raw float64) float64 {
	raw = clamp(raw, MinCutoffHz, MaxCutoffHz)
	t := (raw - MinCutoffHz) / (MaxCutoffHz - MinCutoffHz)
	return math.Exp(math.Log(MinCutoffHz) + t*(math.Log(MaxCutoffHz)-math.Log(MinCutoffHz)))
}

// SliderFromCutoff is the inverse of CutoffFromSlider.
func SliderFromCutoff(hz float64) float64 {
	hz = clamp(hz, MinCutoffHz, MaxCutoffHz)
	t := (math.Log(hz) - math.Log(MinCutoffHz)) / (math.Log(MaxCutoffHz) - math.Log(MinCutoffHz))
	return MinCutoffHz + t*(MaxCutoffHz-MinCutoffHz)
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
