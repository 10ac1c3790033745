package effects

import (
	"math"
	"sync/atomic"
)

// Meter measures the RMS level of interleaved stereo blocks. Observe runs on
// the audio thread; Level is safe to call from any goroutine.
type Meter struct {
	level     atomic.Uint64 // float64 bits
	smoothing float64
}

// NewMeter creates a level meter. smoothing in [0, 1) holds peaks: each
// block's level is max(rms, previous*smoothing).
func NewMeter(smoothing float64) *Meter {
	return &Meter{smoothing: clamp64(smoothing, 0, 0.999)}
}

// Observe measures one block of interleaved stereo samples.
func (m *Meter) Observe(buf []float32) {
	frames := len(buf) / 2
	if frames == 0 {
		return
	}
	var sum float64
	for i := 0; i+1 < len(buf); i += 2 {
		mono := float64(buf[i]+buf[i+1]) * 0.5
		sum += mono * mono
	}
	rms := math.Sqrt(sum / float64(frames))
	held := m.Level() * m.smoothing
	m.level.Store(math.Float64bits(max(rms, held)))
}

// Level returns the most recent level, clamped to [0, 1].
func (m *Meter) Level() float64 {
	return clamp64(math.Float64frombits(m.level.Load()), 0, 1)
}

func (m *Meter) Reset() {
	m.level.Store(0)
}
