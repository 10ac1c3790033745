package effects

import "math"

// LowPass is a resonant two-pole low-pass filter (RBJ biquad).
// Resonance is expressed in dB, so 0 dB is a flat Butterworth-like knee.
type LowPass struct {
	sampleRate float64
	cutoff     float64
	resonance  float64

	b0, b1, b2 float64
	a1, a2     float64

	x1L, x2L, y1L, y2L float64
	x1R, x2R, y1R, y2R float64
}

// NewLowPass creates a low-pass filter.
// cutoffHz: corner frequency, clamped below Nyquist
// resonanceDB: peak gain at the corner in dB
func NewLowPass(sampleRate int, cutoffHz, resonanceDB float64) *LowPass {
	lp := &LowPass{sampleRate: float64(sampleRate)}
	lp.cutoff = lp.clampCutoff(cutoffHz)
	lp.resonance = clamp64(resonanceDB, 0.001, 1000)
	lp.update()
	return lp
}

func (lp *LowPass) SetCutoff(hz float64) {
	lp.cutoff = lp.clampCutoff(hz)
	lp.update()
}

func (lp *LowPass) SetResonance(db float64) {
	lp.resonance = clamp64(db, 0.001, 1000)
	lp.update()
}

// Cutoff returns the effective corner frequency after clamping.
func (lp *LowPass) Cutoff() float64    { return lp.cutoff }
func (lp *LowPass) Resonance() float64 { return lp.resonance }

func (lp *LowPass) clampCutoff(hz float64) float64 {
	return clamp64(hz, 10, lp.sampleRate*0.499)
}

func (lp *LowPass) update() {
	w0 := 2 * math.Pi * lp.cutoff / lp.sampleRate
	q := math.Pow(10, lp.resonance/20)
	alpha := math.Sin(w0) / (2 * q)
	cosW := math.Cos(w0)
	a0 := 1 + alpha
	lp.b0 = (1 - cosW) / 2 / a0
	lp.b1 = (1 - cosW) / a0
	lp.b2 = lp.b0
	lp.a1 = -2 * cosW / a0
	lp.a2 = (1 - alpha) / a0
}

func (lp *LowPass) Process(l, r float32) (float32, float32) {
	inL, inR := float64(l), float64(r)
	outL := lp.b0*inL + lp.b1*lp.x1L + lp.b2*lp.x2L - lp.a1*lp.y1L - lp.a2*lp.y2L
	lp.x2L, lp.x1L = lp.x1L, inL
	lp.y2L, lp.y1L = lp.y1L, outL
	outR := lp.b0*inR + lp.b1*lp.x1R + lp.b2*lp.x2R - lp.a1*lp.y1R - lp.a2*lp.y2R
	lp.x2R, lp.x1R = lp.x1R, inR
	lp.y2R, lp.y1R = lp.y1R, outR
	return float32(outL), float32(outR)
}

func (lp *LowPass) Reset() {
	lp.x1L, lp.x2L, lp.y1L, lp.y2L = 0, 0, 0, 0
	lp.x1R, lp.x2R, lp.y1R, lp.y2R = 0, 0, 0, 0
}
