package effects

import (
	"math"
	"testing"
)

func sineRMS(e Effector, sampleRate int, freq float64, warmup, measure int) float64 {
	var sum float64
	for i := 0; i < warmup+measure; i++ {
		x := float32(math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate)))
		l, _ := e.Process(x, x)
		if i >= warmup {
			sum += float64(l) * float64(l)
		}
	}
	return math.Sqrt(sum / float64(measure))
}

func TestReverbProducesTail(t *testing.T) {
	r := NewReverb(44100, 2.2, 2.5, 0.5)
	// Feed impulse
	r.Process(1.0, 1.0)
	var maxOut float32
	for i := 0; i < 10000; i++ {
		l, _ := r.Process(0, 0)
		if l > maxOut {
			maxOut = l
		}
	}
	if maxOut < 0.001 {
		t.Error("expected reverb tail")
	}
}

func TestReverbDryWetZeroIsTransparent(t *testing.T) {
	r := NewReverb(48000, 2.2, 2.5, 0.18)
	r.SetDryWet(0)
	for i := 0; i < 5000; i++ {
		x := float32(math.Sin(float64(i) * 0.01))
		l, rr := r.Process(x, -x)
		if l != x || rr != -x {
			t.Fatalf("sample %d: got (%f, %f), want (%f, %f)", i, l, rr, x, -x)
		}
	}
}

func TestReverbConfigureClampsAndDerivesRT60(t *testing.T) {
	r := NewReverb(48000, 2.2, 2.5, 0.18)
	if got, want := r.RT60(), 2.2*3/3.5; math.Abs(got-want) > 1e-9 {
		t.Fatalf("RT60 = %f, want %f", got, want)
	}
	r.Configure(-1, 1000)
	if r.RoomSize() != 0.1 || r.Decay() != 100 {
		t.Fatalf("configure should clamp, got room=%f decay=%f", r.RoomSize(), r.Decay())
	}
	r.SetDryWet(3)
	if r.DryWet() != 1 {
		t.Fatalf("dry/wet should clamp to 1, got %f", r.DryWet())
	}
}

func TestReverbLongerRoomRingsLonger(t *testing.T) {
	energyAfter := func(room float64) float64 {
		r := NewReverb(48000, room, 2.5, 1)
		r.Process(1, 1)
		var e float64
		for i := 0; i < 48000; i++ {
			l, _ := r.Process(0, 0)
			if i > 24000 {
				e += float64(l) * float64(l)
			}
		}
		return e
	}
	short, long := energyAfter(0.5), energyAfter(5)
	if long <= short {
		t.Fatalf("expected longer room to keep more late energy: short=%g long=%g", short, long)
	}
}

func TestLowPassNeutralPassesAudibleBand(t *testing.T) {
	lp := NewLowPass(48000, 22050, 0.001)
	for _, freq := range []float64{100, 1000, 5000} {
		lp.Reset()
		got := sineRMS(lp, 48000, freq, 2000, 9600)
		want := 1 / math.Sqrt2
		if math.Abs(got-want)/want > 0.15 {
			t.Errorf("%.0f Hz: rms = %f, want ~%f", freq, got, want)
		}
	}
}

func TestLowPassAttenuatesAboveCutoff(t *testing.T) {
	lp := NewLowPass(48000, 800, 1)
	got := sineRMS(lp, 48000, 10000, 2000, 9600)
	if got > 0.07 {
		t.Fatalf("10 kHz through 800 Hz low-pass: rms = %f, want strong attenuation", got)
	}
}

func TestLowPassClampsCutoffBelowNyquist(t *testing.T) {
	lp := NewLowPass(44100, 22050, 0.001)
	if lp.Cutoff() >= 22050 {
		t.Fatalf("cutoff %f should be clamped below nyquist", lp.Cutoff())
	}
	lp.SetCutoff(1)
	if lp.Cutoff() != 10 {
		t.Fatalf("cutoff = %f, want 10", lp.Cutoff())
	}
}

func TestLowPassUnityAtDC(t *testing.T) {
	lp := NewLowPass(48000, 800, 6)
	var l float32
	for i := 0; i < 4000; i++ {
		l, _ = lp.Process(0.5, 0.5)
	}
	if math.Abs(float64(l)-0.5) > 0.01 {
		t.Fatalf("expected DC to settle at 0.5, got %f", l)
	}
}

func TestMeterMeasuresRMS(t *testing.T) {
	m := NewMeter(0)
	buf := make([]float32, 512)
	for i := range buf {
		buf[i] = 0.5
	}
	m.Observe(buf)
	if got := m.Level(); math.Abs(got-0.5) > 1e-6 {
		t.Fatalf("level = %f, want 0.5", got)
	}
	m.Observe(make([]float32, 512))
	if got := m.Level(); got != 0 {
		t.Fatalf("level after silence = %f, want 0", got)
	}
}

func TestMeterSmoothingHoldsPeak(t *testing.T) {
	m := NewMeter(0.5)
	loud := make([]float32, 64)
	for i := range loud {
		loud[i] = 0.8
	}
	m.Observe(loud)
	m.Observe(make([]float32, 64))
	if got := m.Level(); math.Abs(got-0.4) > 1e-6 {
		t.Fatalf("held level = %f, want 0.4", got)
	}
	m.Reset()
	if m.Level() != 0 {
		t.Fatal("reset should zero the level")
	}
}

func TestChainAppliesEffectsInOrder(t *testing.T) {
	c := NewChain(
		NewLowPass(44100, 800, 0),
		NewReverb(44100, 1, 2, 0.5),
	)
	if c.Len() != 2 {
		t.Fatalf("chain length = %d, want 2", c.Len())
	}
	buf := make([]float32, 256)
	for i := range buf {
		buf[i] = 0.5
	}
	c.ProcessBuffer(buf)
	if buf[len(buf)-2] == 0 || buf[len(buf)-1] == 0 {
		t.Error("chain should produce output")
	}
}

func TestEmptyChainLeavesBufferUntouched(t *testing.T) {
	c := NewChain()
	buf := []float32{0.1, 0.2, 0.3, 0.4}
	c.ProcessBuffer(buf)
	if buf[0] != 0.1 || buf[3] != 0.4 {
		t.Fatalf("buffer changed: %v", buf)
	}
}
