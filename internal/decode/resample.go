package decode

// ToStereo converts interleaved samples with the given channel count to
// interleaved stereo. Mono is duplicated; extra channels beyond the first two
// are dropped.
func ToStereo(in []float32, channels int) []float32 {
	switch {
	case channels == 2:
		return in[:len(in)-len(in)%2]
	case channels <= 0:
		return nil
	}
	frames := len(in) / channels
	out := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		l := in[i*channels]
		r := l
		if channels > 1 {
			r = in[i*channels+1]
		}
		out[2*i] = l
		out[2*i+1] = r
	}
	return out
}

// Resample converts interleaved samples from one rate to another using
// Catmull-Rom cubic interpolation.
func Resample(in []float32, channels, fromRate, toRate int) []float32 {
	if fromRate == toRate || fromRate <= 0 || toRate <= 0 || channels <= 0 {
		return in
	}
	frames := len(in) / channels
	if frames == 0 {
		return nil
	}
	ratio := float64(fromRate) / float64(toRate)
	outFrames := int(float64(frames) / ratio)
	out := make([]float32, outFrames*channels)
	at := func(frame, ch int) float32 {
		if frame < 0 {
			frame = 0
		}
		if frame >= frames {
			frame = frames - 1
		}
		return in[frame*channels+ch]
	}
	for i := 0; i < outFrames; i++ {
		pos := float64(i) * ratio
		idx := int(pos)
		x := float32(pos - float64(idx))
		for c := 0; c < channels; c++ {
			out[i*channels+c] = cubicInterpolate(at(idx-1, c), at(idx, c), at(idx+1, c), at(idx+2, c), x)
		}
	}
	return out
}

// cubicInterpolate evaluates a Catmull-Rom spline between y1 and y2.
func cubicInterpolate(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1
	return a0*x*x*x + a1*x*x + a2*x + a3
}
