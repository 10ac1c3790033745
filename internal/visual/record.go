package visual

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand/v2"

	"golang.org/x/image/vector"
)

const (
	RecordTextureSize = 1024

	LabelRatio = 0.40
	HoleRatio  = 0.022
	GrooveStep = 3.0
	DustCount  = 120

	// kappa places cubic control points for a quarter circle.
	kappa = 0.5522847498
)

var (
	bodyEdge    = color.NRGBA{R: 16, G: 19, B: 26, A: 255}
	bodyCentre  = color.NRGBA{R: 10, G: 12, B: 18, A: 255}
	grooveColor = color.NRGBA{R: 160, G: 162, B: 179, A: 22}
	labelColor  = color.NRGBA{R: 214, G: 167, B: 122, A: 235}
	labelInk    = color.NRGBA{R: 140, G: 102, B: 64}
	holeColor   = color.NRGBA{A: 220}
)

// RenderRecord rasterises the vinyl texture: a shaded body, concentric
// grooves, the paper label with two printed rings, the spindle hole and a
// sprinkle of dust. The same seed yields the same dust.
func RenderRecord(size int, seed uint64) *image.RGBA {
	size = max(size, 64)
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	s := float32(size)
	c := s / 2
	z := vector.NewRasterizer(size, size)

	ellipse(z, c, c, c, c, false)
	z.Draw(dst, dst.Bounds(), radialGradient{centre: float64(c), inner: bodyCentre, outer: bodyEdge}, image.Point{})

	outer := s * 0.49
	inner := outer * (1 - LabelRatio) * 0.55
	z.Reset(size, size)
	for rad := inner; rad <= outer; rad += GrooveStep {
		ring(z, c, c, rad, 1)
	}
	fill(z, dst, grooveColor)

	labelR := s * 0.98 * LabelRatio * 0.5
	z.Reset(size, size)
	ellipse(z, c, c, labelR, labelR, false)
	fill(z, dst, labelColor)

	for _, lr := range []struct {
		scale float32
		alpha uint8
	}{{0.8, 120}, {0.6, 90}} {
		ink := labelInk
		ink.A = lr.alpha
		z.Reset(size, size)
		ring(z, c, c, labelR*lr.scale, 2)
		fill(z, dst, ink)
	}

	holeR := s * 0.98 * HoleRatio * 0.5
	z.Reset(size, size)
	ellipse(z, c, c, holeR, holeR, false)
	fill(z, dst, holeColor)

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	speck := vector.NewRasterizer(4, 4)
	for i := 0; i < DustCount; i++ {
		angle := rng.Float64() * 2 * math.Pi
		radius := between(rng, float64(s)*0.1, float64(s)*0.48)
		x := float64(c) + radius*math.Cos(angle)
		y := float64(c) + radius*math.Sin(angle)
		alpha := uint8(between(rng, 16, 36))
		rx := float32(between(rng, 1, 2.2)) / 2
		ry := float32(between(rng, 1, 2.2)) / 2

		ox, oy := int(math.Floor(x))-2, int(math.Floor(y))-2
		r := image.Rect(ox, oy, ox+4, oy+4)
		if !r.In(dst.Bounds()) {
			continue
		}
		speck.Reset(4, 4)
		ellipse(speck, float32(x)-float32(ox), float32(y)-float32(oy), rx, ry, false)
		speck.Draw(dst, r, image.NewUniform(color.NRGBA{R: 230, G: 230, B: 230, A: alpha}), image.Point{})
	}
	return dst
}

func fill(z *vector.Rasterizer, dst draw.Image, c color.NRGBA) {
	z.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

// ring adds an annulus of the given width; the inner contour runs the
// other way so it cuts a hole.
func ring(z *vector.Rasterizer, cx, cy, r, width float32) {
	ellipse(z, cx, cy, r+width/2, r+width/2, false)
	if in := r - width/2; in > 0 {
		ellipse(z, cx, cy, in, in, true)
	}
}

// ellipse adds a closed ellipse built from four cubic segments.
func ellipse(z *vector.Rasterizer, cx, cy, rx, ry float32, reverse bool) {
	kx, ky := rx*kappa, ry*kappa
	z.MoveTo(cx+rx, cy)
	if reverse {
		z.CubeTo(cx+rx, cy-ky, cx+kx, cy-ry, cx, cy-ry)
		z.CubeTo(cx-kx, cy-ry, cx-rx, cy-ky, cx-rx, cy)
		z.CubeTo(cx-rx, cy+ky, cx-kx, cy+ry, cx, cy+ry)
		z.CubeTo(cx+kx, cy+ry, cx+rx, cy+ky, cx+rx, cy)
	} else {
		z.CubeTo(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
		z.CubeTo(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
		z.CubeTo(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
		z.CubeTo(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
	}
	z.ClosePath()
}

func between(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// radialGradient shades from inner at the centre toward outer at the rim,
// starting a fifth of the way along.
type radialGradient struct {
	centre       float64
	inner, outer color.NRGBA
}

func (g radialGradient) ColorModel() color.Model { return color.NRGBAModel }

func (g radialGradient) Bounds() image.Rectangle {
	return image.Rect(-1e9, -1e9, 1e9, 1e9)
}

func (g radialGradient) At(x, y int) color.Color {
	dx := float64(x) + 0.5 - g.centre
	dy := float64(y) + 0.5 - g.centre
	t := 0.2 + 0.8*clamp(math.Hypot(dx, dy)/g.centre, 0, 1)
	mix := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
	}
	return color.NRGBA{
		R: mix(g.inner.R, g.outer.R),
		G: mix(g.inner.G, g.outer.G),
		B: mix(g.inner.B, g.outer.B),
		A: 255,
	}
}
