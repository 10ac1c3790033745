package visual

import (
	"image/color"
	"math"
)

const (
	DiscRadiusMin = 90.0
	DiscRadiusMax = 440.0

	discBaseFrac  = 0.12
	discPulseFrac = 0.18

	DiscBase  = DiscRadiusMin + (DiscRadiusMax-DiscRadiusMin)*discBaseFrac
	DiscPulse = (DiscRadiusMax - DiscRadiusMin) * discPulseFrac

	NeonAlphaMin = 70.0
	NeonAlphaMax = 140.0

	easeExponent = 1.8
)

var (
	neonAmber = color.NRGBA{R: 255, G: 184, B: 92}
	neonCream = color.NRGBA{R: 255, G: 234, B: 208}
)

// Ease is the ease-out curve 1-(1-x)^1.8 over [0, 1].
func Ease(x float64) float64 {
	return 1 - math.Pow(1-clamp(x, 0, 1), easeExponent)
}

// DiscRadius is the on-screen record radius for a display level.
func DiscRadius(level float64) float64 {
	return DiscBase + DiscPulse*Ease(level)
}

// NeonAlpha maps the level onto the ring glow alpha.
func NeonAlpha(level float64) float64 {
	return mapRange(level, NeonAlphaMin, NeonAlphaMax)
}

// Ring is one stroked circle of the neon glow, centred on the disc.
type Ring struct {
	Radius float64
	Stroke float64
	Color  color.NRGBA
}

// Rings returns the glow from the widest, faintest tier to the crisp edge.
func Rings(level float64) [3]Ring {
	r := DiscRadius(level)
	a := NeonAlpha(level)
	tier := func(pad, stroke, opacity float64, c color.NRGBA) Ring {
		c.A = uint8(math.Round(clamp(a*opacity, 0, 255)))
		return Ring{Radius: r + pad/2, Stroke: stroke, Color: c}
	}
	return [3]Ring{
		tier(26, 26, 0.25, neonAmber),
		tier(16, 16, 0.35, neonAmber),
		tier(0, 8, 1, neonCream),
	}
}
