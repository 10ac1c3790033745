package main

import (
	"image"
	"image/color"

	"github.com/cbegin/retrovinyl-go/internal/visual"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	backdropDark = color.RGBA{10, 12, 18, 255}
	backdropLit  = color.RGBA{30, 27, 44, 255}
)

func (g *game) drawBackdrop(screen *ebiten.Image) {
	mix := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*clamp(g.glow, 0, 1))
	}
	screen.Fill(color.RGBA{
		R: mix(backdropDark.R, backdropLit.R),
		G: mix(backdropDark.G, backdropLit.G),
		B: mix(backdropDark.B, backdropLit.B),
		A: 255,
	})
}

// drawVinyl draws the spinning record, its neon glow and the ripples, all
// centred on the stage.
func (g *game) drawVinyl(screen *ebiten.Image, stage image.Rectangle) {
	cx := float64(stage.Min.X) + float64(stage.Dx())/2
	cy := float64(stage.Min.Y) + float64(stage.Dy())/2
	st := g.driver.State()
	level := st.DisplayLevel
	r := visual.DiscRadius(level)

	size := float64(g.record.Bounds().Dx())
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-size/2, -size/2)
	op.GeoM.Scale(2*r/size, 2*r/size)
	op.GeoM.Rotate(st.DiscAngle)
	op.GeoM.Translate(cx, cy)
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(g.record, op)

	for _, ring := range visual.Rings(level) {
		vector.StrokeCircle(screen, float32(cx), float32(cy), float32(ring.Radius), float32(ring.Stroke), ring.Color, true)
	}
	for _, rp := range st.Ripples {
		c := color.NRGBA{R: 255, G: 255, B: 255, A: uint8(clamp(rp.Alpha(), 0, 255))}
		vector.StrokeCircle(screen, float32(cx), float32(cy), float32(rp.Radius), visual.RippleStroke, c, true)
	}
}

// seekTrack is the clickable bar of the seek row, right of the time text.
func seekTrack(rect image.Rectangle) image.Rectangle {
	x := rect.Min.X + 130
	y := rect.Min.Y + rect.Dy()/2 - 4
	return image.Rect(x, y, rect.Max.X-14, y+8)
}

func (g *game) drawSeekBar(screen *ebiten.Image, rect image.Rectangle) {
	g.drawPanel(screen, rect)
	st := g.player.State()
	now := g.player.CurrentTime()
	label := formatTime(now) + " / " + formatTime(st.DurationSec)
	g.drawText(screen, label, rect.Min.X+10, rect.Min.Y+(rect.Dy()-lineH)/2, labelColor)

	track := seekTrack(rect)
	if track.Dx() < 20 {
		return
	}
	fillRect(screen, track, bevelDarker)
	drawSunkenBorder(screen, track)
	frac := 0.0
	if st.DurationSec > 0 {
		frac = clamp(now/st.DurationSec, 0, 1)
	}
	fillW := int(float64(track.Dx()) * frac)
	if fillW > 2 {
		ebitenutil.DrawRect(screen, float64(track.Min.X+1), float64(track.Min.Y+1), float64(fillW-1), 6, sliderFillColor)
	}
	knobX := min(max(track.Min.X+fillW-5, track.Min.X-5), track.Max.X-5)
	knob := image.Rect(knobX, track.Min.Y-6, knobX+10, track.Max.Y+6)
	fillRect(screen, knob, panelColor)
	drawBorder(screen, knob)
}
