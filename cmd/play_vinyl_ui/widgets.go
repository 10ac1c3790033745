package main

import (
	"image"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

const (
	charW        = 7
	lineH        = 16
	textBaseline = 11
)

var (
	panelColor     = color.RGBA{192, 192, 192, 255}
	borderColor    = color.RGBA{128, 128, 128, 255}
	textColor      = color.RGBA{255, 255, 255, 255}
	labelColor     = color.RGBA{20, 20, 28, 255}
	highlightColor = color.RGBA{0, 0, 128, 255}

	// 3D bevel colors for old-school embossed look.
	bevelLight  = color.RGBA{255, 255, 255, 255}
	bevelDarker = color.RGBA{64, 64, 64, 255}

	sunkenBgColor   = color.RGBA{24, 24, 32, 255}
	sliderFillColor = color.RGBA{0, 0, 128, 255}
)

func fillRect(screen *ebiten.Image, rect image.Rectangle, c color.Color) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), c)
}

func (g *game) drawPanel(screen *ebiten.Image, rect image.Rectangle) {
	fillRect(screen, rect, panelColor)
	drawBorder(screen, rect)
}

func (g *game) drawSunkenPanel(screen *ebiten.Image, rect image.Rectangle) {
	fillRect(screen, rect, sunkenBgColor)
	drawSunkenBorder(screen, rect)
}

func (g *game) drawButton(screen *ebiten.Image, rect image.Rectangle, label string) {
	g.drawPanel(screen, rect)
	labelW := len([]rune(label)) * charW
	x := rect.Min.X + (rect.Dx()-labelW)/2
	y := rect.Min.Y + (rect.Dy()-lineH)/2
	g.drawText(screen, label, x, y, labelColor)
}

// drawToggle is a latching button; pressed-in and blue while on.
func (g *game) drawToggle(screen *ebiten.Image, rect image.Rectangle, label string, on bool) {
	if !on {
		g.drawButton(screen, rect, label+": OFF")
		return
	}
	fillRect(screen, rect, sliderFillColor)
	drawSunkenBorder(screen, rect)
	label += ": ON"
	x := rect.Min.X + (rect.Dx()-len(label)*charW)/2
	y := rect.Min.Y + (rect.Dy()-lineH)/2
	g.drawText(screen, label, x, y, textColor)
}

// drawSlider draws a labelled horizontal slider; frac is the knob position.
func (g *game) drawSlider(screen *ebiten.Image, rect image.Rectangle, label string, frac float64) {
	g.drawPanel(screen, rect)
	g.drawText(screen, label, rect.Min.X+8, rect.Min.Y+(rect.Dy()-lineH)/2, labelColor)

	track := sliderTrack(rect)
	if track.Dx() < 20 {
		return
	}
	trackX, trackY, trackW := track.Min.X, track.Min.Y, track.Dx()
	// Sunken track groove.
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW), 8, bevelDarker)
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW-1), 1, borderColor)
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), 1, 7, borderColor)
	fillW := int(float64(trackW) * clamp(frac, 0, 1))
	if fillW > 2 {
		ebitenutil.DrawRect(screen, float64(trackX+1), float64(trackY+1), float64(fillW-1), 6, sliderFillColor)
	}
	knobX := min(max(trackX+fillW-5, trackX-5), trackX+trackW-5)
	knobRect := image.Rect(knobX, trackY-4, knobX+10, trackY+12)
	fillRect(screen, knobRect, panelColor)
	drawBorder(screen, knobRect)
}

// sliderTrack is the groove of a slider row, right of its label.
func sliderTrack(rect image.Rectangle) image.Rectangle {
	x := rect.Min.X + 150
	y := rect.Min.Y + rect.Dy()/2 - 4
	return image.Rect(x, y, rect.Max.X-14, y+8)
}

// drawBorder draws a raised 3D bevel (highlight top/left, shadow bottom/right).
func drawBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, bevelLight)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, bevelLight)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelDarker)
	ebitenutil.DrawRect(screen, x+1, y+h-2, w-3, 1, borderColor)
	ebitenutil.DrawRect(screen, x+w-2, y+1, 1, h-3, borderColor)
}

// drawSunkenBorder draws a sunken 3D bevel (shadow top/left, highlight bottom/right).
func drawSunkenBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, borderColor)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, borderColor)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelLight)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelLight)
	ebitenutil.DrawRect(screen, x+1, y+1, w-3, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+1, y+2, 1, h-4, bevelDarker)
}

// drawText draws msg with its top-left corner at x, y. Light text gets an
// embossed shadow.
func (g *game) drawText(screen *ebiten.Image, msg string, x, y int, c color.RGBA) {
	if msg == "" {
		return
	}
	face := basicfont.Face7x13
	if c == textColor {
		text.Draw(screen, msg, face, x+1, y+textBaseline+1, color.Black)
	}
	text.Draw(screen, msg, face, x, y+textBaseline, c)
}

// wrapText breaks s into lines of at most maxChars, preferring spaces.
func wrapText(s string, maxChars int) []string {
	var out []string
	for _, para := range strings.Split(s, "\n") {
		rest := []rune(para)
		for len(rest) > maxChars {
			cut := maxChars
			for cut > maxChars/3 && rest[cut-1] != ' ' {
				cut--
			}
			if cut <= maxChars/3 {
				cut = maxChars
			}
			out = append(out, strings.TrimRight(string(rest[:cut]), " "))
			rest = []rune(strings.TrimLeft(string(rest[cut:]), " "))
		}
		out = append(out, string(rest))
	}
	return out
}

func shortenEnd(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return string(r[:max(0, maxChars)])
	}
	return string(r[:maxChars-3]) + "..."
}

func shortenMiddle(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	if maxChars <= 7 {
		return shortenEnd(s, maxChars)
	}
	left := (maxChars - 3) / 2
	right := maxChars - 3 - left
	return string(r[:left]) + "..." + string(r[len(r)-right:])
}

func clamp(v, minV, maxV float64) float64 {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func pointInRect(x, y int, rect image.Rectangle) bool {
	return x >= rect.Min.X && x < rect.Max.X && y >= rect.Min.Y && y < rect.Max.Y
}
