package main

import (
	"fmt"
	"image"

	"github.com/cbegin/retrovinyl-go/internal/routing"
	"github.com/hajimehoshi/ebiten/v2"
)

type sliderID int

const (
	sliderNone sliderID = iota - 1
	sliderSpeed
	sliderVolume
	sliderCutoff
	sliderReso
	sliderMix
	sliderRoom
	sliderDecay
	sliderCount
)

type sliderSpec struct {
	label    string
	min, max float64
	format   func(v float64) string
}

// The cutoff slider moves linearly over [20, 20000]; its value is mapped
// logarithmically before it reaches the filter.
var sliderSpecs = [sliderCount]sliderSpec{
	sliderSpeed:  {"Speed", 0.5, 2, func(v float64) string { return fmt.Sprintf("%.1fx", v) }},
	sliderVolume: {"Volume", 0, 1, func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) }},
	sliderCutoff: {"Cutoff", routing.MinCutoffHz, routing.MaxCutoffHz, func(v float64) string {
		return fmt.Sprintf("%.0f Hz", routing.CutoffFromSlider(v))
	}},
	sliderReso:  {"Resonance", routing.MinResonance, routing.MaxResonance, func(v float64) string { return fmt.Sprintf("%.1f Q", v) }},
	sliderMix:   {"Mix", 0, 1, func(v float64) string { return fmt.Sprintf("%.2f", v) }},
	sliderRoom:  {"Room", routing.MinRoomSize, routing.MaxRoomSize, func(v float64) string { return fmt.Sprintf("%.1f s", v) }},
	sliderDecay: {"Decay", routing.MinDecay, routing.MaxDecay, func(v float64) string { return fmt.Sprintf("%.1f", v) }},
}

func (g *game) initSliders() {
	cs := g.player.ChainState()
	g.sliders[sliderSpeed] = g.player.Rate()
	g.sliders[sliderVolume] = g.player.Volume()
	g.sliders[sliderCutoff] = routing.SliderFromCutoff(cs.LofiCutoffHz)
	g.sliders[sliderReso] = cs.LofiResonance
	g.sliders[sliderMix] = cs.ReverbMix
	g.sliders[sliderRoom] = cs.ReverbRoomSize
	g.sliders[sliderDecay] = cs.ReverbDecay
	for id := range g.sliders {
		spec := sliderSpecs[id]
		g.sliders[id] = clamp(g.sliders[id], spec.min, spec.max)
	}
}

// applySlider pushes the slider value into the player.
func (g *game) applySlider(id sliderID) {
	v := g.sliders[id]
	switch id {
	case sliderSpeed:
		g.player.SetRate(v)
	case sliderVolume:
		g.player.SetVolume(v)
	case sliderCutoff:
		g.player.SetLofiCutoff(routing.CutoffFromSlider(v))
	case sliderReso:
		g.player.SetLofiResonance(v)
	case sliderMix, sliderRoom, sliderDecay:
		g.player.SetReverbParams(g.sliders[sliderMix], g.sliders[sliderRoom], g.sliders[sliderDecay])
	}
}

type drawerRects struct {
	lofi, reverb image.Rectangle
	sliders      [sliderCount]image.Rectangle
	files        image.Rectangle
}

func (g *game) drawerLayout(rect image.Rectangle) drawerRects {
	var d drawerRects
	x0 := rect.Min.X + 10
	x1 := rect.Max.X - 10
	y := rect.Min.Y + 10 + lineH + 6

	toggleH := 30
	mid := (x0 + x1) / 2
	d.lofi = image.Rect(x0, y, mid-4, y+toggleH)
	d.reverb = image.Rect(mid+4, y, x1, y+toggleH)
	y += toggleH + 10

	rowH := 30
	for id := range d.sliders {
		d.sliders[id] = image.Rect(x0, y, x1, y+rowH)
		y += rowH + 4
	}
	y += 6 + lineH + 4
	d.files = image.Rect(x0, y, x1, max(y+lineH, rect.Max.Y-10))
	return d
}

func (g *game) clickDrawer(mx, my int, rect image.Rectangle) {
	d := g.drawerLayout(rect)
	cs := g.player.ChainState()
	switch {
	case pointInRect(mx, my, d.lofi):
		g.player.SetLofiEnabled(!cs.LofiEnabled)
		g.setStatus(onOff("Lo-fi", !cs.LofiEnabled))
		return
	case pointInRect(mx, my, d.reverb):
		g.player.SetReverbEnabled(!cs.ReverbEnabled)
		g.setStatus(onOff("Reverb", !cs.ReverbEnabled))
		return
	case pointInRect(mx, my, d.files):
		g.clickNavigator(mx, my, d.files)
		return
	}
	for id, r := range d.sliders {
		if pointInRect(mx, my, r) {
			g.dragging = sliderID(id)
			g.dragSlider(mx, rect)
			return
		}
	}
}

func (g *game) dragSlider(mx int, rect image.Rectangle) {
	if g.dragging <= sliderNone || g.dragging >= sliderCount {
		return
	}
	d := g.drawerLayout(rect)
	track := sliderTrack(d.sliders[g.dragging])
	if track.Dx() <= 0 {
		return
	}
	spec := sliderSpecs[g.dragging]
	frac := clamp(float64(mx-track.Min.X)/float64(track.Dx()), 0, 1)
	v := spec.min + frac*(spec.max-spec.min)
	if v == g.sliders[g.dragging] {
		return
	}
	g.sliders[g.dragging] = v
	g.applySlider(g.dragging)
	g.setStatus(spec.label + ": " + spec.format(v))
}

func (g *game) drawDrawer(screen *ebiten.Image, rect image.Rectangle) {
	g.drawPanel(screen, rect)
	title := image.Rect(rect.Min.X+3, rect.Min.Y+3, rect.Max.X-3, rect.Min.Y+3+lineH+6)
	fillRect(screen, title, highlightColor)
	g.drawText(screen, "Settings", title.Min.X+6, title.Min.Y+3, textColor)

	d := g.drawerLayout(rect)
	cs := g.player.ChainState()
	g.drawToggle(screen, d.lofi, "Lo-Fi", cs.LofiEnabled)
	g.drawToggle(screen, d.reverb, "Reverb", cs.ReverbEnabled)

	for id, r := range d.sliders {
		spec := sliderSpecs[id]
		v := g.sliders[id]
		frac := 0.0
		if spec.max > spec.min {
			frac = (v - spec.min) / (spec.max - spec.min)
		}
		label := shortenEnd(spec.label+" "+spec.format(v), (sliderTrack(r).Min.X-r.Min.X-12)/charW)
		g.drawSlider(screen, r, label, frac)
	}

	g.drawText(screen, "Files", d.files.Min.X, d.files.Min.Y-lineH-2, labelColor)
	g.drawSunkenPanel(screen, d.files)
	g.drawNavigator(screen, d.files)
}

func onOff(name string, on bool) string {
	if on {
		return name + " on"
	}
	return name + " off"
}
