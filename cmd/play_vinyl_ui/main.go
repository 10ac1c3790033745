package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/cbegin/retrovinyl-go"
	"github.com/cbegin/retrovinyl-go/internal/routing"
	"github.com/cbegin/retrovinyl-go/internal/visual"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	windowW      = 1100
	windowH      = 760
	minWindowW   = 900
	minWindowH   = 680
	uiSampleRate = 48000

	drawerW = 360

	// maxFrameDt caps the animation step after a stall (window drag, GC).
	maxFrameDt = 0.1
)

type game struct {
	player  *retrovinyl.Player
	events  <-chan retrovinyl.PlaybackEvent
	driver  *visual.Driver
	record  *ebiten.Image
	pending <-chan retrovinyl.LoadResult

	started  time.Time
	lastTick time.Time
	glow     float64 // backdrop brightening, eased toward HasLevel

	drawerOpen   bool
	sliders      [sliderCount]float64
	dragging     sliderID
	draggingSeek bool

	status    string
	statusErr bool
	alert     string

	cwd         string
	nav         []navEntry
	navScroll   int
	loadedPath  string
	pendingPath string

	viewW int
	viewH int
}

func newGame(initialPath string) (*game, error) {
	pl, err := retrovinyl.NewPlayer(uiSampleRate, retrovinyl.WithChainState(routing.DefaultChainState()))
	if err != nil {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if initialPath != "" {
		cwd = filepath.Dir(initialPath)
	}
	now := time.Now()
	g := &game{
		player:   pl,
		events:   pl.Watch(),
		driver:   visual.NewDriver(),
		record:   ebiten.NewImageFromImage(visual.RenderRecord(visual.RecordTextureSize, uint64(now.UnixNano()))),
		started:  now,
		lastTick: now,
		dragging: sliderNone,
		status:   "Open an audio file (H for settings)",
		cwd:      cwd,
		viewW:    windowW,
		viewH:    windowH,
	}
	g.initSliders()
	if err := g.refreshNav(); err != nil {
		g.setError(err.Error())
	}
	if initialPath != "" {
		g.open(initialPath)
	}
	return g, nil
}

func (g *game) Update() error {
	g.pollLoad()
	g.pollEvents()
	g.player.Update()
	g.handleDrops()
	if g.alert != "" {
		g.handleAlert()
	} else {
		g.handleKeys()
		g.handleMouse()
	}
	g.tick()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	l := g.layoutRects()
	g.drawBackdrop(screen)
	g.drawVinyl(screen, l.stage)

	g.drawButton(screen, l.play, g.playButtonLabel())
	g.drawSeekBar(screen, l.seek)
	g.drawButton(screen, l.settings, g.settingsLabel())
	g.drawSunkenPanel(screen, l.status)
	g.drawStatus(screen, l.status)

	if g.drawerOpen {
		g.drawDrawer(screen, l.drawer)
	}
	if g.alert != "" {
		g.drawAlert(screen)
	}
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	outsideW = max(outsideW, minWindowW)
	outsideH = max(outsideH, minWindowH)
	g.viewW = outsideW
	g.viewH = outsideH
	return outsideW, outsideH
}

func (g *game) Close() { _ = g.player.Close() }

// tick advances the turntable animation by the real frame time.
func (g *game) tick() {
	now := time.Now()
	dt := min(now.Sub(g.lastTick).Seconds(), maxFrameDt)
	g.lastTick = now
	st := g.player.State()
	g.driver.Tick(visual.Frame{
		Now:    now.Sub(g.started),
		Dt:     dt,
		Active: st.Playing,
		Level:  g.player.Level(),
	})
	target := 0.0
	if g.driver.HasLevel() {
		target = 1
	}
	g.glow += (target - g.glow) * 0.05
}

func (g *game) pollLoad() {
	if g.pending == nil {
		return
	}
	select {
	case res, ok := <-g.pending:
		g.pending = nil
		if !ok {
			return
		}
		if err := g.player.Load(res); err != nil {
			if errors.Is(err, retrovinyl.ErrSuperseded) {
				return
			}
			g.showError("Failed to load audio: " + err.Error())
			return
		}
		g.driver.Reset(time.Since(g.started))
		g.loadedPath = g.pendingPath
		g.setStatus("Playing " + res.Name)
	default:
	}
}

func (g *game) pollEvents() {
	for {
		select {
		case ev, ok := <-g.events:
			if !ok {
				return
			}
			if ev.Kind == retrovinyl.EventPlaybackEnded && !g.statusErr {
				g.status = "Playback ended"
			}
		default:
			return
		}
	}
}

func (g *game) handleKeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		g.drawerOpen = !g.drawerOpen
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		g.drawerOpen = false
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.togglePlayPause()
	}
}

func (g *game) handleAlert() {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) ||
		inpututil.IsKeyJustPressed(ebiten.KeyEnter) ||
		inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.alert = ""
	}
}

// handleDrops opens the first file dropped onto the window.
func (g *game) handleDrops() {
	dropped := ebiten.DroppedFiles()
	if dropped == nil {
		return
	}
	entries, err := fs.ReadDir(dropped, ".")
	if err != nil {
		g.showError(err.Error())
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := fs.ReadFile(dropped, e.Name())
		if err != nil {
			g.showError(err.Error())
			return
		}
		ch, err := g.player.OpenBytes(e.Name(), data)
		if err != nil {
			g.showOpenError(err)
			return
		}
		g.startLoading(ch, e.Name())
		return
	}
}

func (g *game) handleMouse() {
	mx, my := ebiten.CursorPosition()
	l := g.layoutRects()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		switch {
		case pointInRect(mx, my, l.play):
			g.togglePlayPause()
			return
		case pointInRect(mx, my, l.settings):
			g.drawerOpen = !g.drawerOpen
			return
		case pointInRect(mx, my, l.seek):
			if g.player.State().Loaded {
				g.draggingSeek = true
				g.seekFromMouse(mx, l.seek)
				g.driver.Pulse()
			}
			return
		case g.drawerOpen && pointInRect(mx, my, l.drawer):
			g.clickDrawer(mx, my, l.drawer)
			return
		case g.drawerOpen:
			// Clicking the stage behind the drawer closes it.
			g.drawerOpen = false
			return
		}
	}
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		g.dragging = sliderNone
		g.draggingSeek = false
	}
	if g.draggingSeek {
		g.seekFromMouse(mx, l.seek)
	}
	if g.dragging != sliderNone && g.drawerOpen {
		g.dragSlider(mx, l.drawer)
	}

	_, wy := ebiten.Wheel()
	if wy != 0 && g.drawerOpen && pointInRect(mx, my, g.drawerLayout(l.drawer).files) {
		g.navScroll = max(0, g.navScroll-int(wy*2))
	}
}

func (g *game) open(path string) {
	ch, err := g.player.Open(path)
	if err != nil {
		g.showOpenError(err)
		return
	}
	g.startLoading(ch, filepath.Base(path))
	g.pendingPath = path
}

func (g *game) startLoading(ch <-chan retrovinyl.LoadResult, name string) {
	g.pending = ch
	g.pendingPath = ""
	g.drawerOpen = false
	g.setStatus("Loading " + name + "...")
}

func (g *game) showOpenError(err error) {
	if errors.Is(err, retrovinyl.ErrUnsupportedFile) {
		g.showError("Please choose an audio file (MP3, WAV, OGG or AIFF)")
		return
	}
	g.showError(err.Error())
}

func (g *game) togglePlayPause() {
	g.drawerOpen = false
	err := g.player.TogglePause()
	switch {
	case errors.Is(err, retrovinyl.ErrNoSource):
		g.showError("Please open an audio file first")
	case err != nil:
		g.showError(err.Error())
	case g.player.State().Paused:
		g.setStatus("Paused")
	default:
		g.setStatus("Playing " + g.player.Name())
	}
}

func (g *game) seekFromMouse(mx int, rect image.Rectangle) {
	bar := seekTrack(rect)
	if bar.Dx() <= 0 {
		return
	}
	frac := clamp(float64(mx-bar.Min.X)/float64(bar.Dx()), 0, 1)
	if err := g.player.SeekFraction(frac); err != nil {
		g.draggingSeek = false
	}
}

func (g *game) playButtonLabel() string {
	if g.player.State().Playing {
		return "Pause"
	}
	return "Play"
}

func (g *game) settingsLabel() string {
	if g.drawerOpen {
		return "Hide (H)"
	}
	return "Settings (H)"
}

// showError raises the blocking alert and mirrors it on the status line.
func (g *game) showError(msg string) {
	g.alert = msg
	g.setError(msg)
}

func (g *game) setError(msg string) {
	g.status = msg
	g.statusErr = true
}

func (g *game) setStatus(msg string) {
	g.status = msg
	g.statusErr = false
}

type uiLayout struct {
	stage, drawer        image.Rectangle
	play, seek, settings image.Rectangle
	status               image.Rectangle
}

func (g *game) layoutRects() uiLayout {
	w := max(g.viewW, minWindowW)
	h := max(g.viewH, minWindowH)

	pad := 20
	rowH := 44
	statusH := 32

	statusTop := h - pad - statusH
	controlsTop := statusTop - 8 - rowH

	settingsW := 160
	playRect := image.Rect(pad, controlsTop, pad+120, controlsTop+rowH)
	settingsRect := image.Rect(w-pad-settingsW, controlsTop, w-pad, controlsTop+rowH)
	seekRect := image.Rect(playRect.Max.X+12, controlsTop, settingsRect.Min.X-12, controlsTop+rowH)

	stageRect := image.Rect(0, 0, w, controlsTop-12)
	drawerRect := image.Rect(w-pad-drawerW, pad, w-pad, controlsTop-12)

	return uiLayout{
		stage:    stageRect,
		drawer:   drawerRect,
		play:     playRect,
		seek:     seekRect,
		settings: settingsRect,
		status:   image.Rect(pad, statusTop, w-pad, statusTop+statusH),
	}
}

func (g *game) drawStatus(screen *ebiten.Image, rect image.Rectangle) {
	msg := "Status: " + g.status
	if g.statusErr {
		msg = "Status: ERROR - " + g.status
	}
	maxChars := max(8, (rect.Dx()-16)/charW)
	g.drawText(screen, shortenEnd(msg, maxChars), rect.Min.X+8, rect.Min.Y+(rect.Dy()-lineH)/2, textColor)
}

func (g *game) drawAlert(screen *ebiten.Image) {
	fillRect(screen, image.Rect(0, 0, g.viewW, g.viewH), color.RGBA{0, 0, 0, 150})
	w := min(560, g.viewW-80)
	h := 150
	x := (g.viewW - w) / 2
	y := (g.viewH - h) / 2
	box := image.Rect(x, y, x+w, y+h)
	g.drawPanel(screen, box)
	title := image.Rect(x+3, y+3, x+w-3, y+3+lineH+6)
	fillRect(screen, title, highlightColor)
	g.drawText(screen, "Retro Vinyl", title.Min.X+6, title.Min.Y+3, textColor)

	maxChars := max(8, (w-32)/charW)
	lines := wrapText(g.alert, maxChars)
	for i, line := range lines[:min(len(lines), 3)] {
		g.drawText(screen, line, x+16, title.Max.Y+14+i*lineH, labelColor)
	}
	ok := image.Rect(x+w/2-50, y+h-46, x+w/2+50, y+h-14)
	g.drawButton(screen, ok, "OK")
}

func formatTime(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	total := int(sec)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func main() {
	var initialPath string
	if len(os.Args) > 1 {
		p, err := filepath.Abs(os.Args[1])
		if err != nil {
			log.Fatalf("resolve %q: %v", os.Args[1], err)
		}
		initialPath = p
	}

	g, err := newGame(initialPath)
	if err != nil {
		log.Fatal(err)
	}
	defer g.Close()

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(minWindowW, minWindowH, -1, -1)
	ebiten.SetWindowTitle("retrovinyl-go player")
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
