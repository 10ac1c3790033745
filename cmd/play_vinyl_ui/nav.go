package main

import (
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cbegin/retrovinyl-go/internal/decode"
	"github.com/hajimehoshi/ebiten/v2"
)

type navEntry struct {
	name  string
	path  string
	isDir bool
}

// refreshNav lists the sub-directories and audio files of g.cwd.
func (g *game) refreshNav() error {
	entries, err := os.ReadDir(g.cwd)
	if err != nil {
		g.nav = nil
		return err
	}
	nav := make([]navEntry, 0, len(entries)+1)
	if parent := filepath.Dir(g.cwd); parent != g.cwd {
		nav = append(nav, navEntry{name: "..", path: parent, isDir: true})
	}
	var dirs, files []navEntry
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		full := filepath.Join(g.cwd, name)
		if e.IsDir() {
			dirs = append(dirs, navEntry{name: name + "/", path: full, isDir: true})
			continue
		}
		if decode.IsAudio(decode.DetectMIME(name, nil)) {
			files = append(files, navEntry{name: name, path: full})
		}
	}
	byName := func(s []navEntry) {
		sort.Slice(s, func(i, j int) bool { return strings.ToLower(s[i].name) < strings.ToLower(s[j].name) })
	}
	byName(dirs)
	byName(files)
	g.nav = append(append(nav, dirs...), files...)
	g.navScroll = 0
	return nil
}

func navRows(rect image.Rectangle) int {
	return max(1, (rect.Dy()-8-lineH)/lineH)
}

func (g *game) clickNavigator(mx, my int, rect image.Rectangle) {
	row := (my - rect.Min.Y - 4 - lineH) / lineH
	if my-rect.Min.Y-4-lineH < 0 || row >= navRows(rect) {
		return
	}
	idx := g.navScroll + row
	if idx < 0 || idx >= len(g.nav) {
		return
	}
	e := g.nav[idx]
	if !e.isDir {
		g.open(e.path)
		return
	}
	prev := g.cwd
	g.cwd = e.path
	if err := g.refreshNav(); err != nil {
		g.cwd = prev
		_ = g.refreshNav()
		g.showError(err.Error())
	}
}

func (g *game) drawNavigator(screen *ebiten.Image, rect image.Rectangle) {
	maxChars := max(4, (rect.Dx()-16)/charW)
	g.drawText(screen, shortenMiddle(g.cwd, maxChars), rect.Min.X+6, rect.Min.Y+4, borderColor)

	rows := navRows(rect)
	g.navScroll = min(g.navScroll, max(0, len(g.nav)-rows))
	if len(g.nav) == 0 {
		g.drawText(screen, "(no audio files)", rect.Min.X+6, rect.Min.Y+4+lineH, borderColor)
		return
	}
	for i := 0; i < rows; i++ {
		idx := g.navScroll + i
		if idx >= len(g.nav) {
			break
		}
		e := g.nav[idx]
		y := rect.Min.Y + 4 + lineH*(i+1)
		c := textColor
		if e.isDir {
			c = panelColor
		}
		if e.path == g.loadedPath {
			fillRect(screen, image.Rect(rect.Min.X+2, y-1, rect.Max.X-2, y+lineH-1), highlightColor)
		}
		g.drawText(screen, shortenEnd(e.name, maxChars), rect.Min.X+6, y, c)
	}
}
