package ui

import (
	"fmt"
	"image/color"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var overlay = color.RGBA{0, 0, 0, 160}

func (a *App) drawMenu(screen *ebiten.Image) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	vector.DrawFilledRect(screen, 0, 0, float32(w), float32(h), overlay, false)

	var lines []string
	switch a.menu.mode {
	case menuMain:
		lines = append(lines, "Menu:")
		for i, item := range mainItems {
			if i < 2 {
				item = fmt.Sprintf("%s (%d)", item, a.menu.slot+1)
			}
			lines = append(lines, item)
		}
	case menuSlot:
		lines = append(lines, "Select slot:")
		for i := range numSlots {
			label := fmt.Sprintf("%d", i+1)
			if _, err := os.Stat(a.statePath(i)); err != nil {
				label += " [empty]"
			}
			lines = append(lines, label)
		}
	}

	for i, s := range lines {
		prefix := "  "
		if i == a.menu.idx+1 {
			prefix = "> "
		}
		if i == 0 {
			prefix = ""
		}
		ebitenutil.DebugPrintAt(screen, prefix+s, 8, 8+i*14)
	}
}
