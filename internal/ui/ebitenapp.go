// Package ui is the ebiten window frontend: it paces the machine at the
// ebiten tick rate, feeds it keyboard input and draws its frames.
package ui

import (
	"fmt"
	"image/png"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/emu"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/log"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/ppu"
)

const fastForwardFrames = 5

type App struct {
	cfg  emu.Config
	m    *emu.Machine
	keys KeyMap
	pal  emu.Palette

	tex *ebiten.Image
	pix []byte

	paused bool
	fast   bool

	menu menu
	msg  string
	msgT time.Time
}

func NewApp(cfg emu.Config, m *emu.Machine) (*App, error) {
	keys, err := NewKeyMap(cfg.Input)
	if err != nil {
		return nil, err
	}
	cfg.Video.Check()

	a := &App{
		cfg:  cfg,
		m:    m,
		keys: keys,
		pix:  make([]byte, ppu.ScreenWidth*ppu.ScreenHeight*4),
		menu: menu{palette: -1},
	}
	a.pal = cfg.Video.ResolvePalette(a.header())
	return a, nil
}

func (a *App) Run() error {
	title := "gbdmg"
	if h := a.header(); h != nil && h.Title != "" {
		title += " - " + h.Title
	}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(ppu.ScreenWidth*a.cfg.Video.Scale, ppu.ScreenHeight*a.cfg.Video.Scale)
	return ebiten.RunGame(a)
}

func (a *App) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		a.menu.toggle()
	}
	if a.menu.open {
		return a.updateMenu()
	}

	a.m.SetButtons(a.keys.Buttons(ebiten.IsKeyPressed))

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		a.paused = !a.paused
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		a.m.Reset()
		a.toast("Reset")
	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		a.saveSlot()
	case inpututil.IsKeyJustPressed(ebiten.KeyF9):
		a.loadSlot()
	case inpututil.IsKeyJustPressed(ebiten.KeyF12):
		a.screenshot()
	}
	a.fast = ebiten.IsKeyPressed(ebiten.KeyTab)

	if a.paused {
		if inpututil.IsKeyJustPressed(ebiten.KeyN) {
			return a.m.StepFrame()
		}
		return nil
	}

	frames := 1
	if a.fast {
		frames = fastForwardFrames
	}
	for range frames {
		if err := a.m.StepFrame(); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(ppu.ScreenWidth, ppu.ScreenHeight)
	}
	a.pal.Paint(a.pix, a.m.Frame())
	a.tex.WritePixels(a.pix)
	screen.DrawImage(a.tex, nil)

	switch {
	case a.menu.open:
		a.drawMenu(screen)
	case a.paused:
		ebitenutil.DebugPrintAt(screen, "paused", 4, 4)
	}
	if a.msg != "" && time.Since(a.msgT) < 2*time.Second {
		ebitenutil.DebugPrintAt(screen, a.msg, 4, ppu.ScreenHeight-16)
	}
}

func (a *App) Layout(outW, outH int) (int, int) {
	return ppu.ScreenWidth, ppu.ScreenHeight
}

func (a *App) toast(msg string) {
	log.ModEmu.Infof("%s", msg)
	a.msg = msg
	a.msgT = time.Now()
}

func (a *App) screenshot() {
	name := fmt.Sprintf("screenshot_%s.png", time.Now().Format("20060102_150405"))
	f, err := os.Create(name)
	if err != nil {
		a.toast("Screenshot failed: " + err.Error())
		return
	}
	defer f.Close()
	if err := png.Encode(f, a.pal.Image(a.m.Frame())); err != nil {
		a.toast("Screenshot failed: " + err.Error())
		return
	}
	a.toast("Saved " + name)
}
