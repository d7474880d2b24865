package ui

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/cart"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/emu"
)

const numSlots = 4

type menuMode int

const (
	menuMain menuMode = iota
	menuSlot
)

var mainItems = []string{"Save state", "Load state", "Select slot", "Palette", "Reset", "Close"}

type menu struct {
	open    bool
	mode    menuMode
	idx     int
	slot    int
	palette int // index in emu.PaletteNames, -1 for the configured one
}

func (mn *menu) toggle() {
	mn.open = !mn.open
	mn.mode = menuMain
	mn.idx = 0
}

func (mn *menu) move(n int) {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && mn.idx > 0 {
		mn.idx--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && mn.idx < n-1 {
		mn.idx++
	}
}

func (a *App) updateMenu() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		if a.menu.mode == menuMain {
			a.menu.open = false
			return nil
		}
		a.menu.mode, a.menu.idx = menuMain, 0
		return nil
	}

	switch a.menu.mode {
	case menuMain:
		a.menu.move(len(mainItems))
		if !inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
			return nil
		}
		switch a.menu.idx {
		case 0:
			a.saveSlot()
		case 1:
			a.loadSlot()
		case 2:
			a.menu.mode, a.menu.idx = menuSlot, a.menu.slot
		case 3:
			a.nextPalette()
		case 4:
			a.m.Reset()
			a.toast("Reset")
			a.menu.open = false
		case 5:
			a.menu.open = false
		}
	case menuSlot:
		a.menu.move(numSlots)
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
			a.menu.slot = a.menu.idx
			a.toast(fmt.Sprintf("Slot set to %d", a.menu.slot+1))
			a.menu.mode, a.menu.idx = menuMain, 0
		}
	}
	return nil
}

func (a *App) header() *cart.Header {
	if rom := a.m.ROM(); rom != nil {
		return rom.Header
	}
	return nil
}

// statePath returns the save state file of a slot, next to the ROM.
func (a *App) statePath(slot int) string {
	base := "gbdmg"
	if rom := a.m.ROM(); rom != nil {
		base = strings.TrimSuffix(rom.Path, ".gb")
	}
	return base + ".state" + strconv.Itoa(slot+1)
}

func (a *App) saveSlot() {
	if err := a.m.SaveStateFile(a.statePath(a.menu.slot)); err != nil {
		a.toast("Save failed: " + err.Error())
		return
	}
	a.toast(fmt.Sprintf("Saved slot %d", a.menu.slot+1))
}

func (a *App) loadSlot() {
	path := a.statePath(a.menu.slot)
	if _, err := os.Stat(path); err != nil {
		a.toast("Slot is empty")
		return
	}
	if err := a.m.LoadStateFile(path); err != nil {
		a.toast("Load failed: " + err.Error())
		return
	}
	a.toast(fmt.Sprintf("Loaded slot %d", a.menu.slot+1))
}

func (a *App) nextPalette() {
	names := emu.PaletteNames()
	a.menu.palette = (a.menu.palette + 1) % len(names)
	p, err := emu.ParsePalette(names[a.menu.palette])
	if err != nil {
		return
	}
	a.pal = p
	a.toast("Palette: " + names[a.menu.palette])
}
