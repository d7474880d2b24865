package ui

import (
	"github.com/go-faster/errors"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/bus"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/emu"
)

// KeyMap holds the keyboard key of each DMG button, indexed by button bit.
type KeyMap [8]ebiten.Key

// NewKeyMap resolves the key names of the input configuration.
func NewKeyMap(cfg emu.InputConfig) (KeyMap, error) {
	var km KeyMap
	names := [8]string{cfg.Right, cfg.Left, cfg.Up, cfg.Down, cfg.A, cfg.B, cfg.Select, cfg.Start}
	for i, name := range names {
		if err := km[i].UnmarshalText([]byte(name)); err != nil {
			return km, errors.Wrapf(err, "button %d", i)
		}
	}
	return km, nil
}

// Buttons returns the DMG buttons whose key is currently down.
func (km KeyMap) Buttons(pressed func(ebiten.Key) bool) bus.Button {
	var held bus.Button
	for i, k := range km {
		if pressed(k) {
			held |= 1 << i
		}
	}
	return held
}
