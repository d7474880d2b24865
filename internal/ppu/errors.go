package ppu

import "fmt"

// ModeTransitionError reports a transition the PPU state machine never
// makes on hardware. It indicates a bug in the emulator.
type ModeTransitionError struct {
	From, To Mode
	LY       byte
	Dot      int
}

func (e *ModeTransitionError) Error() string {
	return fmt.Sprintf("invalid PPU mode transition %s -> %s at LY=%d dot=%d", e.From, e.To, e.LY, e.Dot)
}
