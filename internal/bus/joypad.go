package bus

// Button is a bitmask of the eight DMG buttons.
type Button uint8

const (
	ButtonRight Button = 1 << iota
	ButtonLeft
	ButtonUp
	ButtonDown
	ButtonA
	ButtonB
	ButtonSelect
	ButtonStart
)

// Joypad holds the buttons currently held down.
type Joypad struct {
	held Button
}

// Input returns the active-low low nibble of JOYP for the given select bits:
// bit 4 clear selects the d-pad, bit 5 clear the action buttons.
func (j *Joypad) Input(sel byte) byte {
	var pressed byte
	if sel&0x10 == 0 {
		pressed |= byte(j.held & 0x0F)
	}
	if sel&0x20 == 0 {
		pressed |= byte(j.held>>4) & 0x0F
	}
	return ^pressed & 0x0F
}

// SetButtons replaces the set of held buttons and reports whether any button
// went from released to pressed.
func (b *Bus) SetButtons(held Button) bool {
	pressed := held &^ b.joypad.held
	b.joypad.held = held
	return pressed != 0
}

func (b *Bus) Buttons() Button { return b.joypad.held }
