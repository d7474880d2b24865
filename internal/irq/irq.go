// Package irq implements the DMG interrupt controller: the IE and IF
// registers, the interrupt master enable and vector dispatch.
package irq

import (
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/bus"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/log"
)

// Source is an interrupt source, in priority order.
type Source uint8

const (
	VBlank Source = iota
	STAT
	Timer
	Serial
	Joypad
)

var sourceNames = [...]string{"vblank", "stat", "timer", "serial", "joypad"}

func (s Source) String() string { return sourceNames[s] }

// Vector returns the address the CPU jumps to when servicing s.
func (s Source) Vector() uint16 { return 0x40 + 8*uint16(s) }

// IME is the interrupt master enable. EI does not enable interrupts
// immediately, it moves IME to Pending and the next instruction fetch
// commits it.
type IME uint8

const (
	Unset IME = iota
	Pending
	Set
)

// DispatchCycles is the cost, in M-cycles, of servicing an interrupt.
const DispatchCycles = 5

// Memory is the part of the bus the controller needs.
type Memory interface {
	Read8(addr uint16) byte
	Store8(addr uint16, val byte)
}

// A Caller pushes the program counter and jumps to a vector.
type Caller interface {
	Call(addr uint16)
}

type Controller struct {
	mem Memory
	ime IME
}

func New(mem Memory) *Controller {
	return &Controller{mem: mem}
}

func (c *Controller) IME() IME       { return c.ime }
func (c *Controller) SetIME(ime IME) { c.ime = ime }
func (c *Controller) Disable()       { c.ime = Unset }
func (c *Controller) Enable()        { c.ime = Set }

func (c *Controller) EnableDelayed() {
	if c.ime == Unset {
		c.ime = Pending
	}
}

// Commit turns a pending enable into an effective one. The CPU calls it at
// the start of every instruction fetch.
func (c *Controller) Commit() {
	if c.ime == Pending {
		c.ime = Set
	}
}

// Request raises the IF bit of src.
func (c *Controller) Request(src Source) {
	c.mem.Store8(bus.IF, c.mem.Read8(bus.IF)|1<<src)
	log.ModIRQ.Debugf("request %s", src)
}

// Pending returns the set of interrupts both requested and enabled,
// regardless of IME.
func (c *Controller) Pending() byte {
	return c.mem.Read8(bus.IE) & c.mem.Read8(bus.IF) & 0x1F
}

// Service dispatches the highest priority pending interrupt if IME is set.
// It returns the number of M-cycles spent, 0 if nothing was dispatched.
func (c *Controller) Service(cpu Caller) int {
	if c.ime != Set {
		return 0
	}
	pending := c.Pending()
	if pending == 0 {
		return 0
	}
	var src Source
	for pending&(1<<src) == 0 {
		src++
	}
	c.mem.Store8(bus.IF, c.mem.Read8(bus.IF)&^(1<<src))
	c.ime = Unset
	log.ModIRQ.Debugf("dispatch %s to %04X", src, src.Vector())
	cpu.Call(src.Vector())
	return DispatchCycles
}

// Requested returns the raw IF bits.
func (c *Controller) Requested() byte {
	return c.mem.Read8(bus.IF) & 0x1F
}
