// Package cpu implements the Sharp SM83 core of the DMG.
package cpu

import (
	"io"

	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/irq"
)

// Memory is the CPU view of the bus.
type Memory interface {
	Read8(addr uint16) byte
	Write8(addr uint16, val byte)
}

// CPU is an SM83 core. Instruction costs are counted in M-cycles.
type CPU struct {
	// 8-bit registers. The low nibble of F always reads as zero.
	A, F byte
	B, C byte
	D, E byte
	H, L byte

	SP uint16
	PC uint16

	halted  bool
	stopped bool
	// set by HALT when an interrupt is already pending with IME unset: the
	// next opcode byte is fetched without incrementing PC.
	haltBug bool

	mem Memory
	irq *irq.Controller

	trace    io.Writer
	traceBuf []byte
}

// New creates a CPU in the DMG post-boot state.
func New(mem Memory, ic *irq.Controller) *CPU {
	c := &CPU{mem: mem, irq: ic}
	c.ResetNoBoot()
	return c
}

// ResetNoBoot sets registers to the values the DMG boot ROM leaves behind,
// so execution can start at the cartridge entry point.
func (c *CPU) ResetNoBoot() {
	c.A, c.F = 0x01, 0xB0
	c.B, c.C = 0x00, 0x13
	c.D, c.E = 0x00, 0xD8
	c.H, c.L = 0x01, 0x4D
	c.SP = 0xFFFE
	c.PC = 0x0100
	c.halted = false
	c.stopped = false
	c.haltBug = false
	c.irq.Disable()
}

func (c *CPU) Halted() bool  { return c.halted }
func (c *CPU) Stopped() bool { return c.stopped }

// Step executes one instruction and returns the number of M-cycles it took.
// A halted or stopped CPU idles for one M-cycle. Undefined opcodes abort
// with an *IllegalOpcodeError.
func (c *CPU) Step() (int, error) {
	c.irq.Commit()

	switch {
	case c.stopped:
		if c.irq.Requested()&(1<<irq.Joypad) == 0 {
			return 1, nil
		}
		c.stopped = false
	case c.halted:
		if c.irq.Pending() == 0 {
			return 1, nil
		}
		c.halted = false
	}

	if c.trace != nil {
		c.writeTrace()
	}

	pc := c.PC
	op := c.mem.Read8(pc)
	if c.haltBug {
		c.haltBug = false
	} else {
		c.PC++
	}

	if op == 0xCB {
		cb := c.fetch8()
		fn := cbOpcodes[cb]
		if fn == nil {
			return 0, &UnimplementedOpcodeError{Opcode: cb, Prefixed: true, PC: pc}
		}
		return fn(c), nil
	}

	fn := opcodes[op]
	if fn == nil {
		if isIllegal(op) {
			return 0, newIllegalOpcodeError(c, op, pc)
		}
		return 0, &UnimplementedOpcodeError{Opcode: op, PC: pc}
	}
	return fn(c), nil
}

// ServiceInterrupts dispatches the highest priority pending interrupt if
// IME allows it and returns the M-cycles spent doing so.
func (c *CPU) ServiceInterrupts() int {
	return c.irq.Service(c)
}

// Call pushes PC and jumps to addr. Interrupt dispatch uses it to enter a
// handler, which also wakes a halted CPU.
func (c *CPU) Call(addr uint16) {
	c.halted = false
	c.stopped = false
	c.push16(c.PC)
	c.PC = addr
}

func (c *CPU) read8(addr uint16) byte     { return c.mem.Read8(addr) }
func (c *CPU) write8(addr uint16, v byte) { c.mem.Write8(addr, v) }

func (c *CPU) fetch8() byte {
	b := c.read8(c.PC)
	c.PC++
	return b
}

func (c *CPU) fetch16() uint16 {
	lo := uint16(c.fetch8())
	hi := uint16(c.fetch8())
	return lo | (hi << 8)
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.read8(addr))
	hi := uint16(c.read8(addr + 1))
	return lo | (hi << 8)
}

func (c *CPU) write16(addr uint16, v uint16) {
	c.write8(addr, byte(v))
	c.write8(addr+1, byte(v>>8))
}

func (c *CPU) AF() uint16 { return uint16(c.A)<<8 | uint16(c.F&0xF0) }
func (c *CPU) BC() uint16 { return uint16(c.B)<<8 | uint16(c.C) }
func (c *CPU) DE() uint16 { return uint16(c.D)<<8 | uint16(c.E) }
func (c *CPU) HL() uint16 { return uint16(c.H)<<8 | uint16(c.L) }

func (c *CPU) setAF(v uint16) { c.A = byte(v >> 8); c.F = byte(v) & 0xF0 }
func (c *CPU) setBC(v uint16) { c.B = byte(v >> 8); c.C = byte(v) }
func (c *CPU) setDE(v uint16) { c.D = byte(v >> 8); c.E = byte(v) }
func (c *CPU) setHL(v uint16) { c.H = byte(v >> 8); c.L = byte(v) }

// The high byte is pushed first.
func (c *CPU) push16(v uint16) {
	c.SP--
	c.write8(c.SP, byte(v>>8))
	c.SP--
	c.write8(c.SP, byte(v))
}

func (c *CPU) pop16() uint16 {
	v := c.read16(c.SP)
	c.SP += 2
	return v
}

// State is a snapshot of the register file.
type State struct {
	A, F, B, C, D, E, H, L byte
	SP, PC                 uint16
	IME                    irq.IME
	Halted, Stopped        bool
	HaltBug                bool
}

func (c *CPU) State() State {
	return State{
		A: c.A, F: c.F, B: c.B, C: c.C, D: c.D, E: c.E, H: c.H, L: c.L,
		SP: c.SP, PC: c.PC,
		IME:     c.irq.IME(),
		Halted:  c.halted,
		Stopped: c.stopped,
		HaltBug: c.haltBug,
	}
}

func (c *CPU) SetState(s State) {
	c.A, c.F = s.A, s.F&0xF0
	c.B, c.C = s.B, s.C
	c.D, c.E = s.D, s.E
	c.H, c.L = s.H, s.L
	c.SP, c.PC = s.SP, s.PC
	c.irq.SetIME(s.IME)
	c.halted = s.Halted
	c.stopped = s.Stopped
	c.haltBug = s.HaltBug
}
