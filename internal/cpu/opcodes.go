package cpu

import (
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/irq"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/log"
)

// Operand encoding of the 3-bit register fields.
type reg8 uint8

const (
	regB reg8 = iota
	regC
	regD
	regE
	regH
	regL
	regHL // [HL]
	regA
)

var reg8Names = [8]string{"B", "C", "D", "E", "H", "L", "[HL]", "A"}

func (r reg8) String() string { return reg8Names[r] }

func (c *CPU) get8(r reg8) byte {
	switch r {
	case regB:
		return c.B
	case regC:
		return c.C
	case regD:
		return c.D
	case regE:
		return c.E
	case regH:
		return c.H
	case regL:
		return c.L
	case regHL:
		return c.read8(c.HL())
	}
	return c.A
}

func (c *CPU) set8(r reg8, v byte) {
	switch r {
	case regB:
		c.B = v
	case regC:
		c.C = v
	case regD:
		c.D = v
	case regE:
		c.E = v
	case regH:
		c.H = v
	case regL:
		c.L = v
	case regHL:
		c.write8(c.HL(), v)
	default:
		c.A = v
	}
}

// 16-bit register fields: BC, DE, HL, SP (or AF for PUSH/POP).
func (c *CPU) get16(idx byte, af bool) uint16 {
	switch idx {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.HL()
	}
	if af {
		return c.AF()
	}
	return c.SP
}

func (c *CPU) set16(idx byte, v uint16, af bool) {
	switch idx {
	case 0:
		c.setBC(v)
	case 1:
		c.setDE(v)
	case 2:
		c.setHL(v)
	default:
		if af {
			c.setAF(v)
		} else {
			c.SP = v
		}
	}
}

// cond evaluates the condition field: NZ, Z, NC, C.
func (c *CPU) cond(cc byte) bool {
	switch cc & 3 {
	case 0:
		return !c.flag(flagZ)
	case 1:
		return c.flag(flagZ)
	case 2:
		return !c.flag(flagC)
	}
	return c.flag(flagC)
}

// [BC], [DE], [HL+], [HL-]
func (c *CPU) indirect(idx byte) uint16 {
	switch idx {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		hl := c.HL()
		c.setHL(hl + 1)
		return hl
	}
	hl := c.HL()
	c.setHL(hl - 1)
	return hl
}

type opFunc func(c *CPU) int

var (
	opcodes   [256]opFunc
	cbOpcodes [256]opFunc
)

var illegalOpcodes = [...]byte{0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD}

func isIllegal(op byte) bool {
	for _, o := range illegalOpcodes {
		if o == op {
			return true
		}
	}
	return false
}

func init() {
	initLoads()
	initArith()
	initControl()
	initMisc()
	initCB()
}

func initLoads() {
	// LD r,r' (0x76 is HALT and gets overwritten in initMisc)
	for op := 0x40; op < 0x80; op++ {
		dst, src := reg8(op>>3&7), reg8(op&7)
		cycles := 1
		if dst == regHL || src == regHL {
			cycles = 2
		}
		opcodes[op] = func(c *CPU) int {
			c.set8(dst, c.get8(src))
			return cycles
		}
	}

	for i := 0; i < 8; i++ {
		r := reg8(i)
		cycles := 2
		if r == regHL {
			cycles = 3
		}
		// LD r,n8
		opcodes[0x06|i<<3] = func(c *CPU) int {
			c.set8(r, c.fetch8())
			return cycles
		}
	}

	for i := byte(0); i < 4; i++ {
		idx := i
		// LD r16,n16
		opcodes[0x01|idx<<4] = func(c *CPU) int {
			c.set16(idx, c.fetch16(), false)
			return 3
		}
		// LD [r16],A
		opcodes[0x02|idx<<4] = func(c *CPU) int {
			c.write8(c.indirect(idx), c.A)
			return 2
		}
		// LD A,[r16]
		opcodes[0x0A|idx<<4] = func(c *CPU) int {
			c.A = c.read8(c.indirect(idx))
			return 2
		}
		// POP r16
		opcodes[0xC1|idx<<4] = func(c *CPU) int {
			c.set16(idx, c.pop16(), true)
			return 3
		}
		// PUSH r16
		opcodes[0xC5|idx<<4] = func(c *CPU) int {
			c.push16(c.get16(idx, true))
			return 4
		}
	}

	opcodes[0x08] = func(c *CPU) int { // LD [a16],SP
		c.write16(c.fetch16(), c.SP)
		return 5
	}
	opcodes[0xE0] = func(c *CPU) int { // LDH [a8],A
		c.write8(0xFF00|uint16(c.fetch8()), c.A)
		return 3
	}
	opcodes[0xF0] = func(c *CPU) int { // LDH A,[a8]
		c.A = c.read8(0xFF00 | uint16(c.fetch8()))
		return 3
	}
	opcodes[0xE2] = func(c *CPU) int { // LD [C],A
		c.write8(0xFF00|uint16(c.C), c.A)
		return 2
	}
	opcodes[0xF2] = func(c *CPU) int { // LD A,[C]
		c.A = c.read8(0xFF00 | uint16(c.C))
		return 2
	}
	opcodes[0xEA] = func(c *CPU) int { // LD [a16],A
		c.write8(c.fetch16(), c.A)
		return 4
	}
	opcodes[0xFA] = func(c *CPU) int { // LD A,[a16]
		c.A = c.read8(c.fetch16())
		return 4
	}
	opcodes[0xF8] = func(c *CPU) int { // LD HL,SP+e8
		c.setHL(c.spOffset())
		return 3
	}
	opcodes[0xF9] = func(c *CPU) int { // LD SP,HL
		c.SP = c.HL()
		return 2
	}
}

func initArith() {
	for i := 0; i < 8; i++ {
		r := reg8(i)
		cycles := 1
		if r == regHL {
			cycles = 3
		}
		opcodes[0x04|i<<3] = func(c *CPU) int { // INC r8
			c.set8(r, c.inc8(c.get8(r)))
			return cycles
		}
		opcodes[0x05|i<<3] = func(c *CPU) int { // DEC r8
			c.set8(r, c.dec8(c.get8(r)))
			return cycles
		}
	}

	for op := 0x80; op < 0xC0; op++ {
		alu, src := aluOps[op>>3&7], reg8(op&7)
		cycles := 1
		if src == regHL {
			cycles = 2
		}
		opcodes[op] = func(c *CPU) int {
			alu(c, c.get8(src))
			return cycles
		}
	}
	for i := 0; i < 8; i++ {
		alu := aluOps[i]
		opcodes[0xC6|i<<3] = func(c *CPU) int { // ALU A,n8
			alu(c, c.fetch8())
			return 2
		}
	}

	for i := byte(0); i < 4; i++ {
		idx := i
		opcodes[0x03|idx<<4] = func(c *CPU) int { // INC r16
			c.set16(idx, c.get16(idx, false)+1, false)
			return 2
		}
		opcodes[0x0B|idx<<4] = func(c *CPU) int { // DEC r16
			c.set16(idx, c.get16(idx, false)-1, false)
			return 2
		}
		opcodes[0x09|idx<<4] = func(c *CPU) int { // ADD HL,r16
			c.addHL(c.get16(idx, false))
			return 2
		}
	}

	opcodes[0xE8] = func(c *CPU) int { // ADD SP,e8
		c.SP = c.spOffset()
		return 4
	}

	// RLCA, RRCA, RLA, RRA
	accRot := [4]func(c *CPU, v byte) byte{(*CPU).rlc, (*CPU).rrc, (*CPU).rl, (*CPU).rr}
	for i, rot := range accRot {
		opcodes[0x07|i<<3] = func(c *CPU) int {
			c.A = rot(c, c.A)
			c.F &^= flagZ
			return 1
		}
	}

	opcodes[0x27] = func(c *CPU) int { // DAA
		c.daa()
		return 1
	}
	opcodes[0x2F] = func(c *CPU) int { // CPL
		c.A = ^c.A
		c.F |= flagN | flagH
		return 1
	}
	opcodes[0x37] = func(c *CPU) int { // SCF
		c.setZNHC(c.flag(flagZ), false, false, true)
		return 1
	}
	opcodes[0x3F] = func(c *CPU) int { // CCF
		c.setZNHC(c.flag(flagZ), false, false, !c.flag(flagC))
		return 1
	}
}

func initControl() {
	opcodes[0x18] = func(c *CPU) int { // JR e8
		c.jr()
		return 3
	}
	opcodes[0xC3] = func(c *CPU) int { // JP a16
		c.PC = c.fetch16()
		return 4
	}
	opcodes[0xE9] = func(c *CPU) int { // JP HL
		c.PC = c.HL()
		return 1
	}
	opcodes[0xCD] = func(c *CPU) int { // CALL a16
		addr := c.fetch16()
		c.push16(c.PC)
		c.PC = addr
		return 6
	}
	opcodes[0xC9] = func(c *CPU) int { // RET
		c.PC = c.pop16()
		return 4
	}
	opcodes[0xD9] = func(c *CPU) int { // RETI
		c.PC = c.pop16()
		c.irq.Enable()
		return 4
	}

	for i := byte(0); i < 4; i++ {
		cc := i
		opcodes[0x20|cc<<3] = func(c *CPU) int { // JR cc,e8
			if c.cond(cc) {
				c.jr()
				return 3
			}
			c.PC++
			return 2
		}
		opcodes[0xC2|cc<<3] = func(c *CPU) int { // JP cc,a16
			addr := c.fetch16()
			if c.cond(cc) {
				c.PC = addr
				return 4
			}
			return 3
		}
		opcodes[0xC4|cc<<3] = func(c *CPU) int { // CALL cc,a16
			addr := c.fetch16()
			if c.cond(cc) {
				c.push16(c.PC)
				c.PC = addr
				return 6
			}
			return 3
		}
		opcodes[0xC0|cc<<3] = func(c *CPU) int { // RET cc
			if c.cond(cc) {
				c.PC = c.pop16()
				return 5
			}
			return 2
		}
	}

	for i := 0; i < 8; i++ {
		vec := uint16(i) * 8
		opcodes[0xC7|i<<3] = func(c *CPU) int { // RST
			c.push16(c.PC)
			c.PC = vec
			return 4
		}
	}
}

// jr jumps relative to the address following the offset byte.
func (c *CPU) jr() {
	e := int8(c.fetch8())
	c.PC += uint16(e)
}

func initMisc() {
	opcodes[0x00] = func(c *CPU) int { return 1 } // NOP

	opcodes[0x10] = func(c *CPU) int { // STOP
		c.stopped = true
		log.ModCPU.Debugf("STOP at %04X", c.PC-1)
		return 1
	}
	opcodes[0x76] = func(c *CPU) int { // HALT
		if c.irq.IME() != irq.Set && c.irq.Pending() != 0 {
			c.haltBug = true
			log.ModCPU.Debugf("halt bug at %04X", c.PC-1)
			return 1
		}
		c.halted = true
		return 1
	}
	opcodes[0xF3] = func(c *CPU) int { // DI
		c.irq.Disable()
		return 1
	}
	opcodes[0xFB] = func(c *CPU) int { // EI
		c.irq.EnableDelayed()
		return 1
	}
}

func initCB() {
	shifts := [8]func(c *CPU, v byte) byte{
		(*CPU).rlc, (*CPU).rrc, (*CPU).rl, (*CPU).rr,
		(*CPU).sla, (*CPU).sra, (*CPU).swap, (*CPU).srl,
	}
	for op := 0; op < 0x100; op++ {
		r, n := reg8(op&7), uint(op>>3&7)
		rmw := 2
		if r == regHL {
			rmw = 4
		}
		switch op >> 6 {
		case 0:
			shift := shifts[n]
			cbOpcodes[op] = func(c *CPU) int {
				c.set8(r, shift(c, c.get8(r)))
				return rmw
			}
		case 1:
			cycles := 2
			if r == regHL {
				cycles = 3
			}
			cbOpcodes[op] = func(c *CPU) int {
				c.bit(n, c.get8(r))
				return cycles
			}
		case 2:
			cbOpcodes[op] = func(c *CPU) int {
				c.set8(r, c.get8(r)&^(1<<n))
				return rmw
			}
		case 3:
			cbOpcodes[op] = func(c *CPU) int {
				c.set8(r, c.get8(r)|1<<n)
				return rmw
			}
		}
	}
}
