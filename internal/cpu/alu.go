package cpu

const (
	flagZ byte = 1 << 7
	flagN byte = 1 << 6
	flagH byte = 1 << 5
	flagC byte = 1 << 4
)

func (c *CPU) setZNHC(z, n, h, carry bool) {
	var f byte
	if z {
		f |= flagZ
	}
	if n {
		f |= flagN
	}
	if h {
		f |= flagH
	}
	if carry {
		f |= flagC
	}
	c.F = f
}

func (c *CPU) flag(f byte) bool { return c.F&f != 0 }

func (c *CPU) carry() byte {
	if c.flag(flagC) {
		return 1
	}
	return 0
}

// aluOp is one of the eight accumulator operations selected by bits 3-5 of
// the opcode, in encoding order.
type aluOp func(c *CPU, v byte)

var aluOps = [8]aluOp{
	(*CPU).add8, (*CPU).adc8, (*CPU).sub8, (*CPU).sbc8,
	(*CPU).and8, (*CPU).xor8, (*CPU).or8, (*CPU).cp8,
}

func (c *CPU) add8(v byte) {
	a := c.A
	r := uint16(a) + uint16(v)
	c.A = byte(r)
	c.setZNHC(c.A == 0, false, (a&0x0F)+(v&0x0F) > 0x0F, r > 0xFF)
}

func (c *CPU) adc8(v byte) {
	a, ci := c.A, c.carry()
	r := uint16(a) + uint16(v) + uint16(ci)
	c.A = byte(r)
	c.setZNHC(c.A == 0, false, (a&0x0F)+(v&0x0F)+ci > 0x0F, r > 0xFF)
}

func (c *CPU) sub8(v byte) {
	c.A = c.compare(v, 0)
}

func (c *CPU) sbc8(v byte) {
	c.A = c.compare(v, c.carry())
}

func (c *CPU) cp8(v byte) {
	c.compare(v, 0)
}

// compare computes A - v - ci, sets flags and returns the result.
func (c *CPU) compare(v, ci byte) byte {
	a := c.A
	r := int16(a) - int16(v) - int16(ci)
	res := byte(r)
	c.setZNHC(res == 0, true, int16(a&0x0F)-int16(v&0x0F)-int16(ci) < 0, r < 0)
	return res
}

func (c *CPU) and8(v byte) {
	c.A &= v
	c.setZNHC(c.A == 0, false, true, false)
}

func (c *CPU) xor8(v byte) {
	c.A ^= v
	c.setZNHC(c.A == 0, false, false, false)
}

func (c *CPU) or8(v byte) {
	c.A |= v
	c.setZNHC(c.A == 0, false, false, false)
}

// inc8 and dec8 leave C untouched.
func (c *CPU) inc8(v byte) byte {
	r := v + 1
	c.setZNHC(r == 0, false, r&0x0F == 0, c.flag(flagC))
	return r
}

func (c *CPU) dec8(v byte) byte {
	r := v - 1
	c.setZNHC(r == 0, true, r&0x0F == 0x0F, c.flag(flagC))
	return r
}

func (c *CPU) addHL(v uint16) {
	hl := c.HL()
	r := uint32(hl) + uint32(v)
	c.setZNHC(c.flag(flagZ), false, (hl&0x0FFF)+(v&0x0FFF) > 0x0FFF, r > 0xFFFF)
	c.setHL(uint16(r))
}

// spOffset returns SP plus the signed immediate. H and C come from adding
// the unsigned immediate to the low byte of SP.
func (c *CPU) spOffset() uint16 {
	e := c.fetch8()
	sp := c.SP
	c.setZNHC(false, false,
		(sp&0x0F)+uint16(e&0x0F) > 0x0F,
		(sp&0xFF)+uint16(e) > 0xFF)
	return sp + uint16(int8(e))
}

func (c *CPU) daa() {
	a, cy := c.A, c.flag(flagC)
	if !c.flag(flagN) {
		if cy || a > 0x99 {
			a += 0x60
			cy = true
		}
		if c.flag(flagH) || a&0x0F > 0x09 {
			a += 0x06
		}
	} else {
		if cy {
			a -= 0x60
		}
		if c.flag(flagH) {
			a -= 0x06
		}
	}
	c.A = a
	c.setZNHC(a == 0, c.flag(flagN), false, cy)
}

// Rotates and shifts. Each returns the result and sets Z,N,H,C as the CB
// prefixed forms do; the accumulator forms clear Z afterwards.

func (c *CPU) rlc(v byte) byte {
	r := v<<1 | v>>7
	c.setZNHC(r == 0, false, false, v&0x80 != 0)
	return r
}

func (c *CPU) rrc(v byte) byte {
	r := v>>1 | v<<7
	c.setZNHC(r == 0, false, false, v&0x01 != 0)
	return r
}

func (c *CPU) rl(v byte) byte {
	r := v<<1 | c.carry()
	c.setZNHC(r == 0, false, false, v&0x80 != 0)
	return r
}

func (c *CPU) rr(v byte) byte {
	r := v>>1 | c.carry()<<7
	c.setZNHC(r == 0, false, false, v&0x01 != 0)
	return r
}

func (c *CPU) sla(v byte) byte {
	r := v << 1
	c.setZNHC(r == 0, false, false, v&0x80 != 0)
	return r
}

func (c *CPU) sra(v byte) byte {
	r := v>>1 | v&0x80
	c.setZNHC(r == 0, false, false, v&0x01 != 0)
	return r
}

func (c *CPU) swap(v byte) byte {
	r := v<<4 | v>>4
	c.setZNHC(r == 0, false, false, false)
	return r
}

func (c *CPU) srl(v byte) byte {
	r := v >> 1
	c.setZNHC(r == 0, false, false, v&0x01 != 0)
	return r
}

func (c *CPU) bit(n uint, v byte) {
	c.setZNHC(v&(1<<n) == 0, false, true, c.flag(flagC))
}
