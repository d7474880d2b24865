package cpu

import "io"

// SetTraceWriter makes the CPU write one line per executed instruction to w,
// in the format used by gameboy-doctor:
//
//	A:01 F:B0 B:00 C:13 D:00 E:D8 H:01 L:4D SP:FFFE PC:0100 PCMEM:00,C3,13,02
//
// A nil writer disables tracing.
func (c *CPU) SetTraceWriter(w io.Writer) {
	c.trace = w
	if c.traceBuf == nil {
		c.traceBuf = make([]byte, 0, 80)
	}
}

func appendHex(dst []byte, v byte) []byte {
	const hextable = "0123456789ABCDEF"
	return append(dst, hextable[v>>4], hextable[v&0x0f])
}

func appendReg(dst []byte, name string, v byte) []byte {
	dst = append(dst, name...)
	dst = append(dst, ':')
	dst = appendHex(dst, v)
	return append(dst, ' ')
}

func (c *CPU) writeTrace() {
	buf := c.traceBuf[:0]
	buf = appendReg(buf, "A", c.A)
	buf = appendReg(buf, "F", c.F)
	buf = appendReg(buf, "B", c.B)
	buf = appendReg(buf, "C", c.C)
	buf = appendReg(buf, "D", c.D)
	buf = appendReg(buf, "E", c.E)
	buf = appendReg(buf, "H", c.H)
	buf = appendReg(buf, "L", c.L)

	buf = append(buf, "SP:"...)
	buf = appendHex(buf, byte(c.SP>>8))
	buf = appendHex(buf, byte(c.SP))
	buf = append(buf, " PC:"...)
	buf = appendHex(buf, byte(c.PC>>8))
	buf = appendHex(buf, byte(c.PC))

	buf = append(buf, " PCMEM:"...)
	for i := uint16(0); i < 4; i++ {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendHex(buf, c.read8(c.PC+i))
	}
	buf = append(buf, '\n')

	c.traceBuf = buf
	c.trace.Write(buf)
}
