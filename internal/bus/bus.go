// Package bus implements the 64KB DMG address space. All memory, including the
// I/O registers owned by the timer, PPU and interrupt controller, lives in a
// single array; components access it through Read8/Write8/Store8.
package bus

import (
	"io"

	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/log"
)

// I/O register addresses.
const (
	JOYP uint16 = 0xFF00
	SB   uint16 = 0xFF01
	SC   uint16 = 0xFF02
	DIV  uint16 = 0xFF04
	TIMA uint16 = 0xFF05
	TMA  uint16 = 0xFF06
	TAC  uint16 = 0xFF07
	IF   uint16 = 0xFF0F
	LCDC uint16 = 0xFF40
	STAT uint16 = 0xFF41
	SCY  uint16 = 0xFF42
	SCX  uint16 = 0xFF43
	LY   uint16 = 0xFF44
	LYC  uint16 = 0xFF45
	DMA  uint16 = 0xFF46
	BGP  uint16 = 0xFF47
	OBP0 uint16 = 0xFF48
	OBP1 uint16 = 0xFF49
	WY   uint16 = 0xFF4A
	WX   uint16 = 0xFF4B
	IE   uint16 = 0xFFFF
)

const (
	romEnd    = 0x8000
	ioStart   = 0xFF00
	ioEnd     = 0xFF80
	oamStart  = 0xFE00
	oamLength = 0xA0

	serialIRQ = 1 << 3
)

// A WriteFunc intercepts CPU writes to an I/O register. It receives the
// currently stored value and the written one and returns what gets stored.
type WriteFunc func(old, val byte) byte

type Bus struct {
	mem   [0x10000]byte
	flat  bool
	hooks [ioEnd - ioStart]WriteFunc

	serial func(byte)
	joypad Joypad
}

// New returns a bus with the DMG write semantics: ROM is read-only, JOYP and
// SC behave like hardware registers and DMA copies into OAM.
func New() *Bus {
	b := &Bus{}
	b.hooks[JOYP-ioStart] = b.writeJOYP
	b.hooks[SC-ioStart] = b.writeSC
	b.hooks[DMA-ioStart] = b.writeDMA
	return b
}

// NewFlat returns a bus where every address is plain RAM. Write hooks are
// never called, so the bus can be used to replay per-instruction state
// vectors that place data anywhere in the address space.
func NewFlat() *Bus {
	return &Bus{flat: true}
}

// Flat reports whether the bus was created by NewFlat.
func (b *Bus) Flat() bool { return b.flat }

// Load copies a ROM image at address 0. It must be called before emulation
// starts; the image is truncated to the ROM region.
func (b *Bus) Load(rom []byte) {
	n := copy(b.mem[:romEnd], rom)
	clear(b.mem[n:romEnd])
}

// OnWrite registers fn to intercept CPU writes to the I/O register at addr.
// Registering a hook on a flat bus is a no-op.
func (b *Bus) OnWrite(addr uint16, fn WriteFunc) {
	if addr < ioStart || addr >= ioEnd {
		panic("bus: write hook outside I/O page")
	}
	if b.flat {
		return
	}
	b.hooks[addr-ioStart] = fn
}

func (b *Bus) Read8(addr uint16) byte {
	if addr == JOYP && !b.flat {
		sel := b.mem[JOYP] & 0x30
		return 0xC0 | sel | b.joypad.Input(sel)
	}
	return b.mem[addr]
}

// Write8 performs a CPU write.
func (b *Bus) Write8(addr uint16, val byte) {
	if b.flat {
		b.mem[addr] = val
		return
	}
	switch {
	case addr < romEnd:
		log.ModMem.Debugf("ignored write to ROM %04X <- %02X", addr, val)
		return
	case addr >= ioStart && addr < ioEnd:
		if fn := b.hooks[addr-ioStart]; fn != nil {
			b.mem[addr] = fn(b.mem[addr], val)
			return
		}
	}
	b.mem[addr] = val
}

// Store8 writes a value the way hardware does: no hook and no protection.
func (b *Bus) Store8(addr uint16, val byte) {
	b.mem[addr] = val
}

func (b *Bus) Read16(addr uint16) uint16 {
	return uint16(b.Read8(addr)) | uint16(b.Read8(addr+1))<<8
}

// SetSerialFunc sets the sink receiving each byte sent over the serial port.
func (b *Bus) SetSerialFunc(fn func(byte)) { b.serial = fn }

// SetSerialWriter is a convenience wrapper around SetSerialFunc.
func (b *Bus) SetSerialWriter(w io.Writer) {
	if w == nil {
		b.serial = nil
		return
	}
	b.serial = func(c byte) { w.Write([]byte{c}) }
}

// Transfers complete instantly: there is no link partner, so the byte in SB
// is handed to the sink and the transfer-complete interrupt is raised.
func (b *Bus) writeSC(_, val byte) byte {
	if val != 0x81 {
		return val
	}
	c := b.mem[SB]
	log.ModSerial.WithField("sb", c).Debugf("serial transfer")
	if b.serial != nil {
		b.serial(c)
	}
	b.mem[IF] |= serialIRQ
	return val &^ 0x80
}

func (b *Bus) writeDMA(_, val byte) byte {
	src := uint16(val) << 8
	for i := uint16(0); i < oamLength; i++ {
		b.mem[oamStart+i] = b.Read8(src + i)
	}
	return val
}

func (b *Bus) writeJOYP(old, val byte) byte {
	return old&^0x30 | val&0x30
}

// Snapshot returns a copy of the whole address space.
func (b *Bus) Snapshot() []byte {
	return append([]byte(nil), b.mem[:]...)
}

// Restore overwrites the address space with a snapshot.
func (b *Bus) Restore(mem []byte) {
	copy(b.mem[:], mem)
}
