package bus

import (
	"bytes"
	"testing"
)

func TestBus_ROMIsReadOnly(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[0x0100] = 0x42
	b := New()
	b.Load(rom)

	if got := b.Read8(0x0100); got != 0x42 {
		t.Fatalf("ROM read got %02x, want 42", got)
	}
	b.Write8(0x0100, 0x99)
	if got := b.Read8(0x0100); got != 0x42 {
		t.Fatalf("ROM write went through: got %02x, want 42", got)
	}

	b.Write8(0xC000, 0x99)
	if got := b.Read8(0xC000); got != 0x99 {
		t.Fatalf("RAM read got %02x, want 99", got)
	}
	b.Write8(0xFFFF, 0x1B)
	if got := b.Read8(0xFFFF); got != 0x1B {
		t.Fatalf("IE read got %02x, want 1B", got)
	}
}

func TestBus_FlatAcceptsEveryAddress(t *testing.T) {
	b := NewFlat()
	for _, addr := range []uint16{0x0000, 0x4000, JOYP, SC, DMA, 0xFFFF} {
		b.Write8(addr, 0x81)
		if got := b.Read8(addr); got != 0x81 {
			t.Errorf("addr %04X got %02x, want 81", addr, got)
		}
	}
}

func TestBus_WriteHook(t *testing.T) {
	b := New()
	b.Store8(STAT, 0x85)
	b.OnWrite(STAT, func(old, val byte) byte { return val&^0x07 | old&0x07 })

	b.Write8(STAT, 0x48)
	if got := b.Read8(STAT); got != 0x4D {
		t.Fatalf("STAT got %02X want 4D", got)
	}
	// Store8 bypasses hooks.
	b.Store8(STAT, 0x02)
	if got := b.Read8(STAT); got != 0x02 {
		t.Fatalf("STAT got %02X want 02", got)
	}
}

func TestBus_SerialImmediate(t *testing.T) {
	b := New()
	var out bytes.Buffer
	b.SetSerialWriter(&out)

	for _, c := range []byte("Passed") {
		b.Write8(SB, c)
		b.Write8(SC, 0x81)
	}
	if got := out.String(); got != "Passed" {
		t.Fatalf("serial output %q, want %q", got, "Passed")
	}
	if got := b.Read8(SC); got&0x80 != 0 {
		t.Fatalf("SC transfer bit still set: %02X", got)
	}
	if b.Read8(IF)&serialIRQ == 0 {
		t.Fatalf("serial interrupt not requested")
	}

	// Internal clock without start bit: no transfer.
	out.Reset()
	b.Write8(SC, 0x01)
	if out.Len() != 0 {
		t.Fatalf("unexpected serial output %q", out.String())
	}
}

func TestBus_OAMDMA(t *testing.T) {
	b := New()
	for i := uint16(0); i < oamLength; i++ {
		b.Write8(0xC000+i, byte(i))
	}
	b.Write8(DMA, 0xC0)
	for i := uint16(0); i < oamLength; i++ {
		if got := b.Read8(oamStart + i); got != byte(i) {
			t.Fatalf("OAM[%d] = %02X want %02X", i, got, byte(i))
		}
	}
}

func TestBus_Joypad(t *testing.T) {
	b := New()

	b.Write8(JOYP, 0x30)
	if got := b.Read8(JOYP); got&0x0F != 0x0F {
		t.Fatalf("JOYP no selection got %02x want low nibble 0F", got)
	}

	if !b.SetButtons(ButtonRight | ButtonUp) {
		t.Fatalf("SetButtons did not report a new press")
	}
	b.Write8(JOYP, 0x20) // d-pad
	if got := b.Read8(JOYP) & 0x0F; got != 0x0A {
		t.Fatalf("JOYP d-pad got %02x want 0A", got)
	}

	b.SetButtons(ButtonA | ButtonStart)
	b.Write8(JOYP, 0x10) // buttons
	if got := b.Read8(JOYP) & 0x0F; got != 0x06 {
		t.Fatalf("JOYP buttons got %02x want 06", got)
	}

	if b.SetButtons(ButtonA) {
		t.Fatalf("releasing a button reported a new press")
	}
}
