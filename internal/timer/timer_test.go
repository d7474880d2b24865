package timer

import (
	"testing"

	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/bus"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/irq"
)

func newTimer() (*Timer, *bus.Bus) {
	b := bus.New()
	return New(b, irq.New(b)), b
}

func TestTimer_DIV(t *testing.T) {
	tm, b := newTimer()
	tm.Tick(255)
	if got := b.Read8(bus.DIV); got != 0 {
		t.Fatalf("DIV got %02X want 00", got)
	}
	tm.Tick(1)
	if got := b.Read8(bus.DIV); got != 1 {
		t.Fatalf("DIV got %02X want 01", got)
	}
	tm.Tick(0x100 * 0x20)
	if got := b.Read8(bus.DIV); got != 0x21 {
		t.Fatalf("DIV got %02X want 21", got)
	}

	b.Write8(bus.DIV, 0x12)
	if got := b.Read8(bus.DIV); got != 0 {
		t.Fatalf("DIV after write got %02X want 00", got)
	}
	if tm.Divider() != 0 {
		t.Fatalf("internal divider not reset: %04X", tm.Divider())
	}
}

func TestTimer_TIMAPeriod16(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 255, 256, 300} {
		tm, b := newTimer()
		b.Write8(bus.TAC, 0b101)
		b.Write8(bus.TMA, 0)
		tm.Tick(n * 16)
		if got := b.Read8(bus.TIMA); got != byte(n%256) {
			t.Errorf("N=%d: TIMA got %02X want %02X", n, got, byte(n%256))
		}
		wantIRQ := n >= 256
		if gotIRQ := b.Read8(bus.IF)&(1<<irq.Timer) != 0; gotIRQ != wantIRQ {
			t.Errorf("N=%d: timer interrupt requested=%t want %t", n, gotIRQ, wantIRQ)
		}
	}
}

func TestTimer_OverflowReloadsTMA(t *testing.T) {
	tm, b := newTimer()
	b.Write8(bus.TAC, 0b100) // enabled, period 256
	b.Write8(bus.TMA, 0xAB)
	b.Write8(bus.TIMA, 0xFF)

	tm.Tick(255)
	if got := b.Read8(bus.TIMA); got != 0xFF {
		t.Fatalf("TIMA got %02X want FF", got)
	}
	tm.Tick(1)
	if got := b.Read8(bus.TIMA); got != 0xAB {
		t.Fatalf("TIMA got %02X want AB", got)
	}
	if b.Read8(bus.IF)&(1<<irq.Timer) == 0 {
		t.Fatalf("timer interrupt not requested")
	}
}

func TestTimer_Disabled(t *testing.T) {
	tm, b := newTimer()
	b.Write8(bus.TAC, 0b001)
	tm.Tick(1000)
	if got := b.Read8(bus.TIMA); got != 0 {
		t.Fatalf("TIMA got %02X with timer disabled", got)
	}
}
