// Package timer implements the DMG divider and programmable timer.
package timer

import (
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/bus"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/irq"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/log"
)

// periods in T-cycles, indexed by TAC bits 0-1.
var periods = [4]int{256, 4, 16, 64}

type Memory interface {
	Read8(addr uint16) byte
	Store8(addr uint16, val byte)
	OnWrite(addr uint16, fn bus.WriteFunc)
}

type Requester interface {
	Request(irq.Source)
}

// Timer counts T-cycles. DIV is the high byte of a 16-bit divider; TIMA is
// incremented once per TAC selected period while TAC bit 2 is set.
type Timer struct {
	mem Memory
	irq Requester

	div uint16
	acc int
}

func New(mem Memory, irq Requester) *Timer {
	t := &Timer{mem: mem, irq: irq}
	mem.OnWrite(bus.DIV, t.writeDIV)
	return t
}

func (t *Timer) writeDIV(_, _ byte) byte {
	t.div = 0
	return 0
}

// Divider returns the internal 16-bit divider.
func (t *Timer) Divider() uint16 { return t.div }

// SetDivider sets the internal divider and mirrors its high byte in DIV.
func (t *Timer) SetDivider(div uint16) {
	t.div = div
	t.mem.Store8(bus.DIV, byte(div>>8))
}

// Tick advances the timer by n T-cycles.
func (t *Timer) Tick(n int) {
	t.SetDivider(t.div + uint16(n))

	tac := t.mem.Read8(bus.TAC)
	if tac&0x04 == 0 {
		return
	}
	period := periods[tac&0x03]
	t.acc += n
	for t.acc >= period {
		t.acc -= period
		t.increment()
	}
}

func (t *Timer) increment() {
	tima := t.mem.Read8(bus.TIMA) + 1
	if tima == 0 {
		tima = t.mem.Read8(bus.TMA)
		log.ModTimer.Debugf("TIMA overflow, reload %02X", tima)
		t.irq.Request(irq.Timer)
	}
	t.mem.Store8(bus.TIMA, tima)
}

// State is the part of the timer not stored in I/O registers.
type State struct {
	Div uint16
	Acc int
}

func (t *Timer) State() State { return State{Div: t.div, Acc: t.acc} }

func (t *Timer) SetState(s State) {
	t.div = s.Div
	t.acc = s.Acc
}
