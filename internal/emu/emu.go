// Package emu wires the DMG components together into a Machine and drives
// them one instruction at a time.
package emu

import (
	"context"
	"io"

	"github.com/go-faster/errors"

	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/bus"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/cart"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/irq"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/log"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/timer"
)

// FrameDots is the length of a frame in dots (T-cycles): 154 lines of 456.
const FrameDots = 70224

// Machine is a complete DMG. Independent machines share no state.
type Machine struct {
	bus   *bus.Bus
	irq   *irq.Controller
	cpu   *cpu.CPU
	timer *timer.Timer
	ppu   *ppu.PPU

	rom    *cart.ROM
	cycles uint64 // M-cycles since power on

	serial io.Writer
	trace  io.Writer
}

// New returns a powered on machine with an empty cartridge slot.
func New() *Machine {
	m := &Machine{}
	m.power()
	return m
}

// power rebuilds every component in the post-boot state. The I/O registers
// are written before the PPU is created so it starts with the LCD on.
func (m *Machine) power() {
	b := bus.New()
	postBootIO(b)

	m.bus = b
	m.irq = irq.New(b)
	m.timer = timer.New(b, m.irq)
	m.timer.SetDivider(0xABCC)
	m.ppu = ppu.New(b, m.irq)
	m.cpu = cpu.New(b, m.irq)
	m.cycles = 0

	if m.serial != nil {
		b.SetSerialWriter(m.serial)
	}
	if m.trace != nil {
		m.cpu.SetTraceWriter(m.trace)
	}
}

// postBootIO stores the I/O values the DMG boot ROM leaves behind.
func postBootIO(b *bus.Bus) {
	for _, r := range [...]struct {
		addr uint16
		val  byte
	}{
		{bus.JOYP, 0xCF},
		{bus.SC, 0x7E},
		{bus.TAC, 0xF8},
		{bus.IF, 0xE1},
		{bus.LCDC, 0x91},
		{bus.STAT, 0x85},
		{bus.BGP, 0xFC},
		{bus.OBP0, 0xFF},
		{bus.OBP1, 0xFF},
	} {
		b.Store8(r.addr, r.val)
	}
}

// LoadROM powers the machine again with rom in the cartridge slot.
func (m *Machine) LoadROM(rom *cart.ROM) {
	m.power()
	m.bus.Load(rom.Data)
	m.rom = rom

	title := ""
	if rom.Header != nil {
		title = rom.Header.Title
	}
	log.ModEmu.WithFields(log.Fields{
		"path":  rom.Path,
		"size":  len(rom.Data),
		"title": title,
	}).Infof("ROM loaded")
}

// LoadROMFile reads and loads a ROM image. Failures are reported as a
// *cart.ROMLoadError and leave the machine as it was.
func (m *Machine) LoadROMFile(path string) error {
	rom, err := cart.Open(path)
	if err != nil {
		return err
	}
	m.LoadROM(rom)
	return nil
}

// Reset powers the machine again, keeping the current cartridge.
func (m *Machine) Reset() {
	if m.rom != nil {
		m.LoadROM(m.rom)
		return
	}
	m.power()
}

func (m *Machine) ROM() *cart.ROM { return m.rom }

// Cycles returns the number of M-cycles executed since power on.
func (m *Machine) Cycles() uint64 { return m.cycles }

// Step executes one instruction, advances the timer and the PPU by the
// cycles it took, then dispatches a pending interrupt. It returns the total
// number of M-cycles spent.
func (m *Machine) Step() (int, error) {
	mc, err := m.cpu.Step()
	if err != nil {
		return 0, errors.Wrapf(err, "cycle %d", m.cycles)
	}
	if err := m.tick(mc); err != nil {
		return 0, err
	}
	if n := m.cpu.ServiceInterrupts(); n > 0 {
		if err := m.tick(n); err != nil {
			return 0, err
		}
		mc += n
	}
	m.cycles += uint64(mc)
	return mc, nil
}

func (m *Machine) tick(mcycles int) error {
	dots := mcycles * 4
	m.timer.Tick(dots)
	if err := m.ppu.Advance(dots); err != nil {
		return errors.Wrapf(err, "cycle %d", m.cycles)
	}
	return nil
}

// StepFrame runs until the PPU completes a frame. With the LCD off it runs
// for the duration of one frame instead.
func (m *Machine) StepFrame() error {
	start := m.ppu.Frames()
	for spent := 0; ; {
		n, err := m.Step()
		if err != nil {
			return err
		}
		spent += n
		if m.ppu.Frames() != start {
			return nil
		}
		if !m.ppu.Enabled() && spent >= FrameDots/4 {
			return nil
		}
	}
}

// Run executes instructions until ctx is done or an error occurs. onFrame,
// if not nil, is called after each completed frame; a non-nil error from it
// stops the machine and is returned as is. The context is only checked
// between instructions.
func (m *Machine) Run(ctx context.Context, onFrame func(*ppu.Frame) error) error {
	done := ctx.Done()
	frames := m.ppu.Frames()
	for {
		select {
		case <-done:
			return ctx.Err()
		default:
		}

		if _, err := m.Step(); err != nil {
			return err
		}
		if n := m.ppu.Frames(); n != frames {
			frames = n
			if onFrame != nil {
				if err := onFrame(m.ppu.Frame()); err != nil {
					return err
				}
			}
		}
	}
}

// Frame returns the last completed frame.
func (m *Machine) Frame() *ppu.Frame { return m.ppu.Frame() }

// Frames returns the number of frames completed since power on.
func (m *Machine) Frames() uint64 { return m.ppu.Frames() }

// Registers returns a snapshot of the CPU register file.
func (m *Machine) Registers() cpu.State { return m.cpu.State() }

// SetButtons replaces the set of held buttons. A newly pressed button
// requests the joypad interrupt.
func (m *Machine) SetButtons(held bus.Button) {
	if m.bus.SetButtons(held) {
		log.ModInput.Debugf("buttons %08b", held)
		m.irq.Request(irq.Joypad)
	}
}

// SetSerialWriter sends every byte transferred over the serial port to w.
func (m *Machine) SetSerialWriter(w io.Writer) {
	m.serial = w
	m.bus.SetSerialWriter(w)
}

// SetTraceWriter enables the per-instruction CPU trace, nil disables it.
func (m *Machine) SetTraceWriter(w io.Writer) {
	m.trace = w
	m.cpu.SetTraceWriter(w)
}
