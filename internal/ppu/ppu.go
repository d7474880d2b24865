// Package ppu implements the DMG pixel processing unit: the per-line mode
// state machine, the STAT interrupt line and the scanline renderer.
package ppu

import (
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/bus"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/irq"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/log"
)

const (
	ScreenWidth  = 160
	ScreenHeight = 144

	lineDots    = 456
	oamScanDots = 80
	drawDots    = 172
	spriteDots  = 6
	totalLines  = 154
)

// Mode is the PPU mode as reported in STAT bits 0-1.
type Mode uint8

const (
	ModeHBlank Mode = iota
	ModeVBlank
	ModeOAMScan
	ModeDraw
)

var modeNames = [...]string{"hblank", "vblank", "oam-scan", "draw"}

func (m Mode) String() string { return modeNames[m&3] }

// validNext[m] is the set of modes reachable from m.
var validNext = [4]uint8{
	ModeHBlank:  1<<ModeOAMScan | 1<<ModeVBlank,
	ModeVBlank:  1<<ModeVBlank | 1<<ModeOAMScan,
	ModeOAMScan: 1 << ModeDraw,
	ModeDraw:    1 << ModeHBlank,
}

// STAT interrupt sources.
const (
	statLYC     byte = 1 << 2
	statHBlank  byte = 1 << 3
	statVBlank  byte = 1 << 4
	statOAMScan byte = 1 << 5
	statLYCInt  byte = 1 << 6
)

// Frame is a completed picture: one 2-bit shade per pixel, 0 is the
// lightest.
type Frame [ScreenHeight][ScreenWidth]byte

// LineTiming reports how the dots of a visible line were split.
type LineTiming struct {
	OAMScan, Draw, HBlank int
}

type Memory interface {
	Read8(addr uint16) byte
	Store8(addr uint16, val byte)
	OnWrite(addr uint16, fn bus.WriteFunc)
}

type Requester interface {
	Request(irq.Source)
}

type PPU struct {
	mem Memory
	irq Requester

	enabled  bool
	mode     Mode
	ly       byte
	dot      int // dots into the current line
	drawDots int
	statLine bool
	winLine  byte

	sprites  []Sprite
	lineRegs [ScreenHeight]LineRegs
	timing   LineTiming

	back, front *Frame
	frames      uint64
}

// LineRegs is the register snapshot a visible line is rendered with.
type LineRegs struct {
	LCDC    byte
	SCY     byte
	SCX     byte
	BGP     byte
	OBP0    byte
	OBP1    byte
	WY      byte
	WX      byte
	WinLine byte
}

// New creates a PPU reading its registers and video memory from mem. The
// LCD starts enabled or off according to the current LCDC value.
func New(mem Memory, ic Requester) *PPU {
	p := &PPU{
		mem:     mem,
		irq:     ic,
		back:    new(Frame),
		front:   new(Frame),
		sprites: make([]Sprite, 0, maxSpritesPerLine),
	}
	mem.OnWrite(bus.LCDC, p.writeLCDC)
	mem.OnWrite(bus.STAT, p.writeSTAT)
	mem.OnWrite(bus.LY, func(old, _ byte) byte { return old })
	mem.OnWrite(bus.LYC, p.writeLYC)

	if mem.Read8(bus.LCDC)&0x80 != 0 {
		p.turnOn()
	} else {
		p.turnOff()
	}
	return p
}

func (p *PPU) Mode() Mode             { return p.mode }
func (p *PPU) LY() byte               { return p.ly }
func (p *PPU) Enabled() bool          { return p.enabled }
func (p *PPU) Frames() uint64         { return p.frames }
func (p *PPU) LineTiming() LineTiming { return p.timing }

// Frame returns the last completed frame. It is replaced, not modified,
// when the next frame completes.
func (p *PPU) Frame() *Frame { return p.front }

// LineRegs returns the registers used to render visible line y.
func (p *PPU) LineRegs(y int) LineRegs {
	if y < 0 || y >= len(p.lineRegs) {
		return LineRegs{}
	}
	return p.lineRegs[y]
}

// Advance runs the PPU for the given number of dots. It does nothing while
// the LCD is off.
func (p *PPU) Advance(dots int) error {
	for dots > 0 && p.enabled {
		end := p.modeEnd()
		n := min(dots, end-p.dot)
		p.dot += n
		dots -= n
		if p.dot == end {
			if err := p.endMode(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *PPU) modeEnd() int {
	switch p.mode {
	case ModeOAMScan:
		return oamScanDots
	case ModeDraw:
		return oamScanDots + p.drawDots
	}
	return lineDots
}

func (p *PPU) endMode() error {
	switch p.mode {
	case ModeOAMScan:
		return p.enterDraw()
	case ModeDraw:
		p.timing = LineTiming{
			OAMScan: oamScanDots,
			Draw:    p.drawDots,
			HBlank:  lineDots - oamScanDots - p.drawDots,
		}
		return p.setMode(ModeHBlank)
	}

	p.dot = 0
	p.ly++
	switch {
	case p.ly == ScreenHeight:
		if err := p.setMode(ModeVBlank); err != nil {
			return err
		}
		p.back, p.front = p.front, p.back
		p.frames++
		p.irq.Request(irq.VBlank)
		return nil
	case p.ly == totalLines:
		p.ly = 0
		p.winLine = 0
		return p.enterOAMScan()
	case p.mode == ModeVBlank:
		return p.setMode(ModeVBlank)
	}
	return p.enterOAMScan()
}

func (p *PPU) enterOAMScan() error {
	if err := p.setMode(ModeOAMScan); err != nil {
		return err
	}
	tall := p.mem.Read8(bus.LCDC)&0x04 != 0
	p.sprites = selectSprites(p.sprites[:0], p.mem, int(p.ly), tall)
	return nil
}

func (p *PPU) enterDraw() error {
	if err := p.setMode(ModeDraw); err != nil {
		return err
	}
	regs := LineRegs{
		LCDC:    p.mem.Read8(bus.LCDC),
		SCY:     p.mem.Read8(bus.SCY),
		SCX:     p.mem.Read8(bus.SCX),
		BGP:     p.mem.Read8(bus.BGP),
		OBP0:    p.mem.Read8(bus.OBP0),
		OBP1:    p.mem.Read8(bus.OBP1),
		WY:      p.mem.Read8(bus.WY),
		WX:      p.mem.Read8(bus.WX),
		WinLine: p.winLine,
	}
	p.lineRegs[p.ly] = regs
	p.drawDots = drawDots + int(regs.SCX&7) + spriteDots*len(p.sprites)
	if p.renderLine(&regs) {
		p.winLine++
	}
	return nil
}

// setMode moves the state machine to next, publishing mode and LY in the
// I/O registers and raising STAT on a rising edge of the interrupt line.
func (p *PPU) setMode(next Mode) error {
	if validNext[p.mode]&(1<<next) == 0 {
		return &ModeTransitionError{From: p.mode, To: next, LY: p.ly, Dot: p.dot}
	}
	p.mode = next
	p.publish()
	return nil
}

func (p *PPU) publish() {
	p.mem.Store8(bus.LY, p.ly)
	stat := p.mem.Read8(bus.STAT)&0x78 | 0x80 | byte(p.mode)
	if p.ly == p.mem.Read8(bus.LYC) {
		stat |= statLYC
	}
	p.mem.Store8(bus.STAT, stat)
	p.updateStatLine(stat)
}

// updateStatLine recomputes the OR of the enabled STAT conditions. Only a
// low to high transition requests an interrupt.
func (p *PPU) updateStatLine(stat byte) {
	line := p.enabled && (stat&statHBlank != 0 && p.mode == ModeHBlank ||
		stat&statVBlank != 0 && p.mode == ModeVBlank ||
		stat&statOAMScan != 0 && p.mode == ModeOAMScan ||
		stat&statLYCInt != 0 && stat&statLYC != 0)
	if line && !p.statLine {
		p.irq.Request(irq.STAT)
	}
	p.statLine = line
}

func (p *PPU) writeSTAT(old, val byte) byte {
	stat := 0x80 | val&0x78 | old&0x07
	p.updateStatLine(stat)
	return stat
}

func (p *PPU) writeLYC(_, val byte) byte {
	if !p.enabled {
		return val
	}
	stat := p.mem.Read8(bus.STAT) &^ statLYC
	if p.ly == val {
		stat |= statLYC
	}
	p.mem.Store8(bus.STAT, stat)
	p.updateStatLine(stat)
	return val
}

func (p *PPU) writeLCDC(old, val byte) byte {
	switch {
	case old&0x80 != 0 && val&0x80 == 0:
		p.turnOff()
	case old&0x80 == 0 && val&0x80 != 0:
		p.mem.Store8(bus.LCDC, val)
		p.turnOn()
	}
	return val
}

// turnOff freezes the PPU at the start of line 0.
func (p *PPU) turnOff() {
	log.ModPPU.Debugf("LCD off at LY=%d", p.ly)
	p.enabled = false
	p.ly = 0
	p.dot = 0
	p.mode = ModeHBlank
	p.statLine = false
	p.mem.Store8(bus.LY, 0)
	p.mem.Store8(bus.STAT, p.mem.Read8(bus.STAT)&0x78|0x80)
}

func (p *PPU) turnOn() {
	log.ModPPU.Debugf("LCD on")
	p.enabled = true
	p.ly = 0
	p.dot = 0
	p.winLine = 0
	// turning on starts a fresh line, which is always a legal transition
	p.mode = ModeHBlank
	_ = p.enterOAMScan()
}

// State holds the PPU internals that do not live in I/O registers.
type State struct {
	Enabled  bool
	Mode     Mode
	LY       byte
	Dot      int
	DrawDots int
	StatLine bool
	WinLine  byte
	Sprites  []Sprite
	Front    Frame
	Frames   uint64
}

func (p *PPU) State() State {
	return State{
		Enabled:  p.enabled,
		Mode:     p.mode,
		LY:       p.ly,
		Dot:      p.dot,
		DrawDots: p.drawDots,
		StatLine: p.statLine,
		WinLine:  p.winLine,
		Sprites:  append([]Sprite(nil), p.sprites...),
		Front:    *p.front,
		Frames:   p.frames,
	}
}

func (p *PPU) SetState(s State) {
	p.enabled = s.Enabled
	p.mode = s.Mode
	p.ly = s.LY
	p.dot = s.Dot
	p.drawDots = s.DrawDots
	p.statLine = s.StatLine
	p.winLine = s.WinLine
	p.sprites = append(p.sprites[:0], s.Sprites...)
	*p.front = s.Front
	p.frames = s.Frames
}
