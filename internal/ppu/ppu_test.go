package ppu

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/bus"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/irq"
)

func newTestPPU() (*PPU, *bus.Bus) {
	b := bus.New()
	return New(b, irq.New(b)), b
}

func advance(t *testing.T, p *PPU, dots int) {
	t.Helper()
	if err := p.Advance(dots); err != nil {
		t.Fatal(err)
	}
}

func statMode(b *bus.Bus) Mode { return Mode(b.Read8(bus.STAT) & 0x03) }

func irqRequested(b *bus.Bus, src irq.Source) bool {
	return b.Read8(bus.IF)&(1<<src) != 0
}

func TestPPUModeSequenceOneLine(t *testing.T) {
	p, b := newTestPPU()
	b.Write8(bus.LCDC, 0x80)
	if m := statMode(b); m != ModeOAMScan {
		t.Fatalf("expected OAM scan after LCD on, got %s", m)
	}
	advance(t, p, 80)
	if m := statMode(b); m != ModeDraw {
		t.Fatalf("expected draw at dot 80, got %s", m)
	}
	advance(t, p, 172)
	if m := statMode(b); m != ModeHBlank {
		t.Fatalf("expected hblank at dot 252, got %s", m)
	}
	advance(t, p, 456-252)
	if ly := b.Read8(bus.LY); ly != 1 {
		t.Fatalf("expected LY=1, got %d", ly)
	}
	if m := statMode(b); m != ModeOAMScan {
		t.Fatalf("expected OAM scan at new line, got %s", m)
	}
	want := LineTiming{OAMScan: 80, Draw: 172, HBlank: 204}
	if diff := cmp.Diff(want, p.LineTiming()); diff != "" {
		t.Fatalf("line timing (-want +got):\n%s", diff)
	}
}

func TestPPUDrawLengthDependsOnSCXAndSprites(t *testing.T) {
	p, b := newTestPPU()
	for i := uint16(0); i < 2; i++ {
		b.Write8(oamBase+i*4, 16)
		b.Write8(oamBase+i*4+1, 8+byte(i)*8)
	}
	b.Write8(bus.SCX, 3)
	b.Write8(bus.LCDC, 0x82)

	advance(t, p, 80+186)
	if m := statMode(b); m != ModeDraw {
		t.Fatalf("expected draw at dot 266, got %s", m)
	}
	advance(t, p, 1)
	if m := statMode(b); m != ModeHBlank {
		t.Fatalf("expected hblank at dot 267, got %s", m)
	}
	want := LineTiming{OAMScan: 80, Draw: 187, HBlank: 189}
	if diff := cmp.Diff(want, p.LineTiming()); diff != "" {
		t.Fatalf("line timing (-want +got):\n%s", diff)
	}
}

func TestPPUVBlankOncePerFrame(t *testing.T) {
	p, b := newTestPPU()
	b.Write8(bus.LCDC, 0x80)

	advance(t, p, 144*456-1)
	if irqRequested(b, irq.VBlank) {
		t.Fatalf("VBlank requested before LY 144")
	}
	advance(t, p, 1)
	if ly := b.Read8(bus.LY); ly != 144 {
		t.Fatalf("LY=%d want 144", ly)
	}
	if !irqRequested(b, irq.VBlank) || p.Frames() != 1 {
		t.Fatalf("VBlank not requested at LY 144 (frames=%d)", p.Frames())
	}
	b.Write8(bus.IF, 0)

	for ly := 145; ly <= 153; ly++ {
		advance(t, p, 456)
		if got := b.Read8(bus.LY); int(got) != ly || statMode(b) != ModeVBlank {
			t.Fatalf("LY=%d mode=%s, want %d vblank", got, statMode(b), ly)
		}
	}
	advance(t, p, 456)
	if b.Read8(bus.LY) != 0 || statMode(b) != ModeOAMScan {
		t.Fatalf("frame did not wrap: LY=%d mode=%s", b.Read8(bus.LY), statMode(b))
	}
	if irqRequested(b, irq.VBlank) {
		t.Fatalf("VBlank requested more than once")
	}

	// A whole frame is 154 lines.
	advance(t, p, 154*456)
	if p.Frames() != 2 || b.Read8(bus.LY) != 0 {
		t.Fatalf("frames=%d LY=%d after a full frame", p.Frames(), b.Read8(bus.LY))
	}
}

func TestSTATInterruptIsEdgeTriggered(t *testing.T) {
	p, b := newTestPPU()
	b.Write8(bus.STAT, statHBlank)
	b.Write8(bus.LCDC, 0x80)
	b.Write8(bus.IF, 0)

	advance(t, p, 80+172)
	if !irqRequested(b, irq.STAT) {
		t.Fatalf("expected STAT on entering hblank")
	}
	b.Write8(bus.IF, 0)
	advance(t, p, 100)
	if irqRequested(b, irq.STAT) {
		t.Fatalf("STAT requested again while the line stayed high")
	}
}

func TestSTATLineStaysHighAcrossSources(t *testing.T) {
	p, b := newTestPPU()
	b.Write8(bus.STAT, statHBlank|statLYCInt)
	b.Write8(bus.LYC, 1)
	b.Write8(bus.LCDC, 0x80)

	advance(t, p, 80+172)
	if !irqRequested(b, irq.STAT) {
		t.Fatalf("expected STAT on entering hblank")
	}
	b.Write8(bus.IF, 0)

	// hblank of line 0 hands over to LY==LYC on line 1: no new edge.
	advance(t, p, 204)
	if b.Read8(bus.STAT)&statLYC == 0 {
		t.Fatalf("coincidence flag not set at LY=1")
	}
	advance(t, p, 456)
	if irqRequested(b, irq.STAT) {
		t.Fatalf("STAT requested without a rising edge")
	}

	// Line 2 drops the line, its hblank raises it again.
	advance(t, p, 80+172)
	if !irqRequested(b, irq.STAT) {
		t.Fatalf("expected STAT on hblank of line 2")
	}
}

func TestSTATWriteKeepsReadOnlyBits(t *testing.T) {
	_, b := newTestPPU()
	b.Write8(bus.LCDC, 0x80)
	b.Write8(bus.STAT, 0xFF)
	if got := b.Read8(bus.STAT); got != 0x80|0x78|statLYC|byte(ModeOAMScan) {
		t.Fatalf("STAT=%02X", got)
	}
}

func TestLYIsReadOnly(t *testing.T) {
	p, b := newTestPPU()
	b.Write8(bus.LCDC, 0x80)
	advance(t, p, 3*456)
	b.Write8(bus.LY, 0x42)
	if got := b.Read8(bus.LY); got != 3 {
		t.Fatalf("LY=%d after CPU write, want 3", got)
	}
}

func TestLCDOffFreezes(t *testing.T) {
	p, b := newTestPPU()
	b.Write8(bus.LCDC, 0x80)
	advance(t, p, 3*456+100)

	b.Write8(bus.LCDC, 0x00)
	if p.Enabled() || b.Read8(bus.LY) != 0 || statMode(b) != ModeHBlank {
		t.Fatalf("LCD off: enabled=%t LY=%d mode=%s", p.Enabled(), b.Read8(bus.LY), statMode(b))
	}
	advance(t, p, 70224)
	if b.Read8(bus.LY) != 0 || p.Frames() != 0 {
		t.Fatalf("PPU advanced while off: LY=%d frames=%d", b.Read8(bus.LY), p.Frames())
	}

	b.Write8(bus.LCDC, 0x80)
	if statMode(b) != ModeOAMScan || b.Read8(bus.LY) != 0 {
		t.Fatalf("LCD on: LY=%d mode=%s", b.Read8(bus.LY), statMode(b))
	}
}

func TestInvalidModeTransition(t *testing.T) {
	p, _ := newTestPPU()
	p.mode = ModeOAMScan
	err := p.setMode(ModeVBlank)
	var mte *ModeTransitionError
	if !errors.As(err, &mte) {
		t.Fatalf("got %v, want ModeTransitionError", err)
	}
	if mte.From != ModeOAMScan || mte.To != ModeVBlank {
		t.Fatalf("error = %+v", mte)
	}
}

func writeTile(b *bus.Bus, tile uint16, lo, hi byte) {
	for row := uint16(0); row < 8; row++ {
		b.Write8(0x8000+tile*16+row*2, lo)
		b.Write8(0x8000+tile*16+row*2+1, hi)
	}
}

func TestFrameBackgroundAndSprites(t *testing.T) {
	p, b := newTestPPU()
	writeTile(b, 0, 0xFF, 0x00) // color 1
	writeTile(b, 1, 0x00, 0xFF) // color 2
	b.Write8(bus.BGP, 0xE4)
	b.Write8(bus.OBP0, 0xE4)
	b.Write8(bus.OBP1, 0x1B)
	b.Write8(oamBase, 16)
	b.Write8(oamBase+1, 8)
	b.Write8(oamBase+2, 1)
	b.Write8(oamBase+4, 16+8)
	b.Write8(oamBase+5, 8)
	b.Write8(oamBase+6, 1)
	b.Write8(oamBase+7, attrOBP1)
	b.Write8(oamBase+8, 16+16)
	b.Write8(oamBase+9, 8)
	b.Write8(oamBase+10, 1)
	b.Write8(oamBase+11, attrBehindBG)
	b.Write8(bus.LCDC, 0x93)

	advance(t, p, 144*456)
	f := p.Frame()
	checks := []struct {
		x, y int
		want byte
	}{
		{0, 0, 2},  // OBP0 color 2
		{7, 7, 2},  // last sprite pixel
		{8, 0, 1},  // background
		{0, 8, 1},  // OBP1 maps color 2 to shade 1
		{0, 16, 1}, // behind a non-zero background
		{159, 143, 1},
	}
	for _, c := range checks {
		if got := f[c.y][c.x]; got != c.want {
			t.Errorf("pixel (%d,%d) = %d want %d", c.x, c.y, got, c.want)
		}
	}
}

func TestFrameBGDisabledIsBlank(t *testing.T) {
	p, b := newTestPPU()
	writeTile(b, 0, 0xFF, 0xFF)
	b.Write8(bus.BGP, 0xFF)
	b.Write8(bus.LCDC, 0x90)
	advance(t, p, 144*456)
	if got := p.Frame()[70][80]; got != 0 {
		t.Fatalf("pixel with BG disabled = %d, want 0", got)
	}
}

func TestWindowLineCounter(t *testing.T) {
	p, b := newTestPPU()
	b.Write8(bus.WY, 10)
	b.Write8(bus.WX, 7)
	b.Write8(bus.LCDC, 0x80|0x01|0x20)

	advance(t, p, 10*456+80)
	if ly := b.Read8(bus.LY); ly != 10 {
		t.Fatalf("expected LY=10, got %d", ly)
	}
	if lr := p.LineRegs(10); lr.WinLine != 0 {
		t.Fatalf("expected WinLine=0 at WY, got %d", lr.WinLine)
	}
	advance(t, p, 456)
	if lr := p.LineRegs(11); lr.WinLine != 1 {
		t.Fatalf("expected WinLine=1 at WY+1, got %d", lr.WinLine)
	}
}

func TestWindowNotVisibleWhenWXTooLarge(t *testing.T) {
	p, b := newTestPPU()
	b.Write8(bus.WY, 5)
	b.Write8(bus.WX, 200)
	b.Write8(bus.LCDC, 0x80|0x01|0x20)
	advance(t, p, 14*456)
	for y := 5; y <= 12; y++ {
		if p.LineRegs(y).WinLine != 0 {
			t.Fatalf("expected WinLine=0 at y=%d when WX>166", y)
		}
	}
}

func TestStateRoundTrip(t *testing.T) {
	p, b := newTestPPU()
	b.Write8(bus.LCDC, 0x80)
	advance(t, p, 150*456+30)
	s := p.State()

	q, b2 := newTestPPU()
	b2.Restore(b.Snapshot())
	q.SetState(s)
	if diff := cmp.Diff(s, q.State()); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
	advance(t, p, 1000)
	advance(t, q, 1000)
	if p.LY() != q.LY() || p.Mode() != q.Mode() {
		t.Fatalf("diverged: LY %d/%d mode %s/%s", p.LY(), q.LY(), p.Mode(), q.Mode())
	}
}
