package ppu

import "testing"

func TestComposeSpriteLinePriorityAndTransparency(t *testing.T) {
	mem := mockVRAM{}
	mem[0x8000] = 0x80 // single opaque leftmost pixel
	sprites := []Sprite{{X: 10, Y: 5, Tile: 0}}
	var bgci [ScreenWidth]byte

	ci, _ := ComposeSpriteLine(mem, sprites, 5, bgci, false)
	if ci[10] == 0 {
		t.Fatalf("expected sprite pixel at x=10")
	}
	if ci[11] != 0 {
		t.Fatalf("transparent pixel drawn at x=11")
	}

	// Behind BG: hidden where the background is not color 0.
	sprites[0].Attr = attrBehindBG
	bgci[10] = 1
	ci, _ = ComposeSpriteLine(mem, sprites, 5, bgci, false)
	if ci[10] != 0 {
		t.Fatalf("expected sprite pixel to be hidden behind BG")
	}
	bgci[10] = 0
	ci, _ = ComposeSpriteLine(mem, sprites, 5, bgci, false)
	if ci[10] == 0 {
		t.Fatalf("behind-BG sprite must show over BG color 0")
	}
}

func TestComposeSpriteLineTieBreaker(t *testing.T) {
	mem := mockVRAM{}
	mem[0x8000] = 0xFF   // tile 0: color 1
	mem[0x8010+1] = 0xFF // tile 1: color 2
	s0 := Sprite{X: 19, Y: 0, Tile: 0, OAMIndex: 5}
	s1 := Sprite{X: 20, Y: 0, Tile: 1, OAMIndex: 3}
	var bgci [ScreenWidth]byte
	ci, _ := ComposeSpriteLine(mem, []Sprite{s1, s0}, 0, bgci, false)
	if ci[20] != 1 {
		t.Fatalf("x=20 got color %d, want 1 from the sprite with smaller X", ci[20])
	}
	if ci[27] != 2 {
		t.Fatalf("x=27 got color %d, want 2", ci[27])
	}
}

func TestComposeSpriteLinePaletteSelection(t *testing.T) {
	mem := mockVRAM{}
	mem[0x8000] = 0x80
	s0 := Sprite{X: 10, Y: 0, Tile: 0, OAMIndex: 2}
	s1 := Sprite{X: 11, Y: 0, Tile: 0, Attr: attrOBP1, OAMIndex: 1}
	var bgci [ScreenWidth]byte
	ci, pal := ComposeSpriteLine(mem, []Sprite{s0, s1}, 0, bgci, false)
	if ci[10] == 0 || pal[10] != 0 {
		t.Fatalf("x=10 ci=%d pal=%d, want OBP0 pixel", ci[10], pal[10])
	}
	if ci[11] == 0 || pal[11] != 1 {
		t.Fatalf("x=11 ci=%d pal=%d, want OBP1 pixel", ci[11], pal[11])
	}

	// Same X: the lower OAM index wins and carries its palette.
	s0 = Sprite{X: 12, Y: 0, Tile: 0, OAMIndex: 5}
	s1 = Sprite{X: 12, Y: 0, Tile: 0, Attr: attrOBP1, OAMIndex: 3}
	ci, pal = ComposeSpriteLine(mem, []Sprite{s0, s1}, 0, bgci, false)
	if ci[12] == 0 || pal[12] != 1 {
		t.Fatalf("x=12 ci=%d pal=%d, want OBP1 from lower OAM index", ci[12], pal[12])
	}
}

func TestComposeSpriteLineFlipsAndTallSprites(t *testing.T) {
	mem := mockVRAM{}
	mem[0x8000] = 0x80     // tile 0 row 0: leftmost pixel
	mem[0x8010+7*2] = 0x01 // tile 1 row 7: rightmost pixel
	var bgci [ScreenWidth]byte

	// X flip moves the leftmost pixel to the right edge.
	ci, _ := ComposeSpriteLine(mem, []Sprite{{X: 0, Y: 0, Attr: attrXFlip}}, 0, bgci, false)
	if ci[0] != 0 || ci[7] != 1 {
		t.Fatalf("xflip: ci[0]=%d ci[7]=%d", ci[0], ci[7])
	}

	// 8x16: tile index bit 0 is ignored, row 15 is row 7 of the second tile.
	ci, _ = ComposeSpriteLine(mem, []Sprite{{X: 0, Y: 0, Tile: 1}}, 15, bgci, true)
	if ci[7] != 1 {
		t.Fatalf("tall sprite row 15: ci[7]=%d want 1", ci[7])
	}
	// Y flip of a tall sprite: line 0 shows row 15.
	ci, _ = ComposeSpriteLine(mem, []Sprite{{X: 0, Y: 0, Tile: 0, Attr: attrYFlip}}, 0, bgci, true)
	if ci[7] != 1 {
		t.Fatalf("yflip tall sprite line 0: ci[7]=%d want 1", ci[7])
	}
}

func TestSelectSpritesLimitAndOrder(t *testing.T) {
	mem := mockVRAM{}
	for i := 0; i < 12; i++ {
		addr := uint16(oamBase + i*4)
		mem[addr] = 16 + 4 // screen y 4
		mem[addr+1] = byte(8 + i)
	}
	// entry 20 is on another line
	mem[uint16(oamBase+20*4)] = 100

	got := selectSprites(nil, mem, 8, false)
	if len(got) != maxSpritesPerLine {
		t.Fatalf("selected %d sprites, want %d", len(got), maxSpritesPerLine)
	}
	for i, s := range got {
		if s.OAMIndex != i || s.X != i || s.Y != 4 {
			t.Fatalf("sprite %d = %+v", i, s)
		}
	}
	if got := selectSprites(nil, mem, 12, false); len(got) != 0 {
		t.Fatalf("8x8 sprites selected on line 12: %d", len(got))
	}
	if got := selectSprites(nil, mem, 12, true); len(got) != maxSpritesPerLine {
		t.Fatalf("8x16 sprites on line 12: %d", len(got))
	}
}
