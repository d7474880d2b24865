package ppu

import "sort"

const (
	oamBase           = 0xFE00
	oamEntries        = 40
	maxSpritesPerLine = 10
)

// Sprite attribute flags.
const (
	attrBehindBG byte = 1 << 7
	attrYFlip    byte = 1 << 6
	attrXFlip    byte = 1 << 5
	attrOBP1     byte = 1 << 4
)

// Sprite is an OAM entry translated to screen coordinates.
type Sprite struct {
	X, Y     int
	Tile     byte
	Attr     byte
	OAMIndex int
}

// selectSprites appends to dst, in OAM order, the first ten sprites that
// overlap line ly.
func selectSprites(dst []Sprite, mem VRAMReader, ly int, tall bool) []Sprite {
	height := 8
	if tall {
		height = 16
	}
	for i := 0; i < oamEntries && len(dst) < maxSpritesPerLine; i++ {
		addr := uint16(oamBase + i*4)
		y := int(mem.Read8(addr)) - 16
		if ly < y || ly >= y+height {
			continue
		}
		dst = append(dst, Sprite{
			Y:        y,
			X:        int(mem.Read8(addr+1)) - 8,
			Tile:     mem.Read8(addr + 2),
			Attr:     mem.Read8(addr + 3),
			OAMIndex: i,
		})
	}
	return dst
}

// ComposeSpriteLine returns the sprite color index (0 for none) and the
// palette (0: OBP0, 1: OBP1) of every pixel of line ly. bgci holds the
// background/window color indices of the line.
//
// On overlap the sprite with the smaller X wins, then the lower OAM index.
// Color 0 is transparent. A winning sprite flagged behind-BG hides itself
// wherever bgci is not 0, without revealing sprites below it.
func ComposeSpriteLine(mem VRAMReader, sprites []Sprite, ly int, bgci [ScreenWidth]byte, tall bool) (ci, pal [ScreenWidth]byte) {
	ordered := append([]Sprite(nil), sprites...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].X != ordered[j].X {
			return ordered[i].X < ordered[j].X
		}
		return ordered[i].OAMIndex < ordered[j].OAMIndex
	})

	height := 8
	if tall {
		height = 16
	}
	var claimed [ScreenWidth]bool
	for _, s := range ordered {
		row := ly - s.Y
		if row < 0 || row >= height {
			continue
		}
		if s.Attr&attrYFlip != 0 {
			row = height - 1 - row
		}
		tile := s.Tile
		if tall {
			tile &^= 1
		}
		addr := tileRowAddr(tile, uint16(row), true)
		lo, hi := mem.Read8(addr), mem.Read8(addr+1)

		for px := 0; px < 8; px++ {
			x := s.X + px
			if x < 0 || x >= ScreenWidth || claimed[x] {
				continue
			}
			bit := 7 - px
			if s.Attr&attrXFlip != 0 {
				bit = px
			}
			c := decodePixel(lo, hi, bit)
			if c == 0 {
				continue
			}
			claimed[x] = true
			if s.Attr&attrBehindBG != 0 && bgci[x] != 0 {
				continue
			}
			ci[x] = c
			if s.Attr&attrOBP1 != 0 {
				pal[x] = 1
			}
		}
	}
	return ci, pal
}
