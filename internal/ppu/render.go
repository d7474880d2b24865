package ppu

// shade maps a color index through a DMG palette register.
func shade(palette, ci byte) byte {
	return palette >> (ci * 2) & 3
}

func bgMapBase(lcdc byte) uint16 {
	if lcdc&0x08 != 0 {
		return 0x9C00
	}
	return 0x9800
}

func windowMapBase(lcdc byte) uint16 {
	if lcdc&0x40 != 0 {
		return 0x9C00
	}
	return 0x9800
}

// renderLine draws the current line into the back buffer and reports
// whether the window was drawn on it.
func (p *PPU) renderLine(r *LineRegs) (window bool) {
	row := &p.back[p.ly]
	tileData8000 := r.LCDC&0x10 != 0

	// LCDC bit 0 blanks both background and window on DMG.
	var bgci [ScreenWidth]byte
	if r.LCDC&0x01 != 0 {
		bgci = renderBGScanline(p.mem, bgMapBase(r.LCDC), tileData8000, r.SCX, r.SCY, p.ly)

		if r.LCDC&0x20 != 0 && p.ly >= r.WY && r.WX <= 166 {
			start := int(r.WX) - 7
			win := renderWindowScanline(p.mem, windowMapBase(r.LCDC), tileData8000, start, r.WinLine)
			copy(bgci[max(start, 0):], win[max(start, 0):])
			window = true
		}
		for x, c := range bgci {
			row[x] = shade(r.BGP, c)
		}
	} else {
		*row = [ScreenWidth]byte{}
	}

	if r.LCDC&0x02 != 0 && len(p.sprites) > 0 {
		ci, pal := ComposeSpriteLine(p.mem, p.sprites, int(p.ly), bgci, r.LCDC&0x04 != 0)
		for x, c := range ci {
			if c == 0 {
				continue
			}
			obp := r.OBP0
			if pal[x] == 1 {
				obp = r.OBP1
			}
			row[x] = shade(obp, c)
		}
	}
	return window
}
