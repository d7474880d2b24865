package ppu

// renderBGScanline renders the 160 background color indices of line ly.
func renderBGScanline(mem VRAMReader, mapBase uint16, tileData8000 bool, scx, scy, ly byte) [ScreenWidth]byte {
	var out [ScreenWidth]byte

	var q fifo
	y := uint16(ly) + uint16(scy)
	f := newTileFetcher(mem, &q, mapBase, tileData8000, y, uint16(scx)>>3)
	f.Fetch()
	for i := 0; i < int(scx&7); i++ {
		q.Pop()
	}
	for x := range out {
		if q.Len() == 0 {
			f.Fetch()
		}
		out[x], _ = q.Pop()
	}
	return out
}

// renderWindowScanline renders window row winLine starting at screen x
// startX (WX-7, possibly negative). Pixels left of startX are left at 0
// and must not be used.
func renderWindowScanline(mem VRAMReader, mapBase uint16, tileData8000 bool, startX int, winLine byte) [ScreenWidth]byte {
	var out [ScreenWidth]byte
	if startX >= ScreenWidth {
		return out
	}

	var q fifo
	f := newTileFetcher(mem, &q, mapBase, tileData8000, uint16(winLine), 0)
	f.Fetch()
	x := startX
	for ; x < 0; x++ {
		if q.Len() == 0 {
			f.Fetch()
		}
		q.Pop()
	}
	for ; x < ScreenWidth; x++ {
		if q.Len() == 0 {
			f.Fetch()
		}
		out[x], _ = q.Pop()
	}
	return out
}
