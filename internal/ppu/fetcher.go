package ppu

// VRAMReader gives the renderer read access to tile data and tile maps.
type VRAMReader interface {
	Read8(addr uint16) byte
}

// fifo is a ring buffer of 2-bit color indices.
type fifo struct {
	buf  [16]byte
	head int
	size int
}

func (q *fifo) Clear()   { q.head, q.size = 0, 0 }
func (q *fifo) Len() int { return q.size }

func (q *fifo) Push(ci byte) bool {
	if q.size == len(q.buf) {
		return false
	}
	q.buf[(q.head+q.size)%len(q.buf)] = ci & 0x03
	q.size++
	return true
}

func (q *fifo) Pop() (byte, bool) {
	if q.size == 0 {
		return 0, false
	}
	v := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return v, true
}

// tileFetcher walks one row of a 32x32 tile map and pushes 8 pixels per
// fetched tile.
type tileFetcher struct {
	mem          VRAMReader
	fifo         *fifo
	mapRow       uint16 // address of the first map entry of the row
	tileX        uint16 // 0..31, wraps
	fineY        uint16
	tileData8000 bool // LCDC bit 4: unsigned 0x8000 or signed 0x9000 base
}

func newTileFetcher(mem VRAMReader, q *fifo, mapBase uint16, tileData8000 bool, y uint16, tileX uint16) *tileFetcher {
	return &tileFetcher{
		mem:          mem,
		fifo:         q,
		mapRow:       mapBase + (y>>3&31)*32,
		tileX:        tileX & 31,
		fineY:        y & 7,
		tileData8000: tileData8000,
	}
}

// tileRowAddr returns the address of the low bit plane of row fineY of a
// tile, honouring the addressing mode.
func tileRowAddr(tileNum byte, fineY uint16, tileData8000 bool) uint16 {
	if tileData8000 {
		return 0x8000 + uint16(tileNum)*16 + fineY*2
	}
	return uint16(0x9000+int(int8(tileNum))*16) + fineY*2
}

// Fetch pushes the next tile's 8 pixels and advances to the following map
// column.
func (f *tileFetcher) Fetch() {
	tileNum := f.mem.Read8(f.mapRow + f.tileX)
	addr := tileRowAddr(tileNum, f.fineY, f.tileData8000)
	lo := f.mem.Read8(addr)
	hi := f.mem.Read8(addr + 1)
	for px := 0; px < 8; px++ {
		f.fifo.Push(decodePixel(lo, hi, 7-px))
	}
	f.tileX = (f.tileX + 1) & 31
}

// decodePixel combines bit n of both bit planes into a color index.
func decodePixel(lo, hi byte, n int) byte {
	return (hi>>n&1)<<1 | lo>>n&1
}
