package ppu

import "testing"

func TestFIFO(t *testing.T) {
	var q fifo
	if q.Len() != 0 {
		t.Fatal("new fifo not empty")
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("pop from empty should fail")
	}
	for i := 0; i < 16; i++ {
		if !q.Push(byte(i)) {
			t.Fatal("unexpected full")
		}
	}
	if q.Push(0) {
		t.Fatal("should be full")
	}
	for i := 0; i < 16; i++ {
		v, ok := q.Pop()
		if !ok {
			t.Fatal("unexpected empty")
		}
		if v != byte(i)&3 {
			t.Fatalf("got %d want %d", v, byte(i)&3)
		}
	}
}

type mockVRAM map[uint16]byte

func (m mockVRAM) Read8(addr uint16) byte { return m[addr] }

func TestTileFetcherFetchesEightPixels(t *testing.T) {
	mem := mockVRAM{}
	mem[0x9800] = 0
	mem[0x8000] = 0x55 // 01010101
	mem[0x8001] = 0x33 // 00110011
	var q fifo
	f := newTileFetcher(mem, &q, 0x9800, true, 0, 0)
	f.Fetch()
	if q.Len() != 8 {
		t.Fatalf("expected 8 pixels in fifo, got %d", q.Len())
	}
	want := []byte{0, 1, 2, 3, 0, 1, 2, 3}
	for i, w := range want {
		if got, _ := q.Pop(); got != w {
			t.Fatalf("px %d got %d want %d", i, got, w)
		}
	}
	if f.tileX != 1 {
		t.Fatalf("fetcher did not advance: tileX=%d", f.tileX)
	}
}

func TestTileFetcherSignedAddressing(t *testing.T) {
	mem := mockVRAM{}
	mem[0x9C00] = 0x80 // tile -128 at 0x8800
	mem[0x8800+3*2] = 0xFF
	mem[0x9C01] = 0x7F // tile 127 at 0x97F0
	mem[0x97F0+3*2+1] = 0xFF

	var q fifo
	f := newTileFetcher(mem, &q, 0x9C00, false, 3, 0)
	f.Fetch()
	f.Fetch()
	for i := 0; i < 8; i++ {
		if got, _ := q.Pop(); got != 1 {
			t.Fatalf("tile -128 px %d got %d want 1", i, got)
		}
	}
	for i := 0; i < 8; i++ {
		if got, _ := q.Pop(); got != 2 {
			t.Fatalf("tile 127 px %d got %d want 2", i, got)
		}
	}
}
