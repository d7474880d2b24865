package emu

import (
	"image/color"
	"testing"

	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/cart"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/ppu"
)

func TestParsePalette(t *testing.T) {
	p, err := ParsePalette("#102030,405060, #708090 ,A0B0C0")
	if err != nil {
		t.Fatal(err)
	}
	want := Palette{
		{0x10, 0x20, 0x30, 0xFF},
		{0x40, 0x50, 0x60, 0xFF},
		{0x70, 0x80, 0x90, 0xFF},
		{0xA0, 0xB0, 0xC0, 0xFF},
	}
	if p != want {
		t.Fatalf("got %v want %v", p, want)
	}

	for _, name := range PaletteNames() {
		if _, err := ParsePalette(name); err != nil {
			t.Errorf("preset %q: %v", name, err)
		}
	}

	for _, bad := range []string{"", "mauve", "#fff,#000,#fff,#000", "#112233,#445566"} {
		if _, err := ParsePalette(bad); err == nil {
			t.Errorf("ParsePalette(%q) succeeded", bad)
		}
	}
}

func TestTitlePalette(t *testing.T) {
	tests := []struct {
		hdr  *cart.Header
		want string
	}{
		{nil, "gray"},
		{&cart.Header{Title: "TETRIS"}, "blue"},
		{&cart.Header{Title: "SUPER MARIOLAND"}, "red"},
		{&cart.Header{Title: "HOMEBREW", OldLicensee: 0x00}, "gray"},
		{&cart.Header{Title: "UNKNOWN", OldLicensee: 0x01, HeaderChecksum: 7}, "sepia"},
	}
	for _, tt := range tests {
		if got := presetNames[titlePalette(tt.hdr)]; got != tt.want {
			t.Errorf("titlePalette(%+v) = %s, want %s", tt.hdr, got, tt.want)
		}
	}

	vcfg := VideoConfig{Palette: "auto"}
	if vcfg.ResolvePalette(&cart.Header{Title: "ZELDA"}) != presets["green"] {
		t.Errorf("auto palette for ZELDA is not green")
	}
}

func TestPaletteImageAndCRC(t *testing.T) {
	var f ppu.Frame
	f[0][0] = 3
	f[143][159] = 1

	gray := presets["gray"]
	img := gray.Image(&f)
	if got := img.RGBAAt(0, 0); got != (color.RGBA{0, 0, 0, 0xFF}) {
		t.Errorf("pixel (0,0) = %v", got)
	}
	if got := img.RGBAAt(159, 143); got != (color.RGBA{0xAA, 0xAA, 0xAA, 0xFF}) {
		t.Errorf("pixel (159,143) = %v", got)
	}
	if got := img.RGBAAt(1, 0); got != (color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("pixel (1,0) = %v", got)
	}

	crc := FrameCRC(&f)
	g := f
	if FrameCRC(&g) != crc {
		t.Errorf("CRC of identical frames differ")
	}
	g[10][10] = 2
	if FrameCRC(&g) == crc {
		t.Errorf("CRC unchanged after pixel change")
	}
	if len(FormatCRC(0x1a)) != 8 {
		t.Errorf("FormatCRC not zero padded: %q", FormatCRC(0x1a))
	}
}
