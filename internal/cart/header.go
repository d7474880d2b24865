package cart

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/go-faster/errors"
)

const headerEnd = 0x014F

var nintendoLogo = [48]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B, 0x03, 0x73, 0x00, 0x83, 0x00, 0x0C, 0x00, 0x0D,
	0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E, 0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99,
	0xBB, 0xBB, 0x67, 0x63, 0x6E, 0x0E, 0xEC, 0xCC, 0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

// ErrNoHeader is returned by ParseHeader for images that end before the
// cartridge header does.
var ErrNoHeader = errors.New("image too small to contain a cartridge header")

// Header is the decoded cartridge header at 0x0100-0x014F.
type Header struct {
	Title          string
	CGBFlag        byte
	NewLicensee    string
	SGBFlag        byte
	CartType       byte
	ROMSizeCode    byte
	RAMSizeCode    byte
	Destination    byte
	OldLicensee    byte
	ROMVersion     byte
	HeaderChecksum byte
	GlobalChecksum uint16
	LogoOK         bool

	ROMSizeBytes int
	ROMBanks     int
	RAMSizeBytes int
}

func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) <= headerEnd {
		return nil, ErrNoHeader
	}

	h := &Header{
		Title:          strings.TrimRight(string(rom[0x0134:0x0144]), "\x00"),
		CGBFlag:        rom[0x0143],
		NewLicensee:    string(rom[0x0144:0x0146]),
		SGBFlag:        rom[0x0146],
		CartType:       rom[0x0147],
		ROMSizeCode:    rom[0x0148],
		RAMSizeCode:    rom[0x0149],
		Destination:    rom[0x014A],
		OldLicensee:    rom[0x014B],
		ROMVersion:     rom[0x014C],
		HeaderChecksum: rom[0x014D],
		GlobalChecksum: binary.BigEndian.Uint16(rom[0x014E:0x0150]),
		LogoOK:         [48]byte(rom[0x0104:0x0134]) == nintendoLogo,
	}
	h.ROMSizeBytes, h.ROMBanks = decodeROMSize(h.ROMSizeCode)
	h.RAMSizeBytes = decodeRAMSize(h.RAMSizeCode)
	return h, nil
}

// RomOnly reports whether the header declares a plain 32 KiB cartridge
// without a memory bank controller.
func (h *Header) RomOnly() bool {
	return h.CartType == 0x00 && h.ROMSizeCode == 0x00
}

func (h *Header) CartTypeString() string {
	return cartTypeString(h.CartType)
}

// PrintInfos writes a human readable summary of the header to w.
func (h *Header) PrintInfos(w io.Writer) {
	fmt.Fprintf(w, "Title:     %s\n", h.Title)
	fmt.Fprintf(w, "Type:      %s (0x%02X)\n", h.CartTypeString(), h.CartType)
	fmt.Fprintf(w, "ROM size:  %d KiB, %d banks\n", h.ROMSizeBytes/1024, h.ROMBanks)
	fmt.Fprintf(w, "RAM size:  %d KiB\n", h.RAMSizeBytes/1024)
	fmt.Fprintf(w, "CGB flag:  0x%02X\n", h.CGBFlag)
	fmt.Fprintf(w, "SGB flag:  0x%02X\n", h.SGBFlag)
	fmt.Fprintf(w, "Licensee:  old=0x%02X new=%q\n", h.OldLicensee, h.NewLicensee)
	fmt.Fprintf(w, "Version:   %d\n", h.ROMVersion)
	fmt.Fprintf(w, "Logo:      %t\n", h.LogoOK)
	fmt.Fprintf(w, "Checksums: header=0x%02X global=0x%04X\n", h.HeaderChecksum, h.GlobalChecksum)
}

// HeaderChecksumOK verifies the header checksum byte at 0x014D.
func HeaderChecksumOK(rom []byte) bool {
	if len(rom) < 0x014E {
		return false
	}
	var sum byte
	for addr := 0x0134; addr <= 0x014C; addr++ {
		sum = sum - rom[addr] - 1
	}
	return sum == rom[0x014D]
}

func decodeROMSize(code byte) (size, banks int) {
	switch code {
	case 0x52:
		return 1152 * 1024, 72
	case 0x53:
		return 1280 * 1024, 80
	case 0x54:
		return 1536 * 1024, 96
	}
	if code > 0x08 {
		return 0, 0
	}
	return 32 * 1024 << code, 2 << code
}

func decodeRAMSize(code byte) int {
	switch code {
	case 0x02:
		return 8 * 1024
	case 0x03:
		return 32 * 1024
	case 0x04:
		return 128 * 1024
	case 0x05:
		return 64 * 1024
	}
	return 0
}

func cartTypeString(code byte) string {
	switch code {
	case 0x00:
		return "ROM ONLY"
	case 0x01, 0x02, 0x03:
		return "MBC1"
	case 0x05, 0x06:
		return "MBC2"
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		return "MBC3"
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		return "MBC5"
	}
	return "unknown"
}
