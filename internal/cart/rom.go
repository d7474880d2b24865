// Package cart loads DMG cartridge images and decodes their header.
package cart

import (
	"io"
	"os"

	"github.com/go-faster/errors"

	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/log"
)

// MaxSize is the size of the flat ROM region. Bank switching is not
// emulated so larger images are cut to it.
const MaxSize = 0x8000

// ROM is a cartridge image ready to be loaded at address 0.
type ROM struct {
	Path   string
	Data   []byte
	Header *Header // nil for images shorter than a header

	// Truncated is the number of bytes beyond MaxSize that were dropped.
	Truncated int
}

// ROMLoadError reports a cartridge image that could not be loaded. It
// happens before emulation starts and leaves the machine untouched.
type ROMLoadError struct {
	Path string
	Err  error
}

func (e *ROMLoadError) Error() string {
	return "load rom " + e.Path + ": " + e.Err.Error()
}

func (e *ROMLoadError) Unwrap() error { return e.Err }

// ErrEmpty is returned for zero-length images.
var ErrEmpty = errors.New("empty image")

// Open reads a ROM image from disk.
func Open(path string) (*ROM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ROMLoadError{Path: path, Err: err}
	}
	defer f.Close()

	rom := &ROM{Path: path}
	if _, err := rom.ReadFrom(f); err != nil {
		return nil, &ROMLoadError{Path: path, Err: err}
	}
	return rom, nil
}

// FromBytes builds a ROM from an in-memory image.
func FromBytes(name string, data []byte) (*ROM, error) {
	rom := &ROM{Path: name}
	if err := rom.decode(data); err != nil {
		return nil, &ROMLoadError{Path: name, Err: err}
	}
	return rom, nil
}

// ReadFrom implements io.ReaderFrom.
func (rom *ROM) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return int64(len(buf)), errors.Wrap(err, "read image")
	}
	return int64(len(buf)), rom.decode(buf)
}

func (rom *ROM) decode(buf []byte) error {
	if len(buf) == 0 {
		return ErrEmpty
	}
	if len(buf) > MaxSize {
		rom.Truncated = len(buf) - MaxSize
		log.ModEmu.WithField("dropped", rom.Truncated).Warnf("%s: image larger than 32 KiB, truncated", rom.Path)
		buf = buf[:MaxSize]
	}
	rom.Data = buf

	h, err := ParseHeader(buf)
	switch {
	case errors.Is(err, ErrNoHeader):
		log.ModEmu.Debugf("%s: no cartridge header", rom.Path)
		return nil
	case err != nil:
		return errors.Wrap(err, "parse header")
	}
	rom.Header = h
	if !h.RomOnly() {
		log.ModEmu.Warnf("%s: cartridge type %s is not supported, running as ROM only", rom.Path, h.CartTypeString())
	}
	return nil
}
