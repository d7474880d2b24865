// Package vectors replays per-instruction CPU state vectors in the JSON
// format of the SingleStepTests sm83 suite: one file per opcode, each
// holding an array of tests with an initial and a final machine state.
package vectors

import (
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Cell is one byte of memory.
type Cell struct {
	Addr uint16
	Val  byte
}

// State is a register file plus the memory cells a test cares about.
type State struct {
	A, F, B, C, D, E, H, L byte
	PC, SP                 uint16
	IME                    byte
	IE                     byte
	HasIE                  bool
	RAM                    []Cell
}

type Test struct {
	Name    string
	Initial State
	Final   State
	// Cycles is the number of M-cycles the instruction takes.
	Cycles int
}

// ParseFile decodes a vector file.
func ParseFile(path string) ([]Test, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tests, err := Parse(buf)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return tests, nil
}

// Parse decodes a JSON array of tests.
func Parse(buf []byte) ([]Test, error) {
	var tests []Test
	d := jx.DecodeBytes(buf)
	err := d.Arr(func(d *jx.Decoder) error {
		var t Test
		if err := t.decode(d); err != nil {
			return errors.Wrapf(err, "test %d", len(tests))
		}
		tests = append(tests, t)
		return nil
	})
	return tests, err
}

func (t *Test) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			s, err := d.Str()
			t.Name = s
			return err
		case "initial":
			return t.Initial.decode(d)
		case "final":
			return t.Final.decode(d)
		case "cycles":
			return d.Arr(func(d *jx.Decoder) error {
				t.Cycles++
				return d.Skip()
			})
		}
		return d.Skip()
	})
}

func (s *State) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		if key == "ram" {
			return s.decodeRAM(d)
		}
		r8, r16 := s.field(key)
		if r8 == nil && r16 == nil {
			return d.Skip()
		}
		v, err := d.Int()
		if err != nil {
			return errors.Wrap(err, key)
		}
		if r8 != nil {
			*r8 = byte(v)
		} else {
			*r16 = uint16(v)
		}
		if key == "ie" {
			s.HasIE = true
		}
		return nil
	})
}

func (s *State) field(key string) (*byte, *uint16) {
	switch key {
	case "a":
		return &s.A, nil
	case "f":
		return &s.F, nil
	case "b":
		return &s.B, nil
	case "c":
		return &s.C, nil
	case "d":
		return &s.D, nil
	case "e":
		return &s.E, nil
	case "h":
		return &s.H, nil
	case "l":
		return &s.L, nil
	case "ime":
		return &s.IME, nil
	case "ie":
		return &s.IE, nil
	case "pc":
		return nil, &s.PC
	case "sp":
		return nil, &s.SP
	}
	return nil, nil
}

// decodeRAM reads [[addr, val], ...].
func (s *State) decodeRAM(d *jx.Decoder) error {
	return d.Arr(func(d *jx.Decoder) error {
		var (
			cell Cell
			i    int
		)
		err := d.Arr(func(d *jx.Decoder) error {
			v, err := d.Int()
			if err != nil {
				return err
			}
			switch i {
			case 0:
				cell.Addr = uint16(v)
			case 1:
				cell.Val = byte(v)
			}
			i++
			return nil
		})
		if err != nil {
			return err
		}
		if i != 2 {
			return errors.Errorf("ram cell has %d values", i)
		}
		s.RAM = append(s.RAM, cell)
		return nil
	})
}
