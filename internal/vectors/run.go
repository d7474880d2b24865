package vectors

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/bus"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/irq"
)

// MismatchError lists the differences between the expected and the actual
// state after running a test.
type MismatchError struct {
	Test  string
	Diffs []string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s:\n\t%s", e.Test, strings.Join(e.Diffs, "\n\t"))
}

type regs struct {
	A, F, B, C, D, E, H, L byte
	PC, SP                 uint16
	IME                    byte
}

func (s *State) regs() regs {
	return regs{
		A: s.A, F: s.F, B: s.B, C: s.C, D: s.D, E: s.E, H: s.H, L: s.L,
		PC: s.PC, SP: s.SP,
		IME: s.IME,
	}
}

// Run executes the single instruction of t on a flat bus and compares the
// resulting state. It returns a *MismatchError if they differ, or the CPU
// error if the instruction could not be executed.
func Run(t *Test) error {
	b := bus.NewFlat()
	ic := irq.New(b)
	c := cpu.New(b, ic)

	for _, cell := range t.Initial.RAM {
		b.Store8(cell.Addr, cell.Val)
	}
	if t.Initial.HasIE {
		b.Store8(bus.IE, t.Initial.IE)
	}
	ime := irq.Unset
	if t.Initial.IME != 0 {
		ime = irq.Set
	}
	in := &t.Initial
	c.SetState(cpu.State{
		A: in.A, F: in.F, B: in.B, C: in.C, D: in.D, E: in.E, H: in.H, L: in.L,
		SP: in.SP, PC: in.PC,
		IME: ime,
	})

	n, err := c.Step()
	if err != nil {
		return err
	}

	var diffs []string
	got := c.State()
	gotIME := byte(0)
	if got.IME != irq.Unset {
		gotIME = 1
	}
	actual := regs{
		A: got.A, F: got.F, B: got.B, C: got.C, D: got.D, E: got.E, H: got.H, L: got.L,
		PC: got.PC, SP: got.SP,
		IME: gotIME,
	}
	if d := cmp.Diff(t.Final.regs(), actual); d != "" {
		diffs = append(diffs, "registers (-want +got):\n"+d)
	}
	for _, cell := range t.Final.RAM {
		if v := b.Read8(cell.Addr); v != cell.Val {
			diffs = append(diffs, fmt.Sprintf("ram[%04X] = %02X, want %02X", cell.Addr, v, cell.Val))
		}
	}
	if n != t.Cycles {
		diffs = append(diffs, fmt.Sprintf("took %d M-cycles, want %d", n, t.Cycles))
	}
	if len(diffs) > 0 {
		return &MismatchError{Test: t.Name, Diffs: diffs}
	}
	return nil
}

// Result summarizes the run of a vector file.
type Result struct {
	Path   string
	Passed int
	Errors []error
}

// RunFile runs every test of a vector file. Parse errors are returned,
// test failures are collected in the result.
func RunFile(path string) (Result, error) {
	res := Result{Path: path}
	tests, err := ParseFile(path)
	if err != nil {
		return res, err
	}
	for i := range tests {
		if err := Run(&tests[i]); err != nil {
			res.Errors = append(res.Errors, err)
			continue
		}
		res.Passed++
	}
	return res, nil
}
