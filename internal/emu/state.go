package emu

import (
	"bytes"
	"encoding/gob"
	"io"
	"os"

	"github.com/go-faster/errors"

	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/bus"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/log"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/timer"
)

const stateVersion = 1

type machineState struct {
	Version int
	Mem     []byte
	CPU     cpu.State
	Timer   timer.State
	PPU     ppu.State
	Buttons bus.Button
	Cycles  uint64
}

// ErrStateVersion is returned when loading a save state written by an
// incompatible version.
var ErrStateVersion = errors.New("unsupported save state version")

// SaveState writes a snapshot of the whole machine to w.
func (m *Machine) SaveState(w io.Writer) error {
	s := machineState{
		Version: stateVersion,
		Mem:     m.bus.Snapshot(),
		CPU:     m.cpu.State(),
		Timer:   m.timer.State(),
		PPU:     m.ppu.State(),
		Buttons: m.bus.Buttons(),
		Cycles:  m.cycles,
	}
	if err := gob.NewEncoder(w).Encode(&s); err != nil {
		return errors.Wrap(err, "encode state")
	}
	return nil
}

// LoadState restores a snapshot written by SaveState. The machine is left
// unchanged if the snapshot cannot be decoded.
func (m *Machine) LoadState(r io.Reader) error {
	var s machineState
	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return errors.Wrap(err, "decode state")
	}
	if s.Version != stateVersion {
		return errors.Wrapf(ErrStateVersion, "version %d", s.Version)
	}
	if len(s.Mem) != 0x10000 {
		return errors.Errorf("state memory is %d bytes", len(s.Mem))
	}
	m.bus.Restore(s.Mem)
	m.bus.SetButtons(s.Buttons)
	m.cpu.SetState(s.CPU)
	m.timer.SetState(s.Timer)
	m.ppu.SetState(s.PPU)
	m.cycles = s.Cycles
	return nil
}

func (m *Machine) SaveStateFile(path string) error {
	var buf bytes.Buffer
	if err := m.SaveState(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "write state")
	}
	log.ModEmu.Infof("state saved to %s", path)
	return nil
}

func (m *Machine) LoadStateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read state")
	}
	if err := m.LoadState(bytes.NewReader(data)); err != nil {
		return err
	}
	log.ModEmu.Infof("state loaded from %s", path)
	return nil
}
