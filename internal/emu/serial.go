package emu

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"strings"

	"github.com/go-faster/errors"
)

// Verdict is the outcome a test ROM reports over the serial port.
type Verdict int

const (
	Running Verdict = iota
	Passed
	Failed
)

func (v Verdict) String() string {
	switch v {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	}
	return "running"
}

var failedRe = regexp.MustCompile(`(?i)\bfailed\b`)

// SerialMonitor records serial output and recognizes the verdict printed by
// blargg style test ROMs. Output is optionally echoed to another writer.
type SerialMonitor struct {
	buf  bytes.Buffer
	echo io.Writer
}

func NewSerialMonitor(echo io.Writer) *SerialMonitor {
	return &SerialMonitor{echo: echo}
}

func (s *SerialMonitor) Write(p []byte) (int, error) {
	s.buf.Write(p)
	if s.echo != nil {
		return s.echo.Write(p)
	}
	return len(p), nil
}

// String returns everything received so far.
func (s *SerialMonitor) String() string { return s.buf.String() }

func (s *SerialMonitor) Verdict() Verdict {
	out := s.buf.String()
	switch {
	case strings.Contains(strings.ToLower(out), "passed"):
		return Passed
	case failedRe.MatchString(out):
		return Failed
	}
	return Running
}

// ErrTimeout is returned by RunTestROM when the ROM reported nothing within
// the frame budget.
var ErrTimeout = errors.New("no verdict before frame limit")

// RunTestROM runs m for at most maxFrames frames, stopping as soon as the
// serial output carries a verdict.
func RunTestROM(ctx context.Context, m *Machine, maxFrames int) (Verdict, *SerialMonitor, error) {
	mon := NewSerialMonitor(nil)
	m.SetSerialWriter(mon)

	for i := 0; i < maxFrames; i++ {
		if err := ctx.Err(); err != nil {
			return Running, mon, err
		}
		if err := m.StepFrame(); err != nil {
			return Running, mon, err
		}
		if v := mon.Verdict(); v != Running {
			return v, mon, nil
		}
	}
	return Running, mon, ErrTimeout
}
