package emu

import (
	"bytes"
	"testing"
)

func TestSerialMonitorVerdict(t *testing.T) {
	tests := []struct {
		out  string
		want Verdict
	}{
		{"", Running},
		{"cpu_instrs\n\n01:ok  02:ok", Running},
		{"cpu_instrs\n\nPassed all tests\n", Passed},
		{"06-ld r,r\n\n\nFailed\n", Failed},
		{"Failed 3 tests.", Failed},
	}
	for _, tt := range tests {
		var echo bytes.Buffer
		mon := NewSerialMonitor(&echo)
		mon.Write([]byte(tt.out))
		if got := mon.Verdict(); got != tt.want {
			t.Errorf("Verdict(%q) = %s, want %s", tt.out, got, tt.want)
		}
		if echo.String() != tt.out || mon.String() != tt.out {
			t.Errorf("output not recorded and echoed: %q / %q", mon.String(), echo.String())
		}
	}
}

func TestRunTestROMTimeout(t *testing.T) {
	m := newMachine(loop...)
	v, _, err := RunTestROM(t.Context(), m, 2)
	if err != ErrTimeout || v != Running {
		t.Fatalf("got %s, %v", v, err)
	}
}

func TestRunTestROMPassed(t *testing.T) {
	code := []byte{}
	for _, c := range []byte("Passed\n") {
		code = append(code, 0x3E, c, 0xE0, 0x01, 0x3E, 0x81, 0xE0, 0x02)
	}
	code = append(code, loop...)
	m := newMachine(code...)

	v, mon, err := RunTestROM(t.Context(), m, 10)
	if err != nil || v != Passed {
		t.Fatalf("got %s, %v (output %q)", v, err, mon)
	}
}
