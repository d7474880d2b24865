package cpu

import "fmt"

// IllegalOpcodeError is returned when the CPU fetches one of the eleven
// undefined SM83 opcodes. Real hardware locks up; emulation stops.
type IllegalOpcodeError struct {
	Opcode byte
	PC     uint16
	State  State
}

func newIllegalOpcodeError(c *CPU, op byte, pc uint16) *IllegalOpcodeError {
	s := c.State()
	s.PC = pc
	return &IllegalOpcodeError{Opcode: op, PC: pc, State: s}
}

func (e *IllegalOpcodeError) Error() string {
	return fmt.Sprintf("illegal opcode %02X at %04X", e.Opcode, e.PC)
}

// UnimplementedOpcodeError reports a defined opcode without a handler.
type UnimplementedOpcodeError struct {
	Opcode   byte
	Prefixed bool
	PC       uint16
}

func (e *UnimplementedOpcodeError) Error() string {
	if e.Prefixed {
		return fmt.Sprintf("unimplemented opcode CB %02X at %04X", e.Opcode, e.PC)
	}
	return fmt.Sprintf("unimplemented opcode %02X at %04X", e.Opcode, e.PC)
}
