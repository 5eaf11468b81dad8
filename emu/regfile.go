// Package emu provides the architectural state and functional units of the
// PipeSim processor, plus a functional reference emulator.
package emu

import (
	"errors"
	"fmt"

	"github.com/sarchlab/pipesim/insts"
)

// ErrRegisterOutOfRange is returned when an instruction names a register
// index outside the register file.
var ErrRegisterOutOfRange = errors.New("register index out of range")

// RegFile represents the register file: 256 unsigned 32-bit registers,
// all zero at reset.
type RegFile struct {
	// X holds the general-purpose registers.
	X [insts.NumRegisters]uint32
}

// NewRegFile creates a zeroed register file.
func NewRegFile() *RegFile {
	return &RegFile{}
}

// ReadReg reads a register value.
func (r *RegFile) ReadReg(reg uint32) (uint32, error) {
	if reg >= insts.NumRegisters {
		return 0, outOfRange(reg)
	}
	return r.X[reg], nil
}

// WriteReg writes a value to a register.
func (r *RegFile) WriteReg(reg uint32, value uint32) error {
	if reg >= insts.NumRegisters {
		return outOfRange(reg)
	}
	r.X[reg] = value
	return nil
}

// Snapshot returns a copy of all register values.
func (r *RegFile) Snapshot() [insts.NumRegisters]uint32 {
	return r.X
}

// Reset zeroes every register.
func (r *RegFile) Reset() {
	r.X = [insts.NumRegisters]uint32{}
}

func outOfRange(reg uint32) error {
	return fmt.Errorf("%w: r%d (register file has %d)",
		ErrRegisterOutOfRange, reg, insts.NumRegisters)
}
