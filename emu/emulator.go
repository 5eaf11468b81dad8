package emu

import (
	"errors"
	"fmt"

	"github.com/sarchlab/pipesim/insts"
)

// ErrMaxInstructions is returned when the emulator hits its instruction limit.
var ErrMaxInstructions = errors.New("max instructions reached")

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Done is true when the program has no more instructions.
	Done bool

	// Err is set if an error occurred during execution.
	Err error
}

// Emulator executes instructions functionally, one complete instruction per
// step, with no pipeline. It is the reference the timing pipeline is checked
// against.
type Emulator struct {
	regFile *RegFile
	program []insts.Instruction
	next    int

	// Execution state
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithRegFile runs the emulator against an existing register file.
func WithRegFile(regFile *RegFile) EmulatorOption {
	return func(e *Emulator) {
		e.regFile = regFile
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates a new emulator.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{}

	for _, opt := range opts {
		opt(e)
	}

	if e.regFile == nil {
		e.regFile = NewRegFile()
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// InstructionCount returns the number of instructions executed, NOPs included.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// LoadProgram appends instructions to the program.
func (e *Emulator) LoadProgram(program []insts.Instruction) {
	e.program = append(e.program, program...)
}

// Reset clears registers, program and counters.
func (e *Emulator) Reset() {
	e.regFile.Reset()
	e.program = nil
	e.next = 0
	e.instructionCount = 0
}

// Step executes the next instruction.
func (e *Emulator) Step() StepResult {
	if e.next >= len(e.program) {
		return StepResult{Done: true}
	}

	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: ErrMaxInstructions}
	}

	inst := e.program[e.next]
	if err := e.Execute(inst); err != nil {
		return StepResult{Err: fmt.Errorf("instruction %d (%v): %w", e.next, inst, err)}
	}

	e.next++
	e.instructionCount++

	return StepResult{Done: e.next >= len(e.program)}
}

// Run executes instructions until the program ends or an error occurs.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Err != nil {
			return result.Err
		}
		if result.Done {
			return nil
		}
	}
}

// Execute applies one instruction to the register file.
func (e *Emulator) Execute(inst insts.Instruction) error {
	switch inst.Op {
	case insts.OpNOP:
		return nil
	case insts.OpMOVI:
		return e.regFile.WriteReg(inst.Rd, inst.Imm)
	case insts.OpMOV:
		v, err := e.regFile.ReadReg(inst.Rn)
		if err != nil {
			return err
		}
		return e.regFile.WriteReg(inst.Rd, v)
	case insts.OpADDI, insts.OpSUBI:
		x, err := e.regFile.ReadReg(inst.Rd)
		if err != nil {
			return err
		}
		return e.compute(inst, x, inst.Imm)
	case insts.OpADD, insts.OpSUB:
		x, err := e.regFile.ReadReg(inst.Rn)
		if err != nil {
			return err
		}
		y, err := e.regFile.ReadReg(inst.Rm)
		if err != nil {
			return err
		}
		return e.compute(inst, x, y)
	default:
		return fmt.Errorf("unknown opcode %v", inst.Op)
	}
}

func (e *Emulator) compute(inst insts.Instruction, x, y uint32) error {
	op := UnitOpAdd
	if inst.Op == insts.OpSUBI || inst.Op == insts.OpSUB {
		op = UnitOpSub
	}

	alu := NewALU()
	alu.Issue(inst, x, y, op)
	alu.Execute()

	return e.regFile.WriteReg(inst.Rd, alu.Result())
}
