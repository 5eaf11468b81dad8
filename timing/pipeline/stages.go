package pipeline

import (
	"errors"
	"fmt"

	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/insts"
)

// ErrUnhandledOp is returned when a stage meets an opcode it has no case for.
var ErrUnhandledOp = errors.New("unhandled opcode")

// FetchStage applies single-cycle instructions and routes the rest.
type FetchStage struct {
	regFile *emu.RegFile
}

// NewFetchStage creates a new fetch stage.
func NewFetchStage(regFile *emu.RegFile) *FetchStage {
	return &FetchStage{
		regFile: regFile,
	}
}

// FetchResult holds the result of the fetch stage.
type FetchResult struct {
	// Next is the stage to run on the following tick.
	Next Stage

	// Committed is true if a single-cycle instruction completed.
	Committed bool
}

// Fetch handles a freshly fetched instruction. MOVI and MOV write the
// register file immediately and keep the pipeline in Fetch, as does NOP.
func (s *FetchStage) Fetch(inst insts.Instruction) (FetchResult, error) {
	switch inst.Op {
	case insts.OpNOP:
		return FetchResult{Next: StageFetch}, nil

	case insts.OpMOVI:
		if err := s.regFile.WriteReg(inst.Rd, inst.Imm); err != nil {
			return FetchResult{}, err
		}
		return FetchResult{Next: StageFetch, Committed: true}, nil

	case insts.OpMOV:
		v, err := s.regFile.ReadReg(inst.Rn)
		if err != nil {
			return FetchResult{}, err
		}
		if err := s.regFile.WriteReg(inst.Rd, v); err != nil {
			return FetchResult{}, err
		}
		return FetchResult{Next: StageFetch, Committed: true}, nil

	case insts.OpADDI, insts.OpSUBI, insts.OpADD, insts.OpSUB:
		return FetchResult{Next: StageDecode}, nil

	default:
		return FetchResult{}, fmt.Errorf("fetch: %w %v", ErrUnhandledOp, inst.Op)
	}
}

// DecodeStage reads operands and issues functional unit tasks.
type DecodeStage struct {
	regFile  *emu.RegFile
	dispatch *DispatchTable
}

// NewDecodeStage creates a new decode stage.
func NewDecodeStage(regFile *emu.RegFile, dispatch *DispatchTable) *DecodeStage {
	return &DecodeStage{
		regFile:  regFile,
		dispatch: dispatch,
	}
}

// Decode reads the source operands of inst from the register file and
// returns a functional unit issued with them. Operand values are captured
// now; later writes to the source registers do not affect the task.
// Non-arithmetic instructions issue nothing and return a nil unit.
func (s *DecodeStage) Decode(inst insts.Instruction) (emu.FunctionalUnit, error) {
	var x, y uint32
	var err error

	switch inst.Op {
	case insts.OpADD, insts.OpSUB:
		if x, err = s.regFile.ReadReg(inst.Rn); err != nil {
			return nil, err
		}
		if y, err = s.regFile.ReadReg(inst.Rm); err != nil {
			return nil, err
		}

	case insts.OpADDI, insts.OpSUBI:
		if x, err = s.regFile.ReadReg(inst.Rd); err != nil {
			return nil, err
		}
		y = inst.Imm

	case insts.OpNOP, insts.OpMOVI, insts.OpMOV:
		return nil, nil

	default:
		return nil, fmt.Errorf("decode: %w %v", ErrUnhandledOp, inst.Op)
	}

	d, ok := s.dispatch.Lookup(inst.Op)
	if !ok {
		return nil, fmt.Errorf("decode: no functional unit for %v: %w", inst.Op, ErrUnhandledOp)
	}

	unit, err := emu.NewUnit(d.Unit)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	unit.Issue(inst, x, y, d.Op)

	return unit, nil
}

// ExecuteStage runs in-flight functional units.
type ExecuteStage struct{}

// NewExecuteStage creates a new execute stage.
func NewExecuteStage() *ExecuteStage {
	return &ExecuteStage{}
}

// Execute computes the result of every unit.
func (s *ExecuteStage) Execute(units []emu.FunctionalUnit) {
	for _, u := range units {
		u.Execute()
	}
}

// WritebackStage commits functional unit results to the register file.
type WritebackStage struct {
	regFile *emu.RegFile
}

// NewWritebackStage creates a new writeback stage.
func NewWritebackStage(regFile *emu.RegFile) *WritebackStage {
	return &WritebackStage{
		regFile: regFile,
	}
}

// Writeback writes the unit's result to the destination register of the
// owning instruction. It returns true if a register was written. Owners that
// already committed at fetch are ignored.
func (s *WritebackStage) Writeback(unit emu.FunctionalUnit) (bool, error) {
	inst := unit.Instruction()

	switch inst.Op {
	case insts.OpADDI, insts.OpSUBI, insts.OpADD, insts.OpSUB:
		if err := s.regFile.WriteReg(inst.Rd, unit.Result()); err != nil {
			return false, err
		}
		return true, nil

	case insts.OpNOP, insts.OpMOVI, insts.OpMOV:
		return false, nil

	default:
		return false, fmt.Errorf("writeback: %w %v", ErrUnhandledOp, inst.Op)
	}
}
