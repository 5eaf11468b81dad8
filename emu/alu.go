package emu

import (
	"fmt"

	"github.com/sarchlab/pipesim/insts"
)

// ALU implements 32-bit add and subtract. Both wrap modulo 2^32.
type ALU struct {
	x, y   uint32
	result uint32
	op     UnitOp
	owner  insts.Instruction

	issued   bool
	executed bool
}

// NewALU creates an idle ALU.
func NewALU() *ALU {
	return &ALU{}
}

// Kind returns UnitALU.
func (a *ALU) Kind() UnitKind {
	return UnitALU
}

// Issue binds the operands and operation for owner.
func (a *ALU) Issue(owner insts.Instruction, x, y uint32, op UnitOp) {
	if a.issued {
		panic(fmt.Sprintf("ALU issued twice: %v then %v", a.owner, owner))
	}
	a.owner = owner
	a.x = x
	a.y = y
	a.op = op
	a.issued = true
}

// Execute computes the result of the bound operation.
func (a *ALU) Execute() {
	if !a.issued {
		panic("ALU executed before issue")
	}
	a.result = Compute(a.op, a.x, a.y)
	a.executed = true
}

// Result returns the computed result.
func (a *ALU) Result() uint32 {
	if !a.executed {
		panic(fmt.Errorf("%w: %v", ErrResultNotReady, a.owner))
	}
	return a.result
}

// Instruction returns the owning instruction.
func (a *ALU) Instruction() insts.Instruction {
	return a.owner
}

// Operands returns the bound operands.
func (a *ALU) Operands() (x, y uint32) {
	return a.x, a.y
}

func (a *ALU) sealed() {}

// Compute applies op to x and y.
func Compute(op UnitOp, x, y uint32) uint32 {
	switch op {
	case UnitOpAdd:
		return x + y
	case UnitOpSub:
		return x - y
	default:
		panic(fmt.Sprintf("ALU: unsupported operation %v", op))
	}
}
