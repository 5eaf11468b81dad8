package emu

import (
	"errors"
	"fmt"

	"github.com/sarchlab/pipesim/insts"
)

// ErrResultNotReady is the panic value when a functional unit result is read
// before the unit has executed.
var ErrResultNotReady = errors.New("functional unit result read before execute")

// UnitKind identifies a kind of functional unit.
type UnitKind uint8

// Functional unit kinds.
const (
	UnitALU UnitKind = iota

	// NumUnitKinds is the number of defined unit kinds.
	NumUnitKinds
)

// String returns the unit kind name.
func (k UnitKind) String() string {
	switch k {
	case UnitALU:
		return "ALU"
	default:
		return fmt.Sprintf("unit(%d)", uint8(k))
	}
}

// UnitOp is an operation a functional unit can perform.
type UnitOp uint8

// Functional unit operations.
const (
	UnitOpAdd UnitOp = iota
	UnitOpSub
)

// String returns the operation name.
func (o UnitOp) String() string {
	switch o {
	case UnitOpAdd:
		return "add"
	case UnitOpSub:
		return "sub"
	default:
		return fmt.Sprintf("unitop(%d)", uint8(o))
	}
}

// FunctionalUnit performs one deferred computation on behalf of an issued
// instruction. A unit instance serves exactly one task: Issue once, Execute,
// then read Result.
//
// The set of implementations is closed; new kinds are added in this package
// and registered with NewUnit.
type FunctionalUnit interface {
	// Kind returns the unit kind.
	Kind() UnitKind

	// Issue binds operands and the operation, and records the owning
	// instruction. Calling Issue twice panics.
	Issue(owner insts.Instruction, x, y uint32, op UnitOp)

	// Execute computes the result from the bound operands.
	Execute()

	// Result returns the computed result. Panics with ErrResultNotReady if
	// Execute has not run.
	Result() uint32

	// Instruction returns the instruction this unit serves.
	Instruction() insts.Instruction

	sealed()
}

// NewUnit creates an idle functional unit of the given kind.
func NewUnit(kind UnitKind) (FunctionalUnit, error) {
	switch kind {
	case UnitALU:
		return NewALU(), nil
	default:
		return nil, fmt.Errorf("no functional unit of kind %v", kind)
	}
}
