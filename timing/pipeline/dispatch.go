package pipeline

import (
	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/insts"
)

// Dispatch names the functional unit kind and operation that serve an opcode.
type Dispatch struct {
	Unit emu.UnitKind
	Op   emu.UnitOp
}

// DispatchTable maps arithmetic opcodes to functional units.
type DispatchTable struct {
	entries map[insts.Op]Dispatch
}

// NewDispatchTable creates the default table: every arithmetic opcode runs
// on the ALU.
func NewDispatchTable() *DispatchTable {
	return &DispatchTable{
		entries: map[insts.Op]Dispatch{
			insts.OpADDI: {Unit: emu.UnitALU, Op: emu.UnitOpAdd},
			insts.OpADD:  {Unit: emu.UnitALU, Op: emu.UnitOpAdd},
			insts.OpSUBI: {Unit: emu.UnitALU, Op: emu.UnitOpSub},
			insts.OpSUB:  {Unit: emu.UnitALU, Op: emu.UnitOpSub},
		},
	}
}

// Lookup returns the dispatch entry for op.
func (t *DispatchTable) Lookup(op insts.Op) (Dispatch, bool) {
	d, ok := t.entries[op]
	return d, ok
}

// Set overrides the dispatch entry for op. A zero DispatchTable starts
// empty.
func (t *DispatchTable) Set(op insts.Op, d Dispatch) {
	if t.entries == nil {
		t.entries = make(map[insts.Op]Dispatch)
	}
	t.entries[op] = d
}
