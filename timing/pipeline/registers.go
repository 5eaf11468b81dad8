// Package pipeline provides the four-stage pipeline controller.
package pipeline

import (
	"fmt"

	"github.com/sarchlab/pipesim/insts"
)

// Stage is one of the four pipeline stages. The pipeline runs exactly one
// stage per tick and cycles Fetch -> Decode -> Execute -> WriteBack -> Fetch,
// except that single-cycle instructions and idle fetches stay in Fetch.
type Stage uint8

// Pipeline stages.
const (
	StageFetch Stage = iota
	StageDecode
	StageExecute
	StageWriteBack

	// NumStages is the number of pipeline stages.
	NumStages
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageFetch:
		return "Fetch"
	case StageDecode:
		return "Decode"
	case StageExecute:
		return "Execute"
	case StageWriteBack:
		return "WriteBack"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

// State is a snapshot of the pipeline's instruction slots.
type State struct {
	// Current is the instruction occupying the pipeline.
	Current insts.Instruction

	// Previous is the instruction fetched before Current.
	Previous insts.Instruction

	// Next is the front of the instruction queue at the last fetch, not yet
	// dequeued. NOP if the queue was empty.
	Next insts.Instruction

	// Stage is the stage the next tick will run.
	Stage Stage

	// Ticks is the number of ticks run so far.
	Ticks uint64
}
