// Package core provides the cycle-accurate CPU core model.
// It wraps the pipeline implementation to provide a high-level interface.
package core

import (
	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/insts"
	"github.com/sarchlab/pipesim/timing/pipeline"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// SingleCycle is the number of instructions that completed at fetch.
	SingleCycle uint64
	// IdleFetches is the number of fetches that found nothing to run.
	IdleFetches uint64
}

// CPI returns the cycles per instruction.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Core represents a cycle-accurate CPU core model.
// It wraps a 4-stage pipeline and provides a simple interface for simulation.
type Core struct {
	// Pipeline is the underlying 4-stage pipeline.
	Pipeline *pipeline.Pipeline

	regFile *emu.RegFile
}

// NewCore creates a new Core with the given register file. Options are passed
// through to the pipeline.
func NewCore(regFile *emu.RegFile, opts ...pipeline.PipelineOption) *Core {
	return &Core{
		Pipeline: pipeline.NewPipeline(regFile, opts...),
		regFile:  regFile,
	}
}

// RegFile returns the register file.
func (c *Core) RegFile() *emu.RegFile {
	return c.regFile
}

// Load parses source text and appends the instructions that parsed to the
// instruction queue.
func (c *Core) Load(src string) pipeline.LoadReport {
	return c.Pipeline.Load(insts.NewParser().ParseString(src))
}

// Tick executes one pipeline cycle.
func (c *Core) Tick() error {
	return c.Pipeline.Tick()
}

// Done returns true if the loaded program has completed.
func (c *Core) Done() bool {
	return c.Pipeline.Done()
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	pipeStats := c.Pipeline.Stats()
	return Stats{
		Cycles:       pipeStats.Cycles,
		Instructions: pipeStats.Instructions,
		SingleCycle:  pipeStats.SingleCycle,
		IdleFetches:  pipeStats.IdleFetches,
	}
}

// Run executes the core until the program completes.
func (c *Core) Run() error {
	return c.Pipeline.Run()
}

// RunCycles executes the core for the specified number of cycles.
// Returns true if still running, false if done.
func (c *Core) RunCycles(cycles uint64) (bool, error) {
	return c.Pipeline.RunTicks(cycles)
}

// Reset clears all core state.
func (c *Core) Reset() {
	c.Pipeline.Reset()
}
