package core

import (
	"github.com/sarchlab/akita/v4/sim"
)

// Component drives a Core from an akita engine, one pipeline tick per clock
// cycle.
type Component struct {
	*sim.TickingComponent

	core *Core
	err  error
}

// NewComponent creates a ticking component for the core running at freq.
func NewComponent(
	name string,
	engine sim.Engine,
	freq sim.Freq,
	c *Core,
) *Component {
	comp := &Component{core: c}
	comp.TickingComponent = sim.NewTickingComponent(name, engine, freq, comp)
	return comp
}

// Core returns the wrapped core.
func (comp *Component) Core() *Core {
	return comp.core
}

// Err returns the fault that stopped the core, or nil.
func (comp *Component) Err() error {
	return comp.err
}

// Tick advances the core by one cycle. It reports no progress once the
// program is done, the core has faulted, or the pipeline's tick limit is
// reached, which lets the engine drain.
func (comp *Component) Tick() bool {
	if comp.err != nil || comp.core.Done() {
		return false
	}

	if err := comp.core.Pipeline.TickLimitErr(); err != nil {
		comp.err = err
		return false
	}

	if err := comp.core.Tick(); err != nil {
		comp.err = err
		return false
	}

	return !comp.core.Done()
}

// RunOnEngine runs the core to completion on a fresh serial engine at
// freqMHz. It returns the simulated time in seconds.
func RunOnEngine(c *Core, freqMHz float64) (float64, error) {
	engine := sim.NewSerialEngine()
	comp := NewComponent("Core", engine, sim.Freq(freqMHz)*sim.MHz, c)

	comp.TickLater()

	if err := engine.Run(); err != nil {
		return 0, err
	}
	if comp.err != nil {
		return float64(engine.CurrentTime()), comp.err
	}

	return float64(engine.CurrentTime()), nil
}
