package pipeline

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/insts"
)

// ErrTickLimit is returned by Run when the tick limit is reached before the
// program completes.
var ErrTickLimit = errors.New("tick limit reached")

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the total number of ticks simulated.
	Cycles uint64
	// Instructions is the number of instructions completed (retired).
	// NOPs are not counted.
	Instructions uint64
	// SingleCycle is the number of instructions that completed at fetch.
	SingleCycle uint64
	// UnitIssues is the number of functional unit tasks issued at decode.
	UnitIssues uint64
	// IdleFetches is the number of fetch ticks that found a NOP or an empty
	// queue.
	IdleFetches uint64
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// LoadReport summarizes one Load call.
type LoadReport struct {
	// Loaded is the number of instructions appended to the queue.
	Loaded int
	// Errors holds one entry per line that failed to parse.
	Errors []error
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets the logger used for load failures, faults and traces.
func WithLogger(logger logrus.FieldLogger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithMaxTicks bounds Run. A value of 0 means no limit.
func WithMaxTicks(max uint64) PipelineOption {
	return func(p *Pipeline) {
		p.maxTicks = max
	}
}

// WithTrace logs every tick at info level.
func WithTrace(enabled bool) PipelineOption {
	return func(p *Pipeline) {
		p.trace = enabled
	}
}

// WithDispatchTable sets the opcode to functional unit mapping.
func WithDispatchTable(table *DispatchTable) PipelineOption {
	return func(p *Pipeline) {
		p.dispatch = table
	}
}

// Pipeline implements the four-stage pipeline controller.
// Stages: Fetch -> Decode -> Execute -> WriteBack, one stage per tick.
//
// At most one functional unit task is in flight at a time: the next
// instruction is not fetched until the current one has written back, so
// results always commit in program order. There is no hazard detection and
// no forwarding. The Pipeline is not safe for concurrent use.
type Pipeline struct {
	// Instruction queue, front is next to fetch.
	queue []insts.Instruction

	// Instruction slots
	current  insts.Instruction
	previous insts.Instruction
	next     insts.Instruction

	stage    Stage
	inflight []emu.FunctionalUnit

	// Pipeline stages
	fetchStage     *FetchStage
	decodeStage    *DecodeStage
	executeStage   *ExecuteStage
	writebackStage *WritebackStage
	dispatch       *DispatchTable

	regFile *emu.RegFile

	logger   logrus.FieldLogger
	trace    bool
	maxTicks uint64

	// Statistics
	stats Statistics

	// fault is the first fatal error. Once set, the pipeline does not move.
	fault error
}

// NewPipeline creates a new pipeline over the given register file.
func NewPipeline(regFile *emu.RegFile, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		regFile: regFile,
		stage:   StageFetch,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.dispatch == nil {
		p.dispatch = NewDispatchTable()
	}
	if p.logger == nil {
		p.logger = defaultLogger()
	}

	p.fetchStage = NewFetchStage(regFile)
	p.decodeStage = NewDecodeStage(regFile, p.dispatch)
	p.executeStage = NewExecuteStage()
	p.writebackStage = NewWritebackStage(regFile)

	return p
}

func defaultLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

// RegFile returns the register file the pipeline writes.
func (p *Pipeline) RegFile() *emu.RegFile {
	return p.regFile
}

// Registers returns a copy of the register file.
func (p *Pipeline) Registers() [insts.NumRegisters]uint32 {
	return p.regFile.Snapshot()
}

// Queue returns a copy of the pending instructions, front first.
func (p *Pipeline) Queue() []insts.Instruction {
	q := make([]insts.Instruction, len(p.queue))
	copy(q, p.queue)
	return q
}

// State returns the current instruction slots and stage.
func (p *Pipeline) State() State {
	return State{
		Current:  p.current,
		Previous: p.previous,
		Next:     p.next,
		Stage:    p.stage,
		Ticks:    p.stats.Cycles,
	}
}

// Stage returns the stage the next tick will run.
func (p *Pipeline) Stage() Stage {
	return p.stage
}

// Ticks returns the number of ticks run so far.
func (p *Pipeline) Ticks() uint64 {
	return p.stats.Cycles
}

// InFlight returns the number of functional unit tasks in flight.
func (p *Pipeline) InFlight() int {
	return len(p.inflight)
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// Err returns the fault that stopped the pipeline, or nil.
func (p *Pipeline) Err() error {
	return p.fault
}

// Done returns true when the queue is empty and the current instruction is
// a NOP, i.e. the program has completed.
func (p *Pipeline) Done() bool {
	return len(p.queue) == 0 && p.current.IsNop()
}

// Load appends every successfully parsed instruction to the queue, in order.
// Failed lines are logged and reported but do not stop the others from
// loading. The existing queue is kept.
func (p *Pipeline) Load(results []insts.ParseResult) LoadReport {
	report := LoadReport{}

	for _, r := range results {
		if r.Err != nil {
			err := fmt.Errorf("line %d: %w", r.Line, r.Err)
			report.Errors = append(report.Errors, err)
			p.logger.WithFields(logrus.Fields{
				"line": r.Line,
				"text": r.Text,
			}).WithError(r.Err).Warn("instruction not loaded")
			continue
		}

		p.queue = append(p.queue, r.Inst)
		report.Loaded++
	}

	return report
}

// LoadProgram appends instructions to the queue.
func (p *Pipeline) LoadProgram(program []insts.Instruction) {
	p.queue = append(p.queue, program...)
}

// Run ticks until the program completes. It returns immediately if the
// program is already complete.
func (p *Pipeline) Run() error {
	if p.fault != nil {
		return p.fault
	}

	for !p.Done() {
		if err := p.TickLimitErr(); err != nil {
			return err
		}
		if err := p.Tick(); err != nil {
			return err
		}
	}

	return nil
}

// TickLimitErr returns ErrTickLimit once the ticks run so far reach the
// WithMaxTicks bound, and nil otherwise.
func (p *Pipeline) TickLimitErr() error {
	if p.maxTicks > 0 && p.stats.Cycles >= p.maxTicks {
		return fmt.Errorf("%w after %d ticks", ErrTickLimit, p.stats.Cycles)
	}
	return nil
}

// RunTicks runs at most n ticks, stopping early when the program completes.
// Returns true if the program is still running.
func (p *Pipeline) RunTicks(n uint64) (bool, error) {
	for i := uint64(0); i < n && !p.Done(); i++ {
		if err := p.Tick(); err != nil {
			return false, err
		}
	}
	return !p.Done(), nil
}

// Tick runs exactly one pipeline stage.
//
// A register index outside the register file, or an opcode a stage has no
// case for, is fatal: the error is latched and every later Tick returns it
// without changing any state.
func (p *Pipeline) Tick() error {
	if p.fault != nil {
		return p.fault
	}

	p.stats.Cycles++

	stage := p.stage
	var next Stage
	var err error

	switch stage {
	case StageFetch:
		next, err = p.doFetch()
	case StageDecode:
		next, err = p.doDecode()
	case StageExecute:
		next, err = p.doExecute()
	case StageWriteBack:
		next, err = p.doWriteback()
	default:
		err = fmt.Errorf("invalid stage %v", stage)
	}

	if err != nil {
		p.fault = fmt.Errorf("tick %d, %v %q: %w", p.stats.Cycles, stage, p.current, err)
		p.logger.WithFields(logrus.Fields{
			"tick":  p.stats.Cycles,
			"stage": stage.String(),
			"inst":  p.current.String(),
		}).WithError(err).Error("pipeline fault")
		return p.fault
	}

	if p.trace {
		p.logger.WithFields(logrus.Fields{
			"tick":     p.stats.Cycles,
			"stage":    stage.String(),
			"inst":     p.current.String(),
			"next":     next.String(),
			"inflight": len(p.inflight),
		}).Info("tick")
	}

	p.stage = next
	return nil
}

// advance pops the queue front into the current slot and peeks at the new
// front.
func (p *Pipeline) advance() {
	p.previous = p.current

	if len(p.queue) > 0 {
		p.current = p.queue[0]
		p.queue = p.queue[1:]
	} else {
		p.current = insts.Nop()
	}

	if len(p.queue) > 0 {
		p.next = p.queue[0]
	} else {
		p.next = insts.Nop()
	}
}

func (p *Pipeline) doFetch() (Stage, error) {
	p.advance()

	result, err := p.fetchStage.Fetch(p.current)
	if err != nil {
		return StageFetch, err
	}

	if result.Committed {
		p.stats.Instructions++
		p.stats.SingleCycle++
	}
	if p.current.IsNop() {
		p.stats.IdleFetches++
	}

	return result.Next, nil
}

func (p *Pipeline) doDecode() (Stage, error) {
	unit, err := p.decodeStage.Decode(p.current)
	if err != nil {
		return StageDecode, err
	}

	if unit != nil {
		p.inflight = append(p.inflight, unit)
		p.stats.UnitIssues++
	}

	return StageExecute, nil
}

func (p *Pipeline) doExecute() (Stage, error) {
	p.executeStage.Execute(p.inflight)
	return StageWriteBack, nil
}

func (p *Pipeline) doWriteback() (Stage, error) {
	for _, unit := range p.inflight {
		written, err := p.writebackStage.Writeback(unit)
		if err != nil {
			return StageWriteBack, err
		}
		if written {
			p.stats.Instructions++
		}
	}

	p.inflight = p.inflight[:0]

	return StageFetch, nil
}

// Reset clears the queue, the instruction slots, the statistics, any fault,
// and the register file.
func (p *Pipeline) Reset() {
	p.queue = nil
	p.current = insts.Nop()
	p.previous = insts.Nop()
	p.next = insts.Nop()
	p.stage = StageFetch
	p.inflight = nil
	p.stats = Statistics{}
	p.fault = nil
	p.regFile.Reset()
}
