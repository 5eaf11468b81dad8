// Package benchmarks provides timing benchmark infrastructure for PipeSim.
// Every benchmark is also run on the functional reference emulator and the
// final register files are compared.
package benchmarks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/insts"
	"github.com/sarchlab/pipesim/timing/core"
	"github.com/sarchlab/pipesim/timing/pipeline"
)

// ErrBadSource is returned when a benchmark's source does not parse.
var ErrBadSource = errors.New("benchmark source does not parse")

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total tick count from the timing simulator
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// SingleCycle is the number of instructions that completed at fetch
	SingleCycle uint64 `json:"single_cycle"`

	// UnitIssues is the number of functional unit tasks issued
	UnitIssues uint64 `json:"unit_issues"`

	// IdleFetches is the number of fetches that found a nop
	IdleFetches uint64 `json:"idle_fetches"`

	// SimulatedSeconds is the akita engine time, when run on the engine
	SimulatedSeconds float64 `json:"simulated_seconds,omitempty"`

	// Validated is true when the pipeline's registers match the reference
	// emulator's and every expectation holds
	Validated bool `json:"validated"`

	// Mismatch describes why validation failed
	Mismatch string `json:"mismatch,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Setup prepares the register file before the run
	Setup func(regFile *emu.RegFile)

	// Source is the assembly text to execute
	Source string

	// ExpectedRegs maps register index to expected final value
	ExpectedRegs map[uint32]uint32

	// ExpectedCycles is the expected tick count. 0 means unchecked.
	ExpectedCycles uint64
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Parallelism bounds how many benchmarks run at once
	Parallelism int

	// MaxTicks bounds each run. 0 means no limit.
	MaxTicks uint64

	// UseEngine runs each core as a ticking component on an akita engine
	UseEngine bool

	// ClockFreqMHz is the engine clock when UseEngine is set
	ClockFreqMHz float64

	// Logger receives pipeline warnings and faults
	Logger logrus.FieldLogger

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Parallelism:  runtime.NumCPU(),
		MaxTicks:     1_000_000,
		UseEngine:    false,
		ClockFreqMHz: 1000,
		Output:       os.Stdout,
		Verbose:      false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Parallelism <= 0 {
		config.Parallelism = 1
	}
	if config.ClockFreqMHz <= 0 {
		config.ClockFreqMHz = 1000
	}
	if config.Logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		config.Logger = logger
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks concurrently and returns results in the
// order the benchmarks were added. A benchmark that faults or fails to
// parse cancels the rest and its error is returned. Validation mismatches
// are not errors; they are reported in the results.
func (h *Harness) RunAll(ctx context.Context) ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, len(h.benchmarks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(h.config.Parallelism)

	for i, bench := range h.benchmarks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			result, err := h.runBenchmark(bench)
			if err != nil {
				return fmt.Errorf("benchmark %s: %w", bench.Name, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// runBenchmark executes a single benchmark on a fresh core and on the
// reference emulator.
func (h *Harness) runBenchmark(bench Benchmark) (BenchmarkResult, error) {
	program, err := parseSource(bench.Source)
	if err != nil {
		return BenchmarkResult{}, err
	}

	regFile := emu.NewRegFile()
	if bench.Setup != nil {
		bench.Setup(regFile)
	}

	c := core.NewCore(regFile,
		pipeline.WithLogger(h.config.Logger.WithField("benchmark", bench.Name)),
		pipeline.WithMaxTicks(h.config.MaxTicks),
	)
	c.Pipeline.LoadProgram(program)

	// Run simulation and measure time
	start := time.Now()
	var seconds float64
	if h.config.UseEngine {
		seconds, err = core.RunOnEngine(c, h.config.ClockFreqMHz)
	} else {
		err = c.Run()
	}
	wallTime := time.Since(start)
	if err != nil {
		return BenchmarkResult{}, err
	}

	stats := c.Pipeline.Stats()
	result := BenchmarkResult{
		Name:                bench.Name,
		Description:         bench.Description,
		SimulatedCycles:     stats.Cycles,
		InstructionsRetired: stats.Instructions,
		CPI:                 stats.CPI(),
		SingleCycle:         stats.SingleCycle,
		UnitIssues:          stats.UnitIssues,
		IdleFetches:         stats.IdleFetches,
		SimulatedSeconds:    seconds,
		WallTime:            wallTime,
	}

	mismatch, err := validate(bench, program, regFile.Snapshot(), stats.Cycles)
	if err != nil {
		return BenchmarkResult{}, err
	}
	result.Mismatch = mismatch
	result.Validated = mismatch == ""

	return result, nil
}

func parseSource(src string) ([]insts.Instruction, error) {
	var program []insts.Instruction
	for _, r := range insts.NewParser().ParseString(src) {
		if !r.OK() {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadSource, r.Line, r.Err)
		}
		program = append(program, r.Inst)
	}
	return program, nil
}

// validate compares the pipeline's final registers with the reference
// emulator's and with the benchmark's expectations. It returns an empty
// string when everything matches.
func validate(
	bench Benchmark,
	program []insts.Instruction,
	got [insts.NumRegisters]uint32,
	cycles uint64,
) (string, error) {
	refRegs := emu.NewRegFile()
	if bench.Setup != nil {
		bench.Setup(refRegs)
	}

	ref := emu.NewEmulator(emu.WithRegFile(refRegs))
	ref.LoadProgram(program)
	if err := ref.Run(); err != nil {
		return "", fmt.Errorf("reference emulator: %w", err)
	}

	if diff := cmp.Diff(refRegs.Snapshot(), got); diff != "" {
		return fmt.Sprintf("registers differ from reference (-want +got):\n%s", diff), nil
	}

	regs := make([]uint32, 0, len(bench.ExpectedRegs))
	for reg := range bench.ExpectedRegs {
		if reg >= insts.NumRegisters {
			return "", fmt.Errorf("expected value for r%d: %w", reg, emu.ErrRegisterOutOfRange)
		}
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i] < regs[j] })

	var mismatches []string
	for _, reg := range regs {
		if want := bench.ExpectedRegs[reg]; got[reg] != want {
			mismatches = append(mismatches, fmt.Sprintf("r%d = %d, want %d", reg, got[reg], want))
		}
	}
	if len(mismatches) > 0 {
		return strings.Join(mismatches, "; "), nil
	}

	if bench.ExpectedCycles != 0 && cycles != bench.ExpectedCycles {
		return fmt.Sprintf("%d cycles, want %d", cycles, bench.ExpectedCycles), nil
	}

	return "", nil
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== PipeSim Timing Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(h.config.Output, "  Single-Cycle:         %d\n", r.SingleCycle)
		_, _ = fmt.Fprintf(h.config.Output, "  Unit Issues:          %d\n", r.UnitIssues)
		_, _ = fmt.Fprintf(h.config.Output, "  Idle Fetches:         %d\n", r.IdleFetches)
		if r.SimulatedSeconds > 0 {
			_, _ = fmt.Fprintf(h.config.Output, "  Simulated Time:       %.3e s\n", r.SimulatedSeconds)
		}

		if r.Validated {
			_, _ = fmt.Fprintln(h.config.Output, "  Validation: PASS")
		} else {
			_, _ = fmt.Fprintln(h.config.Output, "  Validation: FAIL")
			_, _ = fmt.Fprintf(h.config.Output, "  %s\n", r.Mismatch)
		}

		if h.config.Verbose {
			_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		}
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,cpi,single_cycle,unit_issues,idle_fetches,validated")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%t\n",
			r.Name,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.SingleCycle,
			r.UnitIssues,
			r.IdleFetches,
			r.Validated,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Version of the simulator
	Version string `json:"version"`

	// Config describes the benchmark configuration
	Config BenchmarkConfig `json:"config"`
}

// BenchmarkConfig describes the harness configuration used.
type BenchmarkConfig struct {
	MaxTicks     uint64  `json:"max_ticks"`
	UseEngine    bool    `json:"use_engine"`
	ClockFreqMHz float64 `json:"clock_freq_mhz"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// Validated is the number of benchmarks that matched the reference
	Validated int `json:"validated"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// TotalInstructions is the sum of all instructions retired
	TotalInstructions uint64 `json:"total_instructions"`

	// AverageCPI is the average cycles per instruction
	AverageCPI float64 `json:"average_cpi"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// Version is reported in JSON output.
const Version = "0.1.0"

// Summarize computes aggregate statistics.
func Summarize(results []BenchmarkResult) ReportSummary {
	summary := ReportSummary{TotalBenchmarks: len(results)}
	for _, r := range results {
		summary.TotalCycles += r.SimulatedCycles
		summary.TotalInstructions += r.InstructionsRetired
		summary.TotalWallTime += r.WallTime
		if r.Validated {
			summary.Validated++
		}
	}

	if summary.TotalInstructions > 0 {
		summary.AverageCPI = float64(summary.TotalCycles) / float64(summary.TotalInstructions)
	}

	return summary
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   Version,
			Config: BenchmarkConfig{
				MaxTicks:     h.config.MaxTicks,
				UseEngine:    h.config.UseEngine,
				ClockFreqMHz: h.config.ClockFreqMHz,
			},
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
