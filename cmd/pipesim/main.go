// Package main provides the entry point for PipeSim.
// PipeSim is a cycle-accurate model of a small four-stage pipelined
// processor.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/insts"
	"github.com/sarchlab/pipesim/loader"
	"github.com/sarchlab/pipesim/monitor"
	"github.com/sarchlab/pipesim/timing/config"
	"github.com/sarchlab/pipesim/timing/core"
	"github.com/sarchlab/pipesim/timing/pipeline"
)

var (
	monitorMode = flag.Bool("monitor", false, "Start the interactive monitor")
	configPath  = flag.String("config", "", "Path to simulation configuration JSON file")
	verbose     = flag.Bool("v", false, "Verbose output (debug logging)")
	trace       = flag.Bool("trace", false, "Log every pipeline tick")
	akitaMode   = flag.Bool("akita", false, "Run the core as a ticking component on an akita engine")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 && !*monitorMode {
		fmt.Fprintf(os.Stderr, "Usage: pipesim [options] <program.s>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath, *verbose, *trace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	c := newCore(cfg, logger)

	if flag.NArg() >= 1 {
		programPath := flag.Arg(0)

		prog, err := loader.Load(programPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
			os.Exit(1)
		}

		report := c.Pipeline.Load(prog.Results)
		if *verbose {
			fmt.Printf("Loaded: %s\n", programPath)
			fmt.Printf("Instructions: %d\n", report.Loaded)
			fmt.Printf("Skipped lines: %d\n", len(report.Errors))
		}
	}

	if *monitorMode {
		if err := runMonitor(c, cfg, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runBatch(c, cfg, *akitaMode, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(path string, verbose, trace bool) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path != "" {
		var err error
		cfg, err = config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	if verbose {
		cfg.LogLevel = logrus.DebugLevel.String()
	}
	if trace {
		cfg.Trace = true
		if level, err := cfg.Level(); err == nil && level < logrus.InfoLevel {
			cfg.LogLevel = logrus.InfoLevel.String()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newCore(cfg *config.Config, logger logrus.FieldLogger) *core.Core {
	return core.NewCore(emu.NewRegFile(),
		pipeline.WithLogger(logger),
		pipeline.WithMaxTicks(cfg.MaxTicks),
		pipeline.WithTrace(cfg.Trace),
	)
}

// runBatch runs the loaded program to completion and prints a report.
func runBatch(c *core.Core, cfg *config.Config, useEngine bool, out io.Writer) error {
	var seconds float64
	var err error
	if useEngine {
		seconds, err = core.RunOnEngine(c, cfg.ClockFreqMHz)
	} else {
		err = c.Run()
	}
	if err != nil {
		return err
	}

	printReport(out, c, seconds)
	return nil
}

func printReport(out io.Writer, c *core.Core, seconds float64) {
	stats := c.Stats()

	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "Total Instructions: %d\n", stats.Instructions)
	fmt.Fprintf(out, "Total Cycles: %d\n", stats.Cycles)
	fmt.Fprintf(out, "CPI: %.2f\n", stats.CPI())
	if seconds > 0 {
		fmt.Fprintf(out, "Simulated Time: %.3e s\n", seconds)
	}
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "Pipeline Events:\n")
	fmt.Fprintf(out, "  Single-cycle: %d\n", stats.SingleCycle)
	fmt.Fprintf(out, "  Idle fetches: %d\n", stats.IdleFetches)
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "Registers:\n")

	regs := c.RegFile().Snapshot()
	for i := 0; i < insts.NumRegisters; i++ {
		if regs[i] != 0 {
			fmt.Fprintf(out, "  r%-3d = %d (0x%08x)\n", i, regs[i], regs[i])
		}
	}
}

// runMonitor starts the interactive monitor. A terminal on stdin is put in
// raw mode for line editing; anything else is read line by line.
func runMonitor(c *core.Core, cfg *config.Config, logger *logrus.Logger) error {
	opts := []monitor.Option{
		monitor.WithRegisterWidth(cfg.RegisterDumpWidth),
		monitor.WithQueueWidth(cfg.QueueDumpWidth),
		monitor.WithLogger(logger),
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		m := monitor.New(c, monitor.NewScannerReader(os.Stdin, os.Stdout), os.Stdout, opts...)
		defer m.Close()
		return m.Run()
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to set raw mode: %w", err)
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	rw := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}
	reader := monitor.NewTerminalReader(rw)
	logger.SetOutput(reader.Writer())

	m := monitor.New(c, reader, reader.Writer(), opts...)
	defer m.Close()
	return m.Run()
}
