// Package main provides a profiling wrapper for PipeSim to identify performance bottlenecks.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/insts"
	"github.com/sarchlab/pipesim/loader"
	"github.com/sarchlab/pipesim/timing/core"
	"github.com/sarchlab/pipesim/timing/pipeline"
)

var (
	emulate    = flag.Bool("emu", false, "Profile the functional reference emulator instead of the pipeline")
	akitaMode  = flag.Bool("akita", false, "Run the core on an akita engine")
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile = flag.String("memprofile", "", "write memory profile to file")
	duration   = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	repeat     = flag.Int("repeat", 1000, "number of times to run the program")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <program.s>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Start CPU profiling if requested
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	programPath := flag.Arg(0)

	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}
	for _, err := range prog.Errors() {
		fmt.Fprintf(os.Stderr, "Skipped %v\n", err)
	}
	program := prog.Instructions()

	fmt.Printf("Loaded: %s\n", programPath)
	fmt.Printf("Instructions: %d\n", len(program))

	start := time.Now()

	// Set timeout
	go func() {
		time.Sleep(*duration)
		fmt.Printf("\nTimeout reached after %v - stopping execution\n", *duration)
		os.Exit(2)
	}()

	var instrCount, cycles uint64
	for i := 0; i < *repeat; i++ {
		var n, c uint64
		if *emulate {
			n, err = runEmulationProfile(program)
		} else {
			n, c, err = runTimingProfile(program)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		instrCount += n
		cycles += c
	}

	elapsed := time.Since(start)

	// Write memory profile if requested
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Runs: %d\n", *repeat)
	fmt.Printf("Instructions executed: %d\n", instrCount)
	if cycles > 0 {
		fmt.Printf("Cycles simulated: %d\n", cycles)
		fmt.Printf("Cycles/second: %.0f\n", float64(cycles)/elapsed.Seconds())
	}
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if instrCount > 0 {
		fmt.Printf("Instructions/second: %.0f\n", float64(instrCount)/elapsed.Seconds())
	}
}

// runEmulationProfile runs the program on the functional emulator.
func runEmulationProfile(program []insts.Instruction) (uint64, error) {
	emulator := emu.NewEmulator()
	emulator.LoadProgram(program)

	if err := emulator.Run(); err != nil {
		return 0, err
	}

	return emulator.InstructionCount(), nil
}

// runTimingProfile runs the program through the pipeline.
func runTimingProfile(program []insts.Instruction) (uint64, uint64, error) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	c := core.NewCore(emu.NewRegFile(), pipeline.WithLogger(logger))
	c.Pipeline.LoadProgram(program)

	var err error
	if *akitaMode {
		_, err = core.RunOnEngine(c, 1000)
	} else {
		err = c.Run()
	}
	if err != nil {
		return 0, 0, err
	}

	stats := c.Stats()
	return stats.Instructions, stats.Cycles, nil
}
