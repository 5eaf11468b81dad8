// Command benchmark runs the PipeSim timing benchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv        Output results in CSV format (default: human-readable)
//	-json       Output results in JSON format
//	-akita      Run each core on an akita engine
//	-core       Run only the two reference programs
//	-j          Number of benchmarks to run at once
//
// Example:
//
//	# Run all benchmarks with human-readable output
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
//
// Every benchmark is checked against the functional reference emulator. The
// command exits non-zero if any benchmark fails validation.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/pipesim/benchmarks"
)

func main() {
	// Parse flags
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results in JSON format")
	useEngine := flag.Bool("akita", false, "Run each core on an akita engine")
	coreOnly := flag.Bool("core", false, "Run only the reference programs")
	parallelism := flag.Int("j", 0, "Benchmarks to run at once (default: number of CPUs)")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	// Configure harness
	config := benchmarks.DefaultConfig()
	config.UseEngine = *useEngine
	config.Verbose = *verbose
	config.Output = os.Stdout
	if *parallelism > 0 {
		config.Parallelism = *parallelism
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	config.Logger = logger

	// Create harness and add benchmarks
	harness := benchmarks.NewHarness(config)
	if *coreOnly {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	// Print configuration
	if !*csvOutput && !*jsonOutput {
		fmt.Println("PipeSim Timing Benchmark Harness")
		fmt.Println("================================")
		fmt.Printf("Akita engine: %v\n", config.UseEngine)
		fmt.Printf("Parallelism:  %d\n", config.Parallelism)
		fmt.Println("")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Run benchmarks
	results, err := harness.RunAll(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Output results
	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)

		summary := benchmarks.Summarize(results)
		fmt.Println("=== Summary ===")
		fmt.Printf("Benchmarks:   %d\n", summary.TotalBenchmarks)
		fmt.Printf("Validated:    %d\n", summary.Validated)
		fmt.Printf("Total Cycles: %d\n", summary.TotalCycles)
		fmt.Printf("Average CPI:  %.3f\n", summary.AverageCPI)
	}

	if benchmarks.Summarize(results).Validated != len(results) {
		os.Exit(2)
	}
}
