// Package main provides the entry point for PipeSim.
// PipeSim is a cycle-accurate model of a four-stage pipelined processor,
// with an optional akita engine driver.
//
// For the full CLI, use: go run ./cmd/pipesim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("PipeSim - Pipelined Processor Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: pipesim [options] <program.s>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -monitor   Start the interactive monitor")
	fmt.Println("  -config    Path to simulation configuration JSON file")
	fmt.Println("  -akita     Run the core on an akita engine")
	fmt.Println("  -trace     Log every pipeline tick")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/pipesim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/pipesim' instead.")
	}
}
