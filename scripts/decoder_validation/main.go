// Measure decode stage cost - allocations per issued functional unit task
package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/insts"
	"github.com/sarchlab/pipesim/timing/pipeline"
)

func main() {
	regFile := emu.NewRegFile()
	regFile.X[1] = 100
	regFile.X[2] = 58

	program := []insts.Instruction{
		insts.Add(0, 1, 2),
		insts.Sub(3, 1, 2),
		insts.Addi(4, 42),
		insts.Subi(5, 7),
	}

	decodeStage := pipeline.NewDecodeStage(regFile, pipeline.NewDispatchTable())

	// Warm up
	for i := 0; i < 1000; i++ {
		_, _ = decodeStage.Decode(program[0])
	}

	runtime.GC()
	var m1, m2 runtime.MemStats
	runtime.ReadMemStats(&m1)

	start := time.Now()
	iterations := 100000

	for i := 0; i < iterations; i++ {
		for _, inst := range program {
			unit, err := decodeStage.Decode(inst)
			if err != nil {
				fmt.Printf("decode %s: %v\n", inst, err)
				return
			}
			unit.Execute()
		}
	}

	elapsed := time.Since(start)
	runtime.ReadMemStats(&m2)

	totalDecodes := iterations * len(program)
	allocations := m2.Mallocs - m1.Mallocs
	allocatedBytes := m2.TotalAlloc - m1.TotalAlloc

	fmt.Printf("Decode Stage Results:\n")
	fmt.Printf("=====================\n")
	fmt.Printf("Total decode operations: %d\n", totalDecodes)
	fmt.Printf("Time elapsed: %v\n", elapsed)
	fmt.Printf("Decodes per second: %.0f\n", float64(totalDecodes)/elapsed.Seconds())
	fmt.Printf("Allocations: %d\n", allocations)
	fmt.Printf("Allocated bytes: %d\n", allocatedBytes)
	fmt.Printf("Allocations per decode: %.3f\n", float64(allocations)/float64(totalDecodes))
	fmt.Printf("Bytes per decode: %.1f\n", float64(allocatedBytes)/float64(totalDecodes))

	// One ALU per issued task is expected.
	if float64(allocations)/float64(totalDecodes) <= 1.1 {
		fmt.Printf("\n✅ GOOD: at most one allocation per decode\n")
	} else {
		fmt.Printf("\n⚠️  WARNING: more than one allocation per decode\n")
	}
}
