// Package main provides accuracy validation for the timing model.
// It runs random programs through the pipeline and the reference emulator
// and checks that they agree.
package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/google/go-cmp/cmp"

	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/insts"
	"github.com/sarchlab/pipesim/timing/core"
	"github.com/sarchlab/pipesim/timing/pipeline"
)

const (
	programs      = 200
	programLength = 40
	registersUsed = 8
)

// randomProgram builds a program over the first registersUsed registers.
func randomProgram(rng *rand.Rand) []insts.Instruction {
	reg := func() uint32 { return uint32(rng.Intn(registersUsed)) }

	program := make([]insts.Instruction, programLength)
	for i := range program {
		switch insts.Op(rng.Intn(int(insts.NumOps))) {
		case insts.OpNOP:
			program[i] = insts.Nop()
		case insts.OpMOVI:
			program[i] = insts.Movi(reg(), rng.Uint32())
		case insts.OpMOV:
			program[i] = insts.Mov(reg(), reg())
		case insts.OpADDI:
			program[i] = insts.Addi(reg(), rng.Uint32())
		case insts.OpSUBI:
			program[i] = insts.Subi(reg(), rng.Uint32())
		case insts.OpADD:
			program[i] = insts.Add(reg(), reg(), reg())
		case insts.OpSUB:
			program[i] = insts.Sub(reg(), reg(), reg())
		}
	}
	return program
}

// testTextRoundTrip checks that every instruction survives String and
// ParseLine.
func testTextRoundTrip(rng *rand.Rand) bool {
	fmt.Println("Testing instruction text round trip...")

	parser := insts.NewParser()
	for i := 0; i < programs; i++ {
		for _, inst := range randomProgram(rng) {
			parsed, err := parser.ParseLine(inst.String())
			if err != nil || parsed != inst {
				fmt.Printf("❌ %q parsed as %+v (err %v)\n", inst, parsed, err)
				return false
			}
		}
	}

	fmt.Printf("✅ %d instructions round-tripped\n", programs*programLength)
	return true
}

// testPipelineExecution checks final registers against the reference
// emulator, both on the plain loop and on the akita engine.
func testPipelineExecution(rng *rand.Rand) bool {
	fmt.Println("\nTesting pipeline execution accuracy...")

	for i := 0; i < programs; i++ {
		program := randomProgram(rng)

		ref := emu.NewEmulator()
		ref.LoadProgram(program)
		if err := ref.Run(); err != nil {
			fmt.Printf("❌ Program %d: reference emulator failed: %v\n", i, err)
			return false
		}
		want := ref.RegFile().Snapshot()

		for _, useEngine := range []bool{false, true} {
			regFile := emu.NewRegFile()
			c := core.NewCore(regFile, pipeline.WithMaxTicks(programLength*4+1))
			c.Pipeline.LoadProgram(program)

			var err error
			if useEngine {
				_, err = core.RunOnEngine(c, 1000)
			} else {
				err = c.Run()
			}
			if err != nil {
				fmt.Printf("❌ Program %d (engine=%v): %v\n", i, useEngine, err)
				return false
			}

			if diff := cmp.Diff(want, regFile.Snapshot()); diff != "" {
				fmt.Printf("❌ Program %d (engine=%v) differs (-want +got):\n%s", i, useEngine, diff)
				return false
			}
		}
	}

	fmt.Printf("✅ %d random programs match the reference emulator\n", programs)
	return true
}

func main() {
	fmt.Println("PipeSim Accuracy Validation")
	fmt.Println("===========================")

	seed := int64(1)
	rng := rand.New(rand.NewSource(seed))
	fmt.Printf("Seed: %d\n\n", seed)

	allPassed := true

	if !testTextRoundTrip(rng) {
		allPassed = false
	}

	if !testPipelineExecution(rng) {
		allPassed = false
	}

	fmt.Println("\n===========================")
	if allPassed {
		fmt.Println("🎉 ALL ACCURACY TESTS PASSED")
		os.Exit(0)
	} else {
		fmt.Println("❌ ACCURACY TESTS FAILED")
		os.Exit(1)
	}
}
