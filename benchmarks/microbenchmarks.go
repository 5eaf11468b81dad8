package benchmarks

import (
	"fmt"
	"strings"

	"github.com/sarchlab/pipesim/emu"
)

// GetMicrobenchmarks returns the standard set of microbenchmarks.
// Each benchmark targets a specific pipeline characteristic.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		registerChain(),
		immediateChain(),
		moveOnly(),
		dependencyChain(),
		independentOps(),
		wraparound(),
		fibonacci(),
		accumulate(),
		idleFetches(),
	}
}

// GetCoreBenchmarks returns the two reference programs with known tick
// counts.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		registerChain(),
		immediateChain(),
	}
}

// 1. Register Chain - register-operand add and sub after a single-cycle move
func registerChain() Benchmark {
	return Benchmark{
		Name:        "register_chain",
		Description: "movi then dependent register add and sub",
		Source: `
movi r0, #42
add  r1, r0, r0
sub  r2, r1, r0
`,
		ExpectedRegs:   map[uint32]uint32{0: 42, 1: 84, 2: 42},
		ExpectedCycles: 10,
	}
}

// 2. Immediate Chain - read-modify-write immediate arithmetic
func immediateChain() Benchmark {
	return Benchmark{
		Name:        "immediate_chain",
		Description: "three immediate add/sub operations",
		Source: `
addi r0, #42
addi r1, #32
subi r1, #10
`,
		ExpectedRegs:   map[uint32]uint32{0: 42, 1: 22},
		ExpectedCycles: 13,
	}
}

// 3. Move Only - every instruction completes at fetch
func moveOnly() Benchmark {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "movi r%d, #%d\n", i, i+1)
		fmt.Fprintf(&b, "mov r%d, r%d\n", i+10, i)
	}

	return Benchmark{
		Name:           "move_only",
		Description:    "20 single-cycle moves - CPI approaches 1",
		Source:         b.String(),
		ExpectedRegs:   map[uint32]uint32{9: 10, 19: 10},
		ExpectedCycles: 21,
	}
}

// 4. Dependency Chain - every instruction uses the previous result
func dependencyChain() Benchmark {
	return Benchmark{
		Name:           "dependency_chain",
		Description:    "20 dependent addi (r0 = r0 + 1)",
		Source:         strings.Repeat("addi r0, #1\n", 20),
		ExpectedRegs:   map[uint32]uint32{0: 20},
		ExpectedCycles: 81,
	}
}

// 5. Independent Ops - no data dependencies between instructions
func independentOps() Benchmark {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "addi r%d, #%d\n", i%5, 1)
	}

	return Benchmark{
		Name:           "independent_ops",
		Description:    "20 addi to rotating registers - same cost as a chain",
		Source:         b.String(),
		ExpectedRegs:   map[uint32]uint32{0: 4, 4: 4},
		ExpectedCycles: 81,
	}
}

// 6. Wraparound - 32-bit overflow in both directions
func wraparound() Benchmark {
	return Benchmark{
		Name:        "wraparound",
		Description: "sub below zero and add past 2^32",
		Source: `
subi r0, #1
movi r1, #0xffffffff
addi r1, #2
sub  r2, r1, r0
`,
		ExpectedRegs:   map[uint32]uint32{0: 0xffffffff, 1: 1, 2: 2},
		ExpectedCycles: 14,
	}
}

// 7. Fibonacci - unrolled, mixing moves and register adds
func fibonacci() Benchmark {
	var b strings.Builder
	b.WriteString("movi r0, #0\nmovi r1, #1\n")
	for i := 0; i < 10; i++ {
		b.WriteString("add r2, r0, r1\nmov r0, r1\nmov r1, r2\n")
	}

	return Benchmark{
		Name:           "fibonacci",
		Description:    "10 unrolled fibonacci steps",
		Source:         b.String(),
		ExpectedRegs:   map[uint32]uint32{0: 55, 1: 89},
		ExpectedCycles: 63,
	}
}

// 8. Accumulate - sums registers preset before the run
func accumulate() Benchmark {
	var b strings.Builder
	for i := 10; i < 20; i++ {
		fmt.Fprintf(&b, "add r0, r0, r%d\n", i)
	}

	return Benchmark{
		Name:        "accumulate",
		Description: "sum of ten preset registers",
		Setup: func(regFile *emu.RegFile) {
			for i := uint32(10); i < 20; i++ {
				regFile.X[i] = i
			}
		},
		Source:         b.String(),
		ExpectedRegs:   map[uint32]uint32{0: 145},
		ExpectedCycles: 41,
	}
}

// 9. Idle Fetches - explicit nops cost one fetch each
func idleFetches() Benchmark {
	return Benchmark{
		Name:        "idle_fetches",
		Description: "nops between arithmetic - measures idle fetch cost",
		Source: `
addi r0, #5
nop
nop
subi r0, #2
`,
		ExpectedRegs:   map[uint32]uint32{0: 3},
		ExpectedCycles: 11,
	}
}
