// Package insts provides the PipeSim instruction set and its text form.
//
// The instruction set is deliberately tiny: immediate and register moves,
// immediate add/subtract against the destination register, and three-register
// add/subtract. There is no control flow and no memory access.
//
// Usage:
//
//	p := insts.NewParser()
//	inst, err := p.ParseLine("addi r1, #32")
//	fmt.Printf("Op: %v, Rd: %d, Imm: %d\n", inst.Op, inst.Rd, inst.Imm)
package insts

import "fmt"

// NumRegisters is the size of the architectural register file.
const NumRegisters = 256

// Op represents an opcode. The zero value is OpNOP.
type Op uint8

// Opcodes.
const (
	OpNOP  Op = iota
	OpMOVI    // Move immediate: Rd <- Imm
	OpMOV     // Move register: Rd <- Rn
	OpADDI    // Add immediate: Rd <- Rd + Imm
	OpSUBI    // Subtract immediate: Rd <- Rd - Imm
	OpADD     // Add register: Rd <- Rn + Rm
	OpSUB     // Subtract register: Rd <- Rn - Rm

	// NumOps is the number of defined opcodes. Ops are dense in [0, NumOps).
	NumOps
)

var opNames = [NumOps]string{
	OpNOP:  "nop",
	OpMOVI: "movi",
	OpMOV:  "mov",
	OpADDI: "addi",
	OpSUBI: "subi",
	OpADD:  "add",
	OpSUB:  "sub",
}

// String returns the canonical mnemonic of the opcode.
func (o Op) String() string {
	if o < NumOps {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Format represents the operand layout of an instruction.
type Format uint8

// Instruction formats.
const (
	FormatNone  Format = iota // No operands (NOP)
	FormatMove                // Single-cycle register move
	FormatDPImm               // Data processing, destination and immediate
	FormatDPReg               // Data processing, three registers
)

// FormatOf returns the operand layout of op.
func FormatOf(op Op) Format {
	switch op {
	case OpMOVI, OpMOV:
		return FormatMove
	case OpADDI, OpSUBI:
		return FormatDPImm
	case OpADD, OpSUB:
		return FormatDPReg
	default:
		return FormatNone
	}
}

// Instruction is a decoded instruction. Only the fields named by Op are
// meaningful; the others are zero. The zero Instruction is a NOP.
type Instruction struct {
	Op Op

	Rd  uint32 // Destination register
	Rn  uint32 // First source register (MOV, ADD, SUB)
	Rm  uint32 // Second source register (ADD, SUB)
	Imm uint32 // Immediate value (MOVI, ADDI, SUBI)
}

// Nop returns the no-op instruction.
func Nop() Instruction { return Instruction{} }

// Movi builds "movi rd, #imm".
func Movi(rd, imm uint32) Instruction {
	return Instruction{Op: OpMOVI, Rd: rd, Imm: imm}
}

// Mov builds "mov rd, rn".
func Mov(rd, rn uint32) Instruction {
	return Instruction{Op: OpMOV, Rd: rd, Rn: rn}
}

// Addi builds "addi rd, #imm".
func Addi(rd, imm uint32) Instruction {
	return Instruction{Op: OpADDI, Rd: rd, Imm: imm}
}

// Subi builds "subi rd, #imm".
func Subi(rd, imm uint32) Instruction {
	return Instruction{Op: OpSUBI, Rd: rd, Imm: imm}
}

// Add builds "add rd, rn, rm".
func Add(rd, rn, rm uint32) Instruction {
	return Instruction{Op: OpADD, Rd: rd, Rn: rn, Rm: rm}
}

// Sub builds "sub rd, rn, rm".
func Sub(rd, rn, rm uint32) Instruction {
	return Instruction{Op: OpSUB, Rd: rd, Rn: rn, Rm: rm}
}

// Format returns the operand layout of the instruction.
func (i Instruction) Format() Format {
	return FormatOf(i.Op)
}

// IsNop reports whether the instruction is a NOP.
func (i Instruction) IsNop() bool {
	return i.Op == OpNOP
}

// IsSingleCycle reports whether the instruction completes during fetch.
func (i Instruction) IsSingleCycle() bool {
	return i.Format() == FormatMove
}

// IsArithmetic reports whether the instruction needs a functional unit.
func (i Instruction) IsArithmetic() bool {
	f := i.Format()
	return f == FormatDPImm || f == FormatDPReg
}

// String returns the canonical text form, which the parser accepts.
func (i Instruction) String() string {
	switch i.Op {
	case OpNOP:
		return "nop"
	case OpMOVI, OpADDI, OpSUBI:
		return fmt.Sprintf("%s r%d, #%d", i.Op, i.Rd, i.Imm)
	case OpMOV:
		return fmt.Sprintf("mov r%d, r%d", i.Rd, i.Rn)
	case OpADD, OpSUB:
		return fmt.Sprintf("%s r%d, r%d, r%d", i.Op, i.Rd, i.Rn, i.Rm)
	default:
		return i.Op.String()
	}
}
