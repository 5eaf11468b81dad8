package insts

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parse errors. Errors returned by the parser wrap one of these.
var (
	ErrEmptyLine       = errors.New("empty line")
	ErrUnknownMnemonic = errors.New("unknown mnemonic")
	ErrOperandCount    = errors.New("wrong number of operands")
	ErrBadOperand      = errors.New("bad operand")
)

// operandKind says whether an operand slot names a register or an immediate.
type operandKind uint8

const (
	operandReg operandKind = iota
	operandImm
)

type syntax struct {
	op       Op
	operands []operandKind
}

// mnemonics maps every accepted mnemonic to its opcode and operand slots.
// "addr" and "subr" are accepted aliases of "add" and "sub".
var mnemonics = map[string]syntax{
	"nop":  {OpNOP, nil},
	"movi": {OpMOVI, []operandKind{operandReg, operandImm}},
	"mov":  {OpMOV, []operandKind{operandReg, operandReg}},
	"addi": {OpADDI, []operandKind{operandReg, operandImm}},
	"subi": {OpSUBI, []operandKind{operandReg, operandImm}},
	"add":  {OpADD, []operandKind{operandReg, operandReg, operandReg}},
	"addr": {OpADD, []operandKind{operandReg, operandReg, operandReg}},
	"sub":  {OpSUB, []operandKind{operandReg, operandReg, operandReg}},
	"subr": {OpSUB, []operandKind{operandReg, operandReg, operandReg}},
}

// ParseResult is the outcome of parsing one source line.
type ParseResult struct {
	// Line is the 1-based source line number.
	Line int
	// Text is the source line with comments removed.
	Text string
	// Inst is the parsed instruction. Valid only if Err is nil.
	Inst Instruction
	// Err is the parse failure, if any.
	Err error
}

// OK reports whether the line parsed successfully.
func (r ParseResult) OK() bool {
	return r.Err == nil
}

// Parser turns assembly text into instructions.
//
// Syntax, one instruction per line:
//
//	movi r0, #42      ; comments start with ';' or "//"
//	add  r1 r0 r0     ; commas are optional
//
// Registers are written rN and immediates #N. A bare number is accepted in
// either slot. Numbers are decimal or 0x-prefixed hex.
type Parser struct{}

// NewParser creates a new parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseLine parses a single instruction. Blank or comment-only lines return
// an error wrapping ErrEmptyLine.
func (p *Parser) ParseLine(line string) (Instruction, error) {
	fields := strings.FieldsFunc(stripComment(line), func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
	if len(fields) == 0 {
		return Instruction{}, ErrEmptyLine
	}

	name := strings.ToLower(fields[0])
	syn, ok := mnemonics[name]
	if !ok {
		return Instruction{}, fmt.Errorf("%w %q", ErrUnknownMnemonic, fields[0])
	}

	args := fields[1:]
	if len(args) != len(syn.operands) {
		return Instruction{}, fmt.Errorf("%w: %s takes %d, got %d",
			ErrOperandCount, name, len(syn.operands), len(args))
	}

	vals := make([]uint32, len(args))
	for i, arg := range args {
		v, err := parseOperand(arg, syn.operands[i])
		if err != nil {
			return Instruction{}, fmt.Errorf("%s operand %d: %w", name, i+1, err)
		}
		vals[i] = v
	}

	inst := Instruction{Op: syn.op}
	switch inst.Format() {
	case FormatMove:
		inst.Rd = vals[0]
		if inst.Op == OpMOVI {
			inst.Imm = vals[1]
		} else {
			inst.Rn = vals[1]
		}
	case FormatDPImm:
		inst.Rd, inst.Imm = vals[0], vals[1]
	case FormatDPReg:
		inst.Rd, inst.Rn, inst.Rm = vals[0], vals[1], vals[2]
	}

	return inst, nil
}

// ParseString parses every non-blank line of src.
func (p *Parser) ParseString(src string) []ParseResult {
	results, _ := p.Parse(strings.NewReader(src))
	return results
}

// Parse reads r to the end and parses every non-blank line. The returned
// error reports read failures only; parse failures are carried per line.
func (p *Parser) Parse(r io.Reader) ([]ParseResult, error) {
	var results []ParseResult

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(stripComment(scanner.Text()))
		if text == "" {
			continue
		}

		inst, err := p.ParseLine(text)
		results = append(results, ParseResult{
			Line: lineNo,
			Text: text,
			Inst: inst,
			Err:  err,
		})
	}

	if err := scanner.Err(); err != nil {
		return results, fmt.Errorf("failed to read source: %w", err)
	}

	return results, nil
}

func stripComment(line string) string {
	if i := strings.Index(line, ";"); i >= 0 {
		line = line[:i]
	}
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	return line
}

func parseOperand(s string, kind operandKind) (uint32, error) {
	body := s
	switch {
	case strings.HasPrefix(s, "#"):
		if kind == operandReg {
			return 0, fmt.Errorf("%w: immediate %q where a register is expected", ErrBadOperand, s)
		}
		body = s[1:]
	case strings.HasPrefix(s, "r"), strings.HasPrefix(s, "R"):
		if kind == operandImm {
			return 0, fmt.Errorf("%w: register %q where an immediate is expected", ErrBadOperand, s)
		}
		body = s[1:]
	}

	v, err := parseNumber(body)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadOperand, s)
	}
	return v, nil
}

func parseNumber(s string) (uint32, error) {
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
