// Package monitor provides an interactive shell for stepping and inspecting
// a core, with Lua scripting.
package monitor

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"

	"github.com/sarchlab/pipesim/insts"
	"github.com/sarchlab/pipesim/loader"
	"github.com/sarchlab/pipesim/timing/core"
)

// Prompts.
const (
	PromptCommand = "+> "
	PromptInst    = "-> "
	PromptFile    = "FILE <- "
)

const helpText = `q            quit
h            help
r            print registers
i            instruction memory
n [count]    execute clock step(s)
c            cpu state
a [instr]    add instruction
l [file]     load source file
run          run to completion
s            statistics
lua <file>   run a Lua script
lua! <code>  run a line of Lua`

// Option is a functional option for configuring the Monitor.
type Option func(*Monitor)

// WithRegisterWidth sets the number of registers printed per line.
func WithRegisterWidth(n int) Option {
	return func(m *Monitor) {
		m.regWidth = n
	}
}

// WithQueueWidth sets the number of instructions printed per line.
func WithQueueWidth(n int) Option {
	return func(m *Monitor) {
		m.queueWidth = n
	}
}

// WithLogger sets the logger for monitor events.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// Monitor is an interactive shell over a core. It is not safe for concurrent
// use.
type Monitor struct {
	core *core.Core
	in   LineReader
	out  io.Writer

	regWidth   int
	queueWidth int
	logger     logrus.FieldLogger

	lua *lua.LState
}

// New creates a monitor reading commands from in and printing to out.
func New(c *core.Core, in LineReader, out io.Writer, opts ...Option) *Monitor {
	m := &Monitor{
		core:       c,
		in:         in,
		out:        out,
		regWidth:   10,
		queueWidth: 5,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		m.logger = logger
	}
	if m.regWidth <= 0 {
		m.regWidth = 10
	}
	if m.queueWidth <= 0 {
		m.queueWidth = 5
	}

	return m
}

// Close releases the Lua state, if one was created.
func (m *Monitor) Close() {
	if m.lua != nil {
		m.lua.Close()
		m.lua = nil
	}
}

// Run prints the banner and executes commands until "q" or end of input.
func (m *Monitor) Run() error {
	m.println("Welcome to the monitor")
	m.println(helpText)

	for {
		line, err := m.in.ReadLine(PromptCommand)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read command: %w", err)
		}

		if m.Execute(line) {
			return nil
		}
	}
}

// Execute runs one command line. Returns true if the monitor should exit.
func (m *Monitor) Execute(input string) bool {
	cmd := ParseCommand(input)
	if cmd.Name == "" {
		return false
	}

	m.logger.WithField("cmd", cmd.Name).Debug("monitor command")

	switch cmd.Name {
	case "q":
		return true
	case "h":
		m.println(helpText)
	case "r":
		m.cmdRegisters()
	case "i":
		m.cmdQueue()
	case "n":
		m.cmdStep(cmd)
	case "c":
		m.cmdState()
	case "a":
		m.cmdAdd(cmd)
	case "l":
		m.cmdLoad(cmd)
	case "run":
		m.cmdRun()
	case "s":
		m.cmdStats()
	case "lua":
		m.cmdLuaFile(cmd)
	case "lua!":
		m.cmdLuaString(cmd)
	default:
		m.printf("unknown command: %s\n", cmd.Name)
	}

	return false
}

func (m *Monitor) println(s string) {
	fmt.Fprintln(m.out, s)
}

func (m *Monitor) printf(format string, args ...any) {
	fmt.Fprintf(m.out, format, args...)
}

// printGrid prints items width per line, separated by two spaces.
func (m *Monitor) printGrid(items []string, width int) {
	for start := 0; start < len(items); start += width {
		end := min(start+width, len(items))
		m.println(strings.Join(items[start:end], "  "))
	}
}

func (m *Monitor) cmdRegisters() {
	regs := m.core.Pipeline.Registers()

	items := make([]string, len(regs))
	for i, v := range regs {
		items[i] = fmt.Sprintf("r%d=%d", i, v)
	}

	m.printGrid(items, m.regWidth)
}

func (m *Monitor) cmdQueue() {
	queue := m.core.Pipeline.Queue()
	if len(queue) == 0 {
		m.println("(empty)")
		return
	}

	items := make([]string, len(queue))
	for i, inst := range queue {
		items[i] = fmt.Sprintf("[%d] %s", i, inst)
	}

	m.printGrid(items, m.queueWidth)
}

func (m *Monitor) cmdStep(cmd Command) {
	count := uint64(1)
	if len(cmd.Args) >= 1 {
		v, err := strconv.ParseUint(cmd.Args[0], 0, 64)
		if err != nil || v == 0 {
			m.printf("invalid count: %s\n", cmd.Args[0])
			return
		}
		count = v
	}

	p := m.core.Pipeline
	for i := uint64(0); i < count; i++ {
		stage := p.Stage()
		if err := p.Tick(); err != nil {
			m.printf("error: %v\n", err)
			return
		}
		m.printf("tick %d: INSTRUCTION = %s, STAGE = %s\n", p.Ticks(), p.State().Current, stage)
	}
}

func (m *Monitor) cmdState() {
	s := m.core.Pipeline.State()
	m.printf("PREV INSTRUCTION = %s\n", s.Previous)
	m.printf("CURRENT INSTRUCTION = %s, STAGE = %s\n", s.Current, s.Stage)
	m.printf("NEXT INSTRUCTION = %s\n", s.Next)
	if err := m.core.Pipeline.Err(); err != nil {
		m.printf("FAULT = %v\n", err)
	}
}

// argOrPrompt returns the command's free text, or asks for it.
func (m *Monitor) argOrPrompt(cmd Command, prompt string) (string, bool) {
	if cmd.Rest != "" {
		return cmd.Rest, true
	}

	line, err := m.in.ReadLine(prompt)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(line), true
}

func (m *Monitor) cmdAdd(cmd Command) {
	text, ok := m.argOrPrompt(cmd, PromptInst)
	if !ok {
		return
	}

	inst, err := insts.NewParser().ParseLine(text)
	if err != nil {
		m.printf("failed to parse instruction: %v\n", err)
		return
	}

	m.core.Pipeline.LoadProgram([]insts.Instruction{inst})
	m.printf("added: %s\n", inst)
}

func (m *Monitor) cmdLoad(cmd Command) {
	path, ok := m.argOrPrompt(cmd, PromptFile)
	if !ok || path == "" {
		return
	}

	prog, err := loader.Load(path)
	if err != nil {
		m.printf("failed to load source file: %v\n", err)
		return
	}

	report := m.core.Pipeline.Load(prog.Results)
	for _, err := range prog.Errors() {
		m.printf("skipped %v\n", err)
	}
	m.printf("loaded %d instructions from %s\n", report.Loaded, path)
}

func (m *Monitor) cmdRun() {
	if err := m.core.Run(); err != nil {
		m.printf("error: %v\n", err)
		return
	}
	m.printf("done after %d ticks\n", m.core.Pipeline.Ticks())
}

func (m *Monitor) cmdStats() {
	s := m.core.Pipeline.Stats()
	m.printf("cycles:       %d\n", s.Cycles)
	m.printf("instructions: %d\n", s.Instructions)
	m.printf("single-cycle: %d\n", s.SingleCycle)
	m.printf("unit issues:  %d\n", s.UnitIssues)
	m.printf("idle fetches: %d\n", s.IdleFetches)
	m.printf("CPI:          %.3f\n", s.CPI())
}

func (m *Monitor) cmdLuaFile(cmd Command) {
	if len(cmd.Args) < 1 {
		m.println("usage: lua <file>")
		return
	}
	if err := m.RunScriptFile(cmd.Args[0]); err != nil {
		m.printf("lua: %v\n", err)
	}
}

func (m *Monitor) cmdLuaString(cmd Command) {
	if cmd.Rest == "" {
		m.println("usage: lua! <code>")
		return
	}
	if err := m.RunScript(cmd.Rest); err != nil {
		m.printf("lua: %v\n", err)
	}
}
