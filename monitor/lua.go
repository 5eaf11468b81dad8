package monitor

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/insts"
)

// RunScript runs Lua source against the monitor's core.
func (m *Monitor) RunScript(code string) error {
	return m.luaState().DoString(code)
}

// RunScriptFile runs a Lua file against the monitor's core.
func (m *Monitor) RunScriptFile(path string) error {
	return m.luaState().DoFile(path)
}

// luaState creates the interpreter on first use. Globals persist between
// scripts.
func (m *Monitor) luaState() *lua.LState {
	if m.lua != nil {
		return m.lua
	}

	L := lua.NewState()
	bindings := map[string]lua.LGFunction{
		"tick":  m.luaTick,
		"run":   m.luaRun,
		"reg":   m.luaReg,
		"stage": m.luaStage,
		"ticks": m.luaTicks,
		"done":  m.luaDone,
		"load":  m.luaLoad,
		"print": m.luaPrint,
	}
	for name, fn := range bindings {
		L.SetGlobal(name, L.NewFunction(fn))
	}

	m.lua = L
	return L
}

// tick([n]) runs up to n ticks (default 1) and returns whether the program is
// still running.
func (m *Monitor) luaTick(L *lua.LState) int {
	n := L.OptInt(1, 1)
	if n < 0 {
		L.ArgError(1, "tick count must not be negative")
		return 0
	}

	running, err := m.core.RunCycles(uint64(n))
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}

	L.Push(lua.LBool(running))
	return 1
}

// run() runs to completion and returns the tick count.
func (m *Monitor) luaRun(L *lua.LState) int {
	if err := m.core.Run(); err != nil {
		L.RaiseError("%v", err)
		return 0
	}

	L.Push(lua.LNumber(m.core.Pipeline.Ticks()))
	return 1
}

// reg(i) returns register i.
func (m *Monitor) luaReg(L *lua.LState) int {
	i := L.CheckInt(1)
	if i < 0 {
		L.ArgError(1, "register index must not be negative")
		return 0
	}
	if i >= insts.NumRegisters {
		L.ArgError(1, fmt.Sprintf("%v: r%d", emu.ErrRegisterOutOfRange, i))
		return 0
	}

	v, err := m.core.RegFile().ReadReg(uint32(i))
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}

	L.Push(lua.LNumber(v))
	return 1
}

func (m *Monitor) luaStage(L *lua.LState) int {
	L.Push(lua.LString(m.core.Pipeline.Stage().String()))
	return 1
}

func (m *Monitor) luaTicks(L *lua.LState) int {
	L.Push(lua.LNumber(m.core.Pipeline.Ticks()))
	return 1
}

func (m *Monitor) luaDone(L *lua.LState) int {
	L.Push(lua.LBool(m.core.Done()))
	return 1
}

// load(text) appends the instructions in text and returns the number loaded
// and the number of lines that failed.
func (m *Monitor) luaLoad(L *lua.LState) int {
	text := L.CheckString(1)

	report := m.core.Pipeline.Load(insts.NewParser().ParseString(text))

	L.Push(lua.LNumber(report.Loaded))
	L.Push(lua.LNumber(len(report.Errors)))
	return 2
}

// print writes its arguments to the monitor output, tab separated.
func (m *Monitor) luaPrint(L *lua.LState) int {
	top := L.GetTop()
	parts := make([]string, top)
	for i := 1; i <= top; i++ {
		parts[i-1] = L.ToStringMeta(L.Get(i)).String()
	}

	fmt.Fprintln(m.out, strings.Join(parts, "\t"))
	return 0
}
