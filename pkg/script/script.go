// Package script runs Lua programs against a console. Scripts drive the console
// and inspect it through a small set of global functions:
//
//	step()                   run one step, returns the cycles it took
//	run_frames(n)            run n frames
//	read(addr)               read a byte
//	write(addr, value)       write a byte
//	read_word(addr)          read a little-endian word
//	write_word(addr, value)  write a little-endian word
//	reg(name)                read a register or pair ("A", "HL", "SP", "PC", ...)
//	set_reg(name, value)     write a register or pair
//	flag(name)               read a flag ("Z", "N", "H", "C")
//	set_flag(name, on)       write a flag
//	pc()                     shorthand for reg("PC")
//	set_pc(addr)             shorthand for set_reg("PC", addr)
//	request_interrupt(name)  raise "VBLANK", "STAT", "TIMER", "SERIAL" or "JOYPAD"
//	serial()                 everything sent over the serial port
//	log(text)                add an entry to the central log
package script

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"gbcore/pkg/cpu"
	"gbcore/pkg/gbc"
	"gbcore/pkg/logger"
)

type Harness struct {
	cons *gbc.Console
	L    *lua.LState
}

func NewHarness(cons *gbc.Console) *Harness {
	h := &Harness{
		cons: cons,
		L:    lua.NewState(),
	}
	for name, fn := range map[string]lua.LGFunction{
		"step":              h.step,
		"run_frames":        h.runFrames,
		"read":              h.read,
		"write":             h.write,
		"read_word":         h.readWord,
		"write_word":        h.writeWord,
		"reg":               h.reg,
		"set_reg":           h.setReg,
		"flag":              h.flag,
		"set_flag":          h.setFlag,
		"pc":                h.pc,
		"set_pc":            h.setPC,
		"request_interrupt": h.requestInterrupt,
		"serial":            h.serial,
		"log":               h.log,
	} {
		h.L.SetGlobal(name, h.L.NewFunction(fn))
	}
	return h
}

func (h *Harness) Close() {
	h.L.Close()
}

func (h *Harness) Run(source string) error {
	if err := h.L.DoString(source); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

func (h *Harness) RunFile(path string) error {
	if err := h.L.DoFile(path); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

func checkAddress(L *lua.LState, n int) uint16 {
	v := L.CheckInt(n)
	if v < 0 || v > 0xFFFF {
		L.ArgError(n, "address out of range")
	}
	return uint16(v)
}

func (h *Harness) step(L *lua.LState) int {
	L.Push(lua.LNumber(h.cons.Step()))
	return 1
}

func (h *Harness) runFrames(L *lua.LState) int {
	n := L.OptInt(1, 1)
	total := 0
	for i := 0; i < n; i++ {
		total += h.cons.StepFrame()
	}
	L.Push(lua.LNumber(total))
	return 1
}

func (h *Harness) read(L *lua.LState) int {
	L.Push(lua.LNumber(h.cons.Read(checkAddress(L, 1))))
	return 1
}

func (h *Harness) write(L *lua.LState) int {
	h.cons.Write(checkAddress(L, 1), uint8(L.CheckInt(2)))
	return 0
}

func (h *Harness) readWord(L *lua.LState) int {
	L.Push(lua.LNumber(h.cons.ReadWord(checkAddress(L, 1))))
	return 1
}

func (h *Harness) writeWord(L *lua.LState) int {
	h.cons.WriteWord(checkAddress(L, 1), uint16(L.CheckInt(2)))
	return 0
}

var registers = map[string]cpu.Register{
	"A": cpu.A, "B": cpu.B, "C": cpu.C, "D": cpu.D, "E": cpu.E, "H": cpu.H, "L": cpu.L,
}

var pairs = map[string]cpu.Pair{
	"BC": cpu.BC, "DE": cpu.DE, "HL": cpu.HL,
}

var flags = map[string]cpu.Flag{
	"Z": cpu.FlagZero, "N": cpu.FlagSubtract, "H": cpu.FlagHalfCarry, "C": cpu.FlagCarry,
}

var interrupts = map[string]gbc.Interrupt{
	"VBLANK": gbc.InterruptVBlank,
	"STAT":   gbc.InterruptStat,
	"TIMER":  gbc.InterruptTimer,
	"SERIAL": gbc.InterruptSerial,
	"JOYPAD": gbc.InterruptJoypad,
}

func (h *Harness) reg(L *lua.LState) int {
	name := strings.ToUpper(L.CheckString(1))
	c := h.cons.CPU

	var v int
	if r, ok := registers[name]; ok {
		v = int(cpu.Get[uint8](c, r))
	} else if p, ok := pairs[name]; ok {
		v = int(cpu.Get[uint16](c, p))
	} else {
		switch name {
		case "F":
			v = int(c.Flags())
		case "AF":
			v = int(c.AF())
		case "SP":
			v = int(c.SP)
		case "PC":
			v = int(c.PC)
		default:
			L.ArgError(1, "unknown register "+name)
		}
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (h *Harness) setReg(L *lua.LState) int {
	name := strings.ToUpper(L.CheckString(1))
	v := L.CheckInt(2)
	c := h.cons.CPU

	if r, ok := registers[name]; ok {
		cpu.Set[uint8](c, r, uint8(v))
	} else if p, ok := pairs[name]; ok {
		cpu.Set[uint16](c, p, uint16(v))
	} else {
		switch name {
		case "F":
			c.SetFlags(uint8(v))
		case "AF":
			c.SetAF(uint16(v))
		case "SP":
			c.SP = uint16(v)
		case "PC":
			c.PC = uint16(v)
		default:
			L.ArgError(1, "unknown register "+name)
		}
	}
	return 0
}

func (h *Harness) flag(L *lua.LState) int {
	f, ok := flags[strings.ToUpper(L.CheckString(1))]
	if !ok {
		L.ArgError(1, "unknown flag")
	}
	L.Push(lua.LBool(cpu.Get[bool](h.cons.CPU, f)))
	return 1
}

func (h *Harness) setFlag(L *lua.LState) int {
	f, ok := flags[strings.ToUpper(L.CheckString(1))]
	if !ok {
		L.ArgError(1, "unknown flag")
	}
	cpu.Set[bool](h.cons.CPU, f, L.ToBool(2))
	return 0
}

func (h *Harness) pc(L *lua.LState) int {
	L.Push(lua.LNumber(h.cons.CPU.PC))
	return 1
}

func (h *Harness) setPC(L *lua.LState) int {
	h.cons.CPU.PC = checkAddress(L, 1)
	return 0
}

func (h *Harness) requestInterrupt(L *lua.LState) int {
	i, ok := interrupts[strings.ToUpper(L.CheckString(1))]
	if !ok {
		L.ArgError(1, "unknown interrupt")
	}
	h.cons.RequestInterrupt(i)
	return 0
}

func (h *Harness) serial(L *lua.LState) int {
	L.Push(lua.LString(h.cons.SerialOutput()))
	return 1
}

func (h *Harness) log(L *lua.LState) int {
	logger.Log("script", L.CheckString(1))
	return 0
}
