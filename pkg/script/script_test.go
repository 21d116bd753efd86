package script

import (
	"testing"

	"gbcore/internal/test"
	"gbcore/pkg/cpu"
	"gbcore/pkg/gbc"
)

func makeConsole(t *testing.T, program ...uint8) *gbc.Console {
	t.Helper()
	rom := make([]byte, 0x8000)
	copy(rom[0x100:], program)
	cons, err := gbc.MakeConsoleWithOptions(rom, gbc.Options{DisableBootState: true})
	test.DemandSuccess(t, err)
	return cons
}

func TestRegisters(t *testing.T) {
	cons := makeConsole(t)
	h := NewHarness(cons)
	defer h.Close()

	test.DemandSuccess(t, h.Run(`
		set_reg("hl", 0xC000)
		set_reg("A", 0x12)
		set_flag("C", true)
		set_pc(0x0150)
	`))
	test.ExpectEquality(t, cons.CPU.Pair(cpu.HL), uint16(0xC000))
	test.ExpectEquality(t, cons.CPU.Reg(cpu.A), uint8(0x12))
	test.ExpectEquality(t, cons.CPU.Flag(cpu.FlagCarry), true)
	test.ExpectEquality(t, cons.CPU.PC, uint16(0x0150))

	test.DemandSuccess(t, h.Run(`
		assert(reg("H") == 0xC0)
		assert(reg("L") == 0x00)
		assert(flag("c"))
		assert(not flag("Z"))
		assert(pc() == 0x150)
		assert(reg("SP") == 0xFFFE)
	`))
}

func TestMemoryAndStep(t *testing.T) {
	// LD A,0x3C; ADD A,0xC6
	cons := makeConsole(t, 0x3E, 0x3C, 0xC6, 0xC6)
	h := NewHarness(cons)
	defer h.Close()

	test.DemandSuccess(t, h.Run(`
		write(0xC000, 0x34)
		write(0xC001, 0x12)
		assert(read_word(0xC000) == 0x1234)
		write_word(0xC010, 0xBEEF)
		assert(read(0xC010) == 0xEF)

		assert(step() == 2)
		assert(step() == 2)
		assert(reg("A") == 0x02)
		assert(flag("C") and flag("H"))
	`))
}

func TestInterruptsAndLog(t *testing.T) {
	cons := makeConsole(t)
	h := NewHarness(cons)
	defer h.Close()

	test.DemandSuccess(t, h.Run(`
		request_interrupt("timer")
		log("raised timer")
	`))
	test.ExpectEquality(t, cons.IsPending(gbc.InterruptTimer), true)
}

func TestRunFrames(t *testing.T) {
	cons := makeConsole(t, 0x18, 0xFE)
	h := NewHarness(cons)
	defer h.Close()

	test.DemandSuccess(t, h.Run(`run_frames(2)`))
	test.ExpectEquality(t, cons.PPU.FrameCount, 2)
}

func TestErrors(t *testing.T) {
	h := NewHarness(makeConsole(t))
	defer h.Close()

	test.ExpectFailure(t, h.Run(`reg("Q")`))
	test.ExpectFailure(t, h.Run(`read(0x10000)`))
	test.ExpectFailure(t, h.Run(`request_interrupt("nmi")`))
	test.ExpectFailure(t, h.Run(`this is not lua`))
	test.ExpectFailure(t, h.RunFile("testdata/missing.lua"))
}
