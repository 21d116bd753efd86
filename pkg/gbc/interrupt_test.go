package gbc

import (
	"testing"

	"gbcore/internal/test"
	"gbcore/pkg/video"
)

func TestDispatch(t *testing.T) {
	cons := makeConsole(t)
	cons.CPU.IME = true
	cons.IE = InterruptTimer.Mask
	cons.RequestInterrupt(InterruptTimer)

	dots := cons.PPU.RemainingDots
	test.ExpectEquality(t, cons.Step(), uint8(DISPATCH_CYCLES))
	test.ExpectEquality(t, cons.CPU.PC, InterruptTimer.Addr)
	test.ExpectEquality(t, cons.CPU.IME, false)
	test.ExpectEquality(t, cons.CPU.SP, uint16(0xFFFC))
	test.ExpectEquality(t, cons.ReadWord(0xFFFC), uint16(0x0100))
	test.ExpectEquality(t, cons.IsPending(InterruptTimer), false)
	test.ExpectEquality(t, cons.PPU.RemainingDots, dots-20)

	// the handler runs on the next step
	cons.Step()
	test.ExpectEquality(t, cons.CPU.PC, InterruptTimer.Addr+1)
}

func TestDispatchNeedsIME(t *testing.T) {
	cons := makeConsole(t)
	cons.IE = InterruptTimer.Mask
	cons.RequestInterrupt(InterruptTimer)

	cons.Step()
	test.ExpectEquality(t, cons.CPU.PC, uint16(0x0101))
	test.ExpectEquality(t, cons.IsPending(InterruptTimer), true)
}

func TestPriority(t *testing.T) {
	cons := makeConsole(t)
	cons.IE = 0x1F
	cons.RequestInterrupt(InterruptJoypad)
	cons.RequestInterrupt(InterruptSerial)
	cons.RequestInterrupt(InterruptTimer)

	for _, expected := range []Interrupt{InterruptTimer, InterruptSerial, InterruptJoypad} {
		i, ok := cons.NextInterrupt()
		test.DemandSuccess(t, ok)
		test.ExpectEquality(t, i, expected)
	}
	_, ok := cons.NextInterrupt()
	test.ExpectFailure(t, ok)
}

func TestMaskedInterruptStaysPending(t *testing.T) {
	cons := makeConsole(t)
	cons.IE = InterruptSerial.Mask
	cons.RequestInterrupt(InterruptTimer)
	cons.RequestInterrupt(InterruptSerial)

	i, ok := cons.NextInterrupt()
	test.DemandSuccess(t, ok)
	test.ExpectEquality(t, i, InterruptSerial)
	test.ExpectEquality(t, cons.PendingMask(), InterruptTimer.Mask)

	_, ok = cons.NextInterrupt()
	test.ExpectFailure(t, ok)
}

func TestInterruptFlagRegister(t *testing.T) {
	cons := makeConsole(t)
	cons.Write(0xFF0F, 0x04)
	test.ExpectEquality(t, cons.Read(0xFF0F), uint8(0xE4))
	test.ExpectEquality(t, cons.IsPending(InterruptTimer), true)

	cons.Write(0xFF0F, 0xFF)
	test.ExpectEquality(t, cons.PendingMask(), uint8(0x1F))
	cons.Write(0xFF0F, 0x00)
	test.ExpectEquality(t, cons.Read(0xFF0F), uint8(0xE0))
}

func TestHalt(t *testing.T) {
	cons := makeConsole(t, 0x76) // HALT
	cons.IE = InterruptTimer.Mask

	cons.Step()
	test.ExpectEquality(t, cons.CPU.Halted, true)
	test.ExpectEquality(t, cons.CPU.PC, uint16(0x0101))

	cycles := cons.CPU.Cycles
	test.ExpectEquality(t, cons.Step(), uint8(1))
	test.ExpectEquality(t, cons.CPU.Cycles, cycles+1)
	test.ExpectEquality(t, cons.CPU.PC, uint16(0x0101))

	// an enabled pending interrupt wakes the CPU even without IME
	cons.RequestInterrupt(InterruptTimer)
	cons.Step()
	test.ExpectEquality(t, cons.CPU.Halted, false)
	test.ExpectEquality(t, cons.CPU.PC, uint16(0x0102))
	test.ExpectEquality(t, cons.IsPending(InterruptTimer), true)
}

func TestHaltWithIME(t *testing.T) {
	cons := makeConsole(t, 0xFB, 0x76) // EI; HALT
	cons.IE = InterruptSerial.Mask

	cons.Step()
	cons.Step()
	test.ExpectEquality(t, cons.CPU.Halted, true)

	cons.RequestInterrupt(InterruptSerial)
	cons.Step()
	test.ExpectEquality(t, cons.CPU.Halted, false)
	test.ExpectEquality(t, cons.CPU.PC, InterruptSerial.Addr)
	test.ExpectEquality(t, cons.ReadWord(cons.CPU.SP), uint16(0x0102))
}

func TestVBlankInterrupt(t *testing.T) {
	cons := makeConsole(t, 0xFB, 0x18, 0xFE) // EI; JR -2
	cons.IE = InterruptVBlank.Mask

	cons.StepUntil(func(c *Console) bool { return c.CPU.PC == InterruptVBlank.Addr })
	test.ExpectEquality(t, cons.PPU.LY, uint8(video.FIRST_VBLANK_LINE))
	test.ExpectEquality(t, cons.PPU.Mode, video.VBLANK)
	test.ExpectEquality(t, cons.IsPending(InterruptVBlank), false)
	test.ExpectEquality(t, cons.PPU.VBlankSignal, false)

	// no second request within the same vblank
	cons.Step()
	test.ExpectEquality(t, cons.IsPending(InterruptVBlank), false)
}

func TestVBlankPolling(t *testing.T) {
	cons := makeConsole(t, 0x18, 0xFE) // JR -2

	cons.StepUntil(func(c *Console) bool { return c.PPU.Mode == video.VBLANK })
	test.ExpectEquality(t, cons.Read(0xFF0F)&InterruptVBlank.Mask, InterruptVBlank.Mask)

	// clearing the flag drops the request for the rest of the vblank
	cons.Write(0xFF0F, 0)
	cons.Step()
	test.ExpectEquality(t, cons.IsPending(InterruptVBlank), false)

	// and it leaves on its own at the end of vblank
	cons.StepUntil(func(c *Console) bool { return c.PPU.Mode != video.VBLANK })
	test.ExpectEquality(t, cons.IsPending(InterruptVBlank), false)
}

func TestStatInterrupt(t *testing.T) {
	cons := makeConsole(t, 0x18, 0xFE) // JR -2
	cons.Write(0xFF41, video.STAT_HBLANK_INT)
	cons.IE = InterruptStat.Mask
	cons.CPU.IME = true

	cons.StepUntil(func(c *Console) bool { return c.CPU.PC == InterruptStat.Addr })
	test.ExpectEquality(t, cons.PPU.Mode, video.HBLANK)
	test.ExpectEquality(t, cons.IsPending(InterruptStat), false)

	// staying in hblank does not request it again
	cons.CPU.IME = true
	for cons.PPU.Mode == video.HBLANK {
		test.ExpectEquality(t, cons.IsPending(InterruptStat), false)
		cons.Step()
	}
}
