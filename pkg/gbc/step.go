package gbc

import (
	"gbcore/pkg/instr"
	"gbcore/pkg/video"
)

// DISPATCH_CYCLES is the cost of jumping to an interrupt vector.
const DISPATCH_CYCLES = 5

// Step dispatches one interrupt or runs one instruction, then advances the other
// components by the cycles it took. It returns that number of cycles.
//
// An opcode with no instruction panics with an instr.DecodeError.
func (cons *Console) Step() uint8 {
	if cons.CPU.IME {
		if i, ok := cons.NextInterrupt(); ok {
			cons.dispatch(i)
			return cons.finish(cons.CPU.PC, DISPATCH_CYCLES)
		}
	}

	if cons.CPU.Halted {
		if !cons.wakeup() {
			return cons.finish(cons.CPU.PC, 1)
		}
		cons.CPU.Halted = false
	}

	base := cons.CPU.PC
	opcode := cons.Read(base)
	in, ok := instr.Decode(opcode)
	if !ok {
		panic(instr.DecodeError{Opcode: opcode, PC: base})
	}
	cons.CPU.PC++
	if in.IsPrefix() {
		in = instr.DecodePrefixed(cons.Read(cons.CPU.PC))
		cons.CPU.PC++
	}
	cons.inspector.send(Message{Kind: MessageInstruction, PC: base, Instruction: in})

	cons.instrEnd = base + uint16(in.Info.Bytes)
	// A jump to the address right after the opcode looks like no jump at all and
	// still gets the fall-through PC. JR -1 lands on base+2, not base+1.
	decoded := cons.CPU.PC
	cycles := cons.execute(in)
	if cons.CPU.PC == decoded {
		cons.CPU.PC = cons.instrEnd
	}

	if in.Op == instr.STOP {
		cons.stop()
	}
	return cons.finish(base, cycles)
}

func (cons *Console) finish(pc uint16, cycles uint8) uint8 {
	cons.CPU.AddCycles(cycles)
	cons.tick(cycles)
	cons.inspector.send(Message{Kind: MessageStep, PC: pc, Cycles: cycles})
	return cycles
}

func (cons *Console) tick(cycles uint8) {
	mode := cons.PPU.Mode
	cons.PPU.Process(int(cycles) * 4)
	cons.syncVideoInterrupts()
	if mode != video.HBLANK && cons.PPU.Mode == video.HBLANK {
		cons.DMA.HBlank()
	}

	cons.Timer.Tick(int(cycles))
	cons.Serial.Tick(int(cycles))
	cons.Input.Tick(int(cycles))
}

// stop switches speed when KEY1 is armed. Otherwise STOP does nothing.
func (cons *Console) stop() {
	if !cons.CGBMode || cons.SpeedSwitch&1 == 0 {
		return
	}
	cons.DoubleSpeedMode = !cons.DoubleSpeedMode
	cons.SpeedSwitch = (cons.SpeedSwitch ^ 0x80) & 0x80
	cons.PPU.SpeedMultiplier = 1
	if cons.DoubleSpeedMode {
		cons.PPU.SpeedMultiplier = 2
	}
}

// CYCLES_PER_FRAME is the length of a frame in machine cycles at normal speed.
const CYCLES_PER_FRAME = 154 * video.DOTS_SCANLINE / 4

// StepFrame runs until the PPU starts a new frame and returns the cycles spent.
// With the display off it stops after a frame's worth of cycles instead.
func (cons *Console) StepFrame() int {
	frame := cons.PPU.FrameCount
	total := 0
	for cons.PPU.FrameCount == frame && total < CYCLES_PER_FRAME*cons.PPU.SpeedMultiplier {
		total += int(cons.Step())
	}
	return total
}

func (cons *Console) StepUntil(condition func(*Console) bool) int {
	total := 0
	for !condition(cons) {
		total += int(cons.Step())
	}
	return total
}

// GetMs converts machine cycles to milliseconds of emulated time.
func (cons *Console) GetMs(cycles int) int {
	res := cycles * 4 * 1000 / GBCPU_FREQ
	if cons.DoubleSpeedMode {
		res /= 2
	}
	return res
}
