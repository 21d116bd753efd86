package gbc

import "encoding/gob"

type JoypadState struct {
	A, B, UP, DOWN, LEFT, RIGHT, START, SELECT bool
}

// JOYPAD_LATCH_CYCLES is about 10ms of machine cycles. Button changes are
// latched at that rate, like a frontend polling its input.
const JOYPAD_LATCH_CYCLES = GBCPU_FREQ / 4 / 100

type Joypad struct {
	cons *Console

	BackState  JoypadState
	FrontState JoypadState

	ActionSelector    bool
	DirectionSelector bool

	cycles int
}

func MakeJoypad(cons *Console) *Joypad {
	return &Joypad{cons: cons}
}

func (j *Joypad) Save(encoder *gob.Encoder) {
	panicIfErr(encoder.Encode(j.BackState))
	panicIfErr(encoder.Encode(j.FrontState))
	panicIfErr(encoder.Encode(j.ActionSelector))
	panicIfErr(encoder.Encode(j.DirectionSelector))
	panicIfErr(encoder.Encode(j.cycles))
}

func (j *Joypad) Load(decoder *gob.Decoder) error {
	return firstErr(
		decoder.Decode(&j.BackState),
		decoder.Decode(&j.FrontState),
		decoder.Decode(&j.ActionSelector),
		decoder.Decode(&j.DirectionSelector),
		decoder.Decode(&j.cycles),
	)
}

// SetButtons records the buttons held down. They become visible on the next latch.
func (j *Joypad) SetButtons(state JoypadState) {
	j.BackState = state
}

func (j *Joypad) Tick(cycles int) {
	j.cycles += cycles
	if j.cycles < JOYPAD_LATCH_CYCLES {
		return
	}
	j.cycles -= JOYPAD_LATCH_CYCLES
	j.latch()
}

func (j *Joypad) latch() {
	pressed := j.BackState.pack() &^ j.FrontState.pack()
	j.FrontState = j.BackState
	if pressed != 0 {
		j.cons.RequestInterrupt(InterruptJoypad)
	}
}

func bto8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func (s JoypadState) pack() uint8 {
	r := bto8(s.A) << 0
	r |= bto8(s.B) << 1
	r |= bto8(s.DOWN) << 2
	r |= bto8(s.LEFT) << 3
	r |= bto8(s.RIGHT) << 4
	r |= bto8(s.UP) << 5
	r |= bto8(s.START) << 6
	r |= bto8(s.SELECT) << 7
	return r
}

func (j *Joypad) WriteSelect(value uint8) {
	j.DirectionSelector = value&0x10 == 0
	j.ActionSelector = value&0x20 == 0
}

// PackButtons is the P1 register. Pressed buttons and selected groups read as 0.
func (j *Joypad) PackButtons() uint8 {
	res := uint8(0xFF)

	if j.DirectionSelector {
		res &^= 0x10
		if j.FrontState.RIGHT {
			res &^= 1
		}
		if j.FrontState.LEFT {
			res &^= 2
		}
		if j.FrontState.UP {
			res &^= 4
		}
		if j.FrontState.DOWN {
			res &^= 8
		}
	}
	if j.ActionSelector {
		res &^= 0x20
		if j.FrontState.A {
			res &^= 1
		}
		if j.FrontState.B {
			res &^= 2
		}
		if j.FrontState.SELECT {
			res &^= 4
		}
		if j.FrontState.START {
			res &^= 8
		}
	}
	return res
}
