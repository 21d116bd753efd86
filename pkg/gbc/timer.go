package gbc

import "encoding/gob"

// TIMA increments every timaPeriods[TAC&3] dots.
var timaPeriods = [4]int{1024, 16, 64, 256}

const TAC_ENABLE uint8 = 0x04

type Timer struct {
	cons *Console

	// DIV is the upper byte of a counter that advances once per dot.
	counter        uint16
	TIMA, TMA, TAC uint8

	timaDots int
}

func MakeTimer(cons *Console) *Timer {
	return &Timer{cons: cons}
}

func (t *Timer) Save(encoder *gob.Encoder) {
	panicIfErr(encoder.Encode(t.counter))
	panicIfErr(encoder.Encode(t.TIMA))
	panicIfErr(encoder.Encode(t.TMA))
	panicIfErr(encoder.Encode(t.TAC))
	panicIfErr(encoder.Encode(t.timaDots))
}

func (t *Timer) Load(decoder *gob.Decoder) error {
	return firstErr(
		decoder.Decode(&t.counter),
		decoder.Decode(&t.TIMA),
		decoder.Decode(&t.TMA),
		decoder.Decode(&t.TAC),
		decoder.Decode(&t.timaDots),
	)
}

func (t *Timer) DIV() uint8 {
	return uint8(t.counter >> 8)
}

// ResetDiv is the effect of any write to DIV.
func (t *Timer) ResetDiv() {
	t.counter = 0
	t.timaDots = 0
}

func (t *Timer) WriteControl(value uint8) {
	if t.TAC&3 != value&3 {
		t.timaDots = 0
	}
	t.TAC = value & 7
}

// Tick advances the timer by a number of machine cycles.
func (t *Timer) Tick(cycles int) {
	dots := cycles * 4
	t.counter += uint16(dots)

	if t.TAC&TAC_ENABLE == 0 {
		return
	}
	period := timaPeriods[t.TAC&3]
	t.timaDots += dots
	for t.timaDots >= period {
		t.timaDots -= period
		if t.TIMA == 0xFF {
			t.TIMA = t.TMA
			t.cons.RequestInterrupt(InterruptTimer)
		} else {
			t.TIMA++
		}
	}
}
