package gbc

import (
	"encoding/gob"
	"strings"
)

// SERIAL_TRANSFER_DOTS is how long an internally clocked byte takes to shift out.
const SERIAL_TRANSFER_DOTS = 4096

const (
	SC_INTERNAL_CLOCK uint8 = 0x01
	SC_TRANSFER       uint8 = 0x80
)

// Serial only models the internal clock. A transfer shifts SB out to the output
// buffer and shifts in 0xFF, as if nothing were plugged into the port.
type Serial struct {
	cons *Console
	SB   uint8
	SC   uint8

	dots   int
	output strings.Builder
}

func MakeSerial(cons *Console) *Serial {
	return &Serial{cons: cons}
}

func (s *Serial) Save(encoder *gob.Encoder) {
	panicIfErr(encoder.Encode(s.SB))
	panicIfErr(encoder.Encode(s.SC))
	panicIfErr(encoder.Encode(s.dots))
	panicIfErr(encoder.Encode(s.output.String()))
}

func (s *Serial) Load(decoder *gob.Decoder) error {
	var output string
	err := firstErr(
		decoder.Decode(&s.SB),
		decoder.Decode(&s.SC),
		decoder.Decode(&s.dots),
		decoder.Decode(&output),
	)
	if err != nil {
		return err
	}
	s.output.Reset()
	s.output.WriteString(output)
	return nil
}

func (s *Serial) WriteControl(value uint8) {
	s.SC = value | 0x7E
	if s.transferring() {
		s.dots = 0
	}
}

func (s *Serial) transferring() bool {
	return s.SC&(SC_TRANSFER|SC_INTERNAL_CLOCK) == SC_TRANSFER|SC_INTERNAL_CLOCK
}

func (s *Serial) Tick(cycles int) {
	if !s.transferring() {
		return
	}
	s.dots += cycles * 4
	if s.dots < SERIAL_TRANSFER_DOTS {
		return
	}
	s.dots = 0
	s.output.WriteByte(s.SB)
	s.SB = 0xFF
	s.SC &^= SC_TRANSFER
	s.cons.RequestInterrupt(InterruptSerial)
}

// Output is every byte sent so far.
func (s *Serial) Output() string {
	return s.output.String()
}
