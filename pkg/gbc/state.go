package gbc

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

func (cons *Console) Save(encoder *gob.Encoder) {
	panicIfErr(encoder.Encode(cons.IOMem))
	panicIfErr(encoder.Encode(cons.HighRAM))
	panicIfErr(encoder.Encode(cons.IE))
	panicIfErr(encoder.Encode(cons.pending))
	panicIfErr(encoder.Encode(cons.SpeedSwitch))
	panicIfErr(encoder.Encode(cons.DoubleSpeedMode))
	cons.WorkRAM.Save(encoder)
	cons.Cart.Save(encoder)
	cons.CPU.Save(encoder)
	cons.PPU.Save(encoder)
	cons.DMA.Save(encoder)
	cons.Timer.Save(encoder)
	cons.Serial.Save(encoder)
	cons.Input.Save(encoder)
}

func (cons *Console) Load(decoder *gob.Decoder) error {
	return firstErr(
		decoder.Decode(&cons.IOMem),
		decoder.Decode(&cons.HighRAM),
		decoder.Decode(&cons.IE),
		decoder.Decode(&cons.pending),
		decoder.Decode(&cons.SpeedSwitch),
		decoder.Decode(&cons.DoubleSpeedMode),
		cons.WorkRAM.Load(decoder),
		cons.Cart.Load(decoder),
		cons.CPU.Load(decoder),
		cons.PPU.Load(decoder),
		cons.DMA.Load(decoder),
		cons.Timer.Load(decoder),
		cons.Serial.Load(decoder),
		cons.Input.Load(decoder),
	)
}

// SaveState snapshots the whole console. The ROM is not included.
func (cons *Console) SaveState() (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("saving state: %v", r)
		}
	}()

	var buf bytes.Buffer
	cons.Save(gob.NewEncoder(&buf))
	return buf.Bytes(), nil
}

// LoadState restores a snapshot taken by SaveState on a console built from the same
// ROM. The snapshot is decoded into a fresh console first, so on error the console
// is left as it was.
func (cons *Console) LoadState(data []byte) error {
	scratch, err := MakeConsoleWithOptions(cons.Cart.ROM(), Options{DisableBootState: true})
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	if err := scratch.Load(gob.NewDecoder(bytes.NewReader(data))); err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	cons.adopt(scratch)
	return nil
}

// adopt takes over the emulated state of other. The inspector and the verbosity of
// cons are kept.
func (cons *Console) adopt(other *Console) {
	cons.Cart = other.Cart
	cons.CPU = other.CPU
	cons.PPU = other.PPU
	cons.WorkRAM = other.WorkRAM
	cons.IOMem = other.IOMem
	cons.HighRAM = other.HighRAM
	cons.IE = other.IE
	cons.pending = other.pending
	cons.SpeedSwitch = other.SpeedSwitch
	cons.DoubleSpeedMode = other.DoubleSpeedMode

	cons.DMA = other.DMA
	cons.DMA.cons = cons
	cons.Timer = other.Timer
	cons.Timer.cons = cons
	cons.Serial = other.Serial
	cons.Serial.cons = cons
	cons.Input = other.Input
	cons.Input.cons = cons
}
