package gbc

import (
	"encoding/gob"
	"fmt"
)

const WRAM_BANK_SIZE = 0x1000

// Bank is a switchable work RAM store. Bank 0 is always mapped at 0xC000; the
// selected bank, never 0, is mapped at 0xD000.
type Bank struct {
	Data     [][WRAM_BANK_SIZE]uint8
	selected uint8
}

func MakeBank(count int) *Bank {
	return &Bank{
		Data:     make([][WRAM_BANK_SIZE]uint8, count),
		selected: 1,
	}
}

// Select maps bank n at 0xD000. Zero selects bank 1 and the index wraps on the
// number of banks.
func (b *Bank) Select(n uint8) {
	n %= uint8(len(b.Data))
	if n == 0 {
		n = 1
	}
	b.selected = n
}

func (b *Bank) Selected() uint8 {
	return b.selected
}

// Read takes an offset from 0xC000.
func (b *Bank) Read(off uint16) uint8 {
	if off < WRAM_BANK_SIZE {
		return b.Data[0][off]
	}
	return b.Data[b.selected][off-WRAM_BANK_SIZE]
}

func (b *Bank) Write(off uint16, value uint8) {
	if off < WRAM_BANK_SIZE {
		b.Data[0][off] = value
		return
	}
	b.Data[b.selected][off-WRAM_BANK_SIZE] = value
}

func (b *Bank) Save(encoder *gob.Encoder) {
	panicIfErr(encoder.Encode(b.Data))
	panicIfErr(encoder.Encode(b.selected))
}

func (b *Bank) Load(decoder *gob.Decoder) error {
	var data [][WRAM_BANK_SIZE]uint8
	var selected uint8
	if err := firstErr(decoder.Decode(&data), decoder.Decode(&selected)); err != nil {
		return err
	}
	if len(data) != len(b.Data) {
		return fmt.Errorf("state has %d WRAM banks, expected %d", len(data), len(b.Data))
	}
	if selected == 0 || int(selected) >= len(data) {
		return fmt.Errorf("WRAM bank %d out of range", selected)
	}
	b.Data, b.selected = data, selected
	return nil
}

// ReadWord reads a little-endian word. The second byte wraps to 0x0000.
func (cons *Console) ReadWord(addr uint16) uint16 {
	lo := cons.Read(addr)
	hi := cons.Read(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func (cons *Console) WriteWord(addr uint16, value uint16) {
	cons.Write(addr, uint8(value))
	cons.Write(addr+1, uint8(value>>8))
}

// StackPush stores value below sp, high byte first, and returns the new stack
// pointer.
func (cons *Console) StackPush(sp uint16, value uint16) uint16 {
	sp--
	cons.Write(sp, uint8(value>>8))
	sp--
	cons.Write(sp, uint8(value))
	return sp
}

// StackPop undoes StackPush: it returns the value at sp and the stack pointer
// above it.
func (cons *Console) StackPop(sp uint16) (uint16, uint16) {
	lo := cons.Read(sp)
	sp++
	hi := cons.Read(sp)
	sp++
	return uint16(hi)<<8 | uint16(lo), sp
}

func (cons *Console) push(value uint16) {
	cons.CPU.SP = cons.StackPush(cons.CPU.SP, value)
}

func (cons *Console) pop() uint16 {
	value, sp := cons.StackPop(cons.CPU.SP)
	cons.CPU.SP = sp
	return value
}

func panicIfErr(err error) {
	if err != nil {
		panic(err)
	}
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
