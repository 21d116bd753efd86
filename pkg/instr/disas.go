package instr

import (
	"fmt"
	"strings"
)

// Disassemble formats the instruction at pc, reading bytes with read. It returns the
// text and the size of the instruction in bytes. Undefined opcodes come out as
// "DB $xx" with a size of 1.
func Disassemble(read func(uint16) uint8, pc uint16) (string, int) {
	opcode := read(pc)
	instr, ok := Decode(opcode)
	if !ok {
		return fmt.Sprintf("%04x: DB $%02x", pc, opcode), 1
	}
	off := pc + 1
	if instr.IsPrefix() {
		instr = DecodePrefixed(read(off))
		off++
	}

	text := instr.Info.Mnemonic
	if strings.Contains(text, "nn") {
		val := uint16(read(off)) | uint16(read(off+1))<<8
		text = strings.Replace(text, "nn", fmt.Sprintf("$%04x", val), 1)
	} else if strings.Contains(text, "n") {
		text = strings.Replace(text, "n", fmt.Sprintf("$%02x", read(off)), 1)
	}

	return fmt.Sprintf("%04x: %s", pc, text), int(instr.Info.Bytes)
}

// DisassembleData is Disassemble over a byte slice that starts at addr. Bytes past
// the end of data read as zero.
func DisassembleData(addr uint16, data []byte) (string, int) {
	return Disassemble(func(a uint16) uint8 {
		i := int(a - addr)
		if i < 0 || i >= len(data) {
			return 0
		}
		return data[i]
	}, addr)
}
