package instr

import (
	"fmt"

	"gbcore/pkg/cpu"
)

// DecodeError is raised when the CPU fetches an opcode that has no instruction.
type DecodeError struct {
	Opcode uint8
	PC     uint16
}

func (err DecodeError) Error() string {
	return fmt.Sprintf("no instruction for opcode %02x at %04x", err.Opcode, err.PC)
}

var (
	table        [256]Instruction
	defined      [256]bool
	prefixTable  [256]Instruction
	undefinedOps = []uint8{0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD}
)

func init() {
	for i := 0; i < 256; i++ {
		opcode := uint8(i)
		table[i], defined[i] = build(opcode)
		if defined[i] {
			finish(&table[i], opcode, false)
		}
		prefixTable[i] = buildPrefixed(opcode)
		finish(&prefixTable[i], opcode, true)
	}
}

func finish(instr *Instruction, opcode uint8, prefixed bool) {
	instr.Opcode = opcode
	instr.Prefixed = prefixed
	instr.Info.Mnemonic = instr.mnemonic()
	instr.Info.Bytes = instr.bytes()
	if prefixed {
		instr.Info.Cycles = Cycles{Min: cycles_cb[opcode], Max: cycles_cb[opcode]}
	} else {
		instr.Info.Cycles = Cycles{Min: cycles_opcode[opcode], Max: cycles_branched[opcode]}
	}
}

// Decode returns the instruction for an opcode of the main table. 0xCB decodes to the
// PREFIX marker, the real instruction comes from DecodePrefixed with the next byte.
func Decode(opcode uint8) (Instruction, bool) {
	return table[opcode], defined[opcode]
}

// DecodePrefixed returns the instruction for the byte following 0xCB. Every byte has
// one.
func DecodePrefixed(opcode uint8) Instruction {
	return prefixTable[opcode]
}

// Undefined lists the opcodes that do not decode.
func Undefined() []uint8 {
	return append([]uint8(nil), undefinedOps...)
}

// operand encoded by the 3-bit register field of an opcode; 6 is (HL)
func r(index uint8) Operand {
	switch index & 7 {
	case 0:
		return reg8(cpu.B)
	case 1:
		return reg8(cpu.C)
	case 2:
		return reg8(cpu.D)
	case 3:
		return reg8(cpu.E)
	case 4:
		return reg8(cpu.H)
	case 5:
		return reg8(cpu.L)
	case 6:
		return indirect(HL)
	}
	return regA
}

var (
	rp   = [4]Reg16{BC, DE, HL, SP}
	rp2  = [4]Reg16{BC, DE, HL, AF}
	cc   = [4]Condition{NZ, Z, NC, C}
	alu  = [8]Op{ADD, ADC, SUB, SBC, AND, XOR, OR, CP}
	rot  = [8]Op{RLC, RRC, RL, RR, SLA, SRA, SWAP, SRL}
	accs = [8]Op{RLCA, RRCA, RLA, RRA, DAA, CPL, SCF, CCF}
)

// build decodes an opcode from its x (bits 6-7), y (bits 3-5) and z (bits 0-2) fields.
// y is further split into p (bits 4-5) and q (bit 3).
func build(opcode uint8) (Instruction, bool) {
	x, y, z := opcode>>6, (opcode>>3)&7, opcode&7
	p, q := y>>1, y&1

	switch x {
	case 0:
		switch z {
		case 0:
			switch y {
			case 0:
				return Instruction{Op: NOP}, true
			case 1:
				return Instruction{Op: LD, Dst: Operand{Kind: Absolute}, Src: wide(SP)}, true
			case 2:
				return Instruction{Op: STOP}, true
			case 3:
				return Instruction{Op: JR, Src: signed8}, true
			}
			return Instruction{Op: JR, Cond: cc[y-4], Src: signed8}, true
		case 1:
			if q == 0 {
				return Instruction{Op: LD, Dst: wide(rp[p]), Src: imm16}, true
			}
			return Instruction{Op: ADD, Dst: wide(HL), Src: wide(rp[p])}, true
		case 2:
			mem := [4]Operand{
				indirect(BC),
				indirect(DE),
				{Kind: Indirect, Wide: HL, Step: 1},
				{Kind: Indirect, Wide: HL, Step: -1},
			}[p]
			if q == 0 {
				return Instruction{Op: LD, Dst: mem, Src: regA}, true
			}
			return Instruction{Op: LD, Dst: regA, Src: mem}, true
		case 3:
			if q == 0 {
				return Instruction{Op: INC, Dst: wide(rp[p])}, true
			}
			return Instruction{Op: DEC, Dst: wide(rp[p])}, true
		case 4:
			return Instruction{Op: INC, Dst: r(y)}, true
		case 5:
			return Instruction{Op: DEC, Dst: r(y)}, true
		case 6:
			return Instruction{Op: LD, Dst: r(y), Src: imm8}, true
		}
		return Instruction{Op: accs[y]}, true

	case 1:
		if y == 6 && z == 6 {
			return Instruction{Op: HALT}, true
		}
		return Instruction{Op: LD, Dst: r(y), Src: r(z)}, true

	case 2:
		return Instruction{Op: alu[y], Dst: regA, Src: r(z)}, true
	}

	switch z {
	case 0:
		switch y {
		case 4:
			return Instruction{Op: LD, Dst: Operand{Kind: HighImm}, Src: regA}, true
		case 5:
			return Instruction{Op: ADD, Dst: wide(SP), Src: signed8}, true
		case 6:
			return Instruction{Op: LD, Dst: regA, Src: Operand{Kind: HighImm}}, true
		case 7:
			return Instruction{Op: LD, Dst: wide(HL), Src: Operand{Kind: SPOffset}}, true
		}
		return Instruction{Op: RET, Cond: cc[y]}, true
	case 1:
		if q == 0 {
			return Instruction{Op: POP, Dst: wide(rp2[p])}, true
		}
		switch p {
		case 0:
			return Instruction{Op: RET}, true
		case 1:
			return Instruction{Op: RETI}, true
		case 2:
			return Instruction{Op: JP, Src: wide(HL)}, true
		}
		return Instruction{Op: LD, Dst: wide(SP), Src: wide(HL)}, true
	case 2:
		switch y {
		case 4:
			return Instruction{Op: LD, Dst: Operand{Kind: HighC}, Src: regA}, true
		case 5:
			return Instruction{Op: LD, Dst: Operand{Kind: Absolute}, Src: regA}, true
		case 6:
			return Instruction{Op: LD, Dst: regA, Src: Operand{Kind: HighC}}, true
		case 7:
			return Instruction{Op: LD, Dst: regA, Src: Operand{Kind: Absolute}}, true
		}
		return Instruction{Op: JP, Cond: cc[y], Src: imm16}, true
	case 3:
		switch y {
		case 0:
			return Instruction{Op: JP, Src: imm16}, true
		case 1:
			return Instruction{Op: PREFIX}, true
		case 6:
			return Instruction{Op: DI}, true
		case 7:
			return Instruction{Op: EI}, true
		}
		return Instruction{}, false
	case 4:
		if y < 4 {
			return Instruction{Op: CALL, Cond: cc[y], Src: imm16}, true
		}
		return Instruction{}, false
	case 5:
		if q == 0 {
			return Instruction{Op: PUSH, Src: wide(rp2[p])}, true
		}
		if p == 0 {
			return Instruction{Op: CALL, Src: imm16}, true
		}
		return Instruction{}, false
	case 6:
		return Instruction{Op: alu[y], Dst: regA, Src: imm8}, true
	}
	return Instruction{Op: RST, N: y * 8}, true
}

func buildPrefixed(opcode uint8) Instruction {
	x, y, z := opcode>>6, (opcode>>3)&7, opcode&7
	switch x {
	case 0:
		return Instruction{Op: rot[y], Dst: r(z)}
	case 1:
		return Instruction{Op: BIT, N: y, Src: r(z)}
	case 2:
		return Instruction{Op: RES, N: y, Dst: r(z)}
	}
	return Instruction{Op: SET, N: y, Dst: r(z)}
}

// M-cycles per opcode, when a conditional branch is not taken
var cycles_opcode = [256]uint8{
	1, 3, 2, 2, 1, 1, 2, 1, 5, 2, 2, 2, 1, 1, 2, 1,
	1, 3, 2, 2, 1, 1, 2, 1, 3, 2, 2, 2, 1, 1, 2, 1,
	2, 3, 2, 2, 1, 1, 2, 1, 2, 2, 2, 2, 1, 1, 2, 1,
	2, 3, 2, 2, 3, 3, 3, 1, 2, 2, 2, 2, 1, 1, 2, 1,
	1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1,
	1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1,
	1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1,
	2, 2, 2, 2, 2, 2, 1, 2, 1, 1, 1, 1, 1, 1, 2, 1,
	1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1,
	1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1,
	1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1,
	1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1,
	2, 3, 3, 4, 3, 4, 2, 4, 2, 4, 3, 0, 3, 6, 2, 4,
	2, 3, 3, 0, 3, 4, 2, 4, 2, 4, 3, 0, 3, 0, 2, 4,
	3, 3, 2, 0, 0, 4, 2, 4, 4, 1, 4, 0, 0, 0, 2, 4,
	3, 3, 2, 1, 0, 4, 2, 4, 3, 2, 4, 1, 0, 0, 2, 4,
}

// M-cycles per opcode, when a conditional branch is taken
var cycles_branched = [256]uint8{
	1, 3, 2, 2, 1, 1, 2, 1, 5, 2, 2, 2, 1, 1, 2, 1,
	1, 3, 2, 2, 1, 1, 2, 1, 3, 2, 2, 2, 1, 1, 2, 1,
	3, 3, 2, 2, 1, 1, 2, 1, 3, 2, 2, 2, 1, 1, 2, 1,
	3, 3, 2, 2, 3, 3, 3, 1, 3, 2, 2, 2, 1, 1, 2, 1,
	1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1,
	1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1,
	1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1,
	2, 2, 2, 2, 2, 2, 1, 2, 1, 1, 1, 1, 1, 1, 2, 1,
	1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1,
	1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1,
	1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1,
	1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1,
	5, 3, 4, 4, 6, 4, 2, 4, 5, 4, 4, 0, 6, 6, 2, 4,
	5, 3, 4, 0, 6, 4, 2, 4, 5, 4, 4, 0, 6, 0, 2, 4,
	3, 3, 2, 0, 0, 4, 2, 4, 4, 1, 4, 0, 0, 0, 2, 4,
	3, 3, 2, 1, 0, 4, 2, 4, 3, 2, 4, 1, 0, 0, 2, 4,
}

// M-cycles of the prefixed opcodes, including the prefix
var cycles_cb = [256]uint8{
	2, 2, 2, 2, 2, 2, 4, 2, 2, 2, 2, 2, 2, 2, 4, 2,
	2, 2, 2, 2, 2, 2, 4, 2, 2, 2, 2, 2, 2, 2, 4, 2,
	2, 2, 2, 2, 2, 2, 4, 2, 2, 2, 2, 2, 2, 2, 4, 2,
	2, 2, 2, 2, 2, 2, 4, 2, 2, 2, 2, 2, 2, 2, 4, 2,
	2, 2, 2, 2, 2, 2, 3, 2, 2, 2, 2, 2, 2, 2, 3, 2,
	2, 2, 2, 2, 2, 2, 3, 2, 2, 2, 2, 2, 2, 2, 3, 2,
	2, 2, 2, 2, 2, 2, 3, 2, 2, 2, 2, 2, 2, 2, 3, 2,
	2, 2, 2, 2, 2, 2, 3, 2, 2, 2, 2, 2, 2, 2, 3, 2,
	2, 2, 2, 2, 2, 2, 4, 2, 2, 2, 2, 2, 2, 2, 4, 2,
	2, 2, 2, 2, 2, 2, 4, 2, 2, 2, 2, 2, 2, 2, 4, 2,
	2, 2, 2, 2, 2, 2, 4, 2, 2, 2, 2, 2, 2, 2, 4, 2,
	2, 2, 2, 2, 2, 2, 4, 2, 2, 2, 2, 2, 2, 2, 4, 2,
	2, 2, 2, 2, 2, 2, 4, 2, 2, 2, 2, 2, 2, 2, 4, 2,
	2, 2, 2, 2, 2, 2, 4, 2, 2, 2, 2, 2, 2, 2, 4, 2,
	2, 2, 2, 2, 2, 2, 4, 2, 2, 2, 2, 2, 2, 2, 4, 2,
	2, 2, 2, 2, 2, 2, 4, 2, 2, 2, 2, 2, 2, 2, 4, 2,
}
