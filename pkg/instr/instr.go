// Package instr is the SM83 instruction catalog: the decoded form of every opcode,
// with its size, M-cycle costs and mnemonic.
package instr

import (
	"fmt"

	"gbcore/pkg/cpu"
)

type Op uint8

const (
	NOP Op = iota
	STOP
	HALT
	DI
	EI
	PREFIX

	LD
	PUSH
	POP
	INC
	DEC

	ADD
	ADC
	SUB
	SBC
	AND
	XOR
	OR
	CP

	RLCA
	RRCA
	RLA
	RRA
	DAA
	CPL
	SCF
	CCF

	JR
	JP
	CALL
	RET
	RETI
	RST

	RLC
	RRC
	RL
	RR
	SLA
	SRA
	SWAP
	SRL
	BIT
	RES
	SET
)

var opNames = [...]string{
	NOP: "NOP", STOP: "STOP", HALT: "HALT", DI: "DI", EI: "EI", PREFIX: "PREFIX CB",
	LD: "LD", PUSH: "PUSH", POP: "POP", INC: "INC", DEC: "DEC",
	ADD: "ADD", ADC: "ADC", SUB: "SUB", SBC: "SBC", AND: "AND", XOR: "XOR", OR: "OR", CP: "CP",
	RLCA: "RLCA", RRCA: "RRCA", RLA: "RLA", RRA: "RRA", DAA: "DAA", CPL: "CPL", SCF: "SCF", CCF: "CCF",
	JR: "JR", JP: "JP", CALL: "CALL", RET: "RET", RETI: "RETI", RST: "RST",
	RLC: "RLC", RRC: "RRC", RL: "RL", RR: "RR", SLA: "SLA", SRA: "SRA", SWAP: "SWAP", SRL: "SRL",
	BIT: "BIT", RES: "RES", SET: "SET",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", op)
}

// Reg16 names the 16-bit operands. BC, DE and HL are register pairs, SP is a register
// of its own and AF only appears in PUSH and POP.
type Reg16 uint8

const (
	BC Reg16 = iota
	DE
	HL
	SP
	AF
)

func (r Reg16) String() string {
	return [...]string{"BC", "DE", "HL", "SP", "AF"}[r]
}

// Pair returns the register pair for BC, DE and HL.
func (r Reg16) Pair() (cpu.Pair, bool) {
	switch r {
	case BC:
		return cpu.BC, true
	case DE:
		return cpu.DE, true
	case HL:
		return cpu.HL, true
	}
	return 0, false
}

type Kind uint8

const (
	None Kind = iota
	// Reg8 is a single register.
	Reg8
	// Wide is a 16-bit register.
	Wide
	Imm8
	Imm16
	// Signed8 is a two's complement offset.
	Signed8
	// SPOffset is SP plus a signed offset, only used by LD HL,SP+e8.
	SPOffset
	// Indirect is the byte addressed by a 16-bit register. HL can be incremented or
	// decremented after the access.
	Indirect
	// Absolute is the byte addressed by a 16-bit immediate.
	Absolute
	// HighImm is the byte at 0xFF00 plus an 8-bit immediate.
	HighImm
	// HighC is the byte at 0xFF00 plus C.
	HighC
)

type Operand struct {
	Kind Kind
	Reg  cpu.Register
	Wide Reg16
	Step int8
}

func reg8(r cpu.Register) Operand { return Operand{Kind: Reg8, Reg: r} }
func wide(r Reg16) Operand        { return Operand{Kind: Wide, Wide: r} }
func indirect(r Reg16) Operand    { return Operand{Kind: Indirect, Wide: r} }

var (
	none    = Operand{}
	imm8    = Operand{Kind: Imm8}
	imm16   = Operand{Kind: Imm16}
	signed8 = Operand{Kind: Signed8}
	regA    = reg8(cpu.A)
)

// ImmediateBytes is the number of bytes the operand takes after the opcode.
func (o Operand) ImmediateBytes() uint8 {
	switch o.Kind {
	case Imm8, Signed8, SPOffset, HighImm:
		return 1
	case Imm16, Absolute:
		return 2
	}
	return 0
}

// String uses "n" for 8-bit and "nn" for 16-bit immediates.
func (o Operand) String() string {
	switch o.Kind {
	case Reg8:
		return o.Reg.String()
	case Wide:
		return o.Wide.String()
	case Imm8, Signed8:
		return "n"
	case Imm16:
		return "nn"
	case SPOffset:
		return "SP+n"
	case Indirect:
		switch o.Step {
		case 1:
			return "(" + o.Wide.String() + "+)"
		case -1:
			return "(" + o.Wide.String() + "-)"
		}
		return "(" + o.Wide.String() + ")"
	case Absolute:
		return "(nn)"
	case HighImm:
		return "($FF00+n)"
	case HighC:
		return "($FF00+C)"
	}
	return ""
}

type Condition uint8

const (
	Always Condition = iota
	NZ
	Z
	NC
	C
)

func (c Condition) String() string {
	return [...]string{"", "NZ", "Z", "NC", "C"}[c]
}

// Test reports whether the condition holds for the given flags byte.
func (c Condition) Test(flags uint8) bool {
	switch c {
	case NZ:
		return flags&uint8(cpu.FlagZero) == 0
	case Z:
		return flags&uint8(cpu.FlagZero) != 0
	case NC:
		return flags&uint8(cpu.FlagCarry) == 0
	case C:
		return flags&uint8(cpu.FlagCarry) != 0
	}
	return true
}

// Cycles are M-cycle costs. Max is charged when a conditional branch is taken, Min
// otherwise. They are equal for unconditional instructions.
type Cycles struct {
	Min, Max uint8
}

type Info struct {
	Mnemonic string
	Bytes    uint8
	Cycles   Cycles
}

type Instruction struct {
	Op       Op
	Dst, Src Operand
	Cond     Condition
	// N is the bit index of BIT, RES and SET and the vector of RST.
	N        uint8
	Opcode   uint8
	Prefixed bool
	Info     Info
}

func (i Instruction) IsPrefix() bool {
	return i.Op == PREFIX
}

func (i Instruction) String() string {
	return i.Info.Mnemonic
}

func (i Instruction) mnemonic() string {
	s := i.Op.String()
	args := make([]string, 0, 2)
	switch i.Op {
	case BIT, RES, SET:
		args = append(args, fmt.Sprint(i.N))
	case RST:
		args = append(args, fmt.Sprintf("$%02X", i.N))
	}
	if i.Cond != Always {
		args = append(args, i.Cond.String())
	}
	if i.Dst.Kind != None {
		args = append(args, i.Dst.String())
	}
	if i.Src.Kind != None {
		args = append(args, i.Src.String())
	}
	for n, a := range args {
		if n == 0 {
			s += " " + a
		} else {
			s += "," + a
		}
	}
	return s
}

func (i Instruction) bytes() uint8 {
	switch {
	case i.Prefixed:
		return 2
	case i.Op == STOP:
		return 2
	}
	return 1 + i.Dst.ImmediateBytes() + i.Src.ImmediateBytes()
}
