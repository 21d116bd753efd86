package gbc

import (
	"fmt"

	"gbcore/pkg/cpu"
	"gbcore/pkg/instr"
)

// Operand access. Immediates are read at PC, which points past the opcode while an
// instruction executes.

func (cons *Console) imm8() uint8 {
	return cons.Read(cons.CPU.PC)
}

func (cons *Console) imm16() uint16 {
	return cons.ReadWord(cons.CPU.PC)
}

func (cons *Console) wide(r instr.Reg16) uint16 {
	if p, ok := r.Pair(); ok {
		return cons.CPU.Pair(p)
	}
	if r == instr.SP {
		return cons.CPU.SP
	}
	return cons.CPU.AF()
}

func (cons *Console) setWide(r instr.Reg16, value uint16) {
	if p, ok := r.Pair(); ok {
		cons.CPU.SetPair(p, value)
		return
	}
	if r == instr.SP {
		cons.CPU.SP = value
		return
	}
	cons.CPU.SetAF(value)
}

func (cons *Console) address(o instr.Operand) uint16 {
	switch o.Kind {
	case instr.Indirect:
		return cons.wide(o.Wide)
	case instr.Absolute:
		return cons.imm16()
	case instr.HighImm:
		return 0xFF00 | uint16(cons.imm8())
	case instr.HighC:
		return 0xFF00 | uint16(cons.CPU.Reg(cpu.C))
	}
	panic(fmt.Sprintf("operand %s has no address", o))
}

func (cons *Console) load8(o instr.Operand) uint8 {
	switch o.Kind {
	case instr.Reg8:
		return cons.CPU.Reg(o.Reg)
	case instr.Imm8, instr.Signed8:
		return cons.imm8()
	}
	return cons.Read(cons.address(o))
}

func (cons *Console) store8(o instr.Operand, value uint8) {
	if o.Kind == instr.Reg8 {
		cons.CPU.SetReg(o.Reg, value)
		return
	}
	cons.Write(cons.address(o), value)
}

// postIncrement applies the HL step of (HL+) and (HL-) once the access is done.
func (cons *Console) postIncrement(o instr.Operand) {
	if o.Kind == instr.Indirect && o.Step != 0 {
		cons.setWide(o.Wide, cons.wide(o.Wide)+uint16(int16(o.Step)))
	}
}

func (cons *Console) setFlags(z, n, h, c bool) {
	cons.CPU.SetFlag(cpu.FlagZero, z)
	cons.CPU.SetFlag(cpu.FlagSubtract, n)
	cons.CPU.SetFlag(cpu.FlagHalfCarry, h)
	cons.CPU.SetFlag(cpu.FlagCarry, c)
}

// execute runs in and returns its cost in machine cycles.
func (cons *Console) execute(in instr.Instruction) uint8 {
	switch in.Op {
	case instr.NOP, instr.STOP:
	case instr.HALT:
		cons.CPU.Halted = true
	case instr.DI:
		cons.CPU.IME = false
	case instr.EI:
		cons.CPU.IME = true
	case instr.LD:
		cons.execLoad(in)
	case instr.PUSH:
		cons.push(cons.wide(in.Src.Wide))
	case instr.POP:
		cons.setWide(in.Dst.Wide, cons.pop())
	case instr.INC, instr.DEC:
		cons.execIncDec(in)
	case instr.ADD, instr.ADC, instr.SUB, instr.SBC, instr.AND, instr.XOR, instr.OR, instr.CP:
		cons.execArith(in)
	case instr.RLCA, instr.RRCA, instr.RLA, instr.RRA, instr.DAA, instr.CPL, instr.SCF, instr.CCF:
		cons.execAccumulator(in)
	case instr.JR, instr.JP, instr.CALL, instr.RET, instr.RETI, instr.RST:
		if !cons.execFlow(in) {
			return in.Info.Cycles.Min
		}
	case instr.RLC, instr.RRC, instr.RL, instr.RR, instr.SLA, instr.SRA, instr.SWAP, instr.SRL:
		cons.execShift(in)
	case instr.BIT, instr.RES, instr.SET:
		cons.execBit(in)
	default:
		panic(fmt.Sprintf("no executor for %s", in.Op))
	}
	return in.Info.Cycles.Max
}

func (cons *Console) execLoad(in instr.Instruction) {
	switch {
	case in.Src.Kind == instr.SPOffset:
		r := cpu.AddSigned8(cons.CPU.SP, cons.imm8())
		cons.setWide(in.Dst.Wide, r.Value)
		cons.setFlags(false, false, r.HalfCarry, r.Carry)
	case in.Src.Kind == instr.Imm16:
		cons.setWide(in.Dst.Wide, cons.imm16())
	case in.Src.Kind == instr.Wide && in.Dst.Kind == instr.Absolute:
		cons.WriteWord(cons.imm16(), cons.wide(in.Src.Wide))
	case in.Src.Kind == instr.Wide:
		cons.setWide(in.Dst.Wide, cons.wide(in.Src.Wide))
	default:
		cons.store8(in.Dst, cons.load8(in.Src))
		cons.postIncrement(in.Src)
		cons.postIncrement(in.Dst)
	}
}

func (cons *Console) execIncDec(in instr.Instruction) {
	if in.Dst.Kind == instr.Wide {
		delta := uint16(1)
		if in.Op == instr.DEC {
			delta = 0xFFFF
		}
		cons.setWide(in.Dst.Wide, cons.wide(in.Dst.Wide)+delta)
		return
	}

	var r cpu.Result[uint8]
	if in.Op == instr.INC {
		r = cpu.Add8(cons.load8(in.Dst), 1)
	} else {
		r = cpu.Sub8(cons.load8(in.Dst), 1)
	}
	cons.store8(in.Dst, r.Value)
	cons.setFlags(r.Value == 0, in.Op == instr.DEC, r.HalfCarry, cons.CPU.Flag(cpu.FlagCarry))
}

func (cons *Console) execArith(in instr.Instruction) {
	if in.Dst.Kind == instr.Wide {
		cons.execAdd16(in)
		return
	}

	a := cons.CPU.Reg(cpu.A)
	v := cons.load8(in.Src)
	carry := cons.CPU.Flag(cpu.FlagCarry)

	var r cpu.Result[uint8]
	switch in.Op {
	case instr.ADD:
		r = cpu.Add8(a, v)
	case instr.ADC:
		r = cpu.AddWithCarry8(a, v, carry)
	case instr.SUB, instr.CP:
		r = cpu.Sub8(a, v)
	case instr.SBC:
		r = cpu.SubWithCarry8(a, v, carry)
	case instr.AND:
		r = cpu.Result[uint8]{Value: a & v, HalfCarry: true}
	case instr.XOR:
		r = cpu.Result[uint8]{Value: a ^ v}
	case instr.OR:
		r = cpu.Result[uint8]{Value: a | v}
	}

	subtract := in.Op == instr.SUB || in.Op == instr.SBC || in.Op == instr.CP
	cons.setFlags(r.Value == 0, subtract, r.HalfCarry, r.Carry)
	if in.Op != instr.CP {
		cons.CPU.SetReg(cpu.A, r.Value)
	}
}

// execAdd16 is ADD HL,rr and ADD SP,e8.
func (cons *Console) execAdd16(in instr.Instruction) {
	if in.Dst.Wide == instr.SP {
		r := cpu.AddSigned8(cons.CPU.SP, cons.imm8())
		cons.CPU.SP = r.Value
		cons.setFlags(false, false, r.HalfCarry, r.Carry)
		return
	}
	r := cpu.Add16(cons.wide(in.Dst.Wide), cons.wide(in.Src.Wide))
	cons.setWide(in.Dst.Wide, r.Value)
	cons.setFlags(cons.CPU.Flag(cpu.FlagZero), false, r.HalfCarry, r.Carry)
}

func (cons *Console) execAccumulator(in instr.Instruction) {
	a := cons.CPU.Reg(cpu.A)
	z := cons.CPU.Flag(cpu.FlagZero)
	n := cons.CPU.Flag(cpu.FlagSubtract)
	h := cons.CPU.Flag(cpu.FlagHalfCarry)
	c := cons.CPU.Flag(cpu.FlagCarry)

	switch in.Op {
	case instr.RLCA:
		a, c = cpu.Rotate(a, cpu.Left, cpu.Cyclic, c)
		z, n, h = false, false, false
	case instr.RRCA:
		a, c = cpu.Rotate(a, cpu.Right, cpu.Cyclic, c)
		z, n, h = false, false, false
	case instr.RLA:
		a, c = cpu.Rotate(a, cpu.Left, cpu.ThroughCarry, c)
		z, n, h = false, false, false
	case instr.RRA:
		a, c = cpu.Rotate(a, cpu.Right, cpu.ThroughCarry, c)
		z, n, h = false, false, false
	case instr.DAA:
		a, c = cpu.DecimalAdjust(a, n, h, c)
		z, h = a == 0, false
	case instr.CPL:
		a = ^a
		n, h = true, true
	case instr.SCF:
		n, h, c = false, false, true
	case instr.CCF:
		n, h, c = false, false, !c
	}
	cons.CPU.SetReg(cpu.A, a)
	cons.setFlags(z, n, h, c)
}

// execFlow reports whether the branch was taken.
func (cons *Console) execFlow(in instr.Instruction) bool {
	if !in.Cond.Test(cons.CPU.Flags()) {
		return false
	}

	switch in.Op {
	case instr.JR:
		cons.CPU.PC = cons.instrEnd + uint16(int8(cons.imm8()))
	case instr.JP:
		if in.Src.Kind == instr.Wide {
			cons.CPU.PC = cons.wide(in.Src.Wide)
		} else {
			cons.CPU.PC = cons.imm16()
		}
	case instr.CALL:
		target := cons.imm16()
		cons.push(cons.instrEnd)
		cons.CPU.PC = target
	case instr.RET:
		cons.CPU.PC = cons.pop()
	case instr.RETI:
		cons.CPU.PC = cons.pop()
		cons.CPU.IME = true
	case instr.RST:
		cons.push(cons.instrEnd)
		cons.CPU.PC = uint16(in.N)
	}
	return true
}

func (cons *Console) execShift(in instr.Instruction) {
	v := cons.load8(in.Dst)
	c := cons.CPU.Flag(cpu.FlagCarry)

	switch in.Op {
	case instr.RLC:
		v, c = cpu.Rotate(v, cpu.Left, cpu.Cyclic, c)
	case instr.RRC:
		v, c = cpu.Rotate(v, cpu.Right, cpu.Cyclic, c)
	case instr.RL:
		v, c = cpu.Rotate(v, cpu.Left, cpu.ThroughCarry, c)
	case instr.RR:
		v, c = cpu.Rotate(v, cpu.Right, cpu.ThroughCarry, c)
	case instr.SLA:
		v, c = cpu.ShiftLeftArithmetic(v)
	case instr.SRA:
		v, c = cpu.ShiftRightArithmetic(v)
	case instr.SRL:
		v, c = cpu.ShiftRightLogical(v)
	case instr.SWAP:
		v, c = cpu.Swap(v), false
	}
	cons.store8(in.Dst, v)
	cons.setFlags(v == 0, false, false, c)
}

func (cons *Console) execBit(in instr.Instruction) {
	mask := uint8(1) << in.N
	switch in.Op {
	case instr.BIT:
		set := cons.load8(in.Src)&mask != 0
		cons.setFlags(!set, false, true, cons.CPU.Flag(cpu.FlagCarry))
	case instr.RES:
		cons.store8(in.Dst, cons.load8(in.Dst)&^mask)
	case instr.SET:
		cons.store8(in.Dst, cons.load8(in.Dst)|mask)
	}
}
