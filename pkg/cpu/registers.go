package cpu

import "fmt"

// Register names one of the seven 8-bit general purpose registers.
type Register uint8

const (
	A Register = iota
	B
	C
	D
	E
	H
	L
)

var registerNames = [...]string{"A", "B", "C", "D", "E", "H", "L"}

func (r Register) String() string {
	if int(r) < len(registerNames) {
		return registerNames[r]
	}
	return fmt.Sprintf("Register(%d)", r)
}

// Pair names a 16-bit register pair. A pair has no storage of its own, its value is
// always built from the two 8-bit halves.
type Pair uint8

const (
	BC Pair = iota
	DE
	HL
)

func (p Pair) String() string {
	switch p {
	case BC:
		return "BC"
	case DE:
		return "DE"
	case HL:
		return "HL"
	}
	return fmt.Sprintf("Pair(%d)", p)
}

// Halves returns the high and low registers backing the pair.
func (p Pair) Halves() (Register, Register) {
	switch p {
	case BC:
		return B, C
	case DE:
		return D, E
	case HL:
		return H, L
	}
	panic(fmt.Sprintf("invalid register pair %d", p))
}

// Flag is the mask of a single bit in the flags byte.
type Flag uint8

const (
	FlagCarry     Flag = 0x10
	FlagHalfCarry Flag = 0x20
	FlagSubtract  Flag = 0x40
	FlagZero      Flag = 0x80
)

// only the upper nibble of F exists in hardware
const flagsMask uint8 = 0xF0

func (f Flag) String() string {
	switch f {
	case FlagCarry:
		return "C"
	case FlagHalfCarry:
		return "H"
	case FlagSubtract:
		return "N"
	case FlagZero:
		return "Z"
	}
	return fmt.Sprintf("Flag(%#02x)", uint8(f))
}

// Value is the set of types a Target can hold.
type Value interface {
	uint8 | uint16 | bool
}

// Target is the capability shared by registers, pairs and flags: something that can be
// read from and written to the register file.
type Target[V Value] interface {
	Get(cpu *GBCpu) V
	Set(cpu *GBCpu, value V)
}

var (
	_ Target[uint8]  = A
	_ Target[uint16] = BC
	_ Target[bool]   = FlagZero
)

// Get reads any target from the register file.
func Get[V Value](cpu *GBCpu, target Target[V]) V {
	return target.Get(cpu)
}

// Set writes any target to the register file.
func Set[V Value](cpu *GBCpu, target Target[V], value V) {
	target.Set(cpu, value)
}

func (r Register) Get(cpu *GBCpu) uint8 {
	return *cpu.slot(r)
}

func (r Register) Set(cpu *GBCpu, value uint8) {
	*cpu.slot(r) = value
}

func (p Pair) Get(cpu *GBCpu) uint16 {
	hi, lo := p.Halves()
	return uint16(hi.Get(cpu))<<8 | uint16(lo.Get(cpu))
}

func (p Pair) Set(cpu *GBCpu, value uint16) {
	hi, lo := p.Halves()
	hi.Set(cpu, uint8(value>>8))
	lo.Set(cpu, uint8(value))
}

func (f Flag) Get(cpu *GBCpu) bool {
	return cpu.flags&uint8(f) != 0
}

func (f Flag) Set(cpu *GBCpu, on bool) {
	if on {
		cpu.flags |= uint8(f)
	} else {
		cpu.flags &^= uint8(f)
	}
}

// GBCpu is the register file of the Game Boy CPU.
type GBCpu struct {
	a, b, c, d, e, h, l uint8
	flags               uint8

	SP, PC uint16

	// Cycles counts machine cycles and wraps at 16 bits.
	Cycles uint16

	// IME is the interrupt master enable latch.
	IME    bool
	Halted bool
}

func MakeGBCpu() *GBCpu {
	return &GBCpu{}
}

func (cpu *GBCpu) slot(r Register) *uint8 {
	switch r {
	case A:
		return &cpu.a
	case B:
		return &cpu.b
	case C:
		return &cpu.c
	case D:
		return &cpu.d
	case E:
		return &cpu.e
	case H:
		return &cpu.h
	case L:
		return &cpu.l
	}
	panic(fmt.Sprintf("invalid register %d", r))
}

func (cpu *GBCpu) Reg(r Register) uint8 {
	return r.Get(cpu)
}

func (cpu *GBCpu) SetReg(r Register, value uint8) {
	r.Set(cpu, value)
}

func (cpu *GBCpu) Pair(p Pair) uint16 {
	return p.Get(cpu)
}

func (cpu *GBCpu) SetPair(p Pair, value uint16) {
	p.Set(cpu, value)
}

func (cpu *GBCpu) Flag(f Flag) bool {
	return f.Get(cpu)
}

func (cpu *GBCpu) SetFlag(f Flag, on bool) {
	f.Set(cpu, on)
}

// Flags returns the packed F register.
func (cpu *GBCpu) Flags() uint8 {
	return cpu.flags
}

// SetFlags replaces the F register. The low nibble is forced to zero.
func (cpu *GBCpu) SetFlags(f uint8) {
	cpu.flags = f & flagsMask
}

// AF is only reachable through PUSH/POP so it is not a Pair.
func (cpu *GBCpu) AF() uint16 {
	return uint16(cpu.a)<<8 | uint16(cpu.flags)
}

func (cpu *GBCpu) SetAF(value uint16) {
	cpu.a = uint8(value >> 8)
	cpu.SetFlags(uint8(value))
}

// AddCycles advances the wrapping cycle counter.
func (cpu *GBCpu) AddCycles(n uint8) {
	cpu.Cycles += uint16(n)
}

// Reset loads the documented post-boot register values.
func (cpu *GBCpu) Reset(color bool) {
	if color {
		cpu.a, cpu.flags = 0x11, 0x80
		cpu.b, cpu.c = 0x00, 0x00
		cpu.d, cpu.e = 0xFF, 0x56
		cpu.h, cpu.l = 0x00, 0x0D
	} else {
		cpu.a, cpu.flags = 0x01, 0xB0
		cpu.b, cpu.c = 0x00, 0x13
		cpu.d, cpu.e = 0x00, 0xD8
		cpu.h, cpu.l = 0x01, 0x4D
	}
	cpu.SP = 0xFFFE
	cpu.PC = 0x0100
	cpu.Cycles = 0
	cpu.IME = false
	cpu.Halted = false
}

func (cpu *GBCpu) String() string {
	return fmt.Sprintf("PC=%04x SP=%04x A=%02x B=%02x C=%02x D=%02x E=%02x H=%02x L=%02x F=%02x CYC=%d",
		cpu.PC, cpu.SP, cpu.a, cpu.b, cpu.c, cpu.d, cpu.e, cpu.h, cpu.l, cpu.flags, cpu.Cycles)
}
