package cpu

// Word is an operand width handled by the ALU.
type Word interface {
	~uint8 | ~uint16
}

// Result is the outcome of an ALU operation.
type Result[T Word] struct {
	Value     T
	HalfCarry bool
	Carry     bool
}

func (r Result[T]) merge(next Result[T]) Result[T] {
	return Result[T]{
		Value:     next.Value,
		HalfCarry: r.HalfCarry || next.HalfCarry,
		Carry:     r.Carry || next.Carry,
	}
}

// The half carry of an 8-bit operation comes out of bit 3, the one of a 16-bit
// operation out of bit 11.
const (
	nibble8  = 0x000F
	nibble16 = 0x0FFF
)

func add[T Word](lhs, rhs T, mask uint32) Result[T] {
	v := lhs + rhs
	return Result[T]{
		Value:     v,
		HalfCarry: uint32(lhs)&mask+uint32(rhs)&mask > mask,
		Carry:     v < lhs,
	}
}

func sub[T Word](lhs, rhs T, mask uint32) Result[T] {
	return Result[T]{
		Value:     lhs - rhs,
		HalfCarry: uint32(lhs)&mask < uint32(rhs)&mask,
		Carry:     lhs < rhs,
	}
}

// the carry flag is folded in first as an extra addend, then the flags of both steps
// are merged
func addWithCarry[T Word](lhs, rhs T, carry bool, mask uint32) Result[T] {
	var r Result[T]
	if carry {
		r = add(lhs, 1, mask)
		lhs = r.Value
	}
	return r.merge(add(lhs, rhs, mask))
}

func subWithCarry[T Word](lhs, rhs T, carry bool, mask uint32) Result[T] {
	var r Result[T]
	if carry {
		r = sub(lhs, 1, mask)
		lhs = r.Value
	}
	return r.merge(sub(lhs, rhs, mask))
}

func Add8(lhs, rhs uint8) Result[uint8] {
	return add(lhs, rhs, nibble8)
}

func Sub8(lhs, rhs uint8) Result[uint8] {
	return sub(lhs, rhs, nibble8)
}

func AddWithCarry8(lhs, rhs uint8, carry bool) Result[uint8] {
	return addWithCarry(lhs, rhs, carry, nibble8)
}

func SubWithCarry8(lhs, rhs uint8, carry bool) Result[uint8] {
	return subWithCarry(lhs, rhs, carry, nibble8)
}

func Add16(lhs, rhs uint16) Result[uint16] {
	return add(lhs, rhs, nibble16)
}

func Sub16(lhs, rhs uint16) Result[uint16] {
	return sub(lhs, rhs, nibble16)
}

func AddWithCarry16(lhs, rhs uint16, carry bool) Result[uint16] {
	return addWithCarry(lhs, rhs, carry, nibble16)
}

func SubWithCarry16(lhs, rhs uint16, carry bool) Result[uint16] {
	return subWithCarry(lhs, rhs, carry, nibble16)
}

// AddSigned8 adds a signed byte to a 16-bit value the way ADD SP,e8 and LD HL,SP+e8 do:
// the flags come from the unsigned addition of the low bytes.
func AddSigned8(lhs uint16, offset uint8) Result[uint16] {
	low := Add8(uint8(lhs), offset)
	return Result[uint16]{
		Value:     lhs + uint16(int16(int8(offset))),
		HalfCarry: low.HalfCarry,
		Carry:     low.Carry,
	}
}

// Direction of a rotate or shift.
type Direction uint8

const (
	Left Direction = iota
	Right
)

// RotateMode selects what enters the vacated bit.
type RotateMode uint8

const (
	// Cyclic wraps the bit pushed out into the opposite end.
	Cyclic RotateMode = iota
	// ThroughCarry shifts the current carry flag in.
	ThroughCarry
)

// Rotate returns the rotated value and the new carry, which is always the bit pushed
// out of the value.
func Rotate(v uint8, dir Direction, mode RotateMode, carry bool) (uint8, bool) {
	var out, in uint8
	if dir == Left {
		out = v >> 7
	} else {
		out = v & 1
	}

	if mode == Cyclic {
		in = out
	} else if carry {
		in = 1
	}

	if dir == Left {
		return v<<1 | in, out != 0
	}
	return v>>1 | in<<7, out != 0
}

// ShiftLeftArithmetic is SLA.
func ShiftLeftArithmetic(v uint8) (uint8, bool) {
	return v << 1, v&0x80 != 0
}

// ShiftRightArithmetic is SRA, bit 7 is preserved.
func ShiftRightArithmetic(v uint8) (uint8, bool) {
	return v>>1 | v&0x80, v&1 != 0
}

// ShiftRightLogical is SRL.
func ShiftRightLogical(v uint8) (uint8, bool) {
	return v >> 1, v&1 != 0
}

func Swap(v uint8) uint8 {
	return v<<4 | v>>4
}

// DecimalAdjust corrects A after a BCD addition or subtraction. It returns the new value
// and the new carry.
func DecimalAdjust(a uint8, subtract, halfCarry, carry bool) (uint8, bool) {
	var correction uint8
	if subtract {
		if halfCarry {
			correction |= 0x06
		}
		if carry {
			correction |= 0x60
		}
		return a - correction, carry
	}

	if halfCarry || a&0x0F > 0x09 {
		correction |= 0x06
	}
	if carry || a > 0x99 {
		correction |= 0x60
		carry = true
	}
	return a + correction, carry
}
