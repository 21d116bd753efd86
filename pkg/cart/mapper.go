package cart

import "encoding/gob"

const (
	ROM_BANK_START = 0x4000
	RAM_START      = 0xA000
)

type MapperKind uint8

const (
	KindMBC0 MapperKind = iota
	KindMBC1
	KindMBC5
)

func (k MapperKind) String() string {
	switch k {
	case KindMBC0:
		return "MBC0"
	case KindMBC1:
		return "MBC1"
	case KindMBC5:
		return "MBC5"
	}
	return "unknown"
}

// Mapper is a memory bank controller. Writes to ROM addresses program the controller
// instead of storing data.
//
// The set of controllers is closed: the unexported methods keep implementations
// inside this package and Kind() lets callers switch over them exhaustively.
type Mapper interface {
	Kind() MapperKind
	RomRead(addr uint16) uint8
	RomWrite(addr uint16, value uint8)
	RamRead(addr uint16) uint8
	RamWrite(addr uint16, value uint8)

	save(encoder *gob.Encoder)
	load(decoder *gob.Decoder) error
}

// NewMapper selects the controller named by the cartridge type byte at 0x0147.
func NewMapper(cartridgeType uint8, rom, ram []byte) (Mapper, error) {
	switch {
	case cartridgeType == 0x00:
		return &MBC0{rom: rom}, nil
	case 0x01 <= cartridgeType && cartridgeType <= 0x03:
		return MakeMBC1(rom, ram), nil
	case 0x19 <= cartridgeType && cartridgeType <= 0x1E:
		return MakeMBC5(rom, ram), nil
	}
	return nil, UnsupportedControllerError{Code: cartridgeType}
}

func mapRomAddress(bank uint16, addr uint16) int {
	return int(bank)*ROM_BANK_SIZE + int(addr-ROM_BANK_START)
}

func mapRamAddress(bank uint8, addr uint16) int {
	return int(bank)*RAM_BANK_SIZE + int(addr-RAM_START)
}

func readAt(data []byte, off int) uint8 {
	if off < 0 || off >= len(data) {
		return 0xFF
	}
	return data[off]
}

func writeAt(data []byte, off int, value uint8) {
	if off < 0 || off >= len(data) {
		return
	}
	data[off] = value
}

// the RAM enable latch is set by any value with 0xA in the low nibble
func ramEnableValue(value uint8) bool {
	return value&0x0F == 0x0A
}

func decodeAll(decoder *gob.Decoder, values ...any) error {
	for _, v := range values {
		if err := decoder.Decode(v); err != nil {
			return err
		}
	}
	return nil
}
