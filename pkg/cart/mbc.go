package cart

import "encoding/gob"

// MBC0 is a plain 32KB ROM without external RAM.
type MBC0 struct {
	rom []byte
}

func (m *MBC0) Kind() MapperKind { return KindMBC0 }

func (m *MBC0) RomRead(addr uint16) uint8 {
	return readAt(m.rom, int(addr))
}

func (m *MBC0) RomWrite(addr uint16, value uint8) {}

func (m *MBC0) RamRead(addr uint16) uint8 {
	return 0xFF
}

func (m *MBC0) RamWrite(addr uint16, value uint8) {}

func (m *MBC0) save(encoder *gob.Encoder) {}

func (m *MBC0) load(decoder *gob.Decoder) error {
	return nil
}

// MBC1 has a 5-bit ROM bank register and a 2-bit register that holds either the high
// ROM bank bits or, in advanced mode, the RAM bank.
type MBC1 struct {
	rom []byte
	ram []byte

	RomBank    uint8
	UpperBits  uint8
	RamEnabled bool
	Advanced   bool
}

func MakeMBC1(rom, ram []byte) *MBC1 {
	return &MBC1{rom: rom, ram: ram, RomBank: 1}
}

func (m *MBC1) Kind() MapperKind { return KindMBC1 }

// ramBanking is true when the upper bits select a RAM bank. Carts with less than one
// full RAM bank keep using them as ROM bits.
func (m *MBC1) ramBanking() bool {
	return m.Advanced && len(m.ram) >= RAM_BANK_SIZE
}

func (m *MBC1) CurrentRomBank() uint16 {
	if m.ramBanking() {
		return uint16(m.RomBank)
	}
	return uint16(m.UpperBits)<<5 | uint16(m.RomBank)
}

func (m *MBC1) CurrentRamBank() uint8 {
	if m.ramBanking() {
		return m.UpperBits
	}
	return 0
}

func (m *MBC1) RomRead(addr uint16) uint8 {
	if addr < ROM_BANK_START {
		return readAt(m.rom, int(addr))
	}
	return readAt(m.rom, mapRomAddress(m.CurrentRomBank(), addr))
}

func (m *MBC1) RomWrite(addr uint16, value uint8) {
	switch {
	case addr <= 0x1FFF:
		m.RamEnabled = ramEnableValue(value)
	case addr <= 0x3FFF:
		m.RomBank = value & 0x1F
		if m.RomBank == 0 {
			m.RomBank = 1
		}
	case addr <= 0x5FFF:
		m.UpperBits = value & 0x03
	case addr <= 0x7FFF:
		m.Advanced = value&1 == 1
	}
}

func (m *MBC1) RamRead(addr uint16) uint8 {
	if !m.RamEnabled {
		return 0xFF
	}
	return readAt(m.ram, mapRamAddress(m.CurrentRamBank(), addr))
}

func (m *MBC1) RamWrite(addr uint16, value uint8) {
	if !m.RamEnabled {
		return
	}
	writeAt(m.ram, mapRamAddress(m.CurrentRamBank(), addr), value)
}

func (m *MBC1) save(encoder *gob.Encoder) {
	panicIfErr(encoder.Encode(m.RomBank))
	panicIfErr(encoder.Encode(m.UpperBits))
	panicIfErr(encoder.Encode(m.RamEnabled))
	panicIfErr(encoder.Encode(m.Advanced))
}

func (m *MBC1) load(decoder *gob.Decoder) error {
	return decodeAll(decoder, &m.RomBank, &m.UpperBits, &m.RamEnabled, &m.Advanced)
}

// MBC5 has a 9-bit ROM bank register split over two write windows and a 4-bit RAM
// bank register. Bank 0 can be mapped at 0x4000.
type MBC5 struct {
	rom []byte
	ram []byte

	RomBank    uint16
	RamBank    uint8
	RamEnabled bool
}

func MakeMBC5(rom, ram []byte) *MBC5 {
	return &MBC5{rom: rom, ram: ram, RomBank: 1}
}

func (m *MBC5) Kind() MapperKind { return KindMBC5 }

func (m *MBC5) RomRead(addr uint16) uint8 {
	if addr < ROM_BANK_START {
		return readAt(m.rom, int(addr))
	}
	return readAt(m.rom, mapRomAddress(m.RomBank, addr))
}

func (m *MBC5) RomWrite(addr uint16, value uint8) {
	switch {
	case addr <= 0x1FFF:
		m.RamEnabled = ramEnableValue(value)
	case addr <= 0x2FFF:
		m.RomBank = m.RomBank&0x100 | uint16(value)
	case addr <= 0x3FFF:
		m.RomBank = m.RomBank&0xFF | uint16(value&1)<<8
	case addr <= 0x5FFF:
		m.RamBank = value & 0x0F
	}
}

func (m *MBC5) RamRead(addr uint16) uint8 {
	if !m.RamEnabled {
		return 0xFF
	}
	return readAt(m.ram, mapRamAddress(m.RamBank, addr))
}

func (m *MBC5) RamWrite(addr uint16, value uint8) {
	if !m.RamEnabled {
		return
	}
	writeAt(m.ram, mapRamAddress(m.RamBank, addr), value)
}

func (m *MBC5) save(encoder *gob.Encoder) {
	panicIfErr(encoder.Encode(m.RomBank))
	panicIfErr(encoder.Encode(m.RamBank))
	panicIfErr(encoder.Encode(m.RamEnabled))
}

func (m *MBC5) load(decoder *gob.Decoder) error {
	return decodeAll(decoder, &m.RomBank, &m.RamBank, &m.RamEnabled)
}
