package cart

import (
	"bytes"
	"encoding/gob"
	"errors"
	"testing"

	"gbcore/internal/test"
)

// makeROM returns an image of the given number of 16KB banks. Every byte of a bank
// holds the bank number.
func makeROM(banks int, cartridgeType, ramSize uint8) []byte {
	rom := make([]byte, banks*ROM_BANK_SIZE)
	for b := 0; b < banks; b++ {
		for i := 0; i < ROM_BANK_SIZE; i++ {
			rom[b*ROM_BANK_SIZE+i] = uint8(b)
		}
	}
	for i := 0x100; i < 0x150; i++ {
		rom[i] = 0
	}
	copy(rom[0x134:], "TESTCART")
	rom[0x147] = cartridgeType
	rom[0x149] = ramSize
	return rom
}

func TestHeader(t *testing.T) {
	rom := makeROM(2, 0x00, 0)
	copy(rom[0x134:], "ABCDEFGHIJKLMNOP")
	rom[0x14B] = 0x33
	copy(rom[0x144:], "01")
	rom[0x146] = 0x03
	rom[0x14C] = 2

	cart, err := LoadCartridge(rom)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, cart.Title(), "ABCDEFGHIJKLMNOP")
	test.ExpectEquality(t, cart.Header.Color(), ColorUnsupported)
	test.ExpectEquality(t, cart.Header.Licensee(), "01")
	test.ExpectEquality(t, cart.Header.SGB(), true)
	test.ExpectEquality(t, cart.Header.RomVersionNumber, uint8(2))

	rom[0x143] = 0xC0
	cart, err = LoadCartridge(rom)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, cart.Title(), "ABCDEFGHIJK")
	test.ExpectEquality(t, cart.Header.Color(), ColorOnly)

	rom[0x14B] = 0x01
	cart, err = LoadCartridge(rom)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, cart.Header.Licensee(), "01")
	test.ExpectEquality(t, cart.Header.Color().String(), "CGB only")
}

func TestTitleStopsAtNull(t *testing.T) {
	cart, err := LoadCartridge(makeROM(2, 0x00, 0))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, cart.Title(), "TESTCART")
}

func TestRAMSizes(t *testing.T) {
	sizes := map[uint8]int{0: 0, 1: 0x800, 2: 0x2000, 3: 0x8000, 4: 0x20000, 5: 0x10000}
	for code, size := range sizes {
		cart, err := LoadCartridge(makeROM(4, 0x03, code))
		test.DemandSuccess(t, err, code)
		test.ExpectEquality(t, len(cart.RAM()), size, code)
	}

	_, err := LoadCartridge(makeROM(4, 0x03, 6))
	var ramErr UnsupportedRAMSizeError
	test.ExpectSuccess(t, errors.As(err, &ramErr))
	test.ExpectEquality(t, ramErr.Code, uint8(6))
}

func TestControllerSelection(t *testing.T) {
	cases := map[uint8]MapperKind{
		0x00: KindMBC0,
		0x01: KindMBC1, 0x02: KindMBC1, 0x03: KindMBC1,
		0x19: KindMBC5, 0x1B: KindMBC5, 0x1E: KindMBC5,
	}
	for code, kind := range cases {
		cart, err := LoadCartridge(makeROM(4, code, 0))
		test.DemandSuccess(t, err, code)
		test.ExpectEquality(t, cart.Map.Kind(), kind, code)
	}

	for _, code := range []uint8{0x0F, 0x10, 0x13, 0x05, 0xFF} {
		_, err := LoadCartridge(makeROM(4, code, 0))
		var ctrlErr UnsupportedControllerError
		test.ExpectSuccess(t, errors.As(err, &ctrlErr), code)
		test.ExpectEquality(t, ctrlErr.Code, code)
	}
}

func TestRomSizeErrors(t *testing.T) {
	_, err := LoadCartridge(make([]byte, 0x100))
	test.ExpectSuccess(t, errors.Is(err, ErrRomTooSmall))

	_, err = LoadCartridge(make([]byte, MAX_ROM_SIZE+1))
	test.ExpectSuccess(t, errors.Is(err, ErrRomTooLarge))
}

func TestMBC0(t *testing.T) {
	rom := makeROM(2, 0x00, 0)
	rom = rom[:0x7000]
	cart, err := LoadCartridge(rom)
	test.DemandSuccess(t, err)

	test.ExpectEquality(t, cart.Map.RomRead(0x4000), uint8(1))
	test.ExpectEquality(t, cart.Map.RomRead(0x7FFF), uint8(0xFF))

	cart.Map.RomWrite(0x2000, 0x05)
	test.ExpectEquality(t, cart.Map.RomRead(0x4000), uint8(1))

	cart.Map.RamWrite(0xA000, 0x12)
	test.ExpectEquality(t, cart.Map.RamRead(0xA000), uint8(0xFF))
}

func TestMBC1BankZeroSelectsOne(t *testing.T) {
	cart, err := LoadCartridge(makeROM(8, 0x01, 0))
	test.DemandSuccess(t, err)

	cart.Map.RomWrite(0x2000, 0x00)
	test.ExpectEquality(t, cart.Map.RomRead(ROM_BANK_START), uint8(1))

	cart.Map.RomWrite(0x2000, 0x05)
	test.ExpectEquality(t, cart.Map.RomRead(ROM_BANK_START), cart.ROM()[5*ROM_BANK_SIZE])
	test.ExpectEquality(t, cart.Map.RomRead(ROM_BANK_START), uint8(5))

	// bank 0 stays fixed
	test.ExpectEquality(t, cart.Map.RomRead(0x0000), uint8(0))

	// only 5 bits are used, 0x20 is 0 and becomes 1
	cart.Map.RomWrite(0x3FFF, 0x20)
	test.ExpectEquality(t, cart.Map.RomRead(ROM_BANK_START), uint8(1))
}

func TestMBC1UpperBits(t *testing.T) {
	cart, err := LoadCartridge(makeROM(64, 0x01, 0))
	test.DemandSuccess(t, err)
	mbc := cart.Map.(*MBC1)

	cart.Map.RomWrite(0x2000, 0x02)
	cart.Map.RomWrite(0x4000, 0x01)
	test.ExpectEquality(t, mbc.CurrentRomBank(), uint16(0x22))
	test.ExpectEquality(t, cart.Map.RomRead(ROM_BANK_START), uint8(0x22))

	// without a full RAM bank the upper bits keep selecting ROM in advanced mode
	cart.Map.RomWrite(0x6000, 0x01)
	test.ExpectEquality(t, mbc.CurrentRomBank(), uint16(0x22))
}

func TestMBC1RAM(t *testing.T) {
	cart, err := LoadCartridge(makeROM(8, 0x03, 3))
	test.DemandSuccess(t, err)
	mbc := cart.Map.(*MBC1)

	// disabled RAM reads 0xFF and ignores writes
	cart.Map.RamWrite(0xA000, 0x42)
	test.ExpectEquality(t, cart.Map.RamRead(0xA000), uint8(0xFF))
	test.ExpectEquality(t, cart.RAM()[0], uint8(0))

	cart.Map.RomWrite(0x0000, 0x0A)
	cart.Map.RamWrite(0xA000, 0x42)
	test.ExpectEquality(t, cart.Map.RamRead(0xA000), uint8(0x42))

	// any value with 0xA in the low nibble enables RAM
	cart.Map.RomWrite(0x0000, 0x00)
	test.ExpectEquality(t, cart.Map.RamRead(0xA000), uint8(0xFF))
	cart.Map.RomWrite(0x1FFF, 0xFA)
	test.ExpectEquality(t, cart.Map.RamRead(0xA000), uint8(0x42))

	// advanced mode banks RAM
	cart.Map.RomWrite(0x6000, 0x01)
	cart.Map.RomWrite(0x4000, 0x02)
	test.ExpectEquality(t, mbc.CurrentRamBank(), uint8(2))
	test.ExpectEquality(t, mbc.CurrentRomBank(), uint16(1))
	cart.Map.RamWrite(0xA001, 0x99)
	test.ExpectEquality(t, cart.RAM()[2*RAM_BANK_SIZE+1], uint8(0x99))
}

func TestMBC1SmallRAM(t *testing.T) {
	cart, err := LoadCartridge(makeROM(4, 0x03, 1))
	test.DemandSuccess(t, err)

	cart.Map.RomWrite(0x0000, 0x0A)
	cart.Map.RamWrite(0xA7FF, 0x11)
	test.ExpectEquality(t, cart.Map.RamRead(0xA7FF), uint8(0x11))

	// past the 2KB of RAM
	cart.Map.RamWrite(0xA800, 0x22)
	test.ExpectEquality(t, cart.Map.RamRead(0xA800), uint8(0xFF))
}

func TestMBC5(t *testing.T) {
	cart, err := LoadCartridge(makeROM(300, 0x1B, 3))
	test.DemandSuccess(t, err)
	mbc := cart.Map.(*MBC5)

	test.ExpectEquality(t, cart.Map.RomRead(ROM_BANK_START), uint8(1))

	// bank 0 is addressable
	cart.Map.RomWrite(0x2000, 0x00)
	test.ExpectEquality(t, mbc.RomBank, uint16(0))
	test.ExpectEquality(t, cart.Map.RomRead(ROM_BANK_START), uint8(0))

	cart.Map.RomWrite(0x2000, 0x2A)
	cart.Map.RomWrite(0x3000, 0x01)
	test.ExpectEquality(t, mbc.RomBank, uint16(0x12A))
	test.ExpectEquality(t, cart.Map.RomRead(ROM_BANK_START), uint8(0x2A))
	test.ExpectEquality(t, cart.Map.RomRead(ROM_BANK_START+1), cart.ROM()[0x12A*ROM_BANK_SIZE+1])

	cart.Map.RomWrite(0x3000, 0x00)
	test.ExpectEquality(t, mbc.RomBank, uint16(0x2A))

	cart.Map.RomWrite(0x0000, 0x0A)
	cart.Map.RomWrite(0x4000, 0x13)
	test.ExpectEquality(t, mbc.RamBank, uint8(0x03))
	cart.Map.RamWrite(0xB000, 0x77)
	test.ExpectEquality(t, cart.RAM()[3*RAM_BANK_SIZE+0x1000], uint8(0x77))
}

func TestSaveLoad(t *testing.T) {
	rom := makeROM(8, 0x03, 2)
	cart, err := LoadCartridge(rom)
	test.DemandSuccess(t, err)

	cart.Map.RomWrite(0x0000, 0x0A)
	cart.Map.RomWrite(0x2000, 0x03)
	cart.Map.RamWrite(0xA010, 0x5A)

	var buf bytes.Buffer
	cart.Save(gob.NewEncoder(&buf))

	other, err := LoadCartridge(rom)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, other.Load(gob.NewDecoder(&buf)))

	test.ExpectEquality(t, other.Map.RomRead(ROM_BANK_START), uint8(3))
	test.ExpectEquality(t, other.Map.RamRead(0xA010), uint8(0x5A))
}

func TestLoadRAM(t *testing.T) {
	cart, err := LoadCartridge(makeROM(4, 0x03, 2))
	test.DemandSuccess(t, err)

	test.ExpectFailure(t, cart.LoadRAM(make([]byte, 10)))

	sav := make([]byte, 0x2000)
	sav[5] = 0xAB
	test.DemandSuccess(t, cart.LoadRAM(sav))
	cart.Map.RomWrite(0x0000, 0x0A)
	test.ExpectEquality(t, cart.Map.RamRead(0xA005), uint8(0xAB))
}
