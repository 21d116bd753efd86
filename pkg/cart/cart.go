package cart

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"strings"

	"gbcore/pkg/logger"
)

const (
	HeaderOffset = 0x0100
	HeaderSize   = 0x50

	ROM_BANK_SIZE = 0x4000
	RAM_BANK_SIZE = 0x2000

	// MBC5 can address 512 ROM banks.
	MAX_ROM_SIZE = 512 * ROM_BANK_SIZE
)

type Header struct {
	EntryCode        [4]uint8  // 0100h - 0103h
	NintendoLogo     [48]uint8 // 0104h - 0133h
	GameTitle        [11]uint8 // 0134h - 013Eh Length of 16 in older ROMS (ManufacturerCode and CgbFlag included)
	ManufacturerCode [4]uint8  // 013Fh - 0142h
	CgbFlag          uint8     // 0143h
	LicenseeCode     [2]uint8  // 0144h - 0145h
	SgbFlag          uint8     // 0146h
	CartridgeType    uint8     // 0147h
	RomSize          uint8     // 0148h
	RamSize          uint8     // 0149h
	DestinationCode  uint8     // 014Ah
	OldLicenseeCode  uint8     // 014Bh
	RomVersionNumber uint8     // 014Ch
	HeaderChecksum   uint8     // 014Dh
	GlobalChecksum   uint16    // 014Eh - 014Fh
}

type ColorSupport uint8

const (
	ColorUnsupported ColorSupport = iota
	ColorCompatible
	ColorOnly
)

func (c ColorSupport) String() string {
	switch c {
	case ColorCompatible:
		return "CGB compatible"
	case ColorOnly:
		return "CGB only"
	}
	return "DMG"
}

func (h *Header) Color() ColorSupport {
	switch h.CgbFlag {
	case 0x80:
		return ColorCompatible
	case 0xC0:
		return ColorOnly
	}
	return ColorUnsupported
}

// Title is 16 bytes long on cartridges without color support, 11 otherwise. It stops
// at the first null byte.
func (h *Header) Title() string {
	raw := make([]byte, 0, 16)
	raw = append(raw, h.GameTitle[:]...)
	if h.CgbFlag&0x80 == 0 {
		raw = append(raw, h.ManufacturerCode[:]...)
		raw = append(raw, h.CgbFlag)
	}
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(string(raw))
}

// Licensee is the two character new licensee code when the old field holds 0x33,
// the old code in hex otherwise.
func (h *Header) Licensee() string {
	if h.OldLicenseeCode == 0x33 {
		return string(h.LicenseeCode[:])
	}
	return fmt.Sprintf("%02X", h.OldLicenseeCode)
}

func (h *Header) SGB() bool {
	return h.SgbFlag == 0x03
}

// RAMBytes decodes the external RAM size code.
func (h *Header) RAMBytes() (int, error) {
	switch h.RamSize {
	case 0:
		return 0, nil
	case 1:
		return 0x800, nil
	case 2:
		return 0x2000, nil
	case 3:
		return 0x8000, nil
	case 4:
		return 0x20000, nil
	case 5:
		return 0x10000, nil
	}
	return 0, UnsupportedRAMSizeError{Code: h.RamSize}
}

type Cart struct {
	Header Header
	Map    Mapper

	rom []byte
	ram []byte
}

func parseHeader(rom []byte) (Header, error) {
	var h Header
	if len(rom) < HeaderOffset+HeaderSize {
		return h, ErrRomTooSmall
	}
	err := binary.Read(bytes.NewReader(rom[HeaderOffset:HeaderOffset+HeaderSize]), binary.BigEndian, &h)
	return h, err
}

// LoadCartridge parses the header of a ROM image and builds the memory bank
// controller it asks for. The controller never changes afterwards.
func LoadCartridge(rom []byte) (*Cart, error) {
	if len(rom) > MAX_ROM_SIZE {
		return nil, ErrRomTooLarge
	}
	header, err := parseHeader(rom)
	if err != nil {
		return nil, err
	}
	ramSize, err := header.RAMBytes()
	if err != nil {
		return nil, err
	}

	res := &Cart{
		Header: header,
		rom:    rom,
		ram:    make([]byte, ramSize),
	}
	res.Map, err = NewMapper(header.CartridgeType, res.rom, res.ram)
	if err != nil {
		return nil, err
	}

	logger.Logf("cart", "%q %s licensee=%s sgb=%v version=%d mapper=%s rom=%dKB ram=%dKB",
		header.Title(), header.Color(), header.Licensee(), header.SGB(),
		header.RomVersionNumber, res.Map.Kind(), len(rom)/1024, ramSize/1024)
	return res, nil
}

func (cart *Cart) Title() string {
	return cart.Header.Title()
}

func (cart *Cart) ROM() []byte {
	return cart.rom
}

// RAM is the external RAM as stored in a .sav file. The slice is shared with the
// controller.
func (cart *Cart) RAM() []byte {
	return cart.ram
}

// LoadRAM restores the external RAM from a .sav file.
func (cart *Cart) LoadRAM(data []byte) error {
	if len(data) != len(cart.ram) {
		return CartError(fmt.Sprintf("invalid SAV file: %d bytes, expected %d", len(data), len(cart.ram)))
	}
	copy(cart.ram, data)
	return nil
}

func panicIfErr(err error) {
	if err != nil {
		panic(err)
	}
}

func (cart *Cart) Save(encoder *gob.Encoder) {
	panicIfErr(encoder.Encode(cart.ram))
	cart.Map.save(encoder)
}

func (cart *Cart) Load(decoder *gob.Decoder) error {
	var ram []byte
	if err := decoder.Decode(&ram); err != nil {
		return err
	}
	if err := cart.LoadRAM(ram); err != nil {
		return err
	}
	return cart.Map.load(decoder)
}
