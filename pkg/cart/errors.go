package cart

import "fmt"

type CartError string

func (err CartError) Error() string {
	return string(err)
}

const (
	ErrRomTooSmall CartError = "rom image is too small to hold a cartridge header"
	ErrRomTooLarge CartError = "rom image is larger than any supported controller can map"
)

type UnsupportedRAMSizeError struct {
	Code uint8
}

func (err UnsupportedRAMSizeError) Error() string {
	return fmt.Sprintf("unsupported RAM size code %02x", err.Code)
}

type UnsupportedControllerError struct {
	Code uint8
}

func (err UnsupportedControllerError) Error() string {
	if 0x0F <= err.Code && err.Code <= 0x13 {
		return fmt.Sprintf("unsupported controller type %02x (MBC3)", err.Code)
	}
	return fmt.Sprintf("unsupported controller type %02x", err.Code)
}
