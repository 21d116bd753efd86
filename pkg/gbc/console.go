// Package gbc ties the CPU, cartridge, PPU and I/O together into a console that runs
// one instruction per Step.
package gbc

import (
	"fmt"

	"gbcore/pkg/cart"
	"gbcore/pkg/cpu"
	"gbcore/pkg/instr"
	"gbcore/pkg/logger"
	"gbcore/pkg/video"
)

const GBCPU_FREQ = 4194304

// Options configure MakeConsoleWithOptions. The zero value is what MakeConsole
// uses.
type Options struct {
	// Inspector receives decoded instructions and step markers.
	Inspector *Inspector

	// DisableBootState starts with cleared registers instead of the values the
	// boot ROM leaves behind. PC and SP still start at 0x0100 and 0xFFFE.
	DisableBootState bool

	// Verbose logs accesses to unhandled I/O registers.
	Verbose bool
}

type Console struct {
	Cart   *cart.Cart
	CPU    *cpu.GBCpu
	PPU    *video.Ppu
	DMA    *Dma
	Timer  *Timer
	Input  *Joypad
	Serial *Serial

	CGBMode bool

	// Memory
	WorkRAM *Bank
	IOMem   [0x80]byte
	HighRAM [0x7F]byte

	// IE is the interrupt enable register at 0xFFFF.
	IE      uint8
	pending uint8

	// CGB Registers
	SpeedSwitch     uint8
	DoubleSpeedMode bool

	inspector *Inspector
	// instrEnd is the address following the instruction being executed.
	instrEnd uint16

	Verbose bool
}

func MakeConsole(rom []byte) (*Console, error) {
	return MakeConsoleWithOptions(rom, Options{})
}

func MakeConsoleWithOptions(rom []byte, opts Options) (*Console, error) {
	c, err := cart.LoadCartridge(rom)
	if err != nil {
		return nil, fmt.Errorf("loading cartridge: %w", err)
	}

	color := c.Header.Color() != cart.ColorUnsupported
	banks := 2
	if color {
		banks = 8
	}
	res := &Console{
		Cart:      c,
		CPU:       cpu.MakeGBCpu(),
		PPU:       video.MakePpu(color),
		CGBMode:   color,
		WorkRAM:   MakeBank(banks),
		inspector: opts.Inspector,
		Verbose:   opts.Verbose,
	}
	res.DMA = MakeDma(res)
	res.Timer = MakeTimer(res)
	res.Input = MakeJoypad(res)
	res.Serial = MakeSerial(res)

	if opts.DisableBootState {
		res.CPU.SP = 0xFFFE
		res.CPU.PC = 0x0100
	} else {
		res.CPU.Reset(color)
	}
	return res, nil
}

func (cons *Console) unhandled(format string, args ...any) {
	if cons.Verbose {
		logger.Logf("io", format, args...)
	}
}

func (cons *Console) readIO(addr uint16) uint8 {
	switch {
	case addr == 0xFF00:
		return cons.Input.PackButtons()
	case addr == 0xFF01:
		return cons.Serial.SB
	case addr == 0xFF02:
		return cons.Serial.SC
	case addr == 0xFF04:
		return cons.Timer.DIV()
	case addr == 0xFF05:
		return cons.Timer.TIMA
	case addr == 0xFF06:
		return cons.Timer.TMA
	case addr == 0xFF07:
		return cons.Timer.TAC | 0xF8
	case addr == 0xFF0F:
		return cons.pending | 0xE0
	case addr == 0xFF40:
		return cons.PPU.LCDC
	case addr == 0xFF41:
		return cons.PPU.ReadStatus()
	case addr == 0xFF42:
		return cons.PPU.SCY
	case addr == 0xFF43:
		return cons.PPU.SCX
	case addr == 0xFF44:
		return cons.PPU.LY
	case addr == 0xFF45:
		return cons.PPU.LYC
	case addr == 0xFF46:
		return cons.DMA.OamSource
	case addr == 0xFF47:
		return cons.PPU.BGP
	case addr == 0xFF48:
		return cons.PPU.OBP0
	case addr == 0xFF49:
		return cons.PPU.OBP1
	case addr == 0xFF4A:
		return cons.PPU.WY
	case addr == 0xFF4B:
		return cons.PPU.WX
	case addr == 0xFF4D:
		// CGB Only Register
		if !cons.CGBMode {
			return 0xFF
		}
		return cons.SpeedSwitch | 0x7E
	case addr == 0xFF4F:
		// CGB Only Register
		if !cons.CGBMode {
			return 0xFF
		}
		return cons.PPU.VRAMBank | 0xFE
	case addr == 0xFF55:
		// CGB Only Register
		if !cons.CGBMode {
			return 0xFF
		}
		return cons.DMA.Control()
	case addr == 0xFF68:
		return cons.PPU.CRAMBgAddr | boolBit(cons.PPU.CRAMBgAutoInc, 7)
	case addr == 0xFF69:
		// CGB Only Register
		return cons.PPU.ReadCRamBg()
	case addr == 0xFF6A:
		return cons.PPU.CRAMObjAddr | boolBit(cons.PPU.CRAMObjAutoInc, 7)
	case addr == 0xFF6B:
		// CGB Only Register
		return cons.PPU.ReadCRamObj()
	case addr == 0xFF70:
		// CGB Only Register
		if !cons.CGBMode {
			return 0xFF
		}
		return cons.WorkRAM.Selected() | 0xF8
	default:
		cons.unhandled("unhandled read @ %04x", addr)
	}
	return cons.IOMem[addr&0x7F]
}

func (cons *Console) writeIO(addr uint16, value uint8) {
	switch {
	case addr == 0xFF00:
		cons.Input.WriteSelect(value)
	case addr == 0xFF01:
		cons.Serial.SB = value
	case addr == 0xFF02:
		cons.Serial.WriteControl(value)
	case addr == 0xFF04:
		cons.Timer.ResetDiv()
	case addr == 0xFF05:
		cons.Timer.TIMA = value
	case addr == 0xFF06:
		cons.Timer.TMA = value
	case addr == 0xFF07:
		cons.Timer.WriteControl(value)
	case addr == 0xFF0F:
		cons.writeInterruptFlags(value)
	case addr == 0xFF40:
		cons.PPU.WriteControl(value)
	case addr == 0xFF41:
		cons.PPU.WriteStatus(value)
	case addr == 0xFF42:
		cons.PPU.SCY = value
	case addr == 0xFF43:
		cons.PPU.SCX = value
	case addr == 0xFF44:
		// LY is read only
	case addr == 0xFF45:
		cons.PPU.LYC = value
	case addr == 0xFF46:
		cons.DMA.StartOam(value)
	case addr == 0xFF47:
		cons.PPU.BGP = value
	case addr == 0xFF48:
		cons.PPU.OBP0 = value
	case addr == 0xFF49:
		cons.PPU.OBP1 = value
	case addr == 0xFF4A:
		cons.PPU.WY = value
	case addr == 0xFF4B:
		cons.PPU.WX = value
	case addr == 0xFF4D:
		// CGB Only Register
		if cons.CGBMode {
			cons.SpeedSwitch = cons.SpeedSwitch&0x80 | value&1
		}
	case addr == 0xFF4F:
		// CGB Only Register
		cons.PPU.SelectVRAMBank(value)
	case addr == 0xFF51:
		cons.DMA.SetSourceHi(value)
	case addr == 0xFF52:
		cons.DMA.SetSourceLo(value)
	case addr == 0xFF53:
		cons.DMA.SetDestHi(value)
	case addr == 0xFF54:
		cons.DMA.SetDestLo(value)
	case addr == 0xFF55:
		// CGB Only Register
		if cons.CGBMode {
			cons.DMA.WriteControl(value)
		}
	case addr == 0xFF68:
		// CGB Only Register
		cons.PPU.SetCRamBgAddr(value)
	case addr == 0xFF69:
		// CGB Only Register
		cons.PPU.WriteCRamBg(value)
	case addr == 0xFF6A:
		// CGB Only Register
		cons.PPU.SetCRAMObjAddr(value)
	case addr == 0xFF6B:
		// CGB Only Register
		cons.PPU.WriteCRamObj(value)
	case addr == 0xFF70:
		// CGB Only Register
		if cons.CGBMode {
			cons.WorkRAM.Select(value & 7)
		}
	default:
		cons.unhandled("unhandled write @ %04x <- %02x", addr, value)
		cons.IOMem[addr&0x7F] = value
	}
}

// writeInterruptFlags replaces the pending set. A cleared VBlank or Stat bit also
// drops the PPU signal behind it.
func (cons *Console) writeInterruptFlags(value uint8) {
	cons.pending = value & interruptBits
	for _, i := range []Interrupt{InterruptVBlank, InterruptStat} {
		if !cons.IsPending(i) {
			cons.acknowledge(i)
		}
	}
}

func boolBit(b bool, n uint) uint8 {
	if b {
		return 1 << n
	}
	return 0
}

func (cons *Console) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x7FFF:
		return cons.Cart.Map.RomRead(addr)
	case 0x8000 <= addr && addr <= 0x9FFF:
		return cons.PPU.ReadVRam(addr - 0x8000)
	case 0xA000 <= addr && addr <= 0xBFFF:
		return cons.Cart.Map.RamRead(addr)
	case 0xC000 <= addr && addr <= 0xDFFF:
		return cons.WorkRAM.Read(addr - 0xC000)
	case 0xE000 <= addr && addr <= 0xFDFF:
		return cons.Read(addr - 0x2000)
	case 0xFE00 <= addr && addr <= 0xFE9F:
		return cons.PPU.ReadOam(addr - 0xFE00)
	case 0xFEA0 <= addr && addr <= 0xFEFF:
		// Unusable memory
		return 0
	case 0xFF00 <= addr && addr <= 0xFF7F:
		return cons.readIO(addr)
	case 0xFF80 <= addr && addr <= 0xFFFE:
		return cons.HighRAM[addr-0xFF80]
	case addr == 0xFFFF:
		return cons.IE
	}
	panic(fmt.Sprintf("read outside the address map @ %04x", addr))
}

func (cons *Console) Write(addr uint16, value uint8) {
	switch {
	case addr <= 0x7FFF:
		cons.Cart.Map.RomWrite(addr, value)
	case 0x8000 <= addr && addr <= 0x9FFF:
		cons.PPU.WriteVRam(addr-0x8000, value)
	case 0xA000 <= addr && addr <= 0xBFFF:
		cons.Cart.Map.RamWrite(addr, value)
	case 0xC000 <= addr && addr <= 0xDFFF:
		cons.WorkRAM.Write(addr-0xC000, value)
	case 0xE000 <= addr && addr <= 0xFDFF:
		cons.Write(addr-0x2000, value)
	case 0xFE00 <= addr && addr <= 0xFE9F:
		cons.PPU.WriteOam(addr-0xFE00, value)
	case 0xFEA0 <= addr && addr <= 0xFEFF:
		// Unusable memory
	case 0xFF00 <= addr && addr <= 0xFF7F:
		cons.writeIO(addr, value)
	case 0xFF80 <= addr && addr <= 0xFFFE:
		cons.HighRAM[addr-0xFF80] = value
	case addr == 0xFFFF:
		cons.IE = value
	default:
		panic(fmt.Sprintf("write outside the address map @ %04x <- %02x", addr, value))
	}
}

// SerialOutput is everything the program has sent over the serial port.
func (cons *Console) SerialOutput() string {
	return cons.Serial.Output()
}

// SetButtons updates the buttons held down on the joypad.
func (cons *Console) SetButtons(state JoypadState) {
	cons.Input.SetButtons(state)
}

// TraceLine disassembles the instruction at PC and appends the register file and
// the PPU position.
func (cons *Console) TraceLine() string {
	text, _ := instr.Disassemble(cons.Read, cons.CPU.PC)
	return fmt.Sprintf("%-24s |%s IME=%v IE=%02x IF=%02x LY=%02x STAT=%02x",
		text, cons.CPU, cons.CPU.IME, cons.IE, cons.pending, cons.PPU.LY, cons.PPU.ReadStatus())
}
