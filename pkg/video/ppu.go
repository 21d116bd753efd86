package video

import (
	"encoding/gob"
	"fmt"
)

type PpuMode uint8

const (
	HBLANK   PpuMode = 0
	VBLANK   PpuMode = 1
	OAM_SCAN PpuMode = 2
	DRAW     PpuMode = 3
)

func (m PpuMode) String() string {
	switch m {
	case HBLANK:
		return "HBlank"
	case VBLANK:
		return "VBlank"
	case OAM_SCAN:
		return "OamScan"
	}
	return "Draw"
}

const (
	DOTS_OAM_SCAN   int = 80
	DOTS_DRAW_MIN   int = 172
	DOTS_HBLANK_MAX int = 204
	DOTS_SCANLINE   int = 456
	DOTS_VBLANK     int = 4560

	FIRST_VBLANK_LINE uint8 = 144
	LINE_COUNT        uint8 = 154
)

const (
	MAX_SPRITES int = 10
	OAM_SIZE    int = 0xA0
	VRAM_SIZE   int = 0x2000
)

const (
	TILE_SET_ZERO_ADDRESS uint16 = 0x8000
	TILE_SET_ONE_ADDRESS  uint16 = 0x8800
	TILE_MAP_ZERO_ADDRESS uint16 = 0x9800
	TILE_MAP_ONE_ADDRESS  uint16 = 0x9C00
	TILE_BYTES            int    = 16
	SPRITE_BYTES          int    = 4
)

// Status register bits.
const (
	STAT_MODE        uint8 = 0x03
	STAT_LYC_EQUAL   uint8 = 0x04
	STAT_HBLANK_INT  uint8 = 0x08
	STAT_VBLANK_INT  uint8 = 0x10
	STAT_OAM_INT     uint8 = 0x20
	STAT_LYC_INT     uint8 = 0x40
	statHardwareBits       = STAT_MODE | STAT_LYC_EQUAL
)

// Ppu is the timing side of the picture processor. It follows the mode state machine
// dot by dot and produces the VBlank and Stat interrupt signals. No pixels are drawn.
type Ppu struct {
	VRAM     [][VRAM_SIZE]uint8
	VRAMBank uint8
	OamRAM   [OAM_SIZE]uint8

	// CGB Palette RAM
	CRAMBg         [0x40]uint8
	CRAMBgAddr     uint8
	CRAMBgAutoInc  bool
	CRAMObj        [0x40]uint8
	CRAMObjAddr    uint8
	CRAMObjAutoInc bool

	STAT, LCDC uint8
	SCY, SCX   uint8
	LY, LYC    uint8
	WY, WX     uint8
	BGP        uint8
	OBP0, OBP1 uint8

	Mode          PpuMode
	TotalDots     int
	RemainingDots int
	FrameCount    int

	// 1 at normal speed, 2 in CGB double speed mode
	SpeedMultiplier int

	// interrupt request lines
	VBlankSignal bool
	StatSignal   bool

	statLine bool
}

func MakePpu(color bool) *Ppu {
	banks := 1
	if color {
		banks = 2
	}
	ppu := &Ppu{
		VRAM:            make([][VRAM_SIZE]uint8, banks),
		LCDC:            0x91,
		BGP:             0xFC,
		SpeedMultiplier: 1,
	}
	ppu.enter(OAM_SCAN, 0)
	ppu.setCoincidenceFlag(true)
	return ppu
}

func panicIfErr(err error) {
	if err != nil {
		panic(err)
	}
}

func (ppu *Ppu) Save(encoder *gob.Encoder) {
	panicIfErr(encoder.Encode(ppu.VRAM))
	panicIfErr(encoder.Encode(ppu.VRAMBank))
	panicIfErr(encoder.Encode(ppu.OamRAM))
	panicIfErr(encoder.Encode(ppu.CRAMBg))
	panicIfErr(encoder.Encode(ppu.CRAMBgAddr))
	panicIfErr(encoder.Encode(ppu.CRAMBgAutoInc))
	panicIfErr(encoder.Encode(ppu.CRAMObj))
	panicIfErr(encoder.Encode(ppu.CRAMObjAddr))
	panicIfErr(encoder.Encode(ppu.CRAMObjAutoInc))
	panicIfErr(encoder.Encode([10]uint8{ppu.STAT, ppu.LCDC, ppu.SCY, ppu.SCX, ppu.LY, ppu.LYC, ppu.WY, ppu.WX, ppu.BGP, ppu.OBP0}))
	panicIfErr(encoder.Encode(ppu.OBP1))
	panicIfErr(encoder.Encode(ppu.Mode))
	panicIfErr(encoder.Encode([4]int{ppu.TotalDots, ppu.RemainingDots, ppu.FrameCount, ppu.SpeedMultiplier}))
	panicIfErr(encoder.Encode([3]bool{ppu.VBlankSignal, ppu.StatSignal, ppu.statLine}))
}

func (ppu *Ppu) Load(decoder *gob.Decoder) error {
	var vram [][VRAM_SIZE]uint8
	var regs [10]uint8
	var counters [4]int
	var signals [3]bool
	errs := []error{
		decoder.Decode(&vram),
		decoder.Decode(&ppu.VRAMBank),
		decoder.Decode(&ppu.OamRAM),
		decoder.Decode(&ppu.CRAMBg),
		decoder.Decode(&ppu.CRAMBgAddr),
		decoder.Decode(&ppu.CRAMBgAutoInc),
		decoder.Decode(&ppu.CRAMObj),
		decoder.Decode(&ppu.CRAMObjAddr),
		decoder.Decode(&ppu.CRAMObjAutoInc),
		decoder.Decode(&regs),
		decoder.Decode(&ppu.OBP1),
		decoder.Decode(&ppu.Mode),
		decoder.Decode(&counters),
		decoder.Decode(&signals),
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	switch {
	case len(vram) != len(ppu.VRAM):
		return fmt.Errorf("state has %d VRAM banks, expected %d", len(vram), len(ppu.VRAM))
	case int(ppu.VRAMBank) >= len(vram):
		return fmt.Errorf("VRAM bank %d out of range", ppu.VRAMBank)
	case ppu.Mode > DRAW:
		return fmt.Errorf("invalid PPU mode %d", ppu.Mode)
	case counters[3] != 1 && counters[3] != 2:
		return fmt.Errorf("invalid speed multiplier %d", counters[3])
	}
	ppu.VRAM = vram
	ppu.STAT, ppu.LCDC, ppu.SCY, ppu.SCX, ppu.LY = regs[0], regs[1], regs[2], regs[3], regs[4]
	ppu.LYC, ppu.WY, ppu.WX, ppu.BGP, ppu.OBP0 = regs[5], regs[6], regs[7], regs[8], regs[9]
	ppu.TotalDots, ppu.RemainingDots, ppu.FrameCount, ppu.SpeedMultiplier = counters[0], counters[1], counters[2], counters[3]
	ppu.VBlankSignal, ppu.StatSignal, ppu.statLine = signals[0], signals[1], signals[2]
	return nil
}

// LCDC Values
func (ppu *Ppu) DisplayEnabled() bool {
	return (ppu.LCDC>>7)&1 != 0
}

func (ppu *Ppu) WindowTileMap() bool {
	return (ppu.LCDC>>6)&1 != 0
}

func (ppu *Ppu) WindowEnabled() bool {
	return (ppu.LCDC>>5)&1 != 0
}

func (ppu *Ppu) BgWindowTileData() bool {
	return (ppu.LCDC>>4)&1 != 0
}

func (ppu *Ppu) BgTileMapDisplay() bool {
	return (ppu.LCDC>>3)&1 != 0
}

func (ppu *Ppu) SpriteSize() bool {
	return (ppu.LCDC>>2)&1 != 0
}

func (ppu *Ppu) SpritesEnabled() bool {
	return (ppu.LCDC>>1)&1 != 0
}

func (ppu *Ppu) BgEnabled() bool {
	return ppu.LCDC&1 != 0
}

func (ppu *Ppu) setMode(mode PpuMode) {
	ppu.Mode = mode & 3
	ppu.STAT &= ^STAT_MODE
	ppu.STAT |= uint8(ppu.Mode)
}

func (ppu *Ppu) setCoincidenceFlag(value bool) {
	ppu.STAT &= ^STAT_LYC_EQUAL
	if value {
		ppu.STAT |= STAT_LYC_EQUAL
	}
}

// WriteStatus stores the interrupt source enables. Mode and LYC=LY bits belong to
// the hardware.
func (ppu *Ppu) WriteStatus(value uint8) {
	ppu.STAT = ppu.STAT&statHardwareBits | value&^statHardwareBits
}

func (ppu *Ppu) ReadStatus() uint8 {
	return ppu.STAT | 0x80
}

// WriteControl stores LCDC. Turning the display off parks the machine in HBlank on
// line 0; turning it back on restarts from the OAM scan of line 0.
func (ppu *Ppu) WriteControl(value uint8) {
	wasEnabled := ppu.DisplayEnabled()
	ppu.LCDC = value

	switch {
	case wasEnabled && !ppu.DisplayEnabled():
		ppu.LY = 0
		ppu.setMode(HBLANK)
		ppu.TotalDots, ppu.RemainingDots = 0, 0
		ppu.VBlankSignal, ppu.StatSignal, ppu.statLine = false, false, false
	case !wasEnabled && ppu.DisplayEnabled():
		ppu.LY = 0
		ppu.enter(OAM_SCAN, 0)
	}
	ppu.setCoincidenceFlag(ppu.LY == ppu.LYC)
}

func (ppu *Ppu) ReadVRam(addr uint16) uint8 {
	return ppu.VRAM[ppu.VRAMBank][addr]
}

func (ppu *Ppu) WriteVRam(addr uint16, value uint8) {
	ppu.VRAM[ppu.VRAMBank][addr] = value
}

// SelectVRAMBank is a no-op on machines with a single bank.
func (ppu *Ppu) SelectVRAMBank(value uint8) {
	if len(ppu.VRAM) > 1 {
		ppu.VRAMBank = value & 1
	}
}

func (ppu *Ppu) ReadOam(addr uint16) uint8 {
	return ppu.OamRAM[addr]
}

func (ppu *Ppu) WriteOam(addr uint16, value uint8) {
	ppu.OamRAM[addr] = value
}

func (ppu *Ppu) SetCRamBgAddr(addr uint8) {
	ppu.CRAMBgAutoInc = (addr>>7)&1 != 0
	ppu.CRAMBgAddr = addr & 0x3f
}

func (ppu *Ppu) SetCRAMObjAddr(addr uint8) {
	ppu.CRAMObjAutoInc = (addr>>7)&1 != 0
	ppu.CRAMObjAddr = addr & 0x3f
}

func (ppu *Ppu) ReadCRamBg() uint8 {
	return ppu.CRAMBg[ppu.CRAMBgAddr]
}

func (ppu *Ppu) WriteCRamBg(value uint8) {
	ppu.CRAMBg[ppu.CRAMBgAddr] = value
	if ppu.CRAMBgAutoInc {
		ppu.CRAMBgAddr = (ppu.CRAMBgAddr + 1) & 0x3f
	}
}

func (ppu *Ppu) ReadCRamObj() uint8 {
	return ppu.CRAMObj[ppu.CRAMObjAddr]
}

func (ppu *Ppu) WriteCRamObj(value uint8) {
	ppu.CRAMObj[ppu.CRAMObjAddr] = value
	if ppu.CRAMObjAutoInc {
		ppu.CRAMObjAddr = (ppu.CRAMObjAddr + 1) & 0x3f
	}
}

// drawPenalty is the number of dots the draw mode of the current line lasts beyond
// its minimum: the fine scroll discard plus a fixed cost per sprite on the line.
func (ppu *Ppu) drawPenalty() int {
	penalty := int(ppu.SCX & 7)
	if !ppu.SpritesEnabled() {
		return penalty
	}

	height := 8
	if ppu.SpriteSize() {
		height = 16
	}
	count := 0
	for i := 0; i < OAM_SIZE && count < MAX_SPRITES; i += SPRITE_BYTES {
		y := int(ppu.OamRAM[i]) - 16
		if y <= int(ppu.LY) && int(ppu.LY) < y+height {
			count++
		}
	}
	return penalty + count*6
}

// duration of the mode being entered, previous is the budget of the mode being left
func (ppu *Ppu) duration(mode PpuMode, previous int) int {
	switch mode {
	case OAM_SCAN:
		return DOTS_OAM_SCAN
	case DRAW:
		return DOTS_DRAW_MIN + ppu.drawPenalty()
	case HBLANK:
		return DOTS_HBLANK_MAX - (previous - DOTS_DRAW_MIN)
	}
	return DOTS_VBLANK / int(LINE_COUNT-FIRST_VBLANK_LINE)
}

func (ppu *Ppu) enter(mode PpuMode, overflow int) {
	ppu.setMode(mode)
	ppu.TotalDots = ppu.duration(mode, ppu.TotalDots)
	ppu.RemainingDots = ppu.TotalDots - overflow
}

// next moves to the following mode once the budget of the current one is spent. It
// returns true when the frame's first VBlank line is entered.
func (ppu *Ppu) next(overflow int) bool {
	switch ppu.Mode {
	case OAM_SCAN:
		ppu.enter(DRAW, overflow)
	case DRAW:
		ppu.enter(HBLANK, overflow)
	case HBLANK:
		ppu.LY++
		if ppu.LY == FIRST_VBLANK_LINE {
			ppu.enter(VBLANK, overflow)
			ppu.FrameCount++
			return true
		}
		ppu.enter(OAM_SCAN, overflow)
	case VBLANK:
		ppu.LY++
		if ppu.LY == LINE_COUNT {
			ppu.LY = 0
			ppu.enter(OAM_SCAN, overflow)
		} else {
			ppu.enter(VBLANK, overflow)
		}
	}
	return false
}

func (ppu *Ppu) modeSource() bool {
	switch ppu.Mode {
	case HBLANK:
		return ppu.STAT&STAT_HBLANK_INT != 0
	case VBLANK:
		return ppu.STAT&STAT_VBLANK_INT != 0
	case OAM_SCAN:
		return ppu.STAT&STAT_OAM_INT != 0
	}
	return false
}

// Process advances the machine by the given number of dots at normal speed. Dots
// left over when a mode ends are charged to the next one.
//
// VBlankSignal rises when line 144 is entered and stays up until VBlank ends or the
// interrupt is acknowledged. StatSignal rises on a rising edge of the combined Stat
// sources and stays up until the sources drop or the interrupt is acknowledged, so a
// source that stays active never fires twice.
func (ppu *Ppu) Process(dots int) {
	if !ppu.DisplayEnabled() {
		ppu.VBlankSignal, ppu.StatSignal = false, false
		return
	}

	ppu.RemainingDots -= dots / ppu.SpeedMultiplier
	for ppu.RemainingDots <= 0 {
		if ppu.next(-ppu.RemainingDots) {
			ppu.VBlankSignal = true
		}
	}
	if ppu.Mode != VBLANK {
		ppu.VBlankSignal = false
	}

	ppu.setCoincidenceFlag(ppu.LY == ppu.LYC)

	line := ppu.modeSource() || (ppu.STAT&STAT_LYC_INT != 0 && ppu.LY == ppu.LYC)
	if line && !ppu.statLine {
		ppu.StatSignal = true
	} else if !line {
		ppu.StatSignal = false
	}
	ppu.statLine = line
}

// AcknowledgeVBlank drops the VBlank request once the interrupt has been taken.
func (ppu *Ppu) AcknowledgeVBlank() {
	ppu.VBlankSignal = false
}

// AcknowledgeStat drops the Stat request once the interrupt has been taken. It is
// raised again only by a new rising edge.
func (ppu *Ppu) AcknowledgeStat() {
	ppu.StatSignal = false
}

// StatLine reports the level of the combined Stat interrupt sources.
func (ppu *Ppu) StatLine() bool {
	return ppu.statLine
}
