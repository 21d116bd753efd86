package video

import (
	"bytes"
	"encoding/gob"
	"testing"

	"gbcore/internal/test"
)

// runLine advances one dot at a time until the line counter changes and returns the
// number of dots it took.
func runLine(ppu *Ppu) int {
	ly := ppu.LY
	dots := 0
	for ppu.LY == ly {
		ppu.Process(1)
		dots++
	}
	return dots
}

func TestInitialState(t *testing.T) {
	ppu := MakePpu(false)
	test.ExpectEquality(t, ppu.Mode, OAM_SCAN)
	test.ExpectEquality(t, ppu.TotalDots, DOTS_OAM_SCAN)
	test.ExpectEquality(t, ppu.RemainingDots, DOTS_OAM_SCAN)
	test.ExpectEquality(t, ppu.STAT&STAT_LYC_EQUAL, STAT_LYC_EQUAL)
	test.ExpectEquality(t, ppu.STAT&STAT_MODE, uint8(OAM_SCAN))
	test.ExpectEquality(t, len(ppu.VRAM), 1)
	test.ExpectEquality(t, len(MakePpu(true).VRAM), 2)
}

func TestModeSequence(t *testing.T) {
	ppu := MakePpu(false)

	ppu.Process(80)
	test.ExpectEquality(t, ppu.Mode, DRAW)
	ppu.Process(172)
	test.ExpectEquality(t, ppu.Mode, HBLANK)
	ppu.Process(204)
	test.ExpectEquality(t, ppu.Mode, OAM_SCAN)
	test.ExpectEquality(t, ppu.LY, uint8(1))
}

func TestScanlineIsConstant(t *testing.T) {
	ppu := MakePpu(false)
	test.ExpectEquality(t, runLine(ppu), DOTS_SCANLINE)

	// fine scroll and sprites make draw longer, hblank absorbs it
	ppu.SCX = 5
	ppu.LCDC |= 0x02
	for i := 0; i < 4; i++ {
		ppu.OamRAM[i*SPRITE_BYTES] = 16 + 2
	}
	test.ExpectEquality(t, ppu.LY, uint8(1))
	test.ExpectEquality(t, runLine(ppu), DOTS_SCANLINE)

	ppu.Process(DOTS_OAM_SCAN)
	test.ExpectEquality(t, ppu.Mode, DRAW)
	test.ExpectEquality(t, ppu.TotalDots, DOTS_DRAW_MIN+5+4*6)
	ppu.Process(ppu.TotalDots)
	test.ExpectEquality(t, ppu.Mode, HBLANK)
	test.ExpectEquality(t, ppu.TotalDots, DOTS_HBLANK_MAX-5-4*6)
}

func TestOverflowIsCarried(t *testing.T) {
	ppu := MakePpu(false)

	ppu.Process(100)
	test.ExpectEquality(t, ppu.Mode, DRAW)
	test.ExpectEquality(t, ppu.RemainingDots, DOTS_DRAW_MIN-20)

	// a large step crosses several modes at once
	ppu = MakePpu(false)
	ppu.Process(DOTS_SCANLINE + 10)
	test.ExpectEquality(t, ppu.LY, uint8(1))
	test.ExpectEquality(t, ppu.Mode, OAM_SCAN)
	test.ExpectEquality(t, ppu.RemainingDots, DOTS_OAM_SCAN-10)
}

func TestFrame(t *testing.T) {
	ppu := MakePpu(false)

	seen := map[uint8]bool{}
	vblanks := 0
	total := 0
	wasSignalled := false
	for total < 70224 {
		ppu.Process(4)
		total += 4
		seen[ppu.LY] = true
		if ppu.LY >= 154 {
			t.Fatalf("LY out of range: %d", ppu.LY)
		}
		if ppu.VBlankSignal {
			test.ExpectEquality(t, ppu.Mode, VBLANK)
			if !wasSignalled {
				vblanks++
				test.ExpectEquality(t, ppu.LY, uint8(144))
			}
		}
		wasSignalled = ppu.VBlankSignal
	}

	test.ExpectEquality(t, len(seen), 154)
	test.ExpectEquality(t, vblanks, 1)
	test.ExpectEquality(t, ppu.FrameCount, 1)
	test.ExpectEquality(t, ppu.LY, uint8(0))
	test.ExpectEquality(t, ppu.Mode, OAM_SCAN)
	test.ExpectEquality(t, ppu.RemainingDots, DOTS_OAM_SCAN)
}

func TestVBlankAcknowledge(t *testing.T) {
	ppu := MakePpu(false)
	for !ppu.VBlankSignal {
		ppu.Process(4)
	}
	ppu.AcknowledgeVBlank()
	for ppu.Mode == VBLANK {
		ppu.Process(4)
		test.ExpectEquality(t, ppu.VBlankSignal, false)
	}
}

func TestVBlankLasts4560Dots(t *testing.T) {
	ppu := MakePpu(false)
	for ppu.Mode != VBLANK {
		ppu.Process(4)
	}
	dots := 0
	for ppu.Mode == VBLANK {
		ppu.Process(4)
		dots += 4
	}
	// the loop starts at the first tick inside VBlank and stops on the first tick out
	test.ExpectEquality(t, dots, DOTS_VBLANK)
}

func TestStatRisingEdge(t *testing.T) {
	ppu := MakePpu(false)
	ppu.WriteStatus(STAT_HBLANK_INT)

	ppu.Process(80)
	test.ExpectEquality(t, ppu.StatSignal, false)

	ppu.Process(172)
	test.ExpectEquality(t, ppu.Mode, HBLANK)
	test.ExpectEquality(t, ppu.StatSignal, true)

	// once taken, staying in hblank does not raise it again
	ppu.AcknowledgeStat()
	ppu.Process(4)
	test.ExpectEquality(t, ppu.Mode, HBLANK)
	test.ExpectEquality(t, ppu.StatSignal, false)
	test.ExpectEquality(t, ppu.StatLine(), true)

	ppu.Process(200)
	test.ExpectEquality(t, ppu.Mode, OAM_SCAN)
	test.ExpectEquality(t, ppu.StatSignal, false)

	ppu.Process(80 + 172)
	test.ExpectEquality(t, ppu.StatSignal, true)
}

func TestStatRequestDropsWithSource(t *testing.T) {
	ppu := MakePpu(false)
	ppu.WriteStatus(STAT_OAM_INT)

	// the first scan of line 0 is already running, so the next edge is on line 1
	ppu.Process(80)
	test.ExpectEquality(t, ppu.StatSignal, false)
	ppu.Process(172 + 204)
	test.ExpectEquality(t, ppu.Mode, OAM_SCAN)
	test.ExpectEquality(t, ppu.StatSignal, true)

	// not acknowledged, but the source goes away with the mode
	ppu.Process(80)
	test.ExpectEquality(t, ppu.StatSignal, false)
}

func TestStatDisabledSourceNeverFires(t *testing.T) {
	ppu := MakePpu(false)
	for i := 0; i < 70224/4; i++ {
		ppu.Process(4)
		if ppu.StatSignal {
			t.Fatalf("stat fired with no source enabled at LY=%d mode=%s", ppu.LY, ppu.Mode)
		}
	}
}

func TestStatCoincidence(t *testing.T) {
	ppu := MakePpu(false)
	ppu.LYC = 2
	ppu.WriteStatus(STAT_LYC_INT)

	fired := 0
	wasSignalled := false
	for ppu.LY < 4 {
		ppu.Process(4)
		if ppu.StatSignal && !wasSignalled {
			fired++
			test.ExpectEquality(t, ppu.LY, uint8(2))
		}
		wasSignalled = ppu.StatSignal
		test.ExpectEquality(t, ppu.STAT&STAT_LYC_EQUAL != 0, ppu.LY == 2)
	}
	test.ExpectEquality(t, fired, 1)
}

func TestWriteStatusKeepsHardwareBits(t *testing.T) {
	ppu := MakePpu(false)
	before := ppu.STAT & statHardwareBits

	ppu.WriteStatus(0xFF)
	test.ExpectEquality(t, ppu.STAT&statHardwareBits, before)
	test.ExpectEquality(t, ppu.STAT&0x78, uint8(0x78))

	ppu.WriteStatus(0x00)
	test.ExpectEquality(t, ppu.STAT, before)
	test.ExpectEquality(t, ppu.ReadStatus(), before|0x80)
}

func TestDoubleSpeed(t *testing.T) {
	ppu := MakePpu(true)
	ppu.SpeedMultiplier = 2

	ppu.Process(80)
	test.ExpectEquality(t, ppu.Mode, OAM_SCAN)
	ppu.Process(80)
	test.ExpectEquality(t, ppu.Mode, DRAW)
}

func TestDisplayOff(t *testing.T) {
	ppu := MakePpu(false)
	ppu.Process(1000)
	test.ExpectEquality(t, ppu.LY, uint8(2))

	ppu.WriteControl(0x11)
	test.ExpectEquality(t, ppu.LY, uint8(0))
	test.ExpectEquality(t, ppu.Mode, HBLANK)
	ppu.Process(10000)
	test.ExpectEquality(t, ppu.LY, uint8(0))

	ppu.WriteControl(0x91)
	test.ExpectEquality(t, ppu.Mode, OAM_SCAN)
	test.ExpectEquality(t, ppu.RemainingDots, DOTS_OAM_SCAN)
}

func TestVRAMBanks(t *testing.T) {
	dmg := MakePpu(false)
	dmg.SelectVRAMBank(1)
	test.ExpectEquality(t, dmg.VRAMBank, uint8(0))

	cgb := MakePpu(true)
	cgb.WriteVRam(0x10, 0xAA)
	cgb.SelectVRAMBank(1)
	test.ExpectEquality(t, cgb.ReadVRam(0x10), uint8(0))
	cgb.WriteVRam(0x10, 0xBB)
	cgb.SelectVRAMBank(0)
	test.ExpectEquality(t, cgb.ReadVRam(0x10), uint8(0xAA))
	test.ExpectEquality(t, cgb.VRAM[1][0x10], uint8(0xBB))
}

func TestSaveLoad(t *testing.T) {
	ppu := MakePpu(true)
	ppu.Process(5000)
	ppu.WriteVRam(0x100, 0x42)
	ppu.LYC = 7

	var buf bytes.Buffer
	ppu.Save(gob.NewEncoder(&buf))

	other := MakePpu(true)
	test.DemandSuccess(t, other.Load(gob.NewDecoder(&buf)))
	test.ExpectEquality(t, other.LY, ppu.LY)
	test.ExpectEquality(t, other.Mode, ppu.Mode)
	test.ExpectEquality(t, other.RemainingDots, ppu.RemainingDots)
	test.ExpectEquality(t, other.LYC, uint8(7))
	test.ExpectEquality(t, other.VRAM[0][0x100], uint8(0x42))
}

func TestLoadRejectsInvalidState(t *testing.T) {
	var buf bytes.Buffer
	MakePpu(true).Save(gob.NewEncoder(&buf))
	dmg := MakePpu(false)
	test.ExpectFailure(t, dmg.Load(gob.NewDecoder(&buf)))
	test.ExpectEquality(t, len(dmg.VRAM), 1)

	buf.Reset()
	ppu := MakePpu(false)
	ppu.SpeedMultiplier = 0
	ppu.Save(gob.NewEncoder(&buf))
	other := MakePpu(false)
	test.ExpectFailure(t, other.Load(gob.NewDecoder(&buf)))
	test.ExpectEquality(t, other.SpeedMultiplier, 1)
}
