package gbc

import "encoding/gob"

const (
	OAM_DMA_LENGTH = 0xA0
	HDMA_BLOCK     = 0x10
)

type DmaState uint8

const (
	DMA_STATE_INACTIVE DmaState = iota
	// DMA_STATE_HBLANK copies one block each time the PPU enters HBlank.
	DMA_STATE_HBLANK
)

// Dma holds the OAM transfer register and the CGB VRAM transfer registers. Both
// transfers copy without stalling the CPU.
type Dma struct {
	cons *Console

	OamSource uint8

	HdmaState  DmaState
	HdmaSrc    uint16
	HdmaDst    uint16
	HdmaBlocks int
}

func MakeDma(cons *Console) *Dma {
	return &Dma{cons: cons, OamSource: 0xFF}
}

func (dma *Dma) Save(encoder *gob.Encoder) {
	panicIfErr(encoder.Encode(dma.OamSource))
	panicIfErr(encoder.Encode(dma.HdmaState))
	panicIfErr(encoder.Encode(dma.HdmaSrc))
	panicIfErr(encoder.Encode(dma.HdmaDst))
	panicIfErr(encoder.Encode(dma.HdmaBlocks))
}

func (dma *Dma) Load(decoder *gob.Decoder) error {
	return firstErr(
		decoder.Decode(&dma.OamSource),
		decoder.Decode(&dma.HdmaState),
		decoder.Decode(&dma.HdmaSrc),
		decoder.Decode(&dma.HdmaDst),
		decoder.Decode(&dma.HdmaBlocks),
	)
}

// StartOam copies 160 bytes from value<<8 into OAM.
func (dma *Dma) StartOam(value uint8) {
	dma.OamSource = value
	src := uint16(value) << 8
	for i := uint16(0); i < OAM_DMA_LENGTH; i++ {
		dma.cons.PPU.WriteOam(i, dma.cons.Read(src+i))
	}
}

func (dma *Dma) SetSourceHi(value uint8) {
	dma.HdmaSrc = uint16(value)<<8 | dma.HdmaSrc&0x00F0
}

func (dma *Dma) SetSourceLo(value uint8) {
	dma.HdmaSrc = dma.HdmaSrc&0xFF00 | uint16(value&0xF0)
}

func (dma *Dma) SetDestHi(value uint8) {
	dma.HdmaDst = uint16(value&0x1F)<<8 | dma.HdmaDst&0x00F0
}

func (dma *Dma) SetDestLo(value uint8) {
	dma.HdmaDst = dma.HdmaDst&0x1F00 | uint16(value&0xF0)
}

// Control is HDMA5. Bit 7 is clear while an HBlank transfer is running and the low
// bits are the blocks left minus one.
func (dma *Dma) Control() uint8 {
	if dma.HdmaState == DMA_STATE_INACTIVE {
		return 0xFF
	}
	return uint8(dma.HdmaBlocks-1) & 0x7F
}

// WriteControl starts a transfer of (value&0x7F)+1 blocks. With bit 7 clear the
// whole transfer happens at once, unless an HBlank transfer is running, which it
// cancels instead.
func (dma *Dma) WriteControl(value uint8) {
	if dma.HdmaState == DMA_STATE_HBLANK && value&0x80 == 0 {
		dma.HdmaState = DMA_STATE_INACTIVE
		return
	}
	dma.HdmaBlocks = int(value&0x7F) + 1
	if value&0x80 == 0 {
		for dma.HdmaBlocks > 0 {
			dma.copyBlock()
		}
		return
	}
	dma.HdmaState = DMA_STATE_HBLANK
}

// HBlank is called when the PPU enters HBlank.
func (dma *Dma) HBlank() {
	if dma.HdmaState != DMA_STATE_HBLANK {
		return
	}
	dma.copyBlock()
	if dma.HdmaBlocks == 0 {
		dma.HdmaState = DMA_STATE_INACTIVE
	}
}

func (dma *Dma) copyBlock() {
	for i := uint16(0); i < HDMA_BLOCK; i++ {
		dst := (dma.HdmaDst + i) & 0x1FFF
		dma.cons.PPU.WriteVRam(dst, dma.cons.Read(dma.HdmaSrc+i))
	}
	dma.HdmaSrc += HDMA_BLOCK
	dma.HdmaDst = (dma.HdmaDst + HDMA_BLOCK) & 0x1FF0
	dma.HdmaBlocks--
}
