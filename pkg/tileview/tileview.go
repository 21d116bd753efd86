// Package tileview renders the contents of video RAM as images, for debugging
// frontends. It reads the PPU state and never changes it.
package tileview

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/draw"

	"gbcore/pkg/video"
)

type Palette uint8

const (
	GB_PALETTE_GREEN Palette = iota
	GB_PALETTE_GREY
)

var shades = map[Palette][4]color.RGBA{
	GB_PALETTE_GREEN: {
		{0xE0, 0xF8, 0xD0, 0xFF},
		{0x88, 0xC0, 0x70, 0xFF},
		{0x34, 0x68, 0x56, 0xFF},
		{0x08, 0x18, 0x20, 0xFF},
	},
	GB_PALETTE_GREY: {
		{0xFF, 0xFF, 0xFF, 0xFF},
		{0xAA, 0xAA, 0xAA, 0xFF},
		{0x55, 0x55, 0x55, 0xFF},
		{0x00, 0x00, 0x00, 0xFF},
	},
}

const (
	TILE_SIZE     = 8
	TILES_PER_ROW = 16
	// TILE_COUNT is the number of tiles in one VRAM bank.
	TILE_COUNT = 384
)

// Colors maps the four color numbers through a palette register such as BGP.
func (p Palette) Colors(reg uint8) [4]color.RGBA {
	var res [4]color.RGBA
	for i := range res {
		res[i] = shades[p][(reg>>(2*i))&3]
	}
	return res
}

// Sheet draws the 384 tiles of a VRAM bank, 16 to a row, through BGP.
func Sheet(ppu *video.Ppu, bank int, palette Palette) *image.RGBA {
	colors := palette.Colors(ppu.BGP)
	rows := TILE_COUNT / TILES_PER_ROW
	img := image.NewRGBA(image.Rect(0, 0, TILES_PER_ROW*TILE_SIZE, rows*TILE_SIZE))

	vram := ppu.VRAM[bank%len(ppu.VRAM)]
	for tile := 0; tile < TILE_COUNT; tile++ {
		x0 := (tile % TILES_PER_ROW) * TILE_SIZE
		y0 := (tile / TILES_PER_ROW) * TILE_SIZE
		base := tile * video.TILE_BYTES
		for y := 0; y < TILE_SIZE; y++ {
			lo, hi := vram[base+2*y], vram[base+2*y+1]
			for x := 0; x < TILE_SIZE; x++ {
				bit := 7 - x
				c := (lo>>bit)&1 | ((hi>>bit)&1)<<1
				img.SetRGBA(x0+x, y0+y, colors[c])
			}
		}
	}
	return img
}

// Scale enlarges an image by an integer factor without smoothing.
func Scale(src image.Image, factor int) *image.RGBA {
	if factor < 1 {
		factor = 1
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// TileAddress resolves a tile number from a map through the addressing mode
// selected by LCDC bit 4: unsigned from 0x8000, or signed around 0x9000.
func TileAddress(ppu *video.Ppu, n uint8) uint16 {
	if ppu.BgWindowTileData() {
		return video.TILE_SET_ZERO_ADDRESS + uint16(n)*uint16(video.TILE_BYTES)
	}
	return video.TILE_SET_ONE_ADDRESS + uint16(int16(int8(n))+128)*uint16(video.TILE_BYTES)
}

// BackgroundMap lists the background map selected by LCDC, one row of 32 per line.
// Entries are tile indices into the Sheet of bank 0. On CGB the attribute byte from
// bank 1 follows each index.
func BackgroundMap(ppu *video.Ppu) string {
	base := video.TILE_MAP_ZERO_ADDRESS
	if ppu.BgTileMapDisplay() {
		base = video.TILE_MAP_ONE_ADDRESS
	}
	return tileMap(ppu, "background", base, ppu.BgEnabled())
}

// WindowMap is BackgroundMap for the window layer.
func WindowMap(ppu *video.Ppu) string {
	base := video.TILE_MAP_ZERO_ADDRESS
	if ppu.WindowTileMap() {
		base = video.TILE_MAP_ONE_ADDRESS
	}
	return tileMap(ppu, "window", base, ppu.WindowEnabled())
}

func tileMap(ppu *video.Ppu, name string, base uint16, enabled bool) string {
	tiles := video.TILE_SET_ZERO_ADDRESS
	if !ppu.BgWindowTileData() {
		tiles = video.TILE_SET_ONE_ADDRESS
	}

	var s strings.Builder
	fmt.Fprintf(&s, "%s map @ %04x, tiles @ %04x", name, base, tiles)
	if !enabled {
		s.WriteString(" (disabled)")
	}
	s.WriteString("\n")

	off := int(base - video.TILE_SET_ZERO_ADDRESS)
	for y := 0; y < 32; y++ {
		fmt.Fprintf(&s, "  %02x:", y)
		for x := 0; x < 32; x++ {
			i := off + y*32 + x
			index := int(TileAddress(ppu, ppu.VRAM[0][i])-video.TILE_SET_ZERO_ADDRESS) / video.TILE_BYTES
			if len(ppu.VRAM) > 1 {
				fmt.Fprintf(&s, " %03x:%02x", index, ppu.VRAM[1][i])
			} else {
				fmt.Fprintf(&s, " %03x", index)
			}
		}
		s.WriteString("\n")
	}
	return s.String()
}
