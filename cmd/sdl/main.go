//go:build linux || windows

// Command sdl runs a ROM in a window that shows the VRAM tile sheet while the game
// runs. The keyboard drives the joypad: z and x are A and B, return is START,
// backspace is SELECT and the arrows are the pad. F1-F4 save a state, F5-F8 load it
// back, f cycles through fast modes, b and w print the background and window maps
// and q quits.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"gbcore/pkg/gbc"
	"gbcore/pkg/logger"
	"gbcore/pkg/tileview"
)

type SDLPlugin struct {
	window        *sdl.Window
	renderer      *sdl.Renderer
	surface       *sdl.Surface
	width, height int
	scale         int
	palette       tileview.Palette

	notification string
	fastMode     int
}

func MakeSDLPlugin(scale int, palette tileview.Palette) (*SDLPlugin, error) {
	var err error

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, err
	}
	pl := &SDLPlugin{
		width:   tileview.TILES_PER_ROW * tileview.TILE_SIZE,
		height:  tileview.TILE_COUNT / tileview.TILES_PER_ROW * tileview.TILE_SIZE,
		scale:   scale,
		palette: palette,
	}

	pl.window, pl.renderer, err = sdl.CreateWindowAndRenderer(
		int32(pl.width*pl.scale), int32(pl.height*pl.scale), 0)
	if err != nil {
		return nil, err
	}
	pl.setTitle()

	pl.surface, err = sdl.CreateRGBSurface(
		0, int32(pl.width), int32(pl.height), 32, 0xFF000000, 0x00FF0000, 0x0000FF00, 0x000000FF)
	if err != nil {
		return nil, err
	}

	pl.renderer.SetDrawColor(0, 0, 0, 255)
	pl.renderer.Clear()
	return pl, nil
}

func (pl *SDLPlugin) Destroy() {
	pl.surface.Free()
	pl.renderer.Destroy()
	pl.window.Destroy()
	sdl.Quit()
}

func (pl *SDLPlugin) DisplayNotification(text string) {
	pl.notification = text
	pl.setTitle()
	logger.Log("sdl", text)
}

func (pl *SDLPlugin) setTitle() {
	title := "gbcore"
	if pl.fastMode > 0 {
		title += fmt.Sprintf(" - fast x%d", 1<<pl.fastMode)
	}
	if pl.notification != "" {
		title += " - " + pl.notification
	}
	pl.window.SetTitle(title)
}

func (pl *SDLPlugin) setPixel(x, y int, r, g, b, a uint8) {
	pixels := pl.surface.Pixels()
	off := y*int(pl.surface.Pitch) + x*int(pl.surface.BytesPerPixel())
	pixels[off+0] = a
	pixels[off+1] = b
	pixels[off+2] = g
	pixels[off+3] = r
}

// Draw copies the tile sheet of the first VRAM bank to the window.
func (pl *SDLPlugin) Draw(console *gbc.Console) {
	img := tileview.Sheet(console.PPU, 0, pl.palette)
	pl.blit(img)
	pl.CommitScreen()
}

func (pl *SDLPlugin) blit(img *image.RGBA) {
	pl.surface.Lock()
	defer pl.surface.Unlock()
	for y := 0; y < pl.height; y++ {
		for x := 0; x < pl.width; x++ {
			off := img.PixOffset(x, y)
			p := img.Pix[off : off+4]
			pl.setPixel(x, y, p[0], p[1], p[2], p[3])
		}
	}
}

func (pl *SDLPlugin) CommitScreen() {
	texture, err := pl.renderer.CreateTextureFromSurface(pl.surface)
	if err != nil {
		log.Printf("unable to create texture while rendering: %s", err)
		return
	}
	defer texture.Destroy()

	rect := sdl.Rect{
		X: 0,
		Y: 0,
		W: int32(pl.width * pl.scale),
		H: int32(pl.height * pl.scale)}
	pl.renderer.Copy(texture, nil, &rect)
	pl.renderer.Present()

	pl.renderer.SetDrawColor(0xff, 0xff, 0xff, 0xff)
	pl.renderer.Clear()
}

func statePath(rom string, n int) string {
	return fmt.Sprintf("%s.state.%d", rom, n)
}

func saveState(rom string, console *gbc.Console, n int) error {
	data, err := console.SaveState()
	if err != nil {
		return err
	}
	return os.WriteFile(statePath(rom, n), data, 0644)
}

func loadState(rom string, console *gbc.Console, n int) error {
	data, err := os.ReadFile(statePath(rom, n))
	if err != nil {
		return err
	}
	return console.LoadState(data)
}

// frameTime is the wall clock length of a frame at normal speed.
var frameTime = time.Duration(gbc.CYCLES_PER_FRAME) * time.Second / (gbc.GBCPU_FREQ / 4)

func (pl *SDLPlugin) Run(rom string, console *gbc.Console) error {
	currentInput := gbc.JoypadState{}

	running := true
	for running {
		start := time.Now()

		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch t := event.(type) {
			case *sdl.QuitEvent:
				running = false
			case *sdl.KeyboardEvent:
				if t.Repeat != 0 {
					break
				}
				pressed := t.State == sdl.PRESSED
				keyCode := t.Keysym.Sym
				switch keyCode {
				case sdl.K_q:
					running = false
				case sdl.K_F1, sdl.K_F2, sdl.K_F3, sdl.K_F4:
					if pressed {
						n := int(keyCode - sdl.K_F1 + 1)
						if err := saveState(rom, console, n); err != nil {
							log.Printf("error saving state: %s", err)
							pl.DisplayNotification("error while saving state")
						} else {
							pl.DisplayNotification(fmt.Sprintf("state %d saved", n))
						}
					}
				case sdl.K_F5, sdl.K_F6, sdl.K_F7, sdl.K_F8:
					if pressed {
						n := int(keyCode - sdl.K_F5 + 1)
						if err := loadState(rom, console, n); err != nil {
							log.Printf("error loading state: %s", err)
							pl.DisplayNotification("error while loading state")
						} else {
							pl.DisplayNotification(fmt.Sprintf("state %d loaded", n))
						}
					}
				case sdl.K_f:
					if pressed {
						pl.fastMode = (pl.fastMode + 1) % 4
						if pl.fastMode > 0 {
							pl.DisplayNotification(fmt.Sprintf("fast mode x%d", 1<<pl.fastMode))
						} else {
							pl.DisplayNotification("normal mode")
						}
					}
				case sdl.K_b:
					if pressed {
						fmt.Println(tileview.BackgroundMap(console.PPU))
					}
				case sdl.K_w:
					if pressed {
						fmt.Println(tileview.WindowMap(console.PPU))
					}

				// GB Keys
				case sdl.K_z:
					currentInput.A = pressed
				case sdl.K_x:
					currentInput.B = pressed
				case sdl.K_RETURN:
					currentInput.START = pressed
				case sdl.K_BACKSPACE:
					currentInput.SELECT = pressed
				case sdl.K_UP:
					currentInput.UP = pressed
				case sdl.K_DOWN:
					currentInput.DOWN = pressed
				case sdl.K_LEFT:
					currentInput.LEFT = pressed
				case sdl.K_RIGHT:
					currentInput.RIGHT = pressed
				}
			}
		}
		console.SetButtons(currentInput)

		for i := 0; i < 1<<pl.fastMode; i++ {
			console.StepFrame()
		}
		pl.Draw(console)

		if elapsed := time.Since(start); elapsed < frameTime {
			sdl.Delay(uint32((frameTime - elapsed).Milliseconds()))
		} else if console.Verbose {
			log.Println("emulation is too slow")
		}
	}
	return nil
}

func loadSav(console *gbc.Console, path string) error {
	sav, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return console.Cart.LoadRAM(sav)
}

func main() {
	scale := flag.Int("scale", 3, "window scale factor")
	grey := flag.Bool("grey", false, "use a grey palette instead of the green one")
	verbose := flag.Bool("v", false, "echo the log to stderr")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("missing ROM filename")
		return
	}
	if *verbose {
		logger.SetEcho(os.Stderr)
	}

	palette := tileview.GB_PALETTE_GREEN
	if *grey {
		palette = tileview.GB_PALETTE_GREY
	}
	pl, err := MakeSDLPlugin(*scale, palette)
	if err != nil {
		log.Printf("unable to create SDLPlugin: %s\n", err)
		return
	}
	defer pl.Destroy()

	romPath := flag.Arg(0)
	rom, err := os.ReadFile(romPath)
	if err != nil {
		log.Printf("invalid rom: %s\n", err)
		return
	}
	console, err := gbc.MakeConsoleWithOptions(rom, gbc.Options{Verbose: *verbose})
	if err != nil {
		log.Printf("unable to create the console: %s\n", err)
		return
	}

	savFile := fmt.Sprintf("%s.sav", romPath)
	if err := loadSav(console, savFile); err != nil {
		log.Printf("unable to load sav: %s\n", err)
		return
	}

	if err := pl.Run(romPath, console); err != nil {
		log.Printf("unable to run the emulator: %s\n", err)
	}

	if sav := console.Cart.RAM(); len(sav) > 0 {
		if err := os.WriteFile(savFile, sav, 0644); err != nil {
			log.Printf("unable to store sav: %s\n", err)
		}
	}
}
