// Command trace runs a ROM headless for a number of frames. It can print every
// instruction, run a Lua script against the console, dump the tile sheet as a PNG and
// dump the console graph for graphviz.
//
//	trace [flags] rom.gb
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"sync"

	"github.com/bradleyjkemp/memviz"
	"golang.org/x/term"

	"gbcore/internal/statsview"
	"gbcore/pkg/gbc"
	"gbcore/pkg/logger"
	"gbcore/pkg/script"
	"gbcore/pkg/tileview"
)

const (
	colorPC    = "\033[36m"
	colorReset = "\033[0m"
)

type options struct {
	frames    int
	trace     bool
	histogram bool
	step      bool
	script    string
	tiles     string
	scale     int
	memviz    string
	statsview bool
	sav       string
	logTail   int
	verbose   bool
}

func parseFlags() (options, string) {
	var opts options
	flag.IntVar(&opts.frames, "frames", 60, "number of frames to run")
	flag.BoolVar(&opts.trace, "trace", false, "print every instruction")
	flag.BoolVar(&opts.histogram, "histogram", false, "print how often each instruction ran")
	flag.BoolVar(&opts.step, "step", false, "execute one instruction per key press (q quits, c continues)")
	flag.StringVar(&opts.script, "script", "", "run a Lua script instead of the frame loop")
	flag.StringVar(&opts.tiles, "tiles", "", "write the VRAM tile sheet to a PNG file")
	flag.IntVar(&opts.scale, "scale", 2, "scale factor of the tile sheet")
	flag.StringVar(&opts.memviz, "memviz", "", "write the console graph to a dot file")
	flag.BoolVar(&opts.statsview, "statsview", false, "launch the runtime stats server")
	flag.StringVar(&opts.sav, "sav", "", "battery RAM file, loaded before and stored after the run")
	flag.IntVar(&opts.logTail, "log", 0, "print the last n log entries on exit")
	flag.BoolVar(&opts.verbose, "v", false, "log unhandled IO accesses")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: trace [flags] rom.gb")
		flag.PrintDefaults()
		os.Exit(2)
	}
	return opts, flag.Arg(0)
}

func main() {
	opts, romPath := parseFlags()
	if err := run(opts, romPath); err != nil {
		log.Fatalf("trace: %s", err)
	}
}

func run(opts options, romPath string) error {
	if opts.verbose {
		logger.SetEcho(os.Stderr)
	}
	if opts.logTail > 0 {
		defer logger.Tail(os.Stderr, opts.logTail)
	}
	if opts.statsview {
		statsview.Launch(os.Stderr)
	}

	rom, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("reading rom %s: %w", romPath, err)
	}

	var inspector *gbc.Inspector
	if opts.histogram {
		inspector = gbc.NewInspector(4096)
	}
	cons, err := gbc.MakeConsoleWithOptions(rom, gbc.Options{
		Inspector: inspector,
		Verbose:   opts.verbose,
	})
	if err != nil {
		return err
	}
	logger.Logf("trace", "loaded %q (%s, %s)", cons.Cart.Title(), cons.Cart.Header.Color(), cons.Cart.Map.Kind())

	if opts.sav != "" {
		if err := loadSav(cons, opts.sav); err != nil {
			return err
		}
	}

	var counts map[string]int
	var wg sync.WaitGroup
	if inspector != nil {
		counts = make(map[string]int)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range inspector.Messages() {
				if msg.Kind == gbc.MessageInstruction {
					counts[msg.Instruction.Info.Mnemonic]++
				}
			}
		}()
	}

	switch {
	case opts.script != "":
		err = runScript(cons, opts.script)
	case opts.step:
		err = runInteractive(cons, opts.frames)
	default:
		runFrames(cons, opts.frames, opts.trace)
	}

	if inspector != nil {
		inspector.Close()
		wg.Wait()
		printHistogram(os.Stdout, counts, inspector.Dropped())
	}
	if err != nil {
		return err
	}

	if out := cons.SerialOutput(); out != "" {
		fmt.Printf("serial: %q\n", out)
	}
	fmt.Printf("%d frames, PC=%04x\n", cons.PPU.FrameCount, cons.CPU.PC)

	if opts.tiles != "" {
		if err := writeTiles(cons, opts.tiles, opts.scale); err != nil {
			return err
		}
	}
	if opts.memviz != "" {
		if err := writeGraph(cons, opts.memviz); err != nil {
			return err
		}
	}
	if opts.sav != "" {
		return storeSav(cons, opts.sav)
	}
	return nil
}

func runFrames(cons *gbc.Console, frames int, trace bool) {
	if !trace {
		for i := 0; i < frames; i++ {
			cons.StepFrame()
		}
		return
	}

	color := term.IsTerminal(int(os.Stdout.Fd()))
	target := cons.PPU.FrameCount + frames
	budget := frames * gbc.CYCLES_PER_FRAME * 2
	for cons.PPU.FrameCount < target && budget > 0 {
		printTrace(os.Stdout, cons, color)
		budget -= int(cons.Step())
	}
}

func printTrace(w io.Writer, cons *gbc.Console, color bool) {
	line := cons.TraceLine()
	if color && len(line) > 4 {
		fmt.Fprintf(w, "%s%s%s%s\n", colorPC, line[:4], colorReset, line[4:])
		return
	}
	fmt.Fprintln(w, line)
}

// runInteractive single-steps the console, one instruction per key press, until the
// frame count is reached or q is pressed. c runs the remaining frames untraced.
func runInteractive(cons *gbc.Console, frames int) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("-step needs a terminal")
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}
	defer term.Restore(fd, state)

	color := term.IsTerminal(int(os.Stdout.Fd()))
	target := cons.PPU.FrameCount + frames
	key := make([]byte, 1)
	for cons.PPU.FrameCount < target {
		printTrace(os.Stdout, cons, color)
		if _, err := os.Stdin.Read(key); err != nil {
			return err
		}
		switch key[0] {
		case 'q', 3:
			return nil
		case 'c':
			for cons.PPU.FrameCount < target {
				cons.StepFrame()
			}
			return nil
		}
		cons.Step()
		// raw mode disables output post-processing
		fmt.Print("\r")
	}
	return nil
}

func runScript(cons *gbc.Console, path string) error {
	h := script.NewHarness(cons)
	defer h.Close()
	return h.RunFile(path)
}

func printHistogram(w io.Writer, counts map[string]int, dropped uint64) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		fmt.Fprintf(w, "%10d  %s\n", counts[name], name)
	}
	if dropped > 0 {
		fmt.Fprintf(w, "%d instructions not counted\n", dropped)
	}
}

func writeTiles(cons *gbc.Console, path string, scale int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeFile(f, &err)

	img := tileview.Sheet(cons.PPU, 0, tileview.GB_PALETTE_GREEN)
	if scale > 1 {
		img = tileview.Scale(img, scale)
	}
	if err := tileview.WritePNG(f, img); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func writeGraph(cons *gbc.Console, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeFile(f, &err)
	memviz.Map(f, cons)
	return nil
}

// closeFile closes a file that was written to, keeping the first error.
func closeFile(f *os.File, err *error) {
	if cerr := f.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("closing %s: %w", f.Name(), cerr)
	}
}

func loadSav(cons *gbc.Console, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := cons.Cart.LoadRAM(data); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func storeSav(cons *gbc.Console, path string) error {
	ram := cons.Cart.RAM()
	if len(ram) == 0 {
		return nil
	}
	return os.WriteFile(path, ram, 0644)
}
