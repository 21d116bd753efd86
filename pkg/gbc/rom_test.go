package gbc

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gbcore/internal/test"
)

// ROM images are not part of the repository. Drop them under testdata/ to run these.

func loadTestRom(t *testing.T, name string) *Console {
	t.Helper()
	rom, err := os.ReadFile(filepath.Join("testdata", name))
	if errors.Is(err, fs.ErrNotExist) {
		t.Skipf("%s not found", name)
	}
	test.DemandSuccess(t, err)

	cons, err := MakeConsole(rom)
	test.DemandSuccess(t, err)
	return cons
}

// runSerialRomTest runs the ROM until done reports true on its serial output or
// until the frame budget is spent.
func runSerialRomTest(t *testing.T, name string, frames int, done func(string) bool) string {
	cons := loadTestRom(t, name)
	for i := 0; i < frames && !done(cons.SerialOutput()); i++ {
		cons.StepFrame()
	}
	return cons.SerialOutput()
}

func runBlarggTest(t *testing.T, name string, frames int) {
	out := runSerialRomTest(t, name, frames, func(s string) bool {
		return strings.Contains(s, "Passed") || strings.Contains(s, "Failed")
	})
	if !strings.Contains(out, "Passed") {
		t.Errorf("%s:\n%s", name, out)
	}
}

// Mooneye ROMs send the Fibonacci numbers from 3 to 34 when they pass.
var mooneyePass = string([]byte{3, 5, 8, 13, 21, 34})

func runMooneyeTest(t *testing.T, name string) {
	out := runSerialRomTest(t, name, 1000, func(s string) bool {
		return len(s) >= len(mooneyePass)
	})
	test.ExpectEquality(t, out, mooneyePass, name)
}

func TestBlarggCpuInstrs(t *testing.T) {
	runBlarggTest(t, "Blargg/cpu_instrs.gb", 4000)
}

func TestBlarggInstrTiming(t *testing.T) {
	runBlarggTest(t, "Blargg/instr_timing.gb", 1000)
}

func TestMooneyeOamDmaBasic(t *testing.T) {
	runMooneyeTest(t, "Mooneye/oam_dma/basic.gb")
}

func TestMooneyeRegF(t *testing.T) {
	runMooneyeTest(t, "Mooneye/bits/reg_f.gb")
}

func TestMooneyeDivWrite(t *testing.T) {
	runMooneyeTest(t, "Mooneye/timer/div_write.gb")
}

func TestMooneyeMbc1(t *testing.T) {
	for _, name := range []string{"bits_bank1", "bits_bank2", "bits_mode", "bits_ramg", "rom_512kb", "rom_1Mb"} {
		t.Run(name, func(t *testing.T) {
			runMooneyeTest(t, "Mooneye/mbc1/"+name+".gb")
		})
	}
}

func TestMooneyeMbc5(t *testing.T) {
	for _, name := range []string{"rom_512kb", "rom_1Mb", "rom_2Mb"} {
		t.Run(name, func(t *testing.T) {
			runMooneyeTest(t, "Mooneye/mbc5/"+name+".gb")
		})
	}
}
