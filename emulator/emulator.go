// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/lc3/cpu"
	"github.com/ezrec/lc3/internal"
)

var _emulator_defines = map[string]string{
	"MEMORY_SIZE": fmt.Sprintf("%v", cpu.MEMORY_SIZE),
}

// Emulator is a complete LC-3 machine: CPU + memory + console, with an
// optional program listing for source-level error reporting.
type Emulator struct {
	Verbose  bool // If set, enables verbose logging.
	*cpu.Cpu      // The machine state.

	Program *cpu.Program // The currently loaded program listing, if any.
	Console cpu.Console  // Console attached at the next Reset.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu: cpu.NewCpu(),
	}

	return
}

// Defines returns an iterator over all of the defines.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	)
}

// Reset attaches the console, clears the machine, and loads the program
// listing (when present) into memory.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Console = emu.Console
	emu.Cpu.Reset()

	if emu.Program != nil {
		emu.Program.Image().LoadInto(emu.Cpu.Mem)
	}

	return
}

// Load places an image into machine memory. Images loaded later
// overwrite earlier ones at overlapping addresses.
func (emu *Emulator) Load(img *cpu.Image) {
	img.LoadInto(emu.Cpu.Mem)
}

// LineNo returns the source line for the instruction the machine is
// about to execute, or 0 when no listing covers the program counter.
func (emu *Emulator) LineNo() (lineno int) {
	if emu.Program == nil {
		return
	}

	return emu.Program.LineFor(emu.Cpu.PC)
}

// Tick executes a single instruction. done reports that the machine has
// halted; a non-nil err is fatal and carries the source line when a
// listing is loaded.
func (emu *Emulator) Tick() (done bool, err error) {
	if !emu.Cpu.Running {
		done = true
		return
	}

	lineno := emu.LineNo()
	defer func() {
		if err != nil && lineno != 0 {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	err = emu.Cpu.Step()
	if err != nil {
		return
	}

	done = !emu.Cpu.Running

	return
}

// Run executes instructions until the machine halts or faults.
func (emu *Emulator) Run() (err error) {
	for {
		done, err := emu.Tick()
		if done || err != nil {
			return err
		}
	}
}
