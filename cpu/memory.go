package cpu

import (
	"github.com/ezrec/lc3/io"
)

// Keyboard is the input device polled through the memory-mapped status
// register.
type Keyboard io.Keyboard

const MEMORY_SIZE = 1 << 16 // 65536 words

// Memory-mapped register addresses.
const (
	MR_KBSR = uint16(0xfe00) // keyboard status register
	MR_KBDR = uint16(0xfe02) // keyboard data register
)

// KBSR_READY is the keyboard status ready bit.
const KBSR_READY = uint16(1 << 15)

// Memory is the 65536-word store. Reads of the keyboard status register
// poll the attached keyboard and latch the next key into the data
// register; all other accesses are plain storage. Addresses wrap modulo
// the memory size by way of 16-bit arithmetic.
type Memory struct {
	Keyboard Keyboard

	cells [MEMORY_SIZE]uint16
}

// Reset clears all memory cells.
func (mem *Memory) Reset() {
	clear(mem.cells[:])
}

// Read returns the word at addr. Reading MR_KBSR polls the keyboard: when
// a key is pending the status reads with KBSR_READY set and the key code
// is latched into MR_KBDR; otherwise the status reads as zero and the
// data register is left untouched.
func (mem *Memory) Read(addr uint16) uint16 {
	if addr == MR_KBSR {
		mem.pollKeyboard()
	}

	return mem.cells[addr]
}

// Write stores value at addr unconditionally; no address is special-cased
// on write.
func (mem *Memory) Write(addr, value uint16) {
	mem.cells[addr] = value
}

// pollKeyboard refreshes the keyboard status and data registers. The poll
// never blocks: Pending guarantees the subsequent ReadKey completes
// immediately.
func (mem *Memory) pollKeyboard() {
	if mem.Keyboard != nil && mem.Keyboard.Pending() {
		key, err := mem.Keyboard.ReadKey()
		if err == nil {
			mem.cells[MR_KBSR] = KBSR_READY
			mem.cells[MR_KBDR] = uint16(key)
			return
		}
	}

	mem.cells[MR_KBSR] = 0
}
