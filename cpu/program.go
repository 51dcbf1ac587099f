package cpu

import (
	"iter"
)

// Opcode is one assembled source line: its location, source words, and
// the instruction words it produced. Lines referencing a forward label
// carry the label until the final link pass patches the code word.
type Opcode struct {
	LineNo    int
	Addr      int
	Words     []string
	Codes     []Instr
	LinkLabel string
	LinkWidth int
}

// Program is an assembled listing with enough source information to map
// a running machine back to its source lines.
type Program struct {
	Origin  uint16
	Opcodes []Opcode
}

// Codes iterates the program's instruction words in address order.
func (prog *Program) Codes() iter.Seq2[uint16, Instr] {
	return func(yield func(addr uint16, code Instr) bool) {
		for _, op := range prog.Opcodes {
			addr := uint16(op.Addr)
			for n, code := range op.Codes {
				if !yield(addr+uint16(n), code) {
					return
				}
			}
		}
	}
}

// LineFor returns the source line owning addr, or 0 when the address is
// outside the program.
func (prog *Program) LineFor(addr uint16) (lineno int) {
	for _, op := range prog.Opcodes {
		if addr >= uint16(op.Addr) && addr < uint16(op.Addr)+uint16(len(op.Codes)) {
			return op.LineNo
		}
	}

	return 0
}

// Image renders the program as a loadable image.
func (prog *Program) Image() (img *Image) {
	img = &Image{Origin: prog.Origin}
	for _, code := range prog.Codes() {
		img.Words = append(img.Words, uint16(code))
	}

	return
}
