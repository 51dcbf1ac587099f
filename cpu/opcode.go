package cpu

import (
	"fmt"
)

// Op is the 4-bit instruction class selector in the top nibble of every
// instruction word, in ISA encoding order.
type Op uint16

const (
	OP_BR   = Op(0)  // conditional branch
	OP_ADD  = Op(1)  // add
	OP_LD   = Op(2)  // load, PC-relative
	OP_ST   = Op(3)  // store, PC-relative
	OP_JSR  = Op(4)  // jump to subroutine
	OP_AND  = Op(5)  // bitwise and
	OP_LDR  = Op(6)  // load, base+offset
	OP_STR  = Op(7)  // store, base+offset
	OP_RTI  = Op(8)  // return from interrupt (unsupported)
	OP_NOT  = Op(9)  // bitwise complement
	OP_LDI  = Op(10) // load indirect
	OP_STI  = Op(11) // store indirect
	OP_JMP  = Op(12) // jump (also RET)
	OP_RES  = Op(13) // reserved
	OP_LEA  = Op(14) // load effective address
	OP_TRAP = Op(15) // system call
)

var opNames = [16]string{
	"BR", "ADD", "LD", "ST", "JSR", "AND", "LDR", "STR",
	"RTI", "NOT", "LDI", "STI", "JMP", "RES", "LEA", "TRAP",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}

	return fmt.Sprintf("Op(%d)", uint16(op))
}

// Flag is the condition flag state. Exactly one of FL_POS, FL_ZRO or
// FL_NEG holds after any flag-setting instruction.
type Flag uint16

const (
	FL_POS = Flag(1 << 0) // positive
	FL_ZRO = Flag(1 << 1) // zero
	FL_NEG = Flag(1 << 2) // negative
)

func (fl Flag) String() string {
	switch fl {
	case FL_POS:
		return "POS"
	case FL_ZRO:
		return "ZRO"
	case FL_NEG:
		return "NEG"
	}

	return fmt.Sprintf("Flag(%d)", uint16(fl))
}

// TrapVector selects one of the six I/O system-call routines.
type TrapVector uint16

const (
	TRAP_GETC  = TrapVector(0x20) // read one key, no echo
	TRAP_OUT   = TrapVector(0x21) // write one character
	TRAP_PUTS  = TrapVector(0x22) // write a word-per-character string
	TRAP_IN    = TrapVector(0x23) // prompt, read one key, echo it
	TRAP_PUTSP = TrapVector(0x24) // write a packed byte string
	TRAP_HALT  = TrapVector(0x25) // stop the machine
)

var trapNames = map[TrapVector]string{
	TRAP_GETC:  "GETC",
	TRAP_OUT:   "OUT",
	TRAP_PUTS:  "PUTS",
	TRAP_IN:    "IN",
	TRAP_PUTSP: "PUTSP",
	TRAP_HALT:  "HALT",
}

func (tv TrapVector) String() string {
	name, ok := trapNames[tv]
	if !ok {
		return fmt.Sprintf("TRAP x%02X", uint16(tv))
	}

	return name
}

// Instr is a single fetched instruction word. The field accessors decode
// the opcode-specific operand layouts; every register accessor masks to
// 3 bits, so a decoded register index is always in range.
type Instr uint16

// Op returns the instruction class from the top nibble.
func (in Instr) Op() Op { return Op(in >> 12) }

// DR returns the destination register field (bits 11:9).
func (in Instr) DR() uint16 { return uint16(in>>9) & 0x7 }

// SR returns the store source register field (bits 11:9, shared with DR).
func (in Instr) SR() uint16 { return uint16(in>>9) & 0x7 }

// SR1 returns the first source register field (bits 8:6).
func (in Instr) SR1() uint16 { return uint16(in>>6) & 0x7 }

// SR2 returns the second source register field (bits 2:0).
func (in Instr) SR2() uint16 { return uint16(in) & 0x7 }

// BaseR returns the base register field (bits 8:6, shared with SR1).
func (in Instr) BaseR() uint16 { return uint16(in>>6) & 0x7 }

// ImmFlag reports immediate mode for ADD and AND (bit 5).
func (in Instr) ImmFlag() bool { return in&(1<<5) != 0 }

// Imm5 returns the sign-extended 5-bit immediate.
func (in Instr) Imm5() uint16 { return signExtend(uint16(in)&0x1f, 5) }

// Offset6 returns the sign-extended 6-bit base offset.
func (in Instr) Offset6() uint16 { return signExtend(uint16(in)&0x3f, 6) }

// PCOffset9 returns the sign-extended 9-bit PC-relative offset.
func (in Instr) PCOffset9() uint16 { return signExtend(uint16(in)&0x1ff, 9) }

// PCOffset11 returns the sign-extended 11-bit subroutine offset.
func (in Instr) PCOffset11() uint16 { return signExtend(uint16(in)&0x7ff, 11) }

// LongFlag reports long-offset mode for JSR (bit 11).
func (in Instr) LongFlag() bool { return in&(1<<11) != 0 }

// CondBits returns the n/z/p branch condition mask (bits 11:9).
func (in Instr) CondBits() Flag { return Flag(in>>9) & 0x7 }

// Vector returns the trap selector from the low 8 bits.
func (in Instr) Vector() TrapVector { return TrapVector(in & 0xff) }

func (in Instr) String() string {
	return fmt.Sprintf("x%04X %v", uint16(in), in.Op())
}

// signExtend widens a two's-complement field of the given bit width to
// 16 bits.
func signExtend(x, width uint16) uint16 {
	if (x>>(width-1))&1 != 0 {
		x |= 0xffff << width
	}

	return x
}
