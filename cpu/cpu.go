package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/lc3/io"
)

// Console is the character I/O device used by the trap routines.
type Console io.Console

// General-purpose register indexes.
const (
	R0 = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
)

// PC_START is the address execution begins at after a reset.
const PC_START = uint16(0x3000)

var _cpu_defines = map[string]string{
	"PC_START":   fmt.Sprintf("0x%x", PC_START),
	"KBSR":       fmt.Sprintf("0x%x", MR_KBSR),
	"KBDR":       fmt.Sprintf("0x%x", MR_KBDR),
	"KBSR_READY": fmt.Sprintf("0x%x", KBSR_READY),
	"GETC":       fmt.Sprintf("0x%x", uint16(TRAP_GETC)),
	"OUT":        fmt.Sprintf("0x%x", uint16(TRAP_OUT)),
	"PUTS":       fmt.Sprintf("0x%x", uint16(TRAP_PUTS)),
	"IN":         fmt.Sprintf("0x%x", uint16(TRAP_IN)),
	"PUTSP":      fmt.Sprintf("0x%x", uint16(TRAP_PUTSP)),
	"HALT":       fmt.Sprintf("0x%x", uint16(TRAP_HALT)),
}

// Cpu is the complete machine state: register file, condition flag,
// memory, and the attached console. One Cpu is one machine instance; no
// state is shared between instances.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Reg  [8]uint16 // General-purpose register file.
	PC   uint16    // Program counter.
	Cond Flag      // Condition flag.

	Mem     *Memory // Memory unit.
	Console Console // Console for the trap routines.

	Running bool // Cleared only by the HALT trap.
	Ticks   int  // Instructions executed since reset.
}

// NewCpu creates a machine with zeroed memory, ready to run.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{
		Mem: &Memory{},
	}
	cpu.Reset()

	return
}

// Defines for the machine constants, used as assembler predefines.
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset clears the register file and memory, sets the condition flag to
// ZRO and the program counter to PC_START, and marks the machine running.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Reg[:])
	cpu.Mem.Reset()
	cpu.Mem.Keyboard = cpu.Console
	cpu.PC = PC_START
	cpu.Cond = FL_ZRO
	cpu.Running = true
	cpu.Ticks = 0
}

// String returns the current machine state as a string.
func (cpu *Cpu) String() (text string) {
	for n, val := range cpu.Reg {
		text += fmt.Sprintf("  r%d: %04x\n", n, val)
	}
	text += fmt.Sprintf("  pc: %04x\ncond: %v\n", cpu.PC, cpu.Cond)

	return
}

// Step executes one fetch-decode-execute cycle. The fetch goes through the
// memory unit, so it carries the same MMIO side effects as any other read,
// and the PC is advanced past the instruction before it executes.
func (cpu *Cpu) Step() (err error) {
	instr := Instr(cpu.Mem.Read(cpu.PC))
	cpu.PC++

	err = cpu.Execute(instr)
	if err == nil {
		cpu.Ticks++
	}

	return
}

// Execute runs a single fetched instruction. All address arithmetic wraps
// modulo the 16-bit address space; that is the ISA's defined behavior,
// not a fault. RTI and the reserved encoding are fatal.
func (cpu *Cpu) Execute(instr Instr) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrInstr(instr), err)
		}
	}()

	if cpu.Verbose {
		log.Printf("%04x: %v", cpu.PC-1, instr)
	}

	switch instr.Op() {
	case OP_ADD:
		operand := cpu.Reg[instr.SR2()]
		if instr.ImmFlag() {
			operand = instr.Imm5()
		}
		cpu.setReg(instr.DR(), cpu.Reg[instr.SR1()]+operand)
	case OP_AND:
		operand := cpu.Reg[instr.SR2()]
		if instr.ImmFlag() {
			operand = instr.Imm5()
		}
		cpu.setReg(instr.DR(), cpu.Reg[instr.SR1()]&operand)
	case OP_NOT:
		cpu.setReg(instr.DR(), ^cpu.Reg[instr.SR1()])
	case OP_BR:
		if instr.CondBits()&cpu.Cond != 0 {
			cpu.PC += instr.PCOffset9()
		}
	case OP_JMP:
		// RET is JMP with BaseR = r7.
		cpu.PC = cpu.Reg[instr.BaseR()]
	case OP_JSR:
		cpu.Reg[R7] = cpu.PC
		if instr.LongFlag() {
			cpu.PC += instr.PCOffset11()
		} else {
			cpu.PC = cpu.Reg[instr.BaseR()]
		}
	case OP_LD:
		cpu.setReg(instr.DR(), cpu.Mem.Read(cpu.PC+instr.PCOffset9()))
	case OP_LDI:
		cpu.setReg(instr.DR(), cpu.Mem.Read(cpu.Mem.Read(cpu.PC+instr.PCOffset9())))
	case OP_LDR:
		cpu.setReg(instr.DR(), cpu.Mem.Read(cpu.Reg[instr.BaseR()]+instr.Offset6()))
	case OP_LEA:
		cpu.setReg(instr.DR(), cpu.PC+instr.PCOffset9())
	case OP_ST:
		cpu.Mem.Write(cpu.PC+instr.PCOffset9(), cpu.Reg[instr.SR()])
	case OP_STI:
		cpu.Mem.Write(cpu.Mem.Read(cpu.PC+instr.PCOffset9()), cpu.Reg[instr.SR()])
	case OP_STR:
		cpu.Mem.Write(cpu.Reg[instr.BaseR()]+instr.Offset6(), cpu.Reg[instr.SR()])
	case OP_TRAP:
		cpu.Reg[R7] = cpu.PC
		err = cpu.trap(instr.Vector())
	case OP_RTI:
		err = ErrRti
	case OP_RES:
		err = ErrReserved
	}

	return
}

// setReg writes a general-purpose register and updates the condition flag
// from the value written.
func (cpu *Cpu) setReg(r, value uint16) {
	cpu.Reg[r] = value
	cpu.updateFlags(value)
}

// updateFlags replaces the condition flag based on the signed
// interpretation of value. Exactly one flag holds afterward.
func (cpu *Cpu) updateFlags(value uint16) {
	switch {
	case value == 0:
		cpu.Cond = FL_ZRO
	case value>>15 != 0:
		cpu.Cond = FL_NEG
	default:
		cpu.Cond = FL_POS
	}
}
