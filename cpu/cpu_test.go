package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignExtend(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		field uint16
		width uint16
		out   uint16
	}){
		{"imm5_neg_one", 0x1f, 5, 0xffff},
		{"imm5_pos", 0x0f, 5, 0x000f},
		{"imm5_min", 0x10, 5, 0xfff0},
		{"off6_neg", 0x3f, 6, 0xffff},
		{"off6_pos", 0x1f, 6, 0x001f},
		{"off9_neg", 0x1ff, 9, 0xffff},
		{"off9_pos", 0x0ff, 9, 0x00ff},
		{"off11_neg", 0x7ff, 11, 0xffff},
		{"off11_pos", 0x3ff, 11, 0x03ff},
		{"zero", 0, 9, 0},
	}

	for _, entry := range table {
		assert.Equal(entry.out, signExtend(entry.field, entry.width), entry.name)
	}
}

func TestAddImmediate(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Reg[R1] = 5

	// ADD r0, r1, #-3
	err := cpu.Execute(0x107d)
	assert.NoError(err)
	assert.Equal(uint16(2), cpu.Reg[R0])
	assert.Equal(FL_POS, cpu.Cond)
}

func TestAddRegister(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Reg[R1] = 0xfffe
	cpu.Reg[R2] = 2

	// ADD r0, r1, r2 wraps to zero
	err := cpu.Execute(0x1042)
	assert.NoError(err)
	assert.Equal(uint16(0), cpu.Reg[R0])
	assert.Equal(FL_ZRO, cpu.Cond)
}

func TestAnd(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Reg[R1] = 0xff0f
	cpu.Reg[R2] = 0x0ff0

	// AND r0, r1, r2
	err := cpu.Execute(0x5042)
	assert.NoError(err)
	assert.Equal(uint16(0x0f00), cpu.Reg[R0])
	assert.Equal(FL_POS, cpu.Cond)
}

func TestNot(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Reg[R1] = 0x00ff

	// NOT r0, r1
	err := cpu.Execute(0x907f)
	assert.NoError(err)
	assert.Equal(uint16(0xff00), cpu.Reg[R0])
	assert.Equal(FL_NEG, cpu.Cond)
}

func TestFlagsExclusive(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		value uint16
		flag  Flag
	}){
		{"zero", 0x0000, FL_ZRO},
		{"positive", 0x0001, FL_POS},
		{"max_positive", 0x7fff, FL_POS},
		{"negative", 0x8000, FL_NEG},
		{"minus_one", 0xffff, FL_NEG},
	}

	for _, entry := range table {
		cpu := NewCpu()
		cpu.Reg[R1] = entry.value

		// ADD r0, r1, #0
		err := cpu.Execute(0x1060)
		assert.NoError(err, entry.name)
		assert.Equal(entry.value, cpu.Reg[R0], entry.name)
		assert.Equal(entry.flag, cpu.Cond, entry.name)
	}
}

func TestBranch(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		cond  Flag
		instr Instr
		pc    uint16
	}){
		// BRp #5 taken and not taken
		{"brp_taken", FL_POS, 0x0205, 0x3005},
		{"brp_skipped", FL_NEG, 0x0205, 0x3000},
		// BRnzp #-2 always taken
		{"br_back", FL_ZRO, 0x0ffe, 0x2ffe},
		// BRnz with ZRO set
		{"brnz_taken", FL_ZRO, 0x0c01, 0x3001},
	}

	for _, entry := range table {
		cpu := NewCpu()
		cpu.PC = 0x3000 // already advanced past the branch
		cpu.Cond = entry.cond

		err := cpu.Execute(entry.instr)
		assert.NoError(err, entry.name)
		assert.Equal(entry.pc, cpu.PC, entry.name)
	}
}

func TestJumpAndLink(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.PC = 0x3001
	cpu.Reg[R2] = 0x4000

	// JMP r2
	err := cpu.Execute(0xc080)
	assert.NoError(err)
	assert.Equal(uint16(0x4000), cpu.PC)

	// JSR #16 links r7 to the advanced PC
	cpu.PC = 0x3001
	err = cpu.Execute(0x4810)
	assert.NoError(err)
	assert.Equal(uint16(0x3001), cpu.Reg[R7])
	assert.Equal(uint16(0x3011), cpu.PC)

	// JSRR r2
	cpu.PC = 0x3001
	err = cpu.Execute(0x4080)
	assert.NoError(err)
	assert.Equal(uint16(0x3001), cpu.Reg[R7])
	assert.Equal(uint16(0x4000), cpu.PC)

	// RET is JMP r7
	cpu.Reg[R7] = 0x3456
	err = cpu.Execute(0xc1c0)
	assert.NoError(err)
	assert.Equal(uint16(0x3456), cpu.PC)
}

func TestLoadStore(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()

	// LD r0, #0x10 at PC 0x3001
	cpu.PC = 0x3001
	cpu.Mem.Write(0x3011, 0x1234)
	err := cpu.Execute(0x2010)
	assert.NoError(err)
	assert.Equal(uint16(0x1234), cpu.Reg[R0])
	assert.Equal(FL_POS, cpu.Cond)

	// LDR r1, r0, #-1
	cpu.Reg[R0] = 0x3012
	cpu.Mem.Write(0x3011, 0x8001)
	err = cpu.Execute(0x623f)
	assert.NoError(err)
	assert.Equal(uint16(0x8001), cpu.Reg[R1])
	assert.Equal(FL_NEG, cpu.Cond)

	// LEA r2, #-4 computes an address without touching memory
	cpu.PC = 0x3001
	err = cpu.Execute(0xe5fc)
	assert.NoError(err)
	assert.Equal(uint16(0x2ffd), cpu.Reg[R2])

	// ST r1, #2
	cpu.PC = 0x3001
	err = cpu.Execute(0x3202)
	assert.NoError(err)
	assert.Equal(uint16(0x8001), cpu.Mem.Read(0x3003))

	// STI r1, #3 stores through the pointer at PC+3
	cpu.PC = 0x3001
	cpu.Mem.Write(0x3004, 0x5000)
	err = cpu.Execute(0xb203)
	assert.NoError(err)
	assert.Equal(uint16(0x8001), cpu.Mem.Read(0x5000))

	// STR r1, r0, #1
	cpu.Reg[R0] = 0x5100
	err = cpu.Execute(0x7201)
	assert.NoError(err)
	assert.Equal(uint16(0x8001), cpu.Mem.Read(0x5101))
}

func TestLoadIndirect(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()

	// Value at A, pointer to A at B, LDI through B.
	cpu.Mem.Write(0x3100, 0xbeef) // A
	cpu.Mem.Write(0x3050, 0x3100) // B
	cpu.Mem.Write(0x3000, 0xa44f) // LDI r2, #0x4f -> B

	err := cpu.Step()
	assert.NoError(err)
	assert.Equal(uint16(0xbeef), cpu.Reg[R2])
	assert.Equal(FL_NEG, cpu.Cond)
	assert.Equal(uint16(0x3001), cpu.PC)
	assert.Equal(1, cpu.Ticks)
}

func TestFatalOpcodes(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		instr Instr
		want  error
	}){
		{"rti", 0x8000, ErrRti},
		{"reserved", 0xd000, ErrReserved},
	}

	for _, entry := range table {
		cpu := NewCpu()

		err := cpu.Execute(entry.instr)
		assert.ErrorIs(err, entry.want, entry.name)
		assert.ErrorIs(err, ErrInstr(entry.instr), entry.name)
		assert.True(cpu.Running, entry.name)
	}
}

func TestStepAdvancesBeforeExecute(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()

	// LEA r0, #0 yields the address after the instruction.
	cpu.Mem.Write(0x3000, 0xe000)
	err := cpu.Step()
	assert.NoError(err)
	assert.Equal(uint16(0x3001), cpu.Reg[R0])
}

func TestReset(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Reg[R3] = 77
	cpu.Mem.Write(0x3000, 0x1234)
	cpu.PC = 0x1234
	cpu.Cond = FL_NEG
	cpu.Running = false

	cpu.Reset()

	assert.Equal(uint16(0), cpu.Reg[R3])
	assert.Equal(uint16(0), cpu.Mem.Read(0x3000))
	assert.Equal(PC_START, cpu.PC)
	assert.Equal(FL_ZRO, cpu.Cond)
	assert.True(cpu.Running)
	assert.Equal(0, cpu.Ticks)
}
