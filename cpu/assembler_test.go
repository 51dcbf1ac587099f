package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assemble(t *testing.T, lines ...string) (prog *Program) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(lines, "\n")))
	assert.NoError(err)

	return
}

func TestAssembleBasic(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		".ORIG x3000",
		"ADD R0, R1, #-3",
		"AND R2, R3, R4",
		"NOT R5, R6",
		"RET",
		"HALT",
		".END",
	)

	assert.Equal(uint16(0x3000), prog.Origin)
	assert.Equal([]uint16{0x107d, 0x54c4, 0x9bbf, 0xc1c0, 0xf025},
		prog.Image().Words)
}

func TestAssembleLabels(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		"        .ORIG x3000",
		"        LEA R0, MSG   ; point at the greeting",
		"        PUTS",
		"        BRnzp DONE",
		"MSG:    .STRINGZ \"Hi\"",
		"DONE:   HALT",
		"        .END",
	)

	assert.Equal([]uint16{
		0xe002, 0xf022, 0x0e03,
		'H', 'i', 0,
		0xf025,
	}, prog.Image().Words)
}

func TestAssembleBackwardBranch(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		".ORIG x3000",
		"LOOP ADD R0, R0, #-1",
		"     BRp LOOP",
		"     HALT",
	)

	// BRp at 0x3001 back to 0x3000: offset -2.
	assert.Equal([]uint16{0x103f, 0x03fe, 0xf025}, prog.Image().Words)
}

func TestAssembleMemoryOps(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		".ORIG x3000",
		"      LD  R0, DATA",
		"      LDI R1, PTR",
		"      LDR R2, R0, #1",
		"      ST  R0, DATA",
		"      STI R0, PTR",
		"      STR R0, R2, #-2",
		"      JSR SUB",
		"      HALT",
		"DATA  .FILL x1234",
		"PTR   .FILL DATA",
		"SUB   RET",
	)

	assert.Equal([]uint16{
		0x2007, // LD r0, +7 -> 0x3008
		0xa207, // LDI r1, +7 -> 0x3009
		0x6401, // LDR r2, r0, #1
		0x3004, // ST r0, +4 -> 0x3008
		0xb004, // STI r0, +4 -> 0x3009
		0x70be, // STR r0, r2, #-2
		0x4803, // JSR +3 -> 0x300a
		0xf025,
		0x1234,
		0x3008,
		0xc1c0,
	}, prog.Image().Words)
}

func TestAssembleDirectives(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		".ORIG x4000",
		".FILL #-1",
		".BLKW 3",
		".FILL 'A'",
		"TRAP x21",
	)

	assert.Equal(uint16(0x4000), prog.Origin)
	assert.Equal([]uint16{0xffff, 0, 0, 0, 'A', 0xf021}, prog.Image().Words)
}

func TestAssembleEquates(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		".EQU FIVE #5",
		".ORIG x3000",
		"ADD R0, R0, FIVE",
		".FILL $(FIVE * 2)",
	)

	assert.Equal([]uint16{0x1025, 10}, prog.Image().Words)
}

func TestAssemblePredefines(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("KBSR", "0xfe00")

	prog, err := asm.Parse(strings.NewReader(strings.Join([]string{
		".ORIG x3000",
		".FILL $(KBSR + 2)",
		".FILL KBSR",
	}, "\n")))
	assert.NoError(err)
	assert.Equal([]uint16{0xfe02, 0xfe00}, prog.Image().Words)
}

func TestAssembleDefaultOrigin(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t, "HALT")

	assert.Equal(PC_START, prog.Origin)
	assert.Equal([]uint16{0xf025}, prog.Image().Words)
}

func TestAssembleLineNumbers(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		".ORIG x3000",
		"ADD R0, R0, #1",
		"HALT",
	)

	assert.Equal(2, prog.LineFor(0x3000))
	assert.Equal(3, prog.LineFor(0x3001))
	assert.Equal(0, prog.LineFor(0x4000))
}

func TestAssembleErrors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		lines []string
		want  error
	}){
		{"label_missing", []string{"BRnzp NOWHERE"}, ErrLabelMissing("NOWHERE")},
		{"label_duplicate", []string{"A: HALT", "A: HALT"}, ErrLabelDuplicate},
		{"imm_range", []string{"ADD R0, R0, #16"}, ErrRange{Value: 16, Width: 5}},
		{"offset_range", []string{"LDR R0, R1, #32"}, ErrRange{Value: 32, Width: 6}},
		{"register", []string{"NOT R0, #1"}, ErrRegisterExpected},
		{"operands", []string{"ADD R0, R0"}, ErrOperandCount},
		{"opcode", []string{"A FOO R0"}, ErrOpcodeUnknown("FOO")},
		{"orig_duplicate", []string{".ORIG x3000", ".ORIG x4000"}, ErrOrigDuplicate},
		{"orig_late", []string{"HALT", ".ORIG x3000"}, ErrOrigSyntax},
		{"equate_duplicate", []string{".EQU A 1", ".EQU A 2"}, ErrEquateDuplicate},
		{"string_unclosed", []string{".STRINGZ \"oops"}, ErrStringUnclosed},
	}

	for _, entry := range table {
		asm := &Assembler{}
		_, err := asm.Parse(strings.NewReader(strings.Join(entry.lines, "\n")))
		assert.ErrorIs(err, entry.want, entry.name)

		var syntax *ErrSyntax
		assert.ErrorAs(err, &syntax, entry.name)
	}
}
