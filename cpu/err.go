package cpu

import (
	"errors"

	"github.com/ezrec/lc3/translate"
)

var f = translate.From

var (
	// Machine errors
	ErrRti       = errors.New(f("rti unsupported"))
	ErrReserved  = errors.New(f("reserved opcode"))
	ErrNoConsole = errors.New(f("no console attached"))

	// Image errors
	ErrImageShort = errors.New(f("image truncated"))
	ErrImageOdd   = errors.New(f("image has a partial word"))

	// Assembler errors
	ErrOrigSyntax       = errors.New(f(".ORIG syntax"))
	ErrOrigDuplicate    = errors.New(f(".ORIG duplicated"))
	ErrEquateSyntax     = errors.New(f(".EQU syntax"))
	ErrEquateDuplicate  = errors.New(f(".EQU duplicated"))
	ErrLabelDuplicate   = errors.New(f("label duplicated"))
	ErrOperandCount     = errors.New(f("operand count"))
	ErrOperandMissing   = errors.New(f("operand missing"))
	ErrStringUnquoted   = errors.New(f("string literal expected"))
	ErrStringUnclosed   = errors.New(f("string literal unclosed"))
	ErrRegisterExpected = errors.New(f("register expected"))
)

// ErrInstr reports the instruction word that failed to execute.
type ErrInstr Instr

func (ei ErrInstr) Error() string {
	return f("bad instruction x%04X %v", uint16(ei), Instr(ei).Op())
}

func (ei ErrInstr) Is(err error) (ok bool) {
	_, ok = err.(ErrInstr)
	return
}

// ErrTrapVector reports a trap selector outside the implemented set.
type ErrTrapVector TrapVector

func (ev ErrTrapVector) Error() string {
	return f("bad trap vector x%02X", uint16(ev))
}

func (ev ErrTrapVector) Is(err error) (ok bool) {
	_, ok = err.(ErrTrapVector)
	return
}

// ErrLabelMissing reports an unresolved label reference.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrOpcodeUnknown reports an unrecognized mnemonic or directive.
type ErrOpcodeUnknown string

func (eo ErrOpcodeUnknown) Error() string {
	return f("opcode %v unknown", string(eo))
}

// ErrParseNumber reports a word that is not a numeric literal.
type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

// ErrParseExpression reports a $( ... ) expression that failed to evaluate.
type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrRange reports a value that does not fit its instruction field.
type ErrRange struct {
	Value int
	Width int
}

func (err ErrRange) Error() string {
	return f("value %d does not fit in %d bits", err.Value, err.Width)
}

// ErrSyntax locates an assembler error in its source line.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}
