// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a single-pass assembler for LC-3 assembly. Forward label
// references are recorded on their opcodes and patched by a final link
// pass once every label address is known.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of labels to addresses.
	Equate    map[string]string // Map of equates.

	origin    int
	hasOrigin bool
	ended     bool
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// Branch mnemonics and their n/z/p condition masks.
var brMap = map[string]Flag{
	"BR":    FL_NEG | FL_ZRO | FL_POS,
	"BRN":   FL_NEG,
	"BRZ":   FL_ZRO,
	"BRP":   FL_POS,
	"BRNZ":  FL_NEG | FL_ZRO,
	"BRNP":  FL_NEG | FL_POS,
	"BRZP":  FL_ZRO | FL_POS,
	"BRNZP": FL_NEG | FL_ZRO | FL_POS,
}

// Trap routine aliases.
var trapMap = map[string]TrapVector{
	"GETC":  TRAP_GETC,
	"OUT":   TRAP_OUT,
	"PUTS":  TRAP_PUTS,
	"IN":    TRAP_IN,
	"PUTSP": TRAP_PUTSP,
	"HALT":  TRAP_HALT,
}

// The non-branch instruction mnemonics.
var opMap = map[string]Op{
	"ADD":  OP_ADD,
	"AND":  OP_AND,
	"NOT":  OP_NOT,
	"JMP":  OP_JMP,
	"RET":  OP_JMP,
	"JSR":  OP_JSR,
	"JSRR": OP_JSR,
	"LD":   OP_LD,
	"LDI":  OP_LDI,
	"LDR":  OP_LDR,
	"LEA":  OP_LEA,
	"ST":   OP_ST,
	"STI":  OP_STI,
	"STR":  OP_STR,
	"TRAP": OP_TRAP,
	"RTI":  OP_RTI,
}

// isMnemonic reports whether a word starts an instruction or directive,
// as opposed to defining a label.
func isMnemonic(word string) (ok bool) {
	if strings.HasPrefix(word, ".") {
		return true
	}

	up := strings.ToUpper(word)
	if _, ok = opMap[up]; ok {
		return
	}
	if _, ok = brMap[up]; ok {
		return
	}
	_, ok = trapMap[up]

	return
}

// parseReg parses a register name r0-r7.
func parseReg(word string) (r uint16, err error) {
	low := strings.ToLower(word)
	if len(low) != 2 || low[0] != 'r' || low[1] < '0' || low[1] > '7' {
		err = ErrRegisterExpected
		return
	}

	r = uint16(low[1] - '0')

	return
}

// valueOf returns the value of a numeric literal: #n decimal, xNNNN hex,
// or any strconv base-0 form.
func (asm *Assembler) valueOf(word string) (value int, err error) {
	if len(word) == 0 {
		err = ErrParseNumber(word)
		return
	}

	var v64 int64
	var perr error
	switch {
	case word[0] == '#':
		v64, perr = strconv.ParseInt(word[1:], 10, 32)
	case (word[0] == 'x' || word[0] == 'X') && len(word) > 1:
		v64, perr = strconv.ParseInt(word[1:], 16, 32)
	default:
		v64, perr = strconv.ParseInt(word, 0, 32)
	}
	if perr != nil {
		err = ErrParseNumber(word)
		return
	}

	value = int(v64)

	return
}

// checkField verifies that value fits a field of the given width: the
// signed two's-complement range for offsets and immediates, widened to
// the unsigned range for raw fields like .FILL and trap vectors.
func checkField(value, width int, signed bool) (err error) {
	lo := -(1 << (width - 1))
	hi := (1 << width) - 1
	if signed {
		hi = (1 << (width - 1)) - 1
	}

	if value < lo || value > hi {
		err = ErrRange{Value: value, Width: width}
	}

	return
}

// parenEval evaluates a $( ... ) expression via starlark, with all
// current equates and labels bound as integers.
func (asm *Assembler) parenEval(expr string) (value int, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		val, verr := asm.valueOf(str)
		if verr != nil {
			// Ignore non-integer equates.
			continue
		}
		pred[key] = starlark.MakeInt(val)
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(addr)
	}

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = int(st_int64)

	return
}

// splitWords tokenizes a source line: whitespace and commas separate
// words, a semicolon starts a comment, and double quotes group a string
// literal into a single word.
func splitWords(line string) (words []string, err error) {
	n := 0
	for n < len(line) {
		c := line[n]
		switch {
		case c == ' ' || c == '\t' || c == ',':
			n++
		case c == ';':
			return
		case c == '"':
			start := n
			n++
			for n < len(line) && line[n] != '"' {
				if line[n] == '\\' {
					n++
				}
				n++
			}
			if n >= len(line) {
				err = ErrStringUnclosed
				return
			}
			n++
			words = append(words, line[start:n])
		default:
			start := n
			for n < len(line) && !strings.ContainsRune(" \t,;", rune(line[n])) {
				n++
			}
			words = append(words, line[start:n])
		}
	}

	return
}

// unquote decodes a .STRINGZ literal, including escape sequences.
func unquote(word string) (text string, err error) {
	if len(word) < 2 || word[0] != '"' || word[len(word)-1] != '"' {
		err = ErrStringUnquoted
		return
	}

	var sb strings.Builder
	body := word[1 : len(word)-1]
	for n := 0; n < len(body); n++ {
		c := body[n]
		if c != '\\' || n+1 >= len(body) {
			sb.WriteByte(c)
			continue
		}
		n++
		switch body[n] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'e':
			sb.WriteByte(0x1b)
		case '0':
			sb.WriteByte(0)
		default:
			sb.WriteByte(body[n])
		}
	}
	text = sb.String()

	return
}

// parseLine expands a single source line into opcode words: character
// quotes and $( ... ) expressions become numeric literals, labels are
// recorded at the current address, and equates substitute into operands.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	re := regexp.MustCompile(`'\\?[^']'`)
	line = re.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			switch str[1] {
			case '\\':
				str = "\\"
			case 'n':
				str = "\n"
			case 'r':
				str = "\r"
			case 't':
				str = "\t"
			case 'e':
				str = "\033"
			case '0':
				str = "\000"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	re = regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	words, err = splitWords(line)
	if err != nil || len(words) == 0 {
		return
	}

	// .EQU CONST VALUE
	if strings.EqualFold(words[0], ".EQU") {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	define := func(label string) (derr error) {
		_, ok := asm.Label[label]
		if ok {
			return ErrLabelDuplicate
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentAddr()

		return
	}

	// Leading labels: any number with a trailing colon, plus at most one
	// bare label. Anything left that is not a mnemonic is reported by
	// parseWords.
	for len(words) > 0 && strings.HasSuffix(words[0], ":") {
		err = define(words[0][:len(words[0])-1])
		if err != nil {
			return
		}
		words = words[1:]
	}
	if len(words) > 0 && !isMnemonic(words[0]) {
		if _, verr := asm.valueOf(words[0]); verr != nil {
			err = define(words[0])
			if err != nil {
				return
			}
			words = words[1:]
		}
	}

	// Equate substitution on operands only; the six trap aliases double
	// as predefined vector numbers, so the mnemonic position is exempt.
	for n := 1; n < len(words); n++ {
		equate, ok := asm.Equate[words[n]]
		if ok {
			words[n] = equate
		}
	}

	return
}

// currentAddr gets the current load address.
func (asm *Assembler) currentAddr() int {
	if len(asm.Opcode) == 0 {
		return asm.origin
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Addr + len(last.Codes)
}

// fieldOrLabel encodes a numeric operand into a field of the given
// width, or defers an identifier to the link pass.
func (asm *Assembler) fieldOrLabel(word string, width int, signed bool, op *Opcode) (bits Instr, err error) {
	value, verr := asm.valueOf(word)
	if verr != nil {
		op.LinkLabel = word
		op.LinkWidth = width
		return
	}

	err = checkField(value, width, signed)
	if err != nil {
		return
	}
	bits = Instr(value & ((1 << width) - 1))

	return
}

// parseWords assembles one line of opcode words at the current address.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	if len(words) == 0 {
		return
	}

	op := Opcode{
		LineNo: lineno,
		Addr:   asm.currentAddr(),
		Words:  slices.Clone(words),
	}

	name := strings.ToUpper(words[0])
	args := words[1:]

	emit := func(code Instr) {
		op.Codes = append(op.Codes, code)
	}

	switch {
	case name == ".ORIG":
		if len(args) != 1 {
			return ErrOrigSyntax
		}
		if asm.hasOrigin {
			return ErrOrigDuplicate
		}
		if len(asm.Opcode) > 0 {
			return ErrOrigSyntax
		}
		var value int
		value, err = asm.valueOf(args[0])
		if err != nil {
			return
		}
		asm.origin = value & 0xffff
		asm.hasOrigin = true
		op.Addr = asm.origin
	case name == ".END":
		asm.ended = true
	case name == ".FILL":
		if len(args) != 1 {
			return ErrOperandCount
		}
		var bits Instr
		bits, err = asm.fieldOrLabel(args[0], 16, false, &op)
		if err != nil {
			return
		}
		emit(bits)
	case name == ".BLKW":
		if len(args) != 1 {
			return ErrOperandCount
		}
		var count int
		count, err = asm.valueOf(args[0])
		if err != nil {
			return
		}
		for range count {
			emit(0)
		}
	case name == ".STRINGZ":
		if len(args) != 1 {
			return ErrOperandCount
		}
		var text string
		text, err = unquote(args[0])
		if err != nil {
			return
		}
		for n := 0; n < len(text); n++ {
			emit(Instr(text[n]))
		}
		emit(0)
	case name == "ADD" || name == "AND":
		if len(args) != 3 {
			return ErrOperandCount
		}
		var dr, sr1 uint16
		dr, err = parseReg(args[0])
		if err != nil {
			return
		}
		sr1, err = parseReg(args[1])
		if err != nil {
			return
		}
		code := Instr(opMap[name])<<12 | Instr(dr)<<9 | Instr(sr1)<<6
		sr2, rerr := parseReg(args[2])
		if rerr == nil {
			code |= Instr(sr2)
		} else {
			var value int
			value, err = asm.valueOf(args[2])
			if err != nil {
				return
			}
			err = checkField(value, 5, true)
			if err != nil {
				return
			}
			code |= 1<<5 | Instr(value&0x1f)
		}
		emit(code)
	case name == "NOT":
		if len(args) != 2 {
			return ErrOperandCount
		}
		var dr, sr uint16
		dr, err = parseReg(args[0])
		if err != nil {
			return
		}
		sr, err = parseReg(args[1])
		if err != nil {
			return
		}
		emit(Instr(OP_NOT)<<12 | Instr(dr)<<9 | Instr(sr)<<6 | 0x3f)
	case name == "JMP":
		if len(args) != 1 {
			return ErrOperandCount
		}
		var base uint16
		base, err = parseReg(args[0])
		if err != nil {
			return
		}
		emit(Instr(OP_JMP)<<12 | Instr(base)<<6)
	case name == "RET":
		if len(args) != 0 {
			return ErrOperandCount
		}
		emit(Instr(OP_JMP)<<12 | Instr(R7)<<6)
	case name == "JSR":
		if len(args) != 1 {
			return ErrOperandCount
		}
		var bits Instr
		bits, err = asm.fieldOrLabel(args[0], 11, true, &op)
		if err != nil {
			return
		}
		emit(Instr(OP_JSR)<<12 | 1<<11 | bits)
	case name == "JSRR":
		if len(args) != 1 {
			return ErrOperandCount
		}
		var base uint16
		base, err = parseReg(args[0])
		if err != nil {
			return
		}
		emit(Instr(OP_JSR)<<12 | Instr(base)<<6)
	case name == "LD" || name == "LDI" || name == "LEA" || name == "ST" || name == "STI":
		if len(args) != 2 {
			return ErrOperandCount
		}
		var reg uint16
		reg, err = parseReg(args[0])
		if err != nil {
			return
		}
		var bits Instr
		bits, err = asm.fieldOrLabel(args[1], 9, true, &op)
		if err != nil {
			return
		}
		emit(Instr(opMap[name])<<12 | Instr(reg)<<9 | bits)
	case name == "LDR" || name == "STR":
		if len(args) != 3 {
			return ErrOperandCount
		}
		var reg, base uint16
		reg, err = parseReg(args[0])
		if err != nil {
			return
		}
		base, err = parseReg(args[1])
		if err != nil {
			return
		}
		var value int
		value, err = asm.valueOf(args[2])
		if err != nil {
			return
		}
		err = checkField(value, 6, true)
		if err != nil {
			return
		}
		emit(Instr(opMap[name])<<12 | Instr(reg)<<9 | Instr(base)<<6 | Instr(value&0x3f))
	case name == "TRAP":
		if len(args) != 1 {
			return ErrOperandCount
		}
		var value int
		value, err = asm.valueOf(args[0])
		if err != nil {
			return
		}
		err = checkField(value, 8, false)
		if err != nil {
			return
		}
		emit(Instr(OP_TRAP)<<12 | Instr(value&0xff))
	case name == "RTI":
		if len(args) != 0 {
			return ErrOperandCount
		}
		emit(Instr(OP_RTI) << 12)
	default:
		if mask, ok := brMap[name]; ok {
			if len(args) != 1 {
				return ErrOperandCount
			}
			var bits Instr
			bits, err = asm.fieldOrLabel(args[0], 9, true, &op)
			if err != nil {
				return
			}
			emit(Instr(OP_BR)<<12 | Instr(mask)<<9 | bits)
			break
		}
		if vector, ok := trapMap[name]; ok {
			if len(args) != 0 {
				return ErrOperandCount
			}
			emit(Instr(OP_TRAP)<<12 | Instr(vector))
			break
		}
		return ErrOpcodeUnknown(words[0])
	}

	asm.Opcode = append(asm.Opcode, op)

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	asm.origin = int(PC_START)
	asm.hasOrigin = false
	asm.ended = false
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		line = scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, line)
		}

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}

		if asm.ended {
			break
		}
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	// Final linking of labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		lineno = op.LineNo
		line = strings.Join(op.Words, " ")

		target, ok := asm.Label[op.LinkLabel]
		if !ok {
			err = ErrLabelMissing(op.LinkLabel)
			return
		}

		linked := &op.Codes[len(op.Codes)-1]
		if op.LinkWidth == 16 {
			// Absolute: .FILL with a label operand.
			*linked = Instr(target & 0xffff)
			continue
		}

		offset := target - (op.Addr + 1)
		err = checkField(offset, op.LinkWidth, true)
		if err != nil {
			return
		}
		*linked |= Instr(offset & ((1 << op.LinkWidth) - 1))
	}

	prog = &Program{
		Origin:  uint16(asm.origin),
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}
