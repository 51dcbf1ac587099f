// Package cpu implements the LC-3 machine and its assembler.
//
// The machine is a 16-bit word-addressed computer: eight general-purpose
// registers (r0-r7), a program counter, a three-way condition flag, 65536
// words of memory with a memory-mapped keyboard, sixteen opcodes, and six
// trap routines for character I/O. Execution is a synchronous
// fetch-decode-execute loop; the only blocking points are the GETC and IN
// traps, which wait on console input.
//
// The assembler translates standard LC-3 assembly (labels, .ORIG/.FILL/
// .BLKW/.STRINGZ directives, trap aliases) into loadable program images,
// with compile-time expression evaluation via Starlark.
package cpu
