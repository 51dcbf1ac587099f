// Package io provides console device implementations for the LC-3 emulator.
// The machine's only peripheral is the keyboard/display pair: the keyboard is
// polled through the memory-mapped status register, and the display is driven
// by the character output traps.
package io

// Keyboard is the input half of a console device.
type Keyboard interface {
	// Pending reports whether a key is ready. Never blocks.
	Pending() bool
	// ReadKey returns the next key, blocking until one arrives.
	ReadKey() (key byte, err error)
}

// Console is a full console device: a pollable keyboard plus a
// character output stream.
type Console interface {
	Keyboard
	// WriteByte sends a single character to the output stream.
	WriteByte(c byte) error
	// Flush drains any buffered output.
	Flush() error
}
