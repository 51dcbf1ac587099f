package io

import (
	"bytes"
)

// Buffer is a deterministic in-memory console for tests: keys are served
// from Input in order, and output characters accumulate in Output.
type Buffer struct {
	Input  []byte
	Output bytes.Buffer
}

var _ Console = (*Buffer)(nil)

// Pending reports whether any unread input remains.
func (b *Buffer) Pending() bool {
	return len(b.Input) > 0
}

// ReadKey pops the next input key. A blocking read against an empty buffer
// can never complete, so it reports ErrNoInput instead.
func (b *Buffer) ReadKey() (key byte, err error) {
	if len(b.Input) == 0 {
		err = ErrNoInput
		return
	}

	key = b.Input[0]
	b.Input = b.Input[1:]

	return
}

// WriteByte appends a character to the output.
func (b *Buffer) WriteByte(c byte) (err error) {
	return b.Output.WriteByte(c)
}

// Flush is a no-op; Buffer output is never deferred.
func (b *Buffer) Flush() (err error) {
	return
}
