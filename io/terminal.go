package io

import (
	"bufio"
	"os"
	"sync"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Terminal is the interactive console: keys are collected from Input by a
// background reader into a small buffer so the keyboard status poll never
// blocks, and characters are written to Output through a buffered writer
// flushed by the output traps.
type Terminal struct {
	Input  *os.File
	Output *os.File

	keys chan byte
	out  *bufio.Writer
	once sync.Once
}

var _ Console = (*Terminal)(nil)

// NewTerminal creates a terminal console on stdin/stdout.
func NewTerminal() (t *Terminal) {
	t = &Terminal{
		Input:  os.Stdin,
		Output: os.Stdout,
	}

	return
}

// Raw places the input terminal into raw mode, disabling line buffering and
// echo. The returned restore function reinstates the original configuration
// and must run on every exit path. When Input is not a terminal (piped
// input), Raw is a no-op.
func (t *Terminal) Raw() (restore func(), err error) {
	restore = func() {}

	if !term.IsTerminal(int(t.Input.Fd())) {
		return
	}

	var saved unix.Termios
	err = termios.Tcgetattr(t.Input.Fd(), &saved)
	if err != nil {
		return
	}

	raw := saved
	raw.Lflag &^= unix.ICANON | unix.ECHO
	err = termios.Tcsetattr(t.Input.Fd(), termios.TCSANOW, &raw)
	if err != nil {
		return
	}

	restore = func() {
		termios.Tcsetattr(t.Input.Fd(), termios.TCSANOW, &saved)
	}

	return
}

// Start launches the background key reader. Safe to call more than once.
func (t *Terminal) Start() {
	t.once.Do(func() {
		t.keys = make(chan byte, 8)
		go t.poll()
	})
}

// poll moves keys from Input into the key buffer until Input fails.
func (t *Terminal) poll() {
	var one [1]byte
	for {
		n, err := t.Input.Read(one[:])
		if err != nil {
			close(t.keys)
			return
		}
		if n > 0 {
			t.keys <- one[0]
		}
	}
}

// Pending reports whether a key is buffered. Never blocks.
func (t *Terminal) Pending() bool {
	return len(t.keys) > 0
}

// ReadKey blocks until the next key arrives.
func (t *Terminal) ReadKey() (key byte, err error) {
	t.Start()

	key, ok := <-t.keys
	if !ok {
		err = ErrInputClosed
	}

	return
}

// WriteByte sends a character to the output stream.
func (t *Terminal) WriteByte(c byte) (err error) {
	if t.out == nil {
		t.out = bufio.NewWriter(t.Output)
	}

	return t.out.WriteByte(c)
}

// Flush drains buffered output to the underlying terminal.
func (t *Terminal) Flush() (err error) {
	if t.out == nil {
		return
	}

	return t.out.Flush()
}
