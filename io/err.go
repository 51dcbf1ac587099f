package io

import (
	"errors"

	"github.com/ezrec/lc3/translate"
)

var f = translate.From

var (
	ErrNoInput     = errors.New(f("no input available"))
	ErrInputClosed = errors.New(f("input closed"))
)
