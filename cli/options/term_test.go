package options

import (
	"bytes"
	"io"

	"golang.org/x/term"
)

type readWriter struct {
	io.Reader
	io.Writer
}

func newTestTerm(in string) *term.Terminal {
	return term.NewTerminal(readWriter{bytes.NewBufferString(in), io.Discard}, "")
}
