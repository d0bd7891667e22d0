package io

import (
	"bytes"
)

// BufBinWriter is an additional layer on top of BinWriter that
// automatically creates a buffer to write into that you can get after all
// writes via Bytes().
type BufBinWriter struct {
	*BinWriter
	buf *bytes.Buffer
}

// NewBufBinWriter makes a BufBinWriter with an empty byte buffer.
func NewBufBinWriter() *BufBinWriter {
	b := new(bytes.Buffer)
	return &BufBinWriter{BinWriter: NewBinWriterFromIO(b), buf: b}
}

// Len returns the number of bytes of the unread portion of the buffer.
func (bw *BufBinWriter) Len() int {
	return bw.buf.Len()
}

// Bytes returns the resulting buffer and makes future writes return an error.
func (bw *BufBinWriter) Bytes() []byte {
	if bw.Err != nil {
		return nil
	}
	bw.Err = ErrDrained
	return bw.buf.Bytes()
}

// Reset resets the state of the buffer, making it usable again. The buffer
// returned by Bytes() is reused, so copy it if needed after Reset().
func (bw *BufBinWriter) Reset() {
	bw.Err = nil
	bw.buf.Reset()
}

// Grow tries to increase the underlying buffer capacity so that at least n
// bytes can be written without reallocation.
func (bw *BufBinWriter) Grow(n int) {
	bw.buf.Grow(n)
}
