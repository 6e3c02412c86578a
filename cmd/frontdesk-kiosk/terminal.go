package main

import (
	"bytes"
	"io"
)

// crlfWriter restores the carriage return a raw terminal no longer adds
// after each newline.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
