package callmonitor

import (
	"bytes"
	stderrors "errors"
	"strings"
	"unicode"
)

// ErrIncompleteFrame reports a stream that ended in the middle of a line.
var ErrIncompleteFrame = stderrors.New("stream closed with an incomplete line")

// lineFramer splits a byte stream into lines. Bytes after the last newline
// are kept until more data arrives, so lines may span any number of reads.
type lineFramer struct {
	pending []byte
}

// feed appends data and returns every line it completes, decoded and with
// trailing whitespace removed. Blank lines are dropped.
func (f *lineFramer) feed(data []byte) []string {
	f.pending = append(f.pending, data...)

	var lines []string
	for {
		i := bytes.IndexByte(f.pending, '\n')
		if i < 0 {
			break
		}
		if line := decodeLine(f.pending[:i]); line != "" {
			lines = append(lines, line)
		}
		f.pending = f.pending[i+1:]
	}

	if len(f.pending) == 0 {
		f.pending = nil
	}
	return lines
}

// finish is called at end of stream.
func (f *lineFramer) finish() error {
	rest := f.pending
	f.pending = nil
	if len(bytes.TrimSpace(rest)) > 0 {
		return ErrIncompleteFrame
	}
	return nil
}

func decodeLine(raw []byte) string {
	return strings.TrimRightFunc(strings.ToValidUTF8(string(raw), "\uFFFD"), unicode.IsSpace)
}
