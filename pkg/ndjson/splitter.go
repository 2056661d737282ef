// Package ndjson provides incremental line framing for newline-delimited
// JSON streams.
//
// A Splitter accepts arbitrary byte fragments, as returned by successive
// reads of an HTTP response body, and yields every complete line found so
// far. The trailing partial line is retained until more bytes arrive or the
// source ends. The package does not parse JSON: framing and decoding are kept
// separate so the framing can be exercised against any fragmentation of the
// same input.
package ndjson

import (
	"bytes"
	"errors"
)

// ErrLineTooLong is returned by Splitter.Feed when a line, complete or
// still partial, grows beyond the configured MaxLineSize.
var ErrLineTooLong = errors.New("ndjson: line exceeds maximum size")

// Splitter is an incremental newline splitter.
//
// ┌────────────────┐   Feed   ┌──────────┐   lines   ┌─────────┐
// │ byte fragments │ ───────▶ │ Splitter │ ────────▶ │ decoder │
// └────────────────┘          └──────────┘           └─────────┘
//
//	│
//	▼
//	retained partial line (Rest)
//
// The zero value is ready to use and imposes no line size limit.
type Splitter struct {
	// MaxLineSize bounds every line in bytes, excluding the line
	// terminator. Zero means unlimited.
	MaxLineSize int

	pending []byte
}

// NewSplitter returns a Splitter bounded by maxLineSize (0 for unlimited).
func NewSplitter(maxLineSize int) *Splitter {
	return &Splitter{MaxLineSize: maxLineSize}
}

// Feed appends p to the retained buffer and returns all complete lines,
// in order, without their terminating newline. A single trailing "\r" is
// stripped from each line.
//
// When a line exceeds MaxLineSize, Feed returns the lines before it together
// with ErrLineTooLong. The oversized line stays buffered.
//
// Lines are only converted to strings once complete, so a multi-byte UTF-8
// sequence split across two fragments is reassembled before it is decoded.
func (s *Splitter) Feed(p []byte) ([]string, error) {
	s.pending = append(s.pending, p...)

	var lines []string
	for {
		i := bytes.IndexByte(s.pending, '\n')
		if i < 0 {
			break
		}

		line := trimCR(s.pending[:i])
		if s.MaxLineSize > 0 && len(line) > s.MaxLineSize {
			return lines, ErrLineTooLong
		}

		lines = append(lines, string(line))
		s.pending = s.pending[i+1:]
	}

	// Compact so the backing array does not grow without bound across a
	// long-lived stream.
	if cap(s.pending) > 2*len(s.pending) && cap(s.pending) > 4096 {
		s.pending = append([]byte(nil), s.pending...)
	}

	if s.MaxLineSize > 0 && len(s.pending) > s.MaxLineSize {
		return lines, ErrLineTooLong
	}

	return lines, nil
}

// Rest returns the retained partial line and clears it. Call it once the
// source has reported end-of-data.
func (s *Splitter) Rest() string {
	rest := string(trimCR(s.pending))
	s.pending = nil
	return rest
}

// Buffered returns the number of bytes currently retained.
func (s *Splitter) Buffered() int {
	return len(s.pending)
}

func trimCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		return b[:n-1]
	}
	return b
}
