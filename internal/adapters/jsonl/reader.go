// Package jsonl provides a streaming JSONL line reader with a per-line
// size cap. Session logs are foreign append-only files that can carry
// arbitrarily large records; oversized lines are flagged and consumed
// rather than aborting the stream.
package jsonl

import (
	"bufio"
	"bytes"
	"io"
)

// Line is a single JSONL line. Data excludes trailing newline bytes.
// TooLong marks a line that exceeded the cap; its Data is nil but the
// stream position has advanced past it.
type Line struct {
	Data    []byte
	TooLong bool
}

// Reader streams JSONL lines from an io.Reader.
type Reader struct {
	br           *bufio.Reader
	maxLineBytes int
}

// NewReader creates a streaming reader. maxLineBytes of 0 disables the
// per-line cap.
func NewReader(r io.Reader, maxLineBytes int) *Reader {
	return &Reader{
		br:           bufio.NewReader(r),
		maxLineBytes: maxLineBytes,
	}
}

// Next reads the next line. It returns io.EOF when no data remains.
func (r *Reader) Next() (Line, error) {
	var (
		buf     []byte
		tooLong bool
	)

	for {
		part, err := r.br.ReadSlice('\n')

		if !tooLong {
			if r.maxLineBytes > 0 && len(buf)+len(part) > r.maxLineBytes {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, part...)
			}
		}

		if err == bufio.ErrBufferFull {
			continue
		}
		if err == io.EOF {
			if len(part) == 0 && len(buf) == 0 && !tooLong {
				return Line{}, io.EOF
			}
		} else if err != nil {
			return Line{}, err
		}

		if tooLong {
			return Line{TooLong: true}, nil
		}
		return Line{Data: trimLine(buf)}, nil
	}
}

func trimLine(b []byte) []byte {
	b = bytes.TrimSuffix(b, []byte{'\n'})
	b = bytes.TrimSuffix(b, []byte{'\r'})
	return b
}
