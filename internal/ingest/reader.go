package ingest

// reader.go holds the io.Reader wrappers applied to uploads before parsing:
//
//   - sizeLimiter: fails the read once more than max bytes arrive
//   - utf8Sanitizer: replaces invalid UTF-8 bytes with '?'
//
// Both work on the stream so oversized or badly encoded files are handled
// without buffering the raw upload.

import (
	"errors"
	"io"
	"unicode/utf8"
)

// ErrFileTooLarge is returned once the input exceeds Options.MaxBytes.
var ErrFileTooLarge = errors.New("file too large")

type sizeLimiter struct {
	src  io.Reader
	max  int64
	read int64
}

func (l *sizeLimiter) Read(p []byte) (int, error) {
	n, err := l.src.Read(p)
	l.read += int64(n)
	if l.read > l.max {
		return n, ErrFileTooLarge
	}
	return n, err
}

// utf8Sanitizer copies its source, substituting '?' for each byte that does
// not start a valid UTF-8 sequence. A multi-byte rune split across two
// source reads is held back until it is complete.
type utf8Sanitizer struct {
	src   io.Reader
	chunk []byte
	raw   []byte // undecoded tail
	out   []byte // sanitized bytes not yet returned
	err   error
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{src: r, chunk: make([]byte, 32*1024)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		n, err := s.src.Read(s.chunk)
		s.raw = append(s.raw, s.chunk[:n]...)
		if err != nil {
			s.err = err
		}
		s.out = s.decode(s.out[:0], s.err != nil)
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

// decode appends the sanitized form of s.raw to dst. Unless final is set, an
// incomplete rune at the end of s.raw is kept for the next call.
func (s *utf8Sanitizer) decode(dst []byte, final bool) []byte {
	i := 0
	for i < len(s.raw) {
		rest := s.raw[i:]
		if rest[0] < utf8.RuneSelf {
			dst = append(dst, rest[0])
			i++
			continue
		}
		if !final && !utf8.FullRune(rest) {
			break
		}
		r, size := utf8.DecodeRune(rest)
		if r == utf8.RuneError && size == 1 {
			dst = append(dst, '?')
		} else {
			dst = append(dst, rest[:size]...)
		}
		i += size
	}
	s.raw = append(s.raw[:0], s.raw[i:]...)
	return dst
}
