package ingest

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestUTF8Sanitizer(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "valid ASCII",
			input:    []byte("hello,world"),
			expected: "hello,world",
		},
		{
			name:     "valid UTF-8 with multibyte",
			input:    []byte("grüße,café"),
			expected: "grüße,café",
		},
		{
			name:     "invalid single byte replaced",
			input:    []byte{'h', 'e', 0x80, 'l', 'o'},
			expected: "he?lo",
		},
		{
			name:     "truncated rune at end",
			input:    []byte{'a', 0xC3},
			expected: "a?",
		},
		{
			name:     "latin-1 bytes",
			input:    []byte{'c', 'a', 'f', 0xE9, ',', '1'},
			expected: "caf?,1",
		},
		{
			name:     "empty input",
			input:    []byte{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(newUTF8Sanitizer(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

// A multi-byte rune split across reads must come out intact.
func TestUTF8Sanitizer_SplitRune(t *testing.T) {
	input := "naïve,日本,ok"
	r := newUTF8Sanitizer(iotest.OneByteReader(strings.NewReader(input)))

	result, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != input {
		t.Errorf("got %q, want %q", string(result), input)
	}
}

func TestUTF8Sanitizer_LargeInput(t *testing.T) {
	// Crosses the internal chunk boundary with multi-byte runes.
	input := strings.Repeat("é,ü\n", 20000)

	result, err := io.ReadAll(newUTF8Sanitizer(strings.NewReader(input)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != input {
		t.Errorf("output differs from input (len %d vs %d)", len(result), len(input))
	}
}

func TestUTF8Sanitizer_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	r := newUTF8Sanitizer(io.MultiReader(strings.NewReader("abc"), iotest.ErrReader(boom)))

	result, err := io.ReadAll(r)
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want boom", err)
	}
	if string(result) != "abc" {
		t.Errorf("got %q before the error, want %q", result, "abc")
	}
}

func TestSizeLimiter(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		max     int64
		wantErr bool
	}{
		{"under limit", "hello", 10, false},
		{"at limit", "hello", 5, false},
		{"over limit", "hello world", 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := io.ReadAll(&sizeLimiter{src: strings.NewReader(tt.input), max: tt.max})
			if tt.wantErr && !errors.Is(err, ErrFileTooLarge) {
				t.Errorf("error = %v, want ErrFileTooLarge", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
