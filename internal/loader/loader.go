// Package loader reads delimited record sources into fixed-arity field tuples.
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

// DefaultDelimiter separates fields in every record source.
const DefaultDelimiter = "\t"

const maxLineBytes = 1 << 20

// ErrFormat is matched by every FormatError.
var ErrFormat = errors.New("malformed record")

// FormatError reports a line whose field count does not match the source arity.
// It stops the affected source.
type FormatError struct {
	Source string
	Line   int
	Got    int
	Want   int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%q line %d: read %d fields but expected %d", e.Source, e.Line, e.Got, e.Want)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// Source is an already-opened record source.
type Source struct {
	Name   string
	Reader io.Reader
	// SkipHeader discards the first line before any arity check.
	SkipHeader bool
}

// Record is one split line. Line is the 1-based physical line number.
type Record struct {
	Line   int
	Fields []string
}

// Loader splits the lines of a source into exactly Arity fields.
type Loader struct {
	Arity     int
	Delimiter string
}

// New returns a tab-delimited loader for records of the given arity.
func New(arity int) *Loader {
	return &Loader{Arity: arity, Delimiter: DefaultDelimiter}
}

// Records lazily yields the records of src. Iteration ends after the first
// error: a *FormatError for a bad field count, or the underlying read error.
func (l *Loader) Records(src Source) iter.Seq2[Record, error] {
	delim := l.Delimiter
	if delim == "" {
		delim = DefaultDelimiter
	}

	return func(yield func(Record, error) bool) {
		sc := bufio.NewScanner(src.Reader)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

		n := 0
		for sc.Scan() {
			n++
			if src.SkipHeader && n == 1 {
				continue
			}

			fields := strings.Split(strings.TrimSpace(sc.Text()), delim)
			if len(fields) != l.Arity {
				yield(Record{Line: n}, &FormatError{Source: src.Name, Line: n, Got: len(fields), Want: l.Arity})
				return
			}
			if !yield(Record{Line: n, Fields: fields}, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(Record{Line: n + 1}, fmt.Errorf("read %s: %w", src.Name, err))
		}
	}
}
