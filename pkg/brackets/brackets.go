// Package brackets locates balanced delimiter regions in arbitrary source text.
//
// It does not tokenize the text: quotes, escapes and comments are not special.
// Only the opener of the requested pair and its closer affect nesting depth.
package brackets

import (
	"errors"
	"fmt"
)

// Delimiter is the opening character of a supported delimiter pair.
type Delimiter rune

const (
	// Round is the '(' ... ')' pair.
	Round Delimiter = '('
	// Square is the '[' ... ']' pair.
	Square Delimiter = '['
	// Curly is the '{' ... '}' pair.
	Curly Delimiter = '{'
	// Angle is the '<' ... '>' pair.
	Angle Delimiter = '<'
)

var closers = map[Delimiter]rune{
	Round:  ')',
	Square: ']',
	Curly:  '}',
	Angle:  '>',
}

// Closer returns the closing character paired with d.
func (d Delimiter) Closer() (rune, bool) {
	c, ok := closers[d]
	return c, ok
}

// Valid reports whether d is one of the supported openers.
func (d Delimiter) Valid() bool {
	_, ok := closers[d]
	return ok
}

// String returns the opener as a one-character string.
func (d Delimiter) String() string {
	return string(rune(d))
}

// ErrUnsupportedDelimiter is returned when Scan is called with an opener
// outside the supported set. It signals a programming error in the caller.
var ErrUnsupportedDelimiter = errors.New("unsupported delimiter")

// UnmatchedError reports an opener whose closer never appears.
type UnmatchedError struct {
	// Opener is the delimiter that was left open.
	Opener Delimiter
	// Offset is the rune offset of the unmatched opener.
	Offset int
	// File is the originating file, when the caller knows it.
	File string
}

// Error implements the error interface.
func (e *UnmatchedError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: no closing %q found for %q at offset %d", e.File, closerOf(e.Opener), e.Opener.String(), e.Offset)
	}
	return fmt.Sprintf("no closing %q found for %q at offset %d", closerOf(e.Opener), e.Opener.String(), e.Offset)
}

func closerOf(d Delimiter) string {
	c, _ := d.Closer()
	return string(c)
}

// IsUnmatched reports whether err is, or wraps, an *UnmatchedError.
func IsUnmatched(err error) bool {
	var u *UnmatchedError
	return errors.As(err, &u)
}

// WithFile returns err with the file path attached if err is an
// *UnmatchedError without one. Other errors are returned unchanged.
func WithFile(err error, file string) error {
	var u *UnmatchedError
	if !errors.As(err, &u) || u.File != "" {
		return err
	}
	tagged := *u
	tagged.File = file
	return &tagged
}

// Span is the inclusive rune range of one top-level balanced region.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of runes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start + 1
}

// Scan returns the top-level balanced regions of text that start with opener,
// in order of appearance. Regions of the same pair nested inside a returned
// span are not reported; scan the span's interior again to reach them.
//
// Offsets are rune offsets, not byte offsets.
func Scan(text string, opener Delimiter) ([]Span, error) {
	return scanRunes([]rune(text), opener)
}

func scanRunes(runes []rune, opener Delimiter) ([]Span, error) {
	closer, ok := opener.Closer()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDelimiter, opener.String())
	}

	var spans []Span
	open := rune(opener)
	position := 0

	for {
		start := indexFrom(runes, open, position)
		if start < 0 {
			break
		}

		depth := 1
		end := -1
		for i := start + 1; i < len(runes); i++ {
			switch runes[i] {
			case open:
				depth++
			case closer:
				depth--
			}
			if depth == 0 {
				end = i
				break
			}
		}

		if end < 0 {
			return nil, &UnmatchedError{Opener: opener, Offset: start}
		}

		spans = append(spans, Span{Start: start, End: end})
		position = end
	}

	return spans, nil
}

// indexFrom returns the first index >= from holding r, or -1.
func indexFrom(runes []rune, r rune, from int) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == r {
			return i
		}
	}
	return -1
}

// Extract returns the substrings of text covered by Scan's spans.
func Extract(text string, opener Delimiter) ([]string, error) {
	runes := []rune(text)
	spans, err := scanRunes(runes, opener)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(spans))
	for _, s := range spans {
		out = append(out, string(runes[s.Start:s.End+1]))
	}
	return out, nil
}
