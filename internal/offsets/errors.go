package offsets

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBoundary is returned when a sentence boundary is inverted or
	// falls outside the full text
	ErrInvalidBoundary = errors.New("invalid sentence boundary")

	// ErrOffsetUnitMismatch is returned when whitespace correction moves an
	// entity's begin past its end
	ErrOffsetUnitMismatch = errors.New("offset unit mismatch")
)

// BoundaryError describes the boundary that failed decomposition
type BoundaryError struct {
	Index   int // Position of the boundary in the request
	Begin   int
	End     int
	TextLen int // Length of the full text in characters
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("%s: sentence %d [%d, %d) out of range for text of %d characters",
		ErrInvalidBoundary, e.Index, e.Begin, e.End, e.TextLen)
}

func (e *BoundaryError) Unwrap() error {
	return ErrInvalidBoundary
}

// SpanError describes an entity whose span is inconsistent after correction
type SpanError struct {
	Label string
	Begin int
	End   int
	Word  string
}

func (e *SpanError) Error() string {
	return fmt.Sprintf("%s: entity %q (%s) has begin %d past end %d",
		ErrOffsetUnitMismatch, e.Word, e.Label, e.Begin, e.End)
}

func (e *SpanError) Unwrap() error {
	return ErrOffsetUnitMismatch
}

// ErrSpanOutOfRange is returned when a backend reports an entity that ends
// past the sentence it was found in
var ErrSpanOutOfRange = errors.New("entity span out of range")

// RangeError describes an entity that does not fit its sentence
type RangeError struct {
	Label       string
	Begin       int
	End         int
	SentenceLen int // Length of the sentence in characters
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: entity %s [%d, %d) exceeds sentence of %d characters",
		ErrSpanOutOfRange, e.Label, e.Begin, e.End, e.SentenceLen)
}

func (e *RangeError) Unwrap() error {
	return ErrSpanOutOfRange
}
