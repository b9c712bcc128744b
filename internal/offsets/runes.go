package offsets

import (
	"fmt"
	"unicode/utf8"
)

// Len returns the length of s in characters
func Len(s string) int {
	return utf8.RuneCountInString(s)
}

// Slice returns the characters of s in [begin, end). The caller guarantees
// 0 <= begin <= end <= Len(s).
func Slice(s string, begin, end int) string {
	start := byteIndex(s, begin)
	return s[start : start+byteIndex(s[start:], end-begin)]
}

// byteIndex returns the byte position of the n-th character of s, or len(s)
// when s has exactly n characters
func byteIndex(s string, n int) int {
	if n == 0 {
		return 0
	}
	count := 0
	for i := range s {
		if count == n {
			return i
		}
		count++
	}
	return len(s)
}

// ByteToChar converts a byte offset into s to a character offset. The byte
// offset must fall on a character boundary.
func ByteToChar(s string, byteOffset int) (int, error) {
	if byteOffset < 0 || byteOffset > len(s) {
		return 0, fmt.Errorf("byte offset %d out of range [0, %d]", byteOffset, len(s))
	}
	if byteOffset < len(s) && !utf8.RuneStart(s[byteOffset]) {
		return 0, fmt.Errorf("byte offset %d splits a character", byteOffset)
	}
	return utf8.RuneCountInString(s[:byteOffset]), nil
}

// ByteSpanToChar converts a [begin, end) byte span into s to character offsets
func ByteSpanToChar(s string, begin, end int) (int, int, error) {
	b, err := ByteToChar(s, begin)
	if err != nil {
		return 0, 0, err
	}
	e, err := ByteToChar(s, end)
	if err != nil {
		return 0, 0, err
	}
	return b, e, nil
}
