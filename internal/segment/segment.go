// Package segment builds annotation requests from raw text: joining lines
// with recorded sentence boundaries, splitting prose into sentences, and
// extracting visible text from HTML.
package segment

import (
	"strings"
	"unicode"

	"github.com/m-stoeckel/duui-uima/internal/model"
	"github.com/m-stoeckel/duui-uima/internal/offsets"
)

// FromLines joins lines with "\n" and records each line as one sentence.
// Offsets are in characters.
func FromLines(lines []string, language string) model.Request {
	var b strings.Builder
	sentences := make([]model.SentenceOffsets, 0, len(lines))

	pos := 0
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
			pos++
		}
		n := offsets.Len(line)
		sentences = append(sentences, model.SentenceOffsets{Begin: pos, End: pos + n})
		b.WriteString(line)
		pos += n
	}

	return model.Request{
		Text:      b.String(),
		Language:  language,
		Sentences: sentences,
	}
}

// Chunk splits lines into groups of at most size lines. The last group may
// be shorter.
func Chunk(lines []string, size int) [][]string {
	if size <= 0 {
		size = len(lines)
	}
	var chunks [][]string
	for start := 0; start < len(lines); start += size {
		end := start + size
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, lines[start:end])
	}
	return chunks
}

// Split finds sentence boundaries in text. A sentence ends at '.', '!' or
// '?' followed by whitespace, or at a newline. Leading and trailing
// whitespace is excluded from each sentence and blank sentences are skipped.
func Split(text string) []model.SentenceOffsets {
	runes := []rune(text)
	sentences := []model.SentenceOffsets{}

	emit := func(begin, end int) {
		for begin < end && unicode.IsSpace(runes[begin]) {
			begin++
		}
		for end > begin && unicode.IsSpace(runes[end-1]) {
			end--
		}
		if begin < end {
			sentences = append(sentences, model.SentenceOffsets{Begin: begin, End: end})
		}
	}

	start := 0
	for i, r := range runes {
		switch {
		case r == '\n':
			emit(start, i)
			start = i + 1
		case r == '.' || r == '!' || r == '?':
			if i+1 < len(runes) && (runes[i+1] == ' ' || runes[i+1] == '\t') {
				emit(start, i+1)
				start = i + 1
			}
		}
	}
	emit(start, len(runes))

	return sentences
}
