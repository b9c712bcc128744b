package offsets

import (
	"github.com/m-stoeckel/duui-uima/internal/model"
)

// Decompose cuts text into the sentences described by boundaries. Offsets are
// character positions. The anchor of each sentence is its boundary's begin.
// A boundary that is inverted or exceeds the text fails the whole call.
func Decompose(text string, boundaries []model.SentenceOffsets) ([]model.Sentence, error) {
	sentences := make([]model.Sentence, 0, len(boundaries))
	if len(boundaries) == 0 {
		return sentences, nil
	}

	index := charIndex(text)
	textLen := len(index) - 1

	for i, b := range boundaries {
		if b.Begin < 0 || b.Begin > b.End || b.End > textLen {
			return nil, &BoundaryError{
				Index:   i,
				Begin:   b.Begin,
				End:     b.End,
				TextLen: textLen,
			}
		}
		sentences = append(sentences, model.Sentence{
			Text:   text[index[b.Begin]:index[b.End]],
			Anchor: b.Begin,
		})
	}

	return sentences, nil
}

// charIndex maps every character position of text to its byte position.
// The final entry is len(text).
func charIndex(text string) []int {
	index := make([]int, 0, len(text)+1)
	for i := range text {
		index = append(index, i)
	}
	return append(index, len(text))
}
