package ner

import (
	"fmt"
	"math"
	"strings"

	"github.com/m-stoeckel/duui-uima/internal/model"
	"github.com/m-stoeckel/duui-uima/internal/offsets"
)

// tokenSpan is the [start, end) byte range of a token in the input text.
// Special tokens carry an empty span.
type tokenSpan [2]int

// groupTokens turns per-token logits into entities. Tokens tagged B-X start
// an entity, I-X continue one with the same base label, anything else closes
// it. Tokens whose softmax confidence is below minScore are treated as O.
func groupTokens(text string, logits []float32, numLabels int, id2label map[int]string, spans []tokenSpan, minScore float64) ([]model.RawEntity, error) {
	var (
		entities []model.RawEntity
		current  *model.RawEntity
		first    tokenSpan
		last     tokenSpan
		scores   []float64
	)

	flush := func() error {
		if current == nil {
			return nil
		}
		begin, end, err := offsets.ByteSpanToChar(text, first[0], last[1])
		if err != nil {
			return fmt.Errorf("%w: token span: %v", ErrAnnotator, err)
		}
		current.Begin = begin
		current.End = end
		current.Word = text[first[0]:last[1]]
		current.Score = mean(scores)
		entities = append(entities, *current)
		current = nil
		scores = nil
		return nil
	}

	for i, span := range spans {
		if span[0] == span[1] {
			continue
		}
		lo, hi := i*numLabels, (i+1)*numLabels
		if hi > len(logits) {
			break
		}

		best, confidence := argmaxSoftmax(logits[lo:hi])
		label, ok := id2label[best]
		if !ok || confidence < minScore {
			label = "O"
		}

		isInside := strings.HasPrefix(label, "I-")
		base := strings.TrimPrefix(strings.TrimPrefix(label, "B-"), "I-")

		switch {
		case label == "O":
			if err := flush(); err != nil {
				return nil, err
			}
		case isInside && current != nil && current.Label == base:
			last = span
			scores = append(scores, confidence)
		default:
			// B-X, a bare label, or an I-X that does not continue the open entity
			if err := flush(); err != nil {
				return nil, err
			}
			current = &model.RawEntity{Label: base}
			first, last = span, span
			scores = []float64{confidence}
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}
	return entities, nil
}

func argmaxSoftmax(logits []float32) (int, float64) {
	best := 0
	for j, v := range logits {
		if v > logits[best] {
			best = j
		}
	}
	top := float64(logits[best])
	var sum float64
	for _, v := range logits {
		sum += math.Exp(float64(v) - top)
	}
	return best, 1 / sum
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
