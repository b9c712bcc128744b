package offsets

import (
	"strings"
	"unicode"

	"github.com/m-stoeckel/duui-uima/internal/model"
)

// Normalize turns a backend entity into a sentence-local prediction. When the
// matched word starts with whitespace, begin is moved past it. The shift is
// counted in characters, the unit of the entity's offsets.
func Normalize(raw model.RawEntity) (model.Prediction, error) {
	begin := raw.Begin

	if raw.Begin < 0 || raw.End < 0 {
		return model.Prediction{}, &SpanError{Label: raw.Label, Begin: raw.Begin, End: raw.End, Word: raw.Word}
	}

	if strings.IndexFunc(raw.Word, unicode.IsSpace) == 0 {
		trimmed := strings.TrimLeftFunc(raw.Word, unicode.IsSpace)
		begin += Len(raw.Word) - Len(trimmed)
	}

	if begin > raw.End {
		return model.Prediction{}, &SpanError{Label: raw.Label, Begin: begin, End: raw.End, Word: raw.Word}
	}

	return model.NewPrediction(raw.Label, begin, raw.End), nil
}

// NormalizeAll normalizes the entities of one sentence of sentenceLen
// characters, preserving order. An entity ending past the sentence fails
// with a *RangeError.
func NormalizeAll(raws []model.RawEntity, sentenceLen int) ([]model.Prediction, error) {
	predictions := make([]model.Prediction, 0, len(raws))
	for _, raw := range raws {
		if raw.End > sentenceLen {
			return nil, &RangeError{Label: raw.Label, Begin: raw.Begin, End: raw.End, SentenceLen: sentenceLen}
		}
		p, err := Normalize(raw)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, p)
	}
	return predictions, nil
}
