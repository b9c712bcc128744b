package offsets

import (
	"fmt"

	"github.com/m-stoeckel/duui-uima/internal/model"
)

// Reconcile translates sentence-local predictions into full-text coordinates
// by adding each sentence's anchor, and concatenates them in sentence order.
// Within a sentence the backend's order is kept. Nothing is sorted, merged or
// deduplicated.
func Reconcile(local [][]model.Prediction, anchors []int) ([]model.Prediction, error) {
	if len(local) != len(anchors) {
		return nil, fmt.Errorf("reconcile: %d sentence results for %d anchors", len(local), len(anchors))
	}

	total := 0
	for _, ps := range local {
		total += len(ps)
	}

	predictions := make([]model.Prediction, 0, total)
	for i, ps := range local {
		for _, p := range ps {
			predictions = append(predictions, p.WithOffset(anchors[i]))
		}
	}

	return predictions, nil
}

// Anchors returns the anchor offsets of the given sentences
func Anchors(sentences []model.Sentence) []int {
	anchors := make([]int, len(sentences))
	for i, s := range sentences {
		anchors[i] = s.Anchor
	}
	return anchors
}
