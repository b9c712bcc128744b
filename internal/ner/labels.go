package ner

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// loadLabels reads an id2label mapping from a Hugging Face style config.json
// or a bare {"0": "O", ...} object and returns it with the label count.
func loadLabels(path string) (map[int]string, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read labels: %w", err)
	}

	var wrapped struct {
		ID2Label map[string]string `json:"id2label"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, 0, fmt.Errorf("parse labels: %w", err)
	}
	raw := wrapped.ID2Label
	if len(raw) == 0 {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, 0, fmt.Errorf("parse labels: %w", err)
		}
	}

	id2label := make(map[int]string, len(raw))
	numLabels := 0
	for key, label := range raw {
		id, err := strconv.Atoi(key)
		if err != nil || id < 0 {
			continue
		}
		id2label[id] = label
		if id >= numLabels {
			numLabels = id + 1
		}
	}
	if numLabels == 0 {
		return nil, 0, fmt.Errorf("no labels in %s", path)
	}

	return id2label, numLabels, nil
}
