package ner

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/m-stoeckel/duui-uima/internal/model"
	"github.com/m-stoeckel/duui-uima/internal/offsets"
)

// DefaultPatterns is used when no patterns are configured
var DefaultPatterns = map[string]string{
	"EMAIL": `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`,
	"URL":   `\bhttps?://[^\s<>"]+[^\s<>".,;:!?)]`,
	"DATE":  `\b(?:\d{4}-\d{2}-\d{2}|(?:0?[1-9]|[12][0-9]|3[01])\.(?:0?[1-9]|1[0-2])\.(?:19|20)\d{2})\b`,
	"PHONE": `(?:\+\d{1,3}[ -]?)?\(?\d{2,4}\)?[ -]?\d{3,4}[ -]?\d{3,4}\b`,
}

type labeledPattern struct {
	label   string
	pattern *regexp.Regexp
}

// RegexAnnotator labels every match of a set of regular expressions
type RegexAnnotator struct {
	patterns []labeledPattern
}

// NewRegexAnnotator compiles the label to pattern map
func NewRegexAnnotator(patterns map[string]string) (*RegexAnnotator, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	labels := make([]string, 0, len(patterns))
	for label := range patterns {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	compiled := make([]labeledPattern, 0, len(labels))
	for _, label := range labels {
		re, err := regexp.Compile(patterns[label])
		if err != nil {
			return nil, fmt.Errorf("compile pattern for %s: %w", label, err)
		}
		compiled = append(compiled, labeledPattern{label: label, pattern: re})
	}

	return &RegexAnnotator{patterns: compiled}, nil
}

// Name returns the backend name
func (r *RegexAnnotator) Name() string {
	return "regex"
}

// Annotate returns all matches ordered by position, then label
func (r *RegexAnnotator) Annotate(ctx context.Context, sentence string) ([]model.RawEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entities []model.RawEntity
	for _, lp := range r.patterns {
		for _, m := range lp.pattern.FindAllStringIndex(sentence, -1) {
			begin, end, err := offsets.ByteSpanToChar(sentence, m[0], m[1])
			if err != nil {
				return nil, fmt.Errorf("%w: %s match: %v", ErrAnnotator, lp.label, err)
			}
			entities = append(entities, model.RawEntity{
				Label: lp.label,
				Begin: begin,
				End:   end,
				Word:  sentence[m[0]:m[1]],
				Score: 1.0,
			})
		}
	}

	sort.SliceStable(entities, func(i, j int) bool {
		if entities[i].Begin != entities[j].Begin {
			return entities[i].Begin < entities[j].Begin
		}
		return entities[i].End < entities[j].End
	})

	return entities, nil
}
