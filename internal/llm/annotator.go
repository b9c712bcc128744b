package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/m-stoeckel/duui-uima/internal/logger"
	"github.com/m-stoeckel/duui-uima/internal/model"
	"github.com/m-stoeckel/duui-uima/internal/offsets"
)

// Mention is one entity as listed by the model
type Mention struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Annotator extracts entities by prompting a Provider and locating the
// returned mentions in the sentence
type Annotator struct {
	provider  Provider
	labels    []string
	allowed   map[string]bool
	maxTokens int
}

// NewAnnotator creates an annotator restricted to labels
func NewAnnotator(provider Provider, labels []string, maxTokens int) (*Annotator, error) {
	if provider == nil {
		return nil, fmt.Errorf("llm annotator requires a provider")
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("llm annotator requires at least one label")
	}

	allowed := make(map[string]bool, len(labels))
	for _, l := range labels {
		allowed[l] = true
	}

	return &Annotator{
		provider:  provider,
		labels:    append([]string(nil), labels...),
		allowed:   allowed,
		maxTokens: maxTokens,
	}, nil
}

// Name returns the backend name
func (a *Annotator) Name() string {
	return "llm/" + a.provider.Name()
}

// Reproducible is false: sampling makes repeated runs differ
func (a *Annotator) Reproducible() bool {
	return false
}

// Annotate prompts the provider and converts its answer to entities with
// character offsets local to sentence
func (a *Annotator) Annotate(ctx context.Context, sentence string) ([]model.RawEntity, error) {
	if strings.TrimSpace(sentence) == "" {
		return nil, nil
	}

	resp, err := a.provider.Complete(ctx, CompletionRequest{
		System:    systemPrompt,
		Prompt:    BuildPrompt(sentence, a.labels),
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	mentions, err := ParseMentions(resp.Text)
	if err != nil {
		return nil, err
	}

	return a.locate(sentence, mentions)
}

// locate finds each mention in sentence. Repeated mentions of the same text
// map to successive occurrences.
func (a *Annotator) locate(sentence string, mentions []Mention) ([]model.RawEntity, error) {
	log := logger.Get()
	next := make(map[string]int)

	var entities []model.RawEntity
	for _, m := range mentions {
		if !a.allowed[m.Label] {
			log.WithFields(logrus.Fields{"label": m.Label, "text": m.Text}).Warn("dropping mention with unknown label")
			continue
		}
		if m.Text == "" {
			continue
		}

		from := next[m.Text]
		idx := strings.Index(sentence[from:], m.Text)
		if idx < 0 {
			log.WithFields(logrus.Fields{"label": m.Label, "text": m.Text}).Warn("dropping mention not found in sentence")
			continue
		}
		start := from + idx
		end := start + len(m.Text)
		next[m.Text] = end

		begin, stop, err := offsets.ByteSpanToChar(sentence, start, end)
		if err != nil {
			return nil, fmt.Errorf("locate %q: %w", m.Text, err)
		}
		entities = append(entities, model.RawEntity{
			Label: m.Label,
			Begin: begin,
			End:   stop,
			Word:  m.Text,
		})
	}

	return entities, nil
}

// ParseMentions decodes the model's JSON array answer. Markdown code fences
// and text around the array are ignored.
func ParseMentions(text string) ([]Mention, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON array in model answer: %q", truncate(text, 80))
	}

	var mentions []Mention
	if err := json.Unmarshal([]byte(text[start:end+1]), &mentions); err != nil {
		return nil, fmt.Errorf("decode model answer: %w", err)
	}
	return mentions, nil
}

func truncate(s string, n int) string {
	if offsets.Len(s) <= n {
		return s
	}
	return offsets.Slice(s, 0, n) + "..."
}
