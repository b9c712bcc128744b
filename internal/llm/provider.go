package llm

import (
	"context"
	"fmt"
	"strings"
)

// Provider is a text completion backend
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a single-turn prompt and returns the model's reply
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest is a single-turn prompt
type CompletionRequest struct {
	// System is the system instruction, may be empty
	System string

	// Prompt is the user message
	Prompt string

	// Model overrides the configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// CompletionResponse holds the model's reply
type CompletionResponse struct {
	// Text is the reply with surrounding whitespace trimmed
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Retries for the plain HTTP providers (anthropic, ollama)
	Retries int

	UserAgent string

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:   30,
		MaxTokens: 1000,
		Retries:   2,
	}
}

// Temperature 0 keeps extraction as repeatable as the provider allows
const temperature = 0

const systemPrompt = "You are a named entity recognizer. You only copy text that appears verbatim in the input and you answer with JSON only."

// BuildPrompt constructs the entity extraction prompt for one sentence
func BuildPrompt(sentence string, labels []string) string {
	var b strings.Builder
	b.WriteString("Extract all named entities from the sentence below.\n\n")
	b.WriteString("Allowed labels:\n")
	for _, label := range labels {
		fmt.Fprintf(&b, "- %s\n", label)
	}
	b.WriteString(`
Rules:
1. Copy each entity exactly as it appears in the sentence, including case and punctuation.
2. List entities in the order they appear. Repeat an entity if it occurs more than once.
3. Use only the allowed labels.
4. Answer with a JSON array and nothing else, for example:
   [{"label": "PER", "text": "Ada Lovelace"}, {"label": "LOC", "text": "London"}]
5. If there are no entities, answer with [].

Sentence:
`)
	b.WriteString(sentence)
	b.WriteString("\n")
	return b.String()
}

func resolveMaxTokens(req, cfg int) int {
	if req > 0 {
		return req
	}
	if cfg > 0 {
		return cfg
	}
	return 1000
}
