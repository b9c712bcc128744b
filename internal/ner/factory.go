package ner

import (
	"fmt"
	"strings"

	"github.com/m-stoeckel/duui-uima/internal/llm"
	"github.com/m-stoeckel/duui-uima/internal/model"
)

// Backends lists the names accepted by New
var Backends = []string{"regex", "remote", "llm", "onnx"}

// New builds the annotator selected by cfg.Backend
func New(cfg model.ModelConfig, httpCfg model.HTTPConfig) (Annotator, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "regex":
		return NewRegexAnnotator(cfg.Regex.Patterns)

	case "remote":
		return NewRemoteAnnotator(cfg.Remote, httpCfg)

	case "llm":
		provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, httpCfg))
		if err != nil {
			return nil, err
		}
		return llm.NewAnnotator(provider, cfg.LLM.Labels, cfg.LLM.MaxTokens)

	case "onnx":
		return NewONNXAnnotator(cfg.ONNX)

	default:
		return nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnknownBackend, cfg.Backend, strings.Join(Backends, ", "))
	}
}
