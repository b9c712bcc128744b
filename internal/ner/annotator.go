package ner

import (
	"context"
	"errors"
	"io"

	"github.com/m-stoeckel/duui-uima/internal/model"
)

var (
	// ErrAnnotator wraps failures reported by an NER backend
	ErrAnnotator = errors.New("annotator failed")

	// ErrUnknownBackend is returned by New for an unsupported backend name
	ErrUnknownBackend = errors.New("unknown NER backend")

	// ErrBackendUnavailable is returned when a backend was not compiled in or
	// cannot be initialized
	ErrBackendUnavailable = errors.New("NER backend unavailable")
)

// Annotator finds entities in a single sentence. Offsets of the returned
// entities are character offsets local to the sentence. Implementations must
// be safe for concurrent use.
type Annotator interface {
	Annotate(ctx context.Context, sentence string) ([]model.RawEntity, error)
}

// Named is implemented by annotators that report a backend name
type Named interface {
	Name() string
}

// Reproducible is implemented by annotators that can tell whether repeated
// calls on the same input yield the same output
type Reproducible interface {
	Reproducible() bool
}

// AnnotatorFunc adapts a function to the Annotator interface
type AnnotatorFunc func(ctx context.Context, sentence string) ([]model.RawEntity, error)

// Annotate calls f(ctx, sentence)
func (f AnnotatorFunc) Annotate(ctx context.Context, sentence string) ([]model.RawEntity, error) {
	return f(ctx, sentence)
}

// NameOf returns the backend name of a, or "custom"
func NameOf(a Annotator) string {
	if n, ok := a.(Named); ok {
		return n.Name()
	}
	return "custom"
}

// IsReproducible reports whether a declares itself reproducible. Annotators
// that do not say are assumed to be.
func IsReproducible(a Annotator) bool {
	if r, ok := a.(Reproducible); ok {
		return r.Reproducible()
	}
	return true
}

// Close releases resources held by a, if any
func Close(a Annotator) error {
	if c, ok := a.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type languageKey struct{}

// WithLanguage attaches the request's language tag to ctx
func WithLanguage(ctx context.Context, language string) context.Context {
	return context.WithValue(ctx, languageKey{}, language)
}

// LanguageFrom returns the language tag stored in ctx, or ""
func LanguageFrom(ctx context.Context) string {
	lang, _ := ctx.Value(languageKey{}).(string)
	return lang
}
