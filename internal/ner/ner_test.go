package ner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m-stoeckel/duui-uima/internal/model"
)

func TestRegexAnnotator_Defaults(t *testing.T) {
	a, err := NewRegexAnnotator(nil)
	require.NoError(t, err)

	sentence := "Schreib Zoë an zoe@example.org bis 2024-03-01 oder besuche https://example.org/a."
	got, err := a.Annotate(context.Background(), sentence)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "EMAIL", got[0].Label)
	assert.Equal(t, 15, got[0].Begin)
	assert.Equal(t, 30, got[0].End)
	assert.Equal(t, "zoe@example.org", got[0].Word)

	assert.Equal(t, "DATE", got[1].Label)
	assert.Equal(t, "2024-03-01", got[1].Word)
	assert.Equal(t, 35, got[1].Begin)

	assert.Equal(t, "URL", got[2].Label)
	assert.Equal(t, "https://example.org/a", got[2].Word)
}

func TestRegexAnnotator_CustomPatternsOrdered(t *testing.T) {
	a, err := NewRegexAnnotator(map[string]string{
		"ORG": `ACME`,
		"PER": `Ada|Bob`,
	})
	require.NoError(t, err)

	got, err := a.Annotate(context.Background(), "Bob and Ada work at ACME")
	require.NoError(t, err)
	assert.Equal(t, []model.RawEntity{
		{Label: "PER", Begin: 0, End: 3, Word: "Bob", Score: 1},
		{Label: "PER", Begin: 8, End: 11, Word: "Ada", Score: 1},
		{Label: "ORG", Begin: 20, End: 24, Word: "ACME", Score: 1},
	}, got)
}

func TestRegexAnnotator_BadPattern(t *testing.T) {
	_, err := NewRegexAnnotator(map[string]string{"X": "("})
	assert.Error(t, err)
}

func TestRegexAnnotator_CancelledContext(t *testing.T) {
	a, err := NewRegexAnnotator(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Annotate(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func remoteServer(t *testing.T, handler func(req entityRequest) entityResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/entities", r.URL.Path)
		var req entityRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(handler(req))
	}))
}

func TestRemoteAnnotator_ByteOffsets(t *testing.T) {
	var gotLanguage string
	server := remoteServer(t, func(req entityRequest) entityResponse {
		gotLanguage = req.Texts[0].Language
		// "Zoë" is 4 bytes, "Köln" spans bytes 13 to 18
		return entityResponse{Texts: []entityResponseRecord{{
			UUID: req.Texts[0].UUID,
			Entities: []entity{
				{Name: "Zoë", Label: "PER", Matches: []entityMatch{{Start: 0, End: 4, Text: "Zoë"}}},
				{Name: "Köln", Label: "GPE", Matches: []entityMatch{{Start: 13, End: 18, Text: "Köln"}}},
			},
		}}}
	})
	defer server.Close()

	a, err := NewRemoteAnnotator(model.RemoteConfig{URL: server.URL + "/", Language: "en", OffsetUnit: "bytes", Attempts: 1}, model.HTTPConfig{})
	require.NoError(t, err)

	got, err := a.Annotate(WithLanguage(context.Background(), "de"), "Zoë lebt in Köln")
	require.NoError(t, err)
	assert.Equal(t, "de", gotLanguage)
	assert.Equal(t, []model.RawEntity{
		{Label: "PER", Begin: 0, End: 3, Word: "Zoë"},
		{Label: "GPE", Begin: 12, End: 16, Word: "Köln"},
	}, got)
}

func TestRemoteAnnotator_CharOffsetsAndDefaultLanguage(t *testing.T) {
	var gotLanguage string
	server := remoteServer(t, func(req entityRequest) entityResponse {
		gotLanguage = req.Texts[0].Language
		return entityResponse{Texts: []entityResponseRecord{{
			UUID: req.Texts[0].UUID,
			Entities: []entity{
				{Label: "LOC", Matches: []entityMatch{{Start: 12, End: 16, Text: "Köln"}}},
			},
		}}}
	})
	defer server.Close()

	a, err := NewRemoteAnnotator(model.RemoteConfig{URL: server.URL, Language: "en"}, model.HTTPConfig{})
	require.NoError(t, err)

	got, err := a.Annotate(context.Background(), "Zoë lebt in Köln")
	require.NoError(t, err)
	assert.Equal(t, "en", gotLanguage)
	assert.Equal(t, []model.RawEntity{{Label: "LOC", Begin: 12, End: 16, Word: "Köln"}}, got)
}

func TestRemoteAnnotator_Retries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(entityResponse{})
	}))
	defer server.Close()

	a, err := NewRemoteAnnotator(model.RemoteConfig{URL: server.URL, Attempts: 3, Delay: time.Millisecond}, model.HTTPConfig{})
	require.NoError(t, err)

	got, err := a.Annotate(context.Background(), "nothing here")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 3, calls)
}

func TestRemoteAnnotator_ClientErrorNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	a, err := NewRemoteAnnotator(model.RemoteConfig{URL: server.URL, Attempts: 3, Delay: time.Millisecond}, model.HTTPConfig{})
	require.NoError(t, err)

	_, err = a.Annotate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrAnnotator)
	assert.Equal(t, 1, calls)
}

func TestNewRemoteAnnotator_Validation(t *testing.T) {
	_, err := NewRemoteAnnotator(model.RemoteConfig{}, model.HTTPConfig{})
	assert.Error(t, err)

	_, err = NewRemoteAnnotator(model.RemoteConfig{URL: "http://x", OffsetUnit: "utf16"}, model.HTTPConfig{})
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	a, err := New(model.ModelConfig{}, model.HTTPConfig{})
	require.NoError(t, err)
	assert.Equal(t, "regex", NameOf(a))
	assert.True(t, IsReproducible(a))
	assert.NoError(t, Close(a))

	_, err = New(model.ModelConfig{Backend: "spacy"}, model.HTTPConfig{})
	assert.ErrorIs(t, err, ErrUnknownBackend)

	a, err = New(model.ModelConfig{
		Backend: "llm",
		LLM:     model.LLMConfig{Provider: "ollama", Model: "m", Labels: []string{"PER"}},
	}, model.HTTPConfig{})
	require.NoError(t, err)
	assert.Equal(t, "llm/ollama", NameOf(a))
	assert.False(t, IsReproducible(a))
}

func TestAnnotatorFunc(t *testing.T) {
	var a Annotator = AnnotatorFunc(func(ctx context.Context, s string) ([]model.RawEntity, error) {
		if LanguageFrom(ctx) != "fr" {
			return nil, errors.New("missing language")
		}
		return []model.RawEntity{{Label: "X", Begin: 0, End: len(s)}}, nil
	})

	got, err := a.Annotate(WithLanguage(context.Background(), "fr"), "abc")
	require.NoError(t, err)
	assert.Equal(t, 3, got[0].End)
	assert.Equal(t, "custom", NameOf(a))
	assert.Equal(t, "", LanguageFrom(context.Background()))
}

func TestGroupTokens(t *testing.T) {
	id2label := map[int]string{0: "O", 1: "B-PER", 2: "I-PER", 3: "B-LOC"}
	text := "Zoë Ann in Köln"
	// [CLS] Zo ë Ann in Köln [SEP]
	spans := []tokenSpan{{0, 0}, {0, 2}, {2, 4}, {5, 8}, {9, 11}, {12, 17}, {0, 0}}
	hot := func(label int) []float32 {
		row := make([]float32, 4)
		row[label] = 10
		return row
	}
	var logits []float32
	for _, l := range []int{0, 1, 2, 2, 0, 3, 0} {
		logits = append(logits, hot(l)...)
	}

	got, err := groupTokens(text, logits, 4, id2label, spans, 0.5)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "PER", got[0].Label)
	assert.Equal(t, 0, got[0].Begin)
	assert.Equal(t, 7, got[0].End)
	assert.Equal(t, "Zoë Ann", got[0].Word)

	assert.Equal(t, "LOC", got[1].Label)
	assert.Equal(t, 11, got[1].Begin)
	assert.Equal(t, 15, got[1].End)
	assert.InDelta(t, 1.0, got[1].Score, 0.001)
}

func TestGroupTokens_LowConfidenceIsOutside(t *testing.T) {
	id2label := map[int]string{0: "O", 1: "B-PER"}
	spans := []tokenSpan{{0, 3}}
	got, err := groupTokens("Ada", []float32{0, 0.1}, 2, id2label, spans, 0.9)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadLabels(t *testing.T) {
	dir := t.TempDir()

	hf := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(hf, []byte(`{"id2label":{"0":"O","1":"B-PER","2":"I-PER"},"hidden_size":768}`), 0o644))
	labels, n, err := loadLabels(hf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "I-PER", labels[2])

	bare := filepath.Join(dir, "labels.json")
	require.NoError(t, os.WriteFile(bare, []byte(`{"0":"O","4":"B-LOC"}`), 0o644))
	_, n, err = loadLabels(bare)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, _, err = loadLabels(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
