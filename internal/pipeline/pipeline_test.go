package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m-stoeckel/duui-uima/internal/cache"
	"github.com/m-stoeckel/duui-uima/internal/model"
	"github.com/m-stoeckel/duui-uima/internal/ner"
	"github.com/m-stoeckel/duui-uima/internal/offsets"
)

type namedFunc struct {
	ner.AnnotatorFunc
}

func (namedFunc) Name() string { return "fake" }

// capitalized labels every capitalized word, reporting the preceding space
// as part of the word the way subword tokenizers do
func capitalized(delay func(sentence string) time.Duration) ner.Annotator {
	return namedFunc{func(ctx context.Context, sentence string) ([]model.RawEntity, error) {
		if delay != nil {
			select {
			case <-time.After(delay(sentence)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		var out []model.RawEntity
		runes := []rune(sentence)
		for i := 0; i < len(runes); i++ {
			if runes[i] < 'A' || runes[i] > 'Z' {
				continue
			}
			j := i
			for j < len(runes) && runes[j] != ' ' && runes[j] != '.' {
				j++
			}
			begin := i
			if i > 0 && runes[i-1] == ' ' {
				begin = i - 1
			}
			out = append(out, model.RawEntity{Label: "ENT", Begin: begin, End: j, Word: string(runes[begin:j])})
			i = j
		}
		return out, nil
	}}
}

func TestProcess_ReconcilesIntoDocumentOffsets(t *testing.T) {
	p := New(capitalized(nil), Options{Workers: 2})

	text := "I met Zoë. Then Köln."
	req := &model.Request{
		Text:      text,
		Sentences: []model.SentenceOffsets{{Begin: 0, End: 10}, {Begin: 11, End: 21}},
	}

	resp, err := p.Process(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []model.Prediction{
		{Label: "ENT", Begin: 0, End: 1},
		{Label: "ENT", Begin: 6, End: 9},
		{Label: "ENT", Begin: 11, End: 15},
		{Label: "ENT", Begin: 16, End: 20},
	}, resp.Predictions)

	for _, pred := range resp.Predictions {
		assert.NotEqual(t, " ", offsets.Slice(text, pred.Begin, pred.Begin+1))
	}
	assert.Equal(t, "Zoë", offsets.Slice(text, 6, 9))
	assert.Equal(t, "Köln", offsets.Slice(text, 16, 20))
}

func TestProcess_OrderIndependentOfCompletion(t *testing.T) {
	// Sentence i sleeps longer the earlier it is, so completion order is reversed
	words := []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot", "Golf", "Hotel"}
	var b strings.Builder
	var bounds []model.SentenceOffsets
	for _, w := range words {
		begin := offsets.Len(b.String())
		b.WriteString(w)
		bounds = append(bounds, model.SentenceOffsets{Begin: begin, End: begin + len(w)})
		b.WriteString(" ")
	}

	delay := func(s string) time.Duration {
		for i, w := range words {
			if w == s {
				return time.Duration(len(words)-i) * 5 * time.Millisecond
			}
		}
		return 0
	}

	p := New(capitalized(delay), Options{Workers: len(words)})
	resp, err := p.Process(context.Background(), &model.Request{Text: b.String(), Sentences: bounds})
	require.NoError(t, err)
	require.Len(t, resp.Predictions, len(words))
	for i, pred := range resp.Predictions {
		assert.Equal(t, bounds[i].Begin, pred.Begin)
		assert.Equal(t, bounds[i].End, pred.End)
	}
}

func TestProcess_EmptySentences(t *testing.T) {
	p := New(capitalized(nil), Options{})
	resp, err := p.Process(context.Background(), &model.Request{Text: "Nothing annotated"})
	require.NoError(t, err)
	assert.NotNil(t, resp.Predictions)
	assert.Empty(t, resp.Predictions)
	assert.Nil(t, resp.Meta)
}

func TestProcess_InvalidBoundary(t *testing.T) {
	var calls int32
	a := ner.AnnotatorFunc(func(ctx context.Context, s string) ([]model.RawEntity, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	})
	p := New(a, Options{})

	_, err := p.Process(context.Background(), &model.Request{
		Text:      "short",
		Sentences: []model.SentenceOffsets{{Begin: 0, End: 5}, {Begin: 3, End: 9}},
	})
	assert.ErrorIs(t, err, offsets.ErrInvalidBoundary)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestProcess_OffsetUnitMismatch(t *testing.T) {
	a := ner.AnnotatorFunc(func(ctx context.Context, s string) ([]model.RawEntity, error) {
		return []model.RawEntity{{Label: "X", Begin: 2, End: 3, Word: "   ab"}}, nil
	})
	p := New(a, Options{})

	resp, err := p.Process(context.Background(), &model.Request{
		Text:      "hello",
		Sentences: []model.SentenceOffsets{{Begin: 0, End: 5}},
	})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, offsets.ErrOffsetUnitMismatch)
	assert.NotErrorIs(t, err, ner.ErrAnnotator)
}

func TestProcess_SpanPastSentenceEnd(t *testing.T) {
	a := ner.AnnotatorFunc(func(ctx context.Context, s string) ([]model.RawEntity, error) {
		return []model.RawEntity{{Label: "LOC", Begin: 2, End: 40, Word: "llo"}}, nil
	})
	p := New(a, Options{})

	resp, err := p.Process(context.Background(), &model.Request{
		Text:      "hello world",
		Sentences: []model.SentenceOffsets{{Begin: 0, End: 5}},
	})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, offsets.ErrSpanOutOfRange)
	assert.NotErrorIs(t, err, ner.ErrAnnotator)
}

func TestProcess_AnnotatorFailureIsTerminal(t *testing.T) {
	boom := errors.New("model crashed")
	a := ner.AnnotatorFunc(func(ctx context.Context, s string) ([]model.RawEntity, error) {
		if s == "b" {
			return nil, boom
		}
		return []model.RawEntity{{Label: "X", Begin: 0, End: 1, Word: s}}, nil
	})
	p := New(a, Options{Workers: 3})

	resp, err := p.Process(context.Background(), &model.Request{
		Text:      "a b c",
		Sentences: []model.SentenceOffsets{{Begin: 0, End: 1}, {Begin: 2, End: 3}, {Begin: 4, End: 5}},
	})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ner.ErrAnnotator)
	assert.ErrorIs(t, err, boom)
}

func TestProcess_Deadline(t *testing.T) {
	p := New(capitalized(func(string) time.Duration { return time.Second }), Options{Workers: 2})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	resp, err := p.Process(ctx, &model.Request{
		Text:      "Alpha Bravo",
		Sentences: []model.SentenceOffsets{{Begin: 0, End: 5}, {Begin: 6, End: 11}},
	})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestProcess_MetaAndCache(t *testing.T) {
	var calls int32
	a := namedFunc{func(ctx context.Context, s string) ([]model.RawEntity, error) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "de", ner.LanguageFrom(ctx))
		return []model.RawEntity{{Label: "LOC", Begin: 0, End: 4, Word: "Köln"}}, nil
	}}
	p := New(a, Options{
		Cache:    cache.NewMemoryCache(time.Minute, time.Minute),
		EmitMeta: true,
	})

	req := &model.Request{
		Text:      "Köln ist schön",
		Language:  "de",
		Sentences: []model.SentenceOffsets{{Begin: 0, End: 14}},
	}

	first, err := p.Process(WithRequestID(context.Background(), "req-1"), req)
	require.NoError(t, err)
	assert.Equal(t, "miss", first.Meta[MetaCache])
	assert.Equal(t, "fake", first.Meta[MetaAnnotator])
	assert.Equal(t, "1", first.Meta[MetaSentences])
	assert.Equal(t, "1", first.Meta[MetaPredictions])
	assert.Equal(t, "req-1", first.Meta[MetaRequestID])
	assert.Contains(t, first.Meta, MetaElapsedMS)

	second, err := p.Process(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "hit", second.Meta[MetaCache])
	assert.NotEmpty(t, second.Meta[MetaRequestID])
	assert.NotEqual(t, "req-1", second.Meta[MetaRequestID])
	assert.Equal(t, first.Predictions, second.Predictions)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// Different language is a different key
	req.Language = "en"
	_, _ = p.Process(context.Background(), req)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestProcess_FailuresAreNotCached(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	a := ner.AnnotatorFunc(func(ctx context.Context, s string) ([]model.RawEntity, error) {
		if fail.Load() {
			return nil, errors.New("unavailable")
		}
		return nil, nil
	})
	p := New(a, Options{Cache: cache.NewMemoryCache(time.Minute, time.Minute)})
	req := &model.Request{Text: "x", Sentences: []model.SentenceOffsets{{Begin: 0, End: 1}}}

	_, err := p.Process(context.Background(), req)
	require.Error(t, err)

	fail.Store(false)
	resp, err := p.Process(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, resp.Predictions)
}

func TestProcess_NilRequest(t *testing.T) {
	_, err := New(capitalized(nil), Options{}).Process(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(&model.Request{Text: "", Sentences: []model.SentenceOffsets{}}))
	assert.NoError(t, Validate(&model.Request{Text: "ab", Sentences: []model.SentenceOffsets{{Begin: 0, End: 2}}}))

	err := Validate(&model.Request{Text: "ab", Sentences: []model.SentenceOffsets{{Begin: -1, End: 2}}})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, err.Error(), "Begin")

	assert.ErrorIs(t, Validate(nil), ErrInvalidRequest)
}
