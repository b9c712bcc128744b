package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/m-stoeckel/duui-uima/internal/cache"
	"github.com/m-stoeckel/duui-uima/internal/logger"
	"github.com/m-stoeckel/duui-uima/internal/model"
	"github.com/m-stoeckel/duui-uima/internal/ner"
	"github.com/m-stoeckel/duui-uima/internal/offsets"
	"github.com/m-stoeckel/duui-uima/internal/worker"
)

// Meta keys attached to responses when enabled
const (
	MetaAnnotator   = "annotator"
	MetaSentences   = "sentences"
	MetaPredictions = "predictions"
	MetaElapsedMS   = "elapsed_ms"
	MetaRequestID   = "request_id"
	MetaCache       = "cache"
)

// Options configures a Pipeline
type Options struct {
	// Workers bounds parallel annotator calls within one request
	Workers int

	// Cache stores successful results; nil disables caching
	Cache cache.Cache

	// CacheTTL applies to new cache entries, zero uses the cache default
	CacheTTL time.Duration

	// EmitMeta attaches diagnostic meta to every response
	EmitMeta bool
}

// Pipeline turns an annotation request into predictions over the full text:
// decompose into sentences, annotate each, normalize, then shift every span
// back into document coordinates.
type Pipeline struct {
	annotator ner.Annotator
	name      string
	workers   int
	cache     cache.Cache
	cacheTTL  time.Duration
	emitMeta  bool
}

// New creates a pipeline around annotator
func New(annotator ner.Annotator, opts Options) *Pipeline {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pipeline{
		annotator: annotator,
		name:      ner.NameOf(annotator),
		workers:   workers,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		emitMeta:  opts.EmitMeta,
	}
}

// AnnotatorName returns the backend name
func (p *Pipeline) AnnotatorName() string {
	return p.name
}

type requestIDKey struct{}

// WithRequestID attaches a request id that Process reports in meta
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

// Process annotates req. Any failure fails the whole request; no partial
// response is returned.
func (p *Pipeline) Process(ctx context.Context, req *model.Request) (*model.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty request", ErrInvalidRequest)
	}

	start := time.Now()
	requestID := requestIDFrom(ctx)
	log := logger.Get().WithFields(logrus.Fields{
		"request_id": requestID,
		"annotator":  p.name,
	})

	key := p.cacheKey(req)
	var cached []model.Prediction
	if key != "" && cache.GetJSON(p.cache, key, &cached) {
		log.WithField("predictions", len(cached)).Debug("cache hit")
		return model.NewResponse(cached, p.meta(requestID, len(req.Sentences), len(cached), start, "hit")), nil
	}

	sentences, err := offsets.Decompose(req.Text, req.Sentences)
	if err != nil {
		return nil, err
	}

	local, err := p.annotate(ner.WithLanguage(ctx, req.Language), sentences)
	if err != nil {
		log.WithError(err).Debug("annotation failed")
		return nil, err
	}

	predictions, err := offsets.Reconcile(local, offsets.Anchors(sentences))
	if err != nil {
		return nil, err
	}

	if key != "" {
		if err := cache.SetJSON(p.cache, key, predictions, p.cacheTTL); err != nil {
			log.WithError(err).Warn("cache write failed")
		}
	}

	log.WithFields(logrus.Fields{
		"sentences":   len(sentences),
		"predictions": len(predictions),
		"elapsed":     time.Since(start),
	}).Debug("processed request")

	return model.NewResponse(predictions, p.meta(requestID, len(sentences), len(predictions), start, "miss")), nil
}

// annotate runs the annotator over every sentence on the worker pool.
// Results are addressed by sentence index.
func (p *Pipeline) annotate(ctx context.Context, sentences []model.Sentence) ([][]model.Prediction, error) {
	local := make([][]model.Prediction, len(sentences))
	if len(sentences) == 0 {
		return local, nil
	}

	pool := worker.NewPool(ctx, p.workers, worker.WithFailFast())
	pool.Start()
	for _, s := range sentences {
		pool.Submit(&sentenceJob{annotator: p.annotator, text: s.Text})
	}
	results := pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var cancelled bool
	for i, r := range results {
		if r == nil {
			cancelled = true
			continue
		}
		sr := r.(*sentenceResult)
		if sr.err != nil {
			if errors.Is(sr.err, context.Canceled) {
				cancelled = true
				continue
			}
			return nil, classify(fmt.Errorf("sentence %d: %w", i, sr.err))
		}
		local[i] = sr.predictions
	}
	if cancelled {
		return nil, fmt.Errorf("%w: annotation cancelled", ner.ErrAnnotator)
	}

	return local, nil
}

// classify marks backend failures with ner.ErrAnnotator while keeping offset
// errors as they are
func classify(err error) error {
	switch {
	case errors.Is(err, offsets.ErrOffsetUnitMismatch),
		errors.Is(err, offsets.ErrSpanOutOfRange),
		errors.Is(err, offsets.ErrInvalidBoundary),
		errors.Is(err, ner.ErrAnnotator):
		return err
	default:
		return fmt.Errorf("%w: %w", ner.ErrAnnotator, err)
	}
}

func (p *Pipeline) meta(requestID string, sentences, predictions int, start time.Time, cacheState string) map[string]string {
	if !p.emitMeta {
		return nil
	}
	meta := map[string]string{
		MetaAnnotator:   p.name,
		MetaSentences:   strconv.Itoa(sentences),
		MetaPredictions: strconv.Itoa(predictions),
		MetaElapsedMS:   strconv.FormatInt(time.Since(start).Milliseconds(), 10),
		MetaRequestID:   requestID,
	}
	if p.cache != nil {
		meta[MetaCache] = cacheState
	}
	return meta
}

func (p *Pipeline) cacheKey(req *model.Request) string {
	if p.cache == nil || !ner.IsReproducible(p.annotator) {
		return ""
	}
	var b strings.Builder
	for _, s := range req.Sentences {
		b.WriteString(strconv.Itoa(s.Begin))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(s.End))
		b.WriteByte(';')
	}
	return cache.Key(p.name, req.Language, req.Text, b.String())
}

type sentenceJob struct {
	annotator ner.Annotator
	text      string
}

type sentenceResult struct {
	predictions []model.Prediction
	err         error
}

func (r *sentenceResult) GetError() error {
	return r.err
}

// Execute annotates one sentence and normalizes the spans
func (j *sentenceJob) Execute(ctx context.Context) worker.Result {
	raw, err := j.annotator.Annotate(ctx, j.text)
	if err != nil {
		return &sentenceResult{err: err}
	}
	predictions, err := offsets.NormalizeAll(raw, offsets.Len(j.text))
	if err != nil {
		return &sentenceResult{err: err}
	}
	return &sentenceResult{predictions: predictions}
}
