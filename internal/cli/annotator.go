package cli

import (
	"fmt"

	"github.com/m-stoeckel/duui-uima/internal/cache"
	"github.com/m-stoeckel/duui-uima/internal/logger"
	"github.com/m-stoeckel/duui-uima/internal/model"
	"github.com/m-stoeckel/duui-uima/internal/ner"
	"github.com/m-stoeckel/duui-uima/internal/pipeline"
)

// component bundles what every annotating command needs. Call close when done.
type component struct {
	annotator ner.Annotator
	pipeline  *pipeline.Pipeline
	docs      model.Documentation
}

func newComponent(cfg *model.Config) (*component, error) {
	annotator, err := ner.New(cfg.Model, cfg.HTTP)
	if err != nil {
		return nil, fmt.Errorf("create %s annotator: %w", cfg.Model.Backend, err)
	}

	p := pipeline.New(annotator, pipeline.Options{
		Workers:  cfg.Concurrency.SentenceWorkers,
		Cache:    cache.New(cfg.Cache),
		CacheTTL: cfg.Cache.MemoryTTL,
		EmitMeta: cfg.Annotator.EmitMeta,
	})

	return &component{
		annotator: annotator,
		pipeline:  p,
		docs:      model.NewDocumentation(cfg.Annotator, p.AnnotatorName(), ner.IsReproducible(annotator)),
	}, nil
}

func (c *component) close() {
	if err := ner.Close(c.annotator); err != nil {
		logger.Get().WithError(err).Warn("close annotator")
	}
}
