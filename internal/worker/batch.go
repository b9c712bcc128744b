package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/m-stoeckel/duui-uima/internal/model"
)

// Loader reads one annotation request from a path or URL
type Loader interface {
	Load(ctx context.Context, source string) (*model.Request, error)
}

// Processor annotates one request
type Processor interface {
	Process(ctx context.Context, req *model.Request) (*model.Response, error)
}

// ProcessJob loads and annotates a single request source
type ProcessJob struct {
	Source    string
	Loader    Loader
	Processor Processor
}

// Execute executes the job
func (j *ProcessJob) Execute(ctx context.Context) Result {
	req, err := j.Loader.Load(ctx, j.Source)
	if err != nil {
		return &ProcessResult{Source: j.Source, Error: fmt.Errorf("load: %w", err)}
	}

	resp, err := j.Processor.Process(ctx, req)
	if err != nil {
		return &ProcessResult{Source: j.Source, Error: err}
	}

	return &ProcessResult{Source: j.Source, Response: resp}
}

// ProcessResult is the outcome for one request source
type ProcessResult struct {
	Source   string
	Response *model.Response
	Error    error
}

// GetError returns the error from the result
func (r *ProcessResult) GetError() error {
	return r.Error
}

// BatchProcessor annotates many request files concurrently. One failing
// source does not stop the others.
type BatchProcessor struct {
	loader      Loader
	processor   Processor
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(loader Loader, processor Processor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		loader:      loader,
		processor:   processor,
		concurrency: concurrency,
	}
}

// ProcessSources processes the given sources and returns one result per
// source, in input order
func (b *BatchProcessor) ProcessSources(ctx context.Context, sources []string) []*ProcessResult {
	if len(sources) == 0 {
		return []*ProcessResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, source := range sources {
		pool.Submit(&ProcessJob{
			Source:    source,
			Loader:    b.loader,
			Processor: b.processor,
		})
	}

	results := pool.Wait()

	out := make([]*ProcessResult, len(results))
	for i, result := range results {
		if result == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			out[i] = &ProcessResult{Source: sources[i], Error: err}
			continue
		}
		out[i] = result.(*ProcessResult)
	}

	return out
}

// ProcessFile reads sources from a list file and processes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ProcessResult, error) {
	sources, err := ReadSourcesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	return b.ProcessSources(ctx, sources), nil
}

// ReadSourcesFromFile reads request paths or URLs from a file, one per line.
// Blank lines and # comments are skipped and duplicates dropped.
func ReadSourcesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var sources []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			sources = append(sources, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return sources, nil
}
