package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/m-stoeckel/duui-uima/internal/model"
	"github.com/m-stoeckel/duui-uima/internal/pipeline"
	"github.com/m-stoeckel/duui-uima/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Annotate many request files in parallel",
	Long: `Batch processes many requests concurrently:
- Read request sources from input file (one path or URL per line)
- Annotate requests in parallel with configurable worker count
- Sentences within each request are annotated in parallel as well
- Write one response JSON per request

A failing request is reported and does not stop the others.

Example:
  duui-ner batch requests.txt
  duui-ner batch requests.txt --concurrency 8 --output-dir ./responses`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent requests (default: concurrency.batch_workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./duui-ner-responses", "output directory for responses")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
}

// validatingProcessor rejects malformed requests before they reach the pipeline
type validatingProcessor struct {
	next worker.Processor
}

func (v validatingProcessor) Process(ctx context.Context, req *model.Request) (*model.Response, error) {
	if err := pipeline.Validate(req); err != nil {
		return nil, err
	}
	return v.next.Process(ctx, req)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if concurrency <= 0 {
		concurrency = cfg.Concurrency.BatchWorkers
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  duui-ner Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Backend:      %s\n", cfg.Model.Backend)
	fmt.Fprintf(os.Stderr, "  Workers:      %d x %d\n", concurrency, cfg.Concurrency.SentenceWorkers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	c, err := newComponent(cfg)
	if err != nil {
		return err
	}
	defer c.close()

	loader := pipeline.NewLoader(cfg.HTTP, cfg.Model.Remote.Timeout)
	processor := worker.NewBatchProcessor(loader, validatingProcessor{next: c.pipeline}, concurrency)

	fmt.Fprintf(os.Stderr, "⚙️  Processing requests...\n\n")
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := pipeline.NewRenderer(os.Stderr, true)
	successCount := 0
	failureCount := 0
	predictionCount := 0

	for i, result := range results {
		if result.Error != nil {
			failureCount++
			renderer.RenderFailure(result.Source, result.Error)
			continue
		}

		path := filepath.Join(outputDir, outputName(i, result.Source))
		if err := renderer.RenderJSON(result.Response, path); err != nil {
			failureCount++
			renderer.RenderFailure(result.Source, err)
			continue
		}

		successCount++
		predictionCount += len(result.Response.Predictions)
		renderer.RenderSummary(result.Source, result.Response)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:        %d requests\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:      %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:     %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Predictions:  %d\n", predictionCount)
	fmt.Fprintf(os.Stderr, "  Output:       %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 {
		return fmt.Errorf("%d of %d requests failed", failureCount, len(results))
	}
	return nil
}

// outputName derives a response file name from the request source. The
// index prefix keeps names unique when sources share a base name.
func outputName(index int, source string) string {
	base := source
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%04d-%s.json", index, sanitizeFilename(base))
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	s = filenameReplacer.Replace(s)
	if s == "" || s == "-" || s == "." || s == ".." {
		s = "request"
	}

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}

	return s
}
