package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-stoeckel/duui-uima/internal/model"
)

// Renderer writes responses as JSON and prints human-readable summaries
type Renderer struct {
	out    io.Writer
	pretty bool
}

// NewRenderer creates a renderer printing summaries to out
func NewRenderer(out io.Writer, pretty bool) *Renderer {
	return &Renderer{out: out, pretty: pretty}
}

// RenderJSON writes resp to path, or to the renderer's writer when path is
// empty or "-"
func (r *Renderer) RenderJSON(resp *model.Response, path string) error {
	var (
		data []byte
		err  error
	)
	if r.pretty {
		data, err = json.MarshalIndent(resp, "", "  ")
	} else {
		data, err = json.Marshal(resp)
	}
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	data = append(data, '\n')

	if path == "" || path == "-" {
		_, err := r.out.Write(data)
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderSummary prints the prediction count per label
func (r *Renderer) RenderSummary(source string, resp *model.Response) {
	counts := make(map[string]int)
	for _, p := range resp.Predictions {
		counts[p.Label]++
	}

	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, fmt.Sprintf("%s=%d", l, counts[l]))
	}

	summary := "no entities"
	if len(parts) > 0 {
		summary = strings.Join(parts, " ")
	}
	_, _ = fmt.Fprintf(r.out, "✓ %s: %d predictions (%s)\n", source, len(resp.Predictions), summary)
}

// RenderFailure prints a failed source
func (r *Renderer) RenderFailure(source string, err error) {
	_, _ = fmt.Fprintf(r.out, "✗ %s: %v\n", source, err)
}
