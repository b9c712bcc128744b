package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/m-stoeckel/duui-uima/internal/pipeline"
)

var (
	outPath        string
	pretty         bool
	processTimeout time.Duration
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process <source>",
	Short: "Annotate a single request file",
	Long: `Process reads one DUUI request ({text, language, sentences}) from a file,
an http(s) URL or stdin ("-"), annotates it and writes the response JSON.

Example:
  duui-ner process data/test_split_0.json
  duui-ner process request.json --out response.json
  cat request.json | duui-ner process - --backend remote`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(&outPath, "out", "-", "output JSON path (- for stdout)")
	processCmd.Flags().BoolVar(&pretty, "pretty", true, "indent output JSON")
	processCmd.Flags().DurationVar(&processTimeout, "timeout", 5*time.Minute, "overall timeout")
}

func runProcess(cmd *cobra.Command, args []string) error {
	source := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Processing: %s\n", source)
		fmt.Fprintf(os.Stderr, "Backend:    %s\n", cfg.Model.Backend)
		fmt.Fprintf(os.Stderr, "Timeout:    %v\n", processTimeout)
		fmt.Fprintln(os.Stderr)
	}

	c, err := newComponent(cfg)
	if err != nil {
		return err
	}
	defer c.close()

	loader := pipeline.NewLoader(cfg.HTTP, cfg.Model.Remote.Timeout)
	req, err := loader.Load(ctx, source)
	if err != nil {
		return fmt.Errorf("load %s: %w", source, err)
	}
	if err := pipeline.Validate(req); err != nil {
		return err
	}

	resp, err := c.pipeline.Process(ctx, req)
	if err != nil {
		return fmt.Errorf("process %s: %w", source, err)
	}

	renderer := pipeline.NewRenderer(os.Stdout, pretty)
	if err := renderer.RenderJSON(resp, outPath); err != nil {
		return err
	}

	if outPath != "-" || verbose {
		pipeline.NewRenderer(os.Stderr, false).RenderSummary(source, resp)
	}

	return nil
}
