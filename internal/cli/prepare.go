package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/m-stoeckel/duui-uima/internal/model"
	"github.com/m-stoeckel/duui-uima/internal/pipeline"
	"github.com/m-stoeckel/duui-uima/internal/segment"
	"github.com/m-stoeckel/duui-uima/internal/util"
)

var (
	prepareOutDir   string
	preparePrefix   string
	prepareChunk    int
	prepareLanguage string
	prepareShuffle  bool
	prepareSeed     int64
	prepareHTML     bool

	prepareIgnoreRobots bool
	prepareTimeout      time.Duration
)

// prepareCmd represents the prepare command
var prepareCmd = &cobra.Command{
	Use:   "prepare <input>",
	Short: "Build request files from plain text or HTML",
	Long: `Prepare turns raw input into request files for process and batch. The
input may be a file, "-" for stdin, or an http(s) URL; URL fetches honor
robots.txt unless --ignore-robots is set.

Plain text: every non-blank line becomes one sentence. Lines are joined
with "\n" and split into requests of --chunk-size sentences.

HTML (--html): visible text is extracted, split into sentences on
sentence punctuation and newlines, and written as a single request.

Example:
  duui-ner prepare corpus.txt --shuffle --chunk-size 500
  duui-ner prepare page.html --html --language en --out-dir ./data
  duui-ner prepare https://de.wikipedia.org/wiki/K%C3%B6ln --html`,
	Args: cobra.ExactArgs(1),
	RunE: runPrepare,
}

func init() {
	rootCmd.AddCommand(prepareCmd)

	prepareCmd.Flags().StringVar(&prepareOutDir, "out-dir", "./data", "output directory")
	prepareCmd.Flags().StringVar(&preparePrefix, "prefix", "test_split", "output file name prefix")
	prepareCmd.Flags().IntVar(&prepareChunk, "chunk-size", 500, "sentences per request (0 for a single request)")
	prepareCmd.Flags().StringVar(&prepareLanguage, "language", "de", "language tag written into each request")
	prepareCmd.Flags().BoolVar(&prepareShuffle, "shuffle", false, "shuffle lines before chunking")
	prepareCmd.Flags().Int64Var(&prepareSeed, "seed", 42, "shuffle seed")
	prepareCmd.Flags().BoolVar(&prepareHTML, "html", false, "treat input as HTML")
	prepareCmd.Flags().BoolVar(&prepareIgnoreRobots, "ignore-robots", false, "fetch URLs even when robots.txt disallows them")
	prepareCmd.Flags().DurationVar(&prepareTimeout, "timeout", time.Minute, "timeout for reading the input")
}

func runPrepare(cmd *cobra.Command, args []string) error {
	input := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), prepareTimeout)
	defer cancel()

	loader := pipeline.NewLoader(cfg.HTTP, prepareTimeout)
	if !prepareIgnoreRobots {
		loader.WithRobots(util.NewRobotsChecker(cfg.HTTP, prepareTimeout))
	}
	data, err := loader.Read(ctx, input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}
	r := bytes.NewReader(data)

	var requests []model.Request
	if prepareHTML {
		req, err := requestFromHTML(r, prepareLanguage)
		if err != nil {
			return err
		}
		requests = []model.Request{req}
	} else {
		lines, err := readLines(r)
		if err != nil {
			return err
		}
		if prepareShuffle {
			shuffleLines(lines, prepareSeed)
		}
		requests = requestsFromLines(lines, prepareChunk, prepareLanguage)
	}

	paths, err := writeRequests(prepareOutDir, preparePrefix, requests)
	if err != nil {
		return err
	}

	for i, path := range paths {
		fmt.Fprintf(os.Stderr, "✓ %s (%d sentences)\n", path, len(requests[i].Sentences))
	}
	fmt.Fprintf(os.Stderr, "\nWrote %d requests to %s\n", len(paths), prepareOutDir)

	return nil
}

// readLines returns the trimmed non-blank lines of r
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return lines, nil
}

func shuffleLines(lines []string, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(lines), func(i, j int) {
		lines[i], lines[j] = lines[j], lines[i]
	})
}

func requestsFromLines(lines []string, chunkSize int, language string) []model.Request {
	chunks := segment.Chunk(lines, chunkSize)
	requests := make([]model.Request, 0, len(chunks))
	for _, chunk := range chunks {
		requests = append(requests, segment.FromLines(chunk, language))
	}
	return requests
}

func requestFromHTML(r io.Reader, language string) (model.Request, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.Request{}, fmt.Errorf("read input: %w", err)
	}
	text, err := segment.TextFromHTML(string(data))
	if err != nil {
		return model.Request{}, fmt.Errorf("extract text: %w", err)
	}
	return model.Request{
		Text:      text,
		Language:  language,
		Sentences: segment.Split(text),
	}, nil
}

// writeRequests writes one <prefix>_<n>.json file per request
func writeRequests(dir, prefix string, requests []model.Request) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	paths := make([]string, 0, len(requests))
	for i, req := range requests {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(req); err != nil {
			return paths, fmt.Errorf("encode request %d: %w", i, err)
		}

		path := filepath.Join(dir, fmt.Sprintf("%s_%d.json", prefix, i))
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
