package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/m-stoeckel/duui-uima/internal/logger"
	"github.com/m-stoeckel/duui-uima/internal/model"
	"github.com/m-stoeckel/duui-uima/internal/util"
)

// Loader reads annotation requests from files, stdin ("-") or http(s) URLs
type Loader struct {
	httpClient *retryablehttp.Client
	userAgent  string
	maxBytes   int64
	stdin      io.Reader
	robots     *util.RobotsChecker
}

// NewLoader creates a Loader from the outbound HTTP settings
func NewLoader(cfg model.HTTPConfig, timeout time.Duration) *Loader {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = logger.NewLeveled(logger.Get())
	client.HTTPClient = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}

	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}

	return &Loader{
		httpClient: client,
		userAgent:  cfg.UserAgent,
		maxBytes:   maxBytes,
		stdin:      os.Stdin,
	}
}

// WithRobots makes URL fetches honor robots.txt
func (l *Loader) WithRobots(checker *util.RobotsChecker) *Loader {
	l.robots = checker
	return l
}

// Read returns the raw bytes of source without decoding them
func (l *Loader) Read(ctx context.Context, source string) ([]byte, error) {
	return l.read(ctx, source)
}

// Load reads and decodes one request
func (l *Loader) Load(ctx context.Context, source string) (*model.Request, error) {
	data, err := l.read(ctx, source)
	if err != nil {
		return nil, err
	}
	return DecodeRequest(data)
}

// DecodeRequest parses a request body
func DecodeRequest(data []byte) (*model.Request, error) {
	var req model.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: decode JSON: %v", ErrInvalidRequest, err)
	}
	if req.Sentences == nil {
		req.Sentences = []model.SentenceOffsets{}
	}
	return &req, nil
}

func (l *Loader) read(ctx context.Context, source string) ([]byte, error) {
	switch {
	case source == "-":
		return l.readLimited(l.stdin)

	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		return l.fetch(ctx, source)

	default:
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open: %w", err)
		}
		defer func() { _ = f.Close() }()
		return l.readLimited(f)
	}
}

func (l *Loader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if l.robots != nil {
		if err := l.robots.Check(ctx, rawURL); err != nil {
			return nil, err
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.5")
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	return l.readLimited(resp.Body)
}

// readLimited fails instead of silently truncating oversized input
func (l *Loader) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("input exceeds %d bytes", l.maxBytes)
	}
	return data, nil
}
