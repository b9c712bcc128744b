package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/m-stoeckel/duui-uima/internal/model"
)

// ErrDisallowed is returned for URLs excluded by the site's robots.txt
var ErrDisallowed = errors.New("disallowed by robots.txt")

// RobotsChecker answers robots.txt queries, caching one policy per host
type RobotsChecker struct {
	cache      map[string]*robotstxt.RobotsData
	mu         sync.RWMutex
	httpClient *http.Client
	userAgent  string
}

// NewRobotsChecker creates a checker that fetches robots.txt with the
// outbound HTTP settings
func NewRobotsChecker(cfg model.HTTPConfig, timeout time.Duration) *RobotsChecker {
	return &RobotsChecker{
		cache: make(map[string]*robotstxt.RobotsData),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
		},
		userAgent: cfg.UserAgent,
	}
}

// Check returns ErrDisallowed when rawURL may not be fetched. An unreachable
// or unparsable robots.txt allows everything.
func (r *RobotsChecker) Check(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}

	data, err := r.policy(ctx, parsed)
	if err != nil {
		return nil
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	if !data.TestAgent(path, agentToken(r.userAgent)) {
		return fmt.Errorf("%w: %s", ErrDisallowed, rawURL)
	}
	return nil
}

func (r *RobotsChecker) policy(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, ok := r.cache[u.Host]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// FromResponse maps 4xx to allow-all and 5xx to disallow-all
	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.mu.Lock()
	r.cache[u.Host] = data
	r.mu.Unlock()

	return data, nil
}

// agentToken reduces a User-Agent to its product name, e.g.
// "duui-ner/0.1.0 (+https://...)" becomes "duui-ner"
func agentToken(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) == 0 {
		return "*"
	}
	return strings.Split(parts[0], "/")[0]
}
