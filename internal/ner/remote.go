package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/m-stoeckel/duui-uima/internal/logger"
	"github.com/m-stoeckel/duui-uima/internal/model"
	"github.com/m-stoeckel/duui-uima/internal/offsets"
	"github.com/m-stoeckel/duui-uima/internal/util"
)

const maxRemoteResponseBytes = 16 << 20

type entityMatch struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

type entity struct {
	Name    string        `json:"name"`
	Label   string        `json:"label"`
	Matches []entityMatch `json:"matches"`
}

type entityRequestRecord struct {
	UUID     string `json:"uuid"`
	Text     string `json:"text"`
	Language string `json:"language"`
}

type entityResponseRecord struct {
	UUID     string   `json:"uuid"`
	Entities []entity `json:"entities"`
}

type entityRequest struct {
	Texts []entityRequestRecord `json:"texts"`
}

type entityResponse struct {
	Texts []entityResponseRecord `json:"texts"`
}

// RemoteAnnotator delegates to an external NLP server exposing POST /entities
type RemoteAnnotator struct {
	url        string
	language   string
	byteOffset bool
	attempts   uint
	delay      time.Duration
	userAgent  string
	client     *http.Client
}

// NewRemoteAnnotator creates an annotator for the server at cfg.URL
func NewRemoteAnnotator(cfg model.RemoteConfig, httpCfg model.HTTPConfig) (*RemoteAnnotator, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("remote backend requires model.remote.url")
	}

	var byteOffset bool
	switch strings.ToLower(cfg.OffsetUnit) {
	case "", "chars", "characters":
	case "bytes":
		byteOffset = true
	default:
		return nil, fmt.Errorf("invalid offset unit %q (want chars or bytes)", cfg.OffsetUnit)
	}

	attempts := cfg.Attempts
	if attempts == 0 {
		attempts = 1
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &RemoteAnnotator{
		url:        strings.TrimRight(cfg.URL, "/") + "/entities",
		language:   cfg.Language,
		byteOffset: byteOffset,
		attempts:   attempts,
		delay:      cfg.Delay,
		userAgent:  httpCfg.UserAgent,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
			},
		},
	}, nil
}

// Name returns the backend name
func (r *RemoteAnnotator) Name() string {
	return "remote"
}

// Annotate sends sentence to the server and flattens the returned matches in
// the order the server listed them
func (r *RemoteAnnotator) Annotate(ctx context.Context, sentence string) ([]model.RawEntity, error) {
	language := LanguageFrom(ctx)
	if language == "" {
		language = r.language
	}

	id := uuid.New().String()
	body, err := json.Marshal(entityRequest{
		Texts: []entityRequestRecord{{UUID: id, Text: sentence, Language: language}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal entity request: %w", err)
	}

	var response entityResponse
	err = retry.Do(
		func() error {
			var err error
			response, err = r.post(ctx, body)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Get().WithFields(logrus.Fields{
				"url":     r.url,
				"attempt": n + 1,
			}).Warnf("entity request failed: %v", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnnotator, err)
	}

	var entities []model.RawEntity
	for _, record := range response.Texts {
		if record.UUID != "" && record.UUID != id {
			continue
		}
		for _, e := range record.Entities {
			for _, m := range e.Matches {
				begin, end := m.Start, m.End
				if r.byteOffset {
					begin, end, err = offsets.ByteSpanToChar(sentence, m.Start, m.End)
					if err != nil {
						return nil, fmt.Errorf("%w: match %q: %v", ErrAnnotator, m.Text, err)
					}
				}
				entities = append(entities, model.RawEntity{
					Label: e.Label,
					Begin: begin,
					End:   end,
					Word:  m.Text,
				})
			}
		}
	}

	return entities, nil
}

func (r *RemoteAnnotator) post(ctx context.Context, body []byte) (entityResponse, error) {
	var response entityResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return response, retry.Unrecoverable(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return response, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteResponseBytes))
	if err != nil {
		return response, err
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return response, retry.Unrecoverable(err)
		}
		return response, err
	}

	if err := json.Unmarshal(data, &response); err != nil {
		return response, fmt.Errorf("decode entity response: %w", err)
	}

	return response, nil
}
