// Test program that exercises a running duui-ner service with documents
// mixing multi-byte characters and whitespace-padded sentences, and checks
// that every prediction stays inside its sentence.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/m-stoeckel/duui-uima/internal/model"
	"github.com/m-stoeckel/duui-uima/internal/offsets"
	"github.com/m-stoeckel/duui-uima/internal/segment"
)

func main() {
	baseURL := "http://localhost:9714"
	if len(os.Args) > 1 {
		baseURL = strings.TrimRight(os.Args[1], "/")
	}

	fmt.Printf("=== duui-ner endpoint test (%s) ===\n\n", baseURL)

	documents := []model.Request{
		segment.FromLines([]string{
			"Zoë Müller zog 2019 von Köln nach Zürich.",
			"Schreib ihr an zoe@example.org oder ruf +49 221 1234567 an.",
			"🙂 Emojis vor Angela Merkel verschieben keine Offsets.",
		}, "de"),
		{
			Text:      "  Barack Obama visited Paris.   Contact: press@example.com ",
			Language:  "en",
			Sentences: []model.SentenceOffsets{{Begin: 0, End: 31}, {Begin: 31, End: 59}},
		},
		{Text: "", Language: "en", Sentences: []model.SentenceOffsets{}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	failures := 0
	for i, doc := range documents {
		fmt.Printf("Document %d (%d sentences)\n", i, len(doc.Sentences))
		fmt.Println(strings.Repeat("-", 60))

		resp, err := process(ctx, baseURL, doc)
		if err != nil {
			failures++
			fmt.Printf("  ✗ %v\n\n", err)
			continue
		}

		for _, p := range resp.Predictions {
			status := "✓"
			if !insideSentence(p, doc.Sentences) {
				status = "✗ outside every sentence"
				failures++
			}
			fmt.Printf("  %s %-6s [%d, %d) %q\n", status, p.Label, p.Begin, p.End, offsets.Slice(doc.Text, p.Begin, p.End))
		}
		if len(resp.Predictions) == 0 {
			fmt.Println("  (no entities)")
		}
		fmt.Println()
	}

	fmt.Println("=== Test Complete ===")
	if failures > 0 {
		fmt.Printf("%d failures\n", failures)
		os.Exit(1)
	}
}

func process(ctx context.Context, baseURL string, doc model.Request) (*model.Response, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/process", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(data)))
	}

	var resp model.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func insideSentence(p model.Prediction, sentences []model.SentenceOffsets) bool {
	for _, s := range sentences {
		if p.Begin >= s.Begin && p.End <= s.End {
			return true
		}
	}
	return false
}
