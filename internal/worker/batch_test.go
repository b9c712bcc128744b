package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m-stoeckel/duui-uima/internal/model"
)

type mockLoader struct{}

func (mockLoader) Load(_ context.Context, source string) (*model.Request, error) {
	if source == "missing.json" {
		return nil, os.ErrNotExist
	}
	return &model.Request{Text: source}, nil
}

type mockProcessor struct{}

func (mockProcessor) Process(_ context.Context, req *model.Request) (*model.Response, error) {
	if req.Text == "bad.json" {
		return nil, errors.New("annotator failed")
	}
	return model.NewResponse(nil, map[string]string{"source": req.Text}), nil
}

func TestBatchProcessor_ProcessSources(t *testing.T) {
	processor := NewBatchProcessor(mockLoader{}, mockProcessor{}, 2)

	sources := []string{"a.json", "missing.json", "bad.json", "b.json"}
	results := processor.ProcessSources(context.Background(), sources)
	require.Len(t, results, 4)

	for i, r := range results {
		assert.Equal(t, sources[i], r.Source)
	}
	assert.NoError(t, results[0].Error)
	assert.Equal(t, "a.json", results[0].Response.Meta["source"])
	assert.ErrorIs(t, results[1].Error, os.ErrNotExist)
	assert.EqualError(t, results[2].Error, "annotator failed")
	assert.NoError(t, results[3].Error)
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(mockLoader{}, mockProcessor{}, 2)
	assert.Empty(t, processor.ProcessSources(context.Background(), nil))
}

func TestReadSourcesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.txt")
	content := "a.json\n# comment\n\n  b.json  \na.json\nhttps://example.org/c.json\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	sources, err := ReadSourcesFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json", "https://example.org/c.json"}, sources)

	_, err = ReadSourcesFromFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.txt")
	require.NoError(t, os.WriteFile(path, []byte("x.json\ny.json\n"), 0o644))

	results, err := NewBatchProcessor(mockLoader{}, mockProcessor{}, 4).ProcessFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "y.json", results[1].Response.Meta["source"])
}
