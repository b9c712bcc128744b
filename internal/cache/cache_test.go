package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m-stoeckel/duui-uima/internal/model"
)

func TestKey(t *testing.T) {
	assert.Equal(t, Key("a", "b"), Key("a", "b"))
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
	assert.NotEqual(t, Key("regex", "en", "text"), Key("regex", "de", "text"))
	assert.Contains(t, Key("x"), "duui-ner:v1:")
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Set("short", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, ok = c.Get("short")
	assert.False(t, ok)

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)

	require.NoError(t, c.Set("a", []byte("1"), 0))
	require.NoError(t, c.Clear())
	assert.Equal(t, 0, c.Len())
}

func TestDiskCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewDiskCache(dir, time.Hour)

	key := Key("some", "request")
	_, ok := c.Get(key)
	assert.False(t, ok)

	require.NoError(t, c.Set(key, []byte(`{"predictions":[]}`), 0))
	got, ok := c.Get(key)
	assert.True(t, ok)
	assert.JSONEq(t, `{"predictions":[]}`, string(got))

	// A fresh instance reads the same files
	got, ok = NewDiskCache(dir, time.Hour).Get(key)
	assert.True(t, ok)
	assert.NotEmpty(t, got)

	require.NoError(t, c.Set("expired", []byte("x"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, ok = c.Get("expired")
	assert.False(t, ok)

	require.NoError(t, c.Delete(key))
	require.NoError(t, c.Delete(key))

	other := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))
	require.NoError(t, c.Set("a", []byte("1"), 0))
	require.NoError(t, c.Clear())
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.FileExists(t, other)
}

func TestDiskCache_CorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	require.NoError(t, os.WriteFile(c.path("bad"), []byte("{not json"), 0o644))

	_, ok := c.Get("bad")
	assert.False(t, ok)
	assert.NoFileExists(t, c.path("bad"))
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	memory := NewMemoryCache(time.Minute, time.Minute)
	disk := NewDiskCache(t.TempDir(), time.Hour)
	c := NewLayeredCache(memory, disk)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	require.NoError(t, memory.Clear())

	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	_, ok = memory.Get("k")
	assert.True(t, ok)

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	assert.Nil(t, New(model.CacheConfig{Enabled: false}))
	assert.IsType(t, &MemoryCache{}, New(model.CacheConfig{Enabled: true, MemoryTTL: time.Minute}))
	assert.IsType(t, &LayeredCache{}, New(model.CacheConfig{Enabled: true, Dir: t.TempDir()}))
}

func TestJSONHelpers(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	in := model.NewResponse([]model.Prediction{model.NewPrediction("PER", 0, 3)}, nil)

	require.NoError(t, SetJSON(c, "r", in, 0))
	var out model.Response
	require.True(t, GetJSON(c, "r", &out))
	assert.Equal(t, in.Predictions, out.Predictions)

	assert.False(t, GetJSON(nil, "r", &out))
	assert.NoError(t, SetJSON(nil, "r", in, 0))
}
