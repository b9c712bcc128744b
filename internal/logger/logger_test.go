package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure(t *testing.T) {
	require.NoError(t, Configure("debug", "json"))
	assert.Equal(t, logrus.DebugLevel, Get().GetLevel())

	assert.Error(t, Configure("loud", "text"))
	assert.Error(t, Configure("info", "xml"))

	require.NoError(t, Configure("info", "text"))
	assert.Equal(t, logrus.InfoLevel, Get().GetLevel())
}

func TestLeveledFields(t *testing.T) {
	l := logrus.New()
	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	NewLeveled(l).Warn("retrying", "url", "http://x", "attempt", 2, "dangling")

	out := buf.String()
	assert.Contains(t, out, `"msg":"retrying"`)
	assert.Contains(t, out, `"url":"http://x"`)
	assert.Contains(t, out, `"attempt":2`)
	assert.NotContains(t, out, "dangling")
}
