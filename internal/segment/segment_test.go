package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m-stoeckel/duui-uima/internal/model"
	"github.com/m-stoeckel/duui-uima/internal/offsets"
)

func TestFromLines(t *testing.T) {
	req := FromLines([]string{"Zoë wohnt in Köln.", "", "Ende"}, "de")

	assert.Equal(t, "Zoë wohnt in Köln.\n\nEnde", req.Text)
	assert.Equal(t, "de", req.Language)
	assert.Equal(t, []model.SentenceOffsets{
		{Begin: 0, End: 18},
		{Begin: 19, End: 19},
		{Begin: 20, End: 24},
	}, req.Sentences)

	sentences, err := offsets.Decompose(req.Text, req.Sentences)
	require.NoError(t, err)
	assert.Equal(t, "Zoë wohnt in Köln.", sentences[0].Text)
	assert.Equal(t, "Ende", sentences[2].Text)
}

func TestFromLines_Empty(t *testing.T) {
	req := FromLines(nil, "en")
	assert.Equal(t, "", req.Text)
	assert.NotNil(t, req.Sentences)
	assert.Empty(t, req.Sentences)
}

func TestChunk(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e"}

	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, Chunk(lines, 2))
	assert.Equal(t, [][]string{lines}, Chunk(lines, 0))
	assert.Equal(t, [][]string{lines}, Chunk(lines, 10))
	assert.Empty(t, Chunk(nil, 3))
}

func TestSplit(t *testing.T) {
	text := "  Ärger in Köln! Wirklich?  Ja.\nNeue Zeile v.2 ok"
	got := Split(text)

	var parts []string
	for _, s := range got {
		parts = append(parts, offsets.Slice(text, s.Begin, s.End))
	}
	assert.Equal(t, []string{"Ärger in Köln!", "Wirklich?", "Ja.", "Neue Zeile v.2 ok"}, parts)
	assert.Equal(t, 2, got[0].Begin)
}

func TestSplit_Blank(t *testing.T) {
	assert.Empty(t, Split(""))
	assert.Empty(t, Split(" \n\t "))
}

func TestTextFromHTML(t *testing.T) {
	doc := `<html><head><title>T</title><style>p{}</style></head>
<body><h1>Köln</h1><p>Zoë wohnt <b>hier</b>.</p><script>var x = 1;</script>
<noscript>enable js</noscript><ul><li>Eins</li><li>Zwei</li></ul></body></html>`

	text, err := TextFromHTML(doc)
	require.NoError(t, err)
	assert.Equal(t, "Köln\nZoë wohnt hier .\nEins\nZwei", text)
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, "enable js")
}
