package providers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCaptionContentJSON3(t *testing.T) {
	filler := strings.Repeat("lorem ipsum ", 12)
	content := `{"events":[{"segs":[{"utf8":"hello"},{"utf8":"world"}]},{"segs":[{"utf8":"` + filler + `"}]}]}`

	text, err := parseCaptionContent(content)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "hello world"))
	assert.NotContains(t, text, "  ", "whitespace should be collapsed")
}

func TestParseCaptionContentXML(t *testing.T) {
	content := `<transcript><text start="0.0" dur="1.2">first line</text><text start="1.2" dur="2.0">second line</text></transcript>`

	text, err := parseCaptionContent(content)
	require.NoError(t, err)
	assert.Equal(t, "first line second line", text)
}

func TestParseCaptionContentRejectsGarbage(t *testing.T) {
	_, err := parseCaptionContent("<html><body>consent wall</body></html>")
	assert.Error(t, err)

	_, err = parseCaptionContent("not markup at all")
	assert.Error(t, err)
}

func TestExtractCaptionURLsFallsBackToKnownShapes(t *testing.T) {
	urls := extractCaptionURLs("<html>no captions here</html>", "dQw4w9WgXcQ")
	require.Len(t, urls, 3)
	assert.Contains(t, urls[0], "timedtext?v=dQw4w9WgXcQ")
}

func TestExtractCaptionURLsFromMarkup(t *testing.T) {
	html := `{"captions":{"baseUrl":"https://www.youtube.com/api/timedtext?v=abc12345678&lang=en"}`

	urls := extractCaptionURLs(html, "abc12345678")
	require.Len(t, urls, 1)
	assert.Equal(t, "https://www.youtube.com/api/timedtext?v=abc12345678&lang=en", urls[0])
}
