package markdown

import (
	"bytes"
	"log"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// The converter configuration never changes, and goldmark keeps per-call
// state inside Convert, so one instance is shared.
var (
	converter     goldmark.Markdown
	converterOnce sync.Once
)

func getConverter() goldmark.Markdown {
	converterOnce.Do(func() {
		converter = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		)
	})
	return converter
}

// RenderHTML converts slide content to HTML using GitHub-flavoured markdown.
// Lyrics rely on single newlines, so soft breaks render as <br>. On failure
// the input is returned unchanged.
func RenderHTML(content string) string {
	var buf bytes.Buffer
	if err := getConverter().Convert([]byte(content), &buf); err != nil {
		log.Printf("[Markdown] Error rendering markdown: %v", err)
		return content
	}
	return buf.String()
}
