package web

import (
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
)

var mdRenderer = goldmark.New(
	goldmark.WithExtensions(
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
			highlighting.WithFormatOptions(
				chromahtml.WithLineNumbers(false),
			),
		),
	),
)

// renderMarkdown converts a note body to HTML with highlighted code fences.
func renderMarkdown(body string) (string, error) {
	var b strings.Builder
	if err := mdRenderer.Convert([]byte(body), &b); err != nil {
		return "", err
	}
	return b.String(), nil
}
