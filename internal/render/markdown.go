package render

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Markdown converts AI narratives to HTML. Raw HTML in the source is
// omitted from the output, and single newlines become line breaks.
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown creates the markdown renderer.
func NewMarkdown() *Markdown {
	return &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

// Render converts text to HTML. Empty text yields empty HTML.
func (m *Markdown) Render(text string) (template.HTML, error) {
	if text == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	// goldmark output is trusted: unsafe HTML is disabled
	return template.HTML(buf.String()), nil
}
