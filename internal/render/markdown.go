package render

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// BodyRenderer turns stored item bodies into display HTML. The raw flag
// bypasses rendering entirely, returning the stored text untouched.
type BodyRenderer interface {
	RenderBody(body string, raw bool) string
}

// MarkdownBody renders markdown bodies through goldmark with GFM extensions,
// the analogue of the host content filter chain.
type MarkdownBody struct {
	engine goldmark.Markdown
}

// NewMarkdownBody constructs the shared markdown body renderer. The engine is
// stateless and safe for reuse across requests.
func NewMarkdownBody() *MarkdownBody {
	return &MarkdownBody{
		engine: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

func (m *MarkdownBody) RenderBody(body string, raw bool) string {
	if body == "" {
		return ""
	}
	if raw {
		return body
	}
	var buf bytes.Buffer
	if err := m.engine.Convert([]byte(body), &buf); err != nil {
		// Fail soft: the stored body is better than nothing.
		return body
	}
	return strings.TrimSpace(buf.String())
}

// PassthroughBody skips markdown rendering, for hosts that store HTML.
type PassthroughBody struct{}

func (PassthroughBody) RenderBody(body string, raw bool) string {
	return body
}
