package markdown

import (
	"bytes"
	"html/template"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var citationMarker = regexp.MustCompile(`\[(\d+)\]`)

// Renderer turns assistant Markdown into sanitized HTML.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewRenderer() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^citation$`)).OnElements("span")

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy: policy,
	}
}

// Render converts Markdown to HTML, strips anything unsafe and highlights
// bracketed citation markers. On conversion failure the escaped source is
// returned.
func (r *Renderer) Render(source string) template.HTML {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	safe := r.policy.Sanitize(buf.String())
	safe = citationMarker.ReplaceAllString(safe, `<span class="citation">[$1]</span>`)
	return template.HTML(safe)
}
