package httphandler

import (
	"bytes"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// postRenderer turns post bodies into the body_html fragment. Bodies are short
// plain-text-ish notes, so single newlines are kept as line breaks and raw
// HTML is dropped by goldmark before the sanitizer ever sees it.
type postRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func newPostRenderer() *postRenderer {
	policy := bluemonday.UGCPolicy()
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &postRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy: policy,
	}
}

var (
	renderer     *postRenderer
	rendererOnce sync.Once
)

// renderMarkdown converts a post body to sanitized HTML. If goldmark fails the
// escaped source is returned instead.
func renderMarkdown(src string) string {
	if src == "" {
		return ""
	}
	rendererOnce.Do(func() { renderer = newPostRenderer() })

	var buf bytes.Buffer
	if err := renderer.md.Convert([]byte(src), &buf); err != nil {
		return string(renderer.policy.SanitizeBytes(util.EscapeHTML([]byte(src))))
	}
	return string(renderer.policy.SanitizeBytes(buf.Bytes()))
}
