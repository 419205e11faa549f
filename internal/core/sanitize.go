package core

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// diaryPolicy keeps only the markup the summarizer is instructed to emit.
// Everything else, including scripts and non-class attributes, is discarded.
var diaryPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("div", "h2", "h3", "p", "strong", "ul", "li", "span", "blockquote")
	p.AllowAttrs("class").Globally()
	return p
}()

func sanitizeDiaryHTML(html string) string {
	return diaryPolicy.Sanitize(html)
}

// stripCodeFence removes a wrapping markdown code fence the model sometimes
// emits around its HTML output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```html")
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
