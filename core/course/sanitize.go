package course

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// AllowedTags are the only elements kept in lesson content. No attribute survives.
var AllowedTags = []string{
	"p", "br", "strong", "em", "ul", "ol", "li", "h1", "h2", "h3", "h4", "blockquote", "code", "pre",
}

// rawTextElements are dropped with their content by bluemonday unless told otherwise.
var rawTextElements = []string{
	"frame", "frameset", "iframe", "noembed", "noframes", "noscript", "nostyle", "object", "script", "style", "title",
}

var (
	unwrapPolicy  *bluemonday.Policy
	contentPolicy *bluemonday.Policy
	policiesOnce  sync.Once
)

func policies() (unwrap, content *bluemonday.Policy) {
	policiesOnce.Do(func() {
		unwrapPolicy = bluemonday.NewPolicy()
		unwrapPolicy.AllowElements(AllowedTags...)
		unwrapPolicy.AllowElementsContent(rawTextElements...)
		// script and style text is only emitted by unsafe policies; the strict pass below re-sanitizes it
		unwrapPolicy.AllowUnsafe(true)

		contentPolicy = bluemonday.NewPolicy()
		contentPolicy.AllowElements(AllowedTags...)
	})
	return unwrapPolicy, contentPolicy
}

// SanitizeContent strips disallowed tags from lesson content, keeping their text.
// The text of raw-text elements such as <script> is unwrapped first, then sanitized again as markup.
func SanitizeContent(content string) string {
	unwrap, strict := policies()
	return strict.Sanitize(unwrap.Sanitize(content))
}
