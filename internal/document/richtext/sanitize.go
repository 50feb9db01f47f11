package richtext

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// editorPolicy allows what the WYSIWYG editor produces and nothing else.
func editorPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements(
			"h1", "h2", "h3", "h4", "h5", "h6",
			"p", "div", "br", "span",
			"b", "strong", "i", "em", "u",
			"ul", "ol", "li",
			"table", "thead", "tbody", "tfoot", "tr", "th", "td",
		)
		p.AllowAttrs("href").OnElements("a")
		p.AllowURLSchemes("http", "https", "mailto")
		p.RequireParseableURLs(true)
		p.AllowAttrs("src", "alt").OnElements("img")
		p.AllowDataURIImages()
		p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")
		policy = p
	})
	return policy
}

// Sanitize strips every element and attribute outside the editor vocabulary. Script and
// style elements are dropped together with their content.
func Sanitize(html string) string {
	if html == "" {
		return ""
	}
	return editorPolicy().Sanitize(html)
}
