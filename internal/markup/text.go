package markup

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// policy is safe for concurrent use once built.
var policy = bluemonday.UGCPolicy()

// Sanitize strips scripts, styles, event handlers and unknown elements from a
// fetched fragment.
func Sanitize(fragment string) string {
	return policy.Sanitize(fragment)
}

// ToMarkdown sanitizes fragment and converts it to Markdown for terminal
// rendering.
func ToMarkdown(fragment string) (string, error) {
	clean := Sanitize(fragment)
	if strings.TrimSpace(clean) == "" {
		return "", nil
	}
	md, err := htmltomarkdown.ConvertString(clean)
	if err != nil {
		return "", fmt.Errorf("converting fragment to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}

// InlineText renders fragment to a single line of plain text.
func InlineText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(Sanitize(fragment)))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
