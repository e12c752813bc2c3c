// Package pagetext prepares page content for prompting.
package pagetext

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var markupStart = regexp.MustCompile(`(?i)^<(?:!doctype|html|head|body|main|article|section|div|p|span|table|ul|ol|h[1-6])\b`)

const (
	hiddenElements = "script, style, noscript, template, svg, iframe"
	blockElements  = "title, br, p, div, li, dt, dd, h1, h2, h3, h4, h5, h6, tr, pre, blockquote, section, article, header, footer, nav, aside"
)

// Normalize returns the visible text of content that is an HTML document or
// fragment, one block per line. Anything else, including HTML that parses
// to no text, is returned unchanged.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !markupStart.MatchString(trimmed) {
		return raw
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		return raw
	}

	doc.Find(hiddenElements).Remove()
	doc.Find(blockElements).Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return raw
	}
	return strings.Join(lines, "\n")
}
