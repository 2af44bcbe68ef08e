package browser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractText parses rendered HTML and returns its visible body text, one trimmed
// line per text block. Scripts, styles and hidden elements are dropped.
func ExtractText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, template, [hidden]").Remove()
	doc.Find("[style]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		style, _ := s.Attr("style")
		return HiddenStyle(style)
	}).Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}

	var b strings.Builder
	var walk func(s *goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			name := goquery.NodeName(c)
			if name == "#text" {
				b.WriteString(c.Text())
				return
			}
			walk(c)
			if !inlineTags[name] {
				b.WriteString("\n")
			}
		})
	}
	walk(body)

	return cleanWhitespace(b.String()), nil
}

var inlineTags = map[string]bool{
	"a": true, "b": true, "i": true, "em": true, "strong": true,
	"span": true, "small": true, "code": true, "label": true,
}

// HiddenStyle reports whether an inline style hides the element.
func HiddenStyle(style string) bool {
	s := strings.ReplaceAll(strings.ToLower(style), " ", "")
	return strings.Contains(s, "display:none") || strings.Contains(s, "visibility:hidden")
}

// ContainsAny reports whether text contains any of the phrases, case-insensitively.
func ContainsAny(text string, phrases ...string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// cleanWhitespace trims every line and drops empty ones.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
