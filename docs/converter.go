// Package docs renders the HTML documentation bodies carried by templates,
// views and concepts.
package docs

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var excessiveLinesRe = regexp.MustCompile(`\n{3,}`)

// skipped elements contribute no text.
var skipped = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"object":   true,
}

// block elements end a line in plain text.
var block = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"table": true, "ul": true, "ol": true, "blockquote": true, "pre": true,
}

// Converter converts documentation HTML.
type Converter struct {
	converter *md.Converter
}

// NewConverter creates a converter producing GitHub flavored markdown.
func NewConverter() *Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Converter{converter: converter}
}

// Markdown converts an HTML fragment to markdown. Text without markup is
// returned trimmed.
func (c *Converter) Markdown(fragment string) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return "", nil
	}
	out, err := c.converter.ConvertString(fragment)
	if err != nil {
		return "", err
	}
	return cleanMarkdown(out), nil
}

// PlainText returns the text of an HTML fragment with block elements on
// their own lines and runs of whitespace collapsed.
func PlainText(fragment string) string {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			if skipped[n.Data] {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && block[n.Data] {
			sb.WriteByte('\n')
		}
	}
	for _, n := range nodes {
		walk(n)
	}

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// Summary returns the first line of the plain text of fragment, cut to at
// most limit runes.
func Summary(fragment string, limit int) string {
	text := PlainText(fragment)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if r := []rune(text); limit > 0 && len(r) > limit {
		return strings.TrimSpace(string(r[:limit])) + "..."
	}
	return text
}

func cleanMarkdown(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	content = strings.Join(lines, "\n")
	content = excessiveLinesRe.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
