package scraper

import (
	"strings"

	"golang.org/x/net/html"
)

// junkTags never carry company facts worth embedding.
var junkTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"footer":   true,
	"header":   true,
	"aside":    true,
	"svg":      true,
	"template": true,
}

// ExtractText drops boilerplate elements, joins the remaining text nodes and
// collapses whitespace. maxLen counts runes; 0 means unlimited.
func ExtractText(rawHTML string, maxLen int) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && junkTags[n.Data] {
			return
		}
		if n.Type == html.CommentNode {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	text := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	if maxLen > 0 {
		if runes := []rune(text); len(runes) > maxLen {
			text = string(runes[:maxLen])
		}
	}
	return text, nil
}
