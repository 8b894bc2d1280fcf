package langdetect

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// invisibleSelectors are removed before text extraction.
const invisibleSelectors = "script,style,noscript,template,svg,iframe"

// ExtractText returns the visible text of an HTML document, with runs of
// whitespace collapsed and text nodes separated by single spaces.
func ExtractText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find(invisibleSelectors).Remove()

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				parts = append(parts, text)
			}
		}
		if n.Type == html.CommentNode {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}

	return strings.Join(parts, " "), nil
}
