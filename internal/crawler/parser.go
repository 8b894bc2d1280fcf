package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Scope selects which elements Extract reads links from.
type Scope int

const (
	// ScopeAnchors extracts <a href> only. Used by the traversal.
	ScopeAnchors Scope = iota

	// ScopeResources extracts <a href>, <img src>, <script src>,
	// <iframe src> and <form action>. Used by the home-page scan.
	ScopeResources
)

// String returns the scope name for logging.
func (s Scope) String() string {
	if s == ScopeResources {
		return "resources"
	}
	return "anchors"
}

// linkAttr returns the attribute holding a link for element name under
// scope, or "" if the element is not part of the scope.
func linkAttr(name string, scope Scope) string {
	if name == "a" {
		return "href"
	}
	if scope != ScopeResources {
		return ""
	}
	switch name {
	case "img", "script", "iframe":
		return "src"
	case "form":
		return "action"
	}
	return ""
}

// Extract returns the absolute http(s) URLs referenced by an HTML document,
// resolved against baseURL (or the document's <base href>). Fragments are
// removed. The result keeps document order and contains no duplicates.
//
// A document that cannot be parsed yields no links and the parse error.
// Callers treat that as "zero links found".
func Extract(r io.Reader, baseURL string, scope Scope) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	links := make([]string, 0)
	seen := make(map[string]struct{})
	baseSet := false

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.Data == "base" && !baseSet {
				if href := getAttr(n, "href"); href != "" {
					if u, err := url.Parse(strings.TrimSpace(href)); err == nil {
						base = base.ResolveReference(u)
						baseSet = true
					}
				}
			}

			if attr := linkAttr(n.Data, scope); attr != "" {
				if link := resolveURL(base, getAttr(n, attr)); link != "" {
					if _, dup := seen[link]; !dup {
						seen[link] = struct{}{}
						links = append(links, link)
					}
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links, nil
}

// resolveURL resolves href against base and returns the absolute URL, or ""
// for empty, non-navigable (javascript:, mailto:, tel:, data:) or non-http
// references.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return ""
	}

	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	if resolved.Host == "" {
		return ""
	}
	resolved.Host = strings.ToLower(resolved.Host)
	resolved.Fragment = ""
	resolved.RawFragment = ""

	return resolved.String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
