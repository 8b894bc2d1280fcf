package crawler

import (
	"slices"
	"strings"
	"testing"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	page := `<html><head><title>Home</title></head><body>
		<a href="/privacy">Privacy</a>
		<a href="terms.html#section-2">Terms</a>
		<a href="https://other.com/x">Other</a>
		<a href="/privacy">Privacy again</a>
		<a href="javascript:void(0)">JS</a>
		<a href="mailto:help@example.com">Mail</a>
		<a href="tel:+82-2-000-0000">Phone</a>
		<a href="#">Top</a>
		<a href="ftp://example.com/file">FTP</a>
		<a>No href</a>
		<img src="/logo.png">
		<script src="//cdn.example.com/app.js"></script>
		<iframe src="/embed"></iframe>
		<form action="/search"></form>
		<form action=""></form>
	</body></html>`

	t.Run("anchors only", func(t *testing.T) {
		t.Parallel()

		links, err := Extract(strings.NewReader(page), "https://example.com/ko/index.html", ScopeAnchors)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{
			"https://example.com/privacy",
			"https://example.com/ko/terms.html",
			"https://other.com/x",
		}
		if !slices.Equal(links, want) {
			t.Errorf("expected %v, got %v", want, links)
		}
	})

	t.Run("resources", func(t *testing.T) {
		t.Parallel()

		links, err := Extract(strings.NewReader(page), "https://example.com/", ScopeResources)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{
			"https://example.com/privacy",
			"https://example.com/terms.html",
			"https://other.com/x",
			"https://example.com/logo.png",
			"https://cdn.example.com/app.js",
			"https://example.com/embed",
			"https://example.com/search",
		}
		if !slices.Equal(links, want) {
			t.Errorf("expected %v, got %v", want, links)
		}
	})

	t.Run("honors base href", func(t *testing.T) {
		t.Parallel()

		doc := `<html><head><base href="https://static.example.com/root/"></head>
			<body><a href="policy">Policy</a></body></html>`

		links, err := Extract(strings.NewReader(doc), "https://example.com/", ScopeAnchors)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(links) != 1 || links[0] != "https://static.example.com/root/policy" {
			t.Errorf("expected link resolved against base, got %v", links)
		}
	})

	t.Run("malformed markup still yields links", func(t *testing.T) {
		t.Parallel()

		doc := `<div><a href="/a">unclosed <p><a href="/b"</div>`

		links, err := Extract(strings.NewReader(doc), "http://example.com", ScopeAnchors)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Contains(links, "http://example.com/a") {
			t.Errorf("expected /a to be extracted, got %v", links)
		}
	})

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()

		links, err := Extract(strings.NewReader(""), "http://example.com", ScopeAnchors)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(links) != 0 {
			t.Errorf("expected no links, got %v", links)
		}
	})

	t.Run("invalid base", func(t *testing.T) {
		t.Parallel()

		if _, err := Extract(strings.NewReader(page), "http://[::1", ScopeAnchors); err == nil {
			t.Error("expected error for invalid base URL")
		}
	})
}

func TestScopeString(t *testing.T) {
	t.Parallel()

	if ScopeAnchors.String() != "anchors" {
		t.Errorf("expected anchors, got %s", ScopeAnchors)
	}
	if ScopeResources.String() != "resources" {
		t.Errorf("expected resources, got %s", ScopeResources)
	}
}
