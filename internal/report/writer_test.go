package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/policycrawl/internal/model"
)

var testTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// createTestResults creates results with sample data for testing.
func createTestResults() []*model.CrawlResult {
	naver := model.NewCrawlResult(model.CrawlTask{Domain: "naver.com", Country: "Korea"})
	naver.Status = model.StatusComplete
	naver.HomeLinks = []string{"https://naver.com/", "https://naver.com/policy/privacy"}
	naver.AllLinks = []string{"https://naver.com/news", "https://naver.com/policy/terms"}
	naver.PolicyLinks = []string{"https://naver.com/policy/privacy", "https://naver.com/policy/terms"}
	naver.PagesFetched = 3
	naver.ProcessedAt = testTime

	daum := model.NewCrawlResult(model.CrawlTask{Domain: "daum.net", Country: "Korea"})
	daum.Status = model.StatusPartial
	daum.AllLinks = []string{"https://daum.net/cafe"}
	daum.PagesFetched = 40
	daum.ProcessedAt = testTime

	down := model.NewCrawlResult(model.CrawlTask{Domain: "down.example", Country: "Korea"})
	down.ProcessedAt = testTime

	return []*model.CrawlResult{naver, daum, down}
}

func createTestSummary(results []*model.CrawlResult) *model.Summary {
	return model.NewSummary("Korea", results, testTime)
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		results := createTestResults()
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestSummary(results), results); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"POLICY LINK REPORT", "Korea", "COMPLETE: 1", "PARTIAL:  1", "FAILED:   1"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("lists only domains with policy links by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		results := createTestResults()
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestSummary(results), results); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "* https://naver.com/policy/privacy") {
			t.Error("expected output to contain policy link")
		}
		if strings.Contains(output, "daum.net (") {
			t.Error("expected domain without policy links to be hidden")
		}
	})

	t.Run("show empty lists every domain", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		results := createTestResults()
		w := NewSimpleWriter(&buf, WithShowEmpty(true))

		if _, err := w.Write(createTestSummary(results), results); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[~] daum.net (partial, 40 pages)") {
			t.Errorf("expected partial domain line, got:\n%s", output)
		}
		if !strings.Contains(output, "[!] down.example (failed, 0 pages)") {
			t.Errorf("expected failed domain line, got:\n%s", output)
		}
	})

	t.Run("verbose lists all links", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		results := createTestResults()
		w := NewSimpleWriter(&buf, WithVerbose(true))

		if _, err := w.Write(createTestSummary(results), results); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "https://daum.net/cafe") {
			t.Error("expected verbose output to contain all links")
		}
	})

	t.Run("reports when nothing was found", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestSummary(nil), nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "No policy links found") {
			t.Error("expected empty notice")
		}
	})

	t.Run("summary only", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		results := createTestResults()
		w := NewSimpleWriter(&buf)

		n, err := w.WriteSummary(createTestSummary(results))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("expected %d bytes reported, got %d", buf.Len(), n)
		}
		if strings.Contains(buf.String(), "DOMAINS") {
			t.Error("expected summary output to omit domains")
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid JSON report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		results := createTestResults()
		w := NewJSONWriter(&buf, WithVersion("v1.2.3"))

		if _, err := w.Write(createTestSummary(results), results); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parsed JSONReport
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if parsed.Version != "v1.2.3" {
			t.Errorf("expected version v1.2.3, got %s", parsed.Version)
		}
		if len(parsed.Results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(parsed.Results))
		}
		if parsed.Results[1].Status != model.StatusPartial {
			t.Errorf("expected partial status, got %s", parsed.Results[1].Status)
		}
		if parsed.Summary == nil || parsed.Summary.Failed != 1 {
			t.Errorf("unexpected summary: %+v", parsed.Summary)
		}
	})

	t.Run("nil results encode as empty array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(createTestSummary(nil), nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), `"results":[]`) {
			t.Errorf("expected empty results array, got %s", buf.String())
		}
	})

	t.Run("pretty print indents output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		if _, err := w.WriteSummary(createTestSummary(createTestResults())); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"") {
			t.Error("expected indented JSON")
		}
		if !strings.HasSuffix(buf.String(), "\n") {
			t.Error("expected trailing newline")
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes tables and chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		results := createTestResults()
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestSummary(results), results); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Policy Link Report",
			"## Crawl Summary",
			"```mermaid",
			"## Domains",
			"`naver.com`",
			"### naver.com",
			"https://naver.com/policy/terms",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(output, "### daum.net") {
			t.Error("expected domains without policy links to be omitted from the link section")
		}
	})

	t.Run("empty store", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestSummary(nil), nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "No domains processed.") {
			t.Error("expected empty domains notice")
		}
		if strings.Contains(output, "```mermaid") {
			t.Error("expected no chart without results")
		}
	})

	t.Run("summary only", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.WriteSummary(createTestSummary(createTestResults())); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "## Domains") {
			t.Error("expected summary output to omit domain table")
		}
	})
}

// failingWriter is a Writer that always errors.
type failingWriter struct{}

func (failingWriter) Write(*model.Summary, []*model.CrawlResult) (int, error) {
	return 0, errors.New("boom")
}

func (failingWriter) WriteSummary(*model.Summary) (int, error) {
	return 0, errors.New("boom")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var simple, js bytes.Buffer
		results := createTestResults()
		mw := NewMultiWriter(NewSimpleWriter(&simple), NewJSONWriter(&js))

		n, err := mw.Write(createTestSummary(results), results)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != simple.Len()+js.Len() {
			t.Errorf("expected %d bytes, got %d", simple.Len()+js.Len(), n)
		}
		if simple.Len() == 0 || js.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		mw := NewMultiWriter(failingWriter{}, NewSimpleWriter(&after))

		if _, err := mw.WriteSummary(createTestSummary(nil)); err == nil {
			t.Fatal("expected error")
		}
		if after.Len() != 0 {
			t.Error("expected later writers to be skipped")
		}
	})
}
