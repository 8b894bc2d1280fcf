package model

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

// TestCrawlStatusString tests status names and their round trip.
func TestCrawlStatusString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		status   CrawlStatus
		expected string
	}{
		{StatusComplete, "complete"},
		{StatusPartial, "partial"},
		{StatusFailed, "failed"},
		{CrawlStatus(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if got := tc.status.String(); got != tc.expected {
				t.Errorf("got %q, expected %q", got, tc.expected)
			}
		})
	}

	t.Run("unknown names parse as failed", func(t *testing.T) {
		t.Parallel()
		if got := ParseCrawlStatus("garbage"); got != StatusFailed {
			t.Errorf("expected StatusFailed, got %v", got)
		}
		if got := ParseCrawlStatus(" Partial "); got != StatusPartial {
			t.Errorf("expected StatusPartial, got %v", got)
		}
	})

	t.Run("json uses names", func(t *testing.T) {
		t.Parallel()
		data, err := json.Marshal(struct {
			S CrawlStatus `json:"s"`
		}{S: StatusPartial})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != `{"s":"partial"}` {
			t.Errorf("unexpected json %s", data)
		}
	})
}

// TestNewCrawlResult tests the zero result for a task.
func TestNewCrawlResult(t *testing.T) {
	t.Parallel()

	r := NewCrawlResult(CrawlTask{Domain: "example.com", Country: "Korea"})

	if r.Domain != "example.com" || r.Country != "Korea" {
		t.Errorf("task fields not copied: %+v", r)
	}
	if r.Status != StatusFailed {
		t.Errorf("expected new result to start as failed, got %v", r.Status)
	}
	if r.HomeLinks == nil || r.AllLinks == nil || r.PolicyLinks == nil {
		t.Error("expected non-nil link slices")
	}
	if !r.IsEmpty() {
		t.Error("expected new result to be empty")
	}
}

// TestCrawlResultFinalize tests deduplication and timestamping.
func TestCrawlResultFinalize(t *testing.T) {
	t.Parallel()

	r := &CrawlResult{
		HomeLinks: []string{"https://b.example.com", "https://a.example.com", "https://b.example.com"},
		AllLinks:  []string{"https://example.com/x", "", "https://example.com/x"},
	}
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	r.Finalize(now)

	if want := []string{"https://a.example.com", "https://b.example.com"}; !reflect.DeepEqual(r.HomeLinks, want) {
		t.Errorf("HomeLinks = %v, want %v", r.HomeLinks, want)
	}
	if want := []string{"https://example.com/x"}; !reflect.DeepEqual(r.AllLinks, want) {
		t.Errorf("AllLinks = %v, want %v", r.AllLinks, want)
	}
	if r.PolicyLinks == nil {
		t.Error("expected PolicyLinks to be non-nil after Finalize")
	}
	if !r.ProcessedAt.Equal(now) {
		t.Errorf("ProcessedAt = %v, want %v", r.ProcessedAt, now)
	}
}

// TestIsPolicyLink tests keyword matching on URLs.
func TestIsPolicyLink(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		link string
		want bool
	}{
		{"english privacy", "https://example.com/privacy-policy", true},
		{"english terms uppercase", "https://example.com/Legal/TERMS.html", true},
		{"query keyword", "https://example.com/page?doc=policy", true},
		{"korean encoded", "https://example.kr/%EA%B0%9C%EC%9D%B8%EC%A0%95%EB%B3%B4", true},
		{"chinese raw", "https://example.cn/隐私", true},
		{"japanese", "https://example.jp/利用規約/", true},
		{"plain article", "https://example.com/news/today", false},
		{"host only keyword does not count", "https://privacy.example.com/", false},
		{"unparsable", "://bad", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsPolicyLink(tc.link); got != tc.want {
				t.Errorf("IsPolicyLink(%q) = %v, want %v", tc.link, got, tc.want)
			}
		})
	}
}

// TestFilterPolicyLinks tests merging of policy candidates across sets.
func TestFilterPolicyLinks(t *testing.T) {
	t.Parallel()

	home := []string{"https://example.com/privacy", "https://cdn.example.com/logo.png"}
	all := []string{"https://example.com/terms", "https://example.com/privacy"}

	got := FilterPolicyLinks(home, all)
	want := []string{"https://example.com/privacy", "https://example.com/terms"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if got := FilterPolicyLinks(); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

// TestNewCrawlTasks tests task construction from a domain list.
func TestNewCrawlTasks(t *testing.T) {
	t.Parallel()

	tasks := NewCrawlTasks([]string{"a.com", " ", " b.com "}, "Japan")
	want := []CrawlTask{{Domain: "a.com", Country: "Japan"}, {Domain: "b.com", Country: "Japan"}}
	if !reflect.DeepEqual(tasks, want) {
		t.Errorf("got %v, want %v", tasks, want)
	}
}
