package model

import (
	"net/url"
	"sort"
	"strings"
	"time"
)

// CrawlStatus describes how a domain crawl ended.
type CrawlStatus int

const (
	// StatusComplete means the traversal exhausted its frontier within the budget.
	StatusComplete CrawlStatus = iota

	// StatusPartial means the time budget expired while links were still queued.
	// Whatever was discovered before the expiry is kept.
	StatusPartial

	// StatusFailed means the seed page could not be fetched over https or http.
	// HomeLinks and AllLinks are empty.
	StatusFailed
)

// String returns the lowercase name used in the database and in reports.
func (s CrawlStatus) String() string {
	switch s {
	case StatusComplete:
		return "complete"
	case StatusPartial:
		return "partial"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseCrawlStatus converts a stored status name back into a CrawlStatus.
// Unknown names map to StatusFailed so that damaged rows are reprocessed
// rather than trusted.
func ParseCrawlStatus(s string) CrawlStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "complete":
		return StatusComplete
	case "partial":
		return StatusPartial
	default:
		return StatusFailed
	}
}

// MarshalText implements encoding.TextMarshaler so JSON output uses names.
func (s CrawlStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *CrawlStatus) UnmarshalText(text []byte) error {
	*s = ParseCrawlStatus(string(text))
	return nil
}

// CrawlResult is the record written once per processed domain.
// It is owned by the crawl that builds it until it is persisted,
// after which it is treated as immutable history.
type CrawlResult struct {
	// ID is the database row id. Zero until the result is stored.
	ID int64 `json:"id,omitempty"`

	// RunID identifies the batch run that produced this result.
	RunID string `json:"run_id,omitempty"`

	// Domain is the seed hostname.
	Domain string `json:"domain"`

	// Country is the corpus country label of the task.
	Country string `json:"country"`

	// Scheme is the scheme the seed answered on ("https" or "http").
	// Empty when the seed could not be fetched.
	Scheme string `json:"scheme,omitempty"`

	// HomeLinks are the resource links (anchors, images, scripts, iframes,
	// forms) found on the seed page alone. Hosts are not filtered.
	HomeLinks []string `json:"home_links"`

	// AllLinks are the in-domain anchor links discovered by the traversal.
	AllLinks []string `json:"all_links"`

	// PolicyLinks are the links from HomeLinks and AllLinks that look like
	// privacy, terms or data-policy pages.
	PolicyLinks []string `json:"policy_links"`

	// PagesFetched counts successful fetches during the traversal.
	PagesFetched int `json:"pages_fetched"`

	// BudgetExceeded is true when the time budget cut the traversal short.
	BudgetExceeded bool `json:"budget_exceeded"`

	// Status summarizes the outcome.
	Status CrawlStatus `json:"status"`

	// ProcessedAt is when the crawl finished.
	ProcessedAt time.Time `json:"processed_at"`
}

// NewCrawlResult returns an empty result for the task.
func NewCrawlResult(task CrawlTask) *CrawlResult {
	return &CrawlResult{
		Domain:      task.Domain,
		Country:     task.Country,
		HomeLinks:   make([]string, 0),
		AllLinks:    make([]string, 0),
		PolicyLinks: make([]string, 0),
		Status:      StatusFailed,
	}
}

// Finalize deduplicates and sorts the link sets and stamps ProcessedAt.
func (r *CrawlResult) Finalize(now time.Time) {
	r.HomeLinks = UniqueSorted(r.HomeLinks)
	r.AllLinks = UniqueSorted(r.AllLinks)
	r.PolicyLinks = UniqueSorted(r.PolicyLinks)
	r.ProcessedAt = now
}

// IsEmpty reports whether the crawl discovered no links at all.
func (r *CrawlResult) IsEmpty() bool {
	return len(r.HomeLinks) == 0 && len(r.AllLinks) == 0
}

// UniqueSorted returns the distinct non-empty values of in, sorted.
// The result is never nil.
func UniqueSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// PolicyKeywords are substrings that mark a URL as a likely policy page.
// They cover English, Chinese, Korean and Japanese sites.
var PolicyKeywords = []string{
	// English
	"privac", "poli", "ethic", "terms", "servic", "policy", "data", "safety",
	"legal", "cookie", "tos",
	// Chinese
	"隐私", "政策", "条款", "服务", "数据", "安全", "隱私", "條款",
	// Korean
	"개인정보", "정책", "이용약관", "서비스", "데이터", "안전",
	// Japanese
	"プライバシー", "個人情報", "利用規約", "規約", "ポリシー",
}

// IsPolicyLink reports whether link contains one of PolicyKeywords in its
// path or query. Matching is case-insensitive and runs against the
// percent-decoded form so that encoded CJK paths are recognized.
func IsPolicyLink(link string) bool {
	return MatchesKeywords(link, PolicyKeywords)
}

// MatchesKeywords reports whether the path or query of link contains one of
// keywords, compared case-insensitively after percent-decoding. Keywords
// must be lowercase. The host is never matched.
func MatchesKeywords(link string, keywords []string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}

	target := u.Path + "?" + u.RawQuery
	if decoded, err := url.PathUnescape(u.EscapedPath()); err == nil {
		target = decoded + "?" + u.RawQuery
	}
	if q, err := url.QueryUnescape(u.RawQuery); err == nil {
		target += " " + q
	}
	target = strings.ToLower(target)

	for _, kw := range keywords {
		if strings.Contains(target, kw) {
			return true
		}
	}
	return false
}

// FilterPolicyLinks returns the links from all sets that satisfy IsPolicyLink.
func FilterPolicyLinks(sets ...[]string) []string {
	out := make([]string, 0)
	for _, set := range sets {
		for _, link := range set {
			if IsPolicyLink(link) {
				out = append(out, link)
			}
		}
	}
	return UniqueSorted(out)
}
