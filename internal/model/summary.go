package model

import "time"

// Summary is a condensed view over a set of crawl results, used by the
// report writers and the crawl command's closing message.
type Summary struct {
	// Country is the corpus country label the results were selected by.
	// Empty when results of several countries are summarized.
	Country string `json:"country,omitempty"`

	// GeneratedAt is when the summary was built.
	GeneratedAt time.Time `json:"generated_at"`

	// Domains is the number of distinct domains.
	Domains int `json:"domains"`

	// Results is the number of results, counting re-crawls.
	Results int `json:"results"`

	// Complete, Partial and Failed count results by status.
	Complete int `json:"complete"`
	Partial  int `json:"partial"`
	Failed   int `json:"failed"`

	// WithPolicyLinks counts results that found at least one policy link.
	WithPolicyLinks int `json:"with_policy_links"`

	// HomeLinks, AllLinks and PolicyLinks are link totals over all results.
	HomeLinks   int `json:"home_links"`
	AllLinks    int `json:"all_links"`
	PolicyLinks int `json:"policy_links"`

	// PagesFetched is the total number of pages fetched.
	PagesFetched int `json:"pages_fetched"`
}

// NewSummary summarizes results.
func NewSummary(country string, results []*CrawlResult, now time.Time) *Summary {
	s := &Summary{
		Country:     country,
		GeneratedAt: now,
	}

	domains := make(map[string]struct{}, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		s.Results++
		domains[r.Domain] = struct{}{}

		switch r.Status {
		case StatusComplete:
			s.Complete++
		case StatusPartial:
			s.Partial++
		default:
			s.Failed++
		}

		if len(r.PolicyLinks) > 0 {
			s.WithPolicyLinks++
		}
		s.HomeLinks += len(r.HomeLinks)
		s.AllLinks += len(r.AllLinks)
		s.PolicyLinks += len(r.PolicyLinks)
		s.PagesFetched += r.PagesFetched
	}
	s.Domains = len(domains)

	return s
}

// SuccessRate returns the share of results that were not failures, in [0, 1].
func (s *Summary) SuccessRate() float64 {
	if s.Results == 0 {
		return 0
	}
	return float64(s.Complete+s.Partial) / float64(s.Results)
}
