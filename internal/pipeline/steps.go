package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/nao1215/policycrawl/internal/model"
)

// Crawler is the part of crawler.DomainCrawler the crawl step needs.
type Crawler interface {
	Crawl(ctx context.Context, task model.CrawlTask) *model.CrawlResult
}

// CrawlStep discovers the links of the result's domain.
type CrawlStep struct {
	crawler Crawler
}

// NewCrawlStep creates a crawl step backed by c.
func NewCrawlStep(c Crawler) *CrawlStep {
	return &CrawlStep{crawler: c}
}

// Name returns "crawl".
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do runs the crawl and copies its outcome into result, keeping the
// result's identity fields (ID, RunID).
func (s *CrawlStep) Do(ctx context.Context, result *model.CrawlResult) error {
	if s.crawler == nil {
		return errors.New("crawl step has no crawler")
	}

	crawled := s.crawler.Crawl(ctx, model.CrawlTask{Domain: result.Domain, Country: result.Country})
	if crawled == nil {
		return errors.New("crawler returned no result")
	}

	id, runID := result.ID, result.RunID
	*result = *crawled
	result.ID, result.RunID = id, runID

	return nil
}

// PolicyFilterStep selects the policy links among the discovered links.
// Extra keywords extend model.PolicyKeywords, typically per site or language.
type PolicyFilterStep struct {
	extraKeywords []string
}

// NewPolicyFilterStep creates a filter step matching model.PolicyKeywords
// plus extraKeywords.
func NewPolicyFilterStep(extraKeywords ...string) *PolicyFilterStep {
	kw := make([]string, 0, len(extraKeywords))
	for _, k := range extraKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			kw = append(kw, k)
		}
	}
	return &PolicyFilterStep{extraKeywords: kw}
}

// Name returns "policy_filter".
func (s *PolicyFilterStep) Name() string {
	return "policy_filter"
}

// Do recomputes result.PolicyLinks from HomeLinks and AllLinks.
func (s *PolicyFilterStep) Do(_ context.Context, result *model.CrawlResult) error {
	links := model.FilterPolicyLinks(result.HomeLinks, result.AllLinks)
	if len(s.extraKeywords) > 0 {
		for _, set := range [][]string{result.HomeLinks, result.AllLinks} {
			for _, link := range set {
				if model.MatchesKeywords(link, s.extraKeywords) {
					links = append(links, link)
				}
			}
		}
	}
	result.PolicyLinks = model.UniqueSorted(links)
	return nil
}
