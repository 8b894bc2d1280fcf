package crawler

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/nao1215/policycrawl/internal/fetcher"
	"github.com/nao1215/policycrawl/internal/model"
)

// SleepFunc pauses for d or until ctx is done, whichever comes first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// DomainCrawler crawls one domain at a time for policy links.
// A DomainCrawler holds configuration only; it is safe to share between
// goroutines as long as the Fetcher is.
type DomainCrawler struct {
	// fetcher retrieves pages. It is the only shared resource.
	fetcher fetcher.Fetcher

	// maxDepth is the deepest page fetched, the seed being depth 0.
	maxDepth int

	// maxPages caps traversal fetches. 0 means no cap.
	maxPages int

	// budget is the wall-clock limit for one crawl, seed probe included.
	budget time.Duration

	// delay follows each fetched page while work remains.
	delay time.Duration

	// ignorePatterns are URL path patterns that are recorded but not followed.
	ignorePatterns []string

	// followPatterns, when set, restrict traversal to matching paths.
	followPatterns []string

	// robots is consulted before every traversal fetch when non-nil.
	robots RobotsChecker

	now    func() time.Time
	sleep  SleepFunc
	logger *slog.Logger
}

// Option configures a DomainCrawler.
type Option func(*DomainCrawler)

// WithMaxDepth sets the maximum crawl depth.
// 0 = only the seed page, 1 = the seed plus the pages it links to, etc.
func WithMaxDepth(depth int) Option {
	return func(c *DomainCrawler) {
		c.maxDepth = depth
	}
}

// WithMaxPages caps the number of pages fetched per crawl.
func WithMaxPages(n int) Option {
	return func(c *DomainCrawler) {
		c.maxPages = n
	}
}

// WithBudget sets the wall-clock budget of a single crawl.
func WithBudget(d time.Duration) Option {
	return func(c *DomainCrawler) {
		c.budget = d
	}
}

// WithDelay sets the politeness delay between page fetches.
func WithDelay(d time.Duration) Option {
	return func(c *DomainCrawler) {
		c.delay = d
	}
}

// WithIgnorePatterns sets URL path patterns to skip during traversal.
// Patterns use glob syntax (e.g., "/board/*", "*.pdf").
func WithIgnorePatterns(patterns []string) Option {
	return func(c *DomainCrawler) {
		c.ignorePatterns = patterns
	}
}

// WithFollowPatterns sets URL path patterns to follow during traversal.
// If set, only URLs matching at least one pattern are fetched.
func WithFollowPatterns(patterns []string) Option {
	return func(c *DomainCrawler) {
		c.followPatterns = patterns
	}
}

// WithRobots enables robots.txt filtering.
func WithRobots(r RobotsChecker) Option {
	return func(c *DomainCrawler) {
		c.robots = r
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *DomainCrawler) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSleep replaces the politeness sleep.
func WithSleep(sleep SleepFunc) Option {
	return func(c *DomainCrawler) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// WithLogger sets the logger. Per-page events are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *DomainCrawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewDomainCrawler creates a crawler that fetches through f.
func NewDomainCrawler(f fetcher.Fetcher, opts ...Option) *DomainCrawler {
	c := &DomainCrawler{
		fetcher:  f,
		maxDepth: 3,
		budget:   3 * time.Minute,
		delay:    1 * time.Second,
		now:      time.Now,
		sleep:    contextSleep,
		logger:   slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Crawl discovers the links of task.Domain and returns the result.
// It never fails: an unreachable seed yields a StatusFailed result and
// every other problem only reduces the number of links found. When ctx is
// cancelled before the seed answers, the result is returned without a
// ProcessedAt time.
func (c *DomainCrawler) Crawl(ctx context.Context, task model.CrawlTask) *model.CrawlResult {
	result := model.NewCrawlResult(task)
	domain := NormalizeDomain(task.Domain)
	logger := c.logger.With(slog.String("domain", domain))

	t := &traversal{
		crawler:  c,
		logger:   logger,
		seedHost: seedHostname(domain),
		visited:  make(map[string]struct{}),
		allLinks: make([]string, 0),
		start:    c.now(),
	}

	seed := c.probeSeed(ctx, domain)
	if !seed.ok() && ctx.Err() != nil {
		// Left unfinalized: an interrupted seed fetch says nothing about the domain.
		logger.Debug("seed fetch interrupted", slog.String("reason", ctx.Err().Error()))
		result.Status = model.StatusFailed
		return result
	}
	if !seed.ok() {
		logger.Info("seed unreachable",
			slog.String("https_error", errString(seed.httpsErr)),
			slog.String("http_error", errString(seed.httpErr)))
		result.Status = model.StatusFailed
		result.Finalize(c.now())
		return result
	}

	result.Scheme = seed.scheme
	t.run(ctx, seed)

	if seed.doc.IsHTML() {
		homeLinks, err := Extract(bytes.NewReader(seed.doc.Body), seed.baseURL(), ScopeResources)
		if err != nil {
			logger.Debug("home page scan failed", slog.String("error", err.Error()))
		}
		if homeLinks != nil {
			result.HomeLinks = homeLinks
		}
	}

	result.AllLinks = t.allLinks
	result.PagesFetched = t.pagesFetched
	result.BudgetExceeded = t.budgetExceeded
	result.PolicyLinks = model.FilterPolicyLinks(result.HomeLinks, result.AllLinks)

	if t.stopped {
		result.Status = model.StatusPartial
	} else {
		result.Status = model.StatusComplete
	}
	result.Finalize(c.now())

	logger.Debug("crawl finished",
		slog.String("status", result.Status.String()),
		slog.Int("pages", result.PagesFetched),
		slog.Int("all_links", len(result.AllLinks)),
		slog.Int("home_links", len(result.HomeLinks)),
		slog.Int("policy_links", len(result.PolicyLinks)))

	return result
}

// seedAttempt is the outcome of probing a domain's home page, first over
// https and then over http.
type seedAttempt struct {
	scheme   string
	url      string
	doc      *fetcher.Document
	httpsErr error
	httpErr  error
}

func (s seedAttempt) ok() bool {
	return s.doc != nil
}

// baseURL is the URL links on the seed page are resolved against.
func (s seedAttempt) baseURL() string {
	if s.doc != nil && s.doc.FinalURL != "" {
		return s.doc.FinalURL
	}
	return s.url
}

// probeSeed fetches https://domain, falling back to http://domain.
func (c *DomainCrawler) probeSeed(ctx context.Context, domain string) seedAttempt {
	var attempt seedAttempt
	if domain == "" {
		attempt.httpsErr = &fetcher.FetchError{Kind: fetcher.KindOther, Err: errEmptyDomain}
		return attempt
	}

	httpsURL := "https://" + domain
	doc, err := c.fetcher.Fetch(ctx, httpsURL)
	if err == nil {
		attempt.scheme, attempt.url, attempt.doc = "https", httpsURL, doc
		return attempt
	}
	attempt.httpsErr = err
	c.logger.Debug("https seed failed, trying http",
		slog.String("domain", domain), slog.String("error", err.Error()))

	if ctx.Err() != nil {
		return attempt
	}

	httpURL := "http://" + domain
	doc, err = c.fetcher.Fetch(ctx, httpURL)
	if err == nil {
		attempt.scheme, attempt.url, attempt.doc = "http", httpURL, doc
		return attempt
	}
	attempt.httpErr = err

	return attempt
}

// workItem is one pending page of the traversal.
type workItem struct {
	url   string
	depth int
}

// traversal holds the state of a single Crawl call.
type traversal struct {
	crawler *DomainCrawler
	logger  *slog.Logger

	seedHost string
	start    time.Time

	visited  map[string]struct{}
	allLinks []string
	stack    []workItem

	pagesFetched   int
	budgetExceeded bool

	// stopped is set when the traversal ended with work still pending.
	stopped bool
}

// run performs the depth-first traversal from the seed page.
func (t *traversal) run(ctx context.Context, seed seedAttempt) {
	c := t.crawler
	t.stack = append(t.stack, workItem{url: seed.url, depth: 0})

	for len(t.stack) > 0 {
		item := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]

		if item.depth > c.maxDepth {
			continue
		}

		key := normalizeURL(item.url)
		if _, seen := t.visited[key]; seen {
			continue
		}
		t.visited[key] = struct{}{}

		if !InDomain(item.url, t.seedHost) {
			continue
		}

		if c.now().Sub(t.start) > c.budget {
			t.budgetExceeded = true
			t.stopped = true
			t.logger.Debug("time budget exceeded",
				slog.Duration("budget", c.budget),
				slog.Int("pending", len(t.stack)+1))
			return
		}

		if ctx.Err() != nil {
			t.stopped = true
			return
		}

		var doc *fetcher.Document
		if item.depth == 0 {
			doc = seed.doc
		} else {
			if c.maxPages > 0 && t.pagesFetched >= c.maxPages {
				t.stopped = true
				return
			}
			if !t.allowed(ctx, item.url) {
				t.logger.Debug("disallowed by robots.txt", slog.String("url", item.url))
				continue
			}

			var err error
			doc, err = c.fetcher.Fetch(ctx, item.url)
			if err != nil {
				t.logger.Debug("fetch failed", slog.String("url", item.url), slog.String("error", err.Error()))
				continue
			}
		}
		t.pagesFetched++

		t.expand(doc, item)

		if c.delay > 0 && len(t.stack) > 0 {
			if err := c.sleep(ctx, c.delay); err != nil {
				t.stopped = true
				return
			}
		}
	}
}

// expand records the in-domain anchors of doc and schedules those within
// depth. Children are pushed in reverse so they pop in document order.
func (t *traversal) expand(doc *fetcher.Document, item workItem) {
	if !doc.IsHTML() {
		return
	}

	base := doc.FinalURL
	if base == "" {
		base = item.url
	}

	links, err := Extract(bytes.NewReader(doc.Body), base, ScopeAnchors)
	if err != nil {
		t.logger.Debug("link extraction failed", slog.String("url", item.url), slog.String("error", err.Error()))
		return
	}

	c := t.crawler
	children := make([]workItem, 0, len(links))
	for _, link := range links {
		if !InDomain(link, t.seedHost) {
			continue
		}
		t.allLinks = append(t.allLinks, link)

		if item.depth+1 > c.maxDepth {
			continue
		}
		if !shouldFollow(link, c.ignorePatterns, c.followPatterns) {
			continue
		}
		if _, seen := t.visited[normalizeURL(link)]; seen {
			continue
		}
		children = append(children, workItem{url: link, depth: item.depth + 1})
	}

	for i := len(children) - 1; i >= 0; i-- {
		t.stack = append(t.stack, children[i])
	}
}

func (t *traversal) allowed(ctx context.Context, rawURL string) bool {
	if t.crawler.robots == nil {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return t.crawler.robots.Allowed(ctx, u)
}

// contextSleep waits for d or until ctx is done.
func contextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
