package crawler

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"

	"github.com/nao1215/policycrawl/internal/fetcher"
)

// RobotsChecker decides whether a URL may be fetched.
type RobotsChecker interface {
	Allowed(ctx context.Context, target *url.URL) bool
}

// RobotsAgent evaluates robots.txt rules, caching one rule set per host for
// its lifetime. It is safe for concurrent use by many crawls.
type RobotsAgent struct {
	fetcher   fetcher.Fetcher
	userAgent string

	mu    sync.Mutex
	cache map[string]*robotstxt.RobotsData
}

// NewRobotsAgent creates an agent that downloads robots.txt through f and
// evaluates the group matching userAgent (falling back to "*").
func NewRobotsAgent(f fetcher.Fetcher, userAgent string) *RobotsAgent {
	return &RobotsAgent{
		fetcher:   f,
		userAgent: userAgent,
		cache:     make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether target is permitted. Missing, unreachable or
// unparsable robots.txt files allow everything.
func (a *RobotsAgent) Allowed(ctx context.Context, target *url.URL) bool {
	if target == nil || !target.IsAbs() {
		return false
	}

	rules := a.rules(ctx, target)
	if rules == nil {
		return true
	}

	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	if target.RawQuery != "" {
		path += "?" + target.RawQuery
	}
	return rules.TestAgent(path, a.userAgent)
}

// rules returns the cached rule set for the target's host, fetching it on
// first use. A nil result means "no restrictions".
func (a *RobotsAgent) rules(ctx context.Context, target *url.URL) *robotstxt.RobotsData {
	host := strings.ToLower(target.Host)

	a.mu.Lock()
	data, ok := a.cache[host]
	a.mu.Unlock()
	if ok {
		return data
	}

	data = a.download(ctx, target.Scheme+"://"+target.Host+"/robots.txt")

	a.mu.Lock()
	a.cache[host] = data
	a.mu.Unlock()

	return data
}

func (a *RobotsAgent) download(ctx context.Context, robotsURL string) *robotstxt.RobotsData {
	doc, err := a.fetcher.Fetch(ctx, robotsURL)
	if err != nil {
		var fetchErr *fetcher.FetchError
		if errors.As(err, &fetchErr) && fetchErr.Kind == fetcher.KindStatus {
			// 4xx allows everything; 5xx disallows everything.
			data, parseErr := robotstxt.FromStatusAndBytes(fetchErr.StatusCode, nil)
			if parseErr == nil {
				return data
			}
		}
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(doc.StatusCode, doc.Body)
	if err != nil {
		return nil
	}
	return data
}
