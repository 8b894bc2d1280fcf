package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers can match them with errors.Is.
var (
	// ErrNoLanguage is returned when no language code was given to crawl.
	ErrNoLanguage = errors.New("no language specified: provide a language code such as ko, ja or zh-cn")

	// ErrInvalidDepth is returned when the maximum crawl depth is negative.
	// Depth 0 is valid and means only the seed page is fetched.
	ErrInvalidDepth = errors.New("invalid crawl depth: must be non-negative")

	// ErrInvalidBudget is returned when the per-domain time budget is not positive.
	ErrInvalidBudget = errors.New("invalid time budget: must be positive")

	// ErrInvalidTimeout is returned when the per-request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrInvalidCrawlDelay is returned when the politeness delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidMaxPages is returned when the per-domain page cap is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidRate is returned when the per-host request rate is negative.
	ErrInvalidRate = errors.New("invalid request rate: must be non-negative")

	// ErrNoUserAgents is returned when the user agent pool is empty.
	ErrNoUserAgents = errors.New("no user agents configured")
)
