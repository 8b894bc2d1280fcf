package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "policycrawl"

	// DefaultMaxDepth is the recursion bound of the in-domain traversal.
	// Depth 0 is the seed page itself.
	DefaultMaxDepth = 3

	// DefaultBudget is the wall-clock time allowed for one domain's traversal.
	// Once exceeded no new fetch is started and the partial result is stored.
	DefaultBudget = 3 * time.Minute

	// DefaultCrawlDelay is the politeness pause after each fetch during traversal.
	DefaultCrawlDelay = 1 * time.Second

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 5 * time.Second

	// DefaultWorkers is the number of domains crawled concurrently.
	DefaultWorkers = 20

	// DefaultClassifyWorkers is the number of concurrent language classifications.
	DefaultClassifyWorkers = 10

	// DefaultClassifyTimeout is the per-request timeout used by the classifier.
	DefaultClassifyTimeout = 10 * time.Second

	// DefaultMaxBodySize limits the response body read per page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// DefaultUserAgents is the pool a random User-Agent is drawn from per request.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0.3 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:74.0) Gecko/20100101 Firefox/74.0",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:52.0) Gecko/20100101 Firefox/52.0",
}

// Config holds all configuration options for policycrawl.
// It is populated from CLI flags and passed down explicitly; nothing reads
// it from global state.
type Config struct {
	// Language is the language code whose domains are crawled (e.g., "ko").
	Language string

	// Country is the country label derived from Language ("Korea").
	Country string

	// ListFile is an optional domain list used instead of the websites table.
	ListFile string

	// MaxDepth is the maximum recursion depth of the traversal.
	MaxDepth int

	// Budget is the wall-clock limit of one domain's traversal.
	Budget time.Duration

	// CrawlDelay is the politeness delay after each fetch.
	CrawlDelay time.Duration

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// Workers is the number of domains crawled concurrently.
	Workers int

	// UserAgents is the pool of User-Agent strings.
	UserAgents []string

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// MaxPages caps the pages fetched per domain. Zero means no cap.
	MaxPages int

	// PolicyKeywords extend the built-in policy link keywords.
	PolicyKeywords []string

	// RespectRobots makes the crawler skip URLs disallowed by robots.txt.
	RespectRobots bool

	// RequestsPerSecond caps requests per host across all workers.
	// Zero disables the cap; the politeness delay still applies.
	RequestsPerSecond float64

	// Verbose enables debug logging.
	Verbose bool

	// JSONLog switches log output to JSON lines.
	JSONLog bool

	// DBDir is the directory holding the SQLite result store.
	// Defaults to the XDG data directory (~/.local/share/policycrawl on Linux).
	DBDir string

	// ConfigFilePath is the path of the YAML file with per-domain overrides.
	ConfigFilePath string

	// SiteConfigs holds the overrides loaded from ConfigFilePath.
	SiteConfigs *File
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	agents := make([]string, len(DefaultUserAgents))
	copy(agents, DefaultUserAgents)

	return &Config{
		MaxDepth:    DefaultMaxDepth,
		Budget:      DefaultBudget,
		CrawlDelay:  DefaultCrawlDelay,
		Timeout:     DefaultTimeout,
		Workers:     DefaultWorkers,
		UserAgents:  agents,
		MaxBodySize: DefaultMaxBodySize,
		DBDir:       XDGDataDir(),
		SiteConfigs: &File{Sites: make(map[string]SiteConfig)},
	}
}

// XDGDataDir returns the XDG data directory for policycrawl.
// On Linux: ~/.local/share/policycrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for policycrawl.
// On Linux: ~/.config/policycrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first problem found.
func (c *Config) Validate() error {
	if c.Language == "" {
		return ErrNoLanguage
	}
	if c.MaxDepth < 0 {
		return ErrInvalidDepth
	}
	if c.Budget <= 0 {
		return ErrInvalidBudget
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.RequestsPerSecond < 0 {
		return ErrInvalidRate
	}
	if len(c.UserAgents) == 0 {
		return ErrNoUserAgents
	}
	return nil
}

// ForDomain returns the effective crawl limits for a domain after applying
// the overrides of the configuration file.
func (c *Config) ForDomain(domain string) SiteConfig {
	site := SiteConfig{
		Depth:  c.MaxDepth,
		Budget: c.Budget,
		Delay:  c.CrawlDelay,
	}
	if c.SiteConfigs == nil {
		return site
	}

	override := c.SiteConfigs.GetSiteConfig(domain)
	if override.Depth > 0 {
		site.Depth = override.Depth
	}
	if override.Budget > 0 {
		site.Budget = override.Budget
	}
	if override.Delay > 0 {
		site.Delay = override.Delay
	}
	site.Headers = override.Headers
	site.IgnorePatterns = override.IgnorePatterns
	site.FollowPatterns = override.FollowPatterns
	return site
}
