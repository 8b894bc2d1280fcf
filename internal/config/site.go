package config

import (
	"strings"
	"time"
)

// SiteConfig holds per-domain overrides of the crawl settings.
type SiteConfig struct {
	// Depth overrides the global maximum depth. Zero keeps the global value.
	Depth int `yaml:"depth,omitempty"`

	// Budget overrides the per-domain time budget (e.g., "10m").
	Budget time.Duration `yaml:"budget,omitempty"`

	// Delay overrides the politeness delay (e.g., "2s").
	Delay time.Duration `yaml:"delay,omitempty"`

	// Headers are extra HTTP headers sent to this domain.
	Headers map[string]string `yaml:"headers,omitempty"`

	// IgnorePatterns are URL path globs that are never traversed.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns restrict traversal to matching URL paths when set.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File represents the structure of the .policycrawl configuration file.
type File struct {
	// UserAgents replaces the built-in User-Agent pool when non-empty.
	UserAgents []string `yaml:"userAgents,omitempty"`

	// Sites maps bare domains to their overrides.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every domain unless overridden in Sites.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a domain, merged with defaults.
// A "www." prefix on the lookup key is ignored.
func (cf *File) GetSiteConfig(domain string) SiteConfig {
	result := cf.Defaults
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	domain = strings.ToLower(strings.TrimSpace(domain))
	siteConfig, ok := cf.Sites[domain]
	if !ok {
		siteConfig, ok = cf.Sites[strings.TrimPrefix(domain, "www.")]
	}
	if !ok {
		return result
	}

	if siteConfig.Depth != 0 {
		result.Depth = siteConfig.Depth
	}
	if siteConfig.Budget != 0 {
		result.Budget = siteConfig.Budget
	}
	if siteConfig.Delay != 0 {
		result.Delay = siteConfig.Delay
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range siteConfig.Headers {
			result.Headers[k] = v
		}
	}
	if len(siteConfig.IgnorePatterns) > 0 {
		result.IgnorePatterns = siteConfig.IgnorePatterns
	}
	if len(siteConfig.FollowPatterns) > 0 {
		result.FollowPatterns = siteConfig.FollowPatterns
	}

	return result
}
