package crawler

import (
	"net/url"
	"path/filepath"
	"strings"
)

// NormalizeDomain turns a domain list entry into a bare lowercase host,
// stripping any scheme, path, query and trailing dot. Ports are kept.
//
//	"https://Example.com/ko/" -> "example.com"
func NormalizeDomain(entry string) string {
	s := strings.TrimSpace(entry)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	return strings.TrimSuffix(host, ".")
}

// seedHostname returns the hostname of a seed domain without its port.
func seedHostname(seed string) string {
	u, err := url.Parse("http://" + seed)
	if err != nil {
		return strings.ToLower(seed)
	}
	return strings.ToLower(u.Hostname())
}

// InDomain reports whether rawURL's host equals seedHost or is one of its
// subdomains. "cdn.example.com" is in "example.com"; "badexample.com" is not.
func InDomain(rawURL, seedHost string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	seedHost = strings.ToLower(seedHost)
	if host == "" || seedHost == "" {
		return false
	}
	return host == seedHost || strings.HasSuffix(host, "."+seedHost)
}

// normalizeURL produces the visited-set key of a URL.
// The fragment is dropped, scheme and host are lowercased and an empty
// path is treated as "/", so "https://Example.com" and
// "https://example.com/#top" share a key.
func normalizeURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// shouldFollow checks a URL against ignore and follow path patterns.
//
//  1. If the path matches any ignore pattern, skip it
//  2. If follow patterns are set and none matches, skip it
//  3. Otherwise follow it
func shouldFollow(targetURL string, ignorePatterns, followPatterns []string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range ignorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(followPatterns) > 0 {
		for _, pattern := range followPatterns {
			if matchPattern(pattern, path) {
				return true
			}
		}
		return false
	}

	return true
}

// matchPattern checks if a path matches a glob pattern.
//   - "/legal/*" matches "/legal" and everything below it
//   - "*.pdf" matches any path ending in .pdf
//   - other patterns use filepath.Match, also tried against the last segment
func matchPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") {
		if strings.HasSuffix(path, strings.TrimPrefix(pattern, "*")) {
			return true
		}
	}

	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}

	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}

	return false
}
