// Package log provides the structured logger used by every policycrawl
// command, built on top of the standard slog package.
//
// Crawled URLs routinely carry session identifiers, signed tokens and
// embedded credentials in their query strings. The SecureHandler rewrites
// such values before they reach the output:
//   - attributes whose key names a secret (cookie, authorization, token, ...)
//     are replaced entirely
//   - attribute values that are absolute URLs keep scheme, host and path,
//     but lose userinfo passwords and have sensitive query parameters masked
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose, false)
//	logger.Debug("fetch failed", "url", "https://example.com/?sid=abc")
//	// url=https://example.com/?sid=%2A%2A%2AREDACTED%2A%2A%2A
package log
