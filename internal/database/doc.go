// Package database provides SQLite-based storage for policycrawl.
//
// ResultStore keeps three tables in a single file (policycrawl.db):
//   - policy_links: one row per processed domain crawl (append-only)
//   - websites: language classification of candidate domains
//   - classify_errors: domains whose home page could not be classified
//
// The store uses modernc.org/sqlite, a CGO-free driver, with a single
// connection and WAL journaling. Concurrent callers are serialized by the
// connection pool, so batch workers may write without extra locking.
package database
