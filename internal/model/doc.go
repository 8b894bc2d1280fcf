// Package model defines the core data structures shared by the crawler,
// the result store, the language classifier and the report writers.
//
// This package contains the following main types:
//   - CrawlTask: one domain queued for a policy-link crawl
//   - CrawlResult: the per-domain record persisted after a crawl
//   - Website: a language classification of a candidate domain
//   - Country: mapping between language codes and corpus country labels
//
// The models are serializable to JSON for report output and database storage.
package model
