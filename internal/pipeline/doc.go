// Package pipeline runs domain crawls in sequence of steps and in batches.
//
// A Pipeline processes one domain through ordered steps (crawl, then
// policy_filter) that fill in a model.CrawlResult. A BatchProcessor fans
// tasks out over a bounded number of goroutines using errgroup.SetLimit,
// gives each task a fresh Pipeline and persists every result exactly once,
// whatever its status.
//
// A failing domain never fails the batch. Store errors are logged and
// counted in the BatchSummary, a panic in one task is recovered into a
// failed result, and only context cancellation stops the batch early.
package pipeline
