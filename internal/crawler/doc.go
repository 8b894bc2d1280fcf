// Package crawler discovers privacy and terms-of-service links on a domain.
//
// # Architecture
//
// DomainCrawler runs one domain crawl. Each call to Crawl builds a fresh
// traversal holding the visited set, the link accumulator and the work
// stack, so concurrent crawls of different domains share nothing but the
// Fetcher. The traversal is depth-first over an explicit stack, and the
// budget is checked against an injectable clock.
//
// # Components
//
//   - DomainCrawler: seed probing (https, then http), bounded traversal,
//     home-page scan
//   - Extract: HTML link extraction with an anchors-only or a wide
//     (anchors, images, scripts, iframes, forms) scope
//   - InDomain: host boundary check (seed or any of its subdomains)
//   - RobotsAgent: optional robots.txt filter shared across crawls
//
// # Termination
//
// A traversal stops issuing fetches when any of these holds:
//   - the stack is empty
//   - the elapsed time since the crawl started exceeds the budget
//     (sampled before each fetch; a fetch in flight is not interrupted)
//   - the context is cancelled
//
// Links found on pages at depth d are pushed at depth d+1 and are only
// fetched while d+1 <= max depth. They are recorded either way.
//
// # Politeness
//
// A fixed delay follows each fetched page while work remains. An optional
// per-host rate cap lives in the fetcher package.
//
// # Usage
//
//	c := crawler.NewDomainCrawler(f, crawler.WithMaxDepth(3), crawler.WithBudget(3*time.Minute))
//	result := c.Crawl(ctx, model.CrawlTask{Domain: "example.com", Country: "Korea"})
package crawler
