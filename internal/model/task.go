package model

import "strings"

// CrawlTask is one unit of work for the batch driver.
// Tasks are created from a filtered domain list and consumed once.
type CrawlTask struct {
	// Domain is a bare hostname without scheme or path (e.g., "naver.com").
	Domain string `json:"domain"`

	// Country is the corpus country label the domain was selected for
	// (e.g., "Korea"). It is copied verbatim into the CrawlResult.
	Country string `json:"country"`
}

// NewCrawlTasks builds tasks for the given domains, all labelled with country.
// Empty entries are skipped.
func NewCrawlTasks(domains []string, country string) []CrawlTask {
	tasks := make([]CrawlTask, 0, len(domains))
	for _, d := range domains {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		tasks = append(tasks, CrawlTask{Domain: d, Country: country})
	}
	return tasks
}
