// Package main provides the entry point for the policycrawl CLI.
//
// policycrawl builds a multilingual corpus of website policy pages. It
// classifies candidate domains by language, crawls each domain of a
// language for privacy and terms-of-service links, and exports what it
// found.
//
// Usage:
//
//	policycrawl toplist korea japan
//	policycrawl classify domains.csv
//	policycrawl crawl ko
//	policycrawl report ko --markdown
//
// See --help for all available options.
package main

// main is the entry point for policycrawl.
func main() {
	Execute()
}
