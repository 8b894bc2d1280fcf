// Package report renders stored crawl results.
//
// Writers:
//   - SimpleWriter: plain text for terminal display
//   - JSONWriter: structured JSON for further processing
//   - MarkdownWriter: Markdown for sharing, with a status pie chart
//
// Writers implement the Writer interface, so they can be used
// interchangeably and combined with MultiWriter.
package report
