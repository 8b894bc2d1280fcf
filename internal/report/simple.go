package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/policycrawl/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty lists domains that found no policy links.
	showEmpty bool

	// verbose lists every in-domain link, not just policy links.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to list domains without policy links.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables listing of all discovered links.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary followed by one block per domain.
func (w *SimpleWriter) Write(summary *model.Summary, results []*model.CrawlResult) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeSummary(&sb, summary)
	w.writeResults(&sb, results)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteSummary outputs only the summary.
func (w *SimpleWriter) WriteSummary(summary *model.Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeSummary(&sb, summary)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       POLICY LINK REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	country := summary.Country
	if country == "" {
		country = "all"
	}
	fmt.Fprintf(sb, "Country:        %s\n", country)
	fmt.Fprintf(sb, "Generated:      %s\n", summary.GeneratedAt.Format(timeFormat))
	fmt.Fprintf(sb, "Domains:        %d\n", summary.Domains)
	fmt.Fprintf(sb, "Pages Fetched:  %d\n", summary.PagesFetched)
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "  COMPLETE: %d\n", summary.Complete)
	fmt.Fprintf(sb, "  PARTIAL:  %d\n", summary.Partial)
	fmt.Fprintf(sb, "  FAILED:   %d\n", summary.Failed)
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  TOTAL:    %d results\n", summary.Results)
	fmt.Fprintf(sb, "  POLICY:   %d links on %d domains\n", summary.PolicyLinks, summary.WithPolicyLinks)
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeResults(sb *strings.Builder, results []*model.CrawlResult) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("DOMAINS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	shown := 0
	for _, r := range results {
		if len(r.PolicyLinks) == 0 && !w.showEmpty && !w.verbose {
			continue
		}
		shown++

		fmt.Fprintf(sb, "[%s] %s (%s, %d pages)\n", statusIndicator(r.Status), r.Domain, r.Status, r.PagesFetched)
		for _, link := range r.PolicyLinks {
			fmt.Fprintf(sb, "  * %s\n", link)
		}
		if w.verbose {
			for _, link := range r.AllLinks {
				fmt.Fprintf(sb, "    %s\n", link)
			}
		}
		sb.WriteString("\n")
	}

	if shown == 0 {
		sb.WriteString("  No policy links found\n\n")
	}
}

// statusIndicator returns a short marker for a crawl status.
func statusIndicator(status model.CrawlStatus) string {
	switch status {
	case model.StatusComplete:
		return "+"
	case model.StatusPartial:
		return "~"
	default:
		return "!"
	}
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by policycrawl\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
