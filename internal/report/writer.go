package report

import (
	"io"

	"github.com/nao1215/policycrawl/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the summary followed by every result.
	// Returns the number of bytes written and any error encountered.
	Write(summary *model.Summary, results []*model.CrawlResult) (int, error)

	// WriteSummary outputs only the summary.
	WriteSummary(summary *model.Summary) (int, error)
}

// MultiWriter writes to multiple Writers in turn.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(summary *model.Summary, results []*model.CrawlResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary, results)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteSummary outputs the summary to all configured Writers.
func (m *MultiWriter) WriteSummary(summary *model.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSummary(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// timeFormat is used for dates in text and Markdown output.
const timeFormat = "2006-01-02 15:04:05 MST"
