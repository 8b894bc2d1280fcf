package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/policycrawl/internal/model"
)

// JSONWriter outputs reports in JSON format.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is recorded in full reports.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the tool version in full reports.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport is the document written by JSONWriter.Write.
type JSONReport struct {
	// Version is the policycrawl version that generated this report.
	Version string `json:"version,omitempty"`

	// Summary aggregates the results.
	Summary *model.Summary `json:"summary"`

	// Results are the crawl results in storage order.
	Results []*model.CrawlResult `json:"results"`
}

// Write outputs the summary and results as one JSON document.
func (w *JSONWriter) Write(summary *model.Summary, results []*model.CrawlResult) (int, error) {
	if results == nil {
		results = []*model.CrawlResult{}
	}
	return w.writeJSON(&JSONReport{
		Version: w.version,
		Summary: summary,
		Results: results,
	})
}

// WriteSummary outputs only the summary in JSON format.
func (w *JSONWriter) WriteSummary(summary *model.Summary) (int, error) {
	return w.writeJSON(summary)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
