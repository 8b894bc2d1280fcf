package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/policycrawl/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary, a per-domain table and the policy links of
// each domain.
func (w *MarkdownWriter) Write(summary *model.Summary, results []*model.CrawlResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeSummary(md, summary)
	w.writeDomains(md, results)
	w.writePolicyLinks(md, results)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs only the summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeSummary(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.Summary) {
	md.H1("Policy Link Report")
	md.PlainText("")

	country := summary.Country
	if country == "" {
		country = "all"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Country", country},
			{"Generated", summary.GeneratedAt.Format(timeFormat)},
			{"Domains", strconv.Itoa(summary.Domains)},
			{"Results", strconv.Itoa(summary.Results)},
			{"Pages Fetched", strconv.Itoa(summary.PagesFetched)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Crawl Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows: [][]string{
			{"✅ Complete", strconv.Itoa(summary.Complete)},
			{"⚠️ Partial", strconv.Itoa(summary.Partial)},
			{"❌ Failed", strconv.Itoa(summary.Failed)},
			{"**Total**", "**" + strconv.Itoa(summary.Results) + "**"},
		},
	})
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Links", "Total"},
		Rows: [][]string{
			{"Home page links", strconv.Itoa(summary.HomeLinks)},
			{"In-domain links", strconv.Itoa(summary.AllLinks)},
			{"Policy links", strconv.Itoa(summary.PolicyLinks)},
			{"Domains with policy links", strconv.Itoa(summary.WithPolicyLinks)},
		},
	})
	md.PlainText("")

	if summary.Results > 0 {
		w.writePieChart(md, summary)
	}
	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart of the status distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Crawl Status Distribution"),
		piechart.WithShowData(true),
	)

	if summary.Complete > 0 {
		chart.LabelAndIntValue("Complete", uint64(summary.Complete))
	}
	if summary.Partial > 0 {
		chart.LabelAndIntValue("Partial", uint64(summary.Partial))
	}
	if summary.Failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(summary.Failed))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.Summary) {
	switch {
	case summary.Results == 0:
		md.Note("No results stored yet.")
	case summary.Failed*2 > summary.Results:
		md.Cautionf("%d of %d domains could not be reached over https or http.",
			summary.Failed, summary.Results)
	case summary.Partial > 0:
		md.Importantf("%d crawl(s) hit the time budget; their link sets are partial.",
			summary.Partial)
	default:
		md.Tip(fmt.Sprintf("%.0f%% of domains were reached.", summary.SuccessRate()*100))
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeDomains(md *markdown.Markdown, results []*model.CrawlResult) {
	md.H2("Domains")
	md.PlainText("")

	if len(results) == 0 {
		md.PlainText("No domains processed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			"`" + r.Domain + "`",
			r.Status.String(),
			strconv.Itoa(r.PagesFetched),
			strconv.Itoa(len(r.HomeLinks)),
			strconv.Itoa(len(r.AllLinks)),
			strconv.Itoa(len(r.PolicyLinks)),
			r.ProcessedAt.Format(timeFormat),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Domain", "Status", "Pages", "Home", "All", "Policy", "Processed"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writePolicyLinks(md *markdown.Markdown, results []*model.CrawlResult) {
	var found bool
	for _, r := range results {
		if len(r.PolicyLinks) > 0 {
			found = true
			break
		}
	}
	if !found {
		return
	}

	md.H2("Policy Links")
	md.PlainText("")

	for _, r := range results {
		if len(r.PolicyLinks) == 0 {
			continue
		}
		md.H3(r.Domain)
		md.PlainText("")
		md.BulletList(r.PolicyLinks...)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [policycrawl](https://github.com/nao1215/policycrawl)*")
}
