package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/policycrawl/internal/database"
	"github.com/nao1215/policycrawl/internal/model"
	"github.com/nao1215/policycrawl/internal/report"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [language-code]",
		Short: "Export stored crawl results",
		Long: `Report exports the crawl results stored by the crawl command. Without a
language code the results of every country are exported.

Examples:
  # Human-readable summary and policy links of Korean websites
  policycrawl report ko

  # Full JSON export of every result
  policycrawl report --json -o results.json

  # Markdown summary only
  policycrawl report ja --markdown --summary-only

  # Latest result of a single domain
  policycrawl report --domain naver.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runReportCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().BoolP("summary-only", "s", false,
		"Only output the summary")
	cmd.Flags().Bool("show-empty", false,
		"List domains without policy links in the text report")
	cmd.Flags().Bool("all-links", false,
		"List every discovered link in the text report")
	cmd.Flags().String("domain", "",
		"Only report the most recent result of this domain")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// reportOptions holds the settings of one report run.
type reportOptions struct {
	country     string
	dbDir       string
	json        bool
	markdown    bool
	outputFile  string
	summaryOnly bool
	showEmpty   bool
	allLinks    bool
	domain      string
}

// runReportCmd executes the report command.
func runReportCmd(cmd *cobra.Command, args []string) error {
	opts := reportOptions{dbDir: getDBDir(cmd)}

	if len(args) > 0 {
		country, err := model.CountryForLanguage(args[0])
		if err != nil {
			return fmt.Errorf("unsupported language %q: %w", args[0], err)
		}
		opts.country = country
	}

	var err error
	if opts.json, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if opts.markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if opts.outputFile, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	if opts.summaryOnly, err = cmd.Flags().GetBool("summary-only"); err != nil {
		return err
	}
	if opts.showEmpty, err = cmd.Flags().GetBool("show-empty"); err != nil {
		return err
	}
	if opts.allLinks, err = cmd.Flags().GetBool("all-links"); err != nil {
		return err
	}
	if opts.domain, err = cmd.Flags().GetString("domain"); err != nil {
		return err
	}

	setupLogger(cmd)

	return runReport(cmd.Context(), opts, cmd.OutOrStdout())
}

// runReport loads the stored results and writes them in the chosen format.
func runReport(ctx context.Context, opts reportOptions, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := database.Open(opts.dbDir, database.Options{EnableWAL: true})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("no results stored yet in %s: run \"policycrawl crawl\" first", opts.dbDir)
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	results, err := loadReportResults(ctx, store, opts)
	if err != nil {
		return err
	}
	summary := model.NewSummary(opts.country, results, time.Now())

	output := stdout
	if opts.outputFile != "" {
		f, err := createReportFile(opts.outputFile)
		if err != nil {
			return err
		}
		defer f.Close()
		output = f
	}

	w := newReportWriter(opts, output)
	if opts.summaryOnly {
		_, err = w.WriteSummary(summary)
	} else {
		_, err = w.Write(summary, results)
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// loadReportResults returns the results selected by opts: the latest
// result of one domain, or every result of the country.
func loadReportResults(ctx context.Context, store *database.ResultStore, opts reportOptions) ([]*model.CrawlResult, error) {
	if opts.domain == "" {
		results, err := store.ListResults(ctx, opts.country)
		if err != nil {
			return nil, fmt.Errorf("failed to load results: %w", err)
		}
		return results, nil
	}

	r, err := store.LatestResult(ctx, opts.domain)
	if err != nil {
		return nil, fmt.Errorf("failed to load result: %w", err)
	}
	if opts.country != "" && r.Country != opts.country {
		return nil, fmt.Errorf("no result for %s in %s: %w", opts.domain, opts.country, database.ErrNotFound)
	}
	return []*model.CrawlResult{r}, nil
}

// newReportWriter selects the writer for the requested format.
func newReportWriter(opts reportOptions, output io.Writer) report.Writer {
	switch {
	case opts.json:
		return report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case opts.markdown:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output,
			report.WithShowEmpty(opts.showEmpty),
			report.WithVerbose(opts.allLinks),
		)
	}
}

// createReportFile creates path and its parent directories. The file is
// readable by the owner only.
func createReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}
