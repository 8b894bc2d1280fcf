package main

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/policycrawl/internal/config"
	"github.com/nao1215/policycrawl/internal/database"
	"github.com/nao1215/policycrawl/internal/domainlist"
	"github.com/nao1215/policycrawl/internal/fetcher"
	"github.com/nao1215/policycrawl/internal/langdetect"
)

// NewClassifyCmd creates the classify command.
func NewClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <list-file>",
		Short: "Detect the language of each website in a domain list",
		Long: `Classify fetches the home page of every domain in a list, detects the
language of its visible text and stores the result. The crawl command then
selects domains by language.

The list may be a ranking CSV with a "domain" or "url" column, a headerless
"rank,domain" CSV or a plain list with one domain per line. Domains that
were classified before are skipped. Domains that could not be fetched are
recorded and skipped on later runs unless --retry-errors is given.

Examples:
  # Classify a top-sites list
  policycrawl classify korea_top.csv

  # Retry domains that failed on an earlier run
  policycrawl classify --retry-errors domains.txt`,
		Args: cobra.ExactArgs(1),
		RunE: runClassifyCmd,
	}

	cmd.Flags().DurationP("timeout", "t", config.DefaultClassifyTimeout,
		"Timeout for each request")
	cmd.Flags().IntP("workers", "w", config.DefaultClassifyWorkers,
		"Number of concurrent classifications")
	cmd.Flags().Bool("retry-errors", false,
		"Classify domains that failed on an earlier run again")

	return cmd
}

// classifyOptions holds the settings of one classify run.
type classifyOptions struct {
	listFile    string
	dbDir       string
	timeout     time.Duration
	workers     int
	retryErrors bool
}

// runClassifyCmd executes the classify command.
func runClassifyCmd(cmd *cobra.Command, args []string) error {
	opts := classifyOptions{
		listFile: args[0],
		dbDir:    getDBDir(cmd),
	}

	var err error
	opts.timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	opts.workers, err = cmd.Flags().GetInt("workers")
	if err != nil {
		return err
	}
	opts.retryErrors, err = cmd.Flags().GetBool("retry-errors")
	if err != nil {
		return err
	}

	if opts.timeout <= 0 {
		return fmt.Errorf("configuration error: %w", config.ErrInvalidTimeout)
	}
	if opts.workers <= 0 {
		return fmt.Errorf("configuration error: %w", config.ErrInvalidWorkers)
	}

	logger := setupLogger(cmd)

	ctx, stop := signalContext(cmd)
	defer stop()

	return runClassify(ctx, opts, logger, cmd.OutOrStdout())
}

// runClassify classifies the unseen domains of the list file.
func runClassify(ctx context.Context, opts classifyOptions, logger *slog.Logger, out io.Writer) error {
	domains, err := domainlist.Load(opts.listFile)
	if err != nil {
		return fmt.Errorf("failed to load domain list: %w", err)
	}

	store, err := database.Open(opts.dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	classified, err := store.ClassifiedURLs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load classified websites: %w", err)
	}
	remaining := domainlist.Remaining(domains, classified)

	if !opts.retryErrors {
		failed, err := store.ClassifyErrorURLs(ctx)
		if err != nil {
			return fmt.Errorf("failed to load classify errors: %w", err)
		}
		remaining = domainlist.Remaining(remaining, failed)
	}

	fmt.Fprintf(out, "%d domains, %d already handled, %d to classify\n",
		len(domains), len(domains)-len(remaining), len(remaining))
	if len(remaining) == 0 {
		return nil
	}

	f, err := fetcher.New(opts.timeout,
		fetcher.WithUserAgents(config.DefaultUserAgents),
		fetcher.WithMaxBodySize(config.DefaultMaxBodySize),
	)
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}

	classifier := langdetect.NewClassifier(f, langdetect.NewDetector(), store,
		langdetect.WithConcurrency(opts.workers),
		langdetect.WithLogger(logger),
	)

	summary, err := classifier.ClassifyAll(ctx, remaining)

	fmt.Fprintf(out, "Classified %d of %d domains (%d failed)\n",
		summary.Classified, summary.Total, summary.Failed)
	writeLanguageCounts(out, summary.ByLanguage)

	return err
}

// writeLanguageCounts prints per-language counts, most frequent first.
func writeLanguageCounts(out io.Writer, counts map[string]int) {
	langs := make([]string, 0, len(counts))
	for lang := range counts {
		langs = append(langs, lang)
	}
	slices.SortFunc(langs, func(a, b string) int {
		if counts[a] != counts[b] {
			return counts[b] - counts[a]
		}
		return cmp.Compare(a, b)
	})

	for _, lang := range langs {
		fmt.Fprintf(out, "  %-6s %d\n", lang, counts[lang])
	}
}
