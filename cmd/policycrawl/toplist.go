package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/policycrawl/internal/config"
	"github.com/nao1215/policycrawl/internal/domainlist"
	"github.com/nao1215/policycrawl/internal/fetcher"
)

// NewToplistCmd creates the toplist command.
func NewToplistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toplist <country>...",
		Short: "Download top-sites rankings as domain lists",
		Long: `Toplist scrapes the ahrefs top-sites ranking of each country and writes it
to <country>_top.csv with the columns rank, url, traffic, increase_traffic.
The files can be passed to "policycrawl classify".

Examples:
  # Rankings of three countries in the current directory
  policycrawl toplist korea japan china

  # Write into a data directory
  policycrawl toplist -o data korea`,
		Args: cobra.MinimumNArgs(1),
		RunE: runToplistCmd,
	}

	cmd.Flags().StringP("output-dir", "o", ".",
		"Directory the CSV files are written to")
	cmd.Flags().DurationP("timeout", "t", config.DefaultClassifyTimeout,
		"Timeout for each request")
	cmd.Flags().String("base-url", domainlist.DefaultTopURL,
		"Ranking page URL the country is appended to")
	_ = cmd.Flags().MarkHidden("base-url") //nolint:errcheck // flag is defined above

	return cmd
}

// runToplistCmd executes the toplist command.
func runToplistCmd(cmd *cobra.Command, args []string) error {
	outputDir, err := cmd.Flags().GetString("output-dir")
	if err != nil {
		return err
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	baseURL, err := cmd.Flags().GetString("base-url")
	if err != nil {
		return err
	}

	logger := setupLogger(cmd)

	ctx, stop := signalContext(cmd)
	defer stop()

	f, err := fetcher.New(timeout, fetcher.WithUserAgents(config.DefaultUserAgents))
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}

	return runToplist(ctx, f, baseURL, outputDir, args, logger, cmd.OutOrStdout())
}

// runToplist scrapes each country and writes one CSV per country. A
// failing country does not stop the others; all failures are returned.
func runToplist(ctx context.Context, f fetcher.Fetcher, baseURL, outputDir string, countries []string, logger *slog.Logger, out io.Writer) error {
	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var errs []error
	for _, country := range countries {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		country = strings.ToLower(strings.TrimSpace(country))
		start := time.Now()

		sites, err := domainlist.ScrapeTop(ctx, f, baseURL, country)
		if err != nil {
			logger.Error("failed to scrape ranking", "country", country, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", country, err))
			continue
		}

		path := filepath.Join(outputDir, country+"_top.csv")
		if err := writeRanking(path, sites); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", country, err))
			continue
		}

		fmt.Fprintf(out, "Wrote %d sites to %s in %s\n",
			len(sites), path, time.Since(start).Round(time.Millisecond))
	}

	return errors.Join(errs...)
}

// writeRanking writes sites as CSV to path.
func writeRanking(path string, sites []domainlist.RankedSite) (err error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return domainlist.WriteCSV(file, sites)
}
