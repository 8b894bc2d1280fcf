package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/policycrawl/internal/config"
	"github.com/nao1215/policycrawl/internal/crawler"
	"github.com/nao1215/policycrawl/internal/database"
	"github.com/nao1215/policycrawl/internal/domainlist"
	"github.com/nao1215/policycrawl/internal/fetcher"
	"github.com/nao1215/policycrawl/internal/model"
	"github.com/nao1215/policycrawl/internal/pipeline"
)

// errNoCandidates is returned when a language has no domains to crawl.
var errNoCandidates = errors.New("no candidate domains")

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <language-code>",
		Short: "Crawl the websites of a language for policy links",
		Long: `Crawl visits every website classified as the given language and records
the links it finds, highlighting privacy policy and terms-of-service pages.

Each domain is crawled depth-first from its home page, staying inside the
domain and its subdomains, up to --depth links away from the home page and
for at most --budget of wall-clock time. After each page the crawler pauses
for --delay. Domains already stored for the language's country are skipped,
so an interrupted run continues where it stopped.

Supported language codes: ko, ja, zh (zh-cn, zh-tw), en.

Examples:
  # Crawl all Korean websites found by "policycrawl classify"
  policycrawl crawl ko

  # Crawl a domain list instead of the classified websites
  policycrawl crawl ja --list japan_top.csv

  # Shallow and fast crawl with more workers
  policycrawl crawl zh-cn --depth 1 --budget 30s --delay 500ms --workers 40

  # Respect robots.txt and cap requests per host
  policycrawl crawl ko --respect-robots --rate 2`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	// Traversal flags
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link depth below the home page")
	cmd.Flags().DurationP("budget", "b", config.DefaultBudget,
		"Wall-clock time budget per domain")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Politeness delay after each fetched page")
	cmd.Flags().IntP("max-pages", "p", 0,
		"Maximum pages fetched per domain (0 for no limit)")
	cmd.Flags().StringSlice("keyword", nil,
		"Additional policy link keyword (repeatable)")

	// Network flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().Bool("respect-robots", false,
		"Skip URLs disallowed by robots.txt")
	cmd.Flags().Float64("rate", 0,
		"Maximum requests per second per host (0 for no limit)")

	// Batch flags
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of domains crawled concurrently")
	cmd.Flags().StringP("list", "l", "",
		"Domain list file to crawl instead of the classified websites")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .policycrawl in current or home directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildCrawlConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)

	ctx, stop := signalContext(cmd)
	defer stop()

	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout())
}

// buildCrawlConfig creates a Config from cobra command flags.
func buildCrawlConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	if len(args) > 0 {
		cfg.Language = args[0]
	}
	if cfg.Language != "" {
		country, err := model.CountryForLanguage(cfg.Language)
		if err != nil {
			return nil, fmt.Errorf("unsupported language %q: %w", cfg.Language, err)
		}
		cfg.Country = country
	}

	var err error

	cfg.MaxDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.Budget, err = cmd.Flags().GetDuration("budget")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.PolicyKeywords, err = cmd.Flags().GetStringSlice("keyword")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.RespectRobots, err = cmd.Flags().GetBool("respect-robots")
	if err != nil {
		return nil, err
	}

	cfg.RequestsPerSecond, err = cmd.Flags().GetFloat64("rate")
	if err != nil {
		return nil, err
	}

	cfg.Workers, err = cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, err
	}

	cfg.ListFile, err = cmd.Flags().GetString("list")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg.SiteConfigs, err = loadSiteConfigs(cfg.ConfigFilePath)
	if err != nil {
		return nil, err
	}
	if len(cfg.SiteConfigs.UserAgents) > 0 {
		cfg.UserAgents = cfg.SiteConfigs.UserAgents
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.JSONLog = getBoolFlag(cmd, "json-log")
	cfg.DBDir = getDBDir(cmd)

	return cfg, nil
}

// loadSiteConfigs loads per-domain overrides. An explicitly given path
// must exist; without one, a missing file yields empty overrides.
func loadSiteConfigs(explicitPath string) (*config.File, error) {
	configPath := config.FindConfigFile(explicitPath)

	if configPath != "" {
		siteConfigs, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		return siteConfigs, nil
	}

	if explicitPath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", explicitPath)
	}

	return &config.File{Sites: make(map[string]config.SiteConfig)}, nil
}

// runCrawl crawls every unprocessed candidate domain of cfg.Language and
// stores the results.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	store, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	candidates, err := loadCandidates(ctx, cfg, store)
	if err != nil {
		return err
	}

	processed, err := store.ProcessedDomains(ctx, cfg.Country)
	if err != nil {
		return fmt.Errorf("failed to load processed domains: %w", err)
	}

	remaining := domainlist.Remaining(candidates, processed)
	fmt.Fprintf(out, "%s: %d domains, %d already processed, %d to crawl\n",
		cfg.Country, len(candidates), len(candidates)-len(remaining), len(remaining))
	if len(remaining) == 0 {
		return nil
	}

	base, err := fetcher.New(cfg.Timeout,
		fetcher.WithUserAgents(cfg.UserAgents),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
		fetcher.WithRateLimit(cfg.RequestsPerSecond),
	)
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}

	var robots crawler.RobotsChecker
	if cfg.RespectRobots {
		robots = crawler.NewRobotsAgent(base, config.AppName)
	}

	tasks := model.NewCrawlTasks(remaining, cfg.Country)

	bp := pipeline.NewBatchProcessor(
		func(task model.CrawlTask) *pipeline.Pipeline {
			return newDomainPipeline(cfg, base, robots, task.Domain, logger)
		},
		store,
		pipeline.WithConcurrency(cfg.Workers),
		pipeline.WithBatchLogger(logger),
		pipeline.WithResultCallback(progressPrinter(out, len(tasks))),
	)

	fmt.Fprintf(out, "Starting run %s (workers: %d, depth: %d, budget: %s)\n\n",
		bp.RunID(), cfg.Workers, cfg.MaxDepth, cfg.Budget)

	summary, err := bp.ProcessBatch(ctx, tasks)

	fmt.Fprintf(out, "\nRun %s finished in %s: %d complete, %d partial, %d failed\n",
		summary.RunID, summary.Elapsed.Round(time.Millisecond),
		summary.Complete, summary.Partial, summary.Failed)
	if summary.StoreErrors > 0 {
		fmt.Fprintf(out, "%d results could not be stored\n", summary.StoreErrors)
	}
	if skipped := summary.Skipped(len(tasks)); skipped > 0 {
		fmt.Fprintf(out, "%d domains left for the next run\n", skipped)
	}
	if stored, cerr := store.CountResults(context.WithoutCancel(ctx), cfg.Country); cerr == nil {
		fmt.Fprintf(out, "%d results stored for %s\n", stored, cfg.Country)
	}

	return err
}

// loadCandidates returns the domains to crawl: the list file when given,
// the classified websites of the language otherwise.
func loadCandidates(ctx context.Context, cfg *config.Config, store *database.ResultStore) ([]string, error) {
	if cfg.ListFile != "" {
		domains, err := domainlist.Load(cfg.ListFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load domain list: %w", err)
		}
		return domains, nil
	}

	websites, err := store.WebsitesByLanguage(ctx, model.LanguageCodesFor(cfg.Language)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load websites: %w", err)
	}
	if len(websites) == 0 {
		return nil, fmt.Errorf("%w for language %q: run \"policycrawl classify\" first or pass --list",
			errNoCandidates, cfg.Language)
	}

	domains := make([]string, 0, len(websites))
	for _, w := range websites {
		domains = append(domains, w.URL)
	}
	return domains, nil
}

// newDomainPipeline creates the crawl pipeline of one domain with the
// domain's effective settings.
func newDomainPipeline(cfg *config.Config, base *fetcher.HTTPFetcher, robots crawler.RobotsChecker, domain string, logger *slog.Logger) *pipeline.Pipeline {
	site := cfg.ForDomain(domain)

	crawlerOpts := []crawler.Option{
		crawler.WithMaxDepth(site.Depth),
		crawler.WithBudget(site.Budget),
		crawler.WithDelay(site.Delay),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithLogger(logger.With("domain", domain)),
	}
	if len(site.IgnorePatterns) > 0 {
		crawlerOpts = append(crawlerOpts, crawler.WithIgnorePatterns(site.IgnorePatterns))
	}
	if len(site.FollowPatterns) > 0 {
		crawlerOpts = append(crawlerOpts, crawler.WithFollowPatterns(site.FollowPatterns))
	}
	if robots != nil {
		crawlerOpts = append(crawlerOpts, crawler.WithRobots(robots))
	}

	c := crawler.NewDomainCrawler(base.WithExtraHeaders(site.Headers), crawlerOpts...)

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddStep(pipeline.NewCrawlStep(c))
	p.AddStep(pipeline.NewPolicyFilterStep(cfg.PolicyKeywords...))
	return p
}

// progressPrinter returns a result callback printing one line per domain.
func progressPrinter(out io.Writer, total int) func(*model.CrawlResult, int) {
	var mu sync.Mutex
	done := 0
	return func(result *model.CrawlResult, _ int) {
		mu.Lock()
		defer mu.Unlock()
		done++
		fmt.Fprintf(out, "[%d/%d] %s: %s (%d pages, %d links, %d policy links)\n",
			done, total, result.Domain, result.Status,
			result.PagesFetched, len(result.AllLinks), len(result.PolicyLinks))
	}
}
