package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/policycrawl/internal/config"
	plog "github.com/nao1215/policycrawl/internal/log"
)

// NewRootCmd creates the root command for policycrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policycrawl",
		Short: "Crawl websites for privacy policy and terms of service links",
		Long: `policycrawl collects privacy policy and terms-of-service links from the
websites of a language, for building a multilingual policy corpus.

A typical run builds a domain list (toplist), classifies the home page of
each domain by language (classify), crawls every domain of one language
(crawl) and exports the stored results (report). Results are kept in a
SQLite database in the XDG data directory, so an interrupted crawl resumes
where it stopped.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json-log", false, "Write logs as JSON lines")
	cmd.PersistentFlags().String("db-dir", config.XDGDataDir(),
		"Directory holding the result database")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewClassifyCmd())
	cmd.AddCommand(NewToplistCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getBoolFlag retrieves a bool flag from the command or the root's
// persistent flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	return getBoolFlag(cmd, "verbose")
}

// getDBDir returns the database directory flag, falling back to the XDG
// data directory.
func getDBDir(cmd *cobra.Command) string {
	dir, err := cmd.Flags().GetString("db-dir")
	if err != nil || dir == "" {
		dir, err = cmd.Root().PersistentFlags().GetString("db-dir")
		if err != nil || dir == "" {
			return config.XDGDataDir()
		}
	}
	return dir
}

// setupLogger creates the secure structured logger for a command and makes
// it the process default.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	logger := plog.NewLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd), getBoolFlag(cmd, "json-log"))
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
