package main

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/nao1215/policycrawl/internal/fetcher"
)

// quietLogger returns a logger that discards everything.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mustFetcher returns an HTTP fetcher with a short timeout.
func mustFetcher(t *testing.T) *fetcher.HTTPFetcher {
	t.Helper()
	f, err := fetcher.New(2 * time.Second)
	if err != nil {
		t.Fatal(err)
	}
	return f
}
