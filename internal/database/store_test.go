package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/policycrawl/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *ResultStore {
	t.Helper()

	store, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func sampleResult(domain, country string) *model.CrawlResult {
	r := model.NewCrawlResult(model.CrawlTask{Domain: domain, Country: country})
	r.RunID = "run-1"
	r.Scheme = "https"
	r.HomeLinks = []string{"https://" + domain + "/", "https://cdn.other.com/app.js"}
	r.AllLinks = []string{"https://" + domain + "/privacy", "https://" + domain + "/about"}
	r.PolicyLinks = []string{"https://" + domain + "/privacy"}
	r.PagesFetched = 3
	r.Status = model.StatusComplete
	r.Finalize(time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC))
	return r
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		store, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer store.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if store.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %s", store.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if err == nil {
			t.Fatal("expected error for missing database")
		}
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		first, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		if _, err := first.InsertResult(context.Background(), sampleResult("example.com", "Korea")); err != nil {
			t.Fatalf("failed to insert: %v", err)
		}
		_ = first.Close()

		second, err := Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer second.Close()

		n, err := second.CountResults(context.Background(), "Korea")
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 result after reopen, got %d", n)
		}
	})
}

func TestResults(t *testing.T) {
	t.Parallel()

	t.Run("insert and read back", func(t *testing.T) {
		t.Parallel()
		store := setupTestDB(t)
		ctx := context.Background()

		in := sampleResult("Example.com", "Korea")
		in.BudgetExceeded = true
		in.Status = model.StatusPartial

		id, err := store.InsertResult(ctx, in)
		if err != nil {
			t.Fatalf("failed to insert: %v", err)
		}
		if id == 0 || in.ID != id {
			t.Errorf("expected id to be assigned, got %d (result %d)", id, in.ID)
		}

		got, err := store.LatestResult(ctx, "example.com")
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if got.Domain != "example.com" {
			t.Errorf("expected lowercase domain, got %s", got.Domain)
		}
		if got.Status != model.StatusPartial || !got.BudgetExceeded {
			t.Errorf("expected partial with budget exceeded, got %s %v", got.Status, got.BudgetExceeded)
		}
		if !slices.Equal(got.AllLinks, in.AllLinks) {
			t.Errorf("expected all links %v, got %v", in.AllLinks, got.AllLinks)
		}
		if !slices.Equal(got.HomeLinks, in.HomeLinks) {
			t.Errorf("expected home links %v, got %v", in.HomeLinks, got.HomeLinks)
		}
		if !slices.Equal(got.PolicyLinks, in.PolicyLinks) {
			t.Errorf("expected policy links %v, got %v", in.PolicyLinks, got.PolicyLinks)
		}
		if !got.ProcessedAt.Equal(in.ProcessedAt) {
			t.Errorf("expected processed_at %v, got %v", in.ProcessedAt, got.ProcessedAt)
		}
		if got.RunID != "run-1" || got.Scheme != "https" || got.PagesFetched != 3 {
			t.Errorf("unexpected metadata: %+v", got)
		}
	})

	t.Run("failed result keeps empty link sets", func(t *testing.T) {
		t.Parallel()
		store := setupTestDB(t)
		ctx := context.Background()

		failed := model.NewCrawlResult(model.CrawlTask{Domain: "down.example", Country: "Japan"})
		failed.Finalize(time.Now())
		if _, err := store.InsertResult(ctx, failed); err != nil {
			t.Fatalf("failed to insert: %v", err)
		}

		got, err := store.LatestResult(ctx, "down.example")
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if got.Status != model.StatusFailed {
			t.Errorf("expected failed, got %s", got.Status)
		}
		if got.AllLinks == nil || got.HomeLinks == nil || len(got.AllLinks) != 0 {
			t.Errorf("expected empty non-nil slices, got %#v %#v", got.AllLinks, got.HomeLinks)
		}
	})

	t.Run("append-only history", func(t *testing.T) {
		t.Parallel()
		store := setupTestDB(t)
		ctx := context.Background()

		first := sampleResult("example.com", "Korea")
		second := sampleResult("example.com", "Korea")
		second.RunID = "run-2"
		for _, r := range []*model.CrawlResult{first, second} {
			if _, err := store.InsertResult(ctx, r); err != nil {
				t.Fatalf("failed to insert: %v", err)
			}
		}

		n, err := store.CountResults(ctx, "Korea")
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 rows, got %d", n)
		}

		latest, err := store.LatestResult(ctx, "example.com")
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if latest.RunID != "run-2" {
			t.Errorf("expected latest run-2, got %s", latest.RunID)
		}
	})

	t.Run("processed domains and listing by country", func(t *testing.T) {
		t.Parallel()
		store := setupTestDB(t)
		ctx := context.Background()

		for _, r := range []*model.CrawlResult{
			sampleResult("naver.com", "Korea"),
			sampleResult("daum.net", "Korea"),
			sampleResult("yahoo.co.jp", "Japan"),
		} {
			if _, err := store.InsertResult(ctx, r); err != nil {
				t.Fatalf("failed to insert: %v", err)
			}
		}

		processed, err := store.ProcessedDomains(ctx, "Korea")
		if err != nil {
			t.Fatalf("failed to query: %v", err)
		}
		if len(processed) != 2 || !processed["naver.com"] || !processed["daum.net"] {
			t.Errorf("unexpected processed set: %v", processed)
		}

		korea, err := store.ListResults(ctx, "Korea")
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(korea) != 2 || korea[0].Domain != "naver.com" || korea[1].Domain != "daum.net" {
			t.Errorf("unexpected Korea results: %v", korea)
		}

		all, err := store.ListResults(ctx, "")
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 results, got %d", len(all))
		}

		total, err := store.CountResults(ctx, "")
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if total != 3 {
			t.Errorf("expected 3, got %d", total)
		}
	})

	t.Run("latest result not found", func(t *testing.T) {
		t.Parallel()
		store := setupTestDB(t)

		_, err := store.LatestResult(context.Background(), "missing.example")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("nil result", func(t *testing.T) {
		t.Parallel()
		store := setupTestDB(t)

		if _, err := store.InsertResult(context.Background(), nil); err == nil {
			t.Error("expected error for nil result")
		}
	})

	t.Run("concurrent inserts", func(t *testing.T) {
		t.Parallel()
		store := setupTestDB(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		errs := make(chan error, 20)
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := store.InsertResult(ctx, sampleResult(fmt.Sprintf("site%d.example", i), "Korea")); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			t.Errorf("concurrent insert failed: %v", err)
		}

		n, err := store.CountResults(ctx, "Korea")
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if n != 20 {
			t.Errorf("expected 20 rows, got %d", n)
		}
	})
}

func TestWebsites(t *testing.T) {
	t.Parallel()

	store := setupTestDB(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for _, w := range []*model.Website{
		{URL: "naver.com", Language: "ko", Confidence: 0.98, DetectedAt: now},
		{URL: "baidu.com", Language: "zh", Confidence: 0.91, DetectedAt: now},
		{URL: "qq.com", Language: "zh-cn", Confidence: 0.7, DetectedAt: now},
		{URL: "Naver.com", Language: "ko", Confidence: 0.5, DetectedAt: now},
		{URL: "bbc.co.uk", Language: "en", Confidence: 0.99, DetectedAt: now},
	} {
		if err := store.InsertWebsite(ctx, w); err != nil {
			t.Fatalf("failed to insert website: %v", err)
		}
	}

	t.Run("by language", func(t *testing.T) {
		t.Parallel()

		ko, err := store.WebsitesByLanguage(ctx, "ko")
		if err != nil {
			t.Fatalf("failed to query: %v", err)
		}
		if len(ko) != 1 || ko[0].URL != "naver.com" || ko[0].Confidence != 0.98 {
			t.Errorf("unexpected Korean websites: %+v", ko)
		}
		if !ko[0].DetectedAt.Equal(now) {
			t.Errorf("expected detected_at %v, got %v", now, ko[0].DetectedAt)
		}

		zh, err := store.WebsitesByLanguage(ctx, "zh", "ZH-CN")
		if err != nil {
			t.Fatalf("failed to query: %v", err)
		}
		var urls []string
		for _, w := range zh {
			urls = append(urls, w.URL)
		}
		if !slices.Equal(urls, []string{"baidu.com", "qq.com"}) {
			t.Errorf("unexpected Chinese websites: %v", urls)
		}

		none, err := store.WebsitesByLanguage(ctx)
		if err != nil || len(none) != 0 {
			t.Errorf("expected no websites without codes, got %v, %v", none, err)
		}
	})

	t.Run("classified urls", func(t *testing.T) {
		t.Parallel()

		urls, err := store.ClassifiedURLs(ctx)
		if err != nil {
			t.Fatalf("failed to query: %v", err)
		}
		if len(urls) != 4 || !urls["naver.com"] || !urls["bbc.co.uk"] {
			t.Errorf("unexpected classified set: %v", urls)
		}
	})
}

func TestClassifyErrors(t *testing.T) {
	t.Parallel()

	store := setupTestDB(t)
	ctx := context.Background()

	if err := store.InsertClassifyError(ctx, "broken.example", "fetch failed"); err != nil {
		t.Fatalf("failed to insert: %v", err)
	}
	if err := store.InsertClassifyError(ctx, "BROKEN.example", "again"); err != nil {
		t.Fatalf("failed to insert: %v", err)
	}

	urls, err := store.ClassifyErrorURLs(ctx)
	if err != nil {
		t.Fatalf("failed to query: %v", err)
	}
	if len(urls) != 1 || !urls["broken.example"] {
		t.Errorf("unexpected error set: %v", urls)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-05-01T12:30:00Z", time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)},
		{"2024-05-01 12:30:00", time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)},
		{"2024-05-01T12:30:00.123456789Z", time.Date(2024, 5, 1, 12, 30, 0, 123456789, time.UTC)},
		{"not a time", time.Time{}},
	}

	for _, tt := range tests {
		if got := parseTimestamp(tt.in); !got.Equal(tt.want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
