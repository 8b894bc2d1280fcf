package langdetect

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/policycrawl/internal/fetcher"
	"github.com/nao1215/policycrawl/internal/model"
)

// Store records classification outcomes. *database.ResultStore implements it.
type Store interface {
	InsertWebsite(ctx context.Context, w *model.Website) error
	InsertClassifyError(ctx context.Context, url, reason string) error
}

// Summary counts the outcomes of ClassifyAll.
type Summary struct {
	Total      int
	Classified int
	Failed     int

	// ByLanguage counts classified websites per language code.
	ByLanguage map[string]int
}

// Classifier fetches home pages and stores their detected language.
type Classifier struct {
	fetcher     fetcher.Fetcher
	detector    *Detector
	store       Store
	concurrency int
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithConcurrency sets how many home pages are fetched at once.
func WithConcurrency(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock replaces time.Now for DetectedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClassifier creates a Classifier. Default concurrency is 10.
func NewClassifier(f fetcher.Fetcher, d *Detector, store Store, opts ...Option) *Classifier {
	c := &Classifier{
		fetcher:     f,
		detector:    d,
		store:       store,
		concurrency: 10,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClassifyAll classifies every domain in urls. Individual failures are
// recorded in the store and counted; only cancellation returns an error.
func (c *Classifier) ClassifyAll(ctx context.Context, urls []string) (Summary, error) {
	summary := Summary{ByLanguage: make(map[string]int)}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for _, u := range urls {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			w, err := c.Classify(ctx, u)

			mu.Lock()
			defer mu.Unlock()
			summary.Total++
			if err != nil {
				summary.Failed++
				return nil
			}
			summary.Classified++
			summary.ByLanguage[w.Language]++
			return nil
		})
	}

	waitErr := g.Wait()
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, waitErr
}

// Classify fetches one domain's home page (https, then http), detects its
// language and stores the outcome.
func (c *Classifier) Classify(ctx context.Context, domain string) (*model.Website, error) {
	w, err := c.detect(ctx, domain)
	storeCtx := context.WithoutCancel(ctx)

	if err != nil && ctx.Err() != nil {
		c.logger.Debug("classification interrupted", "url", domain, "error", err)
		return nil, err
	}
	if err != nil {
		c.logger.Debug("classification failed", "url", domain, "error", err)
		if storeErr := c.store.InsertClassifyError(storeCtx, domain, err.Error()); storeErr != nil {
			c.logger.Error("failed to record classify error", "url", domain, "error", storeErr)
		}
		return nil, err
	}

	if err := c.store.InsertWebsite(storeCtx, w); err != nil {
		c.logger.Error("failed to store website", "url", domain, "error", err)
		return nil, err
	}

	c.logger.Info("website classified",
		"url", w.URL,
		"language", w.Language,
		"confidence", fmt.Sprintf("%.2f", w.Confidence),
	)
	return w, nil
}

func (c *Classifier) detect(ctx context.Context, domain string) (*model.Website, error) {
	doc, err := c.fetcher.Fetch(ctx, "https://"+domain)
	if err != nil && ctx.Err() != nil {
		return nil, fmt.Errorf("error fetching the website %s: %w", domain, err)
	}
	if err != nil {
		var httpErr error
		doc, httpErr = c.fetcher.Fetch(ctx, "http://"+domain)
		if httpErr != nil {
			return nil, fmt.Errorf("error fetching the website %s: %w", domain, err)
		}
	}

	text, err := ExtractText(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, fmt.Errorf("error reading the website %s: %w", domain, err)
	}

	code, confidence, err := c.detector.Detect(text)
	if err != nil {
		return nil, fmt.Errorf("error detecting language of %s: %w", domain, err)
	}

	return &model.Website{
		URL:        domain,
		Language:   code,
		Confidence: confidence,
		DetectedAt: c.now(),
	}, nil
}
