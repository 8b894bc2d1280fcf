package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/policycrawl/internal/model"
)

// ResultSaver persists crawl results. *database.ResultStore implements it.
type ResultSaver interface {
	InsertResult(ctx context.Context, result *model.CrawlResult) (int64, error)
}

// BatchSummary counts the outcomes of a batch.
type BatchSummary struct {
	// RunID is the identifier stamped on every result of the batch.
	RunID string

	// Total is the number of tasks that were processed.
	Total int

	// Complete, Partial and Failed count results by status.
	Complete int
	Partial  int
	Failed   int

	// StoreErrors counts results that could not be persisted.
	StoreErrors int

	// Elapsed is the wall-clock duration of the batch.
	Elapsed time.Duration
}

// Skipped returns how many of n submitted tasks were never processed,
// which only happens when the batch is cancelled.
func (s BatchSummary) Skipped(n int) int {
	return n - s.Total
}

// BatchProcessor handles concurrent processing of many domains.
// It uses errgroup to manage goroutines and respect concurrency limits.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each task, so pipeline
	// and crawler state never leaks between domains.
	pipelineFactory func(task model.CrawlTask) *Pipeline

	// store receives every result exactly once.
	store ResultSaver

	// concurrency is the maximum number of concurrent crawls.
	concurrency int

	// runID is stamped on every result.
	runID string

	// onResult, when set, is called after each result is stored.
	onResult func(result *model.CrawlResult, index int)

	// logger is used for batch-level logging.
	logger *slog.Logger

	mu      sync.Mutex
	summary BatchSummary
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent crawls.
// Default is 20 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithRunID sets the run identifier instead of a random UUID.
func WithRunID(id string) BatchOption {
	return func(b *BatchProcessor) {
		if id != "" {
			b.runID = id
		}
	}
}

// WithResultCallback registers a function called after each result has
// been handed to the store. It runs on the worker goroutine and must be
// safe for concurrent use.
func WithResultCallback(fn func(result *model.CrawlResult, index int)) BatchOption {
	return func(b *BatchProcessor) {
		b.onResult = fn
	}
}

// NewBatchProcessor creates a new BatchProcessor that stores results in store.
func NewBatchProcessor(pipelineFactory func(task model.CrawlTask) *Pipeline, store ResultSaver, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		store:           store,
		concurrency:     20,
		runID:           uuid.NewString(),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// RunID returns the identifier stamped on this processor's results.
func (bp *BatchProcessor) RunID() string {
	return bp.runID
}

// ProcessBatch crawls tasks concurrently and persists each result.
//
// Per-domain failures never abort the batch. The returned error is non-nil
// only when ctx was cancelled; tasks not yet started are then skipped and
// the summary covers what was processed.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, tasks []model.CrawlTask) (BatchSummary, error) {
	bp.logger.Info("starting batch processing",
		"run_id", bp.runID,
		"total_tasks", len(tasks),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()
	bp.mu.Lock()
	bp.summary = BatchSummary{RunID: bp.runID}
	bp.mu.Unlock()

	var g errgroup.Group
	g.SetLimit(bp.concurrency)

	for i, task := range tasks {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			bp.logger.Debug("crawling domain",
				"domain", task.Domain,
				"index", i+1,
				"total", len(tasks),
			)

			result, crawled := bp.runTask(ctx, task)
			if !crawled {
				return ctx.Err()
			}
			bp.persist(ctx, result)

			if bp.onResult != nil {
				bp.onResult(result, i)
			}
			return nil
		})
	}

	waitErr := g.Wait()

	bp.mu.Lock()
	summary := bp.summary
	bp.mu.Unlock()
	summary.Elapsed = time.Since(startTime)

	bp.logger.Info("batch processing complete",
		"run_id", bp.runID,
		"processed", summary.Total,
		"complete", summary.Complete,
		"partial", summary.Partial,
		"failed", summary.Failed,
		"store_errors", summary.StoreErrors,
		"elapsed", summary.Elapsed,
	)

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, waitErr
}

// runTask executes a fresh pipeline for task. A panic anywhere in the
// pipeline is converted into a failed result. crawled is false when the
// pipeline was cancelled before producing anything worth storing.
func (bp *BatchProcessor) runTask(ctx context.Context, task model.CrawlTask) (result *model.CrawlResult, crawled bool) {
	result = model.NewCrawlResult(task)
	result.RunID = bp.runID

	defer func() {
		if r := recover(); r != nil {
			bp.logger.Error("crawl panicked",
				"domain", task.Domain,
				"panic", fmt.Sprint(r),
			)
			result = model.NewCrawlResult(task)
			result.RunID = bp.runID
			result.Finalize(time.Now())
			crawled = true
		}
	}()

	p := bp.pipelineFactory(task)
	bp.logger.Debug("running pipeline",
		"domain", task.Domain,
		"steps", p.StepNames(),
	)

	err := p.Execute(ctx, result)
	if result.ProcessedAt.IsZero() && ctx.Err() != nil {
		return result, false
	}
	if err != nil {
		bp.logger.Warn("pipeline failed",
			"domain", task.Domain,
			"error", err,
		)
	}
	if result.ProcessedAt.IsZero() {
		result.Finalize(time.Now())
	}

	return result, true
}

// persist stores result and updates the summary. Storage uses a context
// detached from cancellation so that a crawl finished during shutdown is
// still recorded.
func (bp *BatchProcessor) persist(ctx context.Context, result *model.CrawlResult) {
	_, err := bp.store.InsertResult(context.WithoutCancel(ctx), result)

	bp.mu.Lock()
	defer bp.mu.Unlock()

	bp.summary.Total++
	switch result.Status {
	case model.StatusComplete:
		bp.summary.Complete++
	case model.StatusPartial:
		bp.summary.Partial++
	default:
		bp.summary.Failed++
	}

	if err != nil {
		bp.summary.StoreErrors++
		bp.logger.Error("failed to store result",
			"domain", result.Domain,
			"error", err,
		)
		return
	}

	bp.logger.Info("domain processed",
		"domain", result.Domain,
		"status", result.Status.String(),
		"all_links", len(result.AllLinks),
		"home_links", len(result.HomeLinks),
		"policy_links", len(result.PolicyLinks),
	)
}
