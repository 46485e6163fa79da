package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pngcipher/internal/model"
	"github.com/nao1215/pngcipher/internal/rsa"
)

// Task is one file operation of a batch.
type Task struct {
	Operation Operation
	Input     string
	Output    string
	// Key is required for decrypt. For encrypt a nil key means a fresh key
	// is generated for this file.
	Key *rsa.KeyPair
}

// Outcome is the result of one Task.
type Outcome struct {
	Task    Task
	Result  *Result
	Elapsed time.Duration
	// Entries holds the warnings and errors logged while processing.
	Entries []model.Entry
	Err     error
}

// BatchProcessor runs file tasks concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
type BatchProcessor struct {
	// processorFactory creates a Processor for each task, receiving the
	// log callback that collects the task's entries.
	processorFactory func(onLog model.LogFunc) *Processor

	concurrency int
	logger      *slog.Logger

	results []*Outcome
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of files processed at once.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(processorFactory func(onLog model.LogFunc) *Processor, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		processorFactory: processorFactory,
		concurrency:      4,
		results:          make([]*Outcome, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// run processes one task. Failures are stored in the outcome.
func (bp *BatchProcessor) run(ctx context.Context, task Task) *Outcome {
	rec := model.NewRecorder()
	start := time.Now()

	proc := bp.processorFactory(rec.Log)
	res, err := proc.ProcessFile(ctx, task.Operation, task.Input, task.Output, task.Key)

	entries := make([]model.Entry, 0)
	for _, e := range rec.Entries() {
		if e.Severity >= model.SeverityWarning {
			entries = append(entries, e)
		}
	}
	return &Outcome{
		Task:    task,
		Result:  res,
		Elapsed: time.Since(start),
		Entries: entries,
		Err:     err,
	}
}

// ProcessBatch runs every task, at most concurrency at a time.
//
// Outcomes are returned in task order. A failed task does not stop the
// others. When the context is cancelled, tasks that never started have nil
// outcomes and the context error is returned.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, tasks []Task) ([]*Outcome, error) {
	bp.logger.Info("starting batch processing",
		"total_files", len(tasks),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	bp.results = make([]*Outcome, len(tasks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, task := range tasks {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("processing file",
				"input", task.Input,
				"operation", string(task.Operation),
				"index", i+1,
				"total", len(tasks),
			)

			outcome := bp.run(ctx, task)

			bp.mu.Lock()
			bp.results[i] = outcome
			bp.mu.Unlock()

			if outcome.Err != nil {
				bp.logger.Warn("file failed",
					"input", task.Input,
					"error", outcome.Err,
				)
				return nil
			}

			bp.logger.Info("file completed",
				"input", task.Input,
				"output", task.Output,
				"elapsed", outcome.Elapsed,
			)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch processing complete",
		"total_files", len(tasks),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}

// ProcessBatchWithCallback runs every task and calls callback as each one
// finishes. The callback is called from worker goroutines, so it must be
// safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	tasks []Task,
	callback func(outcome *Outcome, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"total_files", len(tasks),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, task := range tasks {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			callback(bp.run(ctx, task), i)
			return nil
		})
	}

	return g.Wait()
}
