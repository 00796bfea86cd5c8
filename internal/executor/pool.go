package executor

import (
	"context"
	"runtime"
	"sync"

	"github.com/harrison/docval/internal/models"
)

// ExampleRunner is the behavior the pool needs from a runner. Satisfied by
// *Runner; tests substitute stubs.
type ExampleRunner interface {
	Run(ctx context.Context, ex models.Example) (models.ExecutionResult, error)
}

// Logger is the minimal logging surface the pool uses for progress.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// Pool schedules example executions across a bounded set of workers.
// Examples are embarrassingly parallel: each execution owns a fresh
// interpreter process and shares nothing with its siblings, so the only
// coordination is the bounded-concurrency semaphore and the single-writer
// collection step at the end.
type Pool struct {
	runner  ExampleRunner
	workers int
	logger  Logger
}

// NewPool constructs a Pool. workers <= 0 means one worker per CPU. The
// logger is optional and may be nil.
func NewPool(runner ExampleRunner, workers int, logger Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		runner:  runner,
		workers: workers,
		logger:  logger,
	}
}

type indexedResult struct {
	index  int
	result models.ExecutionResult
	err    error
}

// ExecuteAll runs every example and returns results in the examples'
// original discovery order, regardless of worker completion order, so
// reports are reproducible across runs with different scheduling.
//
// One example's failure never aborts the batch: content failures are data
// on the results. The returned error is the first infrastructure failure
// encountered, if any; results for the other examples are still returned.
func (p *Pool) ExecuteAll(ctx context.Context, examples []models.Example) ([]models.ExecutionResult, error) {
	if len(examples) == 0 {
		return nil, nil
	}

	workers := p.workers
	if workers > len(examples) {
		workers = len(examples)
	}

	semaphore := make(chan struct{}, workers)
	resultsCh := make(chan indexedResult, len(examples))

	var wg sync.WaitGroup
	var launchErr error

	for i, ex := range examples {
		select {
		case <-ctx.Done():
			launchErr = ctx.Err()
		case semaphore <- struct{}{}:
		}
		if launchErr != nil {
			break
		}

		wg.Add(1)
		go func(index int, example models.Example) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if p.logger != nil {
				p.logger.Debugf("executing %s", example.ID)
			}

			result, err := p.runner.Run(ctx, example)
			if err != nil && p.logger != nil {
				p.logger.Warnf("infrastructure failure on %s: %v", example.ID, err)
			}

			resultsCh <- indexedResult{index: index, result: result, err: err}
		}(i, ex)
	}

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	// Reassemble into canonical order. Index addressing makes completion
	// order irrelevant.
	results := make([]models.ExecutionResult, len(examples))
	for i, ex := range examples {
		results[i] = models.ExecutionResult{ExampleID: ex.ID}
	}

	var firstErr error
	for ir := range resultsCh {
		results[ir.index] = ir.result
		if firstErr == nil && ir.err != nil {
			firstErr = ir.err
		}
	}

	if firstErr == nil {
		firstErr = launchErr
	}
	return results, firstErr
}
