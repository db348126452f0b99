package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/document-classifier-client/internal/core/domain"
)

// Observer receives per-attempt telemetry. Implemented by the metrics package.
type Observer interface {
	ObserveAttempt(operation string, duration time.Duration, err error)
	ObserveRetry(operation string, retry int)
}

type FetcherOptions struct {
	Classifier ErrorClassifier
	Breakers   *Breakers
	Observer   Observer
}

// Fetcher runs a read operation and retries it with linear back-off while it
// owns the resulting FetchState. A cycle started by Execute or Retry
// supersedes any cycle still running; the superseded cycle is cancelled and
// can no longer write state.
type Fetcher[T any] struct {
	name       string
	cfg        Config
	classifier ErrorClassifier
	breakers   *Breakers
	observer   Observer

	mu         sync.Mutex
	state      domain.FetchState[T]
	generation uint64
	cancel     context.CancelFunc
	timer      *time.Timer
	stopped    bool
}

func NewFetcher[T any](name string, cfg Config, opts FetcherOptions) *Fetcher[T] {
	op := strings.TrimSpace(name)
	if op == "" {
		op = "unknown"
	}
	classifier := opts.Classifier
	if classifier == nil {
		classifier = defaultClassifier
	}
	return &Fetcher[T]{
		name:       op,
		cfg:        cfg.normalize(),
		classifier: classifier,
		breakers:   opts.Breakers,
		observer:   opts.Observer,
		state:      domain.FetchState[T]{Status: domain.FetchIdle},
	}
}

// Execute starts a new fetch cycle.
func (f *Fetcher[T]) Execute(ctx context.Context, op func(context.Context) (T, error)) (T, error) {
	return f.run(ctx, op, false)
}

// Retry is the user initiated "try again" action.
func (f *Fetcher[T]) Retry(ctx context.Context, op func(context.Context) (T, error)) (T, error) {
	return f.run(ctx, op, true)
}

func (f *Fetcher[T]) State() domain.FetchState[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Stop abandons the running cycle, releases a pending retry timer and
// rejects further cycles.
func (f *Fetcher[T]) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	f.releaseLocked()
}

func (f *Fetcher[T]) run(ctx context.Context, op func(context.Context) (T, error), manual bool) (T, error) {
	var zero T
	if op == nil {
		return zero, fmt.Errorf("resilience: operation callback is nil")
	}

	runCtx, cancel, gen, err := f.begin(ctx, manual)
	if err != nil {
		return zero, err
	}
	defer cancel()

	for {
		result, err := f.attempt(runCtx, op)
		retry, done, outErr := f.settle(runCtx, gen, result, err)
		if done {
			if outErr != nil {
				return zero, outErr
			}
			return result, nil
		}

		wait := f.cfg.Backoff(retry)
		slog.Warn("retry_attempt",
			"operation", f.name,
			"attempt", retry,
			"max_retries", f.cfg.MaxRetries,
			"backoff_ms", float64(wait.Microseconds())/1000.0,
			"error", err,
		)
		if f.observer != nil {
			f.observer.ObserveRetry(f.name, retry)
		}
		if err := f.wait(runCtx, gen, wait); err != nil {
			return zero, err
		}
	}
}

func (f *Fetcher[T]) begin(ctx context.Context, manual bool) (context.Context, context.CancelFunc, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stopped {
		return nil, nil, 0, domain.ErrStopped
	}
	f.releaseLocked()
	f.generation++

	runCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.state.Status = domain.FetchLoading
	f.state.RetryCount = 0
	f.state.Err = nil
	f.state.Message = ""
	if manual {
		slog.Info("manual_retry", "operation", f.name)
	}
	return runCtx, cancel, f.generation, nil
}

func (f *Fetcher[T]) attempt(ctx context.Context, op func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	var result T
	var err error
	if f.breakers != nil {
		var out any
		out, err = f.breakers.Do(f.name, func() (any, error) {
			return op(ctx)
		}, f.classifier)
		if err == nil {
			result, _ = out.(T)
		}
	} else {
		result, err = op(ctx)
	}
	if f.observer != nil {
		f.observer.ObserveAttempt(f.name, time.Since(start), err)
	}
	return result, err
}

// settle records the outcome of one attempt. It reports the retry number to
// wait for, or done with the error to return.
func (f *Fetcher[T]) settle(ctx context.Context, gen uint64, result T, err error) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if stale := f.staleLocked(gen); stale != nil {
		return 0, true, stale
	}
	if err == nil {
		f.state.Status = domain.FetchSuccess
		f.state.Payload = result
		f.state.RetryCount = 0
		f.state.Err = nil
		f.state.Message = ""
		return 0, true, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		f.abortLocked(ctxErr)
		return 0, true, ctxErr
	}

	f.state.Err = err
	f.state.Message = domain.UserMessage(err)
	class := f.classifier(err)
	if !class.Retryable || f.state.RetryCount >= f.cfg.MaxRetries {
		f.state.Status = domain.FetchError
		return 0, true, err
	}
	f.state.RetryCount++
	return f.state.RetryCount, false, nil
}

func (f *Fetcher[T]) wait(ctx context.Context, gen uint64, d time.Duration) error {
	f.mu.Lock()
	if stale := f.staleLocked(gen); stale != nil {
		f.mu.Unlock()
		return stale
	}
	timer := time.NewTimer(d)
	f.timer = timer
	f.mu.Unlock()

	select {
	case <-ctx.Done():
		timer.Stop()
		f.mu.Lock()
		defer f.mu.Unlock()
		if stale := f.staleLocked(gen); stale != nil {
			return stale
		}
		if f.timer == timer {
			f.timer = nil
		}
		f.abortLocked(ctx.Err())
		return ctx.Err()
	case <-timer.C:
	}

	f.mu.Lock()
	if f.timer == timer {
		f.timer = nil
	}
	f.mu.Unlock()
	return nil
}

func (f *Fetcher[T]) staleLocked(gen uint64) error {
	if f.stopped {
		return domain.ErrStopped
	}
	if gen != f.generation {
		return domain.ErrSuperseded
	}
	return nil
}

// abortLocked ends a current cycle whose caller gave up. The view leaves
// loading with the cancellation as its error; the retry count is kept so the
// state shows how far the cycle got.
func (f *Fetcher[T]) abortLocked(err error) {
	f.state.Status = domain.FetchError
	f.state.Err = err
	f.state.Message = domain.UserMessage(err)
}

func (f *Fetcher[T]) releaseLocked() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}
