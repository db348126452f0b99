package resilience

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/sony/gobreaker/v2"
)

type ErrorClassification struct {
	Retryable     bool
	RecordFailure bool
}

type ErrorClassifier func(err error) ErrorClassification

// Breakers hands out one circuit breaker per operation name so that every
// fetcher talking to the same endpoint shares its failure counts.
type Breakers struct {
	cfg Config

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

func NewBreakers(cfg Config) *Breakers {
	return &Breakers{
		cfg:      cfg.normalize(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

// Do runs fn through the breaker for operation. With breakers disabled fn is
// called directly.
func (b *Breakers) Do(operation string, fn func() (any, error), classifier ErrorClassifier) (any, error) {
	if b == nil || !b.cfg.BreakerEnabled {
		return fn()
	}
	if classifier == nil {
		classifier = defaultClassifier
	}
	return b.circuitBreaker(operation, classifier).Execute(fn)
}

// State reports the breaker state for operation; closed when none exists yet.
func (b *Breakers) State(operation string) gobreaker.State {
	if b == nil {
		return gobreaker.StateClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if breaker, ok := b.breakers[operation]; ok {
		return breaker.State()
	}
	return gobreaker.StateClosed
}

func (b *Breakers) circuitBreaker(operation string, classifier ErrorClassifier) *gobreaker.CircuitBreaker[any] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if breaker, ok := b.breakers[operation]; ok {
		return breaker
	}

	settings := gobreaker.Settings{
		Name:        operation,
		MaxRequests: b.cfg.BreakerHalfOpenMaxCalls,
		Timeout:     b.cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < b.cfg.BreakerMinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= b.cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return !classifier(err).RecordFailure
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
		},
	}

	breaker := gobreaker.NewCircuitBreaker[any](settings)
	b.breakers[operation] = breaker
	return breaker
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func defaultClassifier(error) ErrorClassification {
	return ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}
