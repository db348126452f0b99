package resilience

import "time"

type Config struct {
	MaxRetries int
	BaseDelay  time.Duration

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,
	}
}

// Backoff is the wait before retry number n (1-based): BaseDelay, 2*BaseDelay, ...
func (c Config) Backoff(retry int) time.Duration {
	if retry < 1 {
		return 0
	}
	return c.BaseDelay * time.Duration(retry)
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	if out.MaxRetries < 0 {
		out.MaxRetries = def.MaxRetries
	}
	if out.BaseDelay < 0 {
		out.BaseDelay = def.BaseDelay
	}

	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = def.BreakerMinRequests
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if out.BreakerHalfOpenMaxCalls == 0 {
		out.BreakerHalfOpenMaxCalls = def.BreakerHalfOpenMaxCalls
	}

	return out
}
