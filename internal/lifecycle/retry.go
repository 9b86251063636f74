package lifecycle

import (
	"time"

	"github.com/taskclaim/taskclaim/internal/config"
	"github.com/taskclaim/taskclaim/internal/errors"
)

// RetryPolicy retries a whole operation when it fails with a recoverable
// error (lock timeout, checksum mismatch, ID collision). Each attempt
// re-acquires locks and re-reads both documents, so state observed by a
// failed attempt is never reused.
type RetryPolicy struct {
	// MaxAttempts is the total attempt budget, including the first.
	MaxAttempts int
	// InitialDelay is the backoff before the second attempt.
	InitialDelay time.Duration
	// Multiplier scales the delay after each failed attempt.
	Multiplier float64
	// MaxElapsed caps total wall time across attempts, 0 = no cap.
	MaxElapsed time.Duration

	// Sleep is replaceable in tests. Nil means time.Sleep.
	Sleep func(time.Duration)
}

// RetryFromConfig builds a RetryPolicy from the configured values.
func RetryFromConfig(cfg config.RetryConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  cfg.MaxAttempts,
		InitialDelay: time.Duration(cfg.InitialDelayMs) * time.Millisecond,
		Multiplier:   cfg.Multiplier,
		MaxElapsed:   time.Duration(cfg.MaxElapsedMs) * time.Millisecond,
	}
}

// Do runs op until it succeeds, fails with a non-recoverable error, or the
// attempt budget runs out. The last error is returned unmodified so
// callers can still match its sentinel.
func (p RetryPolicy) Do(op func() error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	start := time.Now()
	delay := p.InitialDelay

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = op()
		if err == nil || !errors.IsRetryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		if p.MaxElapsed > 0 && time.Since(start)+delay > p.MaxElapsed {
			break
		}
		sleep(delay)
		delay = time.Duration(float64(delay) * p.Multiplier)
	}
	return err
}
