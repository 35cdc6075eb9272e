package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
)

// RetryConfig tunes the exponential backoff around model calls.
// AttemptTimeout bounds each individual call so a stalled completion
// cannot hang the interactive loop.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	AttemptTimeout  time.Duration
}

// DefaultRetryConfig returns the production defaults for hosted model APIs.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		AttemptTimeout:  60 * time.Second,
	}
}

// retryableError reports whether the failure is worth another attempt:
// rate limits, transient server errors and network hiccups.
func retryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"rate limit", "quota exceeded", "429",
		"500", "502", "503", "504", "unavailable",
		"connection reset", "timeout", "temporary",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// executeWithRetry runs the prompt with backoff. Every attempt passes
// through the rate limiter first, so retries cannot amplify load.
func (a *Assistant) executeWithRetry(ctx context.Context, opts []ai.PromptExecuteOption) (*ai.ModelResponse, error) {
	var lastErr error
	delay := a.retryConfig.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= a.retryConfig.MaxRetries; attempt++ {
		if a.rateLimiter != nil {
			if err := a.rateLimiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, a.retryConfig.AttemptTimeout)
		resp, err := a.prompt.Execute(attemptCtx, opts...)
		timedOut := errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
		cancel()
		if err == nil {
			a.logger.Debug("model call succeeded",
				"attempts", attempt+1, "elapsed", time.Since(start))
			return resp, nil
		}
		if timedOut {
			err = fmt.Errorf("model call timed out after %s: %w", a.retryConfig.AttemptTimeout, err)
		}
		lastErr = err

		if !timedOut && !retryableError(err) {
			return nil, fmt.Errorf("prompt execute: %w", err)
		}
		if attempt == a.retryConfig.MaxRetries {
			break
		}

		a.logger.Debug("retrying model call",
			"attempt", attempt+1, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, a.retryConfig.MaxInterval)
		}
	}

	return nil, fmt.Errorf("prompt execute after %d retries (elapsed %v): %w",
		a.retryConfig.MaxRetries, time.Since(start), lastErr)
}
