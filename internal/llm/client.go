// Package llm provides the remote model client used for summarization.
// It wraps a concrete provider with rate limiting, retry with exponential
// backoff, and call metrics.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/Maxwell0339/paper-cli/internal/errortypes"
	"github.com/Maxwell0339/paper-cli/internal/llm/providers"
	"github.com/Maxwell0339/paper-cli/internal/logger"
	"github.com/Maxwell0339/paper-cli/internal/rate"
	"github.com/Maxwell0339/paper-cli/internal/telemetry"
)

const (
	// DefaultMaxRetries is the number of additional attempts made after
	// the first failed call.
	DefaultMaxRetries = 3

	backoffBase = 800 * time.Millisecond
	backoffCap  = 8 * time.Second
)

// Client issues chat completions through a provider. A single Client is
// safe for concurrent use from many workers: the provider holds one
// shared http.Client and the rate limiter serializes slot scheduling.
type Client struct {
	provider   providers.Provider
	limiter    *rate.Limiter
	maxRetries int
	metrics    *telemetry.MetricsCollector
	log        *logger.Logger

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// ClientConfig holds the knobs for a Client.
type ClientConfig struct {
	Provider   providers.Provider
	Limiter    *rate.Limiter
	MaxRetries int
	Metrics    *telemetry.MetricsCollector
	Logger     *logger.Logger
}

// NewClient creates a Client from the given configuration.
func NewClient(cfg ClientConfig) *Client {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Limiter == nil {
		cfg.Limiter = rate.NewLimiter(1.0)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NewMetricsCollector()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	return &Client{
		provider:   cfg.Provider,
		limiter:    cfg.Limiter,
		maxRetries: cfg.MaxRetries,
		metrics:    cfg.Metrics,
		log:        cfg.Logger,
		sleep:      sleepCtx,
	}
}

// Complete sends the prompt pair to the remote model and returns the
// response text and token count. Transient failures (connection errors,
// rate-limit responses, upstream API errors, empty responses) are retried
// up to maxRetries additional times with exponential backoff. Auth
// failures return immediately.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (providers.ChatResult, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt)
			c.log.Debug("retrying remote call",
				"provider", c.provider.Name(),
				"attempt", attempt,
				"delay", delay.String())
			c.metrics.IncrementCounter(telemetry.MetricRetryAttempts, 1)
			if err := c.sleep(ctx, delay); err != nil {
				return providers.ChatResult{}, err
			}
		}

		if err := c.limiter.Acquire(ctx); err != nil {
			return providers.ChatResult{}, err
		}

		c.metrics.IncrementCounter(telemetry.MetricAPICalls, 1)
		start := time.Now()
		result, err := c.provider.Complete(ctx, systemPrompt, userPrompt)
		c.metrics.RecordTimer(telemetry.MetricResponseTime, time.Since(start))

		if err == nil {
			c.metrics.IncrementCounter(telemetry.MetricAPICallsSuccess, 1)
			c.metrics.IncrementCounter(telemetry.MetricTokensUsed, int64(result.TotalTokens))
			if attempt > 0 {
				c.metrics.IncrementCounter(telemetry.MetricRetrySuccess, 1)
			}
			return result, nil
		}

		c.metrics.IncrementCounter(telemetry.MetricAPICallsFailure, 1)

		if !errortypes.IsRetryable(err) {
			logger.LogError(c.log, err)
			return providers.ChatResult{}, err
		}
		lastErr = err
	}

	return providers.ChatResult{}, errortypes.APIError(
		lastErr,
		fmt.Sprintf("remote call failed after %d attempts", c.maxRetries+1),
	)
}

// backoffDelay returns the wait before retry attempt n (n >= 1):
// 0.8s, 1.6s, 3.2s, 6.4s, then capped at 8s.
func backoffDelay(attempt int) time.Duration {
	d := backoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= backoffCap {
			return backoffCap
		}
	}
	if d > backoffCap {
		return backoffCap
	}
	return d
}

// sleepCtx sleeps for d, returning early if the context is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
