package ai

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/config"
	"github.com/appboardguru/boardguru/pkg/logging"
	"github.com/appboardguru/boardguru/pkg/metrics"
)

const (
	// DefaultMaxInputChars bounds the text sent in a single prompt
	DefaultMaxInputChars = 60000

	breakerFailures = 5
	breakerTimeout  = 30 * time.Second
)

// Options configures a Client
type Options struct {
	MaxInputChars int
	Retry         apperr.RetryPolicy
	// Timeout bounds one completion including retries. Zero uses ai_timeout_seconds.
	Timeout time.Duration
}

// Client runs prompts against a Provider
type Client struct {
	provider Provider
	cb       *gobreaker.CircuitBreaker[Completion]
	opts     Options
	log      zerolog.Logger
}

// NewClient wraps provider with retries and a circuit breaker that opens
// after five consecutive failures and probes again after thirty seconds.
func NewClient(provider Provider, opts Options) *Client {
	if opts.MaxInputChars <= 0 {
		opts.MaxInputChars = DefaultMaxInputChars
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = apperr.DefaultRetryPolicy
	}

	log := logging.With("ai")
	name := "ai-" + provider.Name()
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[Completion](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("AI circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &Client{provider: provider, cb: cb, opts: opts, log: log}
}

// countsAsSuccess keeps caller mistakes from tripping the breaker. Only
// provider outages and throttling count as failures.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	return !apperr.IsRecoverable(err) && !apperr.IsCode(err, apperr.CodeRateLimited)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return 0
}

// Provider returns the name of the wrapped provider
func (c *Client) Provider() string {
	return c.provider.Name()
}

// Complete sends req through the breaker. Recoverable errors are retried
// inside one breaker request.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	timeout := c.opts.Timeout
	if timeout <= 0 {
		timeout = config.Get().AITimeout()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	out, err := c.cb.Execute(func() (Completion, error) {
		return apperr.RetryValue(ctx, c.opts.Retry, func(ctx context.Context) (Completion, error) {
			return c.provider.Complete(ctx, req)
		})
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Completion{}, apperr.Unavailable("AI service is temporarily unavailable", err).
			WithSuggestion("try again in a minute")
	}
	metrics.RecordAIRequest(c.provider.Name(), time.Since(start), err)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("provider", c.provider.Name()).Msg("AI completion failed")
		return Completion{}, err
	}
	return out, nil
}

// Truncate shortens s to at most max runes, marking the cut
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "\n[truncated]"
}

func (c *Client) truncate(s string) string {
	return Truncate(s, c.opts.MaxInputChars)
}
