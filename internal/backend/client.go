// Package backend turns prompts into text or structured payloads using an
// unreliable generative text backend.
//
// [Client] retries throttled invocations with linear backoff and extracts a
// JSON object from free-form completions using a layered strategy that goes
// from well-behaved responses (a fenced block, a bare object) to salvage
// (brace scanning).
//
// Key types:
//   - [Backend] is the single operation a generative backend provides
//   - [Client] wraps a Backend with retry and structured extraction
//   - [HTTPBackend] talks to an OpenAI-compatible chat completions endpoint
//   - [MockBackend] is a scripted Backend for tests
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

const meterName = "contentpipe/internal/backend"

// Defaults for the retry loop.
const (
	DefaultMaxAttempts = 3
	DefaultBackoff     = 30 * time.Second
)

// Error conditions raised by [Client].
var (
	// ErrBackendUnavailable is returned when the backend fails for a reason
	// other than throttling. It is never retried.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrRetriesExhausted is returned when throttling persisted past the
	// attempt budget.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrUnparsableResponse is returned when no extraction strategy found a
	// JSON object in the response. See [UnparsableError].
	ErrUnparsableResponse = errors.New("unparsable response")
)

// throttleMarkers are the case-insensitive substrings that identify a
// throttling-class fault.
var throttleMarkers = []string{"rate", "quota", "429"}

// Backend is a generative text backend.
type Backend interface {
	// Invoke sends prompt and returns the completion text.
	Invoke(ctx context.Context, prompt string) (string, error)
}

// BackendFunc adapts a function to the [Backend] interface.
type BackendFunc func(ctx context.Context, prompt string) (string, error)

// Invoke calls f(ctx, prompt).
func (f BackendFunc) Invoke(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Sleeper blocks for the given duration. [time.Sleep] is the default.
type Sleeper func(time.Duration)

// IsRetryable reports whether err is a throttling-class fault, judged by its
// message containing "rate", "quota" or "429" in any case.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range throttleMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Client invokes a [Backend] with bounded retry and extracts structured
// payloads from its responses.
//
// Use [NewClient] to create an instance. Client holds no per-call state and
// may be shared by the steps of a run.
type Client struct {
	backend     Backend
	logger      *zap.Logger
	maxAttempts int
	backoff     time.Duration
	sleep       Sleeper

	attempts metric.Int64Counter
	failures metric.Int64Counter
}

// NewClient creates a Client for b with the default attempt budget (3) and
// backoff base (30s). A nil logger is replaced by a no-op logger.
func NewClient(b Backend, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		backend:     b,
		logger:      logger.Named("backend"),
		maxAttempts: DefaultMaxAttempts,
		backoff:     DefaultBackoff,
		sleep:       time.Sleep,
	}
	c.initMetrics(otel.Meter(meterName))
	return c
}

func (c *Client) initMetrics(meter metric.Meter) {
	fallback := noop.NewMeterProvider().Meter(meterName)

	attempts, err := meter.Int64Counter("backend.attempts",
		metric.WithDescription("Backend invocations, including retries"))
	if err != nil {
		c.logger.Warn("backend.attempts counter unavailable", zap.Error(err))
		attempts, _ = fallback.Int64Counter("backend.attempts")
	}
	failures, err := meter.Int64Counter("backend.failures",
		metric.WithDescription("Failed backend invocations by kind"))
	if err != nil {
		c.logger.Warn("backend.failures counter unavailable", zap.Error(err))
		failures, _ = fallback.Int64Counter("backend.failures")
	}
	c.attempts = attempts
	c.failures = failures
}

// SetMaxAttempts sets the attempt budget. Values below 1 restore the default.
func (c *Client) SetMaxAttempts(n int) {
	if n < 1 {
		n = DefaultMaxAttempts
	}
	c.maxAttempts = n
}

// SetBackoff sets the backoff base. The wait before attempt n+1 is
// base*(n+1). Values not above zero restore the default.
func (c *Client) SetBackoff(base time.Duration) {
	if base <= 0 {
		base = DefaultBackoff
	}
	c.backoff = base
}

// SetSleeper replaces the blocking sleep used between attempts.
func (c *Client) SetSleeper(s Sleeper) {
	if s == nil {
		s = time.Sleep
	}
	c.sleep = s
}

// MaxAttempts returns the configured attempt budget.
func (c *Client) MaxAttempts() int {
	return c.maxAttempts
}

// Generate sends prompt to the backend and returns the completion text.
//
// A throttled attempt with attempts left sleeps base*(attempt+1) and retries;
// with the default base the waits are 30s, 60s, and so on. A non-throttling
// fault stops immediately with an error wrapping [ErrBackendUnavailable]. A
// throttled last attempt returns an error wrapping [ErrRetriesExhausted].
// Both wrap the underlying cause.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		c.attempts.Add(ctx, 1)
		text, err := c.backend.Invoke(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			c.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "unavailable")))
			c.logger.Error("generation failed", zap.Error(err), zap.Int("attempt", attempt+1))
			return "", fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
		}
		c.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "throttled")))
		if attempt == c.maxAttempts-1 {
			break
		}

		wait := c.backoff * time.Duration(attempt+1)
		c.logger.Warn("rate limited, backing off",
			zap.Duration("wait", wait),
			zap.Int("next_attempt", attempt+2),
			zap.Int("max_attempts", c.maxAttempts),
		)
		c.sleep(wait)
	}

	c.logger.Error("generation failed after max retries", zap.Int("attempts", c.maxAttempts), zap.Error(lastErr))
	return "", fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, c.maxAttempts, lastErr)
}

// GenerateStructured calls [Client.Generate] and extracts a JSON object from
// the completion with [Extract].
func (c *Client) GenerateStructured(ctx context.Context, prompt string) (map[string]any, error) {
	text, err := c.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	payload, err := Extract(text)
	if err != nil {
		c.logger.Error("could not extract structured payload", zap.Error(err))
		return nil, err
	}
	return payload, nil
}

// GenerateInto calls [Client.GenerateStructured] and decodes the payload into
// out with [Decode].
func (c *Client) GenerateInto(ctx context.Context, prompt string, out any) error {
	payload, err := c.GenerateStructured(ctx, prompt)
	if err != nil {
		return err
	}
	return Decode(payload, out)
}
