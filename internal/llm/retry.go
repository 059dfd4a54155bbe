package llm

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
)

// RetryPolicy bounds how often a failed chat call is repeated.
type RetryPolicy struct {
	// Attempts is the total number of calls, including the first.
	Attempts int
	// Delay is the fixed wait between attempts.
	Delay time.Duration
	// Logger receives one record per retried failure. Nil uses slog.Default.
	Logger *slog.Logger
}

// DefaultRetryPolicy makes three attempts one second apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Delay: time.Second}
}

// retryStatuses are the HTTP statuses worth another attempt: rate limiting
// and transient server failures.
var retryStatuses = map[int]bool{
	429: true,
	500: true,
	503: true,
}

var statusPattern = regexp.MustCompile(`\b(429|500|503)\b`)

// IsRetryable reports whether err carries a transient HTTP status. Typed SDK
// errors are checked first; otherwise the message is searched for the
// status code.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return retryStatuses[gerr.Code]
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryStatuses[apiErr.HTTPStatusCode]
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryStatuses[reqErr.HTTPStatusCode]
	}

	return statusPattern.MatchString(err.Error())
}

type retryProvider struct {
	Provider
	policy RetryPolicy
}

// WithRetry wraps p so Chat is repeated on transient failures. Non-transient
// errors and context cancellation end the loop at once; otherwise the last
// error is returned after the final attempt.
func WithRetry(p Provider, policy RetryPolicy) Provider {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	if policy.Logger == nil {
		policy.Logger = slog.Default()
	}
	return &retryProvider{Provider: p, policy: policy}
}

func (r *retryProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= r.policy.Attempts; attempt++ {
		resp, err := r.Provider.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt == r.policy.Attempts || !IsRetryable(err) {
			break
		}
		r.policy.Logger.Warn("chat call failed, retrying",
			"provider", r.Provider.ID(),
			"attempt", attempt,
			"max_attempts", r.policy.Attempts,
			"error", err)

		if err := sleepContext(ctx, r.policy.Delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// Unwrap returns the wrapped provider.
func (r *retryProvider) Unwrap() Provider {
	return r.Provider
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
