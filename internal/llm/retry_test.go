package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

// scriptedProvider returns the queued errors in order, then succeeds.
type scriptedProvider struct {
	errs  []error
	calls int
}

func (p *scriptedProvider) ID() ProviderID          { return "test" }
func (p *scriptedProvider) Name() string            { return "Test" }
func (p *scriptedProvider) Models() []Model         { return []Model{{ID: "m"}} }
func (p *scriptedProvider) DefaultModel() string    { return "m" }
func (p *scriptedProvider) SetModel(_ string) error { return nil }
func (p *scriptedProvider) Chat(_ context.Context, _ *ChatRequest) (*ChatResponse, error) {
	p.calls++
	if p.calls <= len(p.errs) {
		return nil, p.errs[p.calls-1]
	}
	return &ChatResponse{Content: "ok"}, nil
}

func quietPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		Attempts: attempts,
		Delay:    time.Millisecond,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func chatReq() *ChatRequest {
	return &ChatRequest{Messages: []Message{{Role: "user", Content: "hi"}}}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "googleapi 503", err: &googleapi.Error{Code: 503}, want: true},
		{name: "googleapi 429 wrapped", err: fmt.Errorf("failed to send message: %w", &googleapi.Error{Code: 429}), want: true},
		{name: "googleapi 400", err: &googleapi.Error{Code: 400}, want: false},
		{name: "openai 500", err: &openai.APIError{HTTPStatusCode: 500}, want: true},
		{name: "openai 401", err: &openai.APIError{HTTPStatusCode: 401}, want: false},
		{name: "openai request 503", err: &openai.RequestError{HTTPStatusCode: 503}, want: true},
		{name: "status in message", err: errors.New("Error 503: model overloaded"), want: true},
		{name: "other message", err: errors.New("invalid argument"), want: false},
		{name: "status inside number", err: errors.New("token 15003 rejected"), want: false},
		{name: "cancelled", err: context.Canceled, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestWithRetry(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		p := &scriptedProvider{errs: []error{
			&googleapi.Error{Code: 503},
			&googleapi.Error{Code: 429},
		}}
		resp, err := WithRetry(p, quietPolicy(3)).Chat(context.Background(), chatReq())
		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Content)
		assert.Equal(t, 3, p.calls)
	})

	t.Run("stops after the last attempt", func(t *testing.T) {
		last := &googleapi.Error{Code: 500, Message: "last"}
		p := &scriptedProvider{errs: []error{
			&googleapi.Error{Code: 503},
			&googleapi.Error{Code: 503},
			last,
			nil,
		}}
		_, err := WithRetry(p, quietPolicy(3)).Chat(context.Background(), chatReq())
		require.Error(t, err)
		assert.Same(t, last, err)
		assert.Equal(t, 3, p.calls)
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		p := &scriptedProvider{errs: []error{&googleapi.Error{Code: 400}}}
		_, err := WithRetry(p, quietPolicy(3)).Chat(context.Background(), chatReq())
		require.Error(t, err)
		assert.Equal(t, 1, p.calls)
	})

	t.Run("honours cancellation while waiting", func(t *testing.T) {
		p := &scriptedProvider{errs: []error{&googleapi.Error{Code: 503}, &googleapi.Error{Code: 503}}}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		policy := quietPolicy(3)
		policy.Delay = time.Hour
		_, err := WithRetry(p, policy).Chat(ctx, chatReq())
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, p.calls)
	})

	t.Run("zero attempts still calls once", func(t *testing.T) {
		p := &scriptedProvider{}
		_, err := WithRetry(p, quietPolicy(0)).Chat(context.Background(), chatReq())
		require.NoError(t, err)
		assert.Equal(t, 1, p.calls)
	})

	t.Run("keeps provider identity", func(t *testing.T) {
		wrapped := WithRetry(&scriptedProvider{}, DefaultRetryPolicy())
		assert.Equal(t, ProviderID("test"), wrapped.ID())
		assert.NoError(t, Close(wrapped))
	})
}
