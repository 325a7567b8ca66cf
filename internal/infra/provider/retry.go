package provider

import (
	"context"
	"errors"
	"net/http"
	"time"

	"rag-chat/internal/domain/entities"
	Iservices "rag-chat/internal/domain/interfaces/services"
	"rag-chat/internal/util"

	openai "github.com/sashabaranov/go-openai"
)

// Retrier re-runs a provider call on transient failures with exponential
// backoff. MaxRetries counts attempts after the first one.
type Retrier struct {
	MaxRetries int
	BaseDelay  time.Duration
	Retryable  func(error) bool
	OnRetry    func(attempt int, delay time.Duration, err error)

	sleep func(context.Context, time.Duration) error
}

func NewRetrier(maxRetries int, baseDelay time.Duration) *Retrier {
	return &Retrier{
		MaxRetries: maxRetries,
		BaseDelay:  baseDelay,
		Retryable:  IsRetryable,
		sleep:      util.SleepContext,
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, the retry
// budget runs out, or ctx is done.
func (r *Retrier) Do(ctx context.Context, fn func(context.Context) error) error {
	retryable := r.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	sleep := r.sleep
	if sleep == nil {
		sleep = util.SleepContext
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= r.MaxRetries || !retryable(err) || ctx.Err() != nil {
			return err
		}

		delay := util.CalculateBackoff(r.BaseDelay, attempt+1)
		if r.OnRetry != nil {
			r.OnRetry(attempt+1, delay, err)
		}
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return err
		}
	}
}

// IsRetryable reports whether a provider error is worth another attempt.
// Cancellation and client errors (bad request, auth, not found,
// unprocessable) are final. Everything else, including rate limits, server
// errors and transport failures, is retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case http.StatusBadRequest,
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusUnprocessableEntity:
		return false
	}
	return true
}

// RetryingEmbeddingClient decorates an embedding client with a Retrier.
type RetryingEmbeddingClient struct {
	next    Iservices.IEmbeddingClient
	retrier *Retrier
}

func NewRetryingEmbeddingClient(next Iservices.IEmbeddingClient, retrier *Retrier) *RetryingEmbeddingClient {
	return &RetryingEmbeddingClient{next: next, retrier: retrier}
}

func (c *RetryingEmbeddingClient) Embed(ctx context.Context, texts []string) ([]entities.Vector, error) {
	var out []entities.Vector
	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = c.next.Embed(ctx, texts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RetryingChatClient decorates a chat completion client with a Retrier.
type RetryingChatClient struct {
	next    Iservices.IChatCompletionClient
	retrier *Retrier
}

func NewRetryingChatClient(next Iservices.IChatCompletionClient, retrier *Retrier) *RetryingChatClient {
	return &RetryingChatClient{next: next, retrier: retrier}
}

func (c *RetryingChatClient) Complete(ctx context.Context, messages []entities.ChatTurn) (string, error) {
	var reply string
	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		reply, err = c.next.Complete(ctx, messages)
		return err
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}
