package ai

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/eventrag/internal/adapters/driven/ai/httpapi"
	"github.com/custodia-labs/eventrag/internal/core/ports/driven"
	"github.com/custodia-labs/eventrag/internal/logger"
)

// DefaultBackoff is how long calls pause after a provider answers 429.
const DefaultBackoff = 10 * time.Second

// RateLimiter is a token bucket that also honours provider backoff.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	backoff time.Duration
}

// NewRateLimiter allows rps sustained requests with a burst of ceil(rps).
func NewRateLimiter(rps float64) *RateLimiter {
	burst := max(1, int(math.Ceil(rps)))
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		backoff: DefaultBackoff,
	}
}

// Wait blocks until a request may be made, first sitting out any backoff
// set by RecordRateLimitError.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimitError pauses callers for the backoff period.
func (r *RateLimiter) RecordRateLimitError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryAt = time.Now().Add(r.backoff)
}

// observe records a backoff when err is a provider 429.
func (r *RateLimiter) observe(err error) {
	var se *httpapi.StatusError
	if errors.As(err, &se) && se.Status == http.StatusTooManyRequests {
		logger.Warn("%s rate limited, backing off %s", se.Provider, r.backoff)
		r.RecordRateLimitError()
	}
}

// WithEmbeddingRateLimit returns svc unchanged when rps is not positive.
func WithEmbeddingRateLimit(svc driven.EmbeddingService, rps float64) driven.EmbeddingService {
	if svc == nil || rps <= 0 {
		return svc
	}
	return &limitedEmbedding{EmbeddingService: svc, limiter: NewRateLimiter(rps)}
}

type limitedEmbedding struct {
	driven.EmbeddingService
	limiter *RateLimiter
}

func (l *limitedEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	v, err := l.EmbeddingService.Embed(ctx, text)
	l.limiter.observe(err)
	return v, err
}

func (l *limitedEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	v, err := l.EmbeddingService.EmbedBatch(ctx, texts)
	l.limiter.observe(err)
	return v, err
}

// WithLLMRateLimit returns svc unchanged when rps is not positive.
func WithLLMRateLimit(svc driven.LLMService, rps float64) driven.LLMService {
	if svc == nil || rps <= 0 {
		return svc
	}
	return &limitedLLM{LLMService: svc, limiter: NewRateLimiter(rps)}
}

type limitedLLM struct {
	driven.LLMService
	limiter *RateLimiter
}

func (l *limitedLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	out, err := l.LLMService.Generate(ctx, prompt, opts)
	l.limiter.observe(err)
	return out, err
}

func (l *limitedLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	out, err := l.LLMService.Chat(ctx, messages, opts)
	l.limiter.observe(err)
	return out, err
}
