package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

type retrying struct {
	inner Provider
	cfg   RetryConfig
	sleep func(context.Context, time.Duration) error
}

// WithRetry retries transient failures with jittered exponential backoff.
// Invalid responses get one extra attempt; truncated and rejected requests
// and context errors are returned at once.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	if cfg.MaxAttempts <= 1 {
		return p
	}
	return &retrying{inner: p, cfg: cfg, sleep: sleepCtx}
}

func (r *retrying) ModelID() string      { return r.inner.ModelID() }
func (r *retrying) ProviderName() string { return r.inner.ProviderName() }

func (r *retrying) Generate(ctx context.Context, req Request) (*Response, error) {
	var (
		err           error
		invalidBudget = 1
	)
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			if serr := r.sleep(ctx, r.wait(attempt-1, err)); serr != nil {
				return nil, serr
			}
		}

		var resp *Response
		resp, err = r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		switch kind, _ := KindOf(err); kind {
		case KindTruncated, KindRejected:
			return nil, err
		case KindInvalidResponse:
			if invalidBudget == 0 {
				return nil, err
			}
			invalidBudget--
		}
	}
	return nil, err
}

// wait is the pause before retry n (0-based). A server-provided Retry-After
// wins over the schedule.
func (r *retrying) wait(n int, err error) time.Duration {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindRateLimited && e.RetryAfter > 0 {
		return e.RetryAfter
	}
	d := float64(r.cfg.InitialWait)
	for range n {
		d *= r.cfg.Multiplier
	}
	if limit := float64(r.cfg.MaxWait); limit > 0 && d > limit {
		d = limit
	}
	// ±20% jitter
	d *= 0.8 + 0.4*rand.Float64()
	return time.Duration(d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
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

// parseRetryAfter reads the delay-seconds form of a Retry-After header.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
