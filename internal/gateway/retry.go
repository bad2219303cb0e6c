package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"hirecircle/internal/domain"
)

// Retrying retries reads that fail with domain.ErrPersistence using bounded
// exponential backoff. Writes pass straight through: Insert and Update are
// not idempotent without a key and must never be replayed here.
type Retrying struct {
	next       Gateway
	maxRetries uint64
	initial    time.Duration
}

func WithRetry(next Gateway, maxRetries uint64, initial time.Duration) *Retrying {
	return &Retrying{next: next, maxRetries: maxRetries, initial: initial}
}

func (r *Retrying) Query(ctx context.Context, q Query, dest any) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.initial
	policy.MaxInterval = 2 * time.Second
	policy.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(policy, r.maxRetries), ctx)

	return backoff.Retry(func() error {
		err := r.next.Query(ctx, q, dest)
		if err != nil && !errors.Is(err, domain.ErrPersistence) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}

func (r *Retrying) Insert(ctx context.Context, collection string, row Row, dest any) error {
	return r.next.Insert(ctx, collection, row, dest)
}

func (r *Retrying) Update(ctx context.Context, collection string, id string, patch Row, dest any, where ...Filter) error {
	return r.next.Update(ctx, collection, id, patch, dest, where...)
}
