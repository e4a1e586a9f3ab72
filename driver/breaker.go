package driver

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerDriver wraps a Driver with a circuit breaker so a struggling
// storage backend fails fast instead of piling up blocked callers.
// Structurally this mirrors the teacher's src/storage/binary/
// cached_repository.go (a decorator implementing the same repository
// interface it wraps, adding a cross-cutting concern around every
// call) and src/storage/binary/update_circuit_breaker.go (breaker
// placed directly around the write path) — both dropped from the
// workspace in favor of this single generic decorator driven by
// sony/gobreaker instead of a hand-rolled state machine.
type BreakerDriver struct {
	next Driver
	cb   *gobreaker.CircuitBreaker
}

// BreakerSettings configures the underlying gobreaker.CircuitBreaker.
// Zero value yields gobreaker's own defaults except for Name.
type BreakerSettings struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// TripOnConsecutiveFailures opens the breaker after this many
	// consecutive failures. Zero disables the custom trip func and
	// falls back to gobreaker's default ReadyToTrip.
	TripOnConsecutiveFailures uint32
}

// NewBreakerDriver wraps next with a circuit breaker.
func NewBreakerDriver(next Driver, settings BreakerSettings) *BreakerDriver {
	st := gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
	}
	if settings.TripOnConsecutiveFailures > 0 {
		threshold := settings.TripOnConsecutiveFailures
		st.ReadyToTrip = func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		}
	}
	return &BreakerDriver{next: next, cb: gobreaker.NewCircuitBreaker(st)}
}

func guarded[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	result, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, errWrap(err)
		}
		return zero, err
	}
	return result.(T), nil
}

// errWrap tags breaker-open rejections as transient so the mutation
// package's retry policy treats them the same as a throttled backend.
func errWrap(err error) error {
	return transientWrap{err}
}

type transientWrap struct{ cause error }

func (t transientWrap) Error() string { return t.cause.Error() }
func (t transientWrap) Unwrap() error { return ErrTransient }

func (b *BreakerDriver) CreateTable(ctx context.Context, spec TableSpec) error {
	_, err := guarded(b.cb, func() (struct{}, error) {
		return struct{}{}, b.next.CreateTable(ctx, spec)
	})
	return err
}

func (b *BreakerDriver) PutItem(ctx context.Context, in PutItemInput) error {
	_, err := guarded(b.cb, func() (struct{}, error) {
		return struct{}{}, b.next.PutItem(ctx, in)
	})
	return err
}

func (b *BreakerDriver) GetItem(ctx context.Context, in GetItemInput) (Item, bool, error) {
	type result struct {
		item   Item
		exists bool
	}
	r, err := guarded(b.cb, func() (result, error) {
		item, exists, err := b.next.GetItem(ctx, in)
		return result{item, exists}, err
	})
	return r.item, r.exists, err
}

func (b *BreakerDriver) UpdateItem(ctx context.Context, in UpdateItemInput) (Item, error) {
	return guarded(b.cb, func() (Item, error) {
		return b.next.UpdateItem(ctx, in)
	})
}

func (b *BreakerDriver) DeleteItem(ctx context.Context, in DeleteItemInput) error {
	_, err := guarded(b.cb, func() (struct{}, error) {
		return struct{}{}, b.next.DeleteItem(ctx, in)
	})
	return err
}

func (b *BreakerDriver) Query(ctx context.Context, in QueryInput) (QueryOutput, error) {
	return guarded(b.cb, func() (QueryOutput, error) {
		return b.next.Query(ctx, in)
	})
}

func (b *BreakerDriver) Scan(ctx context.Context, in ScanInput) (QueryOutput, error) {
	return guarded(b.cb, func() (QueryOutput, error) {
		return b.next.Scan(ctx, in)
	})
}

func (b *BreakerDriver) Request(ctx context.Context, op string, params interface{}) (interface{}, error) {
	return guarded(b.cb, func() (interface{}, error) {
		return b.next.Request(ctx, op, params)
	})
}

func (b *BreakerDriver) MarshalItem(v interface{}) (Item, error) {
	return b.next.MarshalItem(v)
}

func (b *BreakerDriver) UnmarshalItem(item Item, out interface{}) error {
	return b.next.UnmarshalItem(item, out)
}

var _ Driver = (*BreakerDriver)(nil)
