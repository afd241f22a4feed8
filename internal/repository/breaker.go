package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/Mur0dDev/Classification-Bot/internal/submission"
)

// BreakerSettings configures Breaker.
type BreakerSettings struct {
	// Failures is the number of consecutive failures that opens the breaker.
	Failures uint32
	// Cooldown is how long the breaker stays open.
	Cooldown time.Duration
}

// Breaker fails fast while the wrapped store keeps failing. An open breaker
// reports submission.ErrStoreUnavailable without calling the store.
type Breaker struct {
	next Sheet
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(name string, next Sheet, s BreakerSettings, log *zap.Logger) *Breaker {
	if log == nil {
		log = zap.NewNop()
	}
	if s.Failures == 0 {
		s.Failures = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     s.Cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= s.Failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("store breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &Breaker{next: next, cb: cb}
}

// State reports the breaker state for the dashboard.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

func (b *Breaker) RowCount(ctx context.Context, table string) (int, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.next.RowCount(ctx, table)
	})
	if err != nil {
		return 0, unavailable(err)
	}
	return v.(int), nil
}

func (b *Breaker) AppendRow(ctx context.Context, table string, row []any) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.AppendRow(ctx, table, row)
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (b *Breaker) EnsureHeader(ctx context.Context, table string, header []string) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.EnsureHeader(ctx, table, header)
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func unavailable(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", submission.ErrStoreUnavailable, err)
	}
	return err
}
