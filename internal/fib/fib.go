package fib

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hackebrot/go-fibonacci"

	"github.com/hackebrot/go-deferred-scheduler/pkg/scheduler"
)

// MaxN is the largest input accepted. The recursive strategy is exponential,
// and a slow callback delays every task queued behind it.
const MaxN = 35

// ErrOutOfRange is returned for inputs outside [0, MaxN].
var ErrOutOfRange = errors.New("fibonacci input out of range")

// NewCallback returns a scheduler callback that computes the nth Fibonacci
// number using strategy and logs the result.
func NewCallback(logger *slog.Logger, n int, strategy fibonacci.Strategy) scheduler.Callback {
	return func() error {
		logger.Info("starting computation", "n", n)

		if n < 0 || n > MaxN {
			return fmt.Errorf("compute fib(%d): %w", n, ErrOutOfRange)
		}

		r := strategy.Compute(n)
		logger.Info("computation complete", "n", n, "result", r)

		return nil
	}
}
