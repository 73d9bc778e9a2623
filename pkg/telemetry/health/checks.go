package health

import (
	"context"
	"fmt"
	"time"
)

// LoadStatusFunc returns the time and outcome of the last rule load.
type LoadStatusFunc func() (loadedAt time.Time, err error)

// RulesLoaded fails until rule documents were loaded once, and while the
// last load reported an error.
func RulesLoaded(status LoadStatusFunc) CheckFunc {
	return func(ctx context.Context) error {
		loadedAt, err := status()
		if loadedAt.IsZero() {
			return fmt.Errorf("rule documents not loaded yet")
		}
		if err != nil {
			return fmt.Errorf("last load failed: %w", err)
		}
		return nil
	}
}

// Pinger is implemented by stores that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Reachable fails when p cannot be pinged.
func Reachable(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}
