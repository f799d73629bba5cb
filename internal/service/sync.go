package service

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidInterval is returned by Sync for a non-positive interval.
var ErrInvalidInterval = errors.New("sync interval must be positive")

// poll runs fn every interval until ctx is done. Runs never overlap.
func poll(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn(ctx)
		}
	}
}
