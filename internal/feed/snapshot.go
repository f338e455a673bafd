package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Snapshot holds all feed documents of one run. It is read-only once loaded.
type Snapshot struct {
	Latest       Repository
	Stable       Repository
	StableSource string
	Statistics   *Statistics
}

// Load downloads all feed documents in parallel
func Load(ctx context.Context, f Feed) (*Snapshot, error) {
	snap := &Snapshot{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		latest, err := f.Latest(gctx)
		if err != nil {
			return fmt.Errorf("latest repository: %w", err)
		}
		mu.Lock()
		snap.Latest = latest
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		stable, err := f.Stable(gctx)
		if err != nil {
			return fmt.Errorf("stable repository: %w", err)
		}
		mu.Lock()
		snap.Stable = stable
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		source, err := f.StableSource(gctx)
		if err != nil {
			return fmt.Errorf("stable source file: %w", err)
		}
		mu.Lock()
		snap.StableSource = source
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		stats, err := f.Statistics(gctx)
		if err != nil {
			return fmt.Errorf("statistics: %w", err)
		}
		mu.Lock()
		snap.Statistics = stats
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Info("Loaded feed snapshot",
		"latest", len(snap.Latest),
		"stable", len(snap.Stable),
		"statistics", snap.Statistics != nil)
	return snap, nil
}
