package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/objects-time/neural-mmo/internal/persistence/indexdb"
	persistlog "github.com/objects-time/neural-mmo/internal/persistence/log"
	"github.com/objects-time/neural-mmo/internal/sim/realm"
)

// ensureFreshRealm refuses a realm dir that already holds a journal or
// indexed ticks. A realm always starts at tick 1.
func ensureFreshRealm(ctx context.Context, realmDir string, idx *indexdb.SQLiteIndex) error {
	if err := persistlog.EnsureFresh(realmDir); err != nil {
		return err
	}
	if idx == nil {
		return nil
	}
	last, err := idx.LastTick(ctx)
	if err != nil {
		return fmt.Errorf("index last tick: %w", err)
	}
	if last > 0 {
		return fmt.Errorf("%w: index holds ticks up to %d", persistlog.ErrJournalExists, last)
	}
	return nil
}

// startRealm runs r on its own goroutine. The returned channel closes once
// Run has returned, after which no tick log write is in flight.
func startRealm(ctx context.Context, cancel context.CancelFunc, r *realm.Realm, logger *log.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("realm stopped: %v", err)
		}
	}()
	return done
}
