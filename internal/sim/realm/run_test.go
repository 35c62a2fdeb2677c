package realm

import (
	"context"
	"errors"
	"testing"
	"time"
)

type chanObserver struct{ ticks chan StepResult }

func (o chanObserver) ObserveTick(r *Realm, tick uint64, res StepResult) {
	select {
	case o.ticks <- res:
	default:
	}
}

func TestRun_ResetsThenStepsWithInbox(t *testing.T) {
	obs := chanObserver{ticks: make(chan StepResult, 64)}
	r, w := newTestRealm(t, Config{NEnt: 4, NPop: 1, TickRateHz: 200}, WithObserver(obs))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	first := <-obs.ticks
	if len(first.Obs) != 1 {
		t.Fatalf("reset obs=%d want 1", len(first.Obs))
	}

	// Entity 1 is live; entity 99 never existed and must be dropped by the loop.
	r.Inbox() <- Decisions{1: {{Kind: noteKind}}, 99: {{Kind: noteKind}}}
	sentAt := r.Metrics().Tick

	deadline := time.After(4 * time.Second)
	for {
		select {
		case <-obs.ticks:
		case <-deadline:
			t.Fatalf("no tick applied the submitted decision")
		}
		if r.Metrics().Tick >= sentAt+2 {
			break
		}
	}
	r.Stop()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	applied := false
	for _, l := range w.log {
		if l == "act:1:NOTE" {
			applied = true
		}
	}
	if !applied {
		t.Fatalf("decision never applied: %v", w.log)
	}
	if r.Err() != nil {
		t.Fatalf("stale decision halted the realm: %v", r.Err())
	}
}

func TestRun_ContextCancel(t *testing.T) {
	r, _ := newTestRealm(t, Config{NEnt: 4, NPop: 1, TickRateHz: 50})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run: got %v want context.Canceled", err)
	}
}

func TestRun_StopTwice(t *testing.T) {
	r, _ := newTestRealm(t, Config{NEnt: 4, NPop: 1, TickRateHz: 50})
	r.Stop()
	r.Stop()
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run after Stop: %v", err)
	}
}

func TestMergeDecisions_AppendsInArrivalOrder(t *testing.T) {
	dst := Decisions{}
	mergeDecisions(dst, Decisions{1: {{Kind: noteKind}}})
	mergeDecisions(dst, Decisions{1: {{Kind: lateKind}}, 2: {}})
	if len(dst[1]) != 2 || dst[1][0].Kind != noteKind || dst[1][1].Kind != lateKind {
		t.Fatalf("merged=%v", dst)
	}
	if _, ok := dst[2]; !ok {
		t.Fatalf("empty decision should still register entity 2")
	}
}
