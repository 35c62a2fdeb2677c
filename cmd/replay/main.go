package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	persistlog "github.com/objects-time/neural-mmo/internal/persistence/log"
	"github.com/objects-time/neural-mmo/internal/sim/entity"
	"github.com/objects-time/neural-mmo/internal/sim/replay"
	"github.com/objects-time/neural-mmo/internal/sim/tuning"
)

func main() {
	var (
		tuningPath = flag.String("tuning", "", "tuning.yaml the realm was started with (defaults when empty)")
		journalDir = flag.String("journal", "", "journal dir containing ticks-*.jsonl.zst")
		toTick     = flag.Uint64("to_tick", 0, "stop after tick (inclusive, optional)")
	)
	flag.Parse()

	if *journalDir == "" {
		fmt.Fprintln(os.Stderr, "missing -journal")
		os.Exit(2)
	}

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}
	r, _, err := tune.NewRealm()
	if err != nil {
		fmt.Fprintln(os.Stderr, "realm:", err)
		os.Exit(1)
	}

	files, err := persistlog.Segments(*journalDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list journal:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no journal segments found in", *journalDir)
		os.Exit(1)
	}

	v := replay.NewVerifier(r, entity.Kind)
	for _, path := range files {
		entries, err := persistlog.ReadTicks(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read:", err)
			os.Exit(1)
		}
		for _, e := range entries {
			if *toTick != 0 && e.Tick > *toTick {
				report(tune.RealmID, v.Checked(), r.Len())
				return
			}
			if err := v.Apply(e); err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", filepath.Base(path), err)
				os.Exit(1)
			}
		}
	}
	report(tune.RealmID, v.Checked(), r.Len())
}

func report(realmID string, checked uint64, alive int) {
	fmt.Printf("replay ok: realm=%s checked=%d ticks alive=%d\n", realmID, checked, alive)
}
