package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/objects-time/neural-mmo/internal/persistence/indexdb"
	persistlog "github.com/objects-time/neural-mmo/internal/persistence/log"
	"github.com/objects-time/neural-mmo/internal/sim/realm"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "lifetimes":
			lifetimesCmd(os.Args[2:])
			return
		case "journal":
			journalCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	entries, err := os.ReadDir(filepath.Join(*dataDir, "realms"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		if e.IsDir() {
			fmt.Println(e.Name())
		}
	}
}

// stateCmd prints the live server state. Admin endpoints only answer on
// loopback.
func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	addr := fs.String("addr", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(strings.TrimSuffix(*addr, "/") + "/admin/v1/state")
	if err != nil {
		fmt.Fprintln(os.Stderr, "state:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		fmt.Fprintf(os.Stderr, "state: %s: %s\n", resp.Status, strings.TrimSpace(string(b)))
		os.Exit(1)
	}
	var st struct {
		RealmID     string        `json:"realm_id"`
		Metrics     realm.Metrics `json:"metrics"`
		Controllers int           `json:"controllers"`
		Observers   int           `json:"observers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Fprintln(os.Stderr, "decode:", err)
		os.Exit(1)
	}
	m := st.Metrics
	fmt.Printf("realm=%s tick=%d entities=%d/%d slot=%d admitted=%d refused=%d deaths=%d halted=%v controllers=%d observers=%d\n",
		st.RealmID, m.Tick, m.Entities, m.EntityCap, m.SlotSize, m.Admitted, m.Refused, m.Deaths, m.Halted, st.Controllers, st.Observers)
	pops := make([]int, 0, len(m.Populations))
	for p := range m.Populations {
		pops = append(pops, p)
	}
	sort.Ints(pops)
	for _, p := range pops {
		fmt.Printf("  pop=%d entities=%d\n", p, m.Populations[p])
	}
}

// lifetimesCmd reads the sqlite read model directly; run it while the
// server is stopped or against a copy.
func lifetimesCmd(args []string) {
	fs := flag.NewFlagSet("lifetimes", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	realmID := fs.String("realm", "realm_0", "realm id")
	limit := fs.Int("limit", 20, "max rows")
	_ = fs.Parse(args)

	path := filepath.Join(*dataDir, "realms", *realmID, "index", "realm.sqlite")
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "index:", err)
		os.Exit(1)
	}
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open index:", err)
		os.Exit(1)
	}
	defer idx.Close()

	ls, err := idx.Lifetimes(context.Background(), *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	for _, l := range ls {
		death := "alive"
		if l.DeathTick != nil {
			death = fmt.Sprintf("died=%d at=%d,%d lived=%d", *l.DeathTick, l.DeathPos.R, l.DeathPos.C, *l.DeathTick-l.SpawnTick)
		}
		fmt.Printf("%d\t%s\tpop=%d\tspawn=%d\t%s\n", l.ID, l.Name, l.Pop, l.SpawnTick, death)
	}
}

type journalSummary struct {
	Segments  int
	FirstTick uint64
	LastTick  uint64
	Admitted  int
	Refused   int
	Actions   int
	Deaths    map[int]int
}

func summarize(entries []realm.TickLogEntry, s *journalSummary) {
	for _, e := range entries {
		if s.FirstTick == 0 || e.Tick < s.FirstTick {
			s.FirstTick = e.Tick
		}
		if e.Tick > s.LastTick {
			s.LastTick = e.Tick
		}
		if e.Admitted != nil {
			s.Admitted++
		}
		if e.Refused {
			s.Refused++
		}
		s.Actions += len(e.Actions)
		for _, d := range e.Dones {
			s.Deaths[d.Serial.Pop]++
		}
	}
}

func journalCmd(args []string) {
	fs := flag.NewFlagSet("journal", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	realmID := fs.String("realm", "realm_0", "realm id")
	_ = fs.Parse(args)

	segs, err := persistlog.Segments(filepath.Join(*dataDir, "realms", *realmID, "ticks"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(1)
	}
	s := journalSummary{Segments: len(segs), Deaths: map[int]int{}}
	for _, p := range segs {
		es, err := persistlog.ReadTicks(p)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read:", err)
			os.Exit(1)
		}
		summarize(es, &s)
	}
	fmt.Printf("segments=%d ticks=%d..%d admitted=%d refused=%d actions=%d\n", s.Segments, s.FirstTick, s.LastTick, s.Admitted, s.Refused, s.Actions)
	pops := make([]int, 0, len(s.Deaths))
	for p := range s.Deaths {
		pops = append(pops, p)
	}
	sort.Ints(pops)
	for _, p := range pops {
		fmt.Printf("  pop=%d deaths=%d\n", p, s.Deaths[p])
	}
}
