package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/objects-time/neural-mmo/internal/metrics"
	persistlog "github.com/objects-time/neural-mmo/internal/persistence/log"
	"github.com/objects-time/neural-mmo/internal/protocol"
	"github.com/objects-time/neural-mmo/internal/sim/entity"
	"github.com/objects-time/neural-mmo/internal/sim/palette"
	"github.com/objects-time/neural-mmo/internal/sim/realm"
	"github.com/objects-time/neural-mmo/internal/sim/tuning"
	"github.com/objects-time/neural-mmo/internal/transport/ws"
)

// serverEnv holds deployment switches that are not simulation tuning.
type serverEnv struct {
	DeployEnv   string `env:"DEPLOY_ENV"`
	EnableAdmin string `env:"NMMO_ENABLE_ADMIN_HTTP"`
	EnablePprof bool   `env:"NMMO_ENABLE_PPROF_HTTP" envDefault:"false"`
	Index       string `env:"NMMO_INDEX_BACKEND" envDefault:"sqlite"`
	SegmentTick uint64 `env:"NMMO_JOURNAL_SEGMENT_TICKS" envDefault:"3000"`
}

func (e serverEnv) adminEnabled() bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(e.EnableAdmin)); err == nil {
		return v
	}
	switch strings.ToLower(strings.TrimSpace(e.DeployEnv)) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (defaults apply when empty)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite read model")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	var senv serverEnv
	if err := env.Parse(&senv); err != nil {
		logger.Fatalf("parse env: %v", err)
	}

	tune, err := tuning.Load(strings.TrimSpace(*tuningPath))
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}

	realmDir := filepath.Join(*dataDir, "realms", tune.RealmID)
	if err := os.MkdirAll(realmDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	idx, err := openRuntimeIndex(realmDir, *disableDB || senv.Index == "none", logger)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
	}
	if err := ensureFreshRealm(context.Background(), realmDir, idx); err != nil {
		logger.Fatalf("realm %s: %v (use a new realm_id or data dir)", tune.RealmID, err)
	}
	if idx != nil {
		if err := idx.UpsertConfig(tune); err != nil {
			logger.Printf("index backend: upsert config: %v", err)
		}
	}

	tickLog := persistlog.NewTickLogger(realmDir, senv.SegmentTick)
	defer tickLog.Close()

	wsSrv := ws.NewServer(protocol.WelcomeMsg{
		RealmID: tune.RealmID,
		WorldParams: protocol.WorldParams{
			TickRateHz: tune.TickRateHz,
			Rows:       tune.Map.Rows,
			Cols:       tune.Map.Cols,
			Stim:       tune.Stim,
			NEnt:       tune.NEnt,
			NPop:       tune.NPop,
			Seed:       tune.Seed,
		},
		Actions: actionRefs(),
		Palette: palette.New(tune.NPop).Colors,
	}, log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds))

	var sink realm.TickLogger = tickLog
	if idx != nil {
		sink = multiTickLogger{a: tickLog, b: idx}
	}
	r, _, err := tune.NewRealm(
		realm.WithLogger(log.New(os.Stdout, "[realm] ", log.LstdFlags|log.Lmicroseconds)),
		realm.WithTickLogger(sink),
		realm.WithObserver(wsSrv),
	)
	if err != nil {
		logger.Fatalf("realm: %v", err)
	}
	wsSrv.Bind(r)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.NewRealmCollector(r),
	)
	registerRuntimeGauges(reg, wsSrv, idx)

	ctx, cancel := signalContext()
	defer cancel()

	realmDone := startRealm(ctx, cancel, r, logger)
	// Registered after the persistence closers, so it runs before them.
	defer func() {
		cancel()
		<-realmDone
	}()

	a := &app{
		realmID:    tune.RealmID,
		realm:      r,
		ws:         wsSrv,
		journalDir: persistlog.JournalDir(realmDir),
		registry:   reg,
		admin:      senv.adminEnabled(),
		pprof:      senv.EnablePprof,
		log:        logger,
	}
	if idx != nil {
		a.idx = idx
	}
	srv := &http.Server{
		Addr:              *addr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s realm=%s nent=%d npop=%d map=%dx%d", *addr, tune.RealmID, tune.NEnt, tune.NPop, tune.Map.Rows, tune.Map.Cols)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Printf("ListenAndServe: %v", err)
	}
}

func actionRefs() []protocol.ActionRef {
	names := entity.KindNames()
	out := make([]protocol.ActionRef, 0, len(names))
	for _, n := range names {
		k, _ := entity.Kind(n)
		out = append(out, protocol.ActionRef{Name: k.Name, Priority: k.Priority})
	}
	return out
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

type multiTickLogger struct {
	a realm.TickLogger
	b realm.TickLogger
}

func (m multiTickLogger) WriteTick(entry realm.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}
