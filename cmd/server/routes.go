package main

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/objects-time/neural-mmo/internal/persistence/indexdb"
	persistlog "github.com/objects-time/neural-mmo/internal/persistence/log"
	"github.com/objects-time/neural-mmo/internal/sim/realm"
	"github.com/objects-time/neural-mmo/internal/transport/ws"
)

type metricsSource interface {
	Metrics() realm.Metrics
}

type indexReader interface {
	Stats() indexdb.Stats
	Lifetime(ctx context.Context, id realm.EntityID) (indexdb.Lifetime, error)
	Lifetimes(ctx context.Context, limit int) ([]indexdb.Lifetime, error)
}

type app struct {
	realmID    string
	realm      metricsSource
	ws         *ws.Server
	idx        indexReader
	journalDir string
	registry   *prometheus.Registry
	admin      bool
	pprof      bool
	log        *log.Logger
}

func (a *app) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		if a.realm.Metrics().Halted {
			http.Error(rw, "realm halted", http.StatusServiceUnavailable)
			return
		}
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/v1/ws", a.ws.Handler())

	if a.admin {
		// Local-only admin endpoints.
		mux.HandleFunc("GET /admin/v1/state", a.loopbackOnly(a.handleState))
		mux.HandleFunc("GET /admin/v1/journal", a.loopbackOnly(a.handleJournal))
		mux.HandleFunc("GET /admin/v1/lifetimes", a.loopbackOnly(a.handleLifetimes))
		mux.HandleFunc("GET /admin/v1/lifetimes/{id}", a.loopbackOnly(a.handleLifetime))
	} else {
		a.log.Printf("admin endpoints disabled (NMMO_ENABLE_ADMIN_HTTP=false)")
	}
	if a.pprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}

func (a *app) loopbackOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		h(rw, r)
	}
}

func (a *app) handleState(rw http.ResponseWriter, r *http.Request) {
	controllers, observers := a.ws.Clients()
	resp := struct {
		RealmID     string         `json:"realm_id"`
		Metrics     realm.Metrics  `json:"metrics"`
		Controllers int            `json:"controllers"`
		Observers   int            `json:"observers"`
		Index       *indexdb.Stats `json:"index,omitempty"`
	}{
		RealmID:     a.realmID,
		Metrics:     a.realm.Metrics(),
		Controllers: controllers,
		Observers:   observers,
	}
	if a.idx != nil {
		st := a.idx.Stats()
		resp.Index = &st
	}
	writeJSON(rw, http.StatusOK, resp)
}

func (a *app) handleJournal(rw http.ResponseWriter, r *http.Request) {
	segs, err := persistlog.Segments(a.journalDir)
	if err != nil {
		writeJSON(rw, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	names := make([]string, len(segs))
	for i, p := range segs {
		names[i] = filepath.Base(p)
	}
	writeJSON(rw, http.StatusOK, map[string]any{"segments": names})
}

func (a *app) handleLifetimes(rw http.ResponseWriter, r *http.Request) {
	if a.idx == nil {
		http.Error(rw, "index disabled", http.StatusNotFound)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	ls, err := a.idx.Lifetimes(r.Context(), limit)
	if err != nil {
		writeJSON(rw, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	if ls == nil {
		ls = []indexdb.Lifetime{}
	}
	writeJSON(rw, http.StatusOK, map[string]any{"lifetimes": ls})
}

func (a *app) handleLifetime(rw http.ResponseWriter, r *http.Request) {
	if a.idx == nil {
		http.Error(rw, "index disabled", http.StatusNotFound)
		return
	}
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		http.Error(rw, "bad entity id", http.StatusBadRequest)
		return
	}
	l, err := a.idx.Lifetime(r.Context(), realm.EntityID(id))
	switch {
	case indexdb.IsNotFound(err):
		http.Error(rw, "not found", http.StatusNotFound)
	case err != nil:
		writeJSON(rw, http.StatusInternalServerError, map[string]any{"error": err.Error()})
	default:
		writeJSON(rw, http.StatusOK, l)
	}
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
