package main

import (
	"log"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/objects-time/neural-mmo/internal/persistence/indexdb"
	"github.com/objects-time/neural-mmo/internal/transport/ws"
)

// openRuntimeIndex returns nil when indexing is off. The read model never
// feeds back into the simulation.
func openRuntimeIndex(realmDir string, disabled bool, logger *log.Logger) (*indexdb.SQLiteIndex, error) {
	if disabled {
		logger.Printf("index backend disabled")
		return nil, nil
	}
	return indexdb.OpenSQLite(filepath.Join(realmDir, "index", "realm.sqlite"))
}

func registerRuntimeGauges(reg prometheus.Registerer, wsSrv *ws.Server, idx *indexdb.SQLiteIndex) {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "nmmo_ws_controllers",
			Help: "Connected controller sessions.",
		}, func() float64 {
			c, _ := wsSrv.Clients()
			return float64(c)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "nmmo_ws_observers",
			Help: "Connected observer sessions.",
		}, func() float64 {
			_, o := wsSrv.Clients()
			return float64(o)
		}),
	)
	if idx == nil {
		return
	}
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "nmmo_index_queue_depth",
			Help: "Tick entries waiting for the sqlite writer.",
		}, func() float64 { return float64(idx.Stats().QueueDepth) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "nmmo_index_dropped_total",
			Help: "Tick entries dropped because the sqlite writer fell behind.",
		}, func() float64 { return float64(idx.Stats().DropTickTotal) }),
	)
}
