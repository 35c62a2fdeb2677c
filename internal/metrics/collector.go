// Package metrics exposes realm runtime signals to Prometheus.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/objects-time/neural-mmo/internal/sim/realm"
)

type Source interface {
	Metrics() realm.Metrics
}

// RealmCollector reads the realm's published snapshot on every scrape, so it
// never touches realm state directly.
type RealmCollector struct {
	src Source

	tick       *prometheus.Desc
	entities   *prometheus.Desc
	population *prometheus.Desc
	entityCap  *prometheus.Desc
	slotSize   *prometheus.Desc
	admitted   *prometheus.Desc
	refused    *prometheus.Desc
	deaths     *prometheus.Desc
	inboxDepth *prometheus.Desc
	stepSec    *prometheus.Desc
	halted     *prometheus.Desc
}

func NewRealmCollector(src Source) *RealmCollector {
	labels := []string{"realm"}
	d := func(name, help string, extra ...string) *prometheus.Desc {
		return prometheus.NewDesc("nmmo_realm_"+name, help, append(labels, extra...), nil)
	}
	return &RealmCollector{
		src:        src,
		tick:       d("tick", "Current realm tick."),
		entities:   d("entities", "Live entities in the realm."),
		population: d("population_entities", "Live entities per population.", "pop"),
		entityCap:  d("entity_cap", "Maximum concurrent entities."),
		slotSize:   d("slot_size", "Maximum concurrent entities per population."),
		admitted:   d("admitted_total", "Entities admitted since start."),
		refused:    d("refused_total", "Admission attempts refused by the population ledger."),
		deaths:     d("deaths_total", "Entities culled since start."),
		inboxDepth: d("inbox_depth", "Decision submissions waiting for the realm loop."),
		stepSec:    d("step_seconds", "Last tick step duration in seconds."),
		halted:     d("halted", "1 once the realm stopped on a fatal error."),
	}
}

func (c *RealmCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.tick, c.entities, c.population, c.entityCap, c.slotSize,
		c.admitted, c.refused, c.deaths, c.inboxDepth, c.stepSec, c.halted,
	} {
		ch <- d
	}
}

func (c *RealmCollector) Collect(ch chan<- prometheus.Metric) {
	m := c.src.Metrics()
	id := m.RealmID
	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, append([]string{id}, labels...)...)
	}
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), id)
	}

	gauge(c.tick, float64(m.Tick))
	gauge(c.entities, float64(m.Entities))
	for pop, n := range m.Populations {
		gauge(c.population, float64(n), strconv.Itoa(pop))
	}
	gauge(c.entityCap, float64(m.EntityCap))
	gauge(c.slotSize, float64(m.SlotSize))
	counter(c.admitted, m.Admitted)
	counter(c.refused, m.Refused)
	counter(c.deaths, m.Deaths)
	gauge(c.inboxDepth, float64(m.InboxDepth))
	gauge(c.stepSec, m.StepMS/1000)
	halted := 0.0
	if m.Halted {
		halted = 1
	}
	gauge(c.halted, halted)
}
