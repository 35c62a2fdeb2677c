// Package grid is the tile map entities live on. It tracks per-tile
// occupancy, builds stimulus windows, and regrows harvested resources.
package grid

import (
	"encoding/json"
	"sort"

	"github.com/objects-time/neural-mmo/internal/sim/realm"
)

type Config struct {
	Rows int
	Cols int
	// Border is the width of the lava ring around the playable area.
	Border int
	Seed   int64
	// RegrowTicks is how long a harvested forest stays scrub.
	RegrowTicks int
}

func (c *Config) applyDefaults() {
	if c.Rows <= 0 {
		c.Rows = 64
	}
	if c.Cols <= 0 {
		c.Cols = 64
	}
	if c.Border <= 0 {
		c.Border = 8
	}
	if 2*c.Border >= c.Rows || 2*c.Border >= c.Cols {
		c.Border = min(c.Rows, c.Cols) / 4
	}
	if c.RegrowTicks <= 0 {
		c.RegrowTicks = 100
	}
}

// Tile keeps non-owning references to the entities standing on it. The realm
// owns the entities.
type Tile struct {
	Mat    Material
	counts map[int]int
	ents   map[realm.EntityID]realm.Entity
}

// Counts returns live entities on the tile per population. Absent means zero.
func (t *Tile) Counts() map[int]int {
	out := make(map[int]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

func (t *Tile) Occupied() bool { return len(t.ents) > 0 }

type regrowth struct {
	idx int
	at  uint64
}

type Map struct {
	cfg   Config
	tiles []Tile
	tick  uint64

	// pending is ordered by due tick since every entry uses the same delay.
	pending []regrowth
}

func newMap(cfg Config) *Map {
	cfg.applyDefaults()
	return &Map{
		cfg:   cfg,
		tiles: make([]Tile, cfg.Rows*cfg.Cols),
	}
}

func (m *Map) Config() Config { return m.cfg }
func (m *Map) Rows() int      { return m.cfg.Rows }
func (m *Map) Cols() int      { return m.cfg.Cols }

func (m *Map) InBounds(p realm.Pos) bool {
	return p.R >= 0 && p.R < m.cfg.Rows && p.C >= 0 && p.C < m.cfg.Cols
}

func (m *Map) index(p realm.Pos) int { return p.R*m.cfg.Cols + p.C }

// Tile returns nil outside the map.
func (m *Map) Tile(p realm.Pos) *Tile {
	if !m.InBounds(p) {
		return nil
	}
	return &m.tiles[m.index(p)]
}

// Material reports out-of-bounds cells as lava.
func (m *Map) Material(p realm.Pos) Material {
	if t := m.Tile(p); t != nil {
		return t.Mat
	}
	return Lava
}

func (m *Map) SetMaterial(p realm.Pos, mat Material) {
	if t := m.Tile(p); t != nil {
		t.Mat = mat
	}
}

func (m *Map) Walkable(p realm.Pos) bool {
	return m.InBounds(p) && m.Material(p).Walkable()
}

// AddEntity registers e on the tile at its current position.
func (m *Map) AddEntity(e realm.Entity) {
	t := m.Tile(e.Pos())
	if t == nil {
		return
	}
	if t.ents == nil {
		t.ents = map[realm.EntityID]realm.Entity{}
		t.counts = map[int]int{}
	}
	if _, ok := t.ents[e.ID()]; ok {
		return
	}
	t.ents[e.ID()] = e
	t.counts[e.Population()]++
}

// RemoveEntity undoes AddEntity at e's current position.
func (m *Map) RemoveEntity(e realm.Entity) {
	t := m.Tile(e.Pos())
	if t == nil {
		return
	}
	if _, ok := t.ents[e.ID()]; !ok {
		return
	}
	delete(t.ents, e.ID())
	pop := e.Population()
	if t.counts[pop] <= 1 {
		delete(t.counts, pop)
	} else {
		t.counts[pop]--
	}
	if len(t.ents) == 0 {
		t.ents = nil
		t.counts = nil
	}
}

// EntitiesAt returns the occupants of p ordered by id.
func (m *Map) EntitiesAt(p realm.Pos) []realm.Entity {
	t := m.Tile(p)
	if t == nil || len(t.ents) == 0 {
		return nil
	}
	out := make([]realm.Entity, 0, len(t.ents))
	for _, e := range t.ents {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Harvest strips a forest tile to scrub and schedules its regrowth.
func (m *Map) Harvest(p realm.Pos) bool {
	t := m.Tile(p)
	if t == nil || t.Mat != Forest {
		return false
	}
	t.Mat = Scrub
	m.pending = append(m.pending, regrowth{idx: m.index(p), at: m.tick + uint64(m.cfg.RegrowTicks)})
	return true
}

// Advance runs the environment's own per-tick update.
func (m *Map) Advance(tick uint64) {
	m.tick = tick
	n := 0
	for n < len(m.pending) && m.pending[n].at <= tick {
		t := &m.tiles[m.pending[n].idx]
		if t.Mat == Scrub {
			t.Mat = Forest
		}
		n++
	}
	m.pending = m.pending[n:]
}

func (m *Map) Tick() uint64 { return m.tick }

func (m *Map) MarshalJSON() ([]byte, error) {
	mats := make([]Material, len(m.tiles))
	for i := range m.tiles {
		mats[i] = m.tiles[i].Mat
	}
	return json.Marshal(struct {
		Rows  int    `json:"rows"`
		Cols  int    `json:"cols"`
		Tick  uint64 `json:"tick"`
		Tiles string `json:"tiles"`
	}{m.cfg.Rows, m.cfg.Cols, m.tick, encodeRLE(mats)})
}
