package grid

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/objects-time/neural-mmo/internal/sim/realm"
)

// Generate builds a map from layered simplex noise inside a lava ring.
// The same config always produces the same map.
func Generate(cfg Config) *Map {
	m := newMap(cfg)
	cfg = m.cfg

	elev := opensimplex.NewNormalized(cfg.Seed)
	veg := opensimplex.NewNormalized(cfg.Seed + 1)

	for r := 0; r < cfg.Rows; r++ {
		for c := 0; c < cfg.Cols; c++ {
			p := realm.Pos{R: r, C: c}
			if m.inBorder(p) {
				m.SetMaterial(p, Lava)
				continue
			}
			e := octaveNoise(elev, float64(r), float64(c), 3, 0.08, 0.5)
			v := octaveNoise(veg, float64(r), float64(c), 2, 0.15, 0.5)
			m.SetMaterial(p, terrainFor(e, v))
		}
	}
	m.clearSpawnRing()
	return m
}

func terrainFor(elev, veg float64) Material {
	switch {
	case elev < 0.28:
		return Water
	case elev > 0.78:
		return Stone
	case veg > 0.62:
		return Forest
	case veg < 0.3:
		return Scrub
	default:
		return Grass
	}
}

func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}

func (m *Map) inBorder(p realm.Pos) bool {
	b := m.cfg.Border
	return p.R < b || p.C < b || p.R >= m.cfg.Rows-b || p.C >= m.cfg.Cols-b
}

// spawnRing lists the cells just inside the lava ring, clockwise from the
// top-left corner.
func (m *Map) spawnRing() []realm.Pos {
	b := m.cfg.Border
	top, left := b, b
	bottom, right := m.cfg.Rows-b-1, m.cfg.Cols-b-1
	var ring []realm.Pos
	for c := left; c <= right; c++ {
		ring = append(ring, realm.Pos{R: top, C: c})
	}
	for r := top + 1; r <= bottom; r++ {
		ring = append(ring, realm.Pos{R: r, C: right})
	}
	for c := right - 1; c >= left && bottom > top; c-- {
		ring = append(ring, realm.Pos{R: bottom, C: c})
	}
	for r := bottom - 1; r > top && right > left; r-- {
		ring = append(ring, realm.Pos{R: r, C: left})
	}
	return ring
}

// clearSpawnRing turns obstacles on the spawn ring into grass so every
// spawn cell is reachable.
func (m *Map) clearSpawnRing() {
	for _, p := range m.spawnRing() {
		if !m.Material(p).Walkable() {
			m.SetMaterial(p, Grass)
		}
	}
}

// SpawnPos picks a cell on the spawn ring.
func (m *Map) SpawnPos(rng *rand.Rand) realm.Pos {
	ring := m.spawnRing()
	if len(ring) == 0 {
		return realm.Pos{R: m.cfg.Rows / 2, C: m.cfg.Cols / 2}
	}
	return ring[rng.Intn(len(ring))]
}
