package grid

import (
	"encoding/json"

	"github.com/objects-time/neural-mmo/internal/sim/realm"
)

// Window is a square stimulus of side 2*Radius+1 centred on an entity.
// Cells outside the map read as lava.
type Window struct {
	Center realm.Pos
	Radius int
	Mats   []Material
	Ents   []Visible
}

type Visible struct {
	ID  realm.EntityID `json:"id"`
	Pop int            `json:"pop"`
	Pos realm.Pos      `json:"pos"`
}

func (w Window) Side() int { return 2*w.Radius + 1 }

// At returns the material at offset (dr, dc) from the center.
func (w Window) At(dr, dc int) Material {
	side := w.Side()
	return w.Mats[(dr+w.Radius)*side+(dc+w.Radius)]
}

func (m *Map) Stim(pos realm.Pos, radius int) any {
	return m.Window(pos, radius)
}

func (m *Map) Window(pos realm.Pos, radius int) Window {
	if radius < 0 {
		radius = 0
	}
	side := 2*radius + 1
	w := Window{
		Center: pos,
		Radius: radius,
		Mats:   make([]Material, 0, side*side),
	}
	for r := pos.R - radius; r <= pos.R+radius; r++ {
		for c := pos.C - radius; c <= pos.C+radius; c++ {
			p := realm.Pos{R: r, C: c}
			w.Mats = append(w.Mats, m.Material(p))
			for _, e := range m.EntitiesAt(p) {
				w.Ents = append(w.Ents, Visible{ID: e.ID(), Pop: e.Population(), Pos: p})
			}
		}
	}
	return w
}

func (w Window) MarshalJSON() ([]byte, error) {
	ents := w.Ents
	if ents == nil {
		ents = []Visible{}
	}
	return json.Marshal(struct {
		Center   realm.Pos `json:"center"`
		Radius   int       `json:"radius"`
		Encoding string    `json:"encoding"`
		Tiles    string    `json:"tiles"`
		Entities []Visible `json:"entities"`
	}{w.Center, w.Radius, "RLE", encodeRLE(w.Mats), ents})
}
