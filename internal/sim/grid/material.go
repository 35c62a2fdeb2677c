package grid

type Material uint8

const (
	Lava Material = iota
	Water
	Grass
	Scrub
	Forest
	Stone
)

var materialNames = [...]string{"LAVA", "WATER", "GRASS", "SCRUB", "FOREST", "STONE"}

func (m Material) String() string {
	if int(m) < len(materialNames) {
		return materialNames[m]
	}
	return "UNKNOWN"
}

// Walkable reports whether an entity may stand on the tile. Lava is walkable
// and lethal.
func (m Material) Walkable() bool {
	switch m {
	case Water, Stone:
		return false
	}
	return true
}
