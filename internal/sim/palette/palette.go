// Package palette assigns each population a stable display color.
package palette

import (
	"fmt"
	"math"
)

// A fixed head keeps the common small configurations readable; larger
// population counts fall back to golden-angle hues.
var named = []string{
	"#00bbbb", // neon cyan
	"#ff4488", // pink
	"#bbff00", // lime
	"#ffaa00", // orange
	"#8855ff", // violet
	"#00ff88", // mint
	"#ff2222", // red
	"#2288ff", // blue
}

type Palette struct {
	Colors []string
}

func New(n int) Palette {
	if n < 0 {
		n = 0
	}
	colors := make([]string, n)
	for i := 0; i < n; i++ {
		if i < len(named) {
			colors[i] = named[i]
			continue
		}
		colors[i] = hueHex(math.Mod(float64(i)*137.508, 360), 0.75, 0.95)
	}
	return Palette{Colors: colors}
}

// Color returns the color for pop, or a neutral gray when out of range.
func (p Palette) Color(pop int) string {
	if pop < 0 || pop >= len(p.Colors) {
		return "#888888"
	}
	return p.Colors[pop]
}

func hueHex(h, s, v float64) string {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	to := func(f float64) int { return int(math.Round((f + m) * 255)) }
	return fmt.Sprintf("#%02x%02x%02x", to(r), to(g), to(b))
}
