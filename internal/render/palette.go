package render

import "fmt"

// Palette selects one of the deterministic per-name color schemes.
type Palette string

const (
	PaletteWarm   Palette = "warm"
	PaletteCool   Palette = "cool"
	PaletteNeon   Palette = "neon"
	PalettePastel Palette = "pastel"
	PaletteMono   Palette = "mono"

	DefaultPalette = PaletteCool
)

// rootColor is the fixed indigo used for the synthetic root frame.
const rootColor = "rgb(99,102,241)"

// hashName is a 31-multiplier rolling hash over the raw bytes, so a name
// keeps its color across renders and across charts.
func hashName(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = h*31 + uint32(name[i])
	}
	return h
}

func (p Palette) hsl(hash uint32) (h, s, l float64) {
	switch p {
	case PaletteWarm:
		return float64(hash % 60), 0.70 + float64((hash>>8)%20)/100, 0.35 + float64((hash>>16)%10)/100
	case PaletteNeon:
		return float64(hash % 360), 0.90 + float64((hash>>8)%10)/100, 0.45 + float64((hash>>16)%10)/100
	case PalettePastel:
		return float64(hash % 360), 0.40 + float64((hash>>8)%20)/100, 0.55 + float64((hash>>16)%15)/100
	case PaletteMono:
		return 220, 0.15 + float64((hash>>8)%10)/100, 0.25 + float64((hash>>16)%30)/100
	default: // cool: cyan-blue-purple range
		return float64(hash%120) + 180, 0.65 + float64((hash>>8)%25)/100, 0.38 + float64((hash>>16)%12)/100
	}
}

// ColorForName returns the CSS color for a frame name under the palette.
// The empty name is the synthetic root and keeps its fixed color.
func ColorForName(name string, p Palette) string {
	if name == "" || name == "all" {
		return rootColor
	}
	r, g, b := hslToRGB(p.hsl(hashName(name)))
	return fmt.Sprintf("rgb(%d,%d,%d)", r, g, b)
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	c := (1 - abs(2*l-1)) * s
	x := c * (1 - abs(mod2(h/60)-1))
	m := l - c/2

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
	return uint8((r + m) * 255), uint8((g + m) * 255), uint8((b + m) * 255)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func mod2(v float64) float64 {
	for v >= 2 {
		v -= 2
	}
	return v
}
