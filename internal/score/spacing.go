package score

import (
	"math"
)

// Spacing returns the horizontal width of each child:
// unit * (1 + log2(duration / shortest duration in the bar)).
func Spacing(children []Child, unit float64) []float64 {
	if len(children) == 0 {
		return nil
	}
	shortest := children[0].Duration.Duration()
	for _, c := range children[1:] {
		shortest = shortest.Min(c.Duration.Duration())
	}
	out := make([]float64, len(children))
	for i, c := range children {
		ratio := c.Duration.Duration().Div(shortest)
		out[i] = unit * (1 + math.Log2(ratio.Float64()))
	}
	return out
}

// BarWidth sums the spacing of one bar.
func BarWidth(children []Child, unit float64) float64 {
	total := 0.0
	for _, w := range Spacing(children, unit) {
		total += w
	}
	return total
}

// BreakLines greedily packs bars of the given widths into lines no wider
// than lineWidth and returns the number of bars on each line. A bar wider
// than the line gets a line of its own.
func BreakLines(widths []float64, lineWidth float64) []int {
	var lines []int
	count, used := 0, 0.0
	for _, w := range widths {
		if count > 0 && used+w > lineWidth {
			lines = append(lines, count)
			count, used = 0, 0
		}
		count++
		used += w
	}
	if count > 0 {
		lines = append(lines, count)
	}
	return lines
}

// Offsets returns the x position of every child given its widths.
func Offsets(widths []float64) []float64 {
	out := make([]float64, len(widths))
	x := 0.0
	for i, w := range widths {
		out[i] = x
		x += w
	}
	return out
}
