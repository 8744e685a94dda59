package render

import (
	"strings"

	"github.com/san-kum/isingsim/internal/lattice"
)

// Glyphs renders one character per site. Lattices wider than maxCols are
// cropped to the top-left corner; maxCols <= 0 disables cropping.
func Glyphs(v lattice.View, up, down string, maxCols int) string {
	n := v.Size()
	cols := n
	if maxCols > 0 && cols > maxCols {
		cols = maxCols
	}
	var b strings.Builder
	for i := 0; i < n && i < cols; i++ {
		for j := 0; j < cols; j++ {
			if v.Get(i, j) == lattice.Up {
				b.WriteString(up)
			} else {
				b.WriteString(down)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
