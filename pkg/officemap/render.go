package officemap

import (
	"fmt"
	"strings"
)

// ASCII renders the map with a column ruler and row numbers. marks
// overrides individual cells, e.g. '*' for a planned path or 'R' for the
// robot. Named locations are listed below the grid.
func (m *Map) ASCII(marks map[Cell]byte) string {
	var sb strings.Builder

	sb.WriteString("    ")
	for x := 0; x < m.width; x++ {
		sb.WriteByte(byte('0' + x%10))
	}
	sb.WriteByte('\n')

	for y := 0; y < m.height; y++ {
		fmt.Fprintf(&sb, "%3d ", y)
		for x := 0; x < m.width; x++ {
			if b, ok := marks[Cell{x, y}]; ok {
				sb.WriteByte(b)
				continue
			}
			sb.WriteByte(m.at(x, y).Symbol())
		}
		sb.WriteByte('\n')
	}

	for _, loc := range m.Locations() {
		fmt.Fprintf(&sb, "  %-14s %-8s %v\n", loc.Name, loc.Kind, loc.Cell)
	}
	return sb.String()
}

// String renders the map without marks.
func (m *Map) String() string {
	return m.ASCII(nil)
}
