// Package officemap provides the static occupancy grid of the office the
// robot drives around in.
//
// A Map is built once (from a Builder, a file or DefaultOffice) and is
// read-only afterwards, so it is safe for concurrent readers.
package officemap

import (
	"fmt"
	"math"
	"sort"
)

// DefaultCellSize is the edge length of one grid cell in meters.
const DefaultCellSize = 0.5

// CellType is the categorical label of a grid cell.
type CellType uint8

// Cell labels.
const (
	Free CellType = iota
	Wall
	Obstacle
	Door
	Furniture
	Charger
)

var cellSymbols = [...]byte{
	Free:      '.',
	Wall:      '#',
	Obstacle:  'O',
	Door:      'D',
	Furniture: 'F',
	Charger:   'C',
}

func (c CellType) String() string {
	switch c {
	case Free:
		return "free"
	case Wall:
		return "wall"
	case Obstacle:
		return "obstacle"
	case Door:
		return "door"
	case Furniture:
		return "furniture"
	case Charger:
		return "charger"
	default:
		return fmt.Sprintf("CellType(%d)", uint8(c))
	}
}

// Symbol returns the single-character form used in map files and ASCII output.
func (c CellType) Symbol() byte {
	if int(c) < len(cellSymbols) {
		return cellSymbols[c]
	}
	return '?'
}

// Walkable reports whether the robot may occupy a cell of this type.
func (c CellType) Walkable() bool {
	return c == Free || c == Door || c == Charger
}

// ParseSymbol is the inverse of Symbol.
func ParseSymbol(b byte) (CellType, bool) {
	for i, s := range cellSymbols {
		if s == b {
			return CellType(i), true
		}
	}
	return 0, false
}

// Cell is a grid coordinate. X is the column, Y the row.
type Cell struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Diagonal reports whether o is a diagonal neighbour of c.
func (c Cell) Diagonal(o Cell) bool {
	return c.X != o.X && c.Y != o.Y
}

// Distance is the straight-line distance between two cells, in cells.
func (c Cell) Distance(o Cell) float64 {
	return math.Hypot(float64(o.X-c.X), float64(o.Y-c.Y))
}

// Location is a named point of interest on the map.
type Location struct {
	Name string `json:"name" yaml:"name"`
	Cell Cell   `json:"cell" yaml:"cell"`
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// Map is an immutable occupancy grid.
type Map struct {
	width     int
	height    int
	cellSize  float64
	cells     []CellType
	locations map[string]Location
}

// Width returns the number of columns.
func (m *Map) Width() int { return m.width }

// Height returns the number of rows.
func (m *Map) Height() int { return m.height }

// CellSize returns the cell edge length in meters.
func (m *Map) CellSize() float64 { return m.cellSize }

// InBounds reports whether (x, y) lies on the grid.
func (m *Map) InBounds(x, y int) bool {
	return x >= 0 && x < m.width && y >= 0 && y < m.height
}

func (m *Map) at(x, y int) CellType {
	return m.cells[y*m.width+x]
}

func (m *Map) walkable(x, y int) bool {
	return m.InBounds(x, y) && m.at(x, y).Walkable()
}

func (m *Map) checkBounds(x, y int) error {
	if !m.InBounds(x, y) {
		return fmt.Errorf("%w: (%d,%d) outside %dx%d", ErrOutOfBounds, x, y, m.width, m.height)
	}
	return nil
}

// CellType returns the label of cell (x, y).
func (m *Map) CellType(x, y int) (CellType, error) {
	if err := m.checkBounds(x, y); err != nil {
		return 0, err
	}
	return m.at(x, y), nil
}

// IsWalkable reports whether cell (x, y) can be occupied.
func (m *Map) IsWalkable(x, y int) (bool, error) {
	if err := m.checkBounds(x, y); err != nil {
		return false, err
	}
	return m.at(x, y).Walkable(), nil
}

// neighborOffsets is the fixed expansion order: orthogonal first, then diagonal.
var neighborOffsets = [8][2]int{
	{0, -1}, {1, 0}, {0, 1}, {-1, 0},
	{1, -1}, {1, 1}, {-1, 1}, {-1, -1},
}

// Neighbors returns the walkable 8-connected neighbours of (x, y).
// A diagonal step is only offered when both orthogonal cells it passes
// between are walkable, so paths never clip a wall corner.
func (m *Map) Neighbors(x, y int) ([]Cell, error) {
	if err := m.checkBounds(x, y); err != nil {
		return nil, err
	}
	return m.AppendNeighbors(nil, Cell{x, y}), nil
}

// AppendNeighbors appends the walkable neighbours of c to dst in a fixed
// order. c must be in bounds.
func (m *Map) AppendNeighbors(dst []Cell, c Cell) []Cell {
	for _, d := range neighborOffsets {
		nx, ny := c.X+d[0], c.Y+d[1]
		if !m.walkable(nx, ny) {
			continue
		}
		if d[0] != 0 && d[1] != 0 && !(m.walkable(c.X+d[0], c.Y) && m.walkable(c.X, c.Y+d[1])) {
			continue
		}
		dst = append(dst, Cell{nx, ny})
	}
	return dst
}

// Location looks up a named location.
func (m *Map) Location(name string) (Location, error) {
	loc, ok := m.locations[name]
	if !ok {
		return Location{}, fmt.Errorf("%w: %q", ErrUnknownLocation, name)
	}
	return loc, nil
}

// Locations returns all named locations sorted by name.
func (m *Map) Locations() []Location {
	out := make([]Location, 0, len(m.locations))
	for _, loc := range m.locations {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// NearestWalkable returns the walkable cell closest to the point (x, y) in
// grid units. The point may lie off the grid. Ties are resolved in row-major
// scan order. ok is false only if no cell is walkable.
func (m *Map) NearestWalkable(x, y float64) (Cell, bool) {
	cx, cy := int(math.Round(x)), int(math.Round(y))
	if m.walkable(cx, cy) {
		return Cell{cx, cy}, true
	}

	best, found := Cell{}, false
	bestD := math.Inf(1)
	for yy := 0; yy < m.height; yy++ {
		for xx := 0; xx < m.width; xx++ {
			if !m.at(xx, yy).Walkable() {
				continue
			}
			if d := math.Hypot(float64(xx)-x, float64(yy)-y); d < bestD {
				best, bestD, found = Cell{xx, yy}, d, true
			}
		}
	}
	return best, found
}

// Count returns how many cells carry the given label.
func (m *Map) Count(t CellType) int {
	n := 0
	for _, c := range m.cells {
		if c == t {
			n++
		}
	}
	return n
}
