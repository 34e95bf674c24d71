package officemap

import (
	"fmt"
	"maps"
)

// Builder assembles a Map. The zero value is not usable; call NewBuilder.
type Builder struct {
	m   *Map
	err error
}

// NewBuilder starts a width x height map with every cell Free.
func NewBuilder(width, height int) *Builder {
	b := &Builder{}
	if width <= 0 || height <= 0 {
		b.err = fmt.Errorf("%w: size %dx%d", ErrInvalidMap, width, height)
		return b
	}
	b.m = &Map{
		width:     width,
		height:    height,
		cellSize:  DefaultCellSize,
		cells:     make([]CellType, width*height),
		locations: make(map[string]Location),
	}
	return b
}

// CellSize overrides the cell edge length in meters.
func (b *Builder) CellSize(meters float64) *Builder {
	if b.err != nil {
		return b
	}
	if meters <= 0 {
		b.err = fmt.Errorf("%w: cell size %v", ErrInvalidMap, meters)
		return b
	}
	b.m.cellSize = meters
	return b
}

// Set labels one cell.
func (b *Builder) Set(x, y int, t CellType) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.m.checkBounds(x, y); err != nil {
		b.err = err
		return b
	}
	b.m.cells[y*b.m.width+x] = t
	return b
}

// FillRect labels the w x h rectangle whose top-left corner is (x, y).
// Parts outside the grid are ignored.
func (b *Builder) FillRect(x, y, w, h int, t CellType) *Builder {
	if b.err != nil {
		return b
	}
	for yy := max(y, 0); yy < min(y+h, b.m.height); yy++ {
		for xx := max(x, 0); xx < min(x+w, b.m.width); xx++ {
			b.m.cells[yy*b.m.width+xx] = t
		}
	}
	return b
}

// DrawRoom draws the walls of a w x h room with its top-left corner at
// (x, y). doors are offsets relative to (x, y) and are cut into the walls.
func (b *Builder) DrawRoom(x, y, w, h int, doors ...Cell) *Builder {
	b.FillRect(x, y, w, 1, Wall)
	b.FillRect(x, y+h-1, w, 1, Wall)
	b.FillRect(x, y, 1, h, Wall)
	b.FillRect(x+w-1, y, 1, h, Wall)
	for _, d := range doors {
		b.Set(x+d.X, y+d.Y, Door)
	}
	return b
}

// AddLocation registers a named location. The cell must be walkable once
// the map is built.
func (b *Builder) AddLocation(name string, x, y int, kind string) *Builder {
	if b.err != nil {
		return b
	}
	if name == "" {
		b.err = fmt.Errorf("%w: empty location name", ErrInvalidMap)
		return b
	}
	b.m.locations[name] = Location{Name: name, Cell: Cell{x, y}, Kind: kind}
	return b
}

// Build validates and returns the finished map. The builder must not be
// used afterwards.
func (b *Builder) Build() (*Map, error) {
	if b.err != nil {
		return nil, b.err
	}
	m := b.m
	b.m = nil
	b.err = fmt.Errorf("%w: builder already used", ErrInvalidMap)

	for name, loc := range m.locations {
		ok, err := m.IsWalkable(loc.Cell.X, loc.Cell.Y)
		if err != nil {
			return nil, fmt.Errorf("location %q: %w", name, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: location %q at %v is not walkable", ErrInvalidMap, name, loc.Cell)
		}
	}
	m.locations = maps.Clone(m.locations)
	return m, nil
}

// FromRows builds a map from rows of cell symbols (see CellType.Symbol).
// All rows must have the same length.
func FromRows(rows []string, cellSize float64, locations []Location) (*Map, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidMap)
	}
	b := NewBuilder(len(rows[0]), len(rows))
	if cellSize > 0 {
		b.CellSize(cellSize)
	}
	for y, row := range rows {
		if len(row) != len(rows[0]) {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidMap, y, len(row), len(rows[0]))
		}
		for x := 0; x < len(row); x++ {
			t, ok := ParseSymbol(row[x])
			if !ok {
				return nil, fmt.Errorf("%w: unknown symbol %q at (%d,%d)", ErrInvalidMap, row[x], x, y)
			}
			b.Set(x, y, t)
		}
	}
	for _, loc := range locations {
		b.AddLocation(loc.Name, loc.Cell.X, loc.Cell.Y, loc.Kind)
	}
	return b.Build()
}

// Rows returns the map as rows of cell symbols.
func (m *Map) Rows() []string {
	rows := make([]string, m.height)
	buf := make([]byte, m.width)
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			buf[x] = m.at(x, y).Symbol()
		}
		rows[y] = string(buf)
	}
	return rows
}
