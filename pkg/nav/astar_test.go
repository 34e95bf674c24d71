package nav

import (
	"errors"
	"math"
	"testing"

	"github.com/teslashibe/go-reachy-office/pkg/officemap"
)

func mustMap(t *testing.T, rows ...string) *officemap.Map {
	t.Helper()
	m, err := officemap.FromRows(rows, 0, nil)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	return m
}

func scenarioMap(t *testing.T) *officemap.Map {
	return mustMap(t,
		".....",
		".....",
		"..#..",
		".....",
		".....",
	)
}

// checkPath asserts the structural path guarantees.
func checkPath(t *testing.T, m *officemap.Map, p *Path, start, goal officemap.Cell) {
	t.Helper()
	cells := p.Cells()
	if len(cells) == 0 {
		t.Fatal("empty path")
	}
	if cells[0] != start || cells[len(cells)-1] != goal {
		t.Fatalf("path runs %v -> %v, want %v -> %v", cells[0], cells[len(cells)-1], start, goal)
	}
	for i, c := range cells {
		if ok, err := m.IsWalkable(c.X, c.Y); err != nil || !ok {
			t.Fatalf("cell %d %v is not walkable", i, c)
		}
		if i == 0 {
			continue
		}
		prev := cells[i-1]
		dx, dy := c.X-prev.X, c.Y-prev.Y
		if dx < -1 || dx > 1 || dy < -1 || dy > 1 || (dx == 0 && dy == 0) {
			t.Fatalf("cells %v and %v are not adjacent", prev, c)
		}
		if dx != 0 && dy != 0 {
			a, _ := m.IsWalkable(prev.X+dx, prev.Y)
			b, _ := m.IsWalkable(prev.X, prev.Y+dy)
			if !a || !b {
				t.Fatalf("diagonal %v -> %v cuts a corner", prev, c)
			}
		}
	}
}

func TestPlanScenarioWallInCentre(t *testing.T) {
	m := scenarioMap(t)
	start, goal := officemap.Cell{X: 0, Y: 0}, officemap.Cell{X: 4, Y: 4}

	p, err := Plan(m, start, goal)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	checkPath(t, m, p, start, goal)
	if p.Contains(officemap.Cell{X: 2, Y: 2}) {
		t.Error("path crosses the wall at (2,2)")
	}
	if p.Len() > 8 {
		t.Errorf("path has %d cells, want at most 8", p.Len())
	}
	if want := 4 + 2*math.Sqrt2; math.Abs(p.Length()-want) > 1e-9 {
		t.Errorf("path length = %v, want %v", p.Length(), want)
	}
}

func TestPlanDeterministic(t *testing.T) {
	m := officemap.DefaultOffice()
	a, err := Plan(m, officemap.Cell{X: 1, Y: 10}, officemap.Cell{X: 17, Y: 8})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		b, err := Plan(m, officemap.Cell{X: 1, Y: 10}, officemap.Cell{X: 17, Y: 8})
		if err != nil {
			t.Fatal(err)
		}
		ac, bc := a.Cells(), b.Cells()
		if len(ac) != len(bc) {
			t.Fatalf("run %d: length %d vs %d", i, len(ac), len(bc))
		}
		for j := range ac {
			if ac[j] != bc[j] {
				t.Fatalf("run %d: paths differ at %d: %v vs %v", i, j, ac[j], bc[j])
			}
		}
	}
}

func TestPlanAllLocationPairs(t *testing.T) {
	m := officemap.DefaultOffice()
	locs := m.Locations()
	for _, a := range locs {
		for _, b := range locs {
			p, err := Plan(m, a.Cell, b.Cell)
			if err != nil {
				t.Fatalf("Plan %s -> %s: %v", a.Name, b.Name, err)
			}
			checkPath(t, m, p, a.Cell, b.Cell)
		}
	}
}

func TestPlanSameCell(t *testing.T) {
	m := scenarioMap(t)
	p, err := Plan(m, officemap.Cell{X: 1, Y: 1}, officemap.Cell{X: 1, Y: 1})
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 1 || p.Length() != 0 {
		t.Errorf("same-cell path = %v", p.Cells())
	}
}

func TestPlanDisconnected(t *testing.T) {
	m := mustMap(t,
		"..#..",
		"..#..",
		"..#..",
	)
	_, err := Plan(m, officemap.Cell{X: 0, Y: 0}, officemap.Cell{X: 4, Y: 2})
	if !errors.Is(err, ErrPathNotFound) {
		t.Errorf("err = %v, want ErrPathNotFound", err)
	}
}

func TestPlanNoDiagonalSqueeze(t *testing.T) {
	// The only link between the halves is a diagonal between two walls.
	m := mustMap(t,
		"..#",
		"#..",
	)
	_, err := Plan(m, officemap.Cell{X: 1, Y: 0}, officemap.Cell{X: 2, Y: 1})
	if err != nil {
		t.Fatalf("orthogonal route exists: %v", err)
	}
	m2 := mustMap(t,
		".#",
		"#.",
	)
	_, err = Plan(m2, officemap.Cell{X: 0, Y: 0}, officemap.Cell{X: 1, Y: 1})
	if !errors.Is(err, ErrPathNotFound) {
		t.Errorf("corner squeeze: err = %v, want ErrPathNotFound", err)
	}
}

func TestPlanBadEndpoints(t *testing.T) {
	m := scenarioMap(t)
	tests := []struct {
		name        string
		start, goal officemap.Cell
		outOfBounds bool
	}{
		{"start on wall", officemap.Cell{X: 2, Y: 2}, officemap.Cell{X: 0, Y: 0}, false},
		{"goal on wall", officemap.Cell{X: 0, Y: 0}, officemap.Cell{X: 2, Y: 2}, false},
		{"start off map", officemap.Cell{X: -1, Y: 0}, officemap.Cell{X: 0, Y: 0}, true},
		{"goal off map", officemap.Cell{X: 0, Y: 0}, officemap.Cell{X: 9, Y: 9}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Plan(m, tt.start, tt.goal)
			if !errors.Is(err, ErrPathNotFound) {
				t.Errorf("err = %v, want ErrPathNotFound", err)
			}
			if got := errors.Is(err, officemap.ErrOutOfBounds); got != tt.outOfBounds {
				t.Errorf("errors.Is(err, ErrOutOfBounds) = %v, want %v", got, tt.outOfBounds)
			}
		})
	}
}

func TestPlanOptimalOnOpenGrid(t *testing.T) {
	m := mustMap(t,
		"..........",
		"..........",
		"..........",
		"..........",
	)
	p, err := Plan(m, officemap.Cell{X: 0, Y: 0}, officemap.Cell{X: 9, Y: 3})
	if err != nil {
		t.Fatal(err)
	}
	// 3 diagonal steps + 6 straight steps.
	if want := 3*math.Sqrt2 + 6; math.Abs(p.Length()-want) > 1e-9 {
		t.Errorf("length = %v, want %v", p.Length(), want)
	}
}
