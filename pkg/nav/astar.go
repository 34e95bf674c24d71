// Package nav plans routes across the office map and follows them.
//
// Plan is an A* search over the 8-connected walkable grid. Navigator wraps
// a planned Path with a rotate-then-drive follower that is advanced by
// explicit time steps.
package nav

import (
	"container/heap"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/teslashibe/go-reachy-office/pkg/officemap"
)

// Path is an immutable sequence of grid cells from start to goal, both
// included. Consecutive cells are 8-adjacent and every cell is walkable.
type Path struct {
	cells []officemap.Cell
}

// NewPath wraps cells without validation. Plan is the normal constructor.
func NewPath(cells []officemap.Cell) *Path {
	return &Path{cells: append([]officemap.Cell(nil), cells...)}
}

// Cells returns a copy of the cells.
func (p *Path) Cells() []officemap.Cell {
	return append([]officemap.Cell(nil), p.cells...)
}

// Len returns the number of cells.
func (p *Path) Len() int { return len(p.cells) }

// Start returns the first cell.
func (p *Path) Start() officemap.Cell { return p.cells[0] }

// Goal returns the last cell.
func (p *Path) Goal() officemap.Cell { return p.cells[len(p.cells)-1] }

// Length is the accumulated step distance in cells (1 per orthogonal step,
// √2 per diagonal step).
func (p *Path) Length() float64 {
	total := 0.0
	for i := 1; i < len(p.cells); i++ {
		total += stepCost(p.cells[i-1], p.cells[i])
	}
	return total
}

// Polyline returns the cell centres as vectors.
func (p *Path) Polyline() []r2.Vec {
	out := make([]r2.Vec, len(p.cells))
	for i, c := range p.cells {
		out[i] = cellVec(c)
	}
	return out
}

// Contains reports whether c is on the path.
func (p *Path) Contains(c officemap.Cell) bool {
	for _, pc := range p.cells {
		if pc == c {
			return true
		}
	}
	return false
}

func cellVec(c officemap.Cell) r2.Vec {
	return r2.Vec{X: float64(c.X), Y: float64(c.Y)}
}

func stepCost(a, b officemap.Cell) float64 {
	if a.Diagonal(b) {
		return math.Sqrt2
	}
	return 1
}

// openItem is an entry in the A* frontier. seq records push order so that
// equal f-scores pop first-in first-out.
type openItem struct {
	idx int
	f   float64
	seq uint64
}

type openSet []openItem

func (o openSet) Len() int { return len(o) }
func (o openSet) Less(i, j int) bool {
	if o[i].f != o[j].f {
		return o[i].f < o[j].f
	}
	return o[i].seq < o[j].seq
}
func (o openSet) Swap(i, j int) { o[i], o[j] = o[j], o[i] }
func (o *openSet) Push(x any)   { *o = append(*o, x.(openItem)) }
func (o *openSet) Pop() any {
	old := *o
	n := len(old)
	it := old[n-1]
	*o = old[:n-1]
	return it
}

// Plan finds a shortest 8-connected path from start to goal. Cost is
// accumulated step distance, the heuristic is straight-line distance, and
// ties are broken by insertion order so the result is deterministic.
func Plan(m *officemap.Map, start, goal officemap.Cell) (*Path, error) {
	if err := checkEndpoint(m, "start", start); err != nil {
		return nil, err
	}
	if err := checkEndpoint(m, "goal", goal); err != nil {
		return nil, err
	}
	if start == goal {
		return NewPath([]officemap.Cell{start}), nil
	}

	w, h := m.Width(), m.Height()
	index := func(c officemap.Cell) int { return c.Y*w + c.X }
	cellAt := func(i int) officemap.Cell { return officemap.Cell{X: i % w, Y: i / w} }

	g := make([]float64, w*h)
	for i := range g {
		g[i] = math.Inf(1)
	}
	cameFrom := make([]int, w*h)
	closed := make([]bool, w*h)

	var seq uint64
	open := &openSet{}
	push := func(i int, f float64) {
		heap.Push(open, openItem{idx: i, f: f, seq: seq})
		seq++
	}

	si, gi := index(start), index(goal)
	g[si] = 0
	cameFrom[si] = -1
	push(si, start.Distance(goal))

	var nbuf []officemap.Cell
	for open.Len() > 0 {
		cur := heap.Pop(open).(openItem)
		if closed[cur.idx] {
			continue
		}
		if cur.idx == gi {
			return NewPath(reconstruct(cameFrom, gi, cellAt)), nil
		}
		closed[cur.idx] = true

		c := cellAt(cur.idx)
		nbuf = m.AppendNeighbors(nbuf[:0], c)
		for _, n := range nbuf {
			ni := index(n)
			if closed[ni] {
				continue
			}
			tentative := g[cur.idx] + stepCost(c, n)
			if tentative < g[ni] {
				g[ni] = tentative
				cameFrom[ni] = cur.idx
				push(ni, tentative+n.Distance(goal))
			}
		}
	}
	return nil, fmt.Errorf("%w: %v unreachable from %v", ErrPathNotFound, goal, start)
}

func checkEndpoint(m *officemap.Map, what string, c officemap.Cell) error {
	ok, err := m.IsWalkable(c.X, c.Y)
	if err != nil {
		return fmt.Errorf("%w: %s %v: %w", ErrPathNotFound, what, c, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s %v is not walkable", ErrPathNotFound, what, c)
	}
	return nil
}

func reconstruct(cameFrom []int, goal int, cellAt func(int) officemap.Cell) []officemap.Cell {
	var rev []officemap.Cell
	for i := goal; i != -1; i = cameFrom[i] {
		rev = append(rev, cellAt(i))
	}
	out := make([]officemap.Cell, len(rev))
	for i, c := range rev {
		out[len(rev)-1-i] = c
	}
	return out
}
