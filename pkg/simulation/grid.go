package simulation

import (
	"errors"
	"fmt"
	"math"

	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
)

var (
	// ErrOutsideRegion is returned by Grid.Build when an agent position lies
	// outside the half-open region the grid was built for.
	ErrOutsideRegion = errors.New("agent position outside region")

	// ErrRadiusExceedsCell means an interaction radius is larger than the
	// grid cell size, so the 3x3 neighbourhood scan would miss neighbours.
	ErrRadiusExceedsCell = errors.New("interaction radius exceeds grid cell size")
)

// NeighborVisitor receives every candidate found by Grid.ForNeighbors,
// together with rv = self.Pos - other.Pos. The querying agent itself is
// part of the candidates and must be filtered by the visitor.
type NeighborVisitor interface {
	VisitNeighbor(self, other *Agent, rv geometry.Vector2D)
}

// VisitorFunc adapts a plain function to NeighborVisitor.
type VisitorFunc func(self, other *Agent, rv geometry.Vector2D)

// VisitNeighbor calls f(self, other, rv).
func (f VisitorFunc) VisitNeighbor(self, other *Agent, rv geometry.Vector2D) {
	f(self, other, rv)
}

// Grid is a uniform bucket index over a Region, rebuilt from scratch every
// step. Cell size h must be at least the largest interaction radius: any
// agent closer than h then sits in one of the 3x3 cells around the query.
//
// The neighbourhood scan is clipped at the region edges and does not wrap,
// even though positions do. Agents near an edge miss neighbours across it.
type Grid struct {
	region  geometry.Region
	h       float64
	nx, ny  int
	buckets [][]*Agent
}

// NewGrid allocates an empty grid of ceil(width/h) x ceil(height/h) cells.
func NewGrid(region geometry.Region, h float64) (*Grid, error) {
	if !(h > 0) || math.IsInf(h, 0) {
		return nil, fmt.Errorf("%w: cell size must be positive and finite, got %v", ErrInvalidConfig, h)
	}
	if !(region.Width > 0) || !(region.Height > 0) {
		return nil, fmt.Errorf("%w: region %v is empty", ErrInvalidConfig, region)
	}
	nx := int(math.Ceil(region.Width / h))
	ny := int(math.Ceil(region.Height / h))
	return &Grid{
		region:  region,
		h:       h,
		nx:      nx,
		ny:      ny,
		buckets: make([][]*Agent, nx*ny),
	}, nil
}

// CellSize returns h.
func (g *Grid) CellSize() float64 { return g.h }

// Dims returns the number of cells along x and y.
func (g *Grid) Dims() (nx, ny int) { return g.nx, g.ny }

// Region returns the region covered by the grid.
func (g *Grid) Region() geometry.Region { return g.region }

// Build clears every bucket and inserts each active agent of the slice.
// The bucket slices keep their capacity between steps, so a steady-state
// rebuild does not allocate.
func (g *Grid) Build(agents []Agent) error {
	for i := range g.buckets {
		g.buckets[i] = g.buckets[i][:0]
	}

	for i := range agents {
		a := &agents[i]
		if !a.Active {
			continue
		}
		if !g.region.Contains(a.Pos) {
			return fmt.Errorf("%w: agent %d at %v not in %v", ErrOutsideRegion, i, a.Pos, g.region)
		}
		cx, cy := g.cellIndices(a.Pos)
		idx := cx + cy*g.nx
		g.buckets[idx] = append(g.buckets[idx], a)
	}
	return nil
}

// Bucket returns the agents stored in cell (cx, cy), or nil when the cell
// is outside the grid. The slice is owned by the grid.
func (g *Grid) Bucket(cx, cy int) []*Agent {
	if cx < 0 || cx >= g.nx || cy < 0 || cy >= g.ny {
		return nil
	}
	return g.buckets[cx+cy*g.nx]
}

// CellOf returns the cell coordinates of p.
func (g *Grid) CellOf(p geometry.Vector2D) (int, int) {
	return g.cellIndices(p)
}

func (g *Grid) cellIndices(p geometry.Vector2D) (int, int) {
	cx := int(math.Floor((p.X - g.region.Left) / g.h))
	cy := int(math.Floor((p.Y - g.region.Bottom) / g.h))
	// a position just below Right can round up to nx
	if cx == g.nx {
		cx = g.nx - 1
	}
	if cy == g.ny {
		cy = g.ny - 1
	}
	return cx, cy
}

// ForNeighbors scans the 3x3 block of cells around self and calls v for
// every candidate strictly closer than radius, self included. The radius is
// capped at the cell size because the block cannot cover anything farther.
func (g *Grid) ForNeighbors(self *Agent, radius float64, v NeighborVisitor) {
	cutoff := math.Min(radius, g.h)
	cutoffSq := cutoff * cutoff
	cx, cy := g.cellIndices(self.Pos)

	for i := cx - 1; i <= cx+1; i++ {
		if i < 0 || i >= g.nx {
			continue
		}
		for j := cy - 1; j <= cy+1; j++ {
			if j < 0 || j >= g.ny {
				continue
			}
			for _, other := range g.buckets[i+j*g.nx] {
				rv := self.Pos.Sub(other.Pos)
				if rv.LenSqr() >= cutoffSq {
					continue
				}
				v.VisitNeighbor(self, other, rv)
			}
		}
	}
}

// CheckCoverage fails when reach, the largest interaction radius, is
// larger than the cell size of g.
func CheckCoverage(reach float64, g *Grid) error {
	if reach > g.h {
		return fmt.Errorf("%w: radius %v > cell size %v", ErrRadiusExceedsCell, reach, g.h)
	}
	return nil
}
