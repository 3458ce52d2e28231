package geometry

import "fmt"

// Region is an axis-aligned rectangle anchored at its bottom-left corner.
// The derived bounds are computed once by NewRegion and never change.
type Region struct {
	Width  float64
	Height float64
	Left   float64
	Right  float64
	Bottom float64
	Top    float64
}

// NewRegion builds the rectangle with origin (x, y) and the given size.
func NewRegion(x, y, width, height float64) Region {
	return Region{
		Width:  width,
		Height: height,
		Left:   x,
		Right:  x + width,
		Bottom: y,
		Top:    y + height,
	}
}

// String implements the fmt.Stringer interface.
func (r Region) String() string {
	return fmt.Sprintf("[%.2f,%.2f)x[%.2f,%.2f)", r.Left, r.Right, r.Bottom, r.Top)
}

// Contains reports whether p lies in the half-open box [Left,Right)x[Bottom,Top).
func (r Region) Contains(p Vector2D) bool {
	return p.X >= r.Left && p.X < r.Right && p.Y >= r.Bottom && p.Y < r.Top
}

// Wrap applies one toroidal correction per axis and returns the result.
// A point more than one full region size outside is under-wrapped.
func (r Region) Wrap(p Vector2D) Vector2D {
	return Vector2D{
		X: wrapAxis(p.X, r.Left, r.Right),
		Y: wrapAxis(p.Y, r.Bottom, r.Top),
	}
}

// RandomPoint maps two uniform samples in [0,1) to a point inside r.
func (r Region) RandomPoint(u, v float64) Vector2D {
	// u*Width can round up to Width for u just below 1
	return r.Wrap(Vector2D{
		X: r.Left + u*r.Width,
		Y: r.Bottom + v*r.Height,
	})
}

func wrapAxis(x, lo, hi float64) float64 {
	switch {
	case x < lo:
		x = hi - (lo - x)
		// hi - tiny rounds to hi
		if x >= hi {
			x = lo
		}
	case x >= hi:
		x = lo + (x - hi)
	}
	return x
}
