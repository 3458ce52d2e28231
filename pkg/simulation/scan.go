package simulation

// ScanAll is the O(n²) counterpart of Grid.ForNeighbors: it visits every
// active agent of the flock strictly closer than radius to self, with the
// same rv convention. It is the reference the grid is checked against and
// is fine for very small flocks.
func ScanAll(flock []Agent, self *Agent, radius float64, v NeighborVisitor) {
	radiusSq := radius * radius
	for i := range flock {
		other := &flock[i]
		if !other.Active {
			continue
		}
		rv := self.Pos.Sub(other.Pos)
		if rv.LenSqr() >= radiusSq {
			continue
		}
		v.VisitNeighbor(self, other, rv)
	}
}
