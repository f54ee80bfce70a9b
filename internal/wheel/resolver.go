package wheel

import "math"

// boundaryEpsilon is measured in arcs; positions this close to a segment boundary are treated as
// lying exactly on it.
const boundaryEpsilon = 1e-9

// Resolver maps a terminal wheel angle to the segment under the pointer.
type Resolver struct {
	table *Table
}

func NewResolver(table *Table) *Resolver {
	return &Resolver{table: table}
}

// Index returns the winning index for terminalAngle. Any real input (negative, multi-turn) yields a
// value in [0, N).
func (r *Resolver) Index(terminalAngle float64) int {
	n := r.table.Count()
	if n <= 1 || math.IsNaN(terminalAngle) || math.IsInf(terminalAngle, 0) {
		return 0
	}

	pointerRelative := Normalize(terminalAngle + PointerAngle)
	pos := pointerRelative / r.table.Arc()
	if nearest := math.Round(pos); math.Abs(pos-nearest) < boundaryEpsilon {
		pos = nearest
	}

	idx := int(math.Floor(float64(n)-pos)) % n
	if idx < 0 {
		idx += n
	}
	return idx
}

// Resolve returns the winning segment for terminalAngle.
func (r *Resolver) Resolve(terminalAngle float64) Segment {
	return r.table.At(r.Index(terminalAngle))
}
