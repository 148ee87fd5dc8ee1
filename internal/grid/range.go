package grid

// Range is the running min/max of pixel values across a set of grids.
type Range struct {
	Min   float64
	Max   float64
	valid bool
}

// Include returns the range widened to cover every value of g. The first
// grid folded in sets both bounds unconditionally.
func (r Range) Include(g Grid) Range {
	lo, hi := g.Bounds()
	if len(g.values) == 0 {
		return r
	}
	if !r.valid {
		return Range{Min: lo, Max: hi, valid: true}
	}
	if lo < r.Min {
		r.Min = lo
	}
	if hi > r.Max {
		r.Max = hi
	}
	return r
}

// Valid reports whether at least one non-empty grid has been folded in.
func (r Range) Valid() bool { return r.valid }

// Span is the dynamic range Max - Min.
func (r Range) Span() float64 { return r.Max - r.Min }

// RangeOf folds all grids into a single range.
func RangeOf(grids ...Grid) Range {
	var r Range
	for _, g := range grids {
		r = r.Include(g)
	}
	return r
}
