package grid

import "slices"

// =============================================================================
// Compact - Greedy Top-Left Re-Packing
// =============================================================================

// Compact rebuilds layout so that the widgets in visible fill the grid
// from the top-left without gaps or overlaps.
//
// Widgets absent from visible are dropped. Identifiers in visible with no
// entry in layout are skipped (there is no size to place). Every retained
// widget keeps its width and height; only positions change.
//
// Placement order is fixed by sorting the retained entries by row, then
// column, so the result does not depend on map iteration order. Ties keep
// the order of visible. Each widget then lands on the first free slot
// found scanning rows top to bottom and columns left to right.
//
// The input layout is not modified.
func Compact(layout Layout, visible []WidgetID) Layout {
	type entry struct {
		id WidgetID
		p  Placement
	}

	entries := make([]entry, 0, len(visible))
	seen := make(map[WidgetID]bool, len(visible))
	for _, id := range visible {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := layout[id]; ok {
			entries = append(entries, entry{id: id, p: p})
		}
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		if a.p.Y != b.p.Y {
			return a.p.Y - b.p.Y
		}
		return a.p.X - b.p.X
	})

	out := make(Layout, len(entries))
	var occ occupancy
	for _, e := range entries {
		pos := occ.firstFit(e.p.W, e.p.H, 2*len(out))
		occ.mark(pos.X, pos.Y, e.p.W, e.p.H)
		out[e.id] = Placement{X: pos.X, Y: pos.Y, W: e.p.W, H: e.p.H}
	}
	return out
}

// =============================================================================
// FindFreeSlot - Placement for a New Widget
// =============================================================================

// FindFreeSlot returns the first position where a new w×h widget fits
// among the placements already in layout, using the same top-to-bottom,
// left-to-right scan as [Compact]. Existing placements are not moved.
//
// The function is total: if no slot exists within the scan bound the
// widget is parked at column 0 on a row below the existing entries.
func FindFreeSlot(layout Layout, w, h int) Position {
	var occ occupancy
	for _, p := range layout {
		occ.mark(p.X, p.Y, p.W, p.H)
	}
	return occ.firstFit(w, h, 2*len(layout))
}

// =============================================================================
// Occupancy - Cell Bookkeeping
// =============================================================================

// occupancy tracks which grid cells are taken. Rows are created lazily as
// placements extend downward; rows past the current slice are free.
type occupancy struct {
	rows [][]bool // rows[y][x], each row Columns wide
}

// firstFit returns the first anchor where a w×h footprint fits, scanning
// rows top to bottom and columns left to right, bounded at maxScanRows.
// Past the bound it falls back to column 0 at fallbackRow, which callers
// derive from the number of entries so parked widgets land below the
// layout rather than on top of each other.
func (o *occupancy) firstFit(w, h, fallbackRow int) Position {
	for y := 0; y < maxScanRows; y++ {
		for x := 0; x+w <= Columns; x++ {
			if o.free(x, y, w, h) {
				return Position{X: x, Y: y}
			}
		}
	}
	return Position{X: 0, Y: fallbackRow}
}

// free reports whether the w×h footprint anchored at (x, y) is entirely
// unoccupied.
func (o *occupancy) free(x, y, w, h int) bool {
	for r := y; r < y+h; r++ {
		if r >= len(o.rows) {
			return true // everything below the allocated rows is free
		}
		for c := x; c < x+w; c++ {
			if o.rows[r][c] {
				return false
			}
		}
	}
	return true
}

// mark fills the footprint anchored at (x, y). The footprint is clamped
// to the grid's columns and to maxRows so malformed placements cannot
// index out of range or force huge allocations.
func (o *occupancy) mark(x, y, w, h int) {
	top := max(y, 0)
	bottom := min(y+h, maxRows)
	left := max(x, 0)
	right := min(x+w, Columns)
	if bottom <= top || right <= left {
		return
	}
	for len(o.rows) < bottom {
		o.rows = append(o.rows, make([]bool, Columns))
	}
	for r := top; r < bottom; r++ {
		for c := left; c < right; c++ {
			o.rows[r][c] = true
		}
	}
}
