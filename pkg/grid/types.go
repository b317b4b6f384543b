package grid

// =============================================================================
// Constants
// =============================================================================

const (
	// Columns is the fixed width of the dashboard grid.
	Columns = 12

	// maxScanRows bounds the first-fit search. A widget that cannot be
	// fitted above this row is parked below the layout instead of
	// extending the scan forever.
	maxScanRows = 100

	// maxRows caps occupancy growth when marking footprints, so a corrupt
	// stored row offset cannot balloon allocation.
	maxRows = 1024
)

// =============================================================================
// WidgetID - Widget Identity
// =============================================================================

// WidgetID identifies a dashboard widget (e.g. "pipeline_overview").
type WidgetID string

// =============================================================================
// Placement - Grid Rectangle
// =============================================================================

// Placement is a widget's rectangle on the grid. X is the column offset,
// Y the row offset, both 0-based. W and H are the size in columns and rows.
//
// A well-formed placement satisfies X ≥ 0, Y ≥ 0, W ≥ 1, H ≥ 1 and
// X+W ≤ [Columns]. Stored layouts are not trusted to be well-formed; the
// engine tolerates violations rather than rejecting them.
type Placement struct {
	X int `json:"x" bson:"x"`
	Y int `json:"y" bson:"y"`
	W int `json:"w" bson:"w"`
	H int `json:"h" bson:"h"`
}

// Right returns the first column past the placement.
func (p Placement) Right() int { return p.X + p.W }

// Bottom returns the first row past the placement.
func (p Placement) Bottom() int { return p.Y + p.H }

// Overlaps reports whether two placements share at least one cell.
func (p Placement) Overlaps(q Placement) bool {
	return p.X < q.Right() && q.X < p.Right() &&
		p.Y < q.Bottom() && q.Y < p.Bottom()
}

// =============================================================================
// Position - Bare Coordinate
// =============================================================================

// Position is a grid coordinate without a size, as returned by [FindFreeSlot].
type Position struct {
	X int `json:"x" bson:"x"`
	Y int `json:"y" bson:"y"`
}

// =============================================================================
// Layout - Placement Mapping
// =============================================================================

// Layout maps widget identifiers to their placements. Iteration order is
// irrelevant; every operation that depends on order sorts first.
type Layout map[WidgetID]Placement

// Clone returns an independent copy of the layout.
func (l Layout) Clone() Layout {
	if l == nil {
		return nil
	}
	out := make(Layout, len(l))
	for id, p := range l {
		out[id] = p
	}
	return out
}

// Rows returns the number of rows the layout spans: the largest bottom
// edge of any placement, or 0 for an empty layout.
func (l Layout) Rows() int {
	rows := 0
	for _, p := range l {
		if b := p.Bottom(); b > rows {
			rows = b
		}
	}
	return rows
}
