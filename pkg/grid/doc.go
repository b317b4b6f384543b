// Package grid implements the dashboard widget layout engine.
//
// Dashboards place widgets on a fixed 12-column grid with unbounded rows.
// Users drag, resize, and toggle widgets freely, which leaves the stored
// layout sparse: gaps where widgets were removed, overlaps from interrupted
// drags, stale entries for hidden widgets. This package turns any such
// layout back into a gapless, deterministic arrangement.
//
// # Core Types
//
//   - [Layout]: mapping of widget identifier to [Placement]
//   - [Placement]: grid rectangle (column, row, width, height)
//   - [Position]: bare grid coordinate, returned by [FindFreeSlot]
//
// # Operations
//
// [Compact] rebuilds a layout from the widgets the user has visible,
// packing them from the top-left with a greedy first-fit scan:
//
//	packed := grid.Compact(layout, []grid.WidgetID{"pipeline", "tasks"})
//
// [FindFreeSlot] answers where a newly added widget of a given size
// should land without disturbing existing placements:
//
//	pos := grid.FindFreeSlot(layout, 3, 2)
//
// Both are pure functions: no I/O, no shared state, same output for the
// same input. Compaction is intentionally greedy rather than optimal —
// saved dashboards depend on its exact placement order, so the heuristic
// must stay stable across releases.
//
// # Stored Form
//
// Layouts persist as one JSON object inside a user's preferences record.
// Early releases stored that object double-encoded as a JSON string, and
// stored values may be missing or malformed entirely. [DecodeLayout]
// absorbs all of that: it unwraps the legacy string form and yields an
// empty layout instead of an error for anything unreadable.
package grid
