package dashboard

import (
	"github.com/mgrendahl/tackle/pkg/crm"
	"github.com/mgrendahl/tackle/pkg/grid"
)

// =============================================================================
// Widget Catalog - The Widgets the Dashboard Knows
// =============================================================================

// Well-known widget identifiers.
const (
	WidgetQuickStats  = grid.WidgetID("quick_stats")
	WidgetPipeline    = grid.WidgetID("pipeline_overview")
	WidgetLeadFunnel  = grid.WidgetID("lead_funnel")
	WidgetActivity    = grid.WidgetID("recent_activity")
	WidgetTopAccounts = grid.WidgetID("top_accounts")
	WidgetWinRate     = grid.WidgetID("win_rate")
)

// Widget is one catalog entry: identity, display strings and the default
// size used when the widget is first placed.
type Widget struct {
	ID          grid.WidgetID `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	W           int           `json:"w"`
	H           int           `json:"h"`
}

// catalog lists every known widget in display order. Widgets not in
// DefaultVisible start hidden but still hold a slot in WidgetOrder.
var catalog = []Widget{
	{ID: WidgetQuickStats, Title: "Quick stats", Description: "Record totals across the workspace", W: 12, H: 2},
	{ID: WidgetPipeline, Title: "Pipeline overview", Description: "Deal count and value per stage", W: 6, H: 4},
	{ID: WidgetLeadFunnel, Title: "Lead funnel", Description: "Lead count per status", W: 6, H: 4},
	{ID: WidgetActivity, Title: "Recent activity", Description: "Latest changes across all records", W: 6, H: 5},
	{ID: WidgetTopAccounts, Title: "Top accounts", Description: "Accounts ranked by open deal value", W: 6, H: 5},
	{ID: WidgetWinRate, Title: "Win rate", Description: "Closed deal outcomes", W: 6, H: 3},
}

// Catalog returns every known widget in display order.
func Catalog() []Widget {
	out := make([]Widget, len(catalog))
	copy(out, catalog)
	return out
}

// LookupWidget returns the catalog entry for id.
func LookupWidget(id grid.WidgetID) (Widget, bool) {
	for _, w := range catalog {
		if w.ID == id {
			return w, true
		}
	}
	return Widget{}, false
}

// DefaultVisible returns the widgets switched on for a new dashboard.
func DefaultVisible() []grid.WidgetID {
	return []grid.WidgetID{
		WidgetQuickStats,
		WidgetPipeline,
		WidgetLeadFunnel,
		WidgetActivity,
		WidgetTopAccounts,
	}
}

// DefaultOrder returns every known widget in catalog order, the display
// sequence a new dashboard starts with.
func DefaultOrder() []grid.WidgetID {
	out := make([]grid.WidgetID, len(catalog))
	for i, w := range catalog {
		out[i] = w.ID
	}
	return out
}

// DefaultLayout returns the placements of a new dashboard: a full-width
// stats bar with two rows of aggregates below. The layout is already
// compact.
func DefaultLayout() grid.Layout {
	return grid.Layout{
		WidgetQuickStats:  {X: 0, Y: 0, W: 12, H: 2},
		WidgetPipeline:    {X: 0, Y: 2, W: 6, H: 4},
		WidgetLeadFunnel:  {X: 6, Y: 2, W: 6, H: 4},
		WidgetActivity:    {X: 0, Y: 6, W: 6, H: 5},
		WidgetTopAccounts: {X: 6, Y: 6, W: 6, H: 5},
	}
}

// seedDashboard fills the dashboard fields of a fresh preferences record.
func seedDashboard(p *crm.Preferences) {
	p.VisibleWidgets = DefaultVisible()
	p.WidgetOrder = DefaultOrder()
	p.Layout = DefaultLayout()
}
