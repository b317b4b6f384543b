package dashboard

import (
	"reflect"
	"slices"
	"testing"

	"github.com/mgrendahl/tackle/pkg/errors"
	"github.com/mgrendahl/tackle/pkg/grid"
)

func TestCatalogEntriesWellFormed(t *testing.T) {
	for _, w := range Catalog() {
		if err := errors.ValidateWidgetID(string(w.ID)); err != nil {
			t.Errorf("widget %q has an invalid id: %v", w.ID, err)
		}
		if w.Title == "" {
			t.Errorf("widget %q has no title", w.ID)
		}
		if w.W < 1 || w.W > grid.Columns {
			t.Errorf("widget %q width %d out of range", w.ID, w.W)
		}
		if w.H < 1 {
			t.Errorf("widget %q height %d out of range", w.ID, w.H)
		}
	}
}

func TestLookupWidget(t *testing.T) {
	w, ok := LookupWidget(WidgetPipeline)
	if !ok {
		t.Fatal("pipeline_overview should be in the catalog")
	}
	if w.W != 6 || w.H != 4 {
		t.Errorf("pipeline_overview default size = %dx%d, want 6x4", w.W, w.H)
	}

	if _, ok := LookupWidget("bogus"); ok {
		t.Error("bogus widget should not be in the catalog")
	}
}

func TestDefaultVisible(t *testing.T) {
	visible := DefaultVisible()
	for _, id := range visible {
		if _, ok := LookupWidget(id); !ok {
			t.Errorf("default-visible widget %q missing from catalog", id)
		}
	}

	if !slices.Contains(visible, WidgetQuickStats) {
		t.Error("quick_stats should be visible by default")
	}
	if slices.Contains(visible, WidgetWinRate) {
		t.Error("win_rate should start hidden")
	}
}

func TestDefaultOrderCoversCatalog(t *testing.T) {
	order := DefaultOrder()
	if len(order) != len(Catalog()) {
		t.Fatalf("order has %d entries, catalog has %d", len(order), len(Catalog()))
	}
	for _, w := range Catalog() {
		if !slices.Contains(order, w.ID) {
			t.Errorf("widget %q missing from default order", w.ID)
		}
	}
}

func TestDefaultLayoutIsCompact(t *testing.T) {
	layout := DefaultLayout()

	for _, id := range DefaultVisible() {
		if _, ok := layout[id]; !ok {
			t.Errorf("visible widget %q has no default placement", id)
		}
	}
	for id, p := range layout {
		if p.X < 0 || p.Right() > grid.Columns {
			t.Errorf("widget %q placement %+v leaves the grid", id, p)
		}
	}

	// The defaults are a fixed point: compacting them changes nothing.
	compacted := grid.Compact(layout, DefaultVisible())
	if !reflect.DeepEqual(compacted, layout) {
		t.Errorf("default layout is not compact:\n got %+v\nwant %+v", compacted, layout)
	}
}
