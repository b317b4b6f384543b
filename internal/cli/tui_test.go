package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mgrendahl/tackle/internal/dashboard"
	"github.com/mgrendahl/tackle/pkg/crm"
	"github.com/mgrendahl/tackle/pkg/grid"
)

func previewPrefs() crm.Preferences {
	return crm.Preferences{
		UserID: "static:local",
		VisibleWidgets: []grid.WidgetID{
			dashboard.WidgetQuickStats,
			dashboard.WidgetPipeline,
			dashboard.WidgetActivity,
		},
		Layout: grid.Layout{
			dashboard.WidgetQuickStats: {X: 0, Y: 0, W: 12, H: 2},
			dashboard.WidgetPipeline:   {X: 0, Y: 2, W: 8, H: 4},
			dashboard.WidgetActivity:   {X: 8, Y: 2, W: 4, H: 4},
		},
	}
}

func keyPress(m layoutModel, key string) layoutModel {
	var msg tea.KeyMsg
	switch key {
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(layoutModel)
}

func TestLayoutModelNavigation(t *testing.T) {
	m := newLayoutModel("static:local", previewPrefs())

	if m.cursor != 0 {
		t.Fatalf("initial cursor = %d, want 0", m.cursor)
	}

	m = keyPress(m, "j")
	if m.cursor != 1 {
		t.Errorf("cursor after j = %d, want 1", m.cursor)
	}

	m = keyPress(m, "j")
	m = keyPress(m, "j") // clamped at the last widget
	if m.cursor != 2 {
		t.Errorf("cursor after j past the end = %d, want 2", m.cursor)
	}

	m = keyPress(m, "k")
	if m.cursor != 1 {
		t.Errorf("cursor after k = %d, want 1", m.cursor)
	}

	m = keyPress(m, "k")
	m = keyPress(m, "k") // clamped at the first widget
	if m.cursor != 0 {
		t.Errorf("cursor after k past the start = %d, want 0", m.cursor)
	}
}

func TestLayoutModelCompact(t *testing.T) {
	prefs := previewPrefs()
	// Leave a gap so compaction has something to do.
	prefs.Layout[dashboard.WidgetPipeline] = grid.Placement{X: 0, Y: 8, W: 8, H: 4}
	prefs.Layout[dashboard.WidgetActivity] = grid.Placement{X: 8, Y: 8, W: 4, H: 4}

	m := newLayoutModel("static:local", prefs)
	before := m.layout.Rows()

	m = keyPress(m, "c")

	if !m.compacted {
		t.Error("compacted flag should be set after c")
	}
	if after := m.layout.Rows(); after >= before {
		t.Errorf("Rows() after compact = %d, want fewer than %d", after, before)
	}

	// The model works on a clone; the record it was built from keeps
	// its gap.
	if prefs.Layout[dashboard.WidgetPipeline].Y != 8 {
		t.Error("compacting the preview must not touch the source layout")
	}
}

func TestLayoutModelQuitKeys(t *testing.T) {
	for _, key := range []string{"q", "esc"} {
		m := newLayoutModel("static:local", previewPrefs())

		var msg tea.KeyMsg
		if key == "esc" {
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		} else {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		}
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Fatalf("%s should quit", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s returned %T, want tea.QuitMsg", key, cmd())
		}
	}
}

func TestLayoutModelView(t *testing.T) {
	m := newLayoutModel("static:local", previewPrefs())
	view := m.View()

	if !strings.Contains(view, "Dashboard Layout") {
		t.Error("view should contain the title")
	}
	for _, id := range []grid.WidgetID{dashboard.WidgetQuickStats, dashboard.WidgetPipeline} {
		w, _ := dashboard.LookupWidget(id)
		if !strings.Contains(view, w.Title) {
			t.Errorf("view should list widget %q", w.Title)
		}
	}
	if strings.Contains(view, "not saved") {
		t.Error("compacted notice should not show before pressing c")
	}

	m = keyPress(m, "c")
	if !strings.Contains(m.View(), "not saved") {
		t.Error("compacted notice should show after pressing c")
	}
}

func TestNewLayoutModelFiltersUnplaced(t *testing.T) {
	prefs := previewPrefs()
	prefs.VisibleWidgets = append(prefs.VisibleWidgets, dashboard.WidgetWinRate) // no placement

	m := newLayoutModel("static:local", prefs)
	if len(m.visible) != 3 {
		t.Errorf("visible widgets = %d, want 3 (unplaced widget dropped)", len(m.visible))
	}
}

func TestLayoutModelEmptyBoard(t *testing.T) {
	m := newLayoutModel("static:local", crm.Preferences{UserID: "static:local"})
	if !strings.Contains(m.View(), "empty board") {
		t.Error("view of an empty layout should say so")
	}
}
