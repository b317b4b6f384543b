package dashboard

import (
	"context"
	stderrors "errors"
	"slices"
	"time"

	"github.com/mgrendahl/tackle/pkg/crm"
	"github.com/mgrendahl/tackle/pkg/errors"
	"github.com/mgrendahl/tackle/pkg/grid"
	"github.com/mgrendahl/tackle/pkg/observability"
	"github.com/mgrendahl/tackle/pkg/store"
)

// =============================================================================
// Layout Operations - Widget Toggles and Whole-Board Saves
// =============================================================================

// Preferences returns the user's preferences with the dashboard fields
// populated. A user who never saved preferences gets the default record;
// a record from before the dashboard existed gets the default widgets
// seeded. Either way the seeded result is persisted, so later edits
// start from the same board.
func (s *Service) Preferences(ctx context.Context, userID string) (crm.Preferences, error) {
	p, seeded, err := s.load(ctx, userID)
	if err != nil {
		return crm.Preferences{}, err
	}
	if seeded {
		if err := s.save(ctx, &p); err != nil {
			return crm.Preferences{}, err
		}
	}
	return p, nil
}

// SaveLayout validates, compacts and stores a whole-board edit. The
// visible list drives compaction: hidden widgets lose their placement
// and duplicates keep their first occurrence. A visible widget the
// client sent no placement for gets its catalog size and the first free
// slot, so the stored board never has a switched-on widget without a
// position.
func (s *Service) SaveLayout(ctx context.Context, userID string, layout grid.Layout, visible []grid.WidgetID) (crm.Preferences, error) {
	for _, id := range visible {
		if _, ok := LookupWidget(id); !ok {
			return crm.Preferences{}, errors.New(errors.ErrCodeInvalidWidget, "unknown widget: %q", id)
		}
	}

	p, _, err := s.load(ctx, userID)
	if err != nil {
		return crm.Preferences{}, err
	}

	kept := dedup(visible)
	compacted := grid.Compact(layout, kept)
	for _, id := range kept {
		if _, ok := compacted[id]; ok {
			continue
		}
		w, _ := LookupWidget(id)
		pos := grid.FindFreeSlot(compacted, w.W, w.H)
		compacted[id] = grid.Placement{X: pos.X, Y: pos.Y, W: w.W, H: w.H}
	}

	p.VisibleWidgets = kept
	p.Layout = compacted
	p.WidgetOrder = mergeOrder(p.WidgetOrder, kept)

	if err := s.save(ctx, &p); err != nil {
		return crm.Preferences{}, err
	}
	s.Logger.Debug("saved dashboard layout",
		"user", userID,
		"widgets", len(kept),
		"rows", p.Layout.Rows())
	return p, nil
}

// AddWidget switches a widget on, placing it at the first free slot with
// its catalog size. Adding a widget that is already visible is a no-op.
func (s *Service) AddWidget(ctx context.Context, userID string, id grid.WidgetID) (crm.Preferences, error) {
	w, ok := LookupWidget(id)
	if !ok {
		return crm.Preferences{}, errors.New(errors.ErrCodeInvalidWidget, "unknown widget: %q", id)
	}

	p, _, err := s.load(ctx, userID)
	if err != nil {
		return crm.Preferences{}, err
	}
	if slices.Contains(p.VisibleWidgets, id) {
		return p, nil
	}

	pos := grid.FindFreeSlot(p.Layout, w.W, w.H)
	layout := p.Layout.Clone()
	if layout == nil {
		layout = grid.Layout{}
	}
	layout[id] = grid.Placement{X: pos.X, Y: pos.Y, W: w.W, H: w.H}

	p.Layout = layout
	p.VisibleWidgets = append(slices.Clone(p.VisibleWidgets), id)
	if !slices.Contains(p.WidgetOrder, id) {
		p.WidgetOrder = append(slices.Clone(p.WidgetOrder), id)
	}

	if err := s.save(ctx, &p); err != nil {
		return crm.Preferences{}, err
	}
	s.Logger.Debug("added dashboard widget",
		"user", userID,
		"widget", id,
		"x", pos.X,
		"y", pos.Y)
	return p, nil
}

// RemoveWidget switches a widget off and compacts the remaining board.
// The widget keeps its slot in WidgetOrder, so toggling it back on
// restores its place in lists. Removing a widget that is not visible is
// a no-op.
func (s *Service) RemoveWidget(ctx context.Context, userID string, id grid.WidgetID) (crm.Preferences, error) {
	p, _, err := s.load(ctx, userID)
	if err != nil {
		return crm.Preferences{}, err
	}
	if !slices.Contains(p.VisibleWidgets, id) {
		return p, nil
	}

	visible := make([]grid.WidgetID, 0, len(p.VisibleWidgets)-1)
	for _, v := range p.VisibleWidgets {
		if v != id {
			visible = append(visible, v)
		}
	}

	p.VisibleWidgets = visible
	p.Layout = grid.Compact(p.Layout, visible)

	if err := s.save(ctx, &p); err != nil {
		return crm.Preferences{}, err
	}
	s.Logger.Debug("removed dashboard widget", "user", userID, "widget", id)
	return p, nil
}

// =============================================================================
// Helpers
// =============================================================================

// load fetches the user's preferences, falling back to the default
// record when none exist. Records with an empty WidgetOrder predate the
// dashboard and get the default widgets seeded. The second return
// reports whether anything was seeded.
func (s *Service) load(ctx context.Context, userID string) (crm.Preferences, bool, error) {
	start := time.Now()
	p, err := s.Stores.Preferences.Get(ctx, userID)
	observability.Store().OnQuery(ctx, "preferences", "get", time.Since(start), err)
	if stderrors.Is(err, store.ErrNotFound) {
		p = crm.DefaultPreferences(userID)
		err = nil
	}
	if err != nil {
		return crm.Preferences{}, false, errors.Wrap(errors.ErrCodeStorage, err, "load preferences for %s", userID)
	}

	if len(p.WidgetOrder) > 0 {
		return p, false, nil
	}
	seedDashboard(&p)
	return p, true, nil
}

// save stamps the record and persists it wholesale.
func (s *Service) save(ctx context.Context, p *crm.Preferences) error {
	p.UpdatedAt = time.Now().UTC()
	err := s.Stores.Preferences.Put(ctx, *p)
	observability.Store().OnWrite(ctx, "preferences", "put", err)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save preferences for %s", p.UserID)
	}
	return nil
}

// dedup drops repeated identifiers, keeping first occurrences.
func dedup(ids []grid.WidgetID) []grid.WidgetID {
	out := make([]grid.WidgetID, 0, len(ids))
	seen := make(map[grid.WidgetID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// mergeOrder appends identifiers missing from order, preserving both
// relative orders. Existing entries, hidden widgets included, keep
// their slot.
func mergeOrder(order, ids []grid.WidgetID) []grid.WidgetID {
	out := slices.Clone(order)
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
