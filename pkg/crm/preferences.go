package crm

import (
	"time"

	"github.com/mgrendahl/tackle/pkg/errors"
	"github.com/mgrendahl/tackle/pkg/grid"
)

// =============================================================================
// Preferences - Per-User Settings
// =============================================================================

// Themes the UI understands.
const (
	ThemeSystem = "system"
	ThemeLight  = "light"
	ThemeDark   = "dark"
)

// Preferences is a user's settings record: cosmetics plus the dashboard
// state. VisibleWidgets is the ordered set of widgets switched on;
// WidgetOrder is the display sequence of every known widget, hidden ones
// included, so toggling a widget back on restores its old slot in lists.
//
// The whole record is saved wholesale, last write wins. Layout uses
// [grid.Layout]'s tolerant decoding, so a corrupt stored value loads as
// an empty dashboard instead of failing.
type Preferences struct {
	UserID         string          `json:"user_id" bson:"_id"`
	Theme          string          `json:"theme" bson:"theme"`
	Timezone       string          `json:"timezone" bson:"timezone"`
	VisibleWidgets []grid.WidgetID `json:"visible_widgets" bson:"visible_widgets"`
	WidgetOrder    []grid.WidgetID `json:"widget_order" bson:"widget_order"`
	Layout         grid.Layout     `json:"layout" bson:"layout"`
	UpdatedAt      time.Time       `json:"updated_at" bson:"updated_at"`
}

// DefaultPreferences returns the settings a user starts with. The
// dashboard fields stay empty here; the dashboard service seeds them
// from its widget catalog on first load.
func DefaultPreferences(userID string) Preferences {
	return Preferences{
		UserID:    userID,
		Theme:     ThemeSystem,
		Timezone:  "UTC",
		Layout:    grid.Layout{},
		UpdatedAt: time.Now().UTC(),
	}
}

// Validate checks the preferences record.
func (p Preferences) Validate() error {
	if p.UserID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "preferences need a user id")
	}
	switch p.Theme {
	case ThemeSystem, ThemeLight, ThemeDark:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown theme: %q", p.Theme)
	}
	for _, id := range p.VisibleWidgets {
		if err := errors.ValidateWidgetID(string(id)); err != nil {
			return err
		}
	}
	for _, id := range p.WidgetOrder {
		if err := errors.ValidateWidgetID(string(id)); err != nil {
			return err
		}
	}
	return nil
}
