package crm

import (
	"encoding/json"
	"testing"

	"github.com/mgrendahl/tackle/pkg/grid"
)

func TestDefaultPreferences(t *testing.T) {
	p := DefaultPreferences("user-1")

	if p.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", p.UserID, "user-1")
	}
	if p.Theme != ThemeSystem {
		t.Errorf("Theme = %q, want %q", p.Theme, ThemeSystem)
	}
	if p.Layout == nil {
		t.Error("Layout is nil, want empty")
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestPreferencesValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Preferences)
		wantErr bool
	}{
		{
			name:   "defaults",
			mutate: func(p *Preferences) {},
		},
		{
			name: "valid widgets",
			mutate: func(p *Preferences) {
				p.VisibleWidgets = []grid.WidgetID{"pipeline", "leads_summary"}
				p.WidgetOrder = []grid.WidgetID{"pipeline", "leads_summary", "tasks"}
			},
		},
		{
			name:    "missing user id",
			mutate:  func(p *Preferences) { p.UserID = "" },
			wantErr: true,
		},
		{
			name:    "unknown theme",
			mutate:  func(p *Preferences) { p.Theme = "solarized" },
			wantErr: true,
		},
		{
			name: "bad visible widget id",
			mutate: func(p *Preferences) {
				p.VisibleWidgets = []grid.WidgetID{"Leads Summary"}
			},
			wantErr: true,
		},
		{
			name: "bad widget order id",
			mutate: func(p *Preferences) {
				p.WidgetOrder = []grid.WidgetID{"-dash"}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPreferences("user-1")
			tt.mutate(&p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPreferencesDecodeLegacyLayout(t *testing.T) {
	// A stored record from before the layout field became structured:
	// the layout arrives as a JSON string and must still load.
	data := `{
		"user_id": "user-1",
		"theme": "dark",
		"timezone": "Europe/Berlin",
		"visible_widgets": ["pipeline"],
		"widget_order": ["pipeline"],
		"layout": "{\"pipeline\":{\"x\":0,\"y\":0,\"w\":6,\"h\":3}}"
	}`

	var p Preferences
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	want := grid.Placement{X: 0, Y: 0, W: 6, H: 3}
	if got := p.Layout["pipeline"]; got != want {
		t.Errorf("layout entry = %v, want %v", got, want)
	}
	if p.Theme != ThemeDark {
		t.Errorf("Theme = %q, want %q", p.Theme, ThemeDark)
	}
}

func TestPreferencesDecodeCorruptLayout(t *testing.T) {
	data := `{"user_id":"user-1","theme":"light","layout":[1,2,3]}`

	var p Preferences
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if len(p.Layout) != 0 {
		t.Errorf("layout = %v, want empty", p.Layout)
	}
}
