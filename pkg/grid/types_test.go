package grid

import (
	"maps"
	"testing"
)

func TestPlacementEdges(t *testing.T) {
	p := Placement{X: 2, Y: 3, W: 4, H: 5}

	if got := p.Right(); got != 6 {
		t.Errorf("Right() = %v, want 6", got)
	}
	if got := p.Bottom(); got != 8 {
		t.Errorf("Bottom() = %v, want 8", got)
	}
}

func TestPlacementOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Placement
		want bool
	}{
		{
			name: "identical",
			a:    Placement{X: 0, Y: 0, W: 3, H: 2},
			b:    Placement{X: 0, Y: 0, W: 3, H: 2},
			want: true,
		},
		{
			name: "partial overlap",
			a:    Placement{X: 0, Y: 0, W: 4, H: 4},
			b:    Placement{X: 2, Y: 2, W: 4, H: 4},
			want: true,
		},
		{
			name: "side by side",
			a:    Placement{X: 0, Y: 0, W: 3, H: 2},
			b:    Placement{X: 3, Y: 0, W: 3, H: 2},
			want: false,
		},
		{
			name: "stacked",
			a:    Placement{X: 0, Y: 0, W: 3, H: 2},
			b:    Placement{X: 0, Y: 2, W: 3, H: 2},
			want: false,
		},
		{
			name: "diagonal corners touch",
			a:    Placement{X: 0, Y: 0, W: 2, H: 2},
			b:    Placement{X: 2, Y: 2, W: 2, H: 2},
			want: false,
		},
		{
			name: "contained",
			a:    Placement{X: 0, Y: 0, W: 6, H: 6},
			b:    Placement{X: 2, Y: 2, W: 1, H: 1},
			want: true,
		},
		{
			name: "zero size never overlaps",
			a:    Placement{X: 1, Y: 1, W: 0, H: 0},
			b:    Placement{X: 0, Y: 0, W: 4, H: 4},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			// Overlap is symmetric.
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("reverse Overlaps() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLayoutClone(t *testing.T) {
	layout := Layout{
		"a": {X: 0, Y: 0, W: 3, H: 2},
		"b": {X: 3, Y: 0, W: 3, H: 2},
	}

	clone := layout.Clone()
	if !maps.Equal(clone, layout) {
		t.Fatalf("Clone() = %v, want %v", clone, layout)
	}

	clone["a"] = Placement{X: 9, Y: 9, W: 1, H: 1}
	if layout["a"] != (Placement{X: 0, Y: 0, W: 3, H: 2}) {
		t.Error("mutating clone changed original")
	}
}

func TestLayoutCloneNil(t *testing.T) {
	var layout Layout
	if got := layout.Clone(); got != nil {
		t.Errorf("Clone() = %v, want nil", got)
	}
}

func TestLayoutRows(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
		want   int
	}{
		{
			name:   "empty",
			layout: Layout{},
			want:   0,
		},
		{
			name:   "single widget",
			layout: Layout{"a": {X: 0, Y: 0, W: 3, H: 2}},
			want:   2,
		},
		{
			name: "deepest widget wins",
			layout: Layout{
				"a": {X: 0, Y: 0, W: 3, H: 2},
				"b": {X: 0, Y: 5, W: 3, H: 4},
				"c": {X: 6, Y: 3, W: 3, H: 1},
			},
			want: 9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.layout.Rows(); got != tt.want {
				t.Errorf("Rows() = %v, want %v", got, tt.want)
			}
		})
	}
}
