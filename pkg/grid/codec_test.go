package grid

import (
	"encoding/json"
	"maps"
	"testing"
)

func TestDecodeLayout(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Layout
	}{
		{
			name: "object form",
			data: `{"pipeline":{"x":0,"y":0,"w":6,"h":3},"tasks":{"x":6,"y":0,"w":6,"h":3}}`,
			want: Layout{
				"pipeline": {X: 0, Y: 0, W: 6, H: 3},
				"tasks":    {X: 6, Y: 0, W: 6, H: 3},
			},
		},
		{
			name: "legacy string form",
			data: `"{\"pipeline\":{\"x\":0,\"y\":0,\"w\":6,\"h\":3}}"`,
			want: Layout{
				"pipeline": {X: 0, Y: 0, W: 6, H: 3},
			},
		},
		{
			name: "empty input",
			data: "",
			want: Layout{},
		},
		{
			name: "whitespace only",
			data: "  \n\t ",
			want: Layout{},
		},
		{
			name: "null",
			data: `null`,
			want: Layout{},
		},
		{
			name: "array instead of object",
			data: `[{"x":0,"y":0,"w":3,"h":2}]`,
			want: Layout{},
		},
		{
			name: "number",
			data: `42`,
			want: Layout{},
		},
		{
			name: "string that is not json",
			data: `"hello world"`,
			want: Layout{},
		},
		{
			name: "string wrapping a non-object",
			data: `"[1,2,3]"`,
			want: Layout{},
		},
		{
			name: "truncated json",
			data: `{"pipeline":{"x":0`,
			want: Layout{},
		},
		{
			name: "malformed entries dropped",
			data: `{"good":{"x":0,"y":0,"w":3,"h":2},"bad":"nope","worse":[1,2]}`,
			want: Layout{
				"good": {X: 0, Y: 0, W: 3, H: 2},
			},
		},
		{
			name: "fractional coordinates dropped",
			data: `{"a":{"x":0.5,"y":0,"w":3,"h":2},"b":{"x":3,"y":0,"w":3,"h":2}}`,
			want: Layout{
				"b": {X: 3, Y: 0, W: 3, H: 2},
			},
		},
		{
			name: "unknown placement fields ignored",
			data: `{"a":{"x":1,"y":2,"w":3,"h":4,"minW":2,"static":true}}`,
			want: Layout{
				"a": {X: 1, Y: 2, W: 3, H: 4},
			},
		},
		{
			name: "empty object",
			data: `{}`,
			want: Layout{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeLayout([]byte(tt.data))
			if got == nil {
				t.Fatal("DecodeLayout() = nil, want empty layout")
			}
			if !maps.Equal(got, tt.want) {
				t.Errorf("DecodeLayout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLayoutUnmarshalJSON(t *testing.T) {
	// Layouts live inside larger records; the tolerant decoding must kick
	// in when the surrounding document is parsed.
	type record struct {
		Name   string `json:"name"`
		Layout Layout `json:"layout"`
	}

	tests := []struct {
		name string
		data string
		want Layout
	}{
		{
			name: "structured layout",
			data: `{"name":"u1","layout":{"a":{"x":0,"y":0,"w":3,"h":2}}}`,
			want: Layout{"a": {X: 0, Y: 0, W: 3, H: 2}},
		},
		{
			name: "legacy string layout",
			data: `{"name":"u1","layout":"{\"a\":{\"x\":0,\"y\":0,\"w\":3,\"h\":2}}"}`,
			want: Layout{"a": {X: 0, Y: 0, W: 3, H: 2}},
		},
		{
			name: "layout of wrong type",
			data: `{"name":"u1","layout":17}`,
			want: Layout{},
		},
		{
			name: "layout missing",
			data: `{"name":"u1"}`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec record
			if err := json.Unmarshal([]byte(tt.data), &rec); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if !maps.Equal(rec.Layout, tt.want) {
				t.Errorf("layout = %v, want %v", rec.Layout, tt.want)
			}
		})
	}
}

func TestLayoutRoundTrip(t *testing.T) {
	layout := Layout{
		"pipeline": {X: 0, Y: 0, W: 6, H: 3},
		"revenue":  {X: 6, Y: 0, W: 6, H: 3},
		"tasks":    {X: 0, Y: 3, W: 12, H: 2},
	}

	data, err := json.Marshal(layout)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	got := DecodeLayout(data)
	if !maps.Equal(got, layout) {
		t.Errorf("round trip = %v, want %v", got, layout)
	}
}
