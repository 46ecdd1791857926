package geometry

import (
	"testing"

	"github.com/flamel/flamel/internal/flamechart"
	"github.com/flamel/flamel/internal/testutil"
)

func TestProject(t *testing.T) {
	p := NewProjector()

	tests := []struct {
		name    string
		frame   flamechart.Frame
		ref     Window
		output  Projection
		emitted bool
	}{
		{
			name:    "global window",
			frame:   flamechart.Frame{Name: "a", Depth: 2, Start: 100, End: 150},
			ref:     Window{Start: 0, Total: 200},
			output:  Projection{Left: 0.5, Width: 0.25, Bottom: 40},
			emitted: true,
		},
		{
			name:    "zoomed window fills the width",
			frame:   flamechart.Frame{Name: "a", Depth: 2, Start: 100, End: 150},
			ref:     Window{Start: 100, Total: 50},
			output:  Projection{Left: 0, Width: 1, Bottom: 40},
			emitted: true,
		},
		{
			name:    "sliver below the emission threshold",
			frame:   flamechart.Frame{Name: "a", Depth: 1, Start: 0, End: 1},
			ref:     Window{Start: 0, Total: 10000},
			output:  Projection{Left: 0, Width: 0.0001, Bottom: 20},
			emitted: false,
		},
		{
			name:    "exactly at the emission threshold",
			frame:   flamechart.Frame{Name: "a", Depth: 0, Start: 0, End: 8},
			ref:     Window{Start: 0, Total: 10000},
			output:  Projection{Left: 0, Width: 0.0008, Bottom: 0},
			emitted: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			pr, emitted := p.Project(test.frame, test.ref)
			if diff := testutil.Diff(pr, test.output); diff != "" {
				t.Fatalf("Result mismatch: got - want +\n%s", diff)
			}
			if emitted != test.emitted {
				t.Fatalf("emitted: got %t, want %t", emitted, test.emitted)
			}
		})
	}
}

func TestChartHeight(t *testing.T) {
	p := NewProjector()
	if got := p.ChartHeight(0); got != 20 {
		t.Fatalf("height for a root-only chart: got %d", got)
	}
	if got := p.ChartHeight(3); got != 80 {
		t.Fatalf("height for four rows: got %d", got)
	}
}
