package geometry

import (
	"github.com/flamel/flamel/internal/flamechart"
)

const (
	// DefaultRowHeight is the vertical size of one chart row, in pixels.
	DefaultRowHeight = 20

	// DefaultMinWidth is the fraction of the chart width under which a frame
	// is skipped at emission time. Inherited as a rendering tunable, not a
	// layout invariant: narrow frames keep their intervals and reappear once
	// a zoom grows their relative width.
	DefaultMinWidth = 0.0008
)

type (
	// Window is the sample-time span currently normalized to the full chart
	// width.
	Window struct {
		Start uint64
		Total uint64
	}

	// Projection positions a frame inside the chart: Left and Width are
	// fractions of the window, Bottom is the pixel offset of the row.
	Projection struct {
		Left   float64 `json:"left"`
		Width  float64 `json:"width"`
		Bottom int     `json:"bottom"`
	}

	Projector struct {
		RowHeight int
		MinWidth  float64
	}
)

func NewProjector() Projector {
	return Projector{
		RowHeight: DefaultRowHeight,
		MinWidth:  DefaultMinWidth,
	}
}

// Project maps a frame to its geometry against the reference window. The
// second return value reports whether the frame is wide enough to emit.
// Callers must guarantee a non-zero window total (flamechart.Build rejects
// empty input with ErrNoData).
func (p Projector) Project(f flamechart.Frame, ref Window) (Projection, bool) {
	pr := Projection{
		Left:   float64(f.Start-ref.Start) / float64(ref.Total),
		Width:  float64(f.Duration()) / float64(ref.Total),
		Bottom: f.Depth * p.RowHeight,
	}
	return pr, pr.Width >= p.MinWidth
}

// ChartHeight returns the pixel height needed to fit every row.
func (p Projector) ChartHeight(depthMax int) int {
	return (depthMax + 1) * p.RowHeight
}
