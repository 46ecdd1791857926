package flamechart

import (
	"sort"
	"strings"

	"github.com/flamel/flamel/internal/errorutil"
)

// Delimiter separates frame names in a collapsed stack path.
const Delimiter = ";"

type (
	// Frame is one node of the call tree, spanning a half-open interval
	// [Start, End) in sample-time coordinates. The synthetic root carries an
	// empty name and always spans the whole chart at depth 0.
	Frame struct {
		Name  string `json:"name"`
		Depth int    `json:"depth"`
		Start uint64 `json:"start"`
		End   uint64 `json:"end"`
	}

	// FrameKey identifies a frame within one chart. The (start, end, depth)
	// triple is unique per build: sibling frames at a depth never overlap and
	// zero-width frames are never emitted.
	FrameKey struct {
		Start uint64 `json:"start"`
		End   uint64 `json:"end"`
		Depth int    `json:"depth"`
	}

	Chart struct {
		Frames   []Frame `json:"frames"`
		Total    uint64  `json:"total"`
		DepthMax int     `json:"depth_max"`
	}

	openKey struct {
		name  string
		depth int
	}
)

func (f Frame) Duration() uint64 {
	return f.End - f.Start
}

func (f Frame) Key() FrameKey {
	return FrameKey{Start: f.Start, End: f.End, Depth: f.Depth}
}

// Contains reports whether f's interval encloses o's.
func (f Frame) Contains(o Frame) bool {
	return f.Start <= o.Start && f.End >= o.End
}

// Disjoint reports whether f's interval does not intersect o's.
func (f Frame) Disjoint(o Frame) bool {
	return f.End <= o.Start || f.Start >= o.End
}

// DisplayName returns the name to show for the frame, substituting "all" for
// the synthetic root.
func (f Frame) DisplayName() string {
	if f.Name == "" {
		return "all"
	}
	return f.Name
}

// Build converts a collapsed stack-count map into a chart of non-overlapping,
// depth-keyed frame intervals.
//
// Paths are processed in lexicographic order, which keeps sibling subtrees
// contiguous so a single open/close scan accumulates each frame's span
// without materializing the tree: a frame stays open while consecutive paths
// share its prefix and closes at the first path that diverges above it.
// Zero-width frames are dropped at emission, never opened frames with samples
// elsewhere, so they can't reappear later with a different identity.
func Build(stacks map[string]uint64) (Chart, error) {
	paths := make([]string, 0, len(stacks))
	for path := range stacks {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var (
		chart Chart
		time  uint64
		last  []string
		open  = make(map[openKey]uint64)
	)

	closeFrame := func(name string, depth int, end uint64) {
		key := openKey{name: name, depth: depth}
		start, ok := open[key]
		if !ok {
			return
		}
		delete(open, key)
		if end <= start {
			return
		}
		chart.Frames = append(chart.Frames, Frame{
			Name:  name,
			Depth: depth,
			Start: start,
			End:   end,
		})
		if depth > chart.DepthMax {
			chart.DepthMax = depth
		}
	}

	for _, path := range paths {
		segments := append([]string{""}, strings.Split(path, Delimiter)...)
		lenSame := commonPrefixLen(last, segments)

		// Close deepest-first: a shallower frame may still be shared with the
		// next path and must stay open.
		for i := len(last) - 1; i >= lenSame; i-- {
			closeFrame(last[i], i, time)
		}
		for i := lenSame; i < len(segments); i++ {
			open[openKey{name: segments[i], depth: i}] = time
		}

		time += stacks[path]
		last = segments
	}

	for i := len(last) - 1; i >= 0; i-- {
		closeFrame(last[i], i, time)
	}

	if time == 0 {
		return Chart{}, errorutil.ErrNoData
	}
	chart.Total = time
	return chart, nil
}

func commonPrefixLen(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
