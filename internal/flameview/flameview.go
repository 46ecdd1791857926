// Package flameview maintains the interactive state of one rendered chart:
// which frames are visible, where they sit after subtree hiding or zooming,
// and which ones a search highlights.
//
// The chart itself is immutable once built; everything mutable lives in a
// side table keyed by the frame's original (start, end, depth) triple. Every
// user interaction goes through Apply, which runs one action to completion
// before the next, so the view never sees a partially applied state.
package flameview

import (
	"regexp"
	"sort"

	"github.com/flamel/flamel/internal/flamechart"
	"github.com/flamel/flamel/internal/geometry"
)

type (
	// Span names a subtree root in original sample coordinates. Any frame
	// whose interval lies within the span at the same depth or below is
	// suppressed.
	Span struct {
		Start uint64 `json:"start"`
		End   uint64 `json:"end"`
		Depth int    `json:"depth"`
	}

	// FrameState carries the transient, recomputed attributes of one frame.
	// Left and Width are fractions of the chart width under the current view
	// window; they are reset wholesale by every recompute and never persist.
	FrameState struct {
		Visible      bool
		Left         float64
		Width        float64
		Highlighted  bool
		Faded        bool
		ZoomAncestor bool
	}

	View struct {
		chart  flamechart.Chart
		frames map[flamechart.FrameKey]flamechart.Frame
		states map[flamechart.FrameKey]*FrameState
		depths [][]flamechart.Frame

		hidden  []Span
		zoom    *flamechart.Frame
		search  *regexp.Regexp
		pattern string
	}
)

// NewView builds a view over a chart with every frame visible at its
// original projection.
func NewView(chart flamechart.Chart) *View {
	v := &View{
		chart:  chart,
		frames: make(map[flamechart.FrameKey]flamechart.Frame, len(chart.Frames)),
		states: make(map[flamechart.FrameKey]*FrameState, len(chart.Frames)),
		depths: make([][]flamechart.Frame, chart.DepthMax+1),
	}
	for _, f := range chart.Frames {
		v.frames[f.Key()] = f
		v.states[f.Key()] = &FrameState{}
		v.depths[f.Depth] = append(v.depths[f.Depth], f)
	}
	for _, row := range v.depths {
		sort.Slice(row, func(i, j int) bool { return row[i].Start < row[j].Start })
	}
	v.restoreGeometry()
	return v
}

func (v *View) Chart() flamechart.Chart {
	return v.chart
}

// Frame resolves a key back to its immutable frame record.
func (v *View) Frame(key flamechart.FrameKey) (flamechart.Frame, bool) {
	f, ok := v.frames[key]
	return f, ok
}

// State returns a copy of the frame's current view state.
func (v *View) State(key flamechart.FrameKey) (FrameState, bool) {
	st, ok := v.states[key]
	if !ok {
		return FrameState{}, false
	}
	return *st, true
}

// Zoomed returns the current zoom target, if any.
func (v *View) Zoomed() (flamechart.Frame, bool) {
	if v.zoom == nil {
		return flamechart.Frame{}, false
	}
	return *v.zoom, true
}

// HiddenSpans returns the subtree spans hidden so far.
func (v *View) HiddenSpans() []Span {
	spans := make([]Span, len(v.hidden))
	copy(spans, v.hidden)
	return spans
}

// SearchPattern returns the active search pattern, or "" when unset.
func (v *View) SearchPattern() string {
	return v.pattern
}

// HideSubtree suppresses the frame and all its descendants, re-expanding the
// surviving siblings to fill the freed width.
func (v *View) HideSubtree(f flamechart.Frame) {
	v.hidden = append(v.hidden, Span{Start: f.Start, End: f.End, Depth: f.Depth})
	v.refresh()
}

// ResetHidden clears every hidden subtree.
func (v *View) ResetHidden() {
	v.hidden = nil
	v.refresh()
}

// ZoomTo re-windows the chart onto the frame's original span. Hidden frames
// cannot be zoomed into; the call is then a no-op.
func (v *View) ZoomTo(f flamechart.Frame) {
	st, ok := v.states[f.Key()]
	if !ok || !st.Visible {
		return
	}
	target := f
	v.zoom = &target
	v.applyZoom()
	v.applySearch()
}

// ResetZoom restores the global window, keeping any hidden subtrees hidden.
func (v *View) ResetZoom() {
	v.zoom = nil
	v.recomputeVisibility()
}

// SetSearch highlights visible frames whose name matches the
// case-insensitive pattern and fades the rest. An invalid pattern leaves the
// previous highlight state untouched.
func (v *View) SetSearch(pattern string) {
	if pattern == "" {
		v.ClearSearch()
		return
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return
	}
	v.search = re
	v.pattern = pattern
	v.applySearch()
}

// ClearSearch removes highlighting without touching geometry or visibility.
func (v *View) ClearSearch() {
	v.search = nil
	v.pattern = ""
	v.applySearch()
}

// ResetAll returns the view to its initial state: no zoom, no hidden
// subtrees, no search, original geometry.
func (v *View) ResetAll() {
	v.hidden = nil
	v.zoom = nil
	v.search = nil
	v.pattern = ""
	v.recomputeVisibility()
}

// MatchedFraction reports the share of samples matched by the active search:
// the summed duration of matched visible frames against the largest visible
// frame, zoom ancestors excluded on both sides. Without a search, or with
// nothing eligible, it reports 0.
func (v *View) MatchedFraction() float64 {
	if v.search == nil {
		return 0
	}
	var matched, largest uint64
	for _, f := range v.chart.Frames {
		st := v.states[f.Key()]
		if !st.Visible || st.ZoomAncestor {
			continue
		}
		if d := f.Duration(); d > largest {
			largest = d
		}
		if st.Highlighted {
			matched += f.Duration()
		}
	}
	if largest == 0 {
		return 0
	}
	return float64(matched) / float64(largest)
}

// SelfSamples returns the samples spent in the frame itself, excluding
// whatever its currently visible direct children account for.
func (v *View) SelfSamples(f flamechart.Frame) uint64 {
	var children uint64
	if f.Depth+1 < len(v.depths) {
		for _, c := range v.depths[f.Depth+1] {
			if c.Start >= f.End {
				break
			}
			if c.Start >= f.Start && c.End <= f.End && v.states[c.Key()].Visible {
				children += c.Duration()
			}
		}
	}
	return f.Duration() - children
}

func (v *View) isHidden(f flamechart.Frame) bool {
	for _, h := range v.hidden {
		if f.Start >= h.Start && f.End <= h.End && f.Depth >= h.Depth {
			return true
		}
	}
	return false
}

// restoreGeometry puts every frame back to its build-time projection against
// the global total. Highlight flags are left alone; applySearch owns those.
func (v *View) restoreGeometry() {
	total := float64(v.chart.Total)
	for _, f := range v.chart.Frames {
		st := v.states[f.Key()]
		st.Visible = true
		st.Left = float64(f.Start) / total
		st.Width = float64(f.Duration()) / total
		st.ZoomAncestor = false
	}
}

// recomputeVisibility partitions frames against the hidden set and, when
// anything is hidden, reflows each depth so the survivors fill their
// parent's width.
func (v *View) recomputeVisibility() {
	if len(v.hidden) == 0 {
		v.restoreGeometry()
		v.applySearch()
		return
	}

	for _, f := range v.chart.Frames {
		st := v.states[f.Key()]
		st.Visible = !v.isHidden(f)
		st.ZoomAncestor = false
	}

	// Depth 0 first: each visible root frame independently spans the chart.
	for _, f := range v.depths[0] {
		if st := v.states[f.Key()]; st.Visible {
			st.Left = 0
			st.Width = 1
		}
	}

	for depth := 1; depth <= v.chart.DepthMax; depth++ {
		parents := v.visibleAt(depth - 1)

		// Bucket this depth's visible frames under the parent whose original
		// interval contains them. A frame whose ancestor chain was severed by
		// a hide higher up has no bucket and loses its display slot.
		groups := make(map[flamechart.FrameKey][]flamechart.Frame)
		for _, f := range v.depths[depth] {
			st := v.states[f.Key()]
			if !st.Visible {
				continue
			}
			parent, ok := containingParent(parents, f)
			if !ok {
				st.Visible = false
				continue
			}
			groups[parent.Key()] = append(groups[parent.Key()], f)
		}

		for parentKey, children := range groups {
			parentState := v.states[parentKey]
			var sum uint64
			for _, c := range children {
				sum += c.Duration()
			}
			if sum == 0 {
				continue
			}
			// children inherit depth-row ordering, already sorted by start
			left := parentState.Left
			for _, c := range children {
				st := v.states[c.Key()]
				st.Left = left
				st.Width = float64(c.Duration()) / float64(sum) * parentState.Width
				left += st.Width
			}
		}
	}

	v.applySearch()
}

// refresh recomputes visibility and layers the zoom window back on top. A
// zoom target swallowed by a newer hide is dropped rather than pinning the
// view inside an invisible subtree.
func (v *View) refresh() {
	v.recomputeVisibility()
	if v.zoom == nil {
		return
	}
	if st := v.states[v.zoom.Key()]; st == nil || !st.Visible {
		v.zoom = nil
		return
	}
	v.applyZoom()
	v.applySearch()
}

// applyZoom projects every visible frame into the zoom target's original
// span: disjoint frames leave the view, ancestors become dimmed full-width
// banners, everything else is clipped into the local window.
func (v *View) applyZoom() {
	target := *v.zoom
	width := target.Duration()
	for _, f := range v.chart.Frames {
		st := v.states[f.Key()]
		if !st.Visible {
			continue
		}
		st.ZoomAncestor = false
		if f.Disjoint(target) {
			st.Visible = false
			continue
		}
		if f.Depth < target.Depth && f.Contains(target) {
			st.ZoomAncestor = true
			st.Left = 0
			st.Width = 1
			continue
		}
		var start uint64
		if f.Start > target.Start {
			start = f.Start - target.Start
		}
		end := f.End - target.Start
		if end > width {
			end = width
		}
		st.Left = float64(start) / float64(width)
		st.Width = float64(end-start) / float64(width)
	}
}

func (v *View) applySearch() {
	if v.search == nil {
		for _, st := range v.states {
			if st.Visible {
				st.Highlighted = false
				st.Faded = false
			}
		}
		return
	}
	for _, f := range v.chart.Frames {
		st := v.states[f.Key()]
		if !st.Visible {
			continue
		}
		if v.search.MatchString(f.Name) {
			st.Highlighted = true
			st.Faded = false
		} else {
			st.Highlighted = false
			st.Faded = true
		}
	}
}

func (v *View) visibleAt(depth int) []flamechart.Frame {
	frames := make([]flamechart.Frame, 0, len(v.depths[depth]))
	for _, f := range v.depths[depth] {
		if v.states[f.Key()].Visible {
			frames = append(frames, f)
		}
	}
	return frames
}

func containingParent(parents []flamechart.Frame, f flamechart.Frame) (flamechart.Frame, bool) {
	for _, p := range parents {
		if p.Contains(f) {
			return p, true
		}
	}
	return flamechart.Frame{}, false
}

type RenderedFrame struct {
	Name         string  `json:"name"`
	Depth        int     `json:"depth"`
	Start        uint64  `json:"start"`
	End          uint64  `json:"end"`
	Left         float64 `json:"left"`
	Width        float64 `json:"width"`
	Bottom       int     `json:"bottom"`
	Highlighted  bool    `json:"highlighted,omitempty"`
	Faded        bool    `json:"faded,omitempty"`
	ZoomAncestor bool    `json:"zoom_ancestor,omitempty"`
}

// Render emits the currently visible frames with their computed geometry.
// The projector's minimum width applies to the frame's width under the
// current window, so frames skipped at full zoom-out come back once a zoom
// widens them.
func (v *View) Render(p geometry.Projector) []RenderedFrame {
	out := make([]RenderedFrame, 0, len(v.chart.Frames))
	for _, f := range v.chart.Frames {
		st := v.states[f.Key()]
		if !st.Visible || st.Width < p.MinWidth {
			continue
		}
		out = append(out, RenderedFrame{
			Name:         f.DisplayName(),
			Depth:        f.Depth,
			Start:        f.Start,
			End:          f.End,
			Left:         st.Left,
			Width:        st.Width,
			Bottom:       f.Depth * p.RowHeight,
			Highlighted:  st.Highlighted,
			Faded:        st.Faded,
			ZoomAncestor: st.ZoomAncestor,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		return out[i].Start < out[j].Start
	})
	return out
}
