package flameview

import (
	"testing"

	"github.com/flamel/flamel/internal/flamechart"
	"github.com/flamel/flamel/internal/geometry"
	"github.com/flamel/flamel/internal/testutil"
)

// testChart builds the fixture used across the view tests:
//
//	all  [0,175] depth 0
//	main [0,175] depth 1
//	foo  [0,150] depth 2    qux [150,175] depth 2
//	bar  [0,100] depth 3    baz [100,150] depth 3
func testChart(t *testing.T) flamechart.Chart {
	t.Helper()
	chart, err := flamechart.Build(map[string]uint64{
		"main;foo;bar": 100,
		"main;foo;baz": 50,
		"main;qux":     25,
	})
	if err != nil {
		t.Fatal(err)
	}
	return chart
}

func key(start, end uint64, depth int) flamechart.FrameKey {
	return flamechart.FrameKey{Start: start, End: end, Depth: depth}
}

var (
	keyRoot = key(0, 175, 0)
	keyMain = key(0, 175, 1)
	keyFoo  = key(0, 150, 2)
	keyQux  = key(150, 175, 2)
	keyBar  = key(0, 100, 3)
	keyBaz  = key(100, 150, 3)
)

func TestNewViewInitialRender(t *testing.T) {
	v := NewView(testChart(t))
	p := geometry.NewProjector()

	output := []RenderedFrame{
		{Name: "all", Depth: 0, Start: 0, End: 175, Left: 0, Width: 1, Bottom: 0},
		{Name: "main", Depth: 1, Start: 0, End: 175, Left: 0, Width: 1, Bottom: 20},
		{Name: "foo", Depth: 2, Start: 0, End: 150, Left: 0, Width: 150.0 / 175.0, Bottom: 40},
		{Name: "qux", Depth: 2, Start: 150, End: 175, Left: 150.0 / 175.0, Width: 25.0 / 175.0, Bottom: 40},
		{Name: "bar", Depth: 3, Start: 0, End: 100, Left: 0, Width: 100.0 / 175.0, Bottom: 60},
		{Name: "baz", Depth: 3, Start: 100, End: 150, Left: 100.0 / 175.0, Width: 50.0 / 175.0, Bottom: 60},
	}
	if diff := testutil.Diff(v.Render(p), output); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
}

func TestHideSubtree(t *testing.T) {
	p := geometry.NewProjector()

	tests := []struct {
		name   string
		hide   flamechart.FrameKey
		output []RenderedFrame
	}{
		{
			name: "hiding a leaf sibling re-expands the survivors",
			hide: keyQux,
			output: []RenderedFrame{
				{Name: "all", Depth: 0, Start: 0, End: 175, Left: 0, Width: 1, Bottom: 0},
				{Name: "main", Depth: 1, Start: 0, End: 175, Left: 0, Width: 1, Bottom: 20},
				{Name: "foo", Depth: 2, Start: 0, End: 150, Left: 0, Width: 1, Bottom: 40},
				{Name: "bar", Depth: 3, Start: 0, End: 100, Left: 0, Width: 100.0 / 150.0, Bottom: 60},
				{Name: "baz", Depth: 3, Start: 100, End: 150, Left: 100.0 / 150.0, Width: 50.0 / 150.0, Bottom: 60},
			},
		},
		{
			name: "hiding an inner frame suppresses its descendants",
			hide: keyFoo,
			output: []RenderedFrame{
				{Name: "all", Depth: 0, Start: 0, End: 175, Left: 0, Width: 1, Bottom: 0},
				{Name: "main", Depth: 1, Start: 0, End: 175, Left: 0, Width: 1, Bottom: 20},
				{Name: "qux", Depth: 2, Start: 150, End: 175, Left: 0, Width: 1, Bottom: 40},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			v := NewView(testChart(t))
			f, ok := v.Frame(test.hide)
			if !ok {
				t.Fatalf("fixture frame %+v missing", test.hide)
			}
			v.HideSubtree(f)
			if diff := testutil.Diff(v.Render(p), test.output); diff != "" {
				t.Fatalf("Result mismatch: got - want +\n%s", diff)
			}
		})
	}
}

func TestResetHiddenRestoresGeometry(t *testing.T) {
	p := geometry.NewProjector()
	v := NewView(testChart(t))
	initial := v.Render(p)

	foo, _ := v.Frame(keyFoo)
	qux, _ := v.Frame(keyQux)
	v.HideSubtree(foo)
	v.HideSubtree(qux)
	v.ResetHidden()

	if diff := testutil.Diff(v.Render(p), initial); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
}

func TestZoom(t *testing.T) {
	p := geometry.NewProjector()
	v := NewView(testChart(t))
	foo, _ := v.Frame(keyFoo)
	v.ZoomTo(foo)

	output := []RenderedFrame{
		{Name: "all", Depth: 0, Start: 0, End: 175, Left: 0, Width: 1, Bottom: 0, ZoomAncestor: true},
		{Name: "main", Depth: 1, Start: 0, End: 175, Left: 0, Width: 1, Bottom: 20, ZoomAncestor: true},
		{Name: "foo", Depth: 2, Start: 0, End: 150, Left: 0, Width: 1, Bottom: 40},
		{Name: "bar", Depth: 3, Start: 0, End: 100, Left: 0, Width: 100.0 / 150.0, Bottom: 60},
		{Name: "baz", Depth: 3, Start: 100, End: 150, Left: 100.0 / 150.0, Width: 50.0 / 150.0, Bottom: 60},
	}
	if diff := testutil.Diff(v.Render(p), output); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}

	if zoomed, ok := v.Zoomed(); !ok || zoomed.Key() != keyFoo {
		t.Fatalf("zoom target mismatch: %+v, %t", zoomed, ok)
	}
}

func TestResetZoomRestoresGeometry(t *testing.T) {
	p := geometry.NewProjector()
	v := NewView(testChart(t))
	initial := v.Render(p)

	bar, _ := v.Frame(keyBar)
	v.ZoomTo(bar)
	v.ResetZoom()

	if diff := testutil.Diff(v.Render(p), initial); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
	if _, ok := v.Zoomed(); ok {
		t.Fatal("zoom target should be cleared")
	}
}

func TestZoomHiddenFrameIsNoop(t *testing.T) {
	p := geometry.NewProjector()
	v := NewView(testChart(t))
	foo, _ := v.Frame(keyFoo)
	v.HideSubtree(foo)
	hidden := v.Render(p)

	v.ZoomTo(foo)
	if _, ok := v.Zoomed(); ok {
		t.Fatal("hidden frame must not become a zoom target")
	}
	if diff := testutil.Diff(v.Render(p), hidden); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
}

func TestHideDropsSwallowedZoom(t *testing.T) {
	v := NewView(testChart(t))
	bar, _ := v.Frame(keyBar)
	foo, _ := v.Frame(keyFoo)

	v.ZoomTo(bar)
	v.HideSubtree(foo)

	if _, ok := v.Zoomed(); ok {
		t.Fatal("zoom inside a hidden subtree should be dropped")
	}
}

func TestHideKeepsUnrelatedZoom(t *testing.T) {
	v := NewView(testChart(t))
	foo, _ := v.Frame(keyFoo)
	qux, _ := v.Frame(keyQux)

	v.ZoomTo(foo)
	v.HideSubtree(qux)

	if zoomed, ok := v.Zoomed(); !ok || zoomed.Key() != keyFoo {
		t.Fatalf("zoom target mismatch: %+v, %t", zoomed, ok)
	}
}

func TestSearch(t *testing.T) {
	v := NewView(testChart(t))
	v.SetSearch("ba")

	highlighted := map[flamechart.FrameKey]bool{keyBar: true, keyBaz: true}
	for _, k := range []flamechart.FrameKey{keyRoot, keyMain, keyFoo, keyQux, keyBar, keyBaz} {
		st, _ := v.State(k)
		if st.Highlighted != highlighted[k] {
			t.Fatalf("highlight mismatch for %+v: got %t", k, st.Highlighted)
		}
		if st.Faded == highlighted[k] {
			t.Fatalf("fade mismatch for %+v: got %t", k, st.Faded)
		}
	}

	// bar and baz account for 150 of the 175 samples under the root.
	if got, want := v.MatchedFraction(), 150.0/175.0; got != want {
		t.Fatalf("matched fraction: got %f, want %f", got, want)
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	v := NewView(testChart(t))
	v.SetSearch("BAR")
	st, _ := v.State(keyBar)
	if !st.Highlighted {
		t.Fatal("case-insensitive match expected")
	}
}

func TestSearchInvalidPatternKeepsPrevious(t *testing.T) {
	v := NewView(testChart(t))
	v.SetSearch("ba")
	v.SetSearch("[")

	if got := v.SearchPattern(); got != "ba" {
		t.Fatalf("pattern: got %q, want %q", got, "ba")
	}
	st, _ := v.State(keyBar)
	if !st.Highlighted {
		t.Fatal("previous highlight state should survive an invalid pattern")
	}
}

func TestClearSearch(t *testing.T) {
	v := NewView(testChart(t))
	v.SetSearch("ba")
	v.ClearSearch()

	if v.SearchPattern() != "" {
		t.Fatal("pattern should be cleared")
	}
	for _, k := range []flamechart.FrameKey{keyRoot, keyBar, keyQux} {
		st, _ := v.State(k)
		if st.Highlighted || st.Faded {
			t.Fatalf("stale highlight state on %+v: %+v", k, st)
		}
	}
}

func TestMatchedFractionUnderZoom(t *testing.T) {
	v := NewView(testChart(t))
	foo, _ := v.Frame(keyFoo)
	v.ZoomTo(foo)
	v.SetSearch("ba")

	// Zoom ancestors are excluded, so foo is the largest eligible frame and
	// bar plus baz cover it entirely.
	if got, want := v.MatchedFraction(), 1.0; got != want {
		t.Fatalf("matched fraction: got %f, want %f", got, want)
	}
}

func TestMatchedFractionWithoutSearch(t *testing.T) {
	v := NewView(testChart(t))
	if got := v.MatchedFraction(); got != 0 {
		t.Fatalf("matched fraction without search: got %f", got)
	}
}

func TestResetAll(t *testing.T) {
	p := geometry.NewProjector()
	v := NewView(testChart(t))
	initial := v.Render(p)

	foo, _ := v.Frame(keyFoo)
	qux, _ := v.Frame(keyQux)
	v.HideSubtree(qux)
	v.ZoomTo(foo)
	v.SetSearch("ba")
	v.ResetAll()

	if diff := testutil.Diff(v.Render(p), initial); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
	if _, ok := v.Zoomed(); ok {
		t.Fatal("zoom should be cleared")
	}
	if len(v.HiddenSpans()) != 0 {
		t.Fatal("hidden spans should be cleared")
	}
	if v.SearchPattern() != "" {
		t.Fatal("search should be cleared")
	}
}

func TestSelfSamples(t *testing.T) {
	v := NewView(testChart(t))

	tests := []struct {
		name   string
		key    flamechart.FrameKey
		output uint64
	}{
		{name: "fully covered by children", key: keyFoo, output: 0},
		{name: "leaf owns its samples", key: keyQux, output: 25},
		{name: "root covered by main", key: keyRoot, output: 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f, _ := v.Frame(test.key)
			if got := v.SelfSamples(f); got != test.output {
				t.Fatalf("self samples: got %d, want %d", got, test.output)
			}
		})
	}

	// Hiding a child shifts its samples back to the parent's self time.
	bar, _ := v.Frame(keyBar)
	v.HideSubtree(bar)
	foo, _ := v.Frame(keyFoo)
	if got := v.SelfSamples(foo); got != 100 {
		t.Fatalf("self samples after hide: got %d, want %d", got, 100)
	}
}
