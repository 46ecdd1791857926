// Package batch replicates the chart pipeline over several named stack-count
// maps and synthesizes their element-wise sum.
package batch

import (
	"github.com/flamel/flamel/internal/flamechart"
)

// CombinedTitle names the synthesized entry appended when composing more
// than one map.
const CombinedTitle = "Combined"

type (
	Entry struct {
		Title  string            `json:"title"`
		Stacks map[string]uint64 `json:"stacks"`
	}

	// Result pairs a title with its built chart. Entries without any samples
	// carry errorutil.ErrNoData in Err and a zero chart; renderers surface
	// those inline instead of dropping the section.
	Result struct {
		Title string
		Chart flamechart.Chart
		Err   error
	}
)

// Compose builds one chart per entry, in input order. With more than one
// entry a Combined chart over the merged counts is always appended last.
// Each result seeds its own independent view; nothing is shared between
// them.
func Compose(entries []Entry) []Result {
	all := entries
	if len(entries) > 1 {
		all = make([]Entry, 0, len(entries)+1)
		all = append(all, entries...)
		all = append(all, Entry{Title: CombinedTitle, Stacks: Merge(entries)})
	}
	results := make([]Result, 0, len(all))
	for _, e := range all {
		chart, err := flamechart.Build(e.Stacks)
		results = append(results, Result{Title: e.Title, Chart: chart, Err: err})
	}
	return results
}

// Merge sums counts path-wise across entries, treating absent keys as zero.
func Merge(entries []Entry) map[string]uint64 {
	combined := make(map[string]uint64)
	for _, e := range entries {
		for path, count := range e.Stacks {
			combined[path] += count
		}
	}
	return combined
}
