package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/flamel/flamel/internal/batch"
	"github.com/flamel/flamel/internal/collapse"
	"github.com/flamel/flamel/internal/errorutil"
	"github.com/flamel/flamel/internal/flamechart"
	"github.com/flamel/flamel/internal/flameview"
	"github.com/flamel/flamel/internal/geometry"
	"github.com/flamel/flamel/internal/render"
)

func newGenCommand() *cobra.Command {
	var (
		output    string
		title     string
		subtitle  string
		collapsed bool
	)
	cmd := &cobra.Command{
		Use:   "gen [file]",
		Short: "Generate a flame graph HTML document from a profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "perf.data"
			if len(args) == 1 {
				input = args[0]
			}
			stacks, err := readStacks(input, collapsed)
			if err != nil {
				return err
			}
			if title == "" {
				title = filepath.Base(input)
			}

			out, err := os.Create(output)
			if err != nil {
				return err
			}
			defer out.Close()

			chart, err := flamechart.Build(stacks)
			if errors.Is(err, errorutil.ErrNoData) {
				return render.Error(out, "No valid stack data provided")
			}
			if err != nil {
				return err
			}
			view := flameview.NewView(chart)
			return render.Flamegraph(out, view, geometry.NewProjector(), render.Page{
				Title:    title,
				Subtitle: subtitle,
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "flamegraph.html", "output file")
	cmd.Flags().StringVar(&title, "title", "", "chart title (defaults to the input file name)")
	cmd.Flags().StringVar(&subtitle, "subtitle", "", "chart subtitle")
	cmd.Flags().BoolVar(&collapsed, "collapsed", false, `input is already collapsed ("path count" lines)`)
	return cmd
}

func newGenBatchCommand() *cobra.Command {
	var (
		output    string
		collapsed bool
	)
	cmd := &cobra.Command{
		Use:   "genbatch <file>...",
		Short: "Generate one document with a flame graph per input, plus their combination",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := make([]batch.Entry, 0, len(args))
			for _, input := range args {
				stacks, err := readStacks(input, collapsed)
				if err != nil {
					return err
				}
				entries = append(entries, batch.Entry{
					Title:  filepath.Base(input),
					Stacks: stacks,
				})
			}

			out, err := os.Create(output)
			if err != nil {
				return err
			}
			defer out.Close()
			return render.Batch(out, batch.Compose(entries), geometry.NewProjector())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "flamegraphs.html", "output file")
	cmd.Flags().BoolVar(&collapsed, "collapsed", false, `inputs are already collapsed ("path count" lines)`)
	return cmd
}

func readStacks(input string, collapsed bool) (map[string]uint64, error) {
	f, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", input, err)
	}
	defer f.Close()
	if collapsed {
		return collapse.Collapsed(f)
	}
	return collapse.Perf(f)
}
