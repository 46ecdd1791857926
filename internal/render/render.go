// Package render emits standalone HTML documents for one or more charts. A
// document is a static snapshot of the view state it was given; interactions
// are replayed server-side and re-rendered, so no script ships with the
// markup.
package render

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/flamel/flamel/internal/batch"
	"github.com/flamel/flamel/internal/flameview"
	"github.com/flamel/flamel/internal/geometry"
)

type (
	// Page carries the document-level header fields.
	Page struct {
		Title    string
		Subtitle string
	}

	section struct {
		Title        string
		Subtitle     string
		TotalSamples string
		DepthMax     int
		ChartHeight  int
		Matched      string
		Frames       []frameDiv
		Err          string
	}

	frameDiv struct {
		Label   string
		Tooltip string
		Class   string
		Style   template.CSS
		Samples string
		Percent string
	}

	document struct {
		Title       string
		FrameHeight int
		Sections    []section
	}
)

// Flamegraph renders a single chart document from the view's current state.
func Flamegraph(w io.Writer, v *flameview.View, p geometry.Projector, page Page) error {
	doc := document{
		Title:       page.Title,
		FrameHeight: p.RowHeight - 2,
		Sections:    []section{buildSection(v, p, page)},
	}
	return pageTemplate.Execute(w, doc)
}

// Batch renders one section per composed result, empty entries included as
// inline notices. The views are created fresh per section and share nothing.
func Batch(w io.Writer, results []batch.Result, p geometry.Projector) error {
	doc := document{
		Title:       "Flamegraphs",
		FrameHeight: p.RowHeight - 2,
		Sections:    make([]section, 0, len(results)),
	}
	for _, res := range results {
		if res.Err != nil {
			doc.Sections = append(doc.Sections, section{
				Title: res.Title,
				Err:   "No valid stack data",
			})
			continue
		}
		v := flameview.NewView(res.Chart)
		doc.Sections = append(doc.Sections, buildSection(v, p, Page{Title: res.Title}))
	}
	return pageTemplate.Execute(w, doc)
}

// Error renders a standalone error document, mirroring the single-chart
// failure mode.
func Error(w io.Writer, message string) error {
	return errorTemplate.Execute(w, struct{ Message string }{Message: message})
}

func buildSection(v *flameview.View, p geometry.Projector, page Page) section {
	chart := v.Chart()
	s := section{
		Title:        page.Title,
		Subtitle:     page.Subtitle,
		TotalSamples: formatSamples(chart.Total),
		DepthMax:     chart.DepthMax,
		ChartHeight:  p.ChartHeight(chart.DepthMax),
	}
	if v.SearchPattern() != "" {
		s.Matched = fmt.Sprintf("%.1f%%", v.MatchedFraction()*100)
	}
	for _, rf := range v.Render(p) {
		class := "frame"
		switch {
		case rf.Highlighted:
			class += " highlight"
		case rf.ZoomAncestor:
			class += " zoomed-parent"
		case rf.Faded:
			class += " faded"
		}
		duration := rf.End - rf.Start
		pct := float64(duration) / float64(chart.Total) * 100
		s.Frames = append(s.Frames, frameDiv{
			Label:   rf.Name,
			Tooltip: fmt.Sprintf("%s - %s samples (%.2f%%)", rf.Name, formatSamples(duration), pct),
			Class:   class,
			Style: template.CSS(fmt.Sprintf(
				"left:%.4f%%;width:%.4f%%;bottom:%dpx;background:%s",
				rf.Left*100, rf.Width*100, rf.Bottom,
				ColorForName(frameColorName(rf.Name), DefaultPalette),
			)),
			Samples: formatSamples(duration),
			Percent: fmt.Sprintf("%.2f%%", pct),
		})
	}
	return s
}

func frameColorName(display string) string {
	if display == "all" {
		return ""
	}
	return display
}

// formatSamples groups digits in threes, 1234567 -> "1,234,567".
func formatSamples(n uint64) string {
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

var pageTemplate = template.Must(template.New("flamegraph").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
* { box-sizing: border-box; margin: 0; padding: 0; }
body {
    font-family: 'Inter', -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    background: linear-gradient(180deg, #0c0f1a 0%, #151928 100%);
    color: #e2e8f0;
    min-height: 100vh;
}
.container { max-width: 100%; padding: 24px; }
.flamegraph-section { margin-bottom: 48px; padding-bottom: 32px; border-bottom: 1px solid rgba(255,255,255,0.1); }
.flamegraph-section:last-child { border-bottom: none; margin-bottom: 0; }
header { display: flex; justify-content: space-between; align-items: flex-start; margin-bottom: 20px; flex-wrap: wrap; gap: 16px; }
.title-section h1 { font-size: 1.75rem; font-weight: 600; color: #f1f5f9; margin-bottom: 4px; }
.title-section .subtitle { font-size: 0.875rem; color: #64748b; }
.stats { display: flex; gap: 24px; margin-bottom: 16px; flex-wrap: wrap; }
.stat { display: flex; flex-direction: column; gap: 2px; }
.stat-label { font-size: 0.75rem; color: #64748b; text-transform: uppercase; letter-spacing: 0.05em; }
.stat-value { font-size: 0.9375rem; color: #e2e8f0; font-weight: 500; font-variant-numeric: tabular-nums; }
.chart-container { position: relative; background: rgba(0,0,0,0.2); border-radius: 12px; border: 1px solid rgba(255,255,255,0.05); overflow: hidden; }
.chart { position: relative; overflow: hidden; }
.frame {
    position: absolute;
    height: {{.FrameHeight}}px;
    border-radius: 4px;
    display: flex;
    align-items: center;
    padding: 0 6px;
    font-size: 11px;
    font-family: 'SF Mono', 'Fira Code', 'JetBrains Mono', Consolas, monospace;
    font-weight: 500;
    color: rgba(255,255,255,0.9);
    overflow: hidden;
    text-overflow: ellipsis;
    white-space: nowrap;
    border: 1px solid rgba(255,255,255,0.1);
}
.frame.highlight { background: rgb(250,204,21) !important; color: #1e1e1e !important; border-color: rgb(234,179,8) !important; }
.frame.faded { opacity: 0.25; }
.frame.zoomed-parent { opacity: 0.4; }
.error-note { color: #f87171; font-size: 0.875rem; }
</style>
</head>
<body>
<div class="container">
{{- range .Sections}}
<div class="flamegraph-section">
    <header>
        <div class="title-section">
            <h1>{{.Title}}</h1>
            {{- if .Subtitle}}
            <p class="subtitle">{{.Subtitle}}</p>
            {{- end}}
        </div>
    </header>
    {{- if .Err}}
    <p class="error-note">{{.Err}}</p>
    {{- else}}
    <div class="stats">
        <div class="stat">
            <span class="stat-label">Total Samples</span>
            <span class="stat-value">{{.TotalSamples}}</span>
        </div>
        <div class="stat">
            <span class="stat-label">Max Depth</span>
            <span class="stat-value">{{.DepthMax}}</span>
        </div>
        {{- if .Matched}}
        <div class="stat">
            <span class="stat-label">Matched</span>
            <span class="stat-value">{{.Matched}}</span>
        </div>
        {{- end}}
    </div>
    <div class="chart-container">
        <div class="chart" style="height: {{.ChartHeight}}px;">
{{- range .Frames}}
            <div class="{{.Class}}" style="{{.Style}}" title="{{.Tooltip}}">{{.Label}}</div>
{{- end}}
        </div>
    </div>
    {{- end}}
</div>
{{- end}}
</div>
</body>
</html>
`))

var errorTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Error</title>
<style>
body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    background: #0c0f1a;
    color: #e2e8f0;
    min-height: 100vh;
    display: flex;
    align-items: center;
    justify-content: center;
}
.error { text-align: center; padding: 48px; background: rgba(239,68,68,0.1); border: 1px solid rgba(239,68,68,0.2); border-radius: 12px; }
.error h1 { color: #f87171; font-size: 1.25rem; margin-bottom: 8px; }
.error p { color: #94a3b8; }
</style>
</head>
<body>
<div class="error">
    <h1>Error</h1>
    <p>{{.Message}}</p>
</div>
</body>
</html>
`))
