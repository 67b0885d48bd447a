package plot

import (
	"fmt"
	"io"
	"strings"
)

// #region chart

// Series is one labelled curve.
type Series struct {
	Label string
	Xs    []int
	Ys    []int
	// Stepped draws a post-step curve; Spikes draws vertical lines from
	// zero instead of a connected curve.
	Stepped bool
	Spikes  bool
}

// Chart renders labelled integer series into a standalone SVG. The corpus
// carries no raster plotting dependency, so the chart is emitted as plain
// SVG markup.
type Chart struct {
	Title  string
	XLabel string
	YLabel string
	Stamp  string // multi-line annotation box, empty to omit
	Width  int
	Height int

	series []Series
}

// NewChart creates a chart with the default canvas size.
func NewChart(title, xLabel, yLabel string) *Chart {
	return &Chart{
		Title:  title,
		XLabel: xLabel,
		YLabel: yLabel,
		Width:  960,
		Height: 600,
	}
}

// Add appends one series.
func (c *Chart) Add(s Series) { c.series = append(c.series, s) }

// seriesColors cycles through a small fixed palette.
var seriesColors = []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd", "#8c564b"}

// #endregion chart

// #region render

const margin = 60

// Render writes the SVG document.
func (c *Chart) Render(w io.Writer) error {
	minX, maxX, minY, maxY := c.bounds()

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		c.Width, c.Height, c.Width, c.Height)
	b.WriteString(`<rect width="100%" height="100%" fill="white"/>` + "\n")

	// Axes
	x0, y0 := margin, c.Height-margin
	x1, y1 := c.Width-margin, margin
	fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="black"/>`+"\n", x0, y0, x1, y0)
	fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="black"/>`+"\n", x0, y0, x0, y1)
	fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="13" text-anchor="middle">%s</text>`+"\n",
		(x0+x1)/2, c.Height-margin/3, escape(c.XLabel))
	fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="13" text-anchor="middle" transform="rotate(-90 %d %d)">%s</text>`+"\n",
		margin/3, (y0+y1)/2, margin/3, (y0+y1)/2, escape(c.YLabel))
	fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="16" text-anchor="middle">%s</text>`+"\n",
		c.Width/2, margin/2, escape(c.Title))

	// Axis extent ticks
	fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="11" text-anchor="middle">%d</text>`+"\n", x0, y0+16, minX)
	fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="11" text-anchor="middle">%d</text>`+"\n", x1, y0+16, maxX)
	fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="11" text-anchor="end">%d</text>`+"\n", x0-6, y0+4, minY)
	fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="11" text-anchor="end">%d</text>`+"\n", x0-6, y1+4, maxY)

	for i, s := range c.series {
		color := seriesColors[i%len(seriesColors)]
		c.renderSeries(&b, s, color, minX, maxX, minY, maxY)
		// Legend entry
		ly := margin + 18*i
		fmt.Fprintf(&b, `<rect x="%d" y="%d" width="12" height="12" fill="%s"/>`+"\n", x1-220, ly, color)
		fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="12">%s</text>`+"\n", x1-202, ly+10, escape(s.Label))
	}

	if c.Stamp != "" {
		c.renderStamp(&b)
	}

	b.WriteString("</svg>\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func (c *Chart) renderSeries(b *strings.Builder, s Series, color string, minX, maxX, minY, maxY int) {
	px := func(x int) float64 {
		return float64(margin) + float64(x-minX)/float64(max(1, maxX-minX))*float64(c.Width-2*margin)
	}
	py := func(y int) float64 {
		return float64(c.Height-margin) - float64(y-minY)/float64(max(1, maxY-minY))*float64(c.Height-2*margin)
	}

	if s.Spikes {
		zero := py(0)
		for i := range s.Xs {
			fmt.Fprintf(b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`+"\n",
				px(s.Xs[i]), zero, px(s.Xs[i]), py(s.Ys[i]), color)
		}
		return
	}

	var pts strings.Builder
	for i := range s.Xs {
		if s.Stepped && i > 0 {
			// Post-step: hold the previous value until this x.
			fmt.Fprintf(&pts, "%.1f,%.1f ", px(s.Xs[i]), py(s.Ys[i-1]))
		}
		fmt.Fprintf(&pts, "%.1f,%.1f ", px(s.Xs[i]), py(s.Ys[i]))
	}
	fmt.Fprintf(b, `<polyline points="%s" fill="none" stroke="%s" stroke-width="1.5"/>`+"\n",
		strings.TrimSpace(pts.String()), color)
}

func (c *Chart) renderStamp(b *strings.Builder) {
	lines := strings.Split(c.Stamp, "\n")
	x := margin + 10
	y := c.Height - margin - 14*len(lines) - 10
	fmt.Fprintf(b, `<rect x="%d" y="%d" width="260" height="%d" fill="#eeeeee" opacity="0.8" rx="4"/>`+"\n",
		x-4, y-12, 14*len(lines)+8)
	for i, line := range lines {
		fmt.Fprintf(b, `<text x="%d" y="%d" font-size="11">%s</text>`+"\n", x, y+14*i, escape(line))
	}
}

func (c *Chart) bounds() (minX, maxX, minY, maxY int) {
	first := true
	for _, s := range c.series {
		for i := range s.Xs {
			if first {
				minX, maxX, minY, maxY = s.Xs[i], s.Xs[i], s.Ys[i], s.Ys[i]
				first = false
				continue
			}
			minX = min(minX, s.Xs[i])
			maxX = max(maxX, s.Xs[i])
			minY = min(minY, s.Ys[i])
			maxY = max(maxY, s.Ys[i])
		}
	}
	// Spike charts are anchored at zero.
	for _, s := range c.series {
		if s.Spikes {
			minY = min(minY, 0)
		}
	}
	return minX, maxX, minY, maxY
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// #endregion render
