package plot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBasicChart(t *testing.T) {
	chart := NewChart("alpha growth", "N", "alpha(N,H)")
	chart.Add(Series{
		Label: "OUT_PRIMARY (alpha_final=3)",
		Xs:    []int{0, 1, 2, 3},
		Ys:    []int{1, 2, 2, 3},
	})

	var b strings.Builder
	require.NoError(t, chart.Render(&b))
	svg := b.String()

	assert.True(t, strings.HasPrefix(svg, "<svg "))
	assert.True(t, strings.HasSuffix(svg, "</svg>\n"))
	assert.Contains(t, svg, "alpha growth")
	assert.Contains(t, svg, "OUT_PRIMARY (alpha_final=3)")
	assert.Contains(t, svg, "<polyline")
}

func TestRenderSteppedAndSpikes(t *testing.T) {
	chart := NewChart("t", "x", "y")
	chart.Add(Series{Label: "step", Xs: []int{0, 1}, Ys: []int{1, 2}, Stepped: true})
	chart.Add(Series{Label: "spikes", Xs: []int{0, 1}, Ys: []int{1, 2}, Spikes: true})

	var b strings.Builder
	require.NoError(t, chart.Render(&b))
	svg := b.String()

	assert.Contains(t, svg, "<polyline")
	// One spike line per point plus the two axis lines.
	assert.GreaterOrEqual(t, strings.Count(svg, "<line "), 4)
}

func TestRenderStampAndEscaping(t *testing.T) {
	chart := NewChart("a < b & c", "N", "y")
	chart.Add(Series{Label: "x", Xs: []int{0}, Ys: []int{0}})
	chart.Stamp = "mode=diff\nmax_abs_diff=0"

	var b strings.Builder
	require.NoError(t, chart.Render(&b))
	svg := b.String()

	assert.Contains(t, svg, "a &lt; b &amp; c")
	assert.Contains(t, svg, "mode=diff")
	assert.Contains(t, svg, "max_abs_diff=0")
	assert.NotContains(t, svg, "a < b")
}

func TestRenderDeterministic(t *testing.T) {
	build := func() string {
		chart := NewChart("t", "x", "y")
		chart.Add(Series{Label: "s", Xs: []int{0, 5, 10}, Ys: []int{1, 1, 2}})
		var b strings.Builder
		require.NoError(t, chart.Render(&b))
		return b.String()
	}
	assert.Equal(t, build(), build())
}
