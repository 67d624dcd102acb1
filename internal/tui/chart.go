package tui

import (
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jpalmerr/stepboard/render"
)

const (
	pointRune = '•'
	yAxisGap  = 1
)

// Plot draws snap as a line chart in a width x height character box.
//
// The label axis runs left to right from the smallest to the largest
// label. While the chart is empty the placeholder labels span the axis.
func Plot(snap render.Snapshot, width, height int) string {
	labels := snap.DisplayLabels()
	data := snap.Data

	ymin, ymax := valueRange(data)
	top := formatValue(ymax)
	bottom := formatValue(ymin)
	yw := max(lipgloss.Width(top), lipgloss.Width(bottom), lipgloss.Width(snap.Config.Axis.YTitle))

	plotW := width - yw - yAxisGap - 1
	plotH := height - 3
	if plotW < 4 || plotH < 2 {
		return dimStyle.Render("terminal too small")
	}

	grid := make([][]rune, plotH)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", plotW))
	}

	xmin, xmax := labelRange(labels)
	col := func(x int64) int {
		return scale(float64(x-xmin), float64(xmax-xmin), plotW)
	}
	row := func(y float64) int {
		return plotH - 1 - scale(y-ymin, ymax-ymin, plotH)
	}

	// points beyond the label axis have no x position yet
	n := min(len(data), len(snap.Labels))
	for i := 0; i < n; i++ {
		c, r := col(snap.Labels[i]), row(data[i])
		if i > 0 {
			drawLine(grid, col(snap.Labels[i-1]), row(data[i-1]), c, r)
		}
		grid[r][c] = pointRune
	}

	lineStyle := seriesStyle(snap.Config.Style.Color)

	var b strings.Builder
	b.WriteString(padLeft(snap.Config.Axis.YTitle, yw))
	b.WriteByte('\n')

	for r, cells := range grid {
		var label string
		switch r {
		case 0:
			label = top
		case plotH - 1:
			label = bottom
		}
		b.WriteString(axisStyle.Render(padLeft(label, yw)))
		b.WriteString(strings.Repeat(" ", yAxisGap))
		b.WriteString(axisStyle.Render("│"))
		b.WriteString(colorize(cells, lineStyle))
		b.WriteByte('\n')
	}

	b.WriteString(strings.Repeat(" ", yw+yAxisGap))
	b.WriteString(axisStyle.Render("└" + strings.Repeat("─", plotW)))
	b.WriteByte('\n')

	first := strconv.FormatInt(xmin, 10)
	last := strconv.FormatInt(xmax, 10)
	title := snap.Config.Axis.XTitle
	inner := plotW + 1 - lipgloss.Width(first) - lipgloss.Width(last)
	gapL := max(1, (inner-lipgloss.Width(title))/2)
	gapR := max(1, inner-gapL-lipgloss.Width(title))
	b.WriteString(strings.Repeat(" ", yw+yAxisGap))
	b.WriteString(axisStyle.Render(first + strings.Repeat(" ", gapL) + title + strings.Repeat(" ", gapR) + last))

	return b.String()
}

func valueRange(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 1
	}
	lo, hi := data[0], data[0]
	for _, v := range data[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}

func labelRange(labels []int64) (int64, int64) {
	if len(labels) == 0 {
		return 0, 1
	}
	lo, hi := labels[0], labels[0]
	for _, l := range labels[1:] {
		lo = min(lo, l)
		hi = max(hi, l)
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}

// scale maps v in [0, span] onto [0, cells-1].
func scale(v, span float64, cells int) int {
	if span <= 0 {
		return 0
	}
	i := int(math.Round(v / span * float64(cells-1)))
	return min(max(i, 0), cells-1)
}

// drawLine plots a Bresenham segment between two cells, skipping the
// endpoints which the caller marks itself.
func drawLine(grid [][]rune, x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	x, y := x0, y0
	for {
		if (x != x0 || y != y0) && (x != x1 || y != y1) {
			grid[y][x] = '·'
		}
		if x == x1 && y == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

func colorize(cells []rune, style lipgloss.Style) string {
	var b strings.Builder
	for _, c := range cells {
		if c == ' ' {
			b.WriteRune(c)
			continue
		}
		b.WriteString(style.Render(string(c)))
	}
	return b.String()
}

func seriesStyle(color string) lipgloss.Style {
	hex, err := render.ColorHex(color)
	if err != nil {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func padLeft(s string, w int) string {
	return strings.Repeat(" ", max(0, w-lipgloss.Width(s))) + s
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
