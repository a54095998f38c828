package page

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// cellAspect is how many times taller a terminal cell is than it is wide.
const cellAspect = 2.0

// cell is one character of the page canvas.
type cell struct {
	ch     rune
	region int
	cursor bool
	label  bool
}

// canvas maps a page box in pixels onto a grid of terminal cells.
type canvas struct {
	box   domain.Box
	cols  int
	rows  int
	cells [][]cell
}

// gridSize returns the rows needed to draw box in cols columns, keeping
// its aspect ratio, limited to maxRows.
func gridSize(box domain.Box, cols, maxRows int) int {
	if box.Empty() || cols < 1 {
		return 1
	}
	rows := int(math.Round(float64(cols) * box.Height / box.Width / cellAspect))
	if maxRows > 0 && rows > maxRows {
		rows = maxRows
	}
	if rows < 1 {
		rows = 1
	}
	return rows
}

// newCanvas lays out text and regions of page on a cols×rows grid. Each
// cell takes the top-most region overlapping it.
func newCanvas(page *domain.RenderedPage, regions []domain.Region, cursor *domain.Box, cols, rows int) *canvas {
	c := &canvas{box: page.Box, cols: cols, rows: rows}
	c.cells = make([][]cell, rows)
	for r := range c.cells {
		c.cells[r] = make([]cell, cols)
		for col := range c.cells[r] {
			c.cells[r][col] = cell{ch: ' ', region: -1}
		}
	}

	for _, span := range page.TextLayer {
		c.placeText(span)
	}

	for r := 0; r < rows; r++ {
		for col := 0; col < cols; col++ {
			bounds := c.cellBox(col, r)
			best := -1
			for i := range regions {
				if !overlaps(regions[i].Box, bounds) {
					continue
				}
				if best < 0 || regions[i].Z >= regions[best].Z {
					best = i
				}
			}
			c.cells[r][col].region = best
			if cursor != nil && overlaps(*cursor, bounds) {
				c.cells[r][col].cursor = true
			}
		}
	}
	return c
}

func (c *canvas) cellWidth() float64  { return c.box.Width / float64(c.cols) }
func (c *canvas) cellHeight() float64 { return c.box.Height / float64(c.rows) }

// cellBox returns the pixel box of a cell.
func (c *canvas) cellBox(col, row int) domain.Box {
	w, h := c.cellWidth(), c.cellHeight()
	return domain.Box{
		Left:   c.box.Left + float64(col)*w,
		Top:    c.box.Top + float64(row)*h,
		Width:  w,
		Height: h,
	}
}

// Point returns the pixel centre of a cell.
func (c *canvas) Point(col, row int) domain.Point {
	b := c.cellBox(col, row)
	return domain.Point{X: b.Left + b.Width/2, Y: b.Top + b.Height/2}
}

// Target returns the point a click on a cell stands for: the middle of
// the part of the cell's region inside it, or the cell centre.
func (c *canvas) Target(col, row int, regions []domain.Region) domain.Point {
	i := c.cells[row][col].region
	if i < 0 || i >= len(regions) {
		return c.Point(col, row)
	}
	a, b := regions[i].Box, c.cellBox(col, row)
	left, right := max(a.Left, b.Left), min(a.Right(), b.Right())
	top, bottom := max(a.Top, b.Top), min(a.Bottom(), b.Bottom())
	return domain.Point{X: (left + right) / 2, Y: (top + bottom) / 2}
}

// Cell returns the cell containing a pixel point.
func (c *canvas) Cell(pt domain.Point) (col, row int, ok bool) {
	if !c.box.Contains(pt) {
		return 0, 0, false
	}
	col = int((pt.X - c.box.Left) / c.cellWidth())
	row = int((pt.Y - c.box.Top) / c.cellHeight())
	col = min(max(col, 0), c.cols-1)
	row = min(max(row, 0), c.rows-1)
	return col, row, true
}

// placeText writes a span's text on the row through its vertical centre,
// starting at its left edge. Text past the right edge is dropped.
func (c *canvas) placeText(span domain.TextSpan) {
	center := domain.Point{X: span.Box.Left, Y: span.Box.Top + span.Box.Height/2}
	if center.X < c.box.Left {
		center.X = c.box.Left
	}
	col, row, ok := c.Cell(center)
	if !ok {
		return
	}
	for _, ch := range strings.TrimSpace(span.Text) {
		if col >= c.cols {
			return
		}
		c.cells[row][col].ch = ch
		col++
	}
}

// Overlay writes text over the grid at a cell, clipped to the grid.
func (c *canvas) Overlay(col, row int, text string) {
	if row < 0 || row >= c.rows {
		return
	}
	for _, ch := range text {
		if col >= c.cols {
			return
		}
		if col >= 0 {
			c.cells[row][col].ch = ch
			c.cells[row][col].label = true
		}
		col++
	}
}

// Render draws the grid, one styled run per stretch of equal cells.
func (c *canvas) Render(s *styles.Styles, regions []domain.Region) string {
	lines := make([]string, c.rows)
	for r, row := range c.cells {
		var b strings.Builder
		start := 0
		for col := 1; col <= len(row); col++ {
			if col < len(row) && sameStyle(row[col], row[start]) {
				continue
			}
			b.WriteString(c.styleFor(s, regions, row[start]).Render(runes(row[start:col])))
			start = col
		}
		lines[r] = b.String()
	}
	return strings.Join(lines, "\n")
}

func (c *canvas) styleFor(s *styles.Styles, regions []domain.Region, cl cell) lipgloss.Style {
	switch {
	case cl.label:
		return s.Selected
	case cl.cursor:
		return s.Cursor
	case cl.region >= 0:
		return s.Region(regions[cl.region])
	default:
		return s.Page
	}
}

func sameStyle(a, b cell) bool {
	return a.region == b.region && a.cursor == b.cursor && a.label == b.label
}

// Text returns the grid characters without styling.
func (c *canvas) Text() string {
	lines := make([]string, c.rows)
	for r, row := range c.cells {
		lines[r] = runes(row)
	}
	return strings.Join(lines, "\n")
}

func runes(cells []cell) string {
	out := make([]rune, len(cells))
	for i, cl := range cells {
		out[i] = cl.ch
	}
	return string(out)
}

// overlaps reports whether two boxes share a positive area.
func overlaps(a, b domain.Box) bool {
	if a.Empty() || b.Empty() {
		return false
	}
	return a.Left < b.Right() && b.Left < a.Right() &&
		a.Top < b.Bottom() && b.Top < a.Bottom()
}
