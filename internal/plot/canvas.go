package plot

import (
	"math"
	"strings"
)

// Layer orders what is drawn on the canvas. A cell shows only the dots of
// its highest layer.
type Layer int

const (
	LayerEmpty Layer = iota
	LayerBand
	LayerFit
	LayerData
	numLayers
)

// brailleDots maps (col 0-1, row 0-3) to the braille dot bit offsets.
// Braille character = U+2800 + sum of activated dot bits.
// Column 0: dots 1,2,3,7 (bits 0,1,2,6)
// Column 1: dots 4,5,6,8 (bits 3,4,5,7)
var brailleDots = [2][4]rune{
	{0x01, 0x02, 0x04, 0x40}, // left column
	{0x08, 0x10, 0x20, 0x80}, // right column
}

const brailleBlank rune = 0x2800

// Canvas is a braille dot grid of width × rows characters mapped onto a data
// window. Each character covers 2 dot columns and 4 dot rows.
type Canvas struct {
	width, rows int
	bounds      Bounds
	bits        [numLayers][][]rune
}

// NewCanvas returns an empty canvas. Width and rows are clamped to at least 1.
func NewCanvas(width, rows int, b Bounds) *Canvas {
	width, rows = max(width, 1), max(rows, 1)
	c := &Canvas{width: width, rows: rows, bounds: b}
	for l := range c.bits {
		c.bits[l] = make([][]rune, rows)
		for r := range c.bits[l] {
			c.bits[l][r] = make([]rune, width)
		}
	}
	return c
}

// Size returns the canvas size in characters.
func (c *Canvas) Size() (width, rows int) { return c.width, c.rows }

func (c *Canvas) dotCols() int { return c.width * 2 }
func (c *Canvas) dotRows() int { return c.rows * 4 }

// toDot maps data coordinates to dot coordinates (row 0 at the top).
func (c *Canvas) toDot(x, y float64) (col, row int) {
	b := c.bounds
	fx := (x - b.XMin) / (b.XMax - b.XMin)
	fy := (y - b.YMin) / (b.YMax - b.YMin)
	col = int(math.Round(fx * float64(c.dotCols()-1)))
	row = c.dotRows() - 1 - int(math.Round(fy*float64(c.dotRows()-1)))
	return col, row
}

func (c *Canvas) setDot(col, row int, l Layer) {
	if col < 0 || col >= c.dotCols() || row < 0 || row >= c.dotRows() {
		return
	}
	c.bits[l][row/4][col/2] |= brailleDots[col%2][row%4]
}

// Point sets the dot nearest to (x, y).
func (c *Canvas) Point(x, y float64, l Layer) {
	if !finite(x) || !finite(y) {
		return
	}
	col, row := c.toDot(x, y)
	c.setDot(col, row, l)
}

// Line draws a straight segment between two data points using Bresenham's
// algorithm on the dot grid. Dots outside the canvas are clipped.
func (c *Canvas) Line(x0, y0, x1, y1 float64, l Layer) {
	if !finite(x0) || !finite(y0) || !finite(x1) || !finite(y1) {
		return
	}
	c0, r0 := c.toDot(x0, y0)
	c1, r1 := c.toDot(x1, y1)

	dc, dr := abs(c1-c0), -abs(r1-r0)
	sc, sr := sign(c1-c0), sign(r1-r0)
	e := dc + dr
	for {
		c.setDot(c0, r0, l)
		if c0 == c1 && r0 == r1 {
			return
		}
		e2 := 2 * e
		if e2 >= dr {
			e += dr
			c0 += sc
		}
		if e2 <= dc {
			e += dc
			r0 += sr
		}
	}
}

// Shade fills the vertical span between yLow and yHigh at x with a
// checkerboard of dots, leaving the curves drawn over it readable.
func (c *Canvas) Shade(x, yLow, yHigh float64, l Layer) {
	if !finite(x) || !finite(yLow) || !finite(yHigh) {
		return
	}
	col, rowHigh := c.toDot(x, yHigh)
	_, rowLow := c.toDot(x, yLow)
	if rowHigh > rowLow {
		rowHigh, rowLow = rowLow, rowHigh
	}
	for row := rowHigh; row <= rowLow; row++ {
		if (col+row)%2 == 0 {
			c.setDot(col, row, l)
		}
	}
}

// CellLayer returns the highest layer with dots in the given cell.
func (c *Canvas) CellLayer(col, row int) Layer {
	for l := numLayers - 1; l > LayerEmpty; l-- {
		if c.bits[l][row][col] != 0 {
			return l
		}
	}
	return LayerEmpty
}

// Rows renders the canvas as text, one string per character row. Runs of
// cells sharing a layer are passed to paint, which may style them; a nil
// paint returns the raw braille text.
func (c *Canvas) Rows(paint func(Layer, string) string) []string {
	if paint == nil {
		paint = func(_ Layer, s string) string { return s }
	}

	out := make([]string, c.rows)
	for r := range c.rows {
		var line, run strings.Builder
		current := Layer(-1)
		flush := func() {
			if run.Len() > 0 {
				line.WriteString(paint(current, run.String()))
				run.Reset()
			}
		}
		for col := range c.width {
			l := c.CellLayer(col, r)
			if l != current {
				flush()
				current = l
			}
			run.WriteRune(brailleBlank | c.bits[l][r][col])
		}
		flush()
		out[r] = line.String()
	}
	return out
}

// Draw renders fig on a new canvas of the given size: the band shaded
// between its envelopes, the fitted curve, then every sample with its error
// bars.
func Draw(fig Figure, width, rows int) *Canvas {
	c := NewCanvas(width, rows, fig.Bounds())

	band := fig.Band
	for i, x := range band.Grid {
		c.Shade(x, band.Lower[i], band.Upper[i], LayerBand)
	}
	for i := 1; i < len(band.Grid); i++ {
		c.Line(band.Grid[i-1], band.Fitted[i-1], band.Grid[i], band.Fitted[i], LayerFit)
	}

	for _, s := range fig.Samples {
		if s.ErrY > 0 {
			c.Line(s.X, s.Y-s.ErrY, s.X, s.Y+s.ErrY, LayerData)
		}
		if s.ErrX > 0 {
			c.Line(s.X-s.ErrX, s.Y, s.X+s.ErrX, s.Y, LayerData)
		}
		c.Point(s.X, s.Y, LayerData)
	}
	return c
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
