package viz

import "strings"

const brailleBlank = 0x2800

// dotBits[row][col] is the Braille bit of the dot at that position inside a
// 2x4 cell.
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a Braille dot grid of Width x Height cells, i.e. 2*Width by
// 4*Height dots. Dot (0, 0) is the top-left corner.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Dots returns the dot resolution of the canvas.
func (c *Canvas) Dots() (int, int) { return c.Width * 2, c.Height * 4 }

func (c *Canvas) inside(x, y int) bool {
	w, h := c.Dots()
	return x >= 0 && y >= 0 && x < w && y < h
}

// Set turns on dot (x, y); dots off the grid are ignored.
func (c *Canvas) Set(x, y int) {
	if c.inside(x, y) {
		c.Grid[y/4][x/2] |= dotBits[y%4][x%2]
	}
}

// On reports whether dot (x, y) is set.
func (c *Canvas) On(x, y int) bool {
	return c.inside(x, y) && c.Grid[y/4][x/2]&dotBits[y%4][x%2] != 0
}

// Window maps data coordinates onto a canvas: x in [0, XMax] left to right,
// y in [YMin, YMax] bottom to top.
type Window struct {
	XMax, YMin, YMax float64
}

func (w Window) valid() bool { return w.XMax > 0 && w.YMax > w.YMin }

func (c *Canvas) dot(win Window, x, y float64) (int, int) {
	dw, dh := c.Dots()
	px := int(x / win.XMax * float64(dw-1))
	py := dh - 1 - int((y-win.YMin)/(win.YMax-win.YMin)*float64(dh-1))
	return px, py
}

// Plot sets the dot nearest to the data point (x, y). Points outside the
// window are dropped.
func (c *Canvas) Plot(win Window, x, y float64) {
	if !win.valid() || x < 0 || x > win.XMax || y < win.YMin || y > win.YMax {
		return
	}
	c.Set(c.dot(win, x, y))
}

// Line joins two data points, clamping y into the window.
func (c *Canvas) Line(win Window, x0, y0, x1, y1 float64) {
	if !win.valid() {
		return
	}
	clamp := func(v float64) float64 { return max(win.YMin, min(win.YMax, v)) }
	ax, ay := c.dot(win, x0, clamp(y0))
	bx, by := c.dot(win, x1, clamp(y1))
	c.DrawLine(ax, ay, bx, by)
}

// DrawLine sets the dots between two dot positions (Bresenham).
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, sx := x1-x0, 1
	if dx < 0 {
		dx, sx = -dx, -1
	}
	dy, sy := y1-y0, 1
	if dy < 0 {
		dy, sy = -dy, -1
	}
	e := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		if 2*e > -dy {
			e -= dy
			x0 += sx
		}
		if 2*e < dx {
			e += dx
			y0 += sy
		}
	}
}

// Lit counts the dots that are on.
func (c *Canvas) Lit() int {
	n := 0
	for _, row := range c.Grid {
		for _, r := range row {
			for bits := r - brailleBlank; bits != 0; bits &= bits - 1 {
				n++
			}
		}
	}
	return n
}

func (c *Canvas) Clear() {
	for _, row := range c.Grid {
		for j := range row {
			row[j] = brailleBlank
		}
	}
}

func (c *Canvas) String() string {
	rows := make([]string, len(c.Grid))
	for i, row := range c.Grid {
		rows[i] = string(row)
	}
	return strings.Join(rows, "\n")
}
