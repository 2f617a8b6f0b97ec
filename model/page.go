package model

// Page describes the geometry of a single source page. Pages are
// constructed once, before the pipeline runs, and read-only thereafter.
type Page struct {
	Number int     // 1-indexed page number
	Width  float64 // page width in points
	Height float64 // page height in points

	// ColumnBoundaries holds the X coordinates separating adjacent text
	// columns, sorted ascending. Empty means single-column layout. The
	// boundaries are supplied by layout inference or external
	// configuration; the resolver only consumes them.
	ColumnBoundaries []float64
}

// NewPage creates a single-column page with the given dimensions
func NewPage(number int, width, height float64) *Page {
	return &Page{Number: number, Width: width, Height: height}
}

// ColumnCount returns the number of columns on the page
func (p *Page) ColumnCount() int {
	return len(p.ColumnBoundaries) + 1
}

// ColumnIndex returns the 0-based column containing the given X
// coordinate. Coordinates left of the first boundary map to column 0.
func (p *Page) ColumnIndex(x float64) int {
	for i, boundary := range p.ColumnBoundaries {
		if x < boundary {
			return i
		}
	}
	return len(p.ColumnBoundaries)
}

// Contains reports whether the box lies within the page bounds expanded by
// tolerance on all sides.
func (p *Page) Contains(b BBox, tolerance float64) bool {
	page := BBox{X0: 0, Y0: 0, X1: p.Width, Y1: p.Height}
	return page.ContainsBox(b, tolerance)
}
