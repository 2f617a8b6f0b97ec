package model

import "math"

// Point represents a 2D point in page coordinates (origin top-left, Y down).
type Point struct {
	X, Y float64
}

// Distance calculates the Euclidean distance to another point
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// BBox is a bounding box in corner form. (X0, Y0) is the top-left corner
// and (X1, Y1) the bottom-right corner, with Y increasing down the page.
// This matches the coordinate convention of rasterized page images and of
// the detector output after conversion from center form.
type BBox struct {
	X0, Y0, X1, Y1 float64
}

// NewBBox creates a bounding box from two corners, normalizing the corner
// order so that X0 <= X1 and Y0 <= Y1.
func NewBBox(x0, y0, x1, y1 float64) BBox {
	return BBox{
		X0: math.Min(x0, x1),
		Y0: math.Min(y0, y1),
		X1: math.Max(x0, x1),
		Y1: math.Max(y0, y1),
	}
}

// FromCenter creates a bounding box from a center point and box dimensions,
// the form used by YOLO-style detectors.
func FromCenter(cx, cy, w, h float64) BBox {
	return BBox{
		X0: cx - w/2,
		Y0: cy - h/2,
		X1: cx + w/2,
		Y1: cy + h/2,
	}
}

// Width returns the horizontal extent of the box
func (b BBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the vertical extent of the box
func (b BBox) Height() float64 {
	return b.Y1 - b.Y0
}

// Area returns the area of the bounding box
func (b BBox) Area() float64 {
	return b.Width() * b.Height()
}

// Center returns the center point
func (b BBox) Center() Point {
	return Point{
		X: (b.X0 + b.X1) / 2,
		Y: (b.Y0 + b.Y1) / 2,
	}
}

// IsValid returns true if the bounding box has positive dimensions and all
// coordinates are finite.
func (b BBox) IsValid() bool {
	for _, v := range [4]float64{b.X0, b.Y0, b.X1, b.Y1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Width() > 0 && b.Height() > 0
}

// ContainsPoint checks if a point is inside the bounding box
func (b BBox) ContainsPoint(p Point) bool {
	return p.X >= b.X0 && p.X <= b.X1 &&
		p.Y >= b.Y0 && p.Y <= b.Y1
}

// Intersects checks if two bounding boxes intersect
func (b BBox) Intersects(other BBox) bool {
	return !(b.X1 < other.X0 ||
		b.X0 > other.X1 ||
		b.Y1 < other.Y0 ||
		b.Y0 > other.Y1)
}

// Intersection returns the intersection of two bounding boxes, or the zero
// box when they do not intersect.
func (b BBox) Intersection(other BBox) BBox {
	if !b.Intersects(other) {
		return BBox{}
	}
	return BBox{
		X0: math.Max(b.X0, other.X0),
		Y0: math.Max(b.Y0, other.Y0),
		X1: math.Min(b.X1, other.X1),
		Y1: math.Min(b.Y1, other.Y1),
	}
}

// Union returns the smallest bounding box covering both boxes
func (b BBox) Union(other BBox) BBox {
	return BBox{
		X0: math.Min(b.X0, other.X0),
		Y0: math.Min(b.Y0, other.Y0),
		X1: math.Max(b.X1, other.X1),
		Y1: math.Max(b.Y1, other.Y1),
	}
}

// Expand expands the bounding box by a margin on all sides
func (b BBox) Expand(margin float64) BBox {
	return BBox{
		X0: b.X0 - margin,
		Y0: b.Y0 - margin,
		X1: b.X1 + margin,
		Y1: b.Y1 + margin,
	}
}

// ContainsBox reports whether other lies entirely within b expanded by
// tolerance on all sides. Annotation boxes carry padding, so strict
// containment is rarely what callers want.
func (b BBox) ContainsBox(other BBox, tolerance float64) bool {
	e := b.Expand(tolerance)
	return other.X0 >= e.X0 && other.X1 <= e.X1 &&
		other.Y0 >= e.Y0 && other.Y1 <= e.Y1
}

// ContainmentRatio returns the fraction of the child box's area covered by
// b: intersection area divided by child area. Returns a value in [0, 1],
// or 0 when the child is degenerate.
func (b BBox) ContainmentRatio(child BBox) float64 {
	childArea := child.Area()
	if childArea <= 0 {
		return 0
	}
	if !b.Intersects(child) {
		return 0
	}
	return b.Intersection(child).Area() / childArea
}

// OverlapRatio returns intersection area divided by the smaller of the two
// box areas. Returns a value between 0 and 1.
func (b BBox) OverlapRatio(other BBox) float64 {
	if !b.Intersects(other) {
		return 0
	}
	minArea := math.Min(b.Area(), other.Area())
	if minArea <= 0 {
		return 0
	}
	return b.Intersection(other).Area() / minArea
}

// Scale returns the box with every coordinate multiplied by the given
// factors, converting between normalized and absolute page coordinates.
func (b BBox) Scale(sx, sy float64) BBox {
	return BBox{
		X0: b.X0 * sx,
		Y0: b.Y0 * sy,
		X1: b.X1 * sx,
		Y1: b.Y1 * sy,
	}
}

// Clamp restricts the box to the rectangle (0, 0)-(width, height).
func (b BBox) Clamp(width, height float64) BBox {
	return BBox{
		X0: math.Max(0, math.Min(b.X0, width)),
		Y0: math.Max(0, math.Min(b.Y0, height)),
		X1: math.Max(0, math.Min(b.X1, width)),
		Y1: math.Max(0, math.Min(b.Y1, height)),
	}
}
