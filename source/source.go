// Package source provides read-only access to the underlying document:
// page dimensions, the positioned text layer, and raster crops. The
// reconstruction pipeline only depends on the Accessor interface; the
// default implementation is backed by MuPDF via go-fitz. PDF
// normalization (rotation correction, DPI standardization) happens before
// the document reaches this package.
package source

import (
	"image"
	"sort"

	"github.com/tsouza/questmd/model"
)

// TextSpan is one positioned piece of text from a page's text layer,
// in absolute page coordinates (top-left origin, Y down).
type TextSpan struct {
	Text string
	BBox model.BBox
}

// Accessor is a read-only view of the source document. Page numbers are
// 1-indexed. Implementations must be safe for concurrent use by one
// worker per page; the fitz implementation opens a private document view
// per rendering call for that reason.
type Accessor interface {
	// PageCount returns the number of pages in the document
	PageCount() int

	// PageSize returns the dimensions of a page in points
	PageSize(page int) (width, height float64, err error)

	// TextSpans returns the positioned text of a page. Span order is the
	// text layer's own order; callers sort geometrically as needed.
	TextSpans(page int) ([]TextSpan, error)

	// CropImage renders the given region of a page at the given DPI and
	// returns the cropped raster.
	CropImage(page int, box model.BBox, dpi int) (image.Image, error)

	// Close releases the underlying document
	Close() error
}

// TextInRegion joins the spans overlapping a box by at least minOverlap
// (fraction of the span's own area), in (top, left) order. This is the
// geometric text lookup used by the content binder.
func TextInRegion(spans []TextSpan, box model.BBox, minOverlap float64) []TextSpan {
	var hits []TextSpan
	for _, span := range spans {
		if box.ContainmentRatio(span.BBox) >= minOverlap {
			hits = append(hits, span)
		}
	}
	sortSpans(hits)
	return hits
}

// sortSpans orders spans by top edge, then left edge
func sortSpans(spans []TextSpan) {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].BBox.Y0 != spans[j].BBox.Y0 {
			return spans[i].BBox.Y0 < spans[j].BBox.Y0
		}
		return spans[i].BBox.X0 < spans[j].BBox.X0
	})
}
