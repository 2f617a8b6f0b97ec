package source

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
	xdraw "golang.org/x/image/draw"

	"github.com/tsouza/questmd/model"
)

// renderDPIBase is the DPI at which fitz reports page coordinates
const renderDPIBase = 72.0

// FitzAccessor reads a PDF through MuPDF. A long-lived document answers
// the cheap metadata queries; rendering calls open a private view of the
// file because MuPDF documents are not safe for concurrent rendering.
type FitzAccessor struct {
	doc  *fitz.Document
	path string
}

// Open opens a PDF as an Accessor
func Open(path string) (*FitzAccessor, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	return &FitzAccessor{doc: doc, path: path}, nil
}

// PageCount returns the number of pages in the document
func (f *FitzAccessor) PageCount() int {
	return f.doc.NumPage()
}

// PageSize returns the dimensions of a page in points
func (f *FitzAccessor) PageSize(page int) (float64, float64, error) {
	idx, err := f.pageIndex(page)
	if err != nil {
		return 0, 0, err
	}
	rect, err := f.doc.Bound(idx)
	if err != nil {
		return 0, 0, fmt.Errorf("page %d bounds: %w", page, err)
	}
	return float64(rect.Dx()), float64(rect.Dy()), nil
}

// TextSpans returns the positioned text of a page, parsed from MuPDF's
// HTML rendition of the text layer.
func (f *FitzAccessor) TextSpans(page int) ([]TextSpan, error) {
	idx, err := f.pageIndex(page)
	if err != nil {
		return nil, err
	}
	htmlText, err := f.doc.HTML(idx, false)
	if err != nil {
		return nil, fmt.Errorf("page %d text layer: %w", page, err)
	}
	return ParseHTMLSpans(htmlText)
}

// CropImage renders the given page region at the given DPI. The whole
// page is rasterized in a worker-private document view and the region cut
// out of it.
func (f *FitzAccessor) CropImage(page int, box model.BBox, dpi int) (image.Image, error) {
	idx, err := f.pageIndex(page)
	if err != nil {
		return nil, err
	}

	// Private view per call; see the type comment.
	workerDoc, err := fitz.New(f.path)
	if err != nil {
		return nil, fmt.Errorf("open render view: %w", err)
	}
	defer workerDoc.Close()

	full, err := workerDoc.ImageDPI(idx, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page, err)
	}

	return CropRegion(full, box, float64(dpi)/renderDPIBase), nil
}

// Close releases the underlying document
func (f *FitzAccessor) Close() error {
	return f.doc.Close()
}

// pageIndex converts a 1-indexed page number to fitz's 0-indexed form
func (f *FitzAccessor) pageIndex(page int) (int, error) {
	if page < 1 || page > f.doc.NumPage() {
		return 0, fmt.Errorf("page %d out of range 1-%d", page, f.doc.NumPage())
	}
	return page - 1, nil
}

// CropRegion cuts a page-coordinate box out of a rendered page image.
// scale converts page points to rendered pixels.
func CropRegion(full image.Image, box model.BBox, scale float64) image.Image {
	pixel := image.Rect(
		int(box.X0*scale),
		int(box.Y0*scale),
		int(box.X1*scale+0.5),
		int(box.Y1*scale+0.5),
	).Intersect(full.Bounds())

	crop := image.NewRGBA(image.Rect(0, 0, pixel.Dx(), pixel.Dy()))
	xdraw.Draw(crop, crop.Bounds(), full, pixel.Min, xdraw.Src)
	return crop
}
