// Package normalize validates and canonicalizes raw detector output into
// the geometry model. It is the first pipeline stage: everything
// downstream assumes detections that passed through here are
// geometrically sound, in absolute page coordinates, and deterministically
// ordered.
package normalize

import (
	"fmt"
	"sort"

	"github.com/tsouza/questmd/model"
)

// RawDetection is one box as produced by the detector, before validation.
// Coordinates are corner form; when Normalized is true they are in the
// 0-1 range and are scaled by the page dimensions during normalization.
// YOLO-style center/size records are converted to corner form upstream
// (see the label package) before reaching the normalizer.
type RawDetection struct {
	Page       int
	Class      model.Class
	X0, Y0     float64
	X1, Y1     float64
	Confidence float64
	Normalized bool
}

// Config holds configuration for the normalizer
type Config struct {
	// ClampTolerance is how far a box may exceed the page bounds, as a
	// fraction of the page dimension, and still be clamped rather than
	// discarded. Default: 0.01.
	ClampTolerance float64
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		ClampTolerance: 0.01,
	}
}

// Result is the normalizer's output: per-page detections sorted by
// (top-left Y, then X), plus the issues raised for rejected input.
type Result struct {
	// ByPage maps page number to its normalized detections. Detections
	// are immutable from this point on.
	ByPage map[int][]model.Detection

	// Issues records every rejected or clamped detection. Nothing is
	// silently dropped.
	Issues []model.ValidationIssue
}

// Detections returns the normalized detections for a page
func (r *Result) Detections(page int) []model.Detection {
	return r.ByPage[page]
}

// Pages returns the page numbers present in the result, sorted ascending
func (r *Result) Pages() []int {
	pages := make([]int, 0, len(r.ByPage))
	for p := range r.ByPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages
}

// Normalizer validates and canonicalizes raw detections
type Normalizer struct {
	config Config
}

// New creates a normalizer with default configuration
func New() *Normalizer {
	return &Normalizer{config: DefaultConfig()}
}

// NewWithConfig creates a normalizer with custom configuration
func NewWithConfig(config Config) *Normalizer {
	if config.ClampTolerance <= 0 {
		config.ClampTolerance = DefaultConfig().ClampTolerance
	}
	return &Normalizer{config: config}
}

// Normalize converts raw detections into per-page canonical detections.
// Pages gives the dimensions to scale normalized coordinates against and
// to clamp boxes with; raw detections referencing a page not present in
// pages are rejected. Normalize is deterministic: identical input yields
// identical output ordering on every run.
func (n *Normalizer) Normalize(raw []RawDetection, pages map[int]*model.Page) *Result {
	result := &Result{ByPage: make(map[int][]model.Detection)}

	for i, rd := range raw {
		if rd.Class != model.ClassQuestionBlock && !rd.Class.IsLeaf() {
			result.Issues = append(result.Issues, model.ValidationIssue{
				Rule:     model.RuleMalformedDetection,
				Severity: model.SeverityError,
				Page:     rd.Page,
				Detail:   fmt.Sprintf("detection %d has unrecognized class %q", i, rd.Class),
			})
			continue
		}

		page, ok := pages[rd.Page]
		if !ok {
			result.Issues = append(result.Issues, model.ValidationIssue{
				Rule:     model.RuleMalformedDetection,
				Severity: model.SeverityError,
				Page:     rd.Page,
				Detail:   fmt.Sprintf("detection %d references unknown page %d", i, rd.Page),
			})
			continue
		}

		box := model.NewBBox(rd.X0, rd.Y0, rd.X1, rd.Y1)
		if rd.Normalized {
			box = box.Scale(page.Width, page.Height)
		}

		if !box.IsValid() {
			result.Issues = append(result.Issues, model.ValidationIssue{
				Rule:     model.RuleMalformedDetection,
				Severity: model.SeverityError,
				Page:     rd.Page,
				Detail:   fmt.Sprintf("detection %d (%s) has degenerate geometry %+v", i, rd.Class, box),
			})
			continue
		}

		clamped, ok := n.clampToPage(box, page)
		if !ok {
			result.Issues = append(result.Issues, model.ValidationIssue{
				Rule:     model.RuleOutOfBounds,
				Severity: model.SeverityError,
				Page:     rd.Page,
				Detail:   fmt.Sprintf("detection %d (%s) exceeds page bounds beyond tolerance", i, rd.Class),
			})
			continue
		}

		result.ByPage[rd.Page] = append(result.ByPage[rd.Page], model.Detection{
			Page:       rd.Page,
			Class:      rd.Class,
			BBox:       clamped,
			Confidence: rd.Confidence,
		})
	}

	// Canonical ordering per page: top-left Y, then X. The sort must be
	// stable so that coincident boxes keep their input order.
	for p := range result.ByPage {
		dets := result.ByPage[p]
		sort.SliceStable(dets, func(i, j int) bool {
			if dets[i].BBox.Y0 != dets[j].BBox.Y0 {
				return dets[i].BBox.Y0 < dets[j].BBox.Y0
			}
			return dets[i].BBox.X0 < dets[j].BBox.X0
		})
	}

	return result
}

// clampToPage clamps a box that slightly exceeds the page bounds. Returns
// false when the excess is beyond tolerance or the clamped box collapses.
func (n *Normalizer) clampToPage(box model.BBox, page *model.Page) (model.BBox, bool) {
	tolX := page.Width * n.config.ClampTolerance
	tolY := page.Height * n.config.ClampTolerance

	if box.X0 < -tolX || box.Y0 < -tolY ||
		box.X1 > page.Width+tolX || box.Y1 > page.Height+tolY {
		return model.BBox{}, false
	}

	clamped := box.Clamp(page.Width, page.Height)
	if !clamped.IsValid() {
		return model.BBox{}, false
	}
	return clamped, true
}
