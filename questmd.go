// Package questmd reconstructs structured Markdown exam documents from
// per-page object-detection boxes over a PDF.
//
// The detector produces flat, unordered boxes in five classes (question
// block, statement text, statement image, alternative text, alternative
// image). The pipeline turns them into a validated, reading-ordered
// document tree and renders it:
//
//	result, err := questmd.Open("prova.pdf").
//	    Labels("dataset/labels", "prova_azul").
//	    Reconstruct(ctx)
//	if err != nil {
//	    // handle error
//	}
//	os.WriteFile("prova.md", []byte(result.Markdown), 0644)
//
// Every degradation along the way (malformed boxes, orphan detections,
// structural violations, empty extractions) lands in result.Issues; the
// caller always receives both the best-effort document and the complete
// report.
package questmd

import (
	"context"
	"fmt"

	"github.com/tsouza/questmd/label"
	"github.com/tsouza/questmd/normalize"
	"github.com/tsouza/questmd/source"
)

// Reconstructor is the fluent entry point of the pipeline. Each
// configuration method returns a new instance, so a configured
// Reconstructor can be shared and further specialized safely.
type Reconstructor struct {
	// Source
	path string
	src  source.Accessor
	// ownsSrc is true when Reconstruct opened the accessor and must
	// close it.
	ownsSrc bool

	// Detections
	raw []normalize.RawDetection

	// Label loading, deferred until Reconstruct
	labelDir string
	document string

	opts Options

	// Accumulated error (fail-fast through the chain)
	err error
}

// Open prepares a reconstructor over a PDF file. The document is opened
// lazily when Reconstruct runs.
func Open(path string) *Reconstructor {
	return &Reconstructor{
		path:    path,
		ownsSrc: true,
		opts:    DefaultOptions(),
	}
}

// FromAccessor prepares a reconstructor over an already-open source
// accessor. The caller keeps ownership and closes the accessor itself.
func FromAccessor(src source.Accessor) *Reconstructor {
	return &Reconstructor{
		src:  src,
		opts: DefaultOptions(),
	}
}

// clone returns a copy of the reconstructor for chain immutability
func (r *Reconstructor) clone() *Reconstructor {
	c := *r
	c.raw = append([]normalize.RawDetection(nil), r.raw...)
	return &c
}

// WithOptions replaces the pipeline options, filling unset fields with
// defaults.
func (r *Reconstructor) WithOptions(opts Options) *Reconstructor {
	c := r.clone()
	c.opts = opts.withDefaults()
	return c
}

// Labels loads detections from YOLO label files in dir for the named
// document (files <year>_<document>_page_<n>.txt). Loading happens when
// Reconstruct runs, after the page dimensions are known.
func (r *Reconstructor) Labels(dir, document string) *Reconstructor {
	c := r.clone()
	c.labelDir = dir
	c.document = document
	return c
}

// Detections supplies raw detections directly, for callers that receive
// detector output in-process rather than from label files.
func (r *Reconstructor) Detections(raw []normalize.RawDetection) *Reconstructor {
	c := r.clone()
	c.raw = append(c.raw, raw...)
	return c
}

// Reconstruct runs the full pipeline. Cancellation is page-granular: on
// context cancellation the already-processed pages are kept, the result
// is returned, and the context's error is reported alongside it.
func (r *Reconstructor) Reconstruct(ctx context.Context) (*Result, error) {
	if r.err != nil {
		return nil, r.err
	}

	src := r.src
	if src == nil {
		if r.path == "" {
			return nil, fmt.Errorf("no document source configured")
		}
		opened, err := source.Open(r.path)
		if err != nil {
			return nil, err
		}
		src = opened
		defer opened.Close()
	}

	raw := r.raw
	if r.labelDir != "" {
		pages, err := label.ParseDir(r.labelDir, r.document)
		if err != nil {
			return nil, err
		}
		raw = append(append([]normalize.RawDetection(nil), raw...), label.Flatten(pages)...)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("no detections supplied; use Labels or Detections")
	}

	return runPipeline(ctx, src, raw, r.opts)
}
