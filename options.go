package questmd

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Options holds the recognized configuration of the reconstruction
// pipeline. The zero value of any field falls back to its default, so a
// partial YAML file only overrides what it names.
type Options struct {
	// ContainmentTolerance is the box-edge clamp tolerance as a fraction
	// of the page dimension. Default: 0.01.
	ContainmentTolerance float64 `yaml:"containment_tolerance"`

	// TieBreakEpsilon is the containment-ratio difference treated as a
	// tie when choosing a leaf's parent block. Default: 1e-3.
	TieBreakEpsilon float64 `yaml:"tie_break_epsilon"`

	// ExtractionTimeoutMS bounds content extraction per page, in
	// milliseconds. Default: 5000.
	ExtractionTimeoutMS int `yaml:"extraction_timeout_ms"`

	// MaxAlternatives is the alternative capacity per question.
	// Default: 5.
	MaxAlternatives int `yaml:"max_alternatives"`

	// MinTextOverlap is the span-overlap fraction required to bind text
	// to a node. Default: 0.9.
	MinTextOverlap float64 `yaml:"min_text_overlap"`

	// CropDPI is the rendering resolution for image crops. Default: 300.
	CropDPI int `yaml:"crop_dpi"`

	// Workers caps concurrent page workers. Default: GOMAXPROCS.
	Workers int `yaml:"workers"`

	// AssetDir is the directory prefix image assets are referenced
	// under from the Markdown. Default: "assets".
	AssetDir string `yaml:"asset_dir"`

	// AssetOutputDir is the filesystem directory image crops are written
	// to. Empty keeps assets in memory only: nodes still carry their
	// content hash and relative path, nothing touches disk.
	AssetOutputDir string `yaml:"asset_output_dir"`

	// QuestionPrefix is the Markdown heading prefix. Default: "Questão".
	QuestionPrefix string `yaml:"question_prefix"`

	// DisableColumnInference turns off column-boundary inference from
	// block geometry. By default boundaries are inferred for any page
	// that carries none.
	DisableColumnInference bool `yaml:"disable_column_inference"`
}

// DefaultOptions returns the documented defaults
func DefaultOptions() Options {
	return Options{
		ContainmentTolerance: 0.01,
		TieBreakEpsilon:      1e-3,
		ExtractionTimeoutMS:  5000,
		MaxAlternatives:      5,
		MinTextOverlap:       0.9,
		CropDPI:              300,
		Workers:              runtime.GOMAXPROCS(0),
		AssetDir:             "assets",
		QuestionPrefix:       "Questão",
	}
}

// LoadOptions reads options from a YAML file, filling unset fields with
// defaults.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("read options file: %w", err)
	}

	var opts Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("parse options file: %w", err)
	}
	return opts.withDefaults(), nil
}

// withDefaults fills zero-valued fields from DefaultOptions
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.ContainmentTolerance <= 0 {
		o.ContainmentTolerance = def.ContainmentTolerance
	}
	if o.TieBreakEpsilon <= 0 {
		o.TieBreakEpsilon = def.TieBreakEpsilon
	}
	if o.ExtractionTimeoutMS <= 0 {
		o.ExtractionTimeoutMS = def.ExtractionTimeoutMS
	}
	if o.MaxAlternatives <= 0 {
		o.MaxAlternatives = def.MaxAlternatives
	}
	if o.MinTextOverlap <= 0 {
		o.MinTextOverlap = def.MinTextOverlap
	}
	if o.CropDPI <= 0 {
		o.CropDPI = def.CropDPI
	}
	if o.Workers <= 0 {
		o.Workers = def.Workers
	}
	if o.AssetDir == "" {
		o.AssetDir = def.AssetDir
	}
	if o.QuestionPrefix == "" {
		o.QuestionPrefix = def.QuestionPrefix
	}
	return o
}

// extractionTimeout returns the per-page timeout as a duration
func (o Options) extractionTimeout() time.Duration {
	return time.Duration(o.ExtractionTimeoutMS) * time.Millisecond
}
