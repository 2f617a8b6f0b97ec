package questmd

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/tsouza/questmd/model"
)

// Result is the outcome of one reconstruction run. On context
// cancellation Reconstruct returns a partial Result alongside the
// context error: completed pages are kept, skipped ones are listed.
type Result struct {
	// Tree is the validated document tree, blocks in reading order.
	Tree *model.DocumentTree

	// Markdown is the serialized document.
	Markdown string

	// Pages maps page number to the page geometry used during the run.
	Pages map[int]*model.Page

	// SkippedPages lists pages left unprocessed due to cancellation.
	SkippedPages []int
}

// Questions returns the number of reconstructed question blocks.
func (r *Result) Questions() int {
	if r.Tree == nil {
		return 0
	}
	return len(r.Tree.Blocks)
}

// report is the YAML layout of WriteReport.
type report struct {
	Questions    int                     `yaml:"questions"`
	Pages        int                     `yaml:"pages"`
	SkippedPages []int                   `yaml:"skipped_pages,omitempty"`
	Severities   map[string]int          `yaml:"severities,omitempty"`
	Issues       []model.ValidationIssue `yaml:"issues,omitempty"`
}

// WriteReport writes a YAML validation report: question and page counts,
// issue totals per severity, and the full issue list.
func (r *Result) WriteReport(w io.Writer) error {
	rep := report{
		Questions:    r.Questions(),
		Pages:        len(r.Pages),
		SkippedPages: r.SkippedPages,
	}
	if r.Tree != nil && len(r.Tree.Issues) > 0 {
		rep.Severities = make(map[string]int)
		for _, issue := range r.Tree.Issues {
			rep.Severities[issue.Severity.String()]++
		}
		rep.Issues = r.Tree.Issues
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}
