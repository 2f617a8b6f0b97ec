// Package hierarchy groups a page's normalized detections into
// question-block subtrees. Grouping is purely geometric: each leaf
// detection is assigned to the question block whose box covers it best,
// and leaves no block covers become orphans. The builder never crosses
// page boundaries; a question spanning a page break ends up as two
// independent page-local blocks.
package hierarchy

import (
	"fmt"

	"github.com/tsouza/questmd/model"
)

// Config holds configuration for the hierarchy builder
type Config struct {
	// TieEpsilon is the containment-ratio difference below which two
	// candidate blocks are considered tied; ties go to the smaller
	// (tighter-fitting) block. Default: 1e-3.
	TieEpsilon float64

	// MinContainment is the smallest containment ratio that still counts
	// as containment. Leaves below it for every block become orphans.
	// Default: 0 (any intersection counts).
	MinContainment float64

	// ContainmentTolerance is how far a leaf may extend beyond its
	// parent's box, as a fraction of the page dimension, before the
	// attachment is reported as loose. Default: 0.01.
	ContainmentTolerance float64
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		TieEpsilon:           1e-3,
		MinContainment:       0,
		ContainmentTolerance: 0.01,
	}
}

// PageTree is the grouping result for one page. Children of each block are
// attached in normalized detection order; reading order is assigned by the
// resolver, not here.
type PageTree struct {
	Page    *model.Page
	Blocks  []*model.DocumentNode
	Orphans []*model.DocumentNode
	Issues  []model.ValidationIssue
}

// Builder partitions detections into question-block scopes
type Builder struct {
	config Config
}

// New creates a builder with default configuration
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// NewWithConfig creates a builder with custom configuration
func NewWithConfig(config Config) *Builder {
	def := DefaultConfig()
	if config.TieEpsilon <= 0 {
		config.TieEpsilon = def.TieEpsilon
	}
	if config.ContainmentTolerance <= 0 {
		config.ContainmentTolerance = def.ContainmentTolerance
	}
	return &Builder{config: config}
}

// Build groups one page's detections into question-block subtrees.
// Detections must all belong to the given page; detections from other
// pages are rejected with an issue rather than silently re-homed, since
// cross-page association is disallowed.
func (b *Builder) Build(page *model.Page, detections []model.Detection) *PageTree {
	tree := &PageTree{Page: page}

	var blocks []*model.DocumentNode
	var leaves []int

	for i, d := range detections {
		if d.Page != page.Number {
			tree.Issues = append(tree.Issues, model.ValidationIssue{
				Rule:     model.RuleMalformedDetection,
				Severity: model.SeverityError,
				Page:     d.Page,
				Detail:   fmt.Sprintf("%s detection for page %d passed to builder for page %d", d.Class, d.Page, page.Number),
			})
			continue
		}
		switch {
		case d.Class == model.ClassQuestionBlock:
			blocks = append(blocks, model.NewNodeOrdinal(d, i))
		case d.Class.IsLeaf():
			leaves = append(leaves, i)
		}
	}

	// A leaf may poke past its parent's box by up to the tolerance (in
	// page-dimension fractions) before the attachment is reported.
	tolerance := b.config.ContainmentTolerance * page.Width
	if h := b.config.ContainmentTolerance * page.Height; h > tolerance {
		tolerance = h
	}

	for _, i := range leaves {
		leaf := detections[i]
		parent := b.bestParent(blocks, leaf.BBox)
		if parent == nil {
			orphan := model.NewNodeOrdinal(leaf, i)
			orphan.AddFlag(model.FlagOrphan)
			tree.Orphans = append(tree.Orphans, orphan)
			tree.Issues = append(tree.Issues, model.ValidationIssue{
				NodeID:   orphan.ID,
				Rule:     model.RuleOrphanDetection,
				Severity: model.SeverityWarning,
				Page:     page.Number,
				Detail:   fmt.Sprintf("%s at %+v has no containing question block", leaf.Class, leaf.BBox),
			})
			continue
		}

		child := model.NewNodeOrdinal(leaf, i)
		if !parent.BBox.ContainsBox(leaf.BBox, tolerance) {
			child.AddFlag(model.FlagLooseContainment)
			tree.Issues = append(tree.Issues, model.ValidationIssue{
				NodeID:   child.ID,
				Rule:     model.RuleLooseContainment,
				Severity: model.SeverityWarning,
				Page:     page.Number,
				Detail:   fmt.Sprintf("%s extends beyond its question block by more than the tolerance", leaf.Class),
			})
		}
		parent.Children = append(parent.Children, child)
	}

	tree.Blocks = blocks
	return tree
}

// bestParent returns the block covering the leaf box best, or nil when no
// block covers it at all. Ties within TieEpsilon go to the smaller block.
func (b *Builder) bestParent(blocks []*model.DocumentNode, leaf model.BBox) *model.DocumentNode {
	maxRatio := 0.0
	for _, block := range blocks {
		if ratio := block.BBox.ContainmentRatio(leaf); ratio > maxRatio {
			maxRatio = ratio
		}
	}
	if maxRatio <= 0 || maxRatio < b.config.MinContainment {
		return nil
	}

	// Every block within TieEpsilon of the best ratio is a candidate; the
	// tightest fit among them wins.
	var best *model.DocumentNode
	for _, block := range blocks {
		ratio := block.BBox.ContainmentRatio(leaf)
		if ratio < maxRatio-b.config.TieEpsilon {
			continue
		}
		if best == nil || block.BBox.Area() < best.BBox.Area() {
			best = block
		}
	}
	return best
}
