// Package validate applies the structural invariants of reconstructed
// question blocks and produces a machine-readable report. Validation
// annotates: it flags nodes and records issues, but never removes a node
// from the tree. Only fatal issues change what the serializer emits,
// replacing the affected block with a placeholder.
package validate

import (
	"fmt"

	"github.com/tsouza/questmd/model"
)

// Config holds configuration for the validator
type Config struct {
	// MaxAlternatives is the number of alternative_text children a block
	// may hold before the extras are flagged. Default: 5 (A through E).
	MaxAlternatives int
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		MaxAlternatives: 5,
	}
}

// Validator checks ordered question blocks against the structural rules
type Validator struct {
	config Config
}

// New creates a validator with default configuration
func New() *Validator {
	return &Validator{config: DefaultConfig()}
}

// NewWithConfig creates a validator with custom configuration
func NewWithConfig(config Config) *Validator {
	if config.MaxAlternatives <= 0 {
		config.MaxAlternatives = DefaultConfig().MaxAlternatives
	}
	return &Validator{config: config}
}

// ValidateBlock checks one ordered question block. Children must already
// carry their OrderIndex; the alternative-image rule is defined in terms
// of reading order, not geometry.
func (v *Validator) ValidateBlock(block *model.DocumentNode) []model.ValidationIssue {
	var issues []model.ValidationIssue

	if len(block.Children) == 0 {
		block.AddFlag(model.FlagEmptyBlock)
		return append(issues, model.ValidationIssue{
			NodeID:   block.ID,
			Rule:     model.RuleEmptyBlock,
			Severity: model.SeverityFatal,
			Page:     block.Page,
			Detail:   "question block has no children of any kind",
		})
	}

	altTexts := block.ChildrenOfClass(model.ClassAlternativeText)

	if len(altTexts) == 0 {
		issues = append(issues, model.ValidationIssue{
			NodeID:   block.ID,
			Rule:     model.RuleMissingAlternative,
			Severity: model.SeverityError,
			Page:     block.Page,
			Detail:   "question block has no alternative_text children",
		})
	}

	if len(altTexts) > v.config.MaxAlternatives {
		block.AddFlag(model.FlagOverCapacity)
		issues = append(issues, model.ValidationIssue{
			NodeID:   block.ID,
			Rule:     model.RuleOverCapacity,
			Severity: model.SeverityError,
			Page:     block.Page,
			Detail:   fmt.Sprintf("%d alternative_text children exceed the maximum of %d", len(altTexts), v.config.MaxAlternatives),
		})
		for _, extra := range altTexts[v.config.MaxAlternatives:] {
			extra.AddFlag(model.FlagExcessAlternative)
			issues = append(issues, model.ValidationIssue{
				NodeID:   extra.ID,
				Rule:     model.RuleExcessAlternative,
				Severity: model.SeverityError,
				Page:     block.Page,
				Detail:   fmt.Sprintf("alternative beyond position %d", v.config.MaxAlternatives),
			})
		}
	}

	// An alternative image must appear at or after some alternative text;
	// one that reads before every alternative text is kept but flagged
	// for manual review.
	firstAltText := -1
	for _, child := range block.Children {
		if child.Class == model.ClassAlternativeText {
			firstAltText = child.OrderIndex
			break
		}
	}
	for _, img := range block.ChildrenOfClass(model.ClassAlternativeImage) {
		if firstAltText < 0 || img.OrderIndex < firstAltText {
			img.AddFlag(model.FlagImageBeforeText)
			issues = append(issues, model.ValidationIssue{
				NodeID:   img.ID,
				Rule:     model.RuleImageBeforeText,
				Severity: model.SeverityWarning,
				Page:     block.Page,
				Detail:   "alternative_image reads before any alternative_text",
			})
		}
	}

	return issues
}

// ValidatePage checks page-level rules: any orphan on a page is an error,
// reported once per page with the count.
func (v *Validator) ValidatePage(page int, orphanCount int) []model.ValidationIssue {
	if orphanCount == 0 {
		return nil
	}
	return []model.ValidationIssue{{
		Rule:     model.RuleOrphansOnPage,
		Severity: model.SeverityError,
		Page:     page,
		Detail:   fmt.Sprintf("%d detections outside any question block", orphanCount),
	}}
}

// MaxAlternatives exposes the configured capacity for the serializer
func (v *Validator) MaxAlternatives() int {
	return v.config.MaxAlternatives
}
