package model

import "fmt"

// Severity classifies how much an issue degrades the reconstruction.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	// SeverityFatal is reserved for structurally impossible blocks; the
	// serializer replaces fatal blocks with a placeholder.
	SeverityFatal
)

// String returns a human-readable severity name
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Rule identifies the pipeline rule an issue was raised under.
type Rule string

const (
	RuleMalformedDetection Rule = "malformed_detection"
	RuleOutOfBounds        Rule = "out_of_bounds"
	RuleOrphanDetection    Rule = "orphan_detection"
	RuleLooseContainment   Rule = "loose_containment"
	RuleSplitQuestion      Rule = "split_question"
	RuleMissingAlternative Rule = "missing_alternatives"
	RuleOverCapacity       Rule = "over_capacity"
	RuleExcessAlternative  Rule = "excess_alternative"
	RuleImageBeforeText    Rule = "image_before_alternatives"
	RuleEmptyBlock         Rule = "empty_block"
	RuleEmptyContent       Rule = "empty_content"
	RuleExtractionTimeout  Rule = "extraction_timeout"
	RuleOrphansOnPage      Rule = "orphans_on_page"
)

// ValidationIssue records one rule violation or degradation. Issues are
// produced throughout the pipeline and accumulated into the final report;
// they are never consumed by later stages except for reporting.
type ValidationIssue struct {
	NodeID   string   `json:"node_id,omitempty" yaml:"node_id,omitempty"`
	Rule     Rule     `json:"rule" yaml:"rule"`
	Severity Severity `json:"severity" yaml:"severity"`
	Page     int      `json:"page,omitempty" yaml:"page,omitempty"`
	Detail   string   `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// String formats the issue for logs and CLI summaries
func (i ValidationIssue) String() string {
	if i.NodeID != "" {
		return fmt.Sprintf("[%s] %s (page %d, node %s): %s", i.Severity, i.Rule, i.Page, i.NodeID, i.Detail)
	}
	return fmt.Sprintf("[%s] %s (page %d): %s", i.Severity, i.Rule, i.Page, i.Detail)
}

// MarshalYAML renders the severity as its name rather than the raw int
func (s Severity) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// MarshalJSON renders the severity as its name rather than the raw int
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}
