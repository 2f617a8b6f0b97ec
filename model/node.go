package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Flag marks a node condition detected during validation or content
// binding. Flags annotate; they never remove a node from the tree.
type Flag string

const (
	FlagOrphan            Flag = "orphan"
	FlagLooseContainment  Flag = "loose_containment"
	FlagOverCapacity      Flag = "over_capacity"
	FlagExcessAlternative Flag = "excess_alternative"
	FlagImageBeforeText   Flag = "image_before_alternatives"
	FlagEmptyBlock        Flag = "empty_block"
	FlagEmptyContent      Flag = "empty_content"
	FlagExtractionTimeout Flag = "extraction_timeout"
	FlagSplitQuestion     Flag = "split_question"
)

// Content is the payload resolved for a leaf node by the content binder.
// Text nodes carry Text; image nodes carry the asset reference fields.
type Content struct {
	Text string // extracted text, NFC-normalized

	// AssetHash is the content-addressed identifier of an image crop
	// (blake3 over the encoded pixels). Identical crops share one hash.
	AssetHash string
	// AssetPath is the relative path of the registered asset, suitable
	// for use as a Markdown link target.
	AssetPath string
}

// IsZero reports whether no content has been bound yet
func (c Content) IsZero() bool {
	return c.Text == "" && c.AssetHash == ""
}

// DocumentNode is the hierarchical unit of the reconstructed document.
// Only question-block nodes have children; the four leaf classes never do.
type DocumentNode struct {
	ID         string  // stable unique identifier
	Class      Class   // one of the five detection classes
	BBox       BBox    // absolute page coordinates
	Page       int     // 1-indexed page number
	Confidence float64 // detector confidence carried from the detection

	// OrderIndex is the reading-order position assigned by the resolver:
	// among root blocks for question blocks, within the parent block for
	// leaves. -1 until assigned.
	OrderIndex int

	Children []*DocumentNode // ordered; empty for leaf classes
	Content  Content         // populated by the content binder
	Flags    []Flag          // annotations; see Flag constants
}

// nodeNamespace seeds name-based node identifiers
var nodeNamespace = uuid.MustParse("6f1c24b8-9a3e-45d0-8c57-2b61e0a4f9d3")

// NewNode creates a node for a detection with an unassigned order index.
// Equivalent to NewNodeOrdinal with ordinal 0.
func NewNode(d Detection) *DocumentNode {
	return NewNodeOrdinal(d, 0)
}

// NewNodeOrdinal creates a node whose identifier is derived from the
// detection and its ordinal position among the page's normalized
// detections. Identical input therefore yields identical identifiers on
// every run; the ordinal keeps duplicate detections distinct.
func NewNodeOrdinal(d Detection, ordinal int) *DocumentNode {
	name := fmt.Sprintf("%d|%d|%d|%g|%g|%g|%g|%g",
		d.Page, d.Class, ordinal,
		d.BBox.X0, d.BBox.Y0, d.BBox.X1, d.BBox.Y1, d.Confidence)
	return &DocumentNode{
		ID:         uuid.NewSHA1(nodeNamespace, []byte(name)).String(),
		Class:      d.Class,
		BBox:       d.BBox,
		Page:       d.Page,
		Confidence: d.Confidence,
		OrderIndex: -1,
	}
}

// AddFlag appends a flag if the node does not already carry it
func (n *DocumentNode) AddFlag(f Flag) {
	for _, existing := range n.Flags {
		if existing == f {
			return
		}
	}
	n.Flags = append(n.Flags, f)
}

// HasFlag reports whether the node carries the given flag
func (n *DocumentNode) HasFlag(f Flag) bool {
	for _, existing := range n.Flags {
		if existing == f {
			return true
		}
	}
	return false
}

// ChildrenOfClass returns the node's children of the given class in order
func (n *DocumentNode) ChildrenOfClass(c Class) []*DocumentNode {
	var out []*DocumentNode
	for _, child := range n.Children {
		if child.Class == c {
			out = append(out, child)
		}
	}
	return out
}

// Walk visits the node and all descendants depth-first in child order
func (n *DocumentNode) Walk(fn func(*DocumentNode)) {
	fn(n)
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// DocumentTree is the reconstructed document: question blocks in reading
// order at the root, plus every issue accumulated along the pipeline. The
// tree is the sole owner of its nodes; no node is shared across trees.
type DocumentTree struct {
	Blocks []*DocumentNode   // question blocks ordered by (page, column, y)
	Issues []ValidationIssue // full report, never silently truncated
}

// Walk visits every node of every block depth-first in document order
func (t *DocumentTree) Walk(fn func(*DocumentNode)) {
	for _, block := range t.Blocks {
		block.Walk(fn)
	}
}

// IssuesForNode returns the issues recorded against a node
func (t *DocumentTree) IssuesForNode(id string) []ValidationIssue {
	var out []ValidationIssue
	for _, issue := range t.Issues {
		if issue.NodeID == id {
			out = append(out, issue)
		}
	}
	return out
}

// HasFatal reports whether any issue in the tree is fatal
func (t *DocumentTree) HasFatal() bool {
	for _, issue := range t.Issues {
		if issue.Severity == SeverityFatal {
			return true
		}
	}
	return false
}
