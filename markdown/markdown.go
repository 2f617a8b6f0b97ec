// Package markdown renders a validated document tree into structured
// Markdown. Each question block becomes a numbered top-level section:
// statement prose and images first, a horizontal rule, then the
// alternatives as a labeled A-E list with each alternative image placed
// directly under its preceding alternative text. Rendering is
// deterministic: the same tree yields byte-identical output.
package markdown

import (
	"fmt"
	"strings"

	"github.com/tsouza/questmd/model"
)

// Options holds configuration for the serializer
type Options struct {
	// QuestionPrefix is the heading prefix for each block.
	// Default: "Questão" (the section reads "# Questão 12").
	QuestionPrefix string

	// AssetDir is the link prefix for image assets. Default: "assets".
	AssetDir string

	// Placeholder is the visible marker emitted for fatal blocks.
	// Default: "[questão não reconstruída]".
	Placeholder string

	// MaxAlternatives caps the labeled list; alternatives flagged as
	// excess are not rendered. Default: 5 (labels A through E).
	MaxAlternatives int
}

// DefaultOptions returns sensible defaults
func DefaultOptions() Options {
	return Options{
		QuestionPrefix:  "Questão",
		AssetDir:        "assets",
		Placeholder:     "[questão não reconstruída]",
		MaxAlternatives: 5,
	}
}

// alternativeLabels covers the maximum label range; MaxAlternatives
// beyond its length falls back to numeric labels.
var alternativeLabels = []string{"A", "B", "C", "D", "E", "F", "G", "H"}

// Serializer renders document trees to Markdown
type Serializer struct {
	opts Options
}

// New creates a serializer with default options
func New() *Serializer {
	return NewWithOptions(DefaultOptions())
}

// NewWithOptions creates a serializer with custom options
func NewWithOptions(opts Options) *Serializer {
	def := DefaultOptions()
	if opts.QuestionPrefix == "" {
		opts.QuestionPrefix = def.QuestionPrefix
	}
	if opts.AssetDir == "" {
		opts.AssetDir = def.AssetDir
	}
	if opts.Placeholder == "" {
		opts.Placeholder = def.Placeholder
	}
	if opts.MaxAlternatives <= 0 {
		opts.MaxAlternatives = def.MaxAlternatives
	}
	return &Serializer{opts: opts}
}

// Render walks the tree in reading order and emits the full document
func (s *Serializer) Render(tree *model.DocumentTree) string {
	var sb strings.Builder
	for i, block := range tree.Blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		s.renderBlock(&sb, block, i+1)
	}
	return sb.String()
}

// renderBlock emits one question section
func (s *Serializer) renderBlock(sb *strings.Builder, block *model.DocumentNode, number int) {
	fmt.Fprintf(sb, "# %s %d\n\n", s.opts.QuestionPrefix, number)

	if block.HasFlag(model.FlagEmptyBlock) {
		sb.WriteString(s.opts.Placeholder + "\n")
		return
	}

	s.renderStatements(sb, block)
	sb.WriteString("---\n\n")
	s.renderAlternatives(sb, block)
}

// renderStatements emits the statement group in order
func (s *Serializer) renderStatements(sb *strings.Builder, block *model.DocumentNode) {
	for _, child := range block.Children {
		switch child.Class {
		case model.ClassStatementText:
			if child.Content.Text != "" {
				sb.WriteString(child.Content.Text + "\n\n")
			}
		case model.ClassStatementImage:
			s.renderImage(sb, child, "")
		}
	}
}

// renderAlternatives emits the labeled list. Alternative images pair with
// the nearest preceding alternative text; images that read before every
// alternative text render first, unlabeled. Excess alternatives and the
// images pairing with them are skipped.
func (s *Serializer) renderAlternatives(sb *strings.Builder, block *model.DocumentNode) {
	rendered := 0
	skipping := false

	for _, child := range block.Children {
		switch child.Class {
		case model.ClassAlternativeText:
			if child.HasFlag(model.FlagExcessAlternative) || rendered >= s.opts.MaxAlternatives {
				skipping = true
				continue
			}
			skipping = false
			fmt.Fprintf(sb, "%s) %s\n", s.label(rendered), child.Content.Text)
			rendered++
		case model.ClassAlternativeImage:
			if skipping {
				continue
			}
			s.renderImage(sb, child, "   ")
		}
	}
}

// renderImage emits one image reference, or nothing when the crop never
// bound (the issue report carries the reason).
func (s *Serializer) renderImage(sb *strings.Builder, node *model.DocumentNode, indent string) {
	if node.Content.AssetPath == "" {
		return
	}
	alt := node.Class.String()
	fmt.Fprintf(sb, "%s![%s](%s/%s)\n", indent, alt, s.opts.AssetDir, node.Content.AssetPath)
	if indent == "" {
		sb.WriteString("\n")
	}
}

// label returns the list label for the nth rendered alternative
func (s *Serializer) label(n int) string {
	if n < len(alternativeLabels) {
		return alternativeLabels[n]
	}
	return fmt.Sprintf("%d", n+1)
}
