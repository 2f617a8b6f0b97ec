// Package bind resolves the content of leaf nodes from the source
// document: text nodes receive the text overlapping their box, image
// nodes a content-addressed crop of their region. Binding degrades
// rather than fails: empty extractions and per-page timeouts produce
// flagged nodes and warnings, never dropped nodes or aborted runs.
package bind

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/tsouza/questmd/model"
	"github.com/tsouza/questmd/source"
)

// Config holds configuration for the content binder
type Config struct {
	// MinTextOverlap is the fraction of a text span's area that must lie
	// inside a node's box for the span to bind to it. Default: 0.9.
	MinTextOverlap float64

	// CropDPI is the rendering resolution for image crops. Default: 300.
	CropDPI int

	// Timeout bounds content extraction for one page. Nodes left
	// unresolved when it expires are flagged extraction_timeout.
	// Default: 5s.
	Timeout time.Duration
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		MinTextOverlap: 0.9,
		CropDPI:        300,
		Timeout:        5 * time.Second,
	}
}

// Binder resolves node content by geometric lookup into the source
type Binder struct {
	config Config
	src    source.Accessor
	assets *AssetStore
}

// New creates a binder with default configuration
func New(src source.Accessor, assets *AssetStore) *Binder {
	return NewWithConfig(src, assets, DefaultConfig())
}

// NewWithConfig creates a binder with custom configuration
func NewWithConfig(src source.Accessor, assets *AssetStore, config Config) *Binder {
	def := DefaultConfig()
	if config.MinTextOverlap <= 0 {
		config.MinTextOverlap = def.MinTextOverlap
	}
	if config.CropDPI <= 0 {
		config.CropDPI = def.CropDPI
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	return &Binder{config: config, src: src, assets: assets}
}

// BindPage resolves content for every leaf under the given blocks, all of
// which must belong to one page. The page's text layer is fetched once
// and shared across its nodes. Extraction is bounded by the configured
// per-page timeout; on expiry the remaining nodes are flagged and binding
// of this page stops, leaving already-bound nodes intact.
func (b *Binder) BindPage(ctx context.Context, page int, blocks []*model.DocumentNode) []model.ValidationIssue {
	ctx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	var leaves []*model.DocumentNode
	for _, block := range blocks {
		for _, child := range block.Children {
			leaves = append(leaves, child)
		}
	}
	if len(leaves) == 0 {
		return nil
	}

	var issues []model.ValidationIssue

	spans, err := b.src.TextSpans(page)
	if err != nil {
		// Without a text layer every text node on the page is empty
		// content; images can still bind.
		issues = append(issues, model.ValidationIssue{
			Rule:     model.RuleEmptyContent,
			Severity: model.SeverityWarning,
			Page:     page,
			Detail:   fmt.Sprintf("text layer unavailable: %v", err),
		})
	}

	for i, node := range leaves {
		if ctx.Err() != nil {
			issues = append(issues, b.flagTimedOut(leaves[i:], page)...)
			break
		}

		if node.Class.IsImage() {
			if issue := b.bindImage(node); issue != nil {
				issues = append(issues, *issue)
			}
			continue
		}
		if issue := b.bindText(node, spans); issue != nil {
			issues = append(issues, *issue)
		}
	}

	return issues
}

// bindText resolves a text node from the page's spans. An empty result is
// kept and flagged: downstream systems may fall back to OCR.
func (b *Binder) bindText(node *model.DocumentNode, spans []source.TextSpan) *model.ValidationIssue {
	hits := source.TextInRegion(spans, node.BBox, b.config.MinTextOverlap)

	parts := make([]string, 0, len(hits))
	for _, span := range hits {
		parts = append(parts, span.Text)
	}
	text := norm.NFC.String(strings.TrimSpace(strings.Join(parts, "\n")))
	node.Content = model.Content{Text: text}

	if text == "" {
		node.AddFlag(model.FlagEmptyContent)
		return &model.ValidationIssue{
			NodeID:   node.ID,
			Rule:     model.RuleEmptyContent,
			Severity: model.SeverityWarning,
			Page:     node.Page,
			Detail:   fmt.Sprintf("%s box yielded no text", node.Class),
		}
	}
	return nil
}

// bindImage crops the node's region and registers it as an asset
func (b *Binder) bindImage(node *model.DocumentNode) *model.ValidationIssue {
	img, err := b.src.CropImage(node.Page, node.BBox, b.config.CropDPI)
	if err != nil {
		node.AddFlag(model.FlagEmptyContent)
		return &model.ValidationIssue{
			NodeID:   node.ID,
			Rule:     model.RuleEmptyContent,
			Severity: model.SeverityWarning,
			Page:     node.Page,
			Detail:   fmt.Sprintf("crop failed: %v", err),
		}
	}

	hash, relPath, err := b.assets.Put(img)
	if err != nil {
		node.AddFlag(model.FlagEmptyContent)
		return &model.ValidationIssue{
			NodeID:   node.ID,
			Rule:     model.RuleEmptyContent,
			Severity: model.SeverityWarning,
			Page:     node.Page,
			Detail:   fmt.Sprintf("asset store: %v", err),
		}
	}

	node.Content = model.Content{AssetHash: hash, AssetPath: relPath}
	return nil
}

// flagTimedOut marks the nodes left unbound when the page deadline expired
func (b *Binder) flagTimedOut(remaining []*model.DocumentNode, page int) []model.ValidationIssue {
	issues := make([]model.ValidationIssue, 0, len(remaining))
	for _, node := range remaining {
		node.AddFlag(model.FlagExtractionTimeout)
		issues = append(issues, model.ValidationIssue{
			NodeID:   node.ID,
			Rule:     model.RuleExtractionTimeout,
			Severity: model.SeverityWarning,
			Page:     page,
			Detail:   "page extraction deadline expired before this node was bound",
		})
	}
	return issues
}
