// Package order assigns reading order to the reconstructed tree.
//
// Root blocks are ordered by (page, column, top edge): the column index is
// derived from each block's horizontal center against the page's column
// boundaries, so two blocks at the same height in different columns read
// left column first. Children inside a block follow the fixed semantic
// order of exam questions: statement nodes always precede alternative
// nodes regardless of geometry, because annotation padding routinely puts
// an alternative image's top edge above the statement box. Within each
// group the order is geometric, top to bottom then left to right.
package order

import (
	"sort"

	"github.com/tsouza/questmd/model"
)

// Resolver assigns OrderIndex values to blocks and their children
type Resolver struct{}

// New creates a reading-order resolver
func New() *Resolver {
	return &Resolver{}
}

// ResolveRoots orders question blocks across the whole document and
// assigns their OrderIndex. The returned slice is a new, sorted slice;
// pages must contain an entry for every block's page.
func (r *Resolver) ResolveRoots(blocks []*model.DocumentNode, pages map[int]*model.Page) []*model.DocumentNode {
	ordered := make([]*model.DocumentNode, len(blocks))
	copy(ordered, blocks)

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		ca, cb := r.columnOf(a, pages), r.columnOf(b, pages)
		if ca != cb {
			return ca < cb
		}
		if a.BBox.Y0 != b.BBox.Y0 {
			return a.BBox.Y0 < b.BBox.Y0
		}
		return a.BBox.X0 < b.BBox.X0
	})

	for i, block := range ordered {
		block.OrderIndex = i
	}
	return ordered
}

// ResolveChildren orders the children of one block and assigns their
// OrderIndex: statements first, then alternatives, each group top-to-
// bottom with left-to-right tie-break.
func (r *Resolver) ResolveChildren(block *model.DocumentNode) {
	sort.SliceStable(block.Children, func(i, j int) bool {
		a, b := block.Children[i], block.Children[j]
		aAlt, bAlt := a.Class.IsAlternative(), b.Class.IsAlternative()
		if aAlt != bAlt {
			return !aAlt // statements precede alternatives
		}
		if a.BBox.Y0 != b.BBox.Y0 {
			return a.BBox.Y0 < b.BBox.Y0
		}
		return a.BBox.X0 < b.BBox.X0
	})

	for i, child := range block.Children {
		child.OrderIndex = i
	}
}

// columnOf returns the column index of a block's horizontal center
func (r *Resolver) columnOf(block *model.DocumentNode, pages map[int]*model.Page) int {
	page, ok := pages[block.Page]
	if !ok {
		return 0
	}
	return page.ColumnIndex(block.BBox.Center().X)
}
