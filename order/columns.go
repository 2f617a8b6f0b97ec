package order

import (
	"sort"

	"github.com/tsouza/questmd/model"
)

// ColumnConfig holds configuration for column boundary inference
type ColumnConfig struct {
	// MinGapWidth is the minimum horizontal whitespace between box
	// clusters to count as a column separator. Default: 20 points.
	MinGapWidth float64

	// MaxColumns is the maximum number of columns to infer. Default: 3;
	// exam booklets are one- or two-column, three covers the odd insert.
	MaxColumns int
}

// DefaultColumnConfig returns sensible default configuration
func DefaultColumnConfig() ColumnConfig {
	return ColumnConfig{
		MinGapWidth: 20.0,
		MaxColumns:  3,
	}
}

// slab is a horizontal range covered by at least one box
type slab struct {
	left, right float64
}

// InferColumnBoundaries derives column separator X coordinates from the
// horizontal extents of a page's question blocks. It merges the blocks'
// X ranges into covered slabs and places one boundary at the center of
// each sufficiently wide uncovered gap. Returns nil for a single-column
// page. Use when no external column layout is supplied.
func InferColumnBoundaries(boxes []model.BBox, config ColumnConfig) []float64 {
	if len(boxes) < 2 {
		return nil
	}

	slabs := make([]slab, 0, len(boxes))
	for _, b := range boxes {
		slabs = append(slabs, slab{left: b.X0, right: b.X1})
	}
	sort.Slice(slabs, func(i, j int) bool {
		return slabs[i].left < slabs[j].left
	})

	merged := mergeSlabs(slabs)

	var boundaries []float64
	for i := 0; i < len(merged)-1; i++ {
		gap := merged[i+1].left - merged[i].right
		if gap >= config.MinGapWidth {
			boundaries = append(boundaries, merged[i].right+gap/2)
		}
	}

	if config.MaxColumns > 0 && len(boundaries) > config.MaxColumns-1 {
		boundaries = boundaries[:config.MaxColumns-1]
	}
	return boundaries
}

// mergeSlabs merges overlapping or adjacent horizontal slabs
func mergeSlabs(slabs []slab) []slab {
	if len(slabs) == 0 {
		return nil
	}

	merged := []slab{slabs[0]}
	for _, current := range slabs[1:] {
		last := &merged[len(merged)-1]
		if current.left <= last.right {
			if current.right > last.right {
				last.right = current.right
			}
		} else {
			merged = append(merged, current)
		}
	}
	return merged
}
