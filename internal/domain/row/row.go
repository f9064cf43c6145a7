// Package row holds the flattened display rows of the grid.
package row

import (
	"slices"

	"github.com/kailas-cloud/resultgrid/internal/domain/hit"
	"github.com/kailas-cloud/resultgrid/internal/domain/nav"
)

// Long cell values get a truncated tooltip.
const (
	TooltipThreshold = 50
	TooltipMaxChars  = 301
	TooltipSuffix    = "...\n\n(View document details to see all of this text.)"
)

// Cell is the display content of one grid cell.
type Cell struct {
	Text    string `json:"text"`
	Tooltip string `json:"tooltip,omitempty"`
}

// NewCell creates a cell, attaching a truncated tooltip to long text.
func NewCell(text string) Cell {
	c := Cell{Text: text}
	r := []rune(text)
	if len(r) > TooltipThreshold {
		n := min(len(r), TooltipMaxChars)
		c.Tooltip = string(r[:n]) + TooltipSuffix
	}
	return c
}

// Group links sibling rows produced from one array element each of the same parent record.
type Group struct {
	ID      int
	Anchor  bool
	Size    int
	Columns []string
}

// Owns reports whether dataKey belongs to the nested group.
func (g *Group) Owns(dataKey string) bool {
	return slices.Contains(g.Columns, dataKey)
}

// Row is one flattened projection of a record or of one element of its nested array.
type Row struct {
	Key        int
	PrimaryKey hit.Identifier
	Cells      map[string]Cell
	Links      [2]nav.Link
	Group      *Group
	Nested     hit.Value
}

// Cell returns the cell for dataKey (empty when absent, e.g. shape drift).
func (r *Row) Cell(dataKey string) Cell {
	return r.Cells[dataKey]
}

// Span returns the visual row-span of the cell in column dataKey.
// Anchor rows report the sibling count for nested-group columns, other siblings 0;
// every other column spans 1.
func (r *Row) Span(dataKey string) int {
	if r.Group == nil || !r.Group.Owns(dataKey) {
		return 1
	}
	if r.Group.Anchor {
		return r.Group.Size
	}
	return 0
}

// IsAnchor reports whether the row is a group anchor or stands alone.
func (r *Row) IsAnchor() bool {
	return r.Group == nil || r.Group.Anchor
}

// Clone returns a deep copy of the row's mutable parts.
func (r *Row) Clone() Row {
	out := *r
	out.Cells = make(map[string]Cell, len(r.Cells))
	for k, v := range r.Cells {
		out.Cells[k] = v
	}
	if r.Group != nil {
		g := *r.Group
		g.Columns = slices.Clone(r.Group.Columns)
		out.Group = &g
	}
	return out
}
