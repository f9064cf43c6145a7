// Package detail models the expanded view of one record: a property tree
// and the expand affordance shown per row during a render pass.
package detail

import (
	"github.com/kailas-cloud/resultgrid/internal/domain/nav"
	"github.com/kailas-cloud/resultgrid/internal/domain/row"
)

// Item is one line of the detail list. Nested objects carry children and a drill-in link.
type Item struct {
	Key      string    `json:"key"`
	Property string    `json:"property"`
	Value    string    `json:"value,omitempty"`
	Depth    int       `json:"depth"`
	Link     *nav.Link `json:"view,omitempty"`
	Children []Item    `json:"children,omitempty"`
}

// IsParent reports whether the item expands into a subtree.
func (i Item) IsParent() bool { return len(i.Children) > 0 || i.Link != nil }

// Count returns the number of items in the list including all descendants.
func Count(items []Item) int {
	n := len(items)
	for _, it := range items {
		n += Count(it.Children)
	}
	return n
}

// HeaderColumn is a fixed column of the detail table.
type HeaderColumn struct {
	Title        string `json:"title"`
	DataKey      string `json:"dataKey"`
	WidthPercent int    `json:"widthPercent"`
}

// Header returns the columns of the nested detail table.
func Header() []HeaderColumn {
	return []HeaderColumn{
		{Title: "Property", DataKey: "property", WidthPercent: 30},
		{Title: "Value", DataKey: "value", WidthPercent: 30},
		{Title: "View", DataKey: "view", WidthPercent: 30},
	}
}

// Control is the expand affordance of one display row.
type Control struct {
	Show     bool `json:"show"`
	Expanded bool `json:"expanded"`
}

// Pass tracks expand controls for one render pass over the rows.
// Only the first anchor row of a primary key gets a control; later rows of the
// same record (span siblings or repeats) are suppressed until the next pass.
type Pass struct {
	expanded map[string]bool
	seen     map[string]struct{}
}

// NewPass starts a render pass. expanded holds the primary keys currently expanded.
func NewPass(expanded map[string]bool) *Pass {
	return &Pass{expanded: expanded, seen: make(map[string]struct{})}
}

// Control returns the expand control of r and records it as rendered.
func (p *Pass) Control(r *row.Row) Control {
	if !r.IsAnchor() {
		return Control{}
	}
	pk := r.PrimaryKey.Value
	if _, ok := p.seen[pk]; ok {
		return Control{}
	}
	p.seen[pk] = struct{}{}
	return Control{Show: true, Expanded: p.expanded[pk]}
}
