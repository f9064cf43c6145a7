// Package view holds the three co-derived column sequences of a grid (tree, checked,
// rendered) and the pure reducers that move between snapshots of them.
//
// Every reducer returns a new State built from fresh slices. No two snapshots, and no
// two sequences of one snapshot, share backing arrays.
package view

import (
	"github.com/kailas-cloud/resultgrid/internal/domain/column"
)

// Defaults for a freshly derived view.
const (
	DefaultWidth   = 150
	DefaultVisible = 5
)

// Column is a column descriptor with rendering attributes.
type Column struct {
	Kind     column.Kind `json:"-"`
	Title    string      `json:"title"`
	Key      string      `json:"key"`
	DataKey  string      `json:"dataKey,omitempty"`
	Width    int         `json:"width,omitempty"`
	Visible  bool        `json:"visible"`
	Children []Column    `json:"children,omitempty"`
}

// IsGroup reports whether the column is a group header.
func (c Column) IsGroup() bool { return c.Kind == column.Group }

// Keys returns the key of c and of every descendant.
func (c Column) Keys() []string {
	out := []string{c.Key}
	for _, ch := range c.Children {
		out = append(out, ch.Keys()...)
	}
	return out
}

func (c Column) clone() Column {
	out := c
	out.Children = cloneColumns(c.Children)
	return out
}

func cloneColumns(cols []Column) []Column {
	if cols == nil {
		return nil
	}
	out := make([]Column, len(cols))
	for i, c := range cols {
		out[i] = c.clone()
	}
	return out
}

// Options tune the default view derived from a schema.
type Options struct {
	Width   int
	Visible int
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Visible <= 0 {
		o.Visible = DefaultVisible
	}
	return o
}

// State is one immutable snapshot of the column view.
type State struct {
	tree     []Column
	checked  []Column
	rendered []Column
	width    int
}

// Header converts schema nodes into column descriptors.
func Header(nodes []column.Node, width int) []Column {
	out := make([]Column, 0, len(nodes))
	for _, n := range nodes {
		switch n.Kind() {
		case column.Group:
			out = append(out, Column{
				Kind:     column.Group,
				Title:    n.Title(),
				Key:      n.Key(),
				Visible:  true,
				Children: Header(n.Children(), width),
			})
		case column.Leaf:
			out = append(out, Column{
				Kind:    column.Leaf,
				Title:   n.Title(),
				Key:     n.Key(),
				DataKey: n.DataKey(),
				Width:   width,
				Visible: true,
			})
		}
	}
	return out
}

// Default derives a fresh view: the whole schema goes into the tree, and only the
// first opts.Visible top-level columns are checked and rendered.
func Default(schema column.Schema, opts Options) State {
	opts = opts.withDefaults()
	visible := schema
	if len(visible) > opts.Visible {
		visible = visible[:opts.Visible]
	}
	checked := Header(visible, opts.Width)
	return State{
		tree:     Header(schema, opts.Width),
		checked:  checked,
		rendered: cloneColumns(checked),
		width:    opts.Width,
	}
}

// IsZero reports whether the state was never derived.
func (s State) IsZero() bool { return s.tree == nil && s.checked == nil && s.rendered == nil }

// Tree returns a copy of the full candidate column set.
func (s State) Tree() []Column { return cloneColumns(s.tree) }

// Checked returns a copy of the selected columns in tree form.
func (s State) Checked() []Column { return cloneColumns(s.checked) }

// Rendered returns a copy of the visible columns with live width and order.
func (s State) Rendered() []Column { return cloneColumns(s.rendered) }

// RenderedLeaves returns the rendered leaf columns in display order.
func (s State) RenderedLeaves() []Column {
	var out []Column
	var walk func(cols []Column)
	walk = func(cols []Column) {
		for _, c := range cols {
			if c.IsGroup() {
				walk(c.Children)
				continue
			}
			out = append(out, c)
		}
	}
	walk(s.rendered)
	return out
}

func (s State) with(tree, checked, rendered []Column) State {
	return State{tree: tree, checked: checked, rendered: rendered, width: s.width}
}

// Reorder moves the rendered column at from to position to. Moves touching the pinned
// position 0, identical positions and out-of-range positions are no-ops.
// The tree is reordered by key and rendered is rebuilt from the tree order intersected
// with the checked membership.
func (s State) Reorder(from, to int) (State, bool) {
	n := len(s.rendered)
	if from <= 0 || to <= 0 || from >= n || to >= n || from == to {
		return s, false
	}
	moved := s.rendered[from].Key
	target := s.rendered[to].Key

	tree := cloneColumns(s.tree)
	src := indexOf(tree, moved)
	if src < 0 || indexOf(tree, target) < 0 {
		return s, false
	}
	item := tree[src]
	tree = append(tree[:src], tree[src+1:]...)
	dst := indexOf(tree, target)
	if from < to {
		dst++
	}
	tree = insertAt(tree, dst, item)

	checked := orderLike(tree, s.checked)
	return s.with(tree, checked, s.annotate(checked)), true
}

// Resize sets the width of the rendered column titled title. Unknown titles
// (the column may have been hidden meanwhile) and non-positive widths are no-ops.
func (s State) Resize(title string, width int) (State, bool) {
	if width <= 0 {
		return s, false
	}
	rendered := cloneColumns(s.rendered)
	if !resizeIn(rendered, title, width) {
		return s, false
	}
	return s.with(cloneColumns(s.tree), cloneColumns(s.checked), rendered), true
}

func resizeIn(cols []Column, title string, width int) bool {
	for i := range cols {
		if !cols[i].IsGroup() && cols[i].Title == title {
			cols[i].Width = width
			return true
		}
	}
	for i := range cols {
		if cols[i].IsGroup() && resizeIn(cols[i].Children, title, width) {
			return true
		}
	}
	return false
}

// Select makes keys the new selection. The tree stays the source of truth for order;
// checked is an independent snapshot and rendered keeps widths of columns that stay visible.
// Selecting a group key alone selects all of its children.
func (s State) Select(keys []string) State {
	sel := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		sel[k] = struct{}{}
	}
	checked := filterTree(s.tree, sel)
	return s.with(cloneColumns(s.tree), checked, s.annotate(checked))
}

// Toggle shows or hides one column (leaf or group) by key.
// Unknown keys and toggles that change nothing are no-ops.
func (s State) Toggle(key string, visible bool) (State, bool) {
	node, parent, ok := find(s.tree, key)
	if !ok {
		return s, false
	}
	sel := make(map[string]struct{})
	for _, c := range s.checked {
		for _, k := range c.Keys() {
			sel[k] = struct{}{}
		}
	}
	if visible {
		for _, k := range node.Keys() {
			sel[k] = struct{}{}
		}
		if parent != nil {
			sel[parent.Key] = struct{}{}
		}
	} else {
		for _, k := range node.Keys() {
			delete(sel, k)
		}
		if parent != nil {
			delete(sel, parent.Key)
		}
	}
	checked := filterTree(s.tree, sel)
	if sameKeys(checked, s.checked) {
		return s, false
	}
	return s.with(cloneColumns(s.tree), checked, s.annotate(checked)), true
}

// annotate projects checked into a rendered sequence, carrying widths of columns
// that are already rendered.
func (s State) annotate(checked []Column) []Column {
	widths := make(map[string]int)
	var collect func(cols []Column)
	collect = func(cols []Column) {
		for _, c := range cols {
			if c.Width > 0 {
				widths[c.Key] = c.Width
			}
			collect(c.Children)
		}
	}
	collect(s.rendered)

	var apply func(cols []Column) []Column
	apply = func(cols []Column) []Column {
		if cols == nil {
			return nil
		}
		out := make([]Column, len(cols))
		for i, c := range cols {
			out[i] = c
			out[i].Children = apply(c.Children)
			if c.IsGroup() {
				continue
			}
			if w, ok := widths[c.Key]; ok {
				out[i].Width = w
			} else if out[i].Width <= 0 {
				out[i].Width = s.width
			}
		}
		return out
	}
	return apply(checked)
}

func filterTree(tree []Column, sel map[string]struct{}) []Column {
	out := make([]Column, 0, len(tree))
	for _, c := range tree {
		_, picked := sel[c.Key]
		if !c.IsGroup() {
			if picked {
				out = append(out, c.clone())
			}
			continue
		}
		children := filterTree(c.Children, sel)
		if len(children) == 0 && picked {
			children = cloneColumns(c.Children)
		}
		if len(children) == 0 {
			continue
		}
		g := c
		g.Children = children
		out = append(out, g)
	}
	return out
}

// orderLike returns the members of subset reordered to follow tree.
func orderLike(tree, subset []Column) []Column {
	byKey := make(map[string]Column, len(subset))
	for _, c := range subset {
		byKey[c.Key] = c
	}
	out := make([]Column, 0, len(subset))
	for _, t := range tree {
		if c, ok := byKey[t.Key]; ok {
			out = append(out, c.clone())
		}
	}
	return out
}

func find(cols []Column, key string) (Column, *Column, bool) {
	for i := range cols {
		if cols[i].Key == key {
			return cols[i], nil, true
		}
		for _, ch := range cols[i].Children {
			if ch.Key == key {
				return ch, &cols[i], true
			}
		}
	}
	return Column{}, nil, false
}

func indexOf(cols []Column, key string) int {
	for i, c := range cols {
		if c.Key == key {
			return i
		}
	}
	return -1
}

func insertAt(cols []Column, i int, c Column) []Column {
	cols = append(cols, Column{})
	copy(cols[i+1:], cols[i:])
	cols[i] = c
	return cols
}

func sameKeys(a, b []Column) bool {
	ka, kb := flatKeys(a), flatKeys(b)
	if len(ka) != len(kb) {
		return false
	}
	for i := range ka {
		if ka[i] != kb[i] {
			return false
		}
	}
	return true
}

func flatKeys(cols []Column) []string {
	var out []string
	for _, c := range cols {
		out = append(out, c.Keys()...)
	}
	return out
}
