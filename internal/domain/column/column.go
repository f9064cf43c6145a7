// Package column models the grid column schema as a tree of leaf and group nodes.
package column

import (
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind distinguishes leaf columns from group columns.
type Kind int

const (
	// Leaf is a column that holds cell values.
	Leaf Kind = iota
	// Group is a header over child columns derived from a nested sub-object.
	Group
)

func (k Kind) String() string {
	if k == Group {
		return "group"
	}
	return "leaf"
}

// DataKey derives the row field key for a column title: lower-cased, spaces removed.
// A Caser is stateful, so one is built per call.
func DataKey(title string) string {
	return cases.Lower(language.Und).String(strings.ReplaceAll(title, " ", ""))
}

// ChildDataKey derives the row field key of a field nested under group, so that
// nested fields never collide with top-level ones ("addresses.city").
func ChildDataKey(group, title string) string {
	return DataKey(group) + "." + DataKey(title)
}

// Node is one column schema node (immutable value object).
type Node struct {
	kind     Kind
	title    string
	key      string
	group    string // title of the enclosing group, "" at top level
	children []Node
}

// NewLeaf creates a leaf column.
func NewLeaf(title, key string) Node {
	return Node{kind: Leaf, title: title, key: key}
}

// NewGroup creates a group column over the given children. Child data keys are
// namespaced by the group title.
func NewGroup(title, key string, children []Node) Node {
	cp := make([]Node, len(children))
	for i, c := range children {
		c.group = title
		cp[i] = c
	}
	return Node{kind: Group, title: title, key: key, children: cp}
}

// Kind returns the variant tag.
func (n Node) Kind() Kind { return n.kind }

// Title returns the display title.
func (n Node) Title() string { return n.title }

// Key returns the stable tree key.
func (n Node) Key() string { return n.key }

// DataKey returns the row field key of a leaf ("" for groups).
func (n Node) DataKey() string {
	if n.kind == Group {
		return ""
	}
	if n.group != "" {
		return ChildDataKey(n.group, n.title)
	}
	return DataKey(n.title)
}

// Children returns a copy of the child nodes of a group.
func (n Node) Children() []Node {
	cp := make([]Node, len(n.children))
	copy(cp, n.children)
	return cp
}

// Leaves returns the leaf nodes under n in depth-first order (n itself for a leaf).
func (n Node) Leaves() []Node {
	if n.kind == Leaf {
		return []Node{n}
	}
	var out []Node
	for _, c := range n.children {
		out = append(out, c.Leaves()...)
	}
	return out
}

type nodeJSON struct {
	Title    string     `json:"title"`
	Key      string     `json:"key"`
	DataKey  string     `json:"dataKey,omitempty"`
	Children []nodeJSON `json:"children,omitempty"`
}

func (n Node) toJSON() nodeJSON {
	out := nodeJSON{Title: n.title, Key: n.key, DataKey: n.DataKey()}
	for _, c := range n.children {
		out.Children = append(out.Children, c.toJSON())
	}
	return out
}

// MarshalJSON encodes the structural part of the node (title, key, children).
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.toJSON())
}

// Schema is an ordered sequence of top-level column nodes.
type Schema []Node

// HasGroups reports whether any top-level node is a group (nested mode).
func (s Schema) HasGroups() bool {
	for _, n := range s {
		if n.kind == Group {
			return true
		}
	}
	return false
}

// Leaves returns all leaves in display order.
func (s Schema) Leaves() []Node {
	var out []Node
	for _, n := range s {
		out = append(out, n.Leaves()...)
	}
	return out
}

// Fingerprint returns the JSON serialization of the schema structure.
func (s Schema) Fingerprint() string {
	nodes := make([]nodeJSON, len(s))
	for i, n := range s {
		nodes[i] = n.toJSON()
	}
	b, err := json.Marshal(nodes)
	if err != nil {
		return ""
	}
	return string(b)
}

// Equal reports whether two schemas are structurally identical.
func (s Schema) Equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	return s.Fingerprint() == other.Fingerprint()
}

// PinFirst moves the first top-level node titled title to index 0.
// Other nodes keep their relative order; a missing title leaves the schema unchanged.
func (s Schema) PinFirst(title string) Schema {
	out := make(Schema, 0, len(s))
	idx := -1
	for i, n := range s {
		if n.title == title {
			idx = i
			break
		}
	}
	if idx < 0 {
		return append(out, s...)
	}
	out = append(out, s[idx])
	out = append(out, s[:idx]...)
	return append(out, s[idx+1:]...)
}

// Fixed keys of the all-entities schema.
const (
	KeyIdentifier = "0-i"
	KeyEntity     = "0-1"
	KeyFileType   = "0-2"
	KeyCreated    = "0-c"
	KeyDetailView = "0-d"
)

// AllEntities returns the built-in schema used when no entity filter is active.
func AllEntities() Schema {
	return Schema{
		NewLeaf("Identifier", KeyIdentifier),
		NewLeaf("Entity", KeyEntity),
		NewLeaf("File Type", KeyFileType),
		NewLeaf("Created", KeyCreated),
		NewLeaf("Detail View", KeyDetailView),
	}
}

// ChildKey builds the tree key of the i-th child under parent.
func ChildKey(parent string, i int) string {
	return parent + "-" + strconv.Itoa(i)
}
