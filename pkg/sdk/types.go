package resultgrid

import "encoding/json"

// Column is a display column. Group columns carry Children and no DataKey.
type Column struct {
	Title    string
	Key      string
	DataKey  string
	Width    int
	Visible  bool
	Children []Column
}

// IsGroup reports whether the column heads a nested group.
func (c Column) IsGroup() bool { return len(c.Children) > 0 }

// Cell is the display content of one grid cell.
type Cell struct {
	Text    string
	Tooltip string // set for long values
}

// Link is a navigation target; State carries a nested object for drill-in views.
type Link struct {
	Path  string
	Mode  string // "instance" or "source"
	State json.RawMessage
}

// PrimaryKey identifies the record a row came from. Name is "uri" for records
// without a modelled primary key.
type PrimaryKey struct {
	Name  string
	Value string
}

// Row is one display row.
type Row struct {
	Key        int
	PrimaryKey PrimaryKey
	Cells      map[string]Cell
	Spans      map[string]int
	Links      []Link // instance, source
	GroupID    int    // -1 when the row is not part of a nested group
	Anchor     bool
	ShowExpand bool
	Expanded   bool
}

// Span returns the row span for dataKey: 0 hides the cell under the anchor row above.
func (r Row) Span(dataKey string) int {
	if s, ok := r.Spans[dataKey]; ok {
		return s
	}
	return 1
}

// View is the render model of a session after one call.
type View struct {
	SessionID   string
	Filters     []string
	AllEntities bool
	Columns     []Column // rendered
	Tree        []Column // everything selectable
	Checked     []Column // current selection
	Rows        []Row
	Records     int
	Malformed   int
}

// DetailItem is one property of an expanded record.
type DetailItem struct {
	Key      string
	Property string
	Value    string
	Depth    int
	Link     *Link
	Children []DetailItem
}
