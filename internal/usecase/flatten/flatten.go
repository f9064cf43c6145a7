// Package flatten projects records onto display rows against a column schema.
package flatten

import (
	"slices"
	"time"

	"github.com/kailas-cloud/resultgrid/internal/domain/column"
	"github.com/kailas-cloud/resultgrid/internal/domain/hit"
	"github.com/kailas-cloud/resultgrid/internal/domain/nav"
	"github.com/kailas-cloud/resultgrid/internal/domain/row"
	"github.com/kailas-cloud/resultgrid/internal/usecase/schema"
)

// Data keys of the built-in cells.
var (
	KeyIdentifier = column.DataKey("Identifier")
	KeyEntity     = column.DataKey("Entity")
	KeyFileType   = column.DataKey("File Type")
	KeyCreated    = column.DataKey("Created")
	KeyDetailView = column.DataKey("Detail View")
)

// DateFormatter renders a creation timestamp for display.
type DateFormatter func(time.Time) string

// Layout returns a DateFormatter using a time layout. Zero timestamps render empty.
func Layout(layout string) DateFormatter {
	return func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(layout)
	}
}

// Options control one flatten call.
type Options struct {
	// AllEntities selects the fixed identifier/entity/file type/created projection.
	AllEntities bool
	// PrimaryKeys are property names always copied as scalars.
	PrimaryKeys []string
	FormatDate  DateFormatter
}

// state is threaded through one call; counters restart on every call.
type state struct {
	opts    Options
	schema  column.Schema
	nested  bool
	rowKey  int
	groupID int
}

// Rows flattens records against s. In nested mode (s has group columns) an array of
// single-key wrapper objects drives row expansion: every element becomes a row sharing
// one group id, the first of them being the span anchor. The driver is the wrapper array
// named like a schema group, else the first wrapper array. Single nested objects and
// other wrapper arrays are merged into the record's row; arrays of scalars render as
// JSON text in their own column.
func Rows(records []hit.Record, s column.Schema, opts Options) []row.Row {
	if opts.FormatDate == nil {
		opts.FormatDate = Layout(time.RFC3339)
	}
	st := &state{opts: opts, schema: s, nested: s.HasGroups()}
	out := make([]row.Row, 0, len(records))
	for i := range records {
		out = st.flatten(out, &records[i])
	}
	return out
}

func (st *state) base(rec *hit.Record) row.Row {
	pk := rec.PrimaryKey()
	r := row.Row{
		PrimaryKey: pk,
		Cells:      make(map[string]row.Cell),
		Links:      nav.DetailLinks(pk, rec.URI()),
	}
	r.Cells[KeyCreated] = row.NewCell(st.opts.FormatDate(rec.CreatedOn()))
	r.Cells[KeyDetailView] = row.Cell{Text: r.Links[0].Path}
	if st.opts.AllEntities || pk.IsURI() {
		r.Cells[KeyIdentifier] = identifier(rec)
	}
	return r
}

func identifier(rec *hit.Record) row.Cell {
	pk := rec.PrimaryKey()
	if pk.IsURI() {
		return row.Cell{Text: ".../" + rec.DocumentName(), Tooltip: rec.URI()}
	}
	return row.NewCell(pk.Value)
}

func (st *state) flatten(out []row.Row, rec *hit.Record) []row.Row {
	r := st.base(rec)

	if st.opts.AllEntities {
		r.Cells[KeyEntity] = row.NewCell(rec.EntityName())
		r.Cells[KeyFileType] = row.NewCell(rec.Format())
		return append(out, st.keyed(r))
	}

	g, ok := rec.FirstGroup()
	if !ok {
		return append(out, st.keyed(r))
	}

	var (
		nestedObjects []namedValue
		arrays        []namedValue
	)
	g.Properties().Fields().Each(func(name string, v hit.Value) {
		if !v.IsComposite() || slices.Contains(st.opts.PrimaryKeys, name) {
			r.Cells[column.DataKey(name)] = row.NewCell(v.Text())
			return
		}
		shape, ok := schema.NestedShape(v)
		if !ok {
			r.Cells[column.DataKey(name)] = row.NewCell(v.Text())
			return
		}
		if !st.nested {
			if r.Nested.Kind() == hit.KindNull {
				r.Nested = v
			}
			return
		}
		if v.Kind() == hit.KindArray {
			arrays = append(arrays, namedValue{name: name, value: v, shape: shape})
			return
		}
		nestedObjects = append(nestedObjects, namedValue{name: name, value: v, shape: shape})
	})

	for _, o := range nestedObjects {
		merge(&r, o.name, o.shape)
	}

	driver := st.pickDriver(arrays)
	for i, a := range arrays {
		if i != driver {
			merge(&r, a.name, a.shape)
		}
	}
	if driver < 0 {
		return append(out, st.keyed(r))
	}

	d := arrays[driver]
	items := d.value.Items()
	cols := st.groupColumns(d.name, items[0])
	for i, it := range items {
		sib := r.Clone()
		if shape, ok := schema.NestedShape(it); ok {
			merge(&sib, d.name, shape)
		}
		sib.Group = &row.Group{
			ID:      st.groupID,
			Anchor:  i == 0,
			Size:    len(items),
			Columns: slices.Clone(cols),
		}
		sib.Nested = d.value
		out = append(out, st.keyed(sib))
	}
	st.groupID++
	return out
}

// namedValue is a composite property with the object shape describing its columns.
type namedValue struct {
	name  string
	value hit.Value
	shape hit.Value
}

// pickDriver returns the index of the wrapper array that expands into rows, or -1.
func (st *state) pickDriver(arrays []namedValue) int {
	if len(arrays) == 0 {
		return -1
	}
	for i, a := range arrays {
		if st.isGroup(a.name) {
			return i
		}
	}
	return 0
}

func (st *state) isGroup(title string) bool {
	for _, n := range st.schema {
		if n.Kind() == column.Group && n.Title() == title {
			return true
		}
	}
	return false
}

func (st *state) keyed(r row.Row) row.Row {
	r.Key = st.rowKey
	st.rowKey++
	return r
}

// groupColumns returns the data keys owned by the nested group named title. The schema
// is authoritative; records whose shape is not in the schema fall back to their first element.
func (st *state) groupColumns(title string, first hit.Value) []string {
	for _, n := range st.schema {
		if n.Kind() == column.Group && n.Title() == title {
			var keys []string
			for _, l := range n.Leaves() {
				keys = append(keys, l.DataKey())
			}
			return keys
		}
	}
	shape, ok := schema.NestedShape(first)
	if !ok {
		return nil
	}
	names := shape.Fields().Names()
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = column.ChildDataKey(title, n)
	}
	return keys
}

// merge copies the fields of a nested shape into r under the group namespace;
// nested composites render as JSON text.
func merge(r *row.Row, group string, shape hit.Value) {
	shape.Fields().Each(func(name string, v hit.Value) {
		r.Cells[column.ChildDataKey(group, name)] = row.NewCell(v.Text())
	})
}
