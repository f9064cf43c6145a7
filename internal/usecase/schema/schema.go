// Package schema derives the grid column schema from a representative record.
package schema

import (
	"slices"

	"github.com/kailas-cloud/resultgrid/internal/domain/column"
	"github.com/kailas-cloud/resultgrid/internal/domain/hit"
)

// rootKey prefixes top-level column keys.
const rootKey = "0"

// Derive builds the schema from the first property group of rec. Scalar properties and
// primary-key properties become leaves; object and array-of-object properties become
// groups over the fields of the (unwrapped) nested shape. The column titled pin, if any,
// is moved to index 0.
func Derive(rec *hit.Record, primaryKeys []string, pin string) column.Schema {
	g, ok := rec.FirstGroup()
	if !ok {
		return column.Schema{}
	}
	props := g.Properties().Fields()
	out := make(column.Schema, 0, props.Len())
	i := 0
	props.Each(func(name string, v hit.Value) {
		key := column.ChildKey(rootKey, i)
		i++
		if slices.Contains(primaryKeys, name) {
			out = append(out, column.NewLeaf(name, key))
			return
		}
		if shape, ok := NestedShape(v); ok {
			out = append(out, column.NewGroup(name, key, leaves(shape, key)))
			return
		}
		out = append(out, column.NewLeaf(name, key))
	})
	if pin != "" {
		out = out.PinFirst(pin)
	}
	return out
}

// NestedShape returns the object whose fields describe the columns of a nested value.
// Single-key wrappers ({"Address": {...}}) are unwrapped; arrays take the shape of their
// first element. The boolean is false for values that stay in one leaf, empty objects included.
func NestedShape(v hit.Value) (hit.Value, bool) {
	switch v.Kind() {
	case hit.KindObject:
		if inner, ok := v.Unwrap(); ok {
			v = inner
		}
		return v, v.Len() > 0
	case hit.KindArray:
		items := v.Items()
		if len(items) == 0 || items[0].Kind() != hit.KindObject {
			return hit.Value{}, false
		}
		return NestedShape(items[0])
	default:
		return hit.Value{}, false
	}
}

func leaves(shape hit.Value, parent string) []column.Node {
	fields := shape.Fields()
	out := make([]column.Node, 0, fields.Len())
	j := 0
	fields.Each(func(name string, _ hit.Value) {
		out = append(out, column.NewLeaf(name, column.ChildKey(parent, j)))
		j++
	})
	return out
}

// Reason explains why the column view was rebuilt.
type Reason string

// Reset reasons.
const (
	ReasonNone          Reason = ""
	ReasonInitial       Reason = "initial"
	ReasonAllEntities   Reason = "all_entities"
	ReasonFilterChanged Reason = "filter_changed"
	ReasonSchemaChanged Reason = "schema_changed"
)

// Decide reports whether derived replaces prev. All-entities mode always rebuilds;
// otherwise a rebuild happens on the first derivation, on a filter change, or when the
// structures differ.
func Decide(prev, derived column.Schema, hadView, allEntities, filterChanged bool) Reason {
	switch {
	case allEntities:
		return ReasonAllEntities
	case !hadView:
		return ReasonInitial
	case filterChanged:
		return ReasonFilterChanged
	case !prev.Equal(derived):
		return ReasonSchemaChanged
	default:
		return ReasonNone
	}
}
