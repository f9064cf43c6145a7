// Package expand builds the detail list shown when a grid row is expanded.
package expand

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/resultgrid/internal/domain"
	"github.com/kailas-cloud/resultgrid/internal/domain/detail"
	"github.com/kailas-cloud/resultgrid/internal/domain/hit"
	"github.com/kailas-cloud/resultgrid/internal/domain/nav"
)

// Find returns the first record whose primary key value is pk.
func Find(records []hit.Record, pk string) (*hit.Record, error) {
	for i := range records {
		if records[i].PrimaryKey().Value == pk {
			return &records[i], nil
		}
	}
	return nil, fmt.Errorf("primary key %q: %w", pk, domain.ErrRecordNotFound)
}

// Detail walks the first property group of the record identified by pk.
// Nested objects and arrays become parent items with children and a drill-in link;
// array elements are named by index.
func Detail(records []hit.Record, pk string) ([]detail.Item, error) {
	rec, err := Find(records, pk)
	if err != nil {
		return nil, err
	}
	g, ok := rec.FirstGroup()
	if !ok {
		return []detail.Item{}, nil
	}
	w := walker{path: nav.DetailPath(rec.PrimaryKey(), rec.URI())}
	return w.walk(g.Properties(), 0), nil
}

type walker struct {
	path string
	next int
}

func (w *walker) walk(v hit.Value, depth int) []detail.Item {
	var out []detail.Item
	visit := func(name string, child hit.Value) {
		it := detail.Item{Key: strconv.Itoa(w.next), Property: name, Depth: depth}
		w.next++
		if child.IsComposite() {
			link := nav.Nested(w.path, child)
			it.Link = &link
			it.Children = w.walk(child, depth+1)
		} else {
			it.Value = child.Text()
		}
		out = append(out, it)
	}
	switch v.Kind() {
	case hit.KindObject:
		v.Fields().Each(visit)
	case hit.KindArray:
		for i, it := range v.Items() {
			visit(strconv.Itoa(i), it)
		}
	}
	if out == nil {
		out = []detail.Item{}
	}
	return out
}
