// Package parse normalizes a search result envelope into records for the grid.
package parse

import (
	"slices"
	"time"

	"github.com/kailas-cloud/resultgrid/internal/domain/envelope"
	"github.com/kailas-cloud/resultgrid/internal/domain/hit"
)

// Options bound the projection.
type Options struct {
	// MaxRecords caps the number of hits kept (0 = unlimited).
	MaxRecords int
}

// Result is the uniform projection of one envelope.
type Result struct {
	Records []hit.Record
	// PrimaryKeys holds the primary-key field names of the entity definitions in scope.
	PrimaryKeys []string
	// EntityTitle is the primary-key property of the representative (first) record's
	// entity type, used to pin its column.
	EntityTitle string
	// Malformed lists URIs of hits whose property groups could not be read.
	Malformed []string
	Truncated bool
}

// IsPrimaryKey reports whether name is a primary-key field of an entity in scope.
func (r *Result) IsPrimaryKey(name string) bool { return slices.Contains(r.PrimaryKeys, name) }

// Parse projects env onto records. filters holds the selected entity type names;
// an empty filter means all entity types. Malformed hits are kept with whatever
// fields could be read.
func Parse(env *envelope.Envelope, filters []string, opts Options) Result {
	res := Result{}
	inScope := func(entity string) bool {
		return len(filters) == 0 || slices.Contains(filters, entity)
	}

	for _, d := range env.EntityDefinitions {
		if d.PrimaryKey == "" || !inScope(d.Name) || slices.Contains(res.PrimaryKeys, d.PrimaryKey) {
			continue
		}
		res.PrimaryKeys = append(res.PrimaryKeys, d.PrimaryKey)
	}
	hits := env.Results
	if opts.MaxRecords > 0 && len(hits) > opts.MaxRecords {
		hits = hits[:opts.MaxRecords]
		res.Truncated = true
	}

	res.Records = make([]hit.Record, 0, len(hits))
	for i := range hits {
		rec, ok := project(&hits[i], inScope)
		if !ok {
			res.Malformed = append(res.Malformed, hits[i].URI)
		}
		res.Records = append(res.Records, rec)
	}
	if len(filters) > 0 {
		res.EntityTitle = pinnedKey(env, res.Records, filters[0])
	}
	return res
}

// pinnedKey returns the primary-key property of the entity the schema is derived from:
// the first property group of the first record, else fallback.
func pinnedKey(env *envelope.Envelope, records []hit.Record, fallback string) string {
	entity := fallback
	if len(records) > 0 {
		if g, ok := records[0].FirstGroup(); ok {
			entity = g.Entity()
		} else if name := records[0].EntityName(); name != "" {
			entity = name
		}
	}
	if pk, ok := env.PrimaryKeyOf(entity); ok {
		return pk
	}
	return ""
}

func project(h *envelope.Hit, inScope func(string) bool) (hit.Record, bool) {
	groups, ok := propertyGroups(h.EntityProperties, inScope)

	entity := h.EntityName
	if entity == "" && len(groups) > 0 {
		entity = groups[0].Entity()
	}

	var pk hit.Identifier
	if h.PrimaryKey != nil {
		pk = hit.Identifier{Name: h.PrimaryKey.PropertyPath, Value: h.PrimaryKey.ValueText()}
		if !pk.IsURI() && pk.Value == "" && len(groups) > 0 {
			if v, found := groups[0].Properties().Fields().Get(pk.Name); found && v.IsScalar() {
				pk.Value = v.Text()
			}
		}
	}

	return hit.New(h.URI, h.Format, entity, parseTime(h.CreatedOn), pk, groups), ok
}

// propertyGroups reads the entity → group(s) mapping of a hit. Each object is one group;
// an array contributes one group per element.
func propertyGroups(raw []byte, inScope func(string) bool) ([]hit.PropertyGroup, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	v, err := hit.Decode(raw)
	if err != nil || v.Kind() != hit.KindObject {
		return nil, false
	}

	var (
		groups []hit.PropertyGroup
		ok     = true
	)
	v.Fields().Each(func(entity string, props hit.Value) {
		if !inScope(entity) {
			return
		}
		switch props.Kind() {
		case hit.KindObject:
			groups = append(groups, hit.NewPropertyGroup(entity, props))
		case hit.KindArray:
			for _, it := range props.Items() {
				if it.Kind() != hit.KindObject {
					ok = false
				}
				groups = append(groups, hit.NewPropertyGroup(entity, it))
			}
		default:
			ok = false
		}
	})
	return groups, ok
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseTime(s string) time.Time {
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
