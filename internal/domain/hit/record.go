package hit

import (
	"strings"
	"time"
)

// URIKey is the primary-key name used when an entity type models no primary key.
const URIKey = "uri"

// Identifier is the stable identity of a record: the primary-key field name and its value.
type Identifier struct {
	Name  string
	Value string
}

// IsURI reports whether the record is identified by its document URI.
func (i Identifier) IsURI() bool { return i.Name == "" || i.Name == URIKey }

// PropertyGroup is the nested field set of one matched entity type within a hit.
type PropertyGroup struct {
	entity     string
	properties Value
}

// NewPropertyGroup creates a property group. Non-object properties yield an empty group.
func NewPropertyGroup(entity string, properties Value) PropertyGroup {
	if properties.Kind() != KindObject {
		properties = Object()
	}
	return PropertyGroup{entity: entity, properties: properties}
}

// Entity returns the entity type name of the group.
func (g PropertyGroup) Entity() string { return g.entity }

// Properties returns the group's object value.
func (g PropertyGroup) Properties() Value { return g.properties }

// Record is one normalized search hit (immutable value object).
type Record struct {
	uri        string
	format     string
	entityName string
	createdOn  time.Time
	primaryKey Identifier
	groups     []PropertyGroup
}

// New creates a Record.
func New(
	uri, format, entityName string, createdOn time.Time,
	primaryKey Identifier, groups []PropertyGroup,
) Record {
	if primaryKey.IsURI() {
		primaryKey = Identifier{Name: URIKey, Value: uri}
	}
	cp := make([]PropertyGroup, len(groups))
	copy(cp, groups)
	return Record{
		uri: uri, format: format, entityName: entityName,
		createdOn: createdOn, primaryKey: primaryKey, groups: cp,
	}
}

// URI returns the document URI.
func (r *Record) URI() string { return r.uri }

// Format returns the detected source format (json, xml, ...).
func (r *Record) Format() string { return r.format }

// EntityName returns the entity type name of the hit.
func (r *Record) EntityName() string { return r.entityName }

// CreatedOn returns the creation timestamp (zero if unknown).
func (r *Record) CreatedOn() time.Time { return r.createdOn }

// PrimaryKey returns the record identity.
func (r *Record) PrimaryKey() Identifier { return r.primaryKey }

// Groups returns a copy of the property groups.
func (r *Record) Groups() []PropertyGroup {
	cp := make([]PropertyGroup, len(r.groups))
	copy(cp, r.groups)
	return cp
}

// FirstGroup returns the first property group, if any.
func (r *Record) FirstGroup() (PropertyGroup, bool) {
	if len(r.groups) == 0 {
		return PropertyGroup{}, false
	}
	return r.groups[0], true
}

// DocumentName returns the last path segment of the URI.
func (r *Record) DocumentName() string {
	if i := strings.LastIndex(r.uri, "/"); i >= 0 {
		return r.uri[i+1:]
	}
	return r.uri
}
