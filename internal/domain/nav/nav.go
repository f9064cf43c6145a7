// Package nav builds navigation targets for detail, source and nested drill-in views.
package nav

import (
	"encoding/json"
	"strings"

	"github.com/kailas-cloud/resultgrid/internal/domain/hit"
)

// Mode selects how the detail page presents a document.
type Mode string

const (
	// Instance shows the entity instance.
	Instance Mode = "instance"
	// Source shows the raw source document.
	Source Mode = "source"
)

// Placeholder stands in for the primary key when a record is identified by its URI.
const Placeholder = "-"

// Link is a navigation target with transient router state.
type Link struct {
	Path  string          `json:"path"`
	Mode  Mode            `json:"mode,omitempty"`
	State json.RawMessage `json:"state,omitempty"`
}

// DetailPath returns /detail/{pk-or-placeholder}/{uri-component-encoded uri}.
func DetailPath(pk hit.Identifier, uri string) string {
	seg := Placeholder
	if !pk.IsURI() {
		seg = pk.Value
	}
	return "/detail/" + seg + "/" + EncodeURIComponent(uri)
}

// DetailLinks returns the instance and source links of a record.
func DetailLinks(pk hit.Identifier, uri string) [2]Link {
	path := DetailPath(pk, uri)
	return [2]Link{
		{Path: path, Mode: Instance},
		{Path: path, Mode: Source},
	}
}

// Nested returns a drill-in link carrying the nested object as router state.
func Nested(path string, nested hit.Value) Link {
	state, err := nested.MarshalJSON()
	if err != nil {
		state = nil
	}
	return Link{Path: path, Mode: Instance, State: state}
}

const upperHex = "0123456789ABCDEF"

// EncodeURIComponent percent-encodes s like ECMAScript encodeURIComponent:
// everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ) is escaped as UTF-8 bytes.
func EncodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
