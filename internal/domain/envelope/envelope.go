// Package envelope defines the result envelope produced by the external search API.
package envelope

import (
	"encoding/json"

	"github.com/kailas-cloud/resultgrid/internal/domain"
)

// PrimaryKey is the resolved primary key of a hit.
type PrimaryKey struct {
	PropertyPath  string          `json:"propertyPath"`
	PropertyValue json.RawMessage `json:"propertyValue,omitempty"`
}

// Hit is one raw search hit. EntityProperties maps an entity type name to an
// object (one property group) or an array of objects (several groups).
type Hit struct {
	URI              string          `json:"uri"`
	Format           string          `json:"format,omitempty"`
	CreatedOn        string          `json:"createdOn,omitempty"`
	PrimaryKey       *PrimaryKey     `json:"primaryKey,omitempty"`
	EntityName       string          `json:"entityName,omitempty"`
	EntityProperties json.RawMessage `json:"entityProperties,omitempty"`
}

// EntityDefinition describes one modelled entity type.
type EntityDefinition struct {
	Name       string `json:"name"`
	PrimaryKey string `json:"primaryKey,omitempty"`
}

// Envelope is the search response handed to the grid.
type Envelope struct {
	Total             int                `json:"total"`
	Results           []Hit              `json:"results"`
	EntityDefinitions []EntityDefinition `json:"entityDefinitions,omitempty"`
}

// Decode parses an envelope. Only a structurally broken document is an error;
// individual malformed hits are handled downstream.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, domain.NewEnvelopeError("body", err)
	}
	return env, nil
}

// PrimaryKeyOf returns the primary-key definition for the named entity type.
func (e *Envelope) PrimaryKeyOf(entity string) (string, bool) {
	for _, d := range e.EntityDefinitions {
		if d.Name == entity && d.PrimaryKey != "" {
			return d.PrimaryKey, true
		}
	}
	return "", false
}

// ValueText renders the primary key value as display text.
func (p *PrimaryKey) ValueText() string {
	if p == nil || len(p.PropertyValue) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(p.PropertyValue, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(p.PropertyValue, &n); err == nil {
		return n.String()
	}
	return string(p.PropertyValue)
}
