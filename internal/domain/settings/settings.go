// Package settings models the per-step settings artifact edited next to the grid.
// JSON-text fields that fail to parse are passed through as raw text and logged.
package settings

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// StepType is the kind of pipeline step the settings belong to.
type StepType string

// Known step types.
const (
	Ingestion StepType = "ingestion"
	Mapping   StepType = "mapping"
	Matching  StepType = "matching"
	Merging   StepType = "merging"
	Custom    StepType = "custom"
)

// Databases and option values.
const (
	StagingDatabase = "data-hub-STAGING"
	FinalDatabase   = "data-hub-FINAL"

	FormatJSONDoc = "JSON"
	FormatXMLDoc  = "XML"

	GranularityCoarse = "coarse"
	GranularityFine   = "fine"
)

// ParseStepType validates a step type name.
func ParseStepType(s string) (StepType, error) {
	switch t := StepType(strings.ToLower(s)); t {
	case Ingestion, Mapping, Matching, Merging, Custom:
		return t, nil
	default:
		return "", fmt.Errorf("unknown step type %q", s)
	}
}

// UsesSourceDatabase reports whether the step reads from a database.
func (t StepType) UsesSourceDatabase() bool { return t != Ingestion }

// UsesHeaders reports whether the step writes document headers.
func (t StepType) UsesHeaders() bool { return t == Ingestion || t == Mapping }

// UsesTargetFormat reports whether the step chooses its output format.
func (t StepType) UsesTargetFormat() bool { return t == Mapping }

// Artifact is the settings document saved for a step.
type Artifact struct {
	Collections                []string `json:"collections"`
	AdditionalCollections      []string `json:"additionalCollections"`
	SourceDatabase             *string  `json:"sourceDatabase"`
	TargetDatabase             string   `json:"targetDatabase"`
	TargetFormat               string   `json:"targetFormat"`
	Permissions                string   `json:"permissions"`
	Headers                    any      `json:"headers"`
	Processors                 any      `json:"processors"`
	ProvenanceGranularityLevel string   `json:"provenanceGranularityLevel"`
	CustomHook                 any      `json:"customHook"`
}

// Field names an editable form field.
type Field string

// Editable fields.
const (
	FieldSourceDatabase        Field = "sourceDatabase"
	FieldTargetDatabase        Field = "targetDatabase"
	FieldAdditionalCollections Field = "additionalCollections"
	FieldPermissions           Field = "permissions"
	FieldHeaders               Field = "headers"
	FieldTargetFormat          Field = "targetFormat"
	FieldProvenance            Field = "provenanceGranularityLevel"
	FieldProcessors            Field = "processors"
	FieldCustomHook            Field = "customHook"
)

// blank is the select-box value meaning "no choice".
const blank = " "

// Form is the editable state of a settings artifact with per-field dirty tracking.
type Form struct {
	step        StepType
	collections []string
	additional  []string
	source      string
	target      string
	permissions string
	headers     string
	format      string
	provenance  string
	processors  string
	customHook  string
	touched     map[Field]bool
	log         *zap.Logger
}

// NewForm creates a form holding the defaults of the step type.
func NewForm(step StepType, log *zap.Logger) *Form {
	if log == nil {
		log = zap.NewNop()
	}
	f := &Form{step: step, touched: make(map[Field]bool), log: log}
	f.reset()
	return f
}

func (f *Form) reset() {
	if f.step.UsesSourceDatabase() {
		f.source, f.target = StagingDatabase, FinalDatabase
	} else {
		f.source, f.target = FinalDatabase, StagingDatabase
	}
	f.collections = nil
	f.additional = nil
	f.permissions = ""
	f.headers = ""
	f.format = FormatJSONDoc
	f.provenance = GranularityCoarse
	f.processors = ""
	f.customHook = ""
	clear(f.touched)
}

// Step returns the step type.
func (f *Form) Step() StepType { return f.step }

// Load replaces the form contents with a saved artifact and clears dirty state.
// A nil artifact restores the defaults.
func (f *Form) Load(a *Artifact) {
	f.reset()
	if a == nil {
		return
	}
	if a.SourceDatabase != nil && *a.SourceDatabase != "" {
		f.source = *a.SourceDatabase
	}
	if a.TargetDatabase != "" {
		f.target = a.TargetDatabase
	}
	f.collections = append([]string(nil), a.Collections...)
	f.additional = append([]string(nil), a.AdditionalCollections...)
	f.permissions = a.Permissions
	if a.TargetFormat != "" {
		f.format = a.TargetFormat
	}
	if a.ProvenanceGranularityLevel != "" {
		f.provenance = a.ProvenanceGranularityLevel
	}
	f.headers = FormatJSON(a.Headers, f.log)
	f.processors = FormatJSON(a.Processors, f.log)
	f.customHook = FormatJSON(a.CustomHook, f.log)
}

// Set edits one field. Choosing the blank option, or re-choosing the current
// target format, leaves the field untouched.
func (f *Form) Set(field Field, value string) error {
	switch field {
	case FieldSourceDatabase:
		f.choose(field, value, &f.source)
	case FieldTargetDatabase:
		f.choose(field, value, &f.target)
	case FieldTargetFormat:
		if value == f.format {
			f.touched[field] = false
			return nil
		}
		f.choose(field, value, &f.format)
	case FieldProvenance:
		f.choose(field, value, &f.provenance)
	case FieldAdditionalCollections:
		f.additional = splitList(value)
		f.touched[field] = true
	case FieldPermissions:
		f.permissions = value
		f.touched[field] = true
	case FieldHeaders:
		f.headers = value
		f.touched[field] = true
	case FieldProcessors:
		f.processors = value
		f.touched[field] = true
	case FieldCustomHook:
		f.customHook = value
		f.touched[field] = true
	default:
		return fmt.Errorf("unknown settings field %q", field)
	}
	return nil
}

func (f *Form) choose(field Field, value string, dst *string) {
	if value == blank || value == "" {
		f.touched[field] = false
		return
	}
	*dst = value
	f.touched[field] = true
}

// Touched reports whether field was edited since the last load.
func (f *Form) Touched(field Field) bool { return f.touched[field] }

// Dirty reports whether any field was edited, i.e. discarding needs confirmation.
func (f *Form) Dirty() bool {
	for _, t := range f.touched {
		if t {
			return true
		}
	}
	return false
}

// Artifact builds the document to save. JSON-text fields are parsed; text that is
// not valid JSON is kept verbatim.
func (f *Form) Artifact() Artifact {
	a := Artifact{
		Collections:                append([]string{}, f.collections...),
		AdditionalCollections:      append([]string{}, f.additional...),
		TargetDatabase:             f.target,
		TargetFormat:               f.format,
		Permissions:                f.permissions,
		Headers:                    ParseJSON(f.headers, f.log),
		Processors:                 ParseJSON(f.processors, f.log),
		ProvenanceGranularityLevel: f.provenance,
		CustomHook:                 ParseJSON(f.customHook, f.log),
	}
	if f.step.UsesSourceDatabase() {
		src := f.source
		a.SourceDatabase = &src
	}
	return a
}

// FormatJSON renders v as JSON indented by two spaces. Values that cannot be
// encoded are returned through fmt.
func FormatJSON(v any, log *zap.Logger) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		orNop(log).Warn("settings value is not JSON encodable", zap.Error(err))
		return fmt.Sprint(v)
	}
	return string(b)
}

// ParseJSON decodes text as JSON. Empty text yields nil; invalid JSON is logged
// and passed through as the original string.
func ParseJSON(text string, log *zap.Logger) any {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		orNop(log).Warn("settings value is not valid JSON, keeping text", zap.Error(err))
		return text
	}
	return v
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
