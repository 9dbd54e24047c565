package models

import "github.com/google/uuid"

// MatchKind records which search phase produced a row.
type MatchKind string

const (
	// MatchIdentifier means the row came from the exact-identifier phase.
	MatchIdentifier MatchKind = "identifier"
	// MatchFuzzy means the row came from the multi-field annotation phase.
	MatchFuzzy MatchKind = "fuzzy"
)

// SearchRow is one result row from a single organism's store. Identifier-phase
// rows carry empty annotation fields.
type SearchRow struct {
	Organism              string    `json:"organism"`
	Genus                 string    `json:"genus"`
	Species               string    `json:"species"`
	CommonName            string    `json:"common_name,omitempty"`
	FeatureUniquename     string    `json:"feature_uniquename"`
	FeatureName           string    `json:"feature_name,omitempty"`
	FeatureDescription    string    `json:"feature_description,omitempty"`
	FeatureType           string    `json:"feature_type"`
	AssemblyAccession     string    `json:"genome_accession,omitempty"`
	AnnotationAccession   string    `json:"annotation_accession,omitempty"`
	AnnotationDescription string    `json:"annotation_description,omitempty"`
	SourceName            string    `json:"annotation_source_name,omitempty"`
	Score                 string    `json:"score,omitempty"`
	Kind                  MatchKind `json:"match_kind"`
}

// PerOrganismResult is the unit the federation produces: one organism's rows,
// or its recorded soft failure. Error and rows are mutually exclusive.
type PerOrganismResult struct {
	Organism string      `json:"organism"`
	Kind     MatchKind   `json:"match_kind,omitempty"`
	Rows     []SearchRow `json:"results"`
	RowCount int         `json:"count"`
	Capped   bool        `json:"capped,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// Failed reports whether this organism contributed a soft failure instead of
// rows.
func (r PerOrganismResult) Failed() bool { return r.Error != "" }

// DataQualityWarning flags an annotation row returned with a missing source
// name or accession. The row is still served; the warning goes to the audit
// sink for administrative review.
type DataQualityWarning struct {
	ID                uuid.UUID `json:"id"`
	Organism          string    `json:"organism"`
	FeatureUniquename string    `json:"feature_uniquename"`
	MissingField      string    `json:"missing_field"`
}
