package models

// AnnotationSource describes the external authority an annotation came from
// (InterPro, Pfam, GO, ...). AccessionURL is a prefix the UI appends the
// accession to.
type AnnotationSource struct {
	ID           int64  `json:"-"`
	Name         string `json:"annotation_source_name"`
	Version      string `json:"annotation_source_version,omitempty"`
	AccessionURL string `json:"annotation_accession_url,omitempty"`
	Type         string `json:"annotation_type,omitempty"`
}

// Annotation is one functional hit linked to a feature through the
// feature_annotation table. Score and Date come from the link record.
type Annotation struct {
	ID           int64  `json:"-"`
	Accession    string `json:"annotation_accession"`
	Description  string `json:"annotation_description,omitempty"`
	SourceName   string `json:"annotation_source_name,omitempty"`
	SourceType   string `json:"annotation_type,omitempty"`
	AccessionURL string `json:"annotation_accession_url,omitempty"`
	Score        string `json:"score,omitempty"`
	Date         string `json:"date,omitempty"`
}

// SourceCount reports how many annotations a source contributed, used by the
// advanced-filter UI.
type SourceCount struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Count int64  `json:"count"`
}
