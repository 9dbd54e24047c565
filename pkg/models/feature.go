package models

// Feature is a genomic element (gene, mRNA, exon, protein, ...) stored in one
// organism's store. ParentID links features into a per-organism hierarchy;
// the link never crosses store boundaries.
type Feature struct {
	ID          int64  `json:"-"`
	Uniquename  string `json:"feature_uniquename"`
	Name        string `json:"feature_name,omitempty"`
	Description string `json:"feature_description,omitempty"`
	Type        string `json:"feature_type"`
	AssemblyID  int64  `json:"-"`
	ParentID    *int64 `json:"-"`

	// Populated by joins in store queries.
	AssemblyAccession string `json:"genome_accession,omitempty"`
	AssemblyName      string `json:"genome_name,omitempty"`
}

// FeatureNode is a feature with its nested children, used for descendant
// subtrees on the detail view.
type FeatureNode struct {
	Feature
	Children []*FeatureNode `json:"children,omitempty"`
}

// FeatureDetail is the full payload of the feature detail endpoint: the
// feature itself, its ancestor chain (self first, root last), its descendant
// subtree, and annotations grouped by source type.
type FeatureDetail struct {
	Organism    Organism                `json:"organism_info"`
	Feature     Feature                 `json:"feature"`
	Ancestors   []Feature               `json:"ancestors"`
	Descendants []*FeatureNode          `json:"descendants"`
	Annotations map[string][]Annotation `json:"annotations_by_type"`
}
