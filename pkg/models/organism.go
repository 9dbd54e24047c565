package models

// Organism identifies one species served by the engine. The directory name
// (Genus_species, e.g. "Homo_sapiens") doubles as the stable identifier used
// in URLs and access-control entries.
type Organism struct {
	Name       string `json:"organism"`
	Genus      string `json:"genus"`
	Species    string `json:"species"`
	Subtype    string `json:"subtype,omitempty"`
	CommonName string `json:"common_name,omitempty"`
	TaxonID    string `json:"taxon_id,omitempty"`
}

// ScientificName returns "Genus species" with the subtype appended when set.
func (o Organism) ScientificName() string {
	name := o.Genus + " " + o.Species
	if o.Subtype != "" && o.Subtype != "NULL" {
		name += " " + o.Subtype
	}
	return name
}

// Assembly is one genome build of an organism. Every feature belongs to
// exactly one assembly.
type Assembly struct {
	ID          int64  `json:"-"`
	Organism    string `json:"organism"`
	Name        string `json:"assembly_name"`
	Accession   string `json:"assembly_accession"`
	Description string `json:"description,omitempty"`
}

// AssemblyStats summarizes feature counts for an assembly.
type AssemblyStats struct {
	Accession       string `json:"assembly_accession"`
	Name            string `json:"assembly_name"`
	GeneCount       int64  `json:"gene_count"`
	TranscriptCount int64  `json:"mrna_count"`
	TotalFeatures   int64  `json:"total_features"`
}
