// Package testhelpers seeds throwaway organism stores for tests.
package testhelpers

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/moop-bio/moop-engine/pkg/models"
)

// SchemaDDL creates the organism store schema. The same statements run on
// SQLite and Postgres.
var SchemaDDL = []string{
	`CREATE TABLE organism (
		organism_id INTEGER PRIMARY KEY,
		genus TEXT NOT NULL,
		species TEXT NOT NULL,
		subtype TEXT,
		common_name TEXT,
		taxon_id TEXT
	)`,
	`CREATE TABLE genome (
		genome_id INTEGER PRIMARY KEY,
		organism_id INTEGER NOT NULL REFERENCES organism(organism_id),
		genome_accession TEXT NOT NULL,
		genome_name TEXT
	)`,
	`CREATE TABLE feature (
		feature_id INTEGER PRIMARY KEY,
		genome_id INTEGER NOT NULL REFERENCES genome(genome_id),
		feature_uniquename TEXT NOT NULL,
		feature_name TEXT,
		feature_description TEXT,
		feature_type TEXT NOT NULL,
		parent_feature_id INTEGER
	)`,
	`CREATE TABLE annotation_source (
		annotation_source_id INTEGER PRIMARY KEY,
		annotation_source_name TEXT NOT NULL,
		annotation_source_version TEXT,
		annotation_accession_url TEXT,
		annotation_type TEXT
	)`,
	`CREATE TABLE annotation (
		annotation_id INTEGER PRIMARY KEY,
		annotation_accession TEXT NOT NULL,
		annotation_description TEXT,
		annotation_source_id INTEGER REFERENCES annotation_source(annotation_source_id)
	)`,
	`CREATE TABLE feature_annotation (
		feature_id INTEGER NOT NULL REFERENCES feature(feature_id),
		annotation_id INTEGER NOT NULL REFERENCES annotation(annotation_id),
		score TEXT,
		date TEXT
	)`,
}

// FeatureSeed is one feature row. ParentID zero means no parent.
type FeatureSeed struct {
	ID          int64
	Uniquename  string
	Name        string
	Description string
	Type        string
	AssemblyID  int64
	ParentID    int64
}

// AnnotationSeed is one annotation row plus its feature links.
type AnnotationSeed struct {
	ID          int64
	Accession   string
	Description string
	SourceID    int64
	FeatureIDs  []int64
	Score       string
	Date        string
}

// StoreSeed is the full content of one test store.
type StoreSeed struct {
	Organism    models.Organism
	Assemblies  []models.Assembly
	Features    []FeatureSeed
	Sources     []models.AnnotationSource
	Annotations []AnnotationSeed
}

// DefaultSeed returns a small honey-bee dataset with a three-level feature
// hierarchy (gene > mRNA > exon/protein) and annotations from two sources.
func DefaultSeed() StoreSeed {
	return StoreSeed{
		Organism: models.Organism{
			Name: "Apis_mellifera", Genus: "Apis", Species: "mellifera",
			CommonName: "honey bee", TaxonID: "7460",
		},
		Assemblies: []models.Assembly{
			{ID: 1, Accession: "GCF_003254395.2", Name: "Amel_HAv3.1"},
		},
		Features: []FeatureSeed{
			{ID: 1, Uniquename: "LOC406114", Name: "Mrjp1", Description: "major royal jelly protein 1", Type: "gene", AssemblyID: 1},
			{ID: 2, Uniquename: "XM_006557274", Name: "Mrjp1-RA", Description: "major royal jelly protein 1 transcript", Type: "mRNA", AssemblyID: 1, ParentID: 1},
			{ID: 3, Uniquename: "XM_006557274.exon1", Type: "exon", AssemblyID: 1, ParentID: 2},
			{ID: 4, Uniquename: "XP_006557337", Name: "MRJP1", Type: "protein", AssemblyID: 1, ParentID: 2},
			{ID: 5, Uniquename: "LOC724386", Name: "Def1", Description: "defensin 1", Type: "gene", AssemblyID: 1},
			{ID: 6, Uniquename: "XM_001120006", Name: "Def1-RA", Type: "mRNA", AssemblyID: 1, ParentID: 5},
		},
		Sources: []models.AnnotationSource{
			{ID: 1, Name: "InterPro", Version: "97.0", AccessionURL: "https://www.ebi.ac.uk/interpro/entry/InterPro/", Type: "domain"},
			{ID: 2, Name: "GO", AccessionURL: "http://amigo.geneontology.org/amigo/term/", Type: "ontology"},
		},
		Annotations: []AnnotationSeed{
			{ID: 1, Accession: "IPR017996", Description: "Major royal jelly protein", SourceID: 1, FeatureIDs: []int64{4}, Score: "2.1e-50", Date: "2024-03-01"},
			{ID: 2, Accession: "GO:0005576", Description: "extracellular region", SourceID: 2, FeatureIDs: []int64{4}, Date: "2024-01-15"},
			{ID: 3, Accession: "IPR001855", Description: "Defensin, invertebrate/fungal", SourceID: 1, FeatureIDs: []int64{6}, Score: "4.4e-12", Date: "2024-03-01"},
		},
	}
}

// SeedDB populates an already-open, already-migrated database handle.
// rebind converts ? placeholders for dialects that need it; nil keeps them.
func SeedDB(t *testing.T, db *sql.DB, seed StoreSeed, rebind func(string) string) {
	t.Helper()
	if rebind == nil {
		rebind = func(q string) string { return q }
	}
	exec := func(query string, args ...any) {
		t.Helper()
		_, err := db.Exec(rebind(query), args...)
		require.NoError(t, err)
	}

	exec(`INSERT INTO organism (organism_id, genus, species, subtype, common_name, taxon_id) VALUES (1, ?, ?, ?, ?, ?)`,
		seed.Organism.Genus, seed.Organism.Species,
		nullable(seed.Organism.Subtype), nullable(seed.Organism.CommonName), nullable(seed.Organism.TaxonID))

	for _, a := range seed.Assemblies {
		exec(`INSERT INTO genome (genome_id, organism_id, genome_accession, genome_name) VALUES (?, 1, ?, ?)`,
			a.ID, a.Accession, nullable(a.Name))
	}
	for _, f := range seed.Features {
		var parent any
		if f.ParentID != 0 {
			parent = f.ParentID
		}
		exec(`INSERT INTO feature (feature_id, genome_id, feature_uniquename, feature_name, feature_description, feature_type, parent_feature_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			f.ID, f.AssemblyID, f.Uniquename, nullable(f.Name), nullable(f.Description), f.Type, parent)
	}
	for _, s := range seed.Sources {
		exec(`INSERT INTO annotation_source (annotation_source_id, annotation_source_name, annotation_source_version, annotation_accession_url, annotation_type)
			 VALUES (?, ?, ?, ?, ?)`,
			s.ID, s.Name, nullable(s.Version), nullable(s.AccessionURL), nullable(s.Type))
	}
	for _, a := range seed.Annotations {
		var source any
		if a.SourceID != 0 {
			source = a.SourceID
		}
		exec(`INSERT INTO annotation (annotation_id, annotation_accession, annotation_description, annotation_source_id) VALUES (?, ?, ?, ?)`,
			a.ID, a.Accession, nullable(a.Description), source)
		for _, featureID := range a.FeatureIDs {
			exec(`INSERT INTO feature_annotation (feature_id, annotation_id, score, date) VALUES (?, ?, ?, ?)`,
				featureID, a.ID, nullable(a.Score), nullable(a.Date))
		}
	}
}

// CreateStoreFile writes a seeded SQLite store file and returns its path.
func CreateStoreFile(t *testing.T, dir, filename string, seed StoreSeed) string {
	t.Helper()
	path := filepath.Join(dir, filename)

	db, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range SchemaDDL {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	SeedDB(t, db, seed, nil)
	return path
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
