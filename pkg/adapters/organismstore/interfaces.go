// Package organismstore defines the uniform repository surface over one
// organism's data store. The federation engine is store-agnostic: concrete
// backends (embedded SQLite files, client-server Postgres) live in
// subpackages and a Manager caches open handles.
package organismstore

import (
	"context"

	"github.com/moop-bio/moop-engine/pkg/models"
)

// MaxSearchRows is the hard cap on rows returned by the annotation phase for
// one organism. This bounds response size per federation step.
const MaxSearchRows = 100

// SearchTerms is normalized query input. In quoted mode Phrase carries the
// whole phrase and Terms is empty; otherwise Terms carries the surviving
// whitespace-delimited terms.
type SearchTerms struct {
	Terms  []string
	Phrase string
	Quoted bool
}

// All returns the match units: the phrase in quoted mode, the terms otherwise.
func (s SearchTerms) All() []string {
	if s.Quoted {
		return []string{s.Phrase}
	}
	return s.Terms
}

// Primary returns the term used for relevance tie-breaking: the whole phrase
// in quoted mode, else the first term.
func (s SearchTerms) Primary() string {
	if s.Quoted {
		return s.Phrase
	}
	if len(s.Terms) == 0 {
		return ""
	}
	return s.Terms[0]
}

// Store is one organism's read-only repository. Implementations own their
// connection and must be closed when done.
type Store interface {
	// OrganismInfo returns the organism record held in the store.
	OrganismInfo(ctx context.Context) (*models.Organism, error)

	// Assemblies returns the assemblies (genome builds) in the store.
	Assemblies(ctx context.Context) ([]models.Assembly, error)

	// AssemblyStats returns feature counts for one assembly accession.
	AssemblyStats(ctx context.Context, accession string) (*models.AssemblyStats, error)

	// FeatureByUniquename fetches a feature with its assembly fields joined in.
	// Returns apperrors.ErrNotFound when absent.
	FeatureByUniquename(ctx context.Context, uniquename string) (*models.Feature, error)

	// FeatureByID fetches a feature by its store-internal id.
	FeatureByID(ctx context.Context, id int64) (*models.Feature, error)

	// Children returns the direct children of a feature.
	Children(ctx context.Context, parentID int64) ([]models.Feature, error)

	// SearchIdentifiers is the exact-identifier phase: a case-insensitive
	// substring match per term against the identifier column only, all terms
	// ANDed. Returns up to cap rows and whether the cap was hit.
	SearchIdentifiers(ctx context.Context, terms SearchTerms, cap int) ([]models.SearchRow, bool, error)

	// SearchAnnotations is the fuzzy phase: each match unit ORed across
	// annotation description, feature name, feature description and
	// annotation accession, ANDed across units, joined through the link
	// table. Rows come back ordered by where the primary term matched, so
	// the cap keeps the strongest matches. Returns up to cap rows and
	// whether the cap was hit.
	SearchAnnotations(ctx context.Context, terms SearchTerms, cap int) ([]models.SearchRow, bool, error)

	// Annotations returns every annotation linked to a feature, newest link
	// first.
	Annotations(ctx context.Context, featureID int64) ([]models.Annotation, error)

	// SourceCounts returns per-source annotation counts for the filter UI.
	SourceCounts(ctx context.Context) ([]models.SourceCount, error)

	// Close releases the store handle.
	Close() error
}

// Opener creates a Store for one organism. The sqlite backend resolves the
// store file through the registry snapshot; the postgres backend expands a
// DSN template.
type Opener func(ctx context.Context, organism string) (Store, error)
