package organismstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/moop-bio/moop-engine/pkg/apperrors"
	"github.com/moop-bio/moop-engine/pkg/models"
)

// SQLStore implements Store over a database/sql handle. All queries are
// written with ? placeholders; dialects that use positional placeholders
// supply a rebind function. The schema is identical across backends:
// organism, genome, feature, annotation, annotation_source and
// feature_annotation.
type SQLStore struct {
	db       *sql.DB
	organism string
	rebind   func(string) string
}

// NewSQLStore wraps an open handle. rebind may be nil for dialects that use
// ? placeholders natively.
func NewSQLStore(db *sql.DB, organism string, rebind func(string) string) *SQLStore {
	if rebind == nil {
		rebind = func(q string) string { return q }
	}
	return &SQLStore{db: db, organism: organism, rebind: rebind}
}

// RebindDollar rewrites ? placeholders to $1..$N for Postgres.
func RebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Close releases the underlying handle.
func (s *SQLStore) Close() error { return s.db.Close() }

// Organism returns the organism identifier this store was opened for.
func (s *SQLStore) Organism() string { return s.organism }

const organismInfoQuery = `
SELECT genus, species,
       COALESCE(subtype, ''), COALESCE(common_name, ''),
       COALESCE(CAST(taxon_id AS TEXT), '')
FROM organism
LIMIT 1`

func (s *SQLStore) OrganismInfo(ctx context.Context) (*models.Organism, error) {
	org := models.Organism{Name: s.organism}
	err := s.db.QueryRowContext(ctx, s.rebind(organismInfoQuery)).
		Scan(&org.Genus, &org.Species, &org.Subtype, &org.CommonName, &org.TaxonID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("organism record missing from store %s: %w", s.organism, apperrors.ErrStoreUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read organism record: %w", err)
	}
	return &org, nil
}

const assembliesQuery = `
SELECT genome_id, genome_accession, COALESCE(genome_name, '')
FROM genome
ORDER BY genome_accession`

func (s *SQLStore) Assemblies(ctx context.Context) ([]models.Assembly, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(assembliesQuery))
	if err != nil {
		return nil, fmt.Errorf("failed to list assemblies: %w", err)
	}
	defer rows.Close()

	var assemblies []models.Assembly
	for rows.Next() {
		a := models.Assembly{Organism: s.organism}
		if err := rows.Scan(&a.ID, &a.Accession, &a.Name); err != nil {
			return nil, fmt.Errorf("failed to scan assembly: %w", err)
		}
		assemblies = append(assemblies, a)
	}
	return assemblies, rows.Err()
}

const assemblyStatsQuery = `
SELECT g.genome_accession, COALESCE(g.genome_name, ''),
       COALESCE(SUM(CASE WHEN f.feature_type = 'gene' THEN 1 ELSE 0 END), 0),
       COALESCE(SUM(CASE WHEN f.feature_type = 'mRNA' THEN 1 ELSE 0 END), 0),
       COUNT(f.feature_id)
FROM genome g
LEFT JOIN feature f ON f.genome_id = g.genome_id
WHERE g.genome_accession = ?
GROUP BY g.genome_id, g.genome_accession, g.genome_name`

func (s *SQLStore) AssemblyStats(ctx context.Context, accession string) (*models.AssemblyStats, error) {
	var stats models.AssemblyStats
	err := s.db.QueryRowContext(ctx, s.rebind(assemblyStatsQuery), accession).
		Scan(&stats.Accession, &stats.Name, &stats.GeneCount, &stats.TranscriptCount, &stats.TotalFeatures)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read assembly stats: %w", err)
	}
	return &stats, nil
}

const featureSelect = `
SELECT f.feature_id, f.feature_uniquename,
       COALESCE(f.feature_name, ''), COALESCE(f.feature_description, ''),
       f.feature_type, f.genome_id, f.parent_feature_id,
       g.genome_accession, COALESCE(g.genome_name, '')
FROM feature f
JOIN genome g ON g.genome_id = f.genome_id`

func scanFeature(row interface{ Scan(...any) error }) (*models.Feature, error) {
	var f models.Feature
	var parent sql.NullInt64
	err := row.Scan(&f.ID, &f.Uniquename, &f.Name, &f.Description, &f.Type,
		&f.AssemblyID, &parent, &f.AssemblyAccession, &f.AssemblyName)
	if err != nil {
		return nil, err
	}
	if parent.Valid {
		f.ParentID = &parent.Int64
	}
	return &f, nil
}

func (s *SQLStore) FeatureByUniquename(ctx context.Context, uniquename string) (*models.Feature, error) {
	query := featureSelect + "\nWHERE f.feature_uniquename = ?"
	f, err := scanFeature(s.db.QueryRowContext(ctx, s.rebind(query), uniquename))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feature %q: %w", uniquename, err)
	}
	return f, nil
}

func (s *SQLStore) FeatureByID(ctx context.Context, id int64) (*models.Feature, error) {
	query := featureSelect + "\nWHERE f.feature_id = ?"
	f, err := scanFeature(s.db.QueryRowContext(ctx, s.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feature %d: %w", id, err)
	}
	return f, nil
}

func (s *SQLStore) Children(ctx context.Context, parentID int64) ([]models.Feature, error) {
	query := featureSelect + "\nWHERE f.parent_feature_id = ?\nORDER BY f.feature_type, f.feature_name, f.feature_uniquename"
	rows, err := s.db.QueryContext(ctx, s.rebind(query), parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children of feature %d: %w", parentID, err)
	}
	defer rows.Close()

	var children []models.Feature
	for rows.Next() {
		f, err := scanFeature(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child feature: %w", err)
		}
		children = append(children, *f)
	}
	return children, rows.Err()
}

// likePattern builds the case-insensitive substring pattern for one term.
func likePattern(term string) string {
	return "%" + strings.ToLower(term) + "%"
}

const identifierSearchHead = `
SELECT f.feature_uniquename,
       COALESCE(f.feature_name, ''), COALESCE(f.feature_description, ''),
       f.feature_type, o.genus, o.species, COALESCE(o.common_name, ''),
       g.genome_accession
FROM feature f
JOIN genome g ON g.genome_id = f.genome_id
JOIN organism o ON o.organism_id = g.organism_id
WHERE `

func (s *SQLStore) SearchIdentifiers(ctx context.Context, terms SearchTerms, cap int) ([]models.SearchRow, bool, error) {
	units := terms.All()
	if len(units) == 0 {
		return nil, false, nil
	}

	conds := make([]string, 0, len(units))
	args := make([]any, 0, len(units)+1)
	for _, unit := range units {
		conds = append(conds, "LOWER(f.feature_uniquename) LIKE ?")
		args = append(args, likePattern(unit))
	}
	query := identifierSearchHead + strings.Join(conds, " AND ") +
		"\nORDER BY f.feature_uniquename\nLIMIT ?"
	args = append(args, cap+1)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, false, fmt.Errorf("identifier search failed: %w", err)
	}
	defer rows.Close()

	var results []models.SearchRow
	for rows.Next() {
		r := models.SearchRow{Organism: s.organism, Kind: models.MatchIdentifier}
		err := rows.Scan(&r.FeatureUniquename, &r.FeatureName, &r.FeatureDescription,
			&r.FeatureType, &r.Genus, &r.Species, &r.CommonName, &r.AssemblyAccession)
		if err != nil {
			return nil, false, fmt.Errorf("failed to scan identifier row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(results) > cap {
		return results[:cap], true, nil
	}
	return results, false, nil
}

// The relevance column coarsely orders matches by where the primary term hit
// (feature name, then feature description, then annotation description) so the
// row limit keeps the strongest matches. The select list carries it because
// DISTINCT requires ORDER BY expressions to be output columns on Postgres;
// fine-grained word-boundary ranking happens in Go over the returned rows.
const annotationSearchHead = `
SELECT DISTINCT f.feature_uniquename,
       COALESCE(f.feature_name, ''), COALESCE(f.feature_description, ''),
       f.feature_type, o.genus, o.species, COALESCE(o.common_name, ''),
       g.genome_accession,
       COALESCE(a.annotation_accession, ''), COALESCE(a.annotation_description, ''),
       COALESCE(s.annotation_source_name, ''),
       COALESCE(CAST(fa.score AS TEXT), ''),
       CASE
         WHEN LOWER(f.feature_name) LIKE ? THEN 1
         WHEN LOWER(f.feature_description) LIKE ? THEN 2
         WHEN LOWER(a.annotation_description) LIKE ? THEN 3
         ELSE 4
       END AS relevance
FROM feature f
JOIN genome g ON g.genome_id = f.genome_id
JOIN organism o ON o.organism_id = g.organism_id
JOIN feature_annotation fa ON fa.feature_id = f.feature_id
JOIN annotation a ON a.annotation_id = fa.annotation_id
LEFT JOIN annotation_source s ON s.annotation_source_id = a.annotation_source_id
WHERE `

// annotationUnitCond matches one term across the four searchable fields.
const annotationUnitCond = `(LOWER(a.annotation_description) LIKE ?
   OR LOWER(f.feature_name) LIKE ?
   OR LOWER(f.feature_description) LIKE ?
   OR LOWER(a.annotation_accession) LIKE ?)`

func (s *SQLStore) SearchAnnotations(ctx context.Context, terms SearchTerms, cap int) ([]models.SearchRow, bool, error) {
	units := terms.All()
	if len(units) == 0 {
		return nil, false, nil
	}

	primary := likePattern(terms.Primary())
	conds := make([]string, 0, len(units))
	args := make([]any, 0, len(units)*4+4)
	args = append(args, primary, primary, primary)
	for _, unit := range units {
		conds = append(conds, annotationUnitCond)
		p := likePattern(unit)
		args = append(args, p, p, p, p)
	}
	query := annotationSearchHead + strings.Join(conds, "\n  AND ") +
		"\nORDER BY relevance, f.feature_uniquename\nLIMIT ?"
	args = append(args, cap+1)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, false, fmt.Errorf("annotation search failed: %w", err)
	}
	defer rows.Close()

	var results []models.SearchRow
	for rows.Next() {
		r := models.SearchRow{Organism: s.organism, Kind: models.MatchFuzzy}
		var relevance int
		err := rows.Scan(&r.FeatureUniquename, &r.FeatureName, &r.FeatureDescription,
			&r.FeatureType, &r.Genus, &r.Species, &r.CommonName, &r.AssemblyAccession,
			&r.AnnotationAccession, &r.AnnotationDescription, &r.SourceName, &r.Score,
			&relevance)
		if err != nil {
			return nil, false, fmt.Errorf("failed to scan annotation row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(results) > cap {
		return results[:cap], true, nil
	}
	return results, false, nil
}

const annotationsQuery = `
SELECT a.annotation_id, a.annotation_accession, COALESCE(a.annotation_description, ''),
       COALESCE(s.annotation_source_name, ''), COALESCE(s.annotation_type, ''),
       COALESCE(s.annotation_accession_url, ''),
       COALESCE(CAST(fa.score AS TEXT), ''), COALESCE(CAST(fa.date AS TEXT), '')
FROM feature_annotation fa
JOIN annotation a ON a.annotation_id = fa.annotation_id
LEFT JOIN annotation_source s ON s.annotation_source_id = a.annotation_source_id
WHERE fa.feature_id = ?
ORDER BY fa.date DESC, a.annotation_accession`

func (s *SQLStore) Annotations(ctx context.Context, featureID int64) ([]models.Annotation, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(annotationsQuery), featureID)
	if err != nil {
		return nil, fmt.Errorf("failed to list annotations of feature %d: %w", featureID, err)
	}
	defer rows.Close()

	var annotations []models.Annotation
	for rows.Next() {
		var a models.Annotation
		err := rows.Scan(&a.ID, &a.Accession, &a.Description,
			&a.SourceName, &a.SourceType, &a.AccessionURL, &a.Score, &a.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		annotations = append(annotations, a)
	}
	return annotations, rows.Err()
}

const sourceCountsQuery = `
SELECT s.annotation_source_name, COALESCE(s.annotation_type, ''), COUNT(*)
FROM annotation a
JOIN annotation_source s ON s.annotation_source_id = a.annotation_source_id
GROUP BY s.annotation_source_name, s.annotation_type
ORDER BY s.annotation_source_name`

func (s *SQLStore) SourceCounts(ctx context.Context) ([]models.SourceCount, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(sourceCountsQuery))
	if err != nil {
		return nil, fmt.Errorf("failed to count annotation sources: %w", err)
	}
	defer rows.Close()

	var counts []models.SourceCount
	for rows.Next() {
		var c models.SourceCount
		if err := rows.Scan(&c.Name, &c.Type, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan source count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
