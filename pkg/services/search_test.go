package services

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/moop-bio/moop-engine/pkg/adapters/organismstore"
	"github.com/moop-bio/moop-engine/pkg/apperrors"
	"github.com/moop-bio/moop-engine/pkg/models"
	"github.com/moop-bio/moop-engine/pkg/testhelpers"
)

func terms(words ...string) organismstore.SearchTerms {
	return organismstore.SearchTerms{Terms: words}
}

func TestSearchOrganism_IdentifierPhaseWins(t *testing.T) {
	env := newTestEnv(t)

	result := env.search.SearchOrganism(context.Background(), anonymous, env.snap,
		"Apis_mellifera", terms("LOC406114"))

	require.False(t, result.Failed())
	require.Equal(t, models.MatchIdentifier, result.Kind)
	require.Len(t, result.Rows, 1)
	require.Equal(t, "LOC406114", result.Rows[0].FeatureUniquename)
	require.Equal(t, 1, result.RowCount)
}

func TestSearchOrganism_FallsBackToFuzzy(t *testing.T) {
	env := newTestEnv(t)

	result := env.search.SearchOrganism(context.Background(), anonymous, env.snap,
		"Apis_mellifera", terms("royal"))

	require.False(t, result.Failed())
	require.Equal(t, models.MatchFuzzy, result.Kind)
	require.Len(t, result.Rows, 1)
	require.Equal(t, "IPR017996", result.Rows[0].AnnotationAccession)
}

func TestSearchOrganism_DeniedLooksLikeUnknown(t *testing.T) {
	env := newTestEnv(t)

	denied := env.search.SearchOrganism(context.Background(), anonymous, env.snap,
		"Danio_rerio", terms("cyca"))
	unknown := env.search.SearchOrganism(context.Background(), anonymous, env.snap,
		"Mus_musculus", terms("cyca"))

	require.True(t, denied.Failed())
	require.True(t, unknown.Failed())
	require.Equal(t, unknown.Error, denied.Error)
}

func TestSearchOrganism_AdminSeesPrivate(t *testing.T) {
	env := newTestEnv(t)

	result := env.search.SearchOrganism(context.Background(), admin, env.snap,
		"Danio_rerio", terms("cyca"))

	require.False(t, result.Failed())
	require.Equal(t, models.MatchIdentifier, result.Kind)
	require.Len(t, result.Rows, 2)
}

func TestSearchOrganism_BrokenStoreIsSoftFailure(t *testing.T) {
	env := newTestEnv(t)

	result := env.search.SearchOrganism(context.Background(), anonymous, env.snap,
		"Takifugu_rubripes", terms("anything"))

	require.True(t, result.Failed())
	require.Equal(t, errMsgStoreOffline, result.Error)
	require.Empty(t, result.Rows)
}

func TestSearchOrganism_FlagsIncompleteAnnotations(t *testing.T) {
	env := newTestEnv(t)

	// Fully sourced annotations produce no warnings.
	env.search.SearchOrganism(context.Background(), anonymous, env.snap,
		"Apis_mellifera", terms("royal"))
	require.Zero(t, testutil.ToFloat64(env.metrics.DataQualityWarnings))

	// An annotation without a source still reaches the caller; the gap is
	// counted for curators instead of suppressing the row.
	sourceless := newSeededEnv(t, "Bombus_terrestris", testhelpers.StoreSeed{
		Organism: models.Organism{
			Name: "Bombus_terrestris", Genus: "Bombus", Species: "terrestris",
		},
		Assemblies: []models.Assembly{
			{ID: 1, Accession: "GCF_910591885.1", Name: "iyBomTerr1.2"},
		},
		Features: []testhelpers.FeatureSeed{
			{ID: 1, Uniquename: "LOC100631", Name: "Vml", Description: "venom metalloproteinase-like", Type: "gene", AssemblyID: 1},
		},
		Annotations: []testhelpers.AnnotationSeed{
			{ID: 1, Accession: "K07386", Description: "venom metalloproteinase", FeatureIDs: []int64{1}},
		},
	})

	result := sourceless.search.SearchOrganism(context.Background(), admin, sourceless.snap,
		"Bombus_terrestris", terms("venom"))

	require.False(t, result.Failed())
	require.Equal(t, models.MatchFuzzy, result.Kind)
	require.Len(t, result.Rows, 1)
	require.Equal(t, "K07386", result.Rows[0].AnnotationAccession)
	require.Empty(t, result.Rows[0].SourceName)
	require.EqualValues(t, 1, testutil.ToFloat64(sourceless.metrics.DataQualityWarnings))
}

func TestSearchFederated_PreservesCallerOrder(t *testing.T) {
	env := newTestEnv(t)

	results, err := env.search.SearchFederated(context.Background(), admin, env.snap,
		[]string{"Danio_rerio", "Takifugu_rubripes", "Apis_mellifera"}, terms("loc"))
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, "Danio_rerio", results[0].Organism)
	require.Equal(t, "Takifugu_rubripes", results[1].Organism)
	require.Equal(t, "Apis_mellifera", results[2].Organism)

	// The broken store fails softly without disturbing its neighbors.
	require.True(t, results[1].Failed())
	require.False(t, results[2].Failed())
	require.Len(t, results[2].Rows, 2)
}

func TestSearchFederated_EmptyListExpandsToVisible(t *testing.T) {
	env := newTestEnv(t)

	results, err := env.search.SearchFederated(context.Background(), anonymous, env.snap,
		nil, terms("loc"))
	require.NoError(t, err)

	// Anonymous sees the two public organisms, in registry order.
	require.Len(t, results, 2)
	require.Equal(t, "Apis_mellifera", results[0].Organism)
	require.Equal(t, "Takifugu_rubripes", results[1].Organism)
}

func TestSearchFederated_NoVisibleOrganisms(t *testing.T) {
	env := newTestEnv(t)

	// A registry where nothing is public yields no searchable organisms for
	// an anonymous requester.
	_, err := env.search.SearchFederated(context.Background(),
		anonymous, emptyVisibilitySnapshot(t), nil, terms("loc"))
	require.ErrorIs(t, err, apperrors.ErrNoOrganisms)
}

func TestSearchOrganism_RowCap(t *testing.T) {
	env := newTestEnv(t)
	env.search.cfg.RowCap = 1

	result := env.search.SearchOrganism(context.Background(), anonymous, env.snap,
		"Apis_mellifera", terms("loc"))

	require.False(t, result.Failed())
	require.True(t, result.Capped)
	require.Len(t, result.Rows, 1)
}
