package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moop-bio/moop-engine/pkg/apperrors"
)

func TestDetail_ResolvesHierarchy(t *testing.T) {
	env := newTestEnv(t)

	detail, err := env.feature.Detail(context.Background(), anonymous, env.snap,
		"Apis_mellifera", "XP_006557337")
	require.NoError(t, err)

	require.Equal(t, "Apis mellifera", detail.Organism.ScientificName())
	require.Equal(t, "XP_006557337", detail.Feature.Uniquename)

	// Self first, root last.
	require.Len(t, detail.Ancestors, 3)
	require.Equal(t, "XP_006557337", detail.Ancestors[0].Uniquename)
	require.Equal(t, "XM_006557274", detail.Ancestors[1].Uniquename)
	require.Equal(t, "LOC406114", detail.Ancestors[2].Uniquename)

	// A leaf has no descendants.
	require.Empty(t, detail.Descendants)

	require.Len(t, detail.Annotations["domain"], 1)
	require.Len(t, detail.Annotations["ontology"], 1)
	require.Equal(t, "IPR017996", detail.Annotations["domain"][0].Accession)
}

func TestDetail_DescendantsAreNested(t *testing.T) {
	env := newTestEnv(t)

	detail, err := env.feature.Detail(context.Background(), anonymous, env.snap,
		"Apis_mellifera", "LOC406114")
	require.NoError(t, err)

	require.Len(t, detail.Ancestors, 1)
	require.Len(t, detail.Descendants, 1)

	mrna := detail.Descendants[0]
	require.Equal(t, "XM_006557274", mrna.Uniquename)
	require.Len(t, mrna.Children, 2)
	require.Equal(t, "exon", mrna.Children[0].Type)
	require.Equal(t, "protein", mrna.Children[1].Type)
	require.Empty(t, mrna.Children[1].Children)
}

func TestDetail_UnknownFeature(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.feature.Detail(context.Background(), anonymous, env.snap,
		"Apis_mellifera", "LOC000000")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDetail_DeniedOrganismLooksUnknown(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.feature.Detail(context.Background(), anonymous, env.snap,
		"Danio_rerio", "cyca-gene")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = env.feature.Detail(context.Background(), anonymous, env.snap,
		"Mus_musculus", "anything")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDetail_ParentCycleIsAnError(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.feature.Detail(context.Background(), admin, env.snap,
		"Danio_rerio", "cyca-gene")
	require.ErrorIs(t, err, apperrors.ErrHierarchyCycle)
}

func TestDetail_BrokenStore(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.feature.Detail(context.Background(), anonymous, env.snap,
		"Takifugu_rubripes", "anything")
	require.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
}
