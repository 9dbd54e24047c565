package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moop-bio/moop-engine/pkg/models"
)

func TestAggregator(t *testing.T) {
	agg := NewAggregator("defensin", 3)
	require.False(t, agg.Result().Terminal())

	agg = NewAggregator("defensin", 3)
	agg.AddAll([]models.PerOrganismResult{
		{Organism: "Apis_mellifera", RowCount: 3, Rows: make([]models.SearchRow, 3)},
		{Organism: "Danio_rerio", Error: "organism store unavailable"},
		{Organism: "Homo_sapiens", RowCount: 100, Capped: true},
	})

	result := agg.Result()
	require.Equal(t, "defensin", result.Query)
	require.Equal(t, 3, result.OrganismsTotal)
	require.Equal(t, 3, result.OrganismsSearched)
	require.True(t, result.Terminal())
	require.Zero(t, result.Remaining())
	require.Equal(t, 103, result.TotalRows)
	require.Equal(t, []string{"Danio_rerio"}, result.FailedOrganisms)
	require.True(t, result.Capped)

	// Caller order survives aggregation.
	require.Equal(t, "Apis_mellifera", result.Results[0].Organism)
	require.Equal(t, "Danio_rerio", result.Results[1].Organism)
	require.Equal(t, "Homo_sapiens", result.Results[2].Organism)
}

func TestAggregator_TerminalAfterResult(t *testing.T) {
	agg := NewAggregator("q", 1)
	agg.Result()
	require.Panics(t, func() {
		agg.Add(models.PerOrganismResult{Organism: "Apis_mellifera"})
	})
}
