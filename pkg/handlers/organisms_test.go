package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moop-bio/moop-engine/pkg/models"
	"github.com/moop-bio/moop-engine/pkg/services"
)

func TestOrganisms_AnonymousCatalog(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.get(t, "/api/organisms", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Organisms []services.OrganismListing `json:"organisms"`
		Count     int                        `json:"count"`
	}
	decodeInto(t, rec, &body)
	require.Equal(t, 1, body.Count)
	require.Equal(t, "Apis_mellifera", body.Organisms[0].Organism.Name)
	require.Equal(t, "honey bee", body.Organisms[0].Organism.CommonName)
}

func TestOrganisms_GrantWidensCatalog(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.get(t, "/api/organisms", srv.aliceToken(t))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int `json:"count"`
	}
	decodeInto(t, rec, &body)
	require.Equal(t, 2, body.Count)
}

func TestAnnotationSources(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.get(t, "/api/organisms/Apis_mellifera/annotations/sources", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Sources []models.SourceCount `json:"sources"`
	}
	decodeInto(t, rec, &body)
	require.Len(t, body.Sources, 2)
}

func TestAnnotationSources_DeniedOrganism(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.get(t, "/api/organisms/Danio_rerio/annotations/sources", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssemblyStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.get(t, "/api/organisms/Apis_mellifera/assemblies/GCF_003254395.2/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.AssemblyStats
	decodeInto(t, rec, &stats)
	require.EqualValues(t, 2, stats.GeneCount)
	require.EqualValues(t, 6, stats.TotalFeatures)
}
