package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moop-bio/moop-engine/pkg/adapters/organismstore"
	"github.com/moop-bio/moop-engine/pkg/adapters/organismstore/sqlite"
	"github.com/moop-bio/moop-engine/pkg/audit"
	"github.com/moop-bio/moop-engine/pkg/auth"
	"github.com/moop-bio/moop-engine/pkg/config"
	"github.com/moop-bio/moop-engine/pkg/metrics"
	"github.com/moop-bio/moop-engine/pkg/models"
	"github.com/moop-bio/moop-engine/pkg/registry"
	"github.com/moop-bio/moop-engine/pkg/testhelpers"
)

var (
	anonymous = auth.Requester{IP: "203.0.113.9"}
	admin     = auth.Requester{Username: "root", Admin: true, Authenticated: true}
)

// testEnv is a data directory with three organisms: a public seeded store, a
// private store whose feature hierarchy contains a parent cycle, and a
// public organism whose store file is not a database.
type testEnv struct {
	snap    *registry.Snapshot
	stores  *organismstore.Manager
	sink    *audit.Sink
	metrics *metrics.Metrics
	search  *SearchService
	feature *FeatureService
	catalog *CatalogService
}

// cyclicSeed links two features into a parent loop.
func cyclicSeed() testhelpers.StoreSeed {
	return testhelpers.StoreSeed{
		Organism: models.Organism{
			Name: "Danio_rerio", Genus: "Danio", Species: "rerio", CommonName: "zebrafish",
		},
		Assemblies: []models.Assembly{
			{ID: 1, Accession: "GCF_000002035.6", Name: "GRCz11"},
		},
		Features: []testhelpers.FeatureSeed{
			{ID: 1, Uniquename: "cyca-gene", Name: "cyca", Type: "gene", AssemblyID: 1, ParentID: 2},
			{ID: 2, Uniquename: "cyca-mrna", Name: "cyca-201", Type: "mRNA", AssemblyID: 1, ParentID: 1},
		},
	}
}

// emptyVisibilitySnapshot has one organism on disk but no group metadata, so
// nothing is public and anonymous requesters see nothing.
func emptyVisibilitySnapshot(t *testing.T) *registry.Snapshot {
	t.Helper()
	root := t.TempDir()
	dataDir := filepath.Join(root, "organisms")
	dir := filepath.Join(dataDir, "Danio_rerio")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	testhelpers.CreateStoreFile(t, dir, registry.StoreFileName, cyclicSeed())

	snap, err := registry.NewLoader(dataDir, filepath.Join(root, "missing"),
		filepath.Join(root, "missing", "users.yaml"), zap.NewNop()).Snapshot()
	require.NoError(t, err)
	return snap
}

// newSeededEnv wires the service stack over a single organism store built
// from seed. No group metadata is written, so only admins see the organism.
func newSeededEnv(t *testing.T, organism string, seed testhelpers.StoreSeed) *testEnv {
	t.Helper()
	root := t.TempDir()
	dataDir := filepath.Join(root, "organisms")
	dir := filepath.Join(dataDir, organism)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	testhelpers.CreateStoreFile(t, dir, registry.StoreFileName, seed)

	snap, err := registry.NewLoader(dataDir, filepath.Join(root, "missing"),
		filepath.Join(root, "missing", "users.yaml"), zap.NewNop()).Snapshot()
	require.NoError(t, err)

	stores := organismstore.NewManager(sqlite.NewOpener(snap.StorePath), 0, zap.NewNop())
	t.Cleanup(stores.CloseAll)
	sink := audit.NewSink(64, zap.NewNop())
	t.Cleanup(sink.Close)

	m := metrics.New()
	cfg := config.SearchConfig{RowCap: 100, OrganismTimeoutSeconds: 10, Parallelism: 2}
	logger := zap.NewNop()

	return &testEnv{
		snap:    snap,
		stores:  stores,
		sink:    sink,
		metrics: m,
		search:  NewSearchService(stores, cfg, sink, m, logger),
		feature: NewFeatureService(stores, logger),
		catalog: NewCatalogService(stores, logger),
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	dataDir := filepath.Join(root, "organisms")
	metadataDir := filepath.Join(root, "metadata")
	require.NoError(t, os.MkdirAll(metadataDir, 0o755))

	apisDir := filepath.Join(dataDir, "Apis_mellifera")
	require.NoError(t, os.MkdirAll(apisDir, 0o755))
	testhelpers.CreateStoreFile(t, apisDir, registry.StoreFileName, testhelpers.DefaultSeed())

	danioDir := filepath.Join(dataDir, "Danio_rerio")
	require.NoError(t, os.MkdirAll(danioDir, 0o755))
	testhelpers.CreateStoreFile(t, danioDir, registry.StoreFileName, cyclicSeed())

	brokenDir := filepath.Join(dataDir, "Takifugu_rubripes")
	require.NoError(t, os.MkdirAll(brokenDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(brokenDir, registry.StoreFileName), []byte("not a database"), 0o644))

	groups := `[
		{"organism": "Apis_mellifera", "assembly": "Amel_HAv3.1", "groups": ["PUBLIC"]},
		{"organism": "Danio_rerio", "assembly": "GRCz11", "groups": ["Vertebrates"]},
		{"organism": "Takifugu_rubripes", "assembly": "fTakRub1.2", "groups": ["Public"]}
	]`
	require.NoError(t, os.WriteFile(
		filepath.Join(metadataDir, "organism_assembly_groups.json"), []byte(groups), 0o644))

	snap, err := registry.NewLoader(dataDir, metadataDir,
		filepath.Join(metadataDir, "users.yaml"), zap.NewNop()).Snapshot()
	require.NoError(t, err)

	stores := organismstore.NewManager(sqlite.NewOpener(snap.StorePath), 0, zap.NewNop())
	t.Cleanup(stores.CloseAll)

	sink := audit.NewSink(64, zap.NewNop())
	t.Cleanup(sink.Close)

	m := metrics.New()
	cfg := config.SearchConfig{RowCap: 100, OrganismTimeoutSeconds: 10, Parallelism: 2}
	logger := zap.NewNop()

	return &testEnv{
		snap:    snap,
		stores:  stores,
		sink:    sink,
		metrics: m,
		search:  NewSearchService(stores, cfg, sink, m, logger),
		feature: NewFeatureService(stores, logger),
		catalog: NewCatalogService(stores, logger),
	}
}
