package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/moop-bio/moop-engine/pkg/adapters/organismstore"
	"github.com/moop-bio/moop-engine/pkg/adapters/organismstore/sqlite"
	"github.com/moop-bio/moop-engine/pkg/audit"
	"github.com/moop-bio/moop-engine/pkg/auth"
	"github.com/moop-bio/moop-engine/pkg/config"
	"github.com/moop-bio/moop-engine/pkg/metrics"
	"github.com/moop-bio/moop-engine/pkg/models"
	"github.com/moop-bio/moop-engine/pkg/registry"
	"github.com/moop-bio/moop-engine/pkg/services"
	"github.com/moop-bio/moop-engine/pkg/testhelpers"
)

// testServer is the whole HTTP stack wired over a temp data directory with a
// public Apis_mellifera store and a private Danio_rerio store granted to
// alice (password "hivemind").
type testServer struct {
	handler http.Handler
	authCfg config.AuthConfig
}

func privateSeed() testhelpers.StoreSeed {
	return testhelpers.StoreSeed{
		Organism: models.Organism{
			Name: "Danio_rerio", Genus: "Danio", Species: "rerio", CommonName: "zebrafish",
		},
		Assemblies: []models.Assembly{
			{ID: 1, Accession: "GCF_000002035.6", Name: "GRCz11"},
		},
		Features: []testhelpers.FeatureSeed{
			{ID: 1, Uniquename: "cyca-gene", Name: "cyca", Type: "gene", AssemblyID: 1},
		},
	}
}

func newTestServer(t *testing.T) *testServer {
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
	testhelpers.CreateStoreFile(t, danioDir, registry.StoreFileName, privateSeed())

	groups := `[
		{"organism": "Apis_mellifera", "assembly": "Amel_HAv3.1", "groups": ["PUBLIC"]},
		{"organism": "Danio_rerio", "assembly": "GRCz11", "groups": ["Vertebrates"]}
	]`
	require.NoError(t, os.WriteFile(
		filepath.Join(metadataDir, "organism_assembly_groups.json"), []byte(groups), 0o644))

	hash, err := bcrypt.GenerateFromPassword([]byte("hivemind"), bcrypt.MinCost)
	require.NoError(t, err)
	users := `alice:
  password_hash: ` + string(hash) + `
  access:
    Danio_rerio: []
`
	usersFile := filepath.Join(metadataDir, "users.yaml")
	require.NoError(t, os.WriteFile(usersFile, []byte(users), 0o644))

	logger := zap.NewNop()
	loader := registry.NewLoader(dataDir, metadataDir, usersFile, logger)

	snap, err := loader.Snapshot()
	require.NoError(t, err)
	stores := organismstore.NewManager(sqlite.NewOpener(snap.StorePath), 0, logger)
	t.Cleanup(stores.CloseAll)

	sink := audit.NewSink(64, logger)
	t.Cleanup(sink.Close)
	m := metrics.New()

	cfg := &config.Config{
		Env:     "test",
		Version: "test",
		Auth:    config.AuthConfig{JWTSecret: "test-secret", SessionSecret: "session-secret"},
		Search:  config.SearchConfig{RowCap: 100, OrganismTimeoutSeconds: 10, Parallelism: 2},
	}
	sessions, err := auth.NewSessionManager(cfg.Auth.SessionSecret)
	require.NoError(t, err)

	searchSvc := services.NewSearchService(stores, cfg.Search, sink, m, logger)
	featureSvc := services.NewFeatureService(stores, logger)
	catalogSvc := services.NewCatalogService(stores, logger)

	mux := http.NewServeMux()
	NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	NewSearchHandler(loader, searchSvc, sink, logger).RegisterRoutes(mux)
	NewOrganismsHandler(loader, catalogSvc, logger).RegisterRoutes(mux)
	NewFeatureHandler(loader, featureSvc, logger).RegisterRoutes(mux)
	NewAuthHandler(loader, sessions, cfg.Auth, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", m.Handler())

	return &testServer{
		handler: auth.Middleware(cfg.Auth, sessions, logger)(mux),
		authCfg: cfg.Auth,
	}
}
