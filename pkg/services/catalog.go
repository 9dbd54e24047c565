package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/moop-bio/moop-engine/pkg/access"
	"github.com/moop-bio/moop-engine/pkg/adapters/organismstore"
	"github.com/moop-bio/moop-engine/pkg/apperrors"
	"github.com/moop-bio/moop-engine/pkg/auth"
	"github.com/moop-bio/moop-engine/pkg/models"
	"github.com/moop-bio/moop-engine/pkg/registry"
)

// OrganismListing is one catalog entry: the organism record from its store
// plus the assemblies the requester may see. A store that cannot be read
// still lists the organism, with an error note instead of details.
type OrganismListing struct {
	Organism   models.Organism          `json:"organism_info"`
	Assemblies []access.AssemblyListing `json:"assemblies"`
	Error      string                   `json:"error,omitempty"`
}

// CatalogService lists visible organisms and their assembly statistics.
type CatalogService struct {
	stores *organismstore.Manager
	logger *zap.Logger
}

// NewCatalogService wires the catalog path.
func NewCatalogService(stores *organismstore.Manager, logger *zap.Logger) *CatalogService {
	return &CatalogService{stores: stores, logger: logger}
}

// Organisms returns the catalog of organisms visible to the requester, in
// registry order. Unreadable stores degrade to an error note per organism.
func (c *CatalogService) Organisms(ctx context.Context, req auth.Requester, snap *registry.Snapshot) []OrganismListing {
	var listings []OrganismListing
	for _, organism := range snap.Organisms() {
		if !access.ResolveOrganism(req, snap, organism).Allowed() {
			continue
		}

		listing := OrganismListing{
			Organism:   models.Organism{Name: organism},
			Assemblies: c.visibleAssemblies(req, snap, organism),
		}
		store, err := c.stores.Get(ctx, organism)
		if err != nil {
			c.logger.Warn("catalog: organism store unreadable",
				zap.String("organism", organism), zap.Error(err))
			listing.Error = errMsgStoreOffline
			listings = append(listings, listing)
			continue
		}
		if org, err := store.OrganismInfo(ctx); err == nil {
			listing.Organism = *org
		} else {
			listing.Error = errMsgStoreOffline
		}
		listings = append(listings, listing)
	}
	return listings
}

func (c *CatalogService) visibleAssemblies(req auth.Requester, snap *registry.Snapshot, organism string) []access.AssemblyListing {
	var visible []access.AssemblyListing
	for _, listing := range access.AccessibleAssemblies(req, snap) {
		if listing.Organism == organism {
			visible = append(visible, listing)
		}
	}
	return visible
}

// SourceCounts returns per-source annotation counts for one organism, for
// the advanced-filter UI.
func (c *CatalogService) SourceCounts(ctx context.Context, req auth.Requester, snap *registry.Snapshot, organism string) ([]models.SourceCount, error) {
	if !access.ResolveOrganism(req, snap, organism).Allowed() {
		return nil, apperrors.ErrNotFound
	}
	store, err := c.stores.Get(ctx, organism)
	if err != nil {
		return nil, err
	}
	return store.SourceCounts(ctx)
}

// AssemblyStats returns feature counts for one assembly accession.
func (c *CatalogService) AssemblyStats(ctx context.Context, req auth.Requester, snap *registry.Snapshot, organism, accession string) (*models.AssemblyStats, error) {
	if !access.ResolveOrganism(req, snap, organism).Allowed() {
		return nil, apperrors.ErrNotFound
	}
	store, err := c.stores.Get(ctx, organism)
	if err != nil {
		return nil, err
	}
	return store.AssemblyStats(ctx, accession)
}
