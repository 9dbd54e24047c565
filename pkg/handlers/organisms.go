package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/moop-bio/moop-engine/pkg/auth"
	"github.com/moop-bio/moop-engine/pkg/registry"
	"github.com/moop-bio/moop-engine/pkg/services"
)

// OrganismsHandler serves the organism catalog and per-organism metadata.
type OrganismsHandler struct {
	registry *registry.Loader
	catalog  *services.CatalogService
	logger   *zap.Logger
}

// NewOrganismsHandler creates an OrganismsHandler.
func NewOrganismsHandler(reg *registry.Loader, catalog *services.CatalogService, logger *zap.Logger) *OrganismsHandler {
	return &OrganismsHandler{registry: reg, catalog: catalog, logger: logger}
}

// RegisterRoutes registers the catalog routes on the given mux.
func (h *OrganismsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/organisms", h.List)
	mux.HandleFunc("GET /api/organisms/{organism}/annotations/sources", h.AnnotationSources)
	mux.HandleFunc("GET /api/organisms/{organism}/assemblies/{accession}/stats", h.AssemblyStats)
}

// List handles GET /api/organisms: every organism and assembly the requester
// may see.
func (h *OrganismsHandler) List(w http.ResponseWriter, r *http.Request) {
	snap, err := h.registry.Snapshot()
	if err != nil {
		h.logger.Error("failed to load registry snapshot", zap.Error(err))
		_ = ServiceError(w, err)
		return
	}
	req, _ := auth.GetRequester(r.Context())

	listings := h.catalog.Organisms(r.Context(), req, snap)
	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"organisms": listings,
		"count":     len(listings),
	})
}

// AnnotationSources handles GET /api/organisms/{organism}/annotations/sources
// with per-source annotation counts for the search filter.
func (h *OrganismsHandler) AnnotationSources(w http.ResponseWriter, r *http.Request) {
	snap, err := h.registry.Snapshot()
	if err != nil {
		h.logger.Error("failed to load registry snapshot", zap.Error(err))
		_ = ServiceError(w, err)
		return
	}
	req, _ := auth.GetRequester(r.Context())

	counts, err := h.catalog.SourceCounts(r.Context(), req, snap, r.PathValue("organism"))
	if err != nil {
		_ = ServiceError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]any{"sources": counts})
}

// AssemblyStats handles GET /api/organisms/{organism}/assemblies/{accession}/stats.
func (h *OrganismsHandler) AssemblyStats(w http.ResponseWriter, r *http.Request) {
	snap, err := h.registry.Snapshot()
	if err != nil {
		h.logger.Error("failed to load registry snapshot", zap.Error(err))
		_ = ServiceError(w, err)
		return
	}
	req, _ := auth.GetRequester(r.Context())

	stats, err := h.catalog.AssemblyStats(r.Context(), req, snap,
		r.PathValue("organism"), r.PathValue("accession"))
	if err != nil {
		_ = ServiceError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, stats)
}
