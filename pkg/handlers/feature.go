package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/moop-bio/moop-engine/pkg/auth"
	"github.com/moop-bio/moop-engine/pkg/registry"
	"github.com/moop-bio/moop-engine/pkg/services"
)

// FeatureHandler serves the feature detail endpoint.
type FeatureHandler struct {
	registry *registry.Loader
	features *services.FeatureService
	logger   *zap.Logger
}

// NewFeatureHandler creates a FeatureHandler.
func NewFeatureHandler(reg *registry.Loader, features *services.FeatureService, logger *zap.Logger) *FeatureHandler {
	return &FeatureHandler{registry: reg, features: features, logger: logger}
}

// RegisterRoutes registers the feature routes on the given mux.
func (h *FeatureHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/features/{organism}/{uniquename}", h.Detail)
}

// Detail handles GET /api/features/{organism}/{uniquename}: the feature, its
// ancestor chain, its descendant subtree and annotations grouped by source
// type. Features the requester may not see answer 404, indistinguishable
// from absent ones.
func (h *FeatureHandler) Detail(w http.ResponseWriter, r *http.Request) {
	snap, err := h.registry.Snapshot()
	if err != nil {
		h.logger.Error("failed to load registry snapshot", zap.Error(err))
		_ = ServiceError(w, err)
		return
	}
	req, _ := auth.GetRequester(r.Context())

	detail, err := h.features.Detail(r.Context(), req, snap,
		r.PathValue("organism"), r.PathValue("uniquename"))
	if err != nil {
		_ = ServiceError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, detail)
}
