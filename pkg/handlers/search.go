package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/moop-bio/moop-engine/pkg/adapters/organismstore"
	"github.com/moop-bio/moop-engine/pkg/apperrors"
	"github.com/moop-bio/moop-engine/pkg/audit"
	"github.com/moop-bio/moop-engine/pkg/auth"
	"github.com/moop-bio/moop-engine/pkg/logging"
	"github.com/moop-bio/moop-engine/pkg/registry"
	"github.com/moop-bio/moop-engine/pkg/services"
)

// SearchHandler serves the progressive and aggregated search endpoints.
type SearchHandler struct {
	registry *registry.Loader
	search   *services.SearchService
	sink     *audit.Sink
	logger   *zap.Logger
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(reg *registry.Loader, search *services.SearchService, sink *audit.Sink, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{registry: reg, search: search, sink: sink, logger: logger}
}

// RegisterRoutes registers the search routes on the given mux.
func (h *SearchHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/search", h.Search)
	mux.HandleFunc("GET /api/search/aggregate", h.Aggregate)
}

// Search handles GET /api/search?q=&organism=&quoted=. It queries exactly one
// organism and always answers 200 with a PerOrganismResult; store outages and
// invisible organisms come back as soft failures inside the body, so a
// progressive UI can render them in place.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	organism := r.URL.Query().Get("organism")
	if organism == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_organism", "organism parameter is required")
		return
	}
	terms, ok := h.normalize(w, r)
	if !ok {
		return
	}

	snap, err := h.registry.Snapshot()
	if err != nil {
		h.logger.Error("failed to load registry snapshot", zap.Error(err))
		_ = ServiceError(w, err)
		return
	}
	req, _ := auth.GetRequester(r.Context())

	result := h.search.SearchOrganism(r.Context(), req, snap, organism, terms)
	_ = WriteJSON(w, http.StatusOK, result)
}

// Aggregate handles GET /api/search/aggregate?q=&organisms=a,b,c. An empty
// organisms list searches everything the requester may see. Per-organism
// order in the response follows the caller's list.
func (h *SearchHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	terms, ok := h.normalize(w, r)
	if !ok {
		return
	}
	var organisms []string
	for _, name := range strings.Split(r.URL.Query().Get("organisms"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			organisms = append(organisms, name)
		}
	}

	snap, err := h.registry.Snapshot()
	if err != nil {
		h.logger.Error("failed to load registry snapshot", zap.Error(err))
		_ = ServiceError(w, err)
		return
	}
	req, _ := auth.GetRequester(r.Context())

	results, err := h.search.SearchFederated(r.Context(), req, snap, organisms, terms)
	if err != nil {
		_ = ServiceError(w, err)
		return
	}

	agg := services.NewAggregator(logging.SanitizeQuery(r.URL.Query().Get("q")), len(results))
	agg.AddAll(results)
	_ = WriteJSON(w, http.StatusOK, agg.Result())
}

// normalize parses and screens the query text, answering the request itself
// when the text is unusable.
func (h *SearchHandler) normalize(w http.ResponseWriter, r *http.Request) (terms organismstore.SearchTerms, ok bool) {
	raw := r.URL.Query().Get("q")
	quoted := isTruthy(r.URL.Query().Get("quoted"))

	terms, err := services.NormalizeQuery(raw, quoted)
	if err != nil {
		if errors.Is(err, apperrors.ErrQueryRejected) {
			req, _ := auth.GetRequester(r.Context())
			h.sink.RecordRejectedQuery(raw, req.IP)
		}
		_ = ServiceError(w, err)
		return terms, false
	}
	return terms, true
}

func isTruthy(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}
