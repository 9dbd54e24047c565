package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/moop-bio/moop-engine/pkg/access"
	"github.com/moop-bio/moop-engine/pkg/adapters/organismstore"
	"github.com/moop-bio/moop-engine/pkg/apperrors"
	"github.com/moop-bio/moop-engine/pkg/audit"
	"github.com/moop-bio/moop-engine/pkg/auth"
	"github.com/moop-bio/moop-engine/pkg/config"
	"github.com/moop-bio/moop-engine/pkg/metrics"
	"github.com/moop-bio/moop-engine/pkg/models"
	"github.com/moop-bio/moop-engine/pkg/registry"
)

// Soft-failure messages surfaced per organism. Invisible and unknown
// organisms share one message so a denied name is indistinguishable from an
// absent one.
const (
	errMsgNotAvailable = "organism not available"
	errMsgStoreOffline = "organism store unavailable"
	errMsgQueryFailed  = "search failed for this organism"
	errMsgTimedOut     = "search timed out for this organism"
)

// SearchService runs the two-phase search against one organism and federates
// it across many.
type SearchService struct {
	stores  *organismstore.Manager
	cfg     config.SearchConfig
	sink    *audit.Sink
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewSearchService wires the search path.
func NewSearchService(stores *organismstore.Manager, cfg config.SearchConfig, sink *audit.Sink, m *metrics.Metrics, logger *zap.Logger) *SearchService {
	return &SearchService{stores: stores, cfg: cfg, sink: sink, metrics: m, logger: logger}
}

// SearchOrganism runs both search phases against one organism. Failures are
// soft: they come back inside the result, never as a Go error, so one broken
// store cannot take down a federated response.
func (s *SearchService) SearchOrganism(ctx context.Context, req auth.Requester, snap *registry.Snapshot, organism string, terms organismstore.SearchTerms) models.PerOrganismResult {
	result := models.PerOrganismResult{Organism: organism, Rows: []models.SearchRow{}}

	if !access.ResolveOrganism(req, snap, organism).Allowed() {
		result.Error = errMsgNotAvailable
		s.metrics.OrganismFailures.WithLabelValues(organism, "not_available").Inc()
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.OrganismTimeoutSeconds)*time.Second)
	defer cancel()

	store, err := s.stores.Get(ctx, organism)
	if err != nil {
		s.sink.RecordStoreUnreachable(organism, err)
		s.metrics.OrganismFailures.WithLabelValues(organism, "store_unavailable").Inc()
		result.Error = errMsgStoreOffline
		return result
	}

	rows, capped, err := store.SearchIdentifiers(ctx, terms, s.cfg.RowCap)
	if err != nil {
		return s.failQuery(organism, err, &result)
	}
	if len(rows) > 0 {
		result.Kind = models.MatchIdentifier
		result.Rows = rows
		result.RowCount = len(rows)
		result.Capped = capped
		s.observe(result)
		return result
	}

	rows, capped, err = store.SearchAnnotations(ctx, terms, s.cfg.RowCap)
	if err != nil {
		return s.failQuery(organism, err, &result)
	}
	RankRows(rows, terms.Primary())
	s.flagIncompleteRows(organism, rows)

	result.Kind = models.MatchFuzzy
	result.Rows = rows
	result.RowCount = len(rows)
	result.Capped = capped
	s.observe(result)
	return result
}

func (s *SearchService) failQuery(organism string, err error, result *models.PerOrganismResult) models.PerOrganismResult {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		result.Error = errMsgTimedOut
		s.metrics.OrganismFailures.WithLabelValues(organism, "timeout").Inc()
	default:
		result.Error = errMsgQueryFailed
		s.metrics.OrganismFailures.WithLabelValues(organism, "query_error").Inc()
		// A failed query may mean the handle went stale under us.
		s.stores.Evict(organism)
	}
	s.logger.Warn("per-organism search failed",
		zap.String("organism", organism), zap.Error(err))
	return *result
}

// flagIncompleteRows audits fuzzy rows served with missing source metadata.
// The rows still go out; curators fix the store offline.
func (s *SearchService) flagIncompleteRows(organism string, rows []models.SearchRow) {
	for _, row := range rows {
		missing := ""
		switch {
		case row.SourceName == "":
			missing = "annotation_source_name"
		case row.AnnotationAccession == "":
			missing = "annotation_accession"
		}
		if missing == "" {
			continue
		}
		s.metrics.DataQualityWarnings.Inc()
		s.sink.RecordWarning(models.DataQualityWarning{
			ID:                uuid.New(),
			Organism:          organism,
			FeatureUniquename: row.FeatureUniquename,
			MissingField:      missing,
		})
	}
}

func (s *SearchService) observe(result models.PerOrganismResult) {
	s.metrics.SearchesTotal.WithLabelValues(string(result.Kind)).Inc()
	s.metrics.RowsReturned.Observe(float64(result.RowCount))
}

// SearchFederated fans the search out over the requested organisms with
// bounded parallelism. Results come back in the caller's organism order
// regardless of completion order. An empty organism list expands to every
// organism visible to the requester.
func (s *SearchService) SearchFederated(ctx context.Context, req auth.Requester, snap *registry.Snapshot, organisms []string, terms organismstore.SearchTerms) ([]models.PerOrganismResult, error) {
	if len(organisms) == 0 {
		for _, organism := range snap.Organisms() {
			if access.ResolveOrganism(req, snap, organism).Allowed() {
				organisms = append(organisms, organism)
			}
		}
	}
	if len(organisms) == 0 {
		return nil, apperrors.ErrNoOrganisms
	}

	start := time.Now()
	results := make([]models.PerOrganismResult, len(organisms))

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Parallelism)
	for i, organism := range organisms {
		g.Go(func() error {
			results[i] = s.SearchOrganism(ctx, req, snap, organism, terms)
			return nil
		})
	}
	// Workers only report through the results slice.
	_ = g.Wait()

	s.metrics.SearchDuration.Observe(time.Since(start).Seconds())
	return results, nil
}
