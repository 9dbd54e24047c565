package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/moop-bio/moop-engine/pkg/access"
	"github.com/moop-bio/moop-engine/pkg/adapters/organismstore"
	"github.com/moop-bio/moop-engine/pkg/apperrors"
	"github.com/moop-bio/moop-engine/pkg/auth"
	"github.com/moop-bio/moop-engine/pkg/models"
	"github.com/moop-bio/moop-engine/pkg/registry"
)

// maxHierarchyDepth bounds ancestor walks and descendant recursion. Real
// feature hierarchies are a handful of levels (gene > mRNA > exon/CDS); a
// chain this deep means corrupt parent links.
const maxHierarchyDepth = 20

// untypedAnnotationKey groups annotations whose source carries no type.
const untypedAnnotationKey = "other"

// FeatureService resolves feature hierarchies and annotations from one
// organism's store.
type FeatureService struct {
	stores *organismstore.Manager
	logger *zap.Logger
}

// NewFeatureService wires the feature detail path.
func NewFeatureService(stores *organismstore.Manager, logger *zap.Logger) *FeatureService {
	return &FeatureService{stores: stores, logger: logger}
}

// Detail resolves a feature with its ancestor chain, descendant subtree and
// grouped annotations. A feature the requester may not see reports
// apperrors.ErrNotFound, identical to a feature that does not exist.
func (s *FeatureService) Detail(ctx context.Context, req auth.Requester, snap *registry.Snapshot, organism, uniquename string) (*models.FeatureDetail, error) {
	if !access.ResolveOrganism(req, snap, organism).Allowed() {
		return nil, apperrors.ErrNotFound
	}

	store, err := s.stores.Get(ctx, organism)
	if err != nil {
		return nil, err
	}

	feature, err := store.FeatureByUniquename(ctx, uniquename)
	if err != nil {
		return nil, err
	}
	// Assembly-level visibility can be narrower than organism-level.
	if !access.Resolve(req, snap, organism, feature.AssemblyName).Allowed() {
		return nil, apperrors.ErrNotFound
	}

	org, err := store.OrganismInfo(ctx)
	if err != nil {
		return nil, err
	}

	ancestors, err := s.ancestors(ctx, store, feature)
	if err != nil {
		return nil, err
	}
	descendants, err := s.descendants(ctx, store, feature.ID, maxHierarchyDepth, map[int64]bool{feature.ID: true})
	if err != nil {
		return nil, err
	}
	annotations, err := store.Annotations(ctx, feature.ID)
	if err != nil {
		return nil, err
	}

	return &models.FeatureDetail{
		Organism:    *org,
		Feature:     *feature,
		Ancestors:   ancestors,
		Descendants: descendants,
		Annotations: groupAnnotations(annotations),
	}, nil
}

// ancestors walks parent links from the feature to its root. The chain is
// self first, root last. A dangling parent link ends the chain; a repeated
// feature or an over-deep chain is a cycle.
func (s *FeatureService) ancestors(ctx context.Context, store organismstore.Store, feature *models.Feature) ([]models.Feature, error) {
	chain := []models.Feature{*feature}
	visited := map[int64]bool{feature.ID: true}

	current := feature
	for current.ParentID != nil {
		if len(chain) >= maxHierarchyDepth {
			return nil, fmt.Errorf("ancestor chain of %s exceeds depth %d: %w",
				feature.Uniquename, maxHierarchyDepth, apperrors.ErrHierarchyCycle)
		}
		parent, err := store.FeatureByID(ctx, *current.ParentID)
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("dangling parent link",
				zap.String("feature", current.Uniquename),
				zap.Int64("parent_id", *current.ParentID))
			break
		}
		if err != nil {
			return nil, err
		}
		if visited[parent.ID] {
			return nil, fmt.Errorf("ancestor chain of %s revisits %s: %w",
				feature.Uniquename, parent.Uniquename, apperrors.ErrHierarchyCycle)
		}
		visited[parent.ID] = true
		chain = append(chain, *parent)
		current = parent
	}
	return chain, nil
}

// descendants builds the nested child subtree. Children come back from the
// store ordered by type then name, and that order is preserved.
func (s *FeatureService) descendants(ctx context.Context, store organismstore.Store, parentID int64, depth int, visited map[int64]bool) ([]*models.FeatureNode, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("descendant tree exceeds depth %d: %w",
			maxHierarchyDepth, apperrors.ErrHierarchyCycle)
	}
	children, err := store.Children(ctx, parentID)
	if err != nil {
		return nil, err
	}

	var nodes []*models.FeatureNode
	for _, child := range children {
		if visited[child.ID] {
			return nil, fmt.Errorf("descendant tree revisits %s: %w",
				child.Uniquename, apperrors.ErrHierarchyCycle)
		}
		visited[child.ID] = true
		grandchildren, err := s.descendants(ctx, store, child.ID, depth-1, visited)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, &models.FeatureNode{Feature: child, Children: grandchildren})
	}
	return nodes, nil
}

// groupAnnotations buckets annotations by their source type for the detail
// view tabs.
func groupAnnotations(annotations []models.Annotation) map[string][]models.Annotation {
	grouped := make(map[string][]models.Annotation)
	for _, a := range annotations {
		key := a.SourceType
		if key == "" {
			key = untypedAnnotationKey
		}
		grouped[key] = append(grouped[key], a)
	}
	return grouped
}
