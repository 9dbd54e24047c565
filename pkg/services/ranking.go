package services

import (
	"regexp"
	"sort"
	"strings"

	"github.com/moop-bio/moop-engine/pkg/models"
)

// Relevance tiers for fuzzy rows, best first. The primary term (first term,
// or the whole phrase in quoted mode) decides the tier; remaining terms
// already constrained the row set.
const (
	rankNameWord    = 1
	rankNameStart   = 2
	rankDescription = 3
	rankAnnotation  = 4
	rankOther       = 5
)

// RankRows orders fuzzy search rows by relevance tier, then by feature
// identifier for a stable listing. Identifier-phase rows are never ranked;
// they are already ordered by identifier.
func RankRows(rows []models.SearchRow, primary string) {
	primary = strings.ToLower(primary)
	if primary == "" || len(rows) == 0 {
		return
	}
	wordRe := regexp.MustCompile(`(?i)(^|\W)` + regexp.QuoteMeta(primary) + `($|\W)`)
	startRe := regexp.MustCompile(`(?i)(^|\W)` + regexp.QuoteMeta(primary))

	type ranked struct {
		tier int
		row  models.SearchRow
	}
	paired := make([]ranked, len(rows))
	for i, row := range rows {
		paired[i] = ranked{tier: rowTier(row, primary, wordRe, startRe), row: row}
	}
	sort.SliceStable(paired, func(i, j int) bool {
		if paired[i].tier != paired[j].tier {
			return paired[i].tier < paired[j].tier
		}
		return paired[i].row.FeatureUniquename < paired[j].row.FeatureUniquename
	})
	for i, p := range paired {
		rows[i] = p.row
	}
}

// rowTier buckets one row. Tier 1 is a whole-word hit in the feature name,
// tier 2 a word-start hit anywhere in the name ("jellylike" for "jelly").
func rowTier(row models.SearchRow, primary string, wordRe, startRe *regexp.Regexp) int {
	name := strings.ToLower(row.FeatureName)
	switch {
	case name != "" && wordRe.MatchString(name):
		return rankNameWord
	case name != "" && startRe.MatchString(name):
		return rankNameStart
	case strings.Contains(strings.ToLower(row.FeatureDescription), primary):
		return rankDescription
	case strings.Contains(strings.ToLower(row.AnnotationDescription), primary):
		return rankAnnotation
	default:
		return rankOther
	}
}
