package services

import (
	"github.com/moop-bio/moop-engine/pkg/models"
)

// Aggregate is the terminal summary of a federated search: every organism's
// result in the caller's order plus roll-up counters.
type Aggregate struct {
	Query             string                     `json:"query"`
	Results           []models.PerOrganismResult `json:"organisms"`
	TotalRows         int                        `json:"total_rows"`
	OrganismsTotal    int                        `json:"organisms_total"`
	OrganismsSearched int                        `json:"organisms_searched"`
	FailedOrganisms   []string                   `json:"failed_organisms,omitempty"`
	Capped            bool                       `json:"capped,omitempty"`
}

// Remaining reports how many organisms have not produced a result yet.
func (a Aggregate) Remaining() int { return a.OrganismsTotal - a.OrganismsSearched }

// Terminal reports whether every organism has produced a result or a
// recorded soft failure.
func (a Aggregate) Terminal() bool { return a.OrganismsSearched >= a.OrganismsTotal }

// Aggregator accumulates per-organism results as they arrive. It is not
// safe for concurrent use; the federation layer adds results after the
// fan-out completes, in caller order.
type Aggregator struct {
	agg   Aggregate
	final bool
}

// NewAggregator starts an accumulation for one query across organismsTotal
// organisms.
func NewAggregator(query string, organismsTotal int) *Aggregator {
	return &Aggregator{agg: Aggregate{Query: query, OrganismsTotal: organismsTotal}}
}

// Add records one organism's result. Panics if called after Result, which
// marks the aggregate terminal.
func (a *Aggregator) Add(result models.PerOrganismResult) {
	if a.final {
		panic("aggregator: Add after Result")
	}
	a.agg.Results = append(a.agg.Results, result)
	a.agg.OrganismsSearched++
	if result.Failed() {
		a.agg.FailedOrganisms = append(a.agg.FailedOrganisms, result.Organism)
		return
	}
	a.agg.TotalRows += result.RowCount
	if result.Capped {
		a.agg.Capped = true
	}
}

// AddAll records a full fan-out result set in order.
func (a *Aggregator) AddAll(results []models.PerOrganismResult) {
	for _, r := range results {
		a.Add(r)
	}
}

// Result finalizes and returns the aggregate.
func (a *Aggregator) Result() Aggregate {
	a.final = true
	return a.agg
}
