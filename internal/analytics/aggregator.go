// Package analytics provides read-only projections over stored moderation
// records.
package analytics

import (
	"context"

	"github.com/sievemod/sieve/internal/model"
	"github.com/sievemod/sieve/internal/service"
)

// Aggregator summarizes a submitter's moderation history. It only reads;
// the record store owns all writes.
type Aggregator struct {
	store service.Storage
}

// NewAggregator creates an aggregator over the given store.
func NewAggregator(store service.Storage) *Aggregator {
	return &Aggregator{store: store}
}

// Summarize returns the total request count and completed-label breakdown
// for one submitter. A submitter with no history gets a zero total and an
// empty breakdown; that is not an error.
func (a *Aggregator) Summarize(ctx context.Context, submitter string) (*model.Summary, error) {
	return a.store.Summarize(ctx, submitter)
}
