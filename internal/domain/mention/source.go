// internal/domain/mention/source.go

package mention

import (
	"context"
)

// Source defines a searchable social platform
type Source interface {
	// Search returns up to q.Limit items matching q.Term in q.Channel
	Search(ctx context.Context, q Query) ([]Item, error)

	// Replies returns every reply attached to item, flattened
	Replies(ctx context.Context, item Item) ([]Reply, error)
}

// Scorer maps text to a sentiment polarity in [-1, 1]
type Scorer interface {
	// Score never fails; unscorable text yields 0
	Score(text string) float64
}

// Sink persists a dataset under the given file name
type Sink interface {
	// Write stores records and returns the path that was written
	Write(records []Record, filename string) (string, error)
}
