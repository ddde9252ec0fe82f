package domain

import "context"

// VisitStore holds the site-wide page visit counter. Increment must be atomic
// at the store level so concurrent visits never lose updates.
type VisitStore interface {
	Increment(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}
