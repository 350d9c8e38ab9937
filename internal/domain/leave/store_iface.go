package leave

import (
	"context"
	"time"
)

type StoreAPI interface {
	Create(ctx context.Context, r Request) error
	// Get excludes soft-deleted requests.
	Get(ctx context.Context, id string) (Request, error)
	// Overlapping reports whether the user has a PENDING or APPROVED request intersecting [from, to].
	Overlapping(ctx context.Context, userID string, from, to time.Time) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]Request, int, error)
	// Apply performs t only while the request is still PENDING and, when t debits, only
	// while the balance covers t.Days. It returns ErrInvalidState or ErrInsufficientBalance otherwise.
	Apply(ctx context.Context, t Transition) (Request, error)
	// SoftDelete marks the request deleted once. With recredit set it applies DeleteCredit to the
	// row it marks, in the same atomic step.
	SoftDelete(ctx context.Context, id string, at time.Time, recredit bool) (Request, error)
	DeleteByUser(ctx context.Context, userID string) error
	Counts(ctx context.Context, monthStart, monthEnd time.Time) (Counts, error)
}
