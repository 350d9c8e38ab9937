package holidays

import (
	"context"
	"time"
)

type StoreAPI interface {
	Create(ctx context.Context, h Holiday) error
	// List returns holidays with from <= date <= to ordered by date. Zero bounds are open.
	List(ctx context.Context, from, to time.Time) ([]Holiday, error)
	Delete(ctx context.Context, id string) (Holiday, error)
}
