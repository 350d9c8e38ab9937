package users

import (
	"context"
	"time"
)

// StoreAPI is implemented by the postgres, mongo and memory drivers.
type StoreAPI interface {
	Create(ctx context.Context, u User) error
	Get(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetMany(ctx context.Context, ids []string) (map[string]User, error)
	List(ctx context.Context, filter ListFilter) ([]User, int, error)
	// Update writes profile fields only; balances are left untouched.
	Update(ctx context.Context, u User) error
	SetBalances(ctx context.Context, id string, b Balances, at time.Time) error
	SetPassword(ctx context.Context, id, hash string) error
	SetActive(ctx context.Context, id string, active bool) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	CountEmployeeIDPrefix(ctx context.Context, prefix string) (int, error)
	ListManagers(ctx context.Context) ([]User, error)
	ReportIDs(ctx context.Context, managerID string) ([]string, error)
	CountActive(ctx context.Context) (int, error)
}
