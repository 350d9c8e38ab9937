package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leavestride/internal/domain/holidays"
	"leavestride/internal/domain/leave"
	"leavestride/internal/domain/users"
	"leavestride/internal/platform/config"
)

func TestStoreDrivers(t *testing.T) {
	drivers := []struct {
		name  string
		env   string
		apply func(*config.Config, string)
	}{
		{"memory", "", func(*config.Config, string) {}},
		{"postgres", "TEST_DATABASE_URL", func(c *config.Config, v string) { c.DatabaseURL = v }},
		{"mongo", "TEST_MONGO_URI", func(c *config.Config, v string) { c.MongoURI = v; c.MongoDatabase = "leavestride_test" }},
	}
	for _, d := range drivers {
		t.Run(d.name, func(t *testing.T) {
			cfg := config.Defaults()
			cfg.StoreDriver = d.name
			if d.env != "" {
				value := os.Getenv(d.env)
				if value == "" {
					t.Skipf("%s not set", d.env)
				}
				d.apply(&cfg, value)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			st, err := openStores(ctx, cfg)
			require.NoError(t, err)
			defer st.close()
			require.NoError(t, st.ping(ctx))

			exerciseStores(t, ctx, st)
		})
	}
}

func exerciseStores(t *testing.T, ctx context.Context, st *stores) {
	t.Helper()
	directory := users.NewService(st.Users)
	directory.Leaves = st.Leaves
	email := fmt.Sprintf("store-%d@test.local", time.Now().UnixNano())
	u, _, err := directory.Create(ctx, users.Actor{Role: users.RoleAdmin}, users.CreateInput{
		FirstName: "Store", LastName: "Check", Email: email, Password: "secret123", Department: "Operations",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^OPS\d{5}$`, u.EmployeeID)

	found, err := directory.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
	assert.Equal(t, users.DefaultBalances(), found.Balances)

	registry := holidays.NewService(st.Holidays)
	day := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, int(time.Now().UnixNano()%36500))
	h, err := registry.Create(ctx, u.ID, holidays.CreateInput{Name: "Store check", Date: day})
	require.NoError(t, err)
	_, err = registry.Create(ctx, u.ID, holidays.CreateInput{Name: "Again", Date: day})
	assert.ErrorIs(t, err, holidays.ErrDuplicateDate)
	_, err = registry.Delete(ctx, h.ID)
	require.NoError(t, err)

	now := time.Now().UTC()
	req := leave.Request{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		LeaveType: leave.TypeSick,
		From:      holidays.Day(now.AddDate(1, 0, 0)),
		To:        holidays.Day(now.AddDate(1, 0, 1)),
		Days:      2,
		Reason:    "check",
		Status:    leave.StatusPending,
		History:   []leave.HistoryEntry{{Action: leave.ActionPending, By: u.ID, At: now}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, st.Leaves.Create(ctx, req))
	overlap, err := st.Leaves.Overlapping(ctx, u.ID, req.From, req.To)
	require.NoError(t, err)
	assert.True(t, overlap)

	got, err := st.Leaves.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, got.Status)
	assert.Len(t, got.History, 1)

	_, err = directory.Delete(ctx, users.Actor{ID: "root", Role: users.RoleAdmin}, u.ID)
	require.NoError(t, err)
	_, err = st.Leaves.Get(ctx, req.ID)
	assert.True(t, errors.Is(err, leave.ErrNotFound), "a deleted user's requests go with them")
}
