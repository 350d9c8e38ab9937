package holidays_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leavestride/internal/domain/holidays"
	"leavestride/internal/platform/memstore"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateHoliday(t *testing.T) {
	svc := holidays.NewService(memstore.New().Holidays())
	ctx := context.Background()

	h, err := svc.Create(ctx, "admin", holidays.CreateInput{
		Name: "  Company Day ",
		Date: time.Date(2026, 6, 12, 15, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "Company Day", h.Name)
	assert.Equal(t, holidays.CategoryCompany, h.Category)
	assert.Equal(t, date(2026, 6, 12), h.Date)
	assert.Equal(t, "admin", h.CreatedBy)

	_, err = svc.Create(ctx, "admin", holidays.CreateInput{Name: "Other", Date: date(2026, 6, 12)})
	assert.ErrorIs(t, err, holidays.ErrDuplicateDate)

	ok, err := svc.IsHoliday(ctx, time.Date(2026, 6, 12, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateHolidayValidation(t *testing.T) {
	svc := holidays.NewService(memstore.New().Holidays())
	tests := []struct {
		name string
		in   holidays.CreateInput
		want error
	}{
		{"missing name", holidays.CreateInput{Name: " ", Date: date(2026, 1, 2)}, holidays.ErrNameRequired},
		{"long name", holidays.CreateInput{Name: strings.Repeat("a", 101), Date: date(2026, 1, 2)}, holidays.ErrNameTooLong},
		{"long description", holidays.CreateInput{Name: "x", Description: strings.Repeat("d", 301), Date: date(2026, 1, 2)}, holidays.ErrDescTooLong},
		{"missing date", holidays.CreateInput{Name: "x"}, holidays.ErrDateRequired},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "admin", tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestListByYearAndDelete(t *testing.T) {
	svc := holidays.NewService(memstore.New().Holidays())
	ctx := context.Background()
	for _, d := range []time.Time{date(2025, 12, 31), date(2026, 3, 1), date(2026, 1, 1), date(2027, 1, 1)} {
		_, err := svc.Create(ctx, "admin", holidays.CreateInput{Name: d.Format("Jan 2"), Date: d})
		require.NoError(t, err)
	}

	year := 2026
	list, err := svc.List(ctx, &year)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, date(2026, 1, 1), list[0].Date)
	assert.Equal(t, date(2026, 3, 1), list[1].Date)

	all, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	removed, err := svc.Delete(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, list[0].ID, removed.ID)
	_, err = svc.Delete(ctx, list[0].ID)
	assert.ErrorIs(t, err, holidays.ErrNotFound)
}

func TestImportNationalSkipsTakenDates(t *testing.T) {
	svc := holidays.NewService(memstore.New().Holidays())
	ctx := context.Background()

	_, err := svc.Create(ctx, "admin", holidays.CreateInput{Name: "Office Closed", Date: date(2026, 12, 25)})
	require.NoError(t, err)

	created, err := svc.ImportNational(ctx, "admin", "US", 2026)
	require.NoError(t, err)
	assert.Len(t, created, 8)

	again, err := svc.ImportNational(ctx, "admin", "US", 2026)
	require.NoError(t, err)
	assert.Empty(t, again)

	_, err = svc.ImportNational(ctx, "admin", "FR", 2026)
	assert.ErrorIs(t, err, holidays.ErrUnknownRegion)

	set, err := svc.Calendar(ctx, date(2026, 1, 1), date(2026, 12, 31))
	require.NoError(t, err)
	assert.Len(t, set, 9)
	assert.Equal(t, "Office Closed", set[date(2026, 12, 25)])
}
