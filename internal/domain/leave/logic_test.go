package leave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leavestride/internal/domain/holidays"
	"leavestride/internal/domain/users"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWorkingDays(t *testing.T) {
	// 2026-03-02 is a Monday.
	companyDay := holidays.Set{day(2026, 3, 4): "Company day"}

	tests := []struct {
		name     string
		from, to time.Time
		hol      HolidayChecker
		want     int
	}{
		{"full week", day(2026, 3, 2), day(2026, 3, 6), nil, 5},
		{"spans weekend", day(2026, 3, 6), day(2026, 3, 9), nil, 2},
		{"weekend only", day(2026, 3, 7), day(2026, 3, 8), nil, 0},
		{"holiday excluded", day(2026, 3, 2), day(2026, 3, 6), companyDay, 4},
		{"single day", day(2026, 3, 3), day(2026, 3, 3), nil, 1},
		{"reversed", day(2026, 3, 6), day(2026, 3, 2), nil, 0},
		{"ignores clock time", day(2026, 3, 2).Add(23 * time.Hour), day(2026, 3, 3).Add(time.Hour), nil, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, WorkingDays(tc.from, tc.to, tc.hol))
		})
	}
}

func TestOverlaps(t *testing.T) {
	assert.True(t, Overlaps(day(2026, 3, 2), day(2026, 3, 4), day(2026, 3, 4), day(2026, 3, 6)), "shared boundary day")
	assert.True(t, Overlaps(day(2026, 3, 2), day(2026, 3, 10), day(2026, 3, 4), day(2026, 3, 5)), "containment")
	assert.False(t, Overlaps(day(2026, 3, 2), day(2026, 3, 3), day(2026, 3, 4), day(2026, 3, 6)))
	assert.False(t, Overlaps(day(2026, 3, 9), day(2026, 3, 10), day(2026, 3, 2), day(2026, 3, 6)))
}

func TestBalanceFor(t *testing.T) {
	u := users.User{Balances: users.Balances{Sick: 3, Casual: 4, Vacation: 10, Academic: 1}}
	assert.Equal(t, 3, BalanceFor(u, TypeSick))
	assert.Equal(t, 4, BalanceFor(u, TypeCasual))
	assert.Equal(t, 10, BalanceFor(u, TypeVacation))
	assert.Equal(t, 1, BalanceFor(u, TypeAcademic))
	assert.Equal(t, 0, BalanceFor(u, TypeWFH))
	assert.Equal(t, 0, BalanceFor(u, TypeCompOff))

	assert.True(t, HasSufficientBalance(5, 5))
	assert.False(t, HasSufficientBalance(4, 5))
}

func TestParseLeaveType(t *testing.T) {
	got, err := ParseLeaveType(" vacation ")
	require.NoError(t, err)
	assert.Equal(t, TypeVacation, got)

	_, err = ParseLeaveType("SABBATICAL")
	require.Error(t, err)

	_, tracked := TypeWFH.BalanceField()
	assert.False(t, tracked)
	field, tracked := TypeSick.BalanceField()
	assert.True(t, tracked)
	assert.Equal(t, users.FieldSick, field)
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus("approved")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, got)
	assert.True(t, got.Terminal())
	assert.False(t, StatusPending.Terminal())

	_, err = ParseStatus("ARCHIVED")
	require.Error(t, err)
}

func TestParseRecreditPolicy(t *testing.T) {
	p, ok := ParseRecreditPolicy("")
	assert.True(t, ok)
	assert.Equal(t, RecreditNever, p)

	p, ok = ParseRecreditPolicy("on_delete")
	assert.True(t, ok)
	assert.Equal(t, RecreditOnDelete, p)

	_, ok = ParseRecreditPolicy("always")
	assert.False(t, ok)
}

func TestDeleteCredit(t *testing.T) {
	approved := Request{LeaveType: TypeVacation, Status: StatusApproved, Days: 3}

	field, ok := DeleteCredit(approved, true)
	assert.True(t, ok)
	assert.NotEmpty(t, field)

	_, ok = DeleteCredit(approved, false)
	assert.False(t, ok)

	pending := approved
	pending.Status = StatusPending
	_, ok = DeleteCredit(pending, true)
	assert.False(t, ok, "only the status being deleted decides the credit")

	wfh := approved
	wfh.LeaveType = TypeWFH
	_, ok = DeleteCredit(wfh, true)
	assert.False(t, ok)
}
