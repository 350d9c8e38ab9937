package leave

import (
	"time"

	cal "github.com/rickar/cal/v2"

	"leavestride/internal/domain/holidays"
	"leavestride/internal/domain/users"
)

type HolidayChecker interface {
	IsHoliday(date time.Time) bool
}

// WorkingDays counts days in [from, to] that are neither weekend days nor holidays.
func WorkingDays(from, to time.Time, hol HolidayChecker) int {
	start, end := holidays.Day(from), holidays.Day(to)
	if start.After(end) {
		return 0
	}
	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if cal.IsWeekend(d) {
			continue
		}
		if hol != nil && hol.IsHoliday(d) {
			continue
		}
		days++
	}
	return days
}

// BalanceFor returns the user's remaining days for t, 0 for untracked types.
func BalanceFor(u users.User, t LeaveType) int {
	field, ok := t.BalanceField()
	if !ok {
		return 0
	}
	return u.Balances.Get(field)
}

func HasSufficientBalance(current, requested int) bool {
	return current >= requested
}

// Overlaps reports whether [aFrom, aTo] and [bFrom, bTo] share a day.
func Overlaps(aFrom, aTo, bFrom, bTo time.Time) bool {
	return !holidays.Day(aFrom).After(holidays.Day(bTo)) && !holidays.Day(bFrom).After(holidays.Day(aTo))
}

type RecreditPolicy string

const (
	RecreditNever    RecreditPolicy = "never"
	RecreditOnDelete RecreditPolicy = "on_delete"
)

func ParseRecreditPolicy(raw string) (RecreditPolicy, bool) {
	switch p := RecreditPolicy(raw); p {
	case RecreditNever, RecreditOnDelete:
		return p, true
	case "":
		return RecreditNever, true
	}
	return "", false
}

// DeleteCredit names the balance a soft delete returns days to. Only approved requests of a
// tracked type are credited, and only when recredit is on; r must be the row as it was deleted.
func DeleteCredit(r Request, recredit bool) (string, bool) {
	if !recredit || r.Status != StatusApproved || r.Days <= 0 {
		return "", false
	}
	return r.LeaveType.BalanceField()
}
