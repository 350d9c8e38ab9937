package reports_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"leavestride/internal/domain/leave"
	"leavestride/internal/domain/reports"
	"leavestride/internal/domain/users"
	"leavestride/internal/platform/memstore"
)

type fixedCounter struct{ counts leave.Counts }

func (f fixedCounter) Counts(context.Context) (leave.Counts, error) { return f.counts, nil }

func seed(t *testing.T) (*memstore.DB, *reports.Service) {
	t.Helper()
	db := memstore.New()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	people := []users.User{
		{ID: "u1", FirstName: "Erin", LastName: "Stone", Email: "erin@example.com", EmployeeID: "ENG26001", Role: users.RoleEmployee, Department: "Engineering", IsActive: true, Balances: users.Balances{Sick: 5, Casual: 12, Vacation: 8}, CreatedAt: base},
		{ID: "m1", FirstName: "Mona", LastName: "Reyes", Email: "mona@example.com", EmployeeID: "ENG26002", Role: users.RoleManager, Department: "Engineering", IsActive: true, CreatedAt: base.Add(time.Hour)},
		{ID: "x1", FirstName: "Gone", LastName: "Away", Email: "gone@example.com", EmployeeID: "SAL26001", Role: users.RoleEmployee, Department: "Sales", IsActive: false, CreatedAt: base},
	}
	for _, u := range people {
		require.NoError(t, db.Users().Create(ctx, u))
	}
	requests := []leave.Request{
		{ID: "r1", UserID: "u1", LeaveType: leave.TypeVacation, From: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), To: time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), Days: 3, Status: leave.StatusApproved, ApproverID: "m1", CreatedAt: base},
		{ID: "r2", UserID: "u1", LeaveType: leave.TypeSick, From: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC), Days: 2, Status: leave.StatusPending, CreatedAt: base.Add(time.Hour)},
	}
	for _, r := range requests {
		require.NoError(t, db.Leaves().Create(ctx, r))
	}
	return db, reports.NewService(db.Users(), db.Leaves(), fixedCounter{leave.Counts{Pending: 1, Total: 2, ApprovedThisMonth: 1}})
}

func TestDashboard(t *testing.T) {
	_, svc := seed(t)
	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, reports.Dashboard{TotalEmployees: 2, PendingApprovals: 1, TotalLeaveRequests: 2, ApprovedThisMonth: 1}, d)
}

func TestLeaveRows(t *testing.T) {
	_, svc := seed(t)
	table, err := svc.LeaveRows(context.Background(), reports.LeaveFilter{Status: leave.StatusApproved})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"ENG26001", "Erin Stone", "Engineering", "VACATION", "2026-03-09", "2026-03-11", "3", "APPROVED", "Mona Reyes", "2026-03-01"}, table.Rows[0])
	assert.Equal(t, "leave-requests.csv", table.Filename(reports.FormatCSV))

	table, err = svc.LeaveRows(context.Background(), reports.LeaveFilter{})
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
}

func TestBalanceRowsSkipInactive(t *testing.T) {
	_, svc := seed(t)
	table, err := svc.BalanceRows(context.Background())
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	for _, row := range table.Rows {
		assert.NotEqual(t, "SAL26001", row[0])
	}
}

func TestParseFormat(t *testing.T) {
	f, err := reports.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, reports.FormatCSV, f)

	f, err = reports.ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, reports.FormatXLSX, f)
	assert.Equal(t, "application/pdf", reports.FormatPDF.ContentType())

	_, err = reports.ParseFormat("docx")
	assert.Error(t, err)
}

func TestRenderFormats(t *testing.T) {
	_, svc := seed(t)
	table, err := svc.LeaveRows(context.Background(), reports.LeaveFilter{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, reports.Write(&buf, reports.FormatCSV, table))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, table.Header, records[0])

	buf.Reset()
	require.NoError(t, reports.Write(&buf, reports.FormatPDF, table))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))

	buf.Reset()
	require.NoError(t, reports.Write(&buf, reports.FormatXLSX, table))
	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = book.Close() }()
	rows, err := book.GetRows(table.Title)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Employee ID", rows[0][0])
}

func TestRenderEmptyPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, reports.WritePDF(&buf, reports.Table{Title: "Empty", Header: []string{"A"}}))
	assert.NotZero(t, buf.Len())
}
