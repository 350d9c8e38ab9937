package reports

import (
	"context"
	"strconv"

	"leavestride/internal/domain/leave"
	"leavestride/internal/domain/users"
)

type LeaveCounter interface {
	Counts(ctx context.Context) (leave.Counts, error)
}

type Service struct {
	Users   users.StoreAPI
	Leaves  leave.StoreAPI
	Counter LeaveCounter
}

func NewService(userStore users.StoreAPI, leaveStore leave.StoreAPI, counter LeaveCounter) *Service {
	return &Service{Users: userStore, Leaves: leaveStore, Counter: counter}
}

func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	employees, err := s.Users.CountActive(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	counts, err := s.Counter.Counts(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		TotalEmployees:     employees,
		PendingApprovals:   counts.Pending,
		TotalLeaveRequests: counts.Total,
		ApprovedThisMonth:  counts.ApprovedThisMonth,
		RejectedThisMonth:  counts.RejectedThisMonth,
	}, nil
}

func (s *Service) LeaveRows(ctx context.Context, filter LeaveFilter) (Table, error) {
	items, _, err := s.Leaves.List(ctx, leave.ListFilter{
		Status: filter.Status,
		Start:  filter.Start,
		End:    filter.End,
	})
	if err != nil {
		return Table{}, err
	}
	ids := make([]string, 0, len(items))
	for _, r := range items {
		ids = append(ids, r.UserID)
		if r.ApproverID != "" {
			ids = append(ids, r.ApproverID)
		}
	}
	people := map[string]users.User{}
	if len(ids) > 0 {
		if people, err = s.Users.GetMany(ctx, ids); err != nil {
			return Table{}, err
		}
	}

	t := Table{
		Name:   "leave-requests",
		Title:  "Leave requests",
		Header: []string{"Employee ID", "Employee", "Department", "Type", "From", "To", "Days", "Status", "Approver", "Submitted"},
	}
	for _, r := range items {
		owner := people[r.UserID]
		approver := ""
		if a, ok := people[r.ApproverID]; ok {
			approver = a.FullName()
		}
		t.Rows = append(t.Rows, []string{
			owner.EmployeeID,
			owner.FullName(),
			owner.Department,
			string(r.LeaveType),
			r.From.Format(dateLayout),
			r.To.Format(dateLayout),
			strconv.Itoa(r.Days),
			string(r.Status),
			approver,
			r.CreatedAt.UTC().Format(dateLayout),
		})
	}
	return t, nil
}

func (s *Service) BalanceRows(ctx context.Context) (Table, error) {
	list, _, err := s.Users.List(ctx, users.ListFilter{Status: users.StatusActive})
	if err != nil {
		return Table{}, err
	}
	t := Table{
		Name:   "leave-balances",
		Title:  "Leave balances",
		Header: []string{"Employee ID", "Employee", "Department", "Role", "Sick", "Casual", "Vacation", "Academic"},
	}
	for _, u := range list {
		t.Rows = append(t.Rows, []string{
			u.EmployeeID,
			u.FullName(),
			u.Department,
			string(u.Role),
			strconv.Itoa(u.Balances.Sick),
			strconv.Itoa(u.Balances.Casual),
			strconv.Itoa(u.Balances.Vacation),
			strconv.Itoa(u.Balances.Academic),
		})
	}
	return t, nil
}
