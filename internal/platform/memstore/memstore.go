// Package memstore is the in-process store driver. Every collection is guarded by one RWMutex,
// so the conditional updates the SQL and Mongo drivers rely on are atomic here too.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"leavestride/internal/domain/holidays"
	"leavestride/internal/domain/leave"
	"leavestride/internal/domain/users"
)

type DB struct {
	mu       sync.RWMutex
	users    map[string]users.User
	holidays map[string]holidays.Holiday
	leaves   map[string]leave.Request
}

func New() *DB {
	return &DB{
		users:    map[string]users.User{},
		holidays: map[string]holidays.Holiday{},
		leaves:   map[string]leave.Request{},
	}
}

func (db *DB) Users() *UserStore { return &UserStore{db: db} }

func (db *DB) Holidays() *HolidayStore { return &HolidayStore{db: db} }

func (db *DB) Leaves() *LeaveStore { return &LeaveStore{db: db} }

func (db *DB) Ping(context.Context) error { return nil }

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type UserStore struct {
	db *DB
}

func (s *UserStore) Create(_ context.Context, u users.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.users {
		if existing.Email == u.Email {
			return users.ErrEmailTaken
		}
		if existing.EmployeeID == u.EmployeeID {
			return users.ErrEmployeeIDTaken
		}
	}
	s.db.users[u.ID] = u
	return nil
}

func (s *UserStore) Get(_ context.Context, id string) (users.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	u, ok := s.db.users[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (users.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, u := range s.db.users {
		if u.Email == email {
			return u, nil
		}
	}
	return users.User{}, users.ErrNotFound
}

func (s *UserStore) GetMany(_ context.Context, ids []string) (map[string]users.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make(map[string]users.User, len(ids))
	for _, id := range ids {
		if u, ok := s.db.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func matchesUser(u users.User, f users.ListFilter, ids map[string]bool) bool {
	if ids != nil && !ids[u.ID] {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		hit := false
		for _, field := range []string{u.FirstName, u.LastName, u.Email, u.EmployeeID} {
			if strings.Contains(strings.ToLower(field), q) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if f.Department != "" && u.Department != f.Department {
		return false
	}
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	switch f.Status {
	case users.StatusActive:
		return u.IsActive
	case users.StatusInactive:
		return !u.IsActive
	}
	return true
}

func (s *UserStore) List(_ context.Context, f users.ListFilter) ([]users.User, int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var ids map[string]bool
	if f.IDs != nil {
		ids = make(map[string]bool, len(f.IDs))
		for _, id := range f.IDs {
			ids[id] = true
		}
	}
	var out []users.User
	for _, u := range s.db.users {
		if matchesUser(u, f, ids) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, f.Offset, f.Limit), len(out), nil
}

func (s *UserStore) Update(_ context.Context, u users.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	current, ok := s.db.users[u.ID]
	if !ok {
		return users.ErrNotFound
	}
	for id, other := range s.db.users {
		if id != u.ID && other.Email == u.Email {
			return users.ErrEmailTaken
		}
	}
	u.Balances = current.Balances
	u.PasswordHash = current.PasswordHash
	u.EmployeeID = current.EmployeeID
	u.CreatedAt = current.CreatedAt
	u.LastLogin = current.LastLogin
	u.Manager = nil
	s.db.users[u.ID] = u
	return nil
}

func (s *UserStore) mutate(id string, fn func(*users.User)) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return users.ErrNotFound
	}
	fn(&u)
	s.db.users[id] = u
	return nil
}

func (s *UserStore) SetBalances(_ context.Context, id string, b users.Balances, at time.Time) error {
	if !b.Valid() {
		return users.ErrNegativeBalance
	}
	return s.mutate(id, func(u *users.User) {
		u.Balances = b
		u.UpdatedAt = at
	})
}

func (s *UserStore) SetPassword(_ context.Context, id, hash string) error {
	return s.mutate(id, func(u *users.User) {
		u.PasswordHash = hash
		u.UpdatedAt = time.Now().UTC()
	})
}

func (s *UserStore) SetActive(_ context.Context, id string, active bool) error {
	return s.mutate(id, func(u *users.User) {
		u.IsActive = active
		u.UpdatedAt = time.Now().UTC()
	})
}

func (s *UserStore) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	return s.mutate(id, func(u *users.User) { u.LastLogin = &at })
}

func (s *UserStore) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[id]; !ok {
		return users.ErrNotFound
	}
	delete(s.db.users, id)
	for rid, u := range s.db.users {
		if u.ManagerID == id {
			u.ManagerID = ""
			s.db.users[rid] = u
		}
	}
	for lid, r := range s.db.leaves {
		if r.UserID == id {
			delete(s.db.leaves, lid)
		}
	}
	return nil
}

func (s *UserStore) CountEmployeeIDPrefix(_ context.Context, prefix string) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	n := 0
	for _, u := range s.db.users {
		if strings.HasPrefix(u.EmployeeID, prefix) {
			n++
		}
	}
	return n, nil
}

func (s *UserStore) ListManagers(_ context.Context) ([]users.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var out []users.User
	for _, u := range s.db.users {
		if u.IsActive && (u.Role == users.RoleManager || u.Role == users.RoleAdmin) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstName == out[j].FirstName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

func (s *UserStore) ReportIDs(_ context.Context, managerID string) ([]string, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := []string{}
	for _, u := range s.db.users {
		if u.ManagerID == managerID {
			out = append(out, u.ID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *UserStore) CountActive(_ context.Context) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	n := 0
	for _, u := range s.db.users {
		if u.IsActive {
			n++
		}
	}
	return n, nil
}

type HolidayStore struct {
	db *DB
}

func (s *HolidayStore) Create(_ context.Context, h holidays.Holiday) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	day := holidays.Day(h.Date)
	for _, existing := range s.db.holidays {
		if holidays.Day(existing.Date).Equal(day) {
			return holidays.ErrDuplicateDate
		}
	}
	s.db.holidays[h.ID] = h
	return nil
}

func (s *HolidayStore) List(_ context.Context, from, to time.Time) ([]holidays.Holiday, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var out []holidays.Holiday
	for _, h := range s.db.holidays {
		if !from.IsZero() && h.Date.Before(from) {
			continue
		}
		if !to.IsZero() && h.Date.After(to) {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *HolidayStore) Delete(_ context.Context, id string) (holidays.Holiday, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	h, ok := s.db.holidays[id]
	if !ok {
		return holidays.Holiday{}, holidays.ErrNotFound
	}
	delete(s.db.holidays, id)
	return h, nil
}

type LeaveStore struct {
	db *DB
}

func cloneRequest(r leave.Request) leave.Request {
	r.History = append([]leave.HistoryEntry(nil), r.History...)
	return r
}

func (s *LeaveStore) Create(_ context.Context, r leave.Request) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.leaves[r.ID] = cloneRequest(r)
	return nil
}

func (s *LeaveStore) Get(_ context.Context, id string) (leave.Request, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	r, ok := s.db.leaves[id]
	if !ok || r.DeletedAt != nil {
		return leave.Request{}, leave.ErrNotFound
	}
	return cloneRequest(r), nil
}

func (s *LeaveStore) Overlapping(_ context.Context, userID string, from, to time.Time) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, r := range s.db.leaves {
		if r.UserID != userID || r.DeletedAt != nil {
			continue
		}
		if r.Status != leave.StatusPending && r.Status != leave.StatusApproved {
			continue
		}
		if leave.Overlaps(r.From, r.To, from, to) {
			return true, nil
		}
	}
	return false, nil
}

func matchesLeave(r leave.Request, f leave.ListFilter, owners map[string]bool) bool {
	switch {
	case r.DeletedAt != nil:
		return false
	case owners != nil && !owners[r.UserID]:
		return false
	case f.Status != "" && r.Status != f.Status:
		return false
	case f.LeaveType != "" && r.LeaveType != f.LeaveType:
		return false
	case !f.Start.IsZero() && r.From.Before(f.Start):
		return false
	case !f.End.IsZero() && r.To.After(f.End):
		return false
	case !f.OverlapFrom.IsZero() && r.To.Before(f.OverlapFrom):
		return false
	case !f.OverlapTo.IsZero() && r.From.After(f.OverlapTo):
		return false
	}
	return true
}

func (s *LeaveStore) List(_ context.Context, f leave.ListFilter) ([]leave.Request, int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var owners map[string]bool
	if f.UserIDs != nil {
		owners = make(map[string]bool, len(f.UserIDs))
		for _, id := range f.UserIDs {
			owners[id] = true
		}
	}
	var out []leave.Request
	for _, r := range s.db.leaves {
		if matchesLeave(r, f, owners) {
			out = append(out, cloneRequest(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, f.Offset, f.Limit), len(out), nil
}

func (s *LeaveStore) Apply(_ context.Context, t leave.Transition) (leave.Request, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.leaves[t.RequestID]
	if !ok || r.DeletedAt != nil || r.Status != leave.StatusPending {
		return leave.Request{}, leave.ErrInvalidState
	}
	if t.DebitField != "" && t.Days > 0 {
		owner, ok := s.db.users[r.UserID]
		if !ok {
			return leave.Request{}, users.ErrNotFound
		}
		if owner.Balances.Get(t.DebitField) < t.Days {
			return leave.Request{}, leave.ErrInsufficientBalance
		}
		owner.Balances.Add(t.DebitField, -t.Days)
		owner.UpdatedAt = t.At
		s.db.users[owner.ID] = owner
	}
	r = cloneRequest(r)
	r.Status = t.To
	if t.ApproverID != "" {
		r.ApproverID = t.ApproverID
	}
	r.History = append(r.History, t.Entry)
	r.UpdatedAt = t.At
	s.db.leaves[r.ID] = r
	return cloneRequest(r), nil
}

func (s *LeaveStore) SoftDelete(_ context.Context, id string, at time.Time, recredit bool) (leave.Request, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.leaves[id]
	if !ok || r.DeletedAt != nil {
		return leave.Request{}, leave.ErrNotFound
	}
	r.DeletedAt = &at
	r.UpdatedAt = at
	s.db.leaves[id] = r
	if creditField, credit := leave.DeleteCredit(r, recredit); credit {
		if owner, ok := s.db.users[r.UserID]; ok {
			owner.Balances.Add(creditField, r.Days)
			owner.UpdatedAt = at
			s.db.users[owner.ID] = owner
		}
	}
	return cloneRequest(r), nil
}

func (s *LeaveStore) DeleteByUser(_ context.Context, userID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for id, r := range s.db.leaves {
		if r.UserID == userID {
			delete(s.db.leaves, id)
		}
	}
	return nil
}

func (s *LeaveStore) Counts(_ context.Context, monthStart, monthEnd time.Time) (leave.Counts, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var c leave.Counts
	for _, r := range s.db.leaves {
		if r.DeletedAt != nil {
			continue
		}
		c.Total++
		inMonth := !r.UpdatedAt.Before(monthStart) && r.UpdatedAt.Before(monthEnd)
		switch r.Status {
		case leave.StatusPending:
			c.Pending++
		case leave.StatusApproved:
			if inMonth {
				c.ApprovedThisMonth++
			}
		case leave.StatusRejected:
			if inMonth {
				c.RejectedThisMonth++
			}
		}
	}
	return c, nil
}
