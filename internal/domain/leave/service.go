package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"leavestride/internal/domain/auth"
	"leavestride/internal/domain/holidays"
	"leavestride/internal/domain/users"
	"leavestride/internal/platform/lock"
)

const (
	MaxReasonLength  = 500
	MaxCommentLength = 200
)

// Calendar returns the holidays falling in a date window.
type Calendar interface {
	Calendar(ctx context.Context, from, to time.Time) (holidays.Set, error)
	Between(ctx context.Context, from, to time.Time) ([]holidays.Holiday, error)
}

// Notifier is told about lifecycle changes after they are persisted. Implementations must not block.
type Notifier interface {
	LeaveSubmitted(ctx context.Context, r Request, owner users.User, manager *users.User)
	LeaveStatusChanged(ctx context.Context, r Request, owner users.User, actorID string)
	LeaveDeleted(ctx context.Context, r Request, actorID string)
}

type Recorder interface {
	LeaveSubmission(leaveType string, err error)
	LeaveTransition(status string)
}

type Service struct {
	Store    StoreAPI
	Users    users.StoreAPI
	Holidays Calendar
	Locker   lock.Locker
	Notifier Notifier
	Metrics  Recorder
	Recredit RecreditPolicy
	Location *time.Location
	// Gate, when set, must grant leave.decide before role and reporting-line checks apply.
	Gate *auth.Gate
	Now      func() time.Time
}

func NewService(store StoreAPI, userStore users.StoreAPI, cal Calendar, locker lock.Locker) *Service {
	return &Service{
		Store:    store,
		Users:    userStore,
		Holidays: cal,
		Locker:   locker,
		Recredit: RecreditNever,
		Location: time.UTC,
		Now:      time.Now,
	}
}

func userLockKey(userID string) string {
	return users.BalanceLockKey(userID)
}

func (s *Service) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

func (s *Service) today() time.Time {
	return holidays.Day(s.Now().In(s.location()))
}

// Submit creates a PENDING request for the session's user.
func (s *Service) Submit(ctx context.Context, session auth.Session, in SubmitInput) (Request, error) {
	r, err := s.submit(ctx, session, in)
	if s.Metrics != nil {
		s.Metrics.LeaveSubmission(string(in.LeaveType), err)
	}
	return r, err
}

func (s *Service) submit(ctx context.Context, session auth.Session, in SubmitInput) (Request, error) {
	reason := strings.TrimSpace(in.Reason)
	switch {
	case reason == "":
		return Request{}, ErrReasonRequired
	case utf8.RuneCountInString(reason) > MaxReasonLength:
		return Request{}, ErrReasonTooLong
	}
	if _, err := ParseLeaveType(string(in.LeaveType)); err != nil {
		return Request{}, err
	}

	from, to := holidays.Day(in.From), holidays.Day(in.To)
	if !from.Before(to) {
		return Request{}, ErrInvalidRange
	}
	if from.Before(s.today()) {
		return Request{}, ErrPastDate
	}

	hol, err := s.Holidays.Calendar(ctx, from, to)
	if err != nil {
		return Request{}, err
	}
	days := WorkingDays(from, to, hol)
	if days == 0 {
		return Request{}, ErrNoWorkingDays
	}

	unlock, err := s.Locker.Lock(ctx, userLockKey(session.UserID))
	if err != nil {
		return Request{}, err
	}
	r, owner, err := s.createLocked(ctx, session, in.LeaveType, from, to, days, reason)
	unlock()
	if err != nil {
		return Request{}, err
	}

	if s.Notifier != nil {
		var manager *users.User
		if owner.ManagerID != "" {
			if m, err := s.Users.Get(ctx, owner.ManagerID); err == nil {
				manager = &m
			} else if !errors.Is(err, users.ErrNotFound) {
				slog.Warn("manager lookup failed", "user_id", owner.ID, "err", err)
			}
		}
		s.Notifier.LeaveSubmitted(ctx, r, owner, manager)
	}
	summary := owner.Summary()
	r.User = &summary
	return r, nil
}

func (s *Service) createLocked(ctx context.Context, session auth.Session, t LeaveType, from, to time.Time, days int, reason string) (Request, users.User, error) {
	overlap, err := s.Store.Overlapping(ctx, session.UserID, from, to)
	if err != nil {
		return Request{}, users.User{}, err
	}
	if overlap {
		return Request{}, users.User{}, ErrOverlap
	}

	owner, err := s.Users.Get(ctx, session.UserID)
	if err != nil {
		return Request{}, users.User{}, err
	}
	if _, tracked := t.BalanceField(); tracked {
		if available := BalanceFor(owner, t); !HasSufficientBalance(available, days) {
			return Request{}, users.User{}, insufficient(t, available)
		}
	}

	now := s.Now().UTC()
	r := Request{
		ID:        uuid.NewString(),
		UserID:    session.UserID,
		LeaveType: t,
		From:      from,
		To:        to,
		Days:      days,
		Reason:    reason,
		Status:    StatusPending,
		History:   []HistoryEntry{{Action: ActionPending, By: session.UserID, At: now}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Create(ctx, r); err != nil {
		return Request{}, users.User{}, err
	}
	return r, owner, nil
}

// Transition moves a PENDING request to APPROVED, REJECTED or CANCELLED.
func (s *Service) Transition(ctx context.Context, session auth.Session, id string, in TransitionInput) (Request, error) {
	comment := strings.TrimSpace(in.Comment)
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return Request{}, ErrCommentTooLong
	}
	switch in.Status {
	case StatusApproved, StatusRejected, StatusCancelled:
	default:
		return Request{}, ErrInvalidTarget
	}

	current, err := s.Store.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	owner, err := s.Users.Get(ctx, current.UserID)
	if err != nil {
		return Request{}, err
	}
	if err := s.authorizeTransition(session, current, owner, in.Status); err != nil {
		return Request{}, err
	}
	if current.Status != StatusPending {
		return Request{}, ErrInvalidState
	}

	unlock, err := s.Locker.Lock(ctx, userLockKey(current.UserID))
	if err != nil {
		return Request{}, err
	}
	updated, err := s.applyLocked(ctx, session, current, in.Status, comment)
	unlock()
	if err != nil {
		return Request{}, err
	}

	if s.Metrics != nil {
		s.Metrics.LeaveTransition(string(updated.Status))
	}
	if s.Notifier != nil {
		s.Notifier.LeaveStatusChanged(ctx, updated, owner, session.UserID)
	}
	summary := owner.Summary()
	updated.User = &summary
	return updated, nil
}

func (s *Service) authorizeTransition(session auth.Session, r Request, owner users.User, target Status) error {
	if target == StatusCancelled {
		if r.UserID != session.UserID {
			return ErrForbidden
		}
		return nil
	}
	if s.Gate != nil && !s.Gate.Allowed(session.Role, auth.PermLeaveDecide) {
		return ErrForbidden
	}
	switch session.Role {
	case users.RoleAdmin:
		return nil
	case users.RoleManager:
		if r.UserID != session.UserID && owner.ManagerID == session.UserID {
			return nil
		}
	}
	return ErrForbidden
}

func (s *Service) applyLocked(ctx context.Context, session auth.Session, current Request, target Status, comment string) (Request, error) {
	now := s.Now().UTC()
	t := Transition{
		RequestID: current.ID,
		UserID:    current.UserID,
		To:        target,
		Entry:     HistoryEntry{Action: HistoryAction(target), By: session.UserID, At: now, Comment: comment},
		At:        now,
	}
	if target == StatusApproved || target == StatusRejected {
		t.ApproverID = session.UserID
	}
	if field, tracked := current.LeaveType.BalanceField(); tracked && target == StatusApproved {
		owner, err := s.Users.Get(ctx, current.UserID)
		if err != nil {
			return Request{}, err
		}
		if available := owner.Balances.Get(field); !HasSufficientBalance(available, current.Days) {
			return Request{}, insufficient(current.LeaveType, available)
		}
		t.DebitField = field
		t.Days = current.Days
	}

	updated, err := s.Store.Apply(ctx, t)
	if errors.Is(err, ErrInsufficientBalance) {
		owner, lookupErr := s.Users.Get(ctx, current.UserID)
		if lookupErr != nil {
			return Request{}, err
		}
		return Request{}, insufficient(current.LeaveType, BalanceFor(owner, current.LeaveType))
	}
	return updated, err
}

// SoftDelete hides a request. Owners and admins only.
func (s *Service) SoftDelete(ctx context.Context, session auth.Session, id string) error {
	current, err := s.Store.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.UserID != session.UserID && !session.IsAdmin() {
		return ErrForbidden
	}

	unlock, err := s.Locker.Lock(ctx, userLockKey(current.UserID))
	if err != nil {
		return err
	}
	deleted, err := s.Store.SoftDelete(ctx, id, s.Now().UTC(), s.Recredit == RecreditOnDelete)
	unlock()
	if err != nil {
		return err
	}
	if s.Notifier != nil {
		s.Notifier.LeaveDeleted(ctx, deleted, session.UserID)
	}
	return nil
}

// scope returns the owners visible to session; nil means everyone.
func (s *Service) scope(ctx context.Context, session auth.Session) ([]string, error) {
	switch session.Role {
	case users.RoleAdmin:
		return nil, nil
	case users.RoleManager:
		ids, err := s.Users.ReportIDs(ctx, session.UserID)
		if err != nil {
			return nil, err
		}
		return append(ids, session.UserID), nil
	}
	return []string{session.UserID}, nil
}

func inScope(scope []string, userID string) bool {
	if scope == nil {
		return true
	}
	for _, id := range scope {
		if id == userID {
			return true
		}
	}
	return false
}

func (s *Service) List(ctx context.Context, session auth.Session, filter ListFilter) (Page, error) {
	scope, err := s.scope(ctx, session)
	if err != nil {
		return Page{}, err
	}
	filter.UserIDs = scope
	if !filter.Start.IsZero() {
		filter.Start = holidays.Day(filter.Start)
	}
	if !filter.End.IsZero() {
		filter.End = holidays.Day(filter.End)
	}

	items, total, err := s.Store.List(ctx, filter)
	if err != nil {
		return Page{}, err
	}
	if err := s.attachPeople(ctx, items); err != nil {
		return Page{}, err
	}
	return Page{Items: items, Total: total}, nil
}

func (s *Service) Get(ctx context.Context, session auth.Session, id string) (Request, error) {
	r, err := s.Store.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	scope, err := s.scope(ctx, session)
	if err != nil {
		return Request{}, err
	}
	if !inScope(scope, r.UserID) {
		return Request{}, ErrForbidden
	}
	items := []Request{r}
	if err := s.attachPeople(ctx, items); err != nil {
		return Request{}, err
	}
	return items[0], nil
}

func (s *Service) attachPeople(ctx context.Context, items []Request) error {
	if len(items) == 0 {
		return nil
	}
	seen := map[string]struct{}{}
	var ids []string
	for _, r := range items {
		for _, id := range []string{r.UserID, r.ApproverID} {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	people, err := s.Users.GetMany(ctx, ids)
	if err != nil {
		return fmt.Errorf("load leave owners: %w", err)
	}
	for i := range items {
		if u, ok := people[items[i].UserID]; ok {
			summary := u.Summary()
			items[i].User = &summary
		}
		if u, ok := people[items[i].ApproverID]; ok {
			summary := u.Summary()
			items[i].Approver = &summary
		}
	}
	return nil
}

type CalendarView struct {
	Leaves   []Request          `json:"leaves"`
	Holidays []holidays.Holiday `json:"holidays"`
}

// TeamCalendar lists approved leave in scope intersecting [from, to] with the holidays in that window.
func (s *Service) TeamCalendar(ctx context.Context, session auth.Session, from, to time.Time) (CalendarView, error) {
	from, to = holidays.Day(from), holidays.Day(to)
	if to.Before(from) {
		return CalendarView{}, ErrInvalidRange
	}
	scope, err := s.scope(ctx, session)
	if err != nil {
		return CalendarView{}, err
	}
	items, _, err := s.Store.List(ctx, ListFilter{
		Status:      StatusApproved,
		OverlapFrom: from,
		OverlapTo:   to,
		UserIDs:     scope,
	})
	if err != nil {
		return CalendarView{}, err
	}
	if err := s.attachPeople(ctx, items); err != nil {
		return CalendarView{}, err
	}
	hols, err := s.Holidays.Between(ctx, from, to)
	if err != nil {
		return CalendarView{}, err
	}
	if items == nil {
		items = []Request{}
	}
	if hols == nil {
		hols = []holidays.Holiday{}
	}
	return CalendarView{Leaves: items, Holidays: hols}, nil
}

// DeleteByUser satisfies users.LeaveRemover.
func (s *Service) DeleteByUser(ctx context.Context, userID string) error {
	return s.Store.DeleteByUser(ctx, userID)
}

// Counts uses the calendar month in Location.
func (s *Service) Counts(ctx context.Context) (Counts, error) {
	now := s.Now().In(s.location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return s.Store.Counts(ctx, monthStart.UTC(), monthStart.AddDate(0, 1, 0).UTC())
}
