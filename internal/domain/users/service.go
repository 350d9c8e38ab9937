package users

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"leavestride/internal/platform/lock"
)

// Notifier receives account lifecycle notifications. Implementations must not block.
type Notifier interface {
	Welcome(ctx context.Context, u User, tempPassword string)
}

// LeaveRemover deletes a user's leave requests when the user is hard deleted.
type LeaveRemover interface {
	DeleteByUser(ctx context.Context, userID string) error
}

type Service struct {
	Store    StoreAPI
	Notifier Notifier
	Leaves   LeaveRemover
	// Locker serializes balance edits with leave approvals for the same user.
	Locker          lock.Locker
	AllowSelfSignup bool
	Now             func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store, AllowSelfSignup: true, Now: time.Now}
}

const maxEmployeeIDAttempts = 5

// BalanceLockKey is held by every writer of a user's leave balances.
func BalanceLockKey(userID string) string {
	return "leave:user:" + userID
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// noManager reports whether the raw manager reference clears the link.
func noManager(raw string) bool {
	raw = strings.TrimSpace(raw)
	return raw == "" || strings.EqualFold(raw, "none")
}

func (s *Service) Create(ctx context.Context, actor Actor, in CreateInput) (User, string, error) {
	if !actor.IsAdmin() {
		return User{}, "", ErrForbidden
	}
	if in.Role == "" {
		in.Role = RoleEmployee
	}

	tempPassword := ""
	password := in.Password
	if password == "" {
		generated, err := TempPassword(10)
		if err != nil {
			return User{}, "", err
		}
		tempPassword = generated
		password = generated
	}
	if len(password) < MinPasswordLength {
		return User{}, "", ErrPasswordTooShort
	}

	balances := DefaultBalances()
	if in.Balances != nil {
		if !in.Balances.Valid() {
			return User{}, "", ErrNegativeBalance
		}
		balances = *in.Balances
	}

	managerID := ""
	if !noManager(in.ManagerID) {
		if _, err := s.Store.Get(ctx, in.ManagerID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return User{}, "", ErrManagerNotFound
			}
			return User{}, "", err
		}
		managerID = in.ManagerID
	}

	u, err := s.insert(ctx, User{
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Email:      normalizeEmail(in.Email),
		Role:       in.Role,
		Department: strings.TrimSpace(in.Department),
		ManagerID:  managerID,
		Balances:   balances,
		IsActive:   true,
	}, password)
	if err != nil {
		return User{}, "", err
	}

	if s.Notifier != nil {
		s.Notifier.Welcome(ctx, u, tempPassword)
	}
	return u, tempPassword, nil
}

// Register creates a self-service EMPLOYEE account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	if !s.AllowSelfSignup {
		return User{}, ErrSignupDisabled
	}
	if len(in.Password) < MinPasswordLength {
		return User{}, ErrPasswordTooShort
	}
	return s.insert(ctx, User{
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Email:      normalizeEmail(in.Email),
		Role:       RoleEmployee,
		Department: strings.TrimSpace(in.Department),
		Balances:   DefaultBalances(),
		IsActive:   true,
	}, in.Password)
}

func (s *Service) insert(ctx context.Context, u User, password string) (User, error) {
	if _, err := s.Store.GetByEmail(ctx, u.Email); err == nil {
		return User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}
	now := s.Now().UTC()
	u.ID = uuid.NewString()
	u.PasswordHash = hash
	u.CreatedAt = now
	u.UpdatedAt = now

	prefix := EmployeeIDPrefix(u.Department, now)
	count, err := s.Store.CountEmployeeIDPrefix(ctx, prefix)
	if err != nil {
		return User{}, err
	}
	for attempt := 0; attempt < maxEmployeeIDAttempts; attempt++ {
		u.EmployeeID = FormatEmployeeID(prefix, count+1+attempt)
		err = s.Store.Create(ctx, u)
		if errors.Is(err, ErrEmployeeIDTaken) {
			continue
		}
		if err != nil {
			return User{}, err
		}
		return u, nil
	}
	return User{}, ErrEmployeeIDRetries
}

func (s *Service) Get(ctx context.Context, actor Actor, id string) (User, error) {
	u, err := s.Store.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := canView(actor, u); err != nil {
		return User{}, err
	}
	return s.withManager(ctx, u), nil
}

func canView(actor Actor, u User) error {
	switch {
	case actor.IsAdmin(), actor.ID == u.ID:
		return nil
	case actor.IsManager() && u.ManagerID == actor.ID:
		return nil
	}
	return ErrForbidden
}

func (s *Service) withManager(ctx context.Context, u User) User {
	if u.ManagerID == "" {
		return u
	}
	m, err := s.Store.Get(ctx, u.ManagerID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("manager lookup failed", "user_id", u.ID, "err", err)
		}
		return u
	}
	summary := m.Summary()
	u.Manager = &summary
	return u
}

// Me returns the caller's own record with the manager summary attached.
func (s *Service) Me(ctx context.Context, userID string) (User, error) {
	u, err := s.Store.Get(ctx, userID)
	if err != nil {
		return User{}, err
	}
	return s.withManager(ctx, u), nil
}

type Page struct {
	Items []User
	Total int
}

func (s *Service) List(ctx context.Context, actor Actor, filter ListFilter) (Page, error) {
	switch {
	case actor.IsAdmin():
	case actor.IsManager():
		ids, err := s.Store.ReportIDs(ctx, actor.ID)
		if err != nil {
			return Page{}, err
		}
		filter.IDs = append(ids, actor.ID)
	default:
		return Page{}, ErrForbidden
	}
	if filter.Status == "" {
		filter.Status = StatusAll
	}
	filter.Search = strings.TrimSpace(filter.Search)

	items, total, err := s.Store.List(ctx, filter)
	if err != nil {
		return Page{}, err
	}
	for i := range items {
		items[i] = s.withManager(ctx, items[i])
	}
	return Page{Items: items, Total: total}, nil
}

func (s *Service) Managers(ctx context.Context) ([]User, error) {
	return s.Store.ListManagers(ctx)
}

func (s *Service) Update(ctx context.Context, actor Actor, id string, in UpdateInput) (User, User, error) {
	if !actor.IsAdmin() {
		return User{}, User{}, ErrForbidden
	}
	before, err := s.Store.Get(ctx, id)
	if err != nil {
		return User{}, User{}, err
	}
	u := before

	if in.FirstName != nil {
		u.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		u.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email != u.Email {
			if _, err := s.Store.GetByEmail(ctx, email); err == nil {
				return User{}, User{}, ErrEmailTaken
			} else if !errors.Is(err, ErrNotFound) {
				return User{}, User{}, err
			}
			u.Email = email
		}
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	if in.Department != nil {
		u.Department = strings.TrimSpace(*in.Department)
	}
	if in.ManagerID != nil {
		if noManager(*in.ManagerID) {
			u.ManagerID = ""
		} else {
			if *in.ManagerID == id {
				return User{}, User{}, ErrSelfManager
			}
			if _, err := s.Store.Get(ctx, *in.ManagerID); err != nil {
				if errors.Is(err, ErrNotFound) {
					return User{}, User{}, ErrManagerNotFound
				}
				return User{}, User{}, err
			}
			u.ManagerID = *in.ManagerID
		}
	}
	if in.Balances != nil && !in.Balances.Valid() {
		return User{}, User{}, ErrNegativeBalance
	}
	if in.IsActive != nil {
		if !*in.IsActive && id == actor.ID {
			return User{}, User{}, ErrSelfDeactivation
		}
		u.IsActive = *in.IsActive
	}
	u.UpdatedAt = s.Now().UTC()

	// Update never touches balances; they only change through SetBalances or leave transitions.
	if err := s.Store.Update(ctx, u); err != nil {
		return User{}, User{}, err
	}
	if in.Balances != nil {
		if err := s.setBalances(ctx, id, *in.Balances, u.UpdatedAt); err != nil {
			return User{}, User{}, err
		}
	}
	after, err := s.Store.Get(ctx, id)
	if err != nil {
		return User{}, User{}, err
	}
	return before, s.withManager(ctx, after), nil
}

func (s *Service) setBalances(ctx context.Context, id string, b Balances, at time.Time) error {
	if s.Locker != nil {
		unlock, err := s.Locker.Lock(ctx, BalanceLockKey(id))
		if err != nil {
			return err
		}
		defer unlock()
	}
	return s.Store.SetBalances(ctx, id, b, at)
}

func (s *Service) SetPassword(ctx context.Context, actor Actor, id, password string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return s.ResetPassword(ctx, id, password)
}

// ResetPassword replaces the password hash without an actor check.
func (s *Service) ResetPassword(ctx context.Context, id, password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return s.Store.SetPassword(ctx, id, hash)
}

func (s *Service) SetActive(ctx context.Context, actor Actor, id string, active bool) (User, error) {
	if !actor.IsAdmin() {
		return User{}, ErrForbidden
	}
	if !active && id == actor.ID {
		return User{}, ErrSelfDeactivation
	}
	if err := s.Store.SetActive(ctx, id, active); err != nil {
		return User{}, err
	}
	return s.Store.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, actor Actor, id string) (User, error) {
	if !actor.IsAdmin() {
		return User{}, ErrForbidden
	}
	if id == actor.ID {
		return User{}, ErrSelfDelete
	}
	u, err := s.Store.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if s.Leaves != nil {
		if err := s.Leaves.DeleteByUser(ctx, id); err != nil {
			return User{}, err
		}
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) TouchLastLogin(ctx context.Context, id string) error {
	return s.Store.TouchLastLogin(ctx, id, s.Now().UTC())
}

func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return s.Store.GetByEmail(ctx, normalizeEmail(email))
}

// Lookup fetches a user without scope checks, for internal collaborators.
func (s *Service) Lookup(ctx context.Context, id string) (User, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) CountActive(ctx context.Context) (int, error) {
	return s.Store.CountActive(ctx)
}
