package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"leavestride/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const userColumns = `id::text, first_name, last_name, email, password_hash, employee_id, role, department,
  COALESCE(manager_id::text, ''), sick, casual, vacation, academic, is_active, last_login, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	var role string
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.EmployeeID, &role, &u.Department,
		&u.ManagerID, &u.Balances.Sick, &u.Balances.Casual, &u.Balances.Vacation, &u.Balances.Academic,
		&u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	u.Role = Role(role)
	return u, err
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case querier.UniqueViolation(err, "users_email_key"):
		return ErrEmailTaken
	case querier.UniqueViolation(err, "users_employee_id_key"):
		return ErrEmployeeIDTaken
	case querier.CheckViolation(err):
		return ErrNegativeBalance
	}
	return err
}

func nullable(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func (s *Store) Create(ctx context.Context, u User) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO users (id, first_name, last_name, email, password_hash, employee_id, role, department, manager_id,
      sick, casual, vacation, academic, is_active, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
  `, u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.EmployeeID, string(u.Role), u.Department, nullable(u.ManagerID),
		u.Balances.Sick, u.Balances.Casual, u.Balances.Vacation, u.Balances.Academic, u.IsActive, u.CreatedAt, u.UpdatedAt)
	return translate(err)
}

func (s *Store) Get(ctx context.Context, id string) (User, error) {
	u, err := scanUser(s.DB.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id::text = $1", id))
	return u, translate(err)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(s.DB.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email))
	return u, translate(err)
}

func (s *Store) GetMany(ctx context.Context, ids []string) (map[string]User, error) {
	out := make(map[string]User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.DB.Query(ctx, "SELECT "+userColumns+" FROM users WHERE id::text = ANY($1)", ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	where := []string{"1=1"}
	var args []any
	add := func(clause string, val any) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.Search != "" {
		add("(first_name ILIKE $%[1]d OR last_name ILIKE $%[1]d OR email ILIKE $%[1]d OR employee_id ILIKE $%[1]d)", "%"+filter.Search+"%")
	}
	if filter.Department != "" {
		add("department = $%d", filter.Department)
	}
	if filter.Role != "" {
		add("role = $%d", string(filter.Role))
	}
	switch filter.Status {
	case StatusActive:
		where = append(where, "is_active = true")
	case StatusInactive:
		where = append(where, "is_active = false")
	}
	if filter.IDs != nil {
		add("id::text = ANY($%d)", filter.IDs)
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE "+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM users WHERE %s ORDER BY created_at DESC", userColumns, clause)
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (s *Store) Update(ctx context.Context, u User) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users
    SET first_name = $2, last_name = $3, email = $4, role = $5, department = $6, manager_id = $7,
      is_active = $8, updated_at = $9
    WHERE id::text = $1
  `, u.ID, u.FirstName, u.LastName, u.Email, string(u.Role), u.Department, nullable(u.ManagerID),
		u.IsActive, u.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetBalances(ctx context.Context, id string, b Balances, at time.Time) error {
	err := s.execOne(ctx, `
    UPDATE users SET sick = $2, casual = $3, vacation = $4, academic = $5, updated_at = $6
    WHERE id::text = $1
  `, id, b.Sick, b.Casual, b.Vacation, b.Academic, at)
	if querier.CheckViolation(err) {
		return ErrNegativeBalance
	}
	return err
}

func (s *Store) SetPassword(ctx context.Context, id, hash string) error {
	return s.execOne(ctx, "UPDATE users SET password_hash = $2, updated_at = now() WHERE id::text = $1", id, hash)
}

func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	return s.execOne(ctx, "UPDATE users SET is_active = $2, updated_at = now() WHERE id::text = $1", id, active)
}

func (s *Store) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return s.execOne(ctx, "UPDATE users SET last_login = $2 WHERE id::text = $1", id, at)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.execOne(ctx, "DELETE FROM users WHERE id::text = $1", id)
}

func (s *Store) execOne(ctx context.Context, sql string, args ...any) error {
	tag, err := s.DB.Exec(ctx, sql, args...)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CountEmployeeIDPrefix(ctx context.Context, prefix string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE employee_id LIKE $1", prefix+"%").Scan(&count)
	return count, err
}

func (s *Store) ListManagers(ctx context.Context) ([]User, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+userColumns+` FROM users
    WHERE is_active = true AND role IN ('MANAGER','ADMIN')
    ORDER BY first_name, last_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) ReportIDs(ctx context.Context, managerID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT id::text FROM users WHERE manager_id::text = $1", managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) CountActive(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE is_active = true").Scan(&count)
	return count, err
}
