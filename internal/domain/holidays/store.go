package holidays

import (
	"context"
	"errors"
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

func (s *Store) Create(ctx context.Context, h Holiday) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO holidays (id, name, date, category, description, created_by, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, h.ID, h.Name, h.Date, string(h.Category), h.Description, nullableID(h.CreatedBy), h.CreatedAt, h.UpdatedAt)
	if querier.UniqueViolation(err, "holidays_date_key") {
		return ErrDuplicateDate
	}
	return err
}

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func (s *Store) List(ctx context.Context, from, to time.Time) ([]Holiday, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id::text, name, date, category, description, COALESCE(created_by::text, ''), created_at, updated_at
    FROM holidays
    WHERE ($1::date IS NULL OR date >= $1) AND ($2::date IS NULL OR date <= $2)
    ORDER BY date
  `, nullableTime(from), nullableTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Holiday
	for rows.Next() {
		h, err := scanHoliday(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func scanHoliday(row pgx.Row) (Holiday, error) {
	var h Holiday
	var category string
	err := row.Scan(&h.ID, &h.Name, &h.Date, &category, &h.Description, &h.CreatedBy, &h.CreatedAt, &h.UpdatedAt)
	h.Category = Category(category)
	h.Date = Day(h.Date)
	return h, err
}

func (s *Store) Delete(ctx context.Context, id string) (Holiday, error) {
	h, err := scanHoliday(s.DB.QueryRow(ctx, `
    DELETE FROM holidays WHERE id::text = $1
    RETURNING id::text, name, date, category, description, COALESCE(created_by::text, ''), created_at, updated_at
  `, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Holiday{}, ErrNotFound
	}
	return h, err
}
