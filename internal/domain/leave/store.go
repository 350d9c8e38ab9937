package leave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"leavestride/internal/domain/users"
	"leavestride/internal/platform/querier"
)

type Store struct {
	DB querier.TxBeginner
}

func NewStore(db querier.TxBeginner) *Store {
	return &Store{DB: db}
}

const requestColumns = `id::text, user_id::text, leave_type, from_date, to_date, days, reason, status,
  COALESCE(approver_id::text, ''), history, deleted_at, created_at, updated_at`

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	var leaveType, status string
	var history []byte
	err := row.Scan(&r.ID, &r.UserID, &leaveType, &r.From, &r.To, &r.Days, &r.Reason, &status,
		&r.ApproverID, &history, &r.DeletedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, err
	}
	r.LeaveType = LeaveType(leaveType)
	r.Status = Status(status)
	if len(history) > 0 {
		if err := json.Unmarshal(history, &r.History); err != nil {
			return Request{}, fmt.Errorf("decode history %s: %w", r.ID, err)
		}
	}
	return r, nil
}

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func (s *Store) Create(ctx context.Context, r Request) error {
	history, err := json.Marshal(r.History)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO leave_requests (id, user_id, leave_type, from_date, to_date, days, reason, status, approver_id, history, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
  `, r.ID, r.UserID, string(r.LeaveType), r.From, r.To, r.Days, r.Reason, string(r.Status), nullableID(r.ApproverID),
		history, r.CreatedAt, r.UpdatedAt)
	return err
}

func (s *Store) Get(ctx context.Context, id string) (Request, error) {
	return scanRequest(s.DB.QueryRow(ctx,
		"SELECT "+requestColumns+" FROM leave_requests WHERE id::text = $1 AND deleted_at IS NULL", id))
}

func (s *Store) Overlapping(ctx context.Context, userID string, from, to time.Time) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM leave_requests
    WHERE user_id::text = $1 AND deleted_at IS NULL AND status IN ('PENDING','APPROVED')
      AND from_date <= $3 AND to_date >= $2
  `, userID, from, to).Scan(&count)
	return count > 0, err
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]Request, int, error) {
	where := []string{"deleted_at IS NULL"}
	var args []any
	add := func(clause string, val any) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.LeaveType != "" {
		add("leave_type = $%d", string(filter.LeaveType))
	}
	if !filter.Start.IsZero() {
		add("from_date >= $%d", filter.Start)
	}
	if !filter.End.IsZero() {
		add("to_date <= $%d", filter.End)
	}
	if !filter.OverlapFrom.IsZero() {
		add("to_date >= $%d", filter.OverlapFrom)
	}
	if !filter.OverlapTo.IsZero() {
		add("from_date <= $%d", filter.OverlapTo)
	}
	if filter.UserIDs != nil {
		add("user_id::text = ANY($%d)", filter.UserIDs)
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leave_requests WHERE "+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM leave_requests WHERE %s ORDER BY created_at DESC", requestColumns, clause)
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// balanceColumns guards the column name interpolated into the debit statement.
var balanceColumns = map[string]string{
	users.FieldSick:     "sick",
	users.FieldCasual:   "casual",
	users.FieldVacation: "vacation",
	users.FieldAcademic: "academic",
}

func (s *Store) Apply(ctx context.Context, t Transition) (Request, error) {
	entry, err := json.Marshal([]HistoryEntry{t.Entry})
	if err != nil {
		return Request{}, err
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Request{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	r, err := scanRequest(tx.QueryRow(ctx, `
    UPDATE leave_requests
    SET status = $2, approver_id = COALESCE($3, approver_id), history = history || $4::jsonb, updated_at = $5
    WHERE id::text = $1 AND status = 'PENDING' AND deleted_at IS NULL
    RETURNING `+requestColumns, t.RequestID, string(t.To), nullableID(t.ApproverID), entry, t.At))
	if errors.Is(err, ErrNotFound) {
		return Request{}, ErrInvalidState
	}
	if err != nil {
		return Request{}, err
	}

	if t.DebitField != "" && t.Days > 0 {
		col, ok := balanceColumns[t.DebitField]
		if !ok {
			return Request{}, fmt.Errorf("unknown balance field %q", t.DebitField)
		}
		tag, err := tx.Exec(ctx, fmt.Sprintf(`
      UPDATE users SET %[1]s = %[1]s - $2, updated_at = $3
      WHERE id::text = $1 AND %[1]s >= $2
    `, col), r.UserID, t.Days, t.At)
		if err != nil {
			return Request{}, err
		}
		if tag.RowsAffected() == 0 {
			return Request{}, ErrInsufficientBalance
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}
	return r, nil
}

func (s *Store) SoftDelete(ctx context.Context, id string, at time.Time, recredit bool) (Request, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Request{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	r, err := scanRequest(tx.QueryRow(ctx, `
    UPDATE leave_requests SET deleted_at = $2, updated_at = $2
    WHERE id::text = $1 AND deleted_at IS NULL
    RETURNING `+requestColumns, id, at))
	if err != nil {
		return Request{}, err
	}

	// The row lock taken by the UPDATE makes r.Status the status being deleted.
	if creditField, credit := DeleteCredit(r, recredit); credit {
		col, ok := balanceColumns[creditField]
		if !ok {
			return Request{}, fmt.Errorf("unknown balance field %q", creditField)
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(
			"UPDATE users SET %[1]s = %[1]s + $2, updated_at = $3 WHERE id::text = $1", col), r.UserID, r.Days, at); err != nil {
			return Request{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}
	return r, nil
}

func (s *Store) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM leave_requests WHERE user_id::text = $1", userID)
	return err
}

func (s *Store) Counts(ctx context.Context, monthStart, monthEnd time.Time) (Counts, error) {
	var c Counts
	err := s.DB.QueryRow(ctx, `
    SELECT
      COUNT(1) FILTER (WHERE status = 'PENDING'),
      COUNT(1),
      COUNT(1) FILTER (WHERE status = 'APPROVED' AND updated_at >= $1 AND updated_at < $2),
      COUNT(1) FILTER (WHERE status = 'REJECTED' AND updated_at >= $1 AND updated_at < $2)
    FROM leave_requests
    WHERE deleted_at IS NULL
  `, monthStart, monthEnd).Scan(&c.Pending, &c.Total, &c.ApprovedThisMonth, &c.RejectedThisMonth)
	return c, err
}
