package leave

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"

	"timekeep/internal/platform/querier"
)

type Store struct {
	DB querier.Beginner
}

func NewStore(db querier.Beginner) *Store {
	return &Store{DB: db}
}

func (s *Store) Get(ctx context.Context, requestID string) (Request, error) {
	var req Request
	var approver sql.NullString
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, leave_type, is_half_day, start_date, end_date, reason, status, approver_id, created_at
    FROM leave_requests
    WHERE id = $1
  `, requestID).Scan(&req.ID, &req.EmployeeID, &req.LeaveType, &req.IsHalfDay, &req.StartDate, &req.EndDate, &req.Reason, &req.Status, &approver, &req.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, err
	}
	req.ApproverID = approver.String
	return req, nil
}

// ActiveRequests returns the employee's requests in pending or approved
// status, the set the overlap invariant is checked against.
func (s *Store) ActiveRequests(ctx context.Context, employeeID string) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, leave_type, is_half_day, start_date, end_date, reason, status, created_at
    FROM leave_requests
    WHERE employee_id = $1 AND status IN ($2, $3)
  `, employeeID, StatusPending, StatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (s *Store) Insert(ctx context.Context, req Request) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (employee_id, leave_type, is_half_day, start_date, end_date, reason, status)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING id
  `, req.EmployeeID, req.LeaveType, req.IsHalfDay, req.StartDate, req.EndDate, req.Reason, StatusPending).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Decide flips a pending request into a terminal status. The WHERE clause on
// the stored status is the compare-and-swap that makes concurrent duplicate
// decisions lose: a false return means the row was no longer pending.
func Decide(ctx context.Context, q querier.Querier, requestID, toStatus, approverID string) (bool, error) {
	tag, err := q.Exec(ctx, `
    UPDATE leave_requests
    SET status = $1, approver_id = $2
    WHERE id = $3 AND status = $4
  `, toStatus, approverID, requestID, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, leave_type, is_half_day, start_date, end_date, reason, status, created_at
    FROM leave_requests
    WHERE employee_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, employeeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (s *Store) ListAll(ctx context.Context, status string, limit, offset int) ([]Request, error) {
	query := `
    SELECT id, employee_id, leave_type, is_half_day, start_date, end_date, reason, status, created_at
    FROM leave_requests
  `
	args := []any{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"
	if status != "" {
		query += " LIMIT $2 OFFSET $3"
	} else {
		query += " LIMIT $1 OFFSET $2"
	}
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func scanRequests(rows pgx.Rows) ([]Request, error) {
	var out []Request
	for rows.Next() {
		var req Request
		if err := rows.Scan(&req.ID, &req.EmployeeID, &req.LeaveType, &req.IsHalfDay, &req.StartDate, &req.EndDate, &req.Reason, &req.Status, &req.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
