package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"timekeep/internal/platform/querier"
)

var (
	ErrAlreadyClockedIn = errors.New("an open time log already exists for today")
	ErrNoOpenEntry      = errors.New("no open time log found for today")
)

// Entry is one attendance interval. TimeOut is nil while the interval is
// open; at most one open entry exists per employee per date.
type Entry struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employeeId"`
	Date       time.Time  `json:"date"`
	TimeIn     time.Time  `json:"timeIn"`
	TimeOut    *time.Time `json:"timeOut,omitempty"`
}

type Service struct {
	DB querier.Querier
}

func NewService(db querier.Querier) *Service {
	return &Service{DB: db}
}

// ClockIn opens today's interval. The partial unique index on
// (employee_id, date) WHERE time_out IS NULL backs the application-level
// check, so two racing clock-ins cannot both create an open entry.
func (s *Service) ClockIn(ctx context.Context, employeeID string) (Entry, error) {
	var entry Entry
	err := s.DB.QueryRow(ctx, `
    INSERT INTO time_logs (employee_id)
    VALUES ($1)
    RETURNING id, employee_id, date, time_in
  `, employeeID).Scan(&entry.ID, &entry.EmployeeID, &entry.Date, &entry.TimeIn)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Entry{}, ErrAlreadyClockedIn
		}
		return Entry{}, err
	}
	return entry, nil
}

// ClockOut closes today's most recent open interval, ties broken by latest
// time_in.
func (s *Service) ClockOut(ctx context.Context, employeeID string) (Entry, error) {
	var logID string
	err := s.DB.QueryRow(ctx, `
    SELECT id
    FROM time_logs
    WHERE employee_id = $1 AND date = CURRENT_DATE AND time_out IS NULL
    ORDER BY time_in DESC
    LIMIT 1
  `, employeeID).Scan(&logID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNoOpenEntry
	}
	if err != nil {
		return Entry{}, err
	}

	var entry Entry
	var timeOut time.Time
	err = s.DB.QueryRow(ctx, `
    UPDATE time_logs
    SET time_out = now()
    WHERE id = $1 AND time_out IS NULL
    RETURNING id, employee_id, date, time_in, time_out
  `, logID).Scan(&entry.ID, &entry.EmployeeID, &entry.Date, &entry.TimeIn, &timeOut)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost a race against another clock-out on the same entry.
		return Entry{}, ErrNoOpenEntry
	}
	if err != nil {
		return Entry{}, err
	}
	entry.TimeOut = &timeOut
	return entry, nil
}

func (s *Service) ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, date, time_in, time_out
    FROM time_logs
    WHERE employee_id = $1
    ORDER BY time_in DESC
    LIMIT $2 OFFSET $3
  `, employeeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.EmployeeID, &entry.Date, &entry.TimeIn, &entry.TimeOut); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
