package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"timekeep/internal/platform/querier"
)

var (
	ErrNotFound         = errors.New("employee not found")
	ErrUnknownLeaveType = errors.New("unknown leave type")
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) Get(ctx context.Context, id string) (Employee, error) {
	var emp Employee
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, full_name, role, vl_balance, sl_balance, created_at
    FROM profiles
    WHERE id = $1
  `, id).Scan(&emp.ID, &emp.Email, &emp.FullName, &emp.Role, &emp.VLBalance, &emp.SLBalance, &emp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (Employee, string, error) {
	var emp Employee
	var passwordHash string
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, full_name, role, vl_balance, sl_balance, created_at, password_hash
    FROM profiles
    WHERE lower(email) = lower($1)
  `, email).Scan(&emp.ID, &emp.Email, &emp.FullName, &emp.Role, &emp.VLBalance, &emp.SLBalance, &emp.CreatedAt, &passwordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, "", ErrNotFound
	}
	if err != nil {
		return Employee{}, "", err
	}
	return emp, passwordHash, nil
}

func (s *Store) List(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, email, full_name, role, vl_balance, sl_balance, created_at
    FROM profiles
    ORDER BY full_name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var emp Employee
		if err := rows.Scan(&emp.ID, &emp.Email, &emp.FullName, &emp.Role, &emp.VLBalance, &emp.SLBalance, &emp.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (s *Store) Role(ctx context.Context, id string) (string, error) {
	var role string
	err := s.DB.QueryRow(ctx, "SELECT role FROM profiles WHERE id = $1", id).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return role, nil
}

// balanceColumn maps a leave type to its balance column. Callers never
// interpolate user input into SQL directly.
func balanceColumn(leaveType string) (string, error) {
	switch leaveType {
	case "VL":
		return "vl_balance", nil
	case "SL":
		return "sl_balance", nil
	default:
		return "", ErrUnknownLeaveType
	}
}

// BalancesForUpdate reads both balances under a row lock. Must be called
// inside a transaction; the lock serializes concurrent balance mutations on
// the same employee.
func BalancesForUpdate(ctx context.Context, q querier.Querier, employeeID string) (vl, sl float64, err error) {
	err = q.QueryRow(ctx, "SELECT vl_balance, sl_balance FROM profiles WHERE id = $1 FOR UPDATE", employeeID).Scan(&vl, &sl)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, ErrNotFound
	}
	return vl, sl, err
}

// SetBalance writes the new balance for one leave type. Only balance apply
// steps call this, always in the same transaction as the paired ledger insert.
func SetBalance(ctx context.Context, q querier.Querier, employeeID, leaveType string, newBalance float64) error {
	column, err := balanceColumn(leaveType)
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, fmt.Sprintf("UPDATE profiles SET %s = $1 WHERE id = $2", column), newBalance, employeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
