package deduction

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"timekeep/internal/domain/ledger"
	"timekeep/internal/domain/profile"
	"timekeep/internal/platform/querier"
)

var (
	ErrZeroDeduction       = errors.New("computed deduction is zero")
	ErrInsufficientBalance = errors.New("deduction exceeds remaining vacation leave balance")
)

// Record is one applied tardiness deduction, kept as immutable history.
type Record struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employeeId"`
	Minutes    int             `json:"minutes"`
	Deduction  decimal.Decimal `json:"deduction"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type Service struct {
	DB querier.Beginner
}

func NewService(db querier.Beginner) *Service {
	return &Service{DB: db}
}

// Apply computes the penalty for minutes late and charges it against the
// employee's vacation leave balance: balance write, ledger row and history
// row commit together or not at all. The observed system let the balance go
// negative here; this implementation refuses instead.
func (s *Service) Apply(ctx context.Context, employeeID string, minutesLate int) (Record, error) {
	amount := Compute(minutesLate)
	if amount.IsZero() {
		return Record{}, ErrZeroDeduction
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Record{}, err
	}
	defer tx.Rollback(ctx)

	vl, _, err := profile.BalancesForUpdate(ctx, tx, employeeID)
	if err != nil {
		return Record{}, err
	}
	newVL := vl - amount.InexactFloat64()
	if newVL < 0 {
		return Record{}, ErrInsufficientBalance
	}

	if err := profile.SetBalance(ctx, tx, employeeID, "VL", newVL); err != nil {
		return Record{}, err
	}
	if err := ledger.Record(ctx, tx, employeeID, "VL", amount.Neg(), ledger.RefLateDeduction); err != nil {
		return Record{}, err
	}

	var rec Record
	err = tx.QueryRow(ctx, `
    INSERT INTO late_deductions (employee_id, minutes, deduction)
    VALUES ($1, $2, $3)
    RETURNING id, employee_id, minutes, deduction, created_at
  `, employeeID, minutesLate, amount).Scan(&rec.ID, &rec.EmployeeID, &rec.Minutes, &rec.Deduction, &rec.CreatedAt)
	if err != nil {
		return Record{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Service) History(ctx context.Context, employeeID string, limit, offset int) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, minutes, deduction, created_at
    FROM late_deductions
    WHERE employee_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, employeeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.Minutes, &rec.Deduction, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
