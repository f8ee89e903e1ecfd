package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"timekeep/internal/platform/querier"
)

// Transaction is one signed balance delta. The ledger is append-only: the
// store exposes insert and select only, and nothing in the schema or code
// updates or deletes a row once written. Current profile balances must always
// equal the sum of these amounts per employee and leave type.
type Transaction struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employeeId"`
	LeaveType  string          `json:"leaveType"`
	Amount     decimal.Decimal `json:"amount"`
	Reference  string          `json:"reference"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// References used by the balance apply steps.
const (
	RefApprovedLeave    = "Approved Leave"
	RefManualAdjustment = "Manual Adjustment"
	RefLateDeduction    = "Late Deduction"
	RefOpeningBalance   = "Opening Balance"
)

// Record appends one transaction. It takes a Querier so balance apply steps
// can run it inside the same transaction as their profile balance write.
func Record(ctx context.Context, q querier.Querier, employeeID, leaveType string, amount decimal.Decimal, reference string) error {
	_, err := q.Exec(ctx, `
    INSERT INTO leave_transactions (employee_id, leave_type, amount, reference)
    VALUES ($1, $2, $3, $4)
  `, employeeID, leaveType, amount, reference)
	return err
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]Transaction, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, leave_type, amount, reference, created_at
    FROM leave_transactions
    WHERE employee_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, employeeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(&tx.ID, &tx.EmployeeID, &tx.LeaveType, &tx.Amount, &tx.Reference, &tx.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// Sum is the ledger total for one employee and leave type.
type Sum struct {
	EmployeeID string
	LeaveType  string
	Total      decimal.Decimal
}

// Sums recomputes per-employee per-type totals from the ledger. Reconciliation
// compares these against the materialized profile balances.
func (s *Store) Sums(ctx context.Context) ([]Sum, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, leave_type, COALESCE(SUM(amount), 0)
    FROM leave_transactions
    GROUP BY employee_id, leave_type
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Sum
	for rows.Next() {
		var sum Sum
		if err := rows.Scan(&sum.EmployeeID, &sum.LeaveType, &sum.Total); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
