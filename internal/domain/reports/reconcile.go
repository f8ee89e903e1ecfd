package reports

import (
	"context"

	"github.com/shopspring/decimal"

	"timekeep/internal/domain/leave"
	"timekeep/internal/domain/ledger"
	"timekeep/internal/domain/profile"
)

// ReconciliationRow compares one materialized balance against the ledger.
// Drift must be zero for every employee and leave type; anything else means a
// balance was written without its paired ledger entry (or vice versa).
type ReconciliationRow struct {
	EmployeeID  string          `json:"employeeId"`
	FullName    string          `json:"fullName"`
	LeaveType   string          `json:"leaveType"`
	Balance     decimal.Decimal `json:"balance"`
	LedgerTotal decimal.Decimal `json:"ledgerTotal"`
	Drift       decimal.Decimal `json:"drift"`
}

func (r ReconciliationRow) InBalance() bool {
	return r.Drift.IsZero()
}

// BuildReconciliation pairs profile balances with ledger sums. Employees with
// no ledger rows reconcile against zero.
func BuildReconciliation(employees []profile.Employee, sums []ledger.Sum) []ReconciliationRow {
	totals := make(map[string]decimal.Decimal, len(sums))
	for _, sum := range sums {
		totals[sum.EmployeeID+"/"+sum.LeaveType] = sum.Total
	}

	out := make([]ReconciliationRow, 0, len(employees)*2)
	for _, emp := range employees {
		for _, pair := range []struct {
			leaveType string
			balance   float64
		}{
			{leave.TypeVacation, emp.VLBalance},
			{leave.TypeSick, emp.SLBalance},
		} {
			balance := decimal.NewFromFloat(pair.balance).Round(3)
			total := totals[emp.ID+"/"+pair.leaveType]
			out = append(out, ReconciliationRow{
				EmployeeID:  emp.ID,
				FullName:    emp.FullName,
				LeaveType:   pair.leaveType,
				Balance:     balance,
				LedgerTotal: total,
				Drift:       balance.Sub(total),
			})
		}
	}
	return out
}

// Reconcile recomputes every balance from the ledger and reports the drift.
func (s *Service) Reconcile(ctx context.Context) ([]ReconciliationRow, error) {
	employees, err := s.Profiles.List(ctx)
	if err != nil {
		return nil, err
	}
	sums, err := s.Ledger.Sums(ctx)
	if err != nil {
		return nil, err
	}
	return BuildReconciliation(employees, sums), nil
}
