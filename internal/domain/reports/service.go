package reports

import (
	"context"

	"timekeep/internal/domain/ledger"
	"timekeep/internal/domain/profile"
	"timekeep/internal/platform/querier"
)

type Service struct {
	DB       querier.Querier
	Profiles *profile.Store
	Ledger   *ledger.Store
}

func NewService(db querier.Querier, profiles *profile.Store, ledgerStore *ledger.Store) *Service {
	return &Service{DB: db, Profiles: profiles, Ledger: ledgerStore}
}

// Dashboard is the admin landing summary.
type Dashboard struct {
	Employees            int `json:"employees"`
	PendingLeaveRequests int `json:"pendingLeaveRequests"`
	OpenTimeLogs         int `json:"openTimeLogs"`
}

func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var out Dashboard
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM profiles").Scan(&out.Employees); err != nil {
		return Dashboard{}, err
	}
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leave_requests WHERE status = 'pending'").Scan(&out.PendingLeaveRequests); err != nil {
		return Dashboard{}, err
	}
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM time_logs WHERE time_out IS NULL").Scan(&out.OpenTimeLogs); err != nil {
		return Dashboard{}, err
	}
	return out, nil
}
