package profile

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"timekeep/internal/domain/auth"
	"timekeep/internal/domain/ledger"
	"timekeep/internal/platform/querier"
)

type Service struct {
	Store *Store
	DB    querier.Beginner
}

func NewService(store *Store, db querier.Beginner) *Service {
	return &Service{Store: store, DB: db}
}

type CreateEmployeeInput struct {
	Email     string
	Password  string
	FullName  string
	Role      string
	OpeningVL float64
	OpeningSL float64
}

// Create inserts a profile and grants its opening balances through the
// ledger, so reconciliation holds from the first row: every non-zero balance
// traces back to an Opening Balance grant.
func (s *Service) Create(ctx context.Context, input CreateEmployeeInput) (Employee, error) {
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return Employee{}, err
	}
	role := input.Role
	if role == "" {
		role = auth.RoleEmployee
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Employee{}, err
	}
	defer tx.Rollback(ctx)

	var emp Employee
	err = tx.QueryRow(ctx, `
    INSERT INTO profiles (email, password_hash, full_name, role, vl_balance, sl_balance)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING id, email, full_name, role, vl_balance, sl_balance, created_at
  `, strings.ToLower(strings.TrimSpace(input.Email)), hash, strings.TrimSpace(input.FullName), role, input.OpeningVL, input.OpeningSL).
		Scan(&emp.ID, &emp.Email, &emp.FullName, &emp.Role, &emp.VLBalance, &emp.SLBalance, &emp.CreatedAt)
	if err != nil {
		return Employee{}, err
	}

	if input.OpeningVL != 0 {
		if err := ledger.Record(ctx, tx, emp.ID, "VL", decimal.NewFromFloat(input.OpeningVL), ledger.RefOpeningBalance); err != nil {
			return Employee{}, err
		}
	}
	if input.OpeningSL != 0 {
		if err := ledger.Record(ctx, tx, emp.ID, "SL", decimal.NewFromFloat(input.OpeningSL), ledger.RefOpeningBalance); err != nil {
			return Employee{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *Service) Get(ctx context.Context, id string) (Employee, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Employee, error) {
	return s.Store.List(ctx)
}
