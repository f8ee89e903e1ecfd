package leave

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"timekeep/internal/domain/ledger"
	"timekeep/internal/domain/profile"
)

type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

// File creates a pending request after the overlap check. No balance check
// happens at filing time; balances are validated only at approval.
func (s *Service) File(ctx context.Context, employeeID, leaveType string, startDate, endDate time.Time, isHalfDay bool, reason string) (string, error) {
	if !ValidType(leaveType) {
		return "", ErrUnknownType
	}
	startDate, endDate = midnight(startDate), midnight(endDate)
	if endDate.Before(startDate) {
		return "", ErrInvalidRange
	}

	existing, err := s.Store.ActiveRequests(ctx, employeeID)
	if err != nil {
		return "", err
	}
	for _, other := range existing {
		if Overlaps(startDate, endDate, other.StartDate, other.EndDate) {
			return "", ErrOverlap
		}
	}

	return s.Store.Insert(ctx, Request{
		EmployeeID: employeeID,
		LeaveType:  leaveType,
		IsHalfDay:  isHalfDay,
		StartDate:  startDate,
		EndDate:    endDate,
		Reason:     strings.TrimSpace(reason),
	})
}

// Approve moves a pending request to approved, deducts the day count from
// the matching balance and appends the ledger row in one transaction, so a
// failed step leaves nothing applied. The conditional status update makes the
// second of two racing approvals fail with ErrAlreadyProcessed.
func (s *Service) Approve(ctx context.Context, approverID, requestID string) (Request, error) {
	req, err := s.Store.Get(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, ErrAlreadyProcessed
	}

	days, err := RequestDays(req.StartDate, req.EndDate, req.IsHalfDay)
	if err != nil {
		return Request{}, err
	}

	tx, err := s.Store.DB.Begin(ctx)
	if err != nil {
		return Request{}, err
	}
	defer tx.Rollback(ctx)

	vl, sl, err := profile.BalancesForUpdate(ctx, tx, req.EmployeeID)
	if err != nil {
		return Request{}, err
	}
	balance := vl
	if req.LeaveType == TypeSick {
		balance = sl
	}
	if balance < days {
		return Request{}, ErrInsufficientBalance
	}

	decided, err := Decide(ctx, tx, requestID, StatusApproved, approverID)
	if err != nil {
		return Request{}, err
	}
	if !decided {
		return Request{}, ErrAlreadyProcessed
	}

	if err := profile.SetBalance(ctx, tx, req.EmployeeID, req.LeaveType, balance-days); err != nil {
		return Request{}, err
	}
	if err := ledger.Record(ctx, tx, req.EmployeeID, req.LeaveType, decimal.NewFromFloat(-days), ledger.RefApprovedLeave); err != nil {
		return Request{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}

	req.Status = StatusApproved
	req.ApproverID = approverID
	return req, nil
}

// Reject moves a pending request to rejected. No balance effect.
func (s *Service) Reject(ctx context.Context, approverID, requestID string) (Request, error) {
	req, err := s.Store.Get(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, ErrAlreadyProcessed
	}

	decided, err := Decide(ctx, s.Store.DB, requestID, StatusRejected, approverID)
	if err != nil {
		return Request{}, err
	}
	if !decided {
		return Request{}, ErrAlreadyProcessed
	}

	req.Status = StatusRejected
	req.ApproverID = approverID
	return req, nil
}

// Adjust applies a signed manual balance delta with its paired ledger row.
// A delta that would drive the balance negative is rejected before anything
// is written.
func (s *Service) Adjust(ctx context.Context, employeeID, leaveType string, amount float64, reason string) (float64, error) {
	if !ValidType(leaveType) {
		return 0, ErrUnknownType
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = ledger.RefManualAdjustment
	}

	tx, err := s.Store.DB.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	vl, sl, err := profile.BalancesForUpdate(ctx, tx, employeeID)
	if err != nil {
		return 0, err
	}
	balance := vl
	if leaveType == TypeSick {
		balance = sl
	}
	newBalance := balance + amount
	if newBalance < 0 {
		return 0, ErrNegativeBalance
	}

	if err := profile.SetBalance(ctx, tx, employeeID, leaveType, newBalance); err != nil {
		return 0, err
	}
	if err := ledger.Record(ctx, tx, employeeID, leaveType, decimal.NewFromFloat(amount), reason); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (s *Service) Get(ctx context.Context, requestID string) (Request, error) {
	return s.Store.Get(ctx, requestID)
}

func (s *Service) ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]Request, error) {
	return s.Store.ListByEmployee(ctx, employeeID, limit, offset)
}

func (s *Service) ListAll(ctx context.Context, status string, limit, offset int) ([]Request, error) {
	return s.Store.ListAll(ctx, status, limit, offset)
}
