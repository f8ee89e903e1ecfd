package leave

import "time"

const (
	TypeVacation = "VL"
	TypeSick     = "SL"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Request is a leave request. Status moves pending → approved or
// pending → rejected exactly once; terminal states are final.
type Request struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employeeId"`
	LeaveType  string    `json:"leaveType"`
	IsHalfDay  bool      `json:"isHalfDay"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	Reason     string    `json:"reason"`
	Status     string    `json:"status"`
	ApproverID string    `json:"approverId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func ValidType(leaveType string) bool {
	return leaveType == TypeVacation || leaveType == TypeSick
}
