package profile

import "time"

// Employee is a profile row. VL/SL balances are the materialized view of the
// leave transaction ledger; they are only written through balance apply steps
// that also append a ledger row.
type Employee struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Role      string    `json:"role"`
	VLBalance float64   `json:"vlBalance"`
	SLBalance float64   `json:"slBalance"`
	CreatedAt time.Time `json:"createdAt"`
}
