package registration

import "time"

const (
	StatusPending   string = "PENDING"
	StatusApproved  string = "APPROVED"
	StatusDenied    string = "DENIED"
	StatusAttended  string = "ATTENDED"
	StatusCancelled string = "CANCELLED"
)

// Registration is one customer's claim on one event seat. A registration is
// never deleted; terminal states are kept for audit.
type Registration struct {
	ID            string
	EventID       string
	CustomerID    int64
	CustomerName  string
	CustomerEmail string
	Status        string
	TicketToken   *string
	ApprovedBy    *int64
	DenialReason  *string
	ApprovedAt    *time.Time
	DeniedAt      *time.Time
	AttendedAt    *time.Time
	CancelledAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
