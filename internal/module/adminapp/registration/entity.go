package registration

import "time"

const (
	StatusPending   string = "PENDING"
	StatusApproved  string = "APPROVED"
	StatusDenied    string = "DENIED"
	StatusAttended  string = "ATTENDED"
	StatusCancelled string = "CANCELLED"
)

const (
	EventStatusApproved string = "APPROVED"
)

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

// Event is the projection the approval protocol needs. Capacity zero means
// unlimited.
type Event struct {
	ID          string
	Title       string
	Status      string
	Capacity    int64
	OrganizerID int64
}
