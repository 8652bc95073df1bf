package ticket

import "time"

const (
	StatusApproved string = "APPROVED"
	StatusAttended string = "ATTENDED"
)

// Ticket is the redeemable view over an admitted registration.
type Ticket struct {
	RegistrationID string
	EventID        string
	EventTitle     string
	CustomerID     int64
	CustomerName   string
	Status         string
	TicketToken    string
	ApprovedAt     *time.Time
	AttendedAt     *time.Time
}
