package event

import "time"

const (
	StatusPending  string = "PENDING"
	StatusApproved string = "APPROVED"
	StatusRejected string = "REJECTED"
)

// Event is the read-only projection of an event this service needs:
// admission only cares about its status, capacity, and organizer.
// A capacity of zero means unlimited.
type Event struct {
	ID          string
	Title       string
	Description string
	Status      string
	Capacity    int64
	OrganizerID int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
