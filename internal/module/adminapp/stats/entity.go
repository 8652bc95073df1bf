package stats

import "time"

// Snapshot is one aggregated reading of platform activity. It is recomputed
// from scratch on every tick rather than maintained incrementally.
type Snapshot struct {
	RegistrationsLastHour     int64     `json:"registrations_last_hour"`
	RegistrationsLast5Min     int64     `json:"registrations_last_5_min"`
	EventsCreatedToday        int64     `json:"events_created_today"`
	CustomersActiveLastHour   int64     `json:"customers_active_last_hour"`
	CustomersActiveLast5Min   int64     `json:"customers_active_last_5_min"`
	CustomersActiveToday      int64     `json:"customers_active_today"`
	PendingEvents             int64     `json:"pending_events"`
	PendingRegistrations      int64     `json:"pending_registrations"`
	PendingOrganizerApprovals int64     `json:"pending_organizer_approvals"`
	GeneratedAt               time.Time `json:"generated_at"`
}
