package notification

import "time"

const (
	CategoryInfo     string = "INFO"
	CategorySuccess  string = "SUCCESS"
	CategoryWarning  string = "WARNING"
	CategoryError    string = "ERROR"
	CategoryReminder string = "REMINDER"
	CategorySocial   string = "SOCIAL"

	PriorityLow    string = "LOW"
	PriorityNormal string = "NORMAL"
	PriorityHigh   string = "HIGH"
)

// lowPriorityRetention is how long low priority notifications are kept
// before the cleanup policy may remove them.
const lowPriorityRetention = 30 * 24 * time.Hour

// Notification is a durable message addressed to one account. Once stored it
// is immutable except for the read flag.
type Notification struct {
	ID          string
	RecipientID int64
	Title       string
	Body        string
	Category    string
	RelatedID   *string
	RelatedType *string
	Priority    string
	Read        bool
	ReadAt      *time.Time
	ExpiresAt   *time.Time
	CreatedAt   time.Time
}
