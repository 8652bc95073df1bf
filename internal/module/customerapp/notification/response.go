package notification

import "time"

type NotificationResponse struct {
	ID          string     `json:"id"`
	RecipientID int64      `json:"recipient_id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Category    string     `json:"category"`
	RelatedID   *string    `json:"related_id"`
	RelatedType *string    `json:"related_type"`
	Priority    string     `json:"priority"`
	Read        bool       `json:"read"`
	ReadAt      *time.Time `json:"read_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (r *NotificationResponse) PopulateFromEntity(n Notification) {
	r.ID = n.ID
	r.RecipientID = n.RecipientID
	r.Title = n.Title
	r.Body = n.Body
	r.Category = n.Category
	r.RelatedID = n.RelatedID
	r.RelatedType = n.RelatedType
	r.Priority = n.Priority
	r.Read = n.Read
	r.ReadAt = n.ReadAt
	r.ExpiresAt = n.ExpiresAt
	r.CreatedAt = n.CreatedAt
}

type GetManyNotificationResponse struct {
	Items       []NotificationResponse `json:"items"`
	UnreadCount int64                  `json:"unread_count"`
}

func (r *GetManyNotificationResponse) PopulateFromEntities(items []Notification, unreadCount int64) {
	itemsResponse := make([]NotificationResponse, len(items))
	for k, v := range items {
		resp := NotificationResponse{}
		resp.PopulateFromEntity(v)
		itemsResponse[k] = resp
	}

	r.Items = itemsResponse
	r.UnreadCount = unreadCount
}
