package event

import "time"

type EventResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Capacity    int64     `json:"capacity"`
	OrganizerID int64     `json:"organizer_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r *EventResponse) PopulateFromEntity(e Event) {
	r.ID = e.ID
	r.Title = e.Title
	r.Description = e.Description
	r.Status = e.Status
	r.Capacity = e.Capacity
	r.OrganizerID = e.OrganizerID
	r.CreatedAt = e.CreatedAt
	r.UpdatedAt = e.UpdatedAt
}

type GetManyEventResponse struct {
	Items []EventResponse `json:"items"`
	Total int64           `json:"total"`
}

func (r *GetManyEventResponse) PopulateFromEntities(items []Event, total int64) {
	itemsResponse := make([]EventResponse, len(items))
	for k, v := range items {
		resp := EventResponse{}
		resp.PopulateFromEntity(v)
		itemsResponse[k] = resp
	}

	r.Items = itemsResponse
	r.Total = total
}
