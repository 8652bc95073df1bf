package registration

import "time"

type RegistrationResponse struct {
	ID            string     `json:"id"`
	EventID       string     `json:"event_id"`
	CustomerID    int64      `json:"customer_id"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email"`
	Status        string     `json:"status"`
	TicketToken   *string    `json:"ticket_token"`
	DenialReason  *string    `json:"denial_reason"`
	ApprovedAt    *time.Time `json:"approved_at"`
	DeniedAt      *time.Time `json:"denied_at"`
	AttendedAt    *time.Time `json:"attended_at"`
	CancelledAt   *time.Time `json:"cancelled_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (r *RegistrationResponse) PopulateFromEntity(reg Registration) {
	r.ID = reg.ID
	r.EventID = reg.EventID
	r.CustomerID = reg.CustomerID
	r.CustomerName = reg.CustomerName
	r.CustomerEmail = reg.CustomerEmail
	r.Status = reg.Status
	r.TicketToken = reg.TicketToken
	r.DenialReason = reg.DenialReason
	r.ApprovedAt = reg.ApprovedAt
	r.DeniedAt = reg.DeniedAt
	r.AttendedAt = reg.AttendedAt
	r.CancelledAt = reg.CancelledAt
	r.CreatedAt = reg.CreatedAt
	r.UpdatedAt = reg.UpdatedAt
}

type GetManyRegistrationResponse struct {
	Items []RegistrationResponse `json:"items"`
	Total int64                  `json:"total"`
}

func (r *GetManyRegistrationResponse) PopulateFromEntities(items []Registration, total int64) {
	itemsResponse := make([]RegistrationResponse, len(items))
	for k, v := range items {
		resp := RegistrationResponse{}
		resp.PopulateFromEntity(v)
		itemsResponse[k] = resp
	}

	r.Items = itemsResponse
	r.Total = total
}
