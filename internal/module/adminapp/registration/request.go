package registration

type DenyRegistrationRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type CheckInRegistrationRequest struct {
	TicketToken string `json:"ticket_token" validate:"required"`
}

type GetManyRegistrationRequest struct {
	EventID string `json:"event_id" validate:"required"`
	Status  string `json:"status" validate:"required,oneof=PENDING APPROVED DENIED ATTENDED CANCELLED"`
	Page    int64  `json:"page" validate:"required,gte=1"`
	Size    int64  `json:"size" validate:"required,gte=1,lte=100"`
}

type BroadcastAnnouncementRequest struct {
	Title string `json:"title" validate:"required,max=150"`
	Body  string `json:"body" validate:"required,max=2000"`
}
