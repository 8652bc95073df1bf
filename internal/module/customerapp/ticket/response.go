package ticket

import (
	"encoding/base64"
	"time"
)

type TicketResponse struct {
	RegistrationID string     `json:"registration_id"`
	EventID        string     `json:"event_id"`
	EventTitle     string     `json:"event_title"`
	CustomerName   string     `json:"customer_name"`
	Status         string     `json:"status"`
	TicketToken    string     `json:"ticket_token"`
	QRCode         string     `json:"qr_code"`
	ApprovedAt     *time.Time `json:"approved_at"`
	AttendedAt     *time.Time `json:"attended_at"`
}

func (r *TicketResponse) PopulateFromEntity(t Ticket, qrPNG []byte) {
	r.RegistrationID = t.RegistrationID
	r.EventID = t.EventID
	r.EventTitle = t.EventTitle
	r.CustomerName = t.CustomerName
	r.Status = t.Status
	r.TicketToken = t.TicketToken
	r.QRCode = base64.StdEncoding.EncodeToString(qrPNG)
	r.ApprovedAt = t.ApprovedAt
	r.AttendedAt = t.AttendedAt
}
