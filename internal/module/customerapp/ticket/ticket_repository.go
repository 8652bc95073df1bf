package ticket

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-registration/pkg/errors"
	"github.com/tsel-ticketmaster/tm-registration/pkg/status"
)

type TicketRepository interface {
	FindByRegistrationIDAndCustomerID(ctx context.Context, registrationID string, customerID int64) (Ticket, error)
}

type ticketRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewTicketRepository(logger *logrus.Logger, db *sql.DB) TicketRepository {
	return &ticketRepository{
		logger: logger,
		db:     db,
	}
}

// FindByRegistrationIDAndCustomerID implements TicketRepository. Only
// registrations that hold a minted ticket credential qualify.
func (r *ticketRepository) FindByRegistrationIDAndCustomerID(ctx context.Context, registrationID string, customerID int64) (Ticket, error) {
	query := `
		SELECT r.id, r.event_id, e.title, r.customer_id, r.customer_name, r.status, r.ticket_token, r.approved_at, r.attended_at
		FROM registration r
		JOIN event e ON e.id = r.event_id
		WHERE r.id = $1 AND r.customer_id = $2 AND r.ticket_token IS NOT NULL
	`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Ticket{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting ticket")
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, registrationID, customerID)

	var t Ticket
	var approvedAt, attendedAt sql.NullTime

	err = row.Scan(&t.RegistrationID, &t.EventID, &t.EventTitle, &t.CustomerID, &t.CustomerName, &t.Status, &t.TicketToken, &approvedAt, &attendedAt)
	if err != nil && err != sql.ErrNoRows {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Ticket{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting ticket")
	}

	if err == sql.ErrNoRows {
		return Ticket{}, errors.New(http.StatusNotFound, status.NOT_FOUND, "ticket is not found")
	}

	if approvedAt.Valid {
		t.ApprovedAt = &approvedAt.Time
	}
	if attendedAt.Valid {
		t.AttendedAt = &attendedAt.Time
	}

	return t, nil
}
