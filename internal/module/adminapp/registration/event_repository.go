package registration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-registration/pkg/errors"
	"github.com/tsel-ticketmaster/tm-registration/pkg/status"
)

type EventRepository interface {
	FindByID(ctx context.Context, ID string, tx *sql.Tx) (Event, error)
	FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Event, error)
}

type eventRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewEventRepository(logger *logrus.Logger, db *sql.DB) EventRepository {
	return &eventRepository{
		logger: logger,
		db:     db,
	}
}

// FindByID implements EventRepository.
func (r *eventRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Event, error) {
	return r.find(ctx, ID, tx, false)
}

// FindByIDForUpdate implements EventRepository. Locking the event row is what
// serializes concurrent admission decisions for the same event; decisions for
// different events lock different rows and proceed in parallel.
func (r *eventRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Event, error) {
	return r.find(ctx, ID, tx, true)
}

func (r *eventRepository) find(ctx context.Context, ID string, tx *sql.Tx, forUpdate bool) (Event, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			id, title, status, capacity, organizer_id
		FROM event
		WHERE
			id = $1
	`
	if forUpdate {
		query += `
		FOR UPDATE
	`
	}

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Event{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting event's properties")
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, ID)

	var data Event
	err = row.Scan(&data.ID, &data.Title, &data.Status, &data.Capacity, &data.OrganizerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return Event{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("event's properties with id '%s' is not found", ID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Event{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting event's properties")
	}

	return data, nil
}
