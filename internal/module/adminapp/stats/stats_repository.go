package stats

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-registration/pkg/errors"
	"github.com/tsel-ticketmaster/tm-registration/pkg/status"
)

type StatsRepository interface {
	CountRegistrationsSince(ctx context.Context, since time.Time) (int64, error)
	CountEventsCreatedSince(ctx context.Context, since time.Time) (int64, error)
	CountActiveCustomersSince(ctx context.Context, since time.Time) (int64, error)
	CountEventsByStatus(ctx context.Context, eventStatus string) (int64, error)
	CountRegistrationsByStatus(ctx context.Context, regStatus string) (int64, error)
	CountOrganizersByStatus(ctx context.Context, organizerStatus string) (int64, error)
}

type statsRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewStatsRepository(logger *logrus.Logger, db *sql.DB) StatsRepository {
	return &statsRepository{
		logger: logger,
		db:     db,
	}
}

// CountRegistrationsSince implements StatsRepository.
func (r *statsRepository) CountRegistrationsSince(ctx context.Context, since time.Time) (int64, error) {
	query := `SELECT count(id) FROM registration WHERE created_at >= $1`

	return r.count(ctx, query, since)
}

// CountEventsCreatedSince implements StatsRepository.
func (r *statsRepository) CountEventsCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	query := `SELECT count(id) FROM event WHERE created_at >= $1`

	return r.count(ctx, query, since)
}

// CountActiveCustomersSince implements StatsRepository. A customer counts as
// active when any of its registrations changed in the window.
func (r *statsRepository) CountActiveCustomersSince(ctx context.Context, since time.Time) (int64, error) {
	query := `SELECT count(DISTINCT customer_id) FROM registration WHERE updated_at >= $1`

	return r.count(ctx, query, since)
}

// CountEventsByStatus implements StatsRepository.
func (r *statsRepository) CountEventsByStatus(ctx context.Context, eventStatus string) (int64, error) {
	query := `SELECT count(id) FROM event WHERE status = $1`

	return r.count(ctx, query, eventStatus)
}

// CountRegistrationsByStatus implements StatsRepository.
func (r *statsRepository) CountRegistrationsByStatus(ctx context.Context, regStatus string) (int64, error) {
	query := `SELECT count(id) FROM registration WHERE status = $1`

	return r.count(ctx, query, regStatus)
}

// CountOrganizersByStatus implements StatsRepository.
func (r *statsRepository) CountOrganizersByStatus(ctx context.Context, organizerStatus string) (int64, error) {
	query := `SELECT count(id) FROM organizer WHERE status = $1`

	return r.count(ctx, query, organizerStatus)
}

func (r *statsRepository) count(ctx context.Context, query string, arg interface{}) (int64, error) {
	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting platform statistics")
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, arg)

	var total int64
	if err := row.Scan(&total); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting platform statistics")
	}

	return total, nil
}
