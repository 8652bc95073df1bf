package registration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-registration/pkg/errors"
	"github.com/tsel-ticketmaster/tm-registration/pkg/status"
)

type RegistrationRepository interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(ctx context.Context, tx *sql.Tx) error
	Rollback(ctx context.Context, tx *sql.Tx) error

	FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Registration, error)
	Update(ctx context.Context, ID string, reg Registration, tx *sql.Tx) error
	CountApprovedByEventID(ctx context.Context, eventID string, tx *sql.Tx) (int64, error)
	FindManyByEventIDAndStatus(ctx context.Context, eventID string, regStatus string, offset, limit int64, tx *sql.Tx) ([]Registration, error)
	CountByEventIDAndStatus(ctx context.Context, eventID string, regStatus string, tx *sql.Tx) (int64, error)
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type registrationRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewRegistrationRepository(logger *logrus.Logger, db *sql.DB) RegistrationRepository {
	return &registrationRepository{
		logger: logger,
		db:     db,
	}
}

// BeginTx implements RegistrationRepository.
func (r *registrationRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to begin transaction")
	}

	return tx, nil
}

// CommitTx implements RegistrationRepository.
func (r *registrationRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to commit transaction")
	}

	return nil
}

// Rollback implements RegistrationRepository.
func (r *registrationRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Rollback(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to rollback transaction")
	}

	return nil
}

const registrationColumns = `
	id, event_id, customer_id, customer_name, customer_email,
	status, ticket_token, approved_by, denial_reason,
	approved_at, denied_at, attended_at, cancelled_at,
	created_at, updated_at
`

// FindByIDForUpdate implements RegistrationRepository.
func (r *registrationRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Registration, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM registration
		WHERE
			id = $1
		FOR UPDATE
	`, registrationColumns)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Registration{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting registration's properties for update")
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, ID)

	reg, err := scanRegistration(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return Registration{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("registration's properties with id '%s' is not found", ID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Registration{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting registration's properties for update")
	}

	return reg, nil
}

// Update implements RegistrationRepository.
func (r *registrationRepository) Update(ctx context.Context, ID string, reg Registration, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE registration
		SET
			status = $1,
			ticket_token = $2,
			approved_by = $3,
			denial_reason = $4,
			approved_at = $5,
			denied_at = $6,
			attended_at = $7,
			cancelled_at = $8,
			updated_at = $9
		WHERE id = $10
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating registration's properties")
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		reg.Status, nullString(reg.TicketToken), nullInt64(reg.ApprovedBy), nullString(reg.DenialReason),
		nullTime(reg.ApprovedAt), nullTime(reg.DeniedAt), nullTime(reg.AttendedAt), nullTime(reg.CancelledAt),
		reg.UpdatedAt, ID,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating registration's properties")
	}

	return nil
}

// CountApprovedByEventID implements RegistrationRepository. Callers holding
// the event row lock get a stable count for the capacity decision.
func (r *registrationRepository) CountApprovedByEventID(ctx context.Context, eventID string, tx *sql.Tx) (int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT count(id)
		FROM registration
		WHERE
			event_id = $1
		AND
			status = $2
		LIMIT 1
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting registration's properties")
	}
	defer stmt.Close()

	var count int64
	if err := stmt.QueryRowContext(ctx, eventID, StatusApproved).Scan(&count); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting registration's properties")
	}

	return count, nil
}

// FindManyByEventIDAndStatus implements RegistrationRepository.
func (r *registrationRepository) FindManyByEventIDAndStatus(ctx context.Context, eventID string, regStatus string, offset, limit int64, tx *sql.Tx) ([]Registration, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM registration
		WHERE
			event_id = $1
		AND
			status = $2
		ORDER BY created_at ASC
		OFFSET $3
		LIMIT $4
	`, registrationColumns)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of registration's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, eventID, regStatus, offset, limit)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of registration's properties")
	}

	defer rows.Close()

	var data = make([]Registration, 0)

	for rows.Next() {
		reg, err := scanRegistration(rows.Scan)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of registration's properties")
		}

		data = append(data, reg)
	}

	return data, nil
}

// CountByEventIDAndStatus implements RegistrationRepository.
func (r *registrationRepository) CountByEventIDAndStatus(ctx context.Context, eventID string, regStatus string, tx *sql.Tx) (int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT count(id)
		FROM registration
		WHERE
			event_id = $1
		AND
			status = $2
		LIMIT 1
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting registration's properties")
	}
	defer stmt.Close()

	var count int64
	if err := stmt.QueryRowContext(ctx, eventID, regStatus).Scan(&count); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting registration's properties")
	}

	return count, nil
}

func scanRegistration(scan func(dest ...interface{}) error) (Registration, error) {
	var reg Registration
	var ticketToken, denialReason sql.NullString
	var approvedBy sql.NullInt64
	var approvedAt, deniedAt, attendedAt, cancelledAt sql.NullTime

	err := scan(
		&reg.ID, &reg.EventID, &reg.CustomerID, &reg.CustomerName, &reg.CustomerEmail,
		&reg.Status, &ticketToken, &approvedBy, &denialReason,
		&approvedAt, &deniedAt, &attendedAt, &cancelledAt,
		&reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return Registration{}, err
	}

	if ticketToken.Valid {
		reg.TicketToken = &ticketToken.String
	}
	if denialReason.Valid {
		reg.DenialReason = &denialReason.String
	}
	if approvedBy.Valid {
		reg.ApprovedBy = &approvedBy.Int64
	}
	if approvedAt.Valid {
		reg.ApprovedAt = &approvedAt.Time
	}
	if deniedAt.Valid {
		reg.DeniedAt = &deniedAt.Time
	}
	if attendedAt.Valid {
		reg.AttendedAt = &attendedAt.Time
	}
	if cancelledAt.Valid {
		reg.CancelledAt = &cancelledAt.Time
	}

	return reg, nil
}

func nullString(s *string) sql.NullString {
	var ns sql.NullString
	if s != nil {
		ns.Valid = true
		ns.String = *s
	}
	return ns
}

func nullInt64(i *int64) sql.NullInt64 {
	var ni sql.NullInt64
	if i != nil {
		ni.Valid = true
		ni.Int64 = *i
	}
	return ni
}

func nullTime(t *time.Time) sql.NullTime {
	var nt sql.NullTime
	if t != nil {
		nt.Valid = true
		nt.Time = *t
	}
	return nt
}
