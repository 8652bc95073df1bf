package notification

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-registration/pkg/errors"
	"github.com/tsel-ticketmaster/tm-registration/pkg/status"
)

type NotificationRepository interface {
	Save(ctx context.Context, n Notification, tx *sql.Tx) error
	SaveMany(ctx context.Context, notifications []Notification, tx *sql.Tx) error
	FindManyByRecipientID(ctx context.Context, recipientID int64, unreadOnly bool, offset, limit int64, tx *sql.Tx) ([]Notification, error)
	CountUnreadByRecipientID(ctx context.Context, recipientID int64, tx *sql.Tx) (int64, error)
	UpdateRead(ctx context.Context, ID string, recipientID int64, readAt time.Time, tx *sql.Tx) (Notification, error)
	UpdateAllRead(ctx context.Context, recipientID int64, readAt time.Time, tx *sql.Tx) error
	Delete(ctx context.Context, ID string, recipientID int64, tx *sql.Tx) error
	FindManyApprovedRecipientIDsByEventID(ctx context.Context, eventID string, tx *sql.Tx) ([]int64, error)
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type notificationRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewNotificationRepository(logger *logrus.Logger, db *sql.DB) NotificationRepository {
	return &notificationRepository{
		logger: logger,
		db:     db,
	}
}

// Save implements NotificationRepository.
func (r *notificationRepository) Save(ctx context.Context, n Notification, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		INSERT INTO notification
		(
			id, recipient_id, title, body, category,
			related_id, related_type, priority, read, read_at,
			expires_at, created_at
		)
		VALUES
		(
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving notification's properties")
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, notificationArgs(n)...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving notification's properties")
	}

	return nil
}

// SaveMany implements NotificationRepository. It inserts the whole batch with
// a single multi-row statement so a fan-out either lands durably as one unit
// or not at all.
func (r *notificationRepository) SaveMany(ctx context.Context, notifications []Notification, tx *sql.Tx) error {
	if len(notifications) == 0 {
		return nil
	}

	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	const columns = 12

	placeholders := make([]string, 0, len(notifications))
	args := make([]interface{}, 0, len(notifications)*columns)
	for i, n := range notifications {
		offset := i * columns
		row := make([]string, 0, columns)
		for j := 1; j <= columns; j++ {
			row = append(row, fmt.Sprintf("$%d", offset+j))
		}
		placeholders = append(placeholders, "("+strings.Join(row, ", ")+")")
		args = append(args, notificationArgs(n)...)
	}

	query := `
		INSERT INTO notification
		(
			id, recipient_id, title, body, category,
			related_id, related_type, priority, read, read_at,
			expires_at, created_at
		)
		VALUES ` + strings.Join(placeholders, ", ")

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving bunch of notification's properties")
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving bunch of notification's properties")
	}

	return nil
}

func notificationArgs(n Notification) []interface{} {
	var relatedID, relatedType sql.NullString
	if n.RelatedID != nil {
		relatedID.Valid = true
		relatedID.String = *n.RelatedID
	}
	if n.RelatedType != nil {
		relatedType.Valid = true
		relatedType.String = *n.RelatedType
	}

	var readAt, expiresAt sql.NullTime
	if n.ReadAt != nil {
		readAt.Valid = true
		readAt.Time = *n.ReadAt
	}
	if n.ExpiresAt != nil {
		expiresAt.Valid = true
		expiresAt.Time = *n.ExpiresAt
	}

	return []interface{}{
		n.ID, n.RecipientID, n.Title, n.Body, n.Category,
		relatedID, relatedType, n.Priority, n.Read, readAt,
		expiresAt, n.CreatedAt,
	}
}

// FindManyByRecipientID implements NotificationRepository.
func (r *notificationRepository) FindManyByRecipientID(ctx context.Context, recipientID int64, unreadOnly bool, offset, limit int64, tx *sql.Tx) ([]Notification, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			id, recipient_id, title, body, category,
			related_id, related_type, priority, read, read_at,
			expires_at, created_at
		FROM notification
		WHERE
			recipient_id = $1
		AND
			($2 = false OR read = false)
		ORDER BY created_at DESC
		OFFSET $3
		LIMIT $4
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of notification's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, recipientID, unreadOnly, offset, limit)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of notification's properties")
	}

	defer rows.Close()

	var data = make([]Notification, 0)

	for rows.Next() {
		n, err := scanNotification(rows.Scan)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of notification's properties")
		}

		data = append(data, n)
	}

	return data, nil
}

// CountUnreadByRecipientID implements NotificationRepository.
func (r *notificationRepository) CountUnreadByRecipientID(ctx context.Context, recipientID int64, tx *sql.Tx) (int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT count(id)
		FROM notification
		WHERE
			recipient_id = $1
		AND
			read = false
		LIMIT 1
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting notification's properties")
	}
	defer stmt.Close()

	var count int64
	if err := stmt.QueryRowContext(ctx, recipientID).Scan(&count); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting notification's properties")
	}

	return count, nil
}

// UpdateRead implements NotificationRepository. The recipient id guards
// against marking another account's notification.
func (r *notificationRepository) UpdateRead(ctx context.Context, ID string, recipientID int64, readAt time.Time, tx *sql.Tx) (Notification, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE notification
		SET
			read = true,
			read_at = $1
		WHERE
			id = $2
		AND
			recipient_id = $3
		RETURNING
			id, recipient_id, title, body, category,
			related_id, related_type, priority, read, read_at,
			expires_at, created_at
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Notification{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating notification's properties")
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, readAt, ID, recipientID)

	n, err := scanNotification(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return Notification{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("notification's properties with id '%s' is not found", ID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Notification{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating notification's properties")
	}

	return n, nil
}

// UpdateAllRead implements NotificationRepository.
func (r *notificationRepository) UpdateAllRead(ctx context.Context, recipientID int64, readAt time.Time, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE notification
		SET
			read = true,
			read_at = $1
		WHERE
			recipient_id = $2
		AND
			read = false
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating notification's properties")
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, readAt, recipientID); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating notification's properties")
	}

	return nil
}

// Delete implements NotificationRepository.
func (r *notificationRepository) Delete(ctx context.Context, ID string, recipientID int64, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		DELETE FROM notification
		WHERE
			id = $1
		AND
			recipient_id = $2
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while deleting notification's properties")
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, ID, recipientID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while deleting notification's properties")
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("notification's properties with id '%s' is not found", ID))
	}

	return nil
}

// FindManyApprovedRecipientIDsByEventID implements NotificationRepository. It
// resolves the approved participant set of an event for fan-out.
func (r *notificationRepository) FindManyApprovedRecipientIDsByEventID(ctx context.Context, eventID string, tx *sql.Tx) ([]int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT customer_id
		FROM registration
		WHERE
			event_id = $1
		AND
			status = 'APPROVED'
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting event's participants")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, eventID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting event's participants")
	}

	defer rows.Close()

	var data = make([]int64, 0)
	for rows.Next() {
		var recipientID int64
		if err := rows.Scan(&recipientID); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting event's participants")
		}

		data = append(data, recipientID)
	}

	return data, nil
}

func scanNotification(scan func(dest ...interface{}) error) (Notification, error) {
	var n Notification
	var relatedID, relatedType sql.NullString
	var readAt, expiresAt sql.NullTime

	err := scan(
		&n.ID, &n.RecipientID, &n.Title, &n.Body, &n.Category,
		&relatedID, &relatedType, &n.Priority, &n.Read, &readAt,
		&expiresAt, &n.CreatedAt,
	)
	if err != nil {
		return Notification{}, err
	}

	if relatedID.Valid {
		n.RelatedID = &relatedID.String
	}
	if relatedType.Valid {
		n.RelatedType = &relatedType.String
	}
	if readAt.Valid {
		n.ReadAt = &readAt.Time
	}
	if expiresAt.Valid {
		n.ExpiresAt = &expiresAt.Time
	}

	return n, nil
}
