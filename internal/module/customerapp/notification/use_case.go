package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-registration/internal/pkg/session"
	"github.com/tsel-ticketmaster/tm-registration/pkg/realtime"
)

// NotifyRequest describes one notification to create and push.
type NotifyRequest struct {
	Title       string
	Body        string
	Category    string
	RelatedID   *string
	RelatedType *string
	Priority    string
}

// NotificationUseCase is the single choke point through which domain events
// become durable, delivered notifications. The Notify methods are best-effort
// from the caller's point of view: the durable record is the source of truth
// and the live push is fire-and-forget.
type NotificationUseCase interface {
	NotifyOne(ctx context.Context, recipientID int64, req NotifyRequest) (Notification, error)
	NotifyMany(ctx context.Context, recipientIDs []int64, req NotifyRequest) ([]Notification, error)
	NotifyEventParticipants(ctx context.Context, eventID string, req NotifyRequest, excludeRecipientID *int64) error

	GetManyNotification(ctx context.Context, req GetManyNotificationRequest) (GetManyNotificationResponse, error)
	MarkRead(ctx context.Context, ID string) (NotificationResponse, error)
	MarkAllRead(ctx context.Context) error
	RemoveNotification(ctx context.Context, ID string) error
}

type notificationUseCase struct {
	logger                 *logrus.Logger
	timeout                time.Duration
	notificationRepository NotificationRepository
	hub                    realtime.Hub
}

type NotificationUseCaseProperty struct {
	Logger                 *logrus.Logger
	Timeout                time.Duration
	NotificationRepository NotificationRepository
	Hub                    realtime.Hub
}

func NewNotificationUseCase(props NotificationUseCaseProperty) NotificationUseCase {
	return &notificationUseCase{
		logger:                 props.Logger,
		timeout:                props.Timeout,
		notificationRepository: props.NotificationRepository,
		hub:                    props.Hub,
	}
}

// NotifyOne implements NotificationUseCase. The record is stored first; the
// live push happens only after the durable write succeeded, so a client that
// is offline recovers the notification from the store on its next pull.
func (u *notificationUseCase) NotifyOne(ctx context.Context, recipientID int64, req NotifyRequest) (Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	n := u.buildNotification(recipientID, req)

	if err := u.notificationRepository.Save(ctx, n, nil); err != nil {
		u.logger.WithContext(ctx).WithFields(logrus.Fields{
			"recipientId": recipientID,
			"category":    n.Category,
		}).WithError(err).Error("failed to store notification")
		return Notification{}, err
	}

	u.push(n)

	return n, nil
}

// NotifyMany implements NotificationUseCase. The batch is written with a
// single multi-row insert; when that fails the records fall back to
// individual inserts so one bad record cannot sink the whole fan-out, and
// every record that made it to the store is pushed.
func (u *notificationUseCase) NotifyMany(ctx context.Context, recipientIDs []int64, req NotifyRequest) ([]Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	if len(recipientIDs) == 0 {
		return []Notification{}, nil
	}

	batch := make([]Notification, 0, len(recipientIDs))
	for _, recipientID := range recipientIDs {
		batch = append(batch, u.buildNotification(recipientID, req))
	}

	err := u.notificationRepository.SaveMany(ctx, batch, nil)
	if err == nil {
		for _, n := range batch {
			u.push(n)
		}

		return batch, nil
	}

	u.logger.WithContext(ctx).WithFields(logrus.Fields{
		"recipients": len(batch),
		"category":   req.Category,
	}).WithError(err).Warn("batch notification insert failed, retrying individually")

	var stored = make([]Notification, 0, len(batch))
	var lastErr error

	for _, n := range batch {
		if err := u.notificationRepository.Save(ctx, n, nil); err != nil {
			u.logger.WithContext(ctx).WithFields(logrus.Fields{
				"recipientId": n.RecipientID,
				"category":    n.Category,
			}).WithError(err).Error("failed to store notification")
			lastErr = err
			continue
		}

		stored = append(stored, n)
	}

	for _, n := range stored {
		u.push(n)
	}

	return stored, lastErr
}

// NotifyEventParticipants implements NotificationUseCase.
func (u *notificationUseCase) NotifyEventParticipants(ctx context.Context, eventID string, req NotifyRequest, excludeRecipientID *int64) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	recipientIDs, err := u.notificationRepository.FindManyApprovedRecipientIDsByEventID(ctx, eventID, nil)
	if err != nil {
		return err
	}

	if excludeRecipientID != nil {
		filtered := recipientIDs[:0]
		for _, recipientID := range recipientIDs {
			if recipientID != *excludeRecipientID {
				filtered = append(filtered, recipientID)
			}
		}
		recipientIDs = filtered
	}

	_, err = u.NotifyMany(ctx, recipientIDs, req)

	return err
}

// GetManyNotification implements NotificationUseCase.
func (u *notificationUseCase) GetManyNotification(ctx context.Context, req GetManyNotificationRequest) (GetManyNotificationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return GetManyNotificationResponse{}, err
	}

	offset := (req.Page - 1) * req.Size

	items, err := u.notificationRepository.FindManyByRecipientID(ctx, acc.ID, req.UnreadOnly, offset, req.Size, nil)
	if err != nil {
		return GetManyNotificationResponse{}, err
	}

	unreadCount, err := u.notificationRepository.CountUnreadByRecipientID(ctx, acc.ID, nil)
	if err != nil {
		return GetManyNotificationResponse{}, err
	}

	resp := GetManyNotificationResponse{}
	resp.PopulateFromEntities(items, unreadCount)

	return resp, nil
}

// MarkRead implements NotificationUseCase.
func (u *notificationUseCase) MarkRead(ctx context.Context, ID string) (NotificationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return NotificationResponse{}, err
	}

	n, err := u.notificationRepository.UpdateRead(ctx, ID, acc.ID, time.Now(), nil)
	if err != nil {
		return NotificationResponse{}, err
	}

	resp := NotificationResponse{}
	resp.PopulateFromEntity(n)

	return resp, nil
}

// MarkAllRead implements NotificationUseCase.
func (u *notificationUseCase) MarkAllRead(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return err
	}

	return u.notificationRepository.UpdateAllRead(ctx, acc.ID, time.Now(), nil)
}

// RemoveNotification implements NotificationUseCase.
func (u *notificationUseCase) RemoveNotification(ctx context.Context, ID string) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return err
	}

	return u.notificationRepository.Delete(ctx, ID, acc.ID, nil)
}

func (u *notificationUseCase) buildNotification(recipientID int64, req NotifyRequest) Notification {
	now := time.Now()

	priority := req.Priority
	if priority == "" {
		priority = PriorityNormal
	}

	n := Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		Title:       req.Title,
		Body:        req.Body,
		Category:    req.Category,
		RelatedID:   req.RelatedID,
		RelatedType: req.RelatedType,
		Priority:    priority,
		Read:        false,
		CreatedAt:   now,
	}

	if priority == PriorityLow {
		expiresAt := now.Add(lowPriorityRetention)
		n.ExpiresAt = &expiresAt
	}

	return n
}

func (u *notificationUseCase) push(n Notification) {
	resp := NotificationResponse{}
	resp.PopulateFromEntity(n)

	u.hub.Deliver(realtime.UserChannel(n.RecipientID), realtime.Message{
		Event:   "notification",
		Payload: resp,
	})
}
