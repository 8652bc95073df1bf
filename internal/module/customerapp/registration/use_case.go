package registration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-registration/internal/module/customerapp/event"
	"github.com/tsel-ticketmaster/tm-registration/internal/module/customerapp/notification"
	"github.com/tsel-ticketmaster/tm-registration/internal/pkg/session"
	"github.com/tsel-ticketmaster/tm-registration/pkg/errors"
	"github.com/tsel-ticketmaster/tm-registration/pkg/pubsub"
	"github.com/tsel-ticketmaster/tm-registration/pkg/status"
)

const relatedTypeRegistration = "REGISTRATION"

type RegistrationUseCase interface {
	SubmitRegistration(ctx context.Context, req SubmitRegistrationRequest) (RegistrationResponse, error)
	CancelRegistration(ctx context.Context, ID string) (RegistrationResponse, error)
	GetManyRegistration(ctx context.Context, req GetManyRegistrationRequest) (GetManyRegistrationResponse, error)
}

type registrationUseCase struct {
	logger                 *logrus.Logger
	timeout                time.Duration
	eventRepository        event.EventRepository
	registrationRepository RegistrationRepository
	notificationUseCase    notification.NotificationUseCase
	publisher              pubsub.Publisher
}

type RegistrationUseCaseProperty struct {
	Logger                 *logrus.Logger
	Timeout                time.Duration
	EventRepository        event.EventRepository
	RegistrationRepository RegistrationRepository
	NotificationUseCase    notification.NotificationUseCase
	Publisher              pubsub.Publisher
}

func NewRegistrationUseCase(props RegistrationUseCaseProperty) RegistrationUseCase {
	return &registrationUseCase{
		logger:                 props.Logger,
		timeout:                props.Timeout,
		eventRepository:        props.EventRepository,
		registrationRepository: props.RegistrationRepository,
		notificationUseCase:    props.NotificationUseCase,
		publisher:              props.Publisher,
	}
}

// SubmitRegistration implements RegistrationUseCase. The created registration
// starts in PENDING and consumes no capacity until an administrator approves
// it; the capacity check here only rejects submissions against an event that
// is already full.
func (u *registrationUseCase) SubmitRegistration(ctx context.Context, req SubmitRegistrationRequest) (RegistrationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return RegistrationResponse{}, err
	}

	tx, err := u.registrationRepository.BeginTx(ctx)
	if err != nil {
		return RegistrationResponse{}, err
	}

	e, err := u.eventRepository.FindByID(ctx, req.EventID, tx)
	if err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, err
	}

	if e.Status != event.StatusApproved {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, errors.New(http.StatusConflict, status.EVENT_NOT_APPROVED, fmt.Sprintf("event '%s' is not open for registration", e.Title))
	}

	exists, err := u.registrationRepository.ExistsByEventIDAndCustomerID(ctx, req.EventID, acc.ID, tx)
	if err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, err
	}

	if exists {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, errors.New(http.StatusConflict, status.ALREADY_REGISTERED, fmt.Sprintf("you already have a registration for event '%s'", e.Title))
	}

	if e.Capacity > 0 {
		approvedCount, err := u.registrationRepository.CountApprovedByEventID(ctx, req.EventID, tx)
		if err != nil {
			u.registrationRepository.Rollback(ctx, tx)
			return RegistrationResponse{}, err
		}

		if approvedCount >= e.Capacity {
			u.registrationRepository.Rollback(ctx, tx)
			return RegistrationResponse{}, errors.New(http.StatusConflict, status.CAPACITY_EXCEEDED, fmt.Sprintf("event '%s' is already full", e.Title))
		}
	}

	now := time.Now()
	reg := Registration{
		ID:            uuid.NewString(),
		EventID:       e.ID,
		CustomerID:    acc.ID,
		CustomerName:  acc.Name,
		CustomerEmail: acc.Email,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := u.registrationRepository.Save(ctx, reg, tx); err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, err
	}

	if err := u.registrationRepository.CommitTx(ctx, tx); err != nil {
		return RegistrationResponse{}, err
	}

	u.publish(ctx, "registration-submitted", reg)

	// Best effort; the submission stands whether or not the organizer gets
	// this message.
	regID := reg.ID
	_, _ = u.notificationUseCase.NotifyOne(ctx, e.OrganizerID, notification.NotifyRequest{
		Title:       "New registration request",
		Body:        fmt.Sprintf("%s requested a seat for '%s'.", acc.Name, e.Title),
		Category:    notification.CategoryInfo,
		RelatedID:   &regID,
		RelatedType: strPtr(relatedTypeRegistration),
	})

	resp := RegistrationResponse{}
	resp.PopulateFromEntity(reg)

	return resp, nil
}

// CancelRegistration implements RegistrationUseCase. Only an APPROVED
// registration owned by the caller can be withdrawn; the freed seat becomes
// available to the next approval.
func (u *registrationUseCase) CancelRegistration(ctx context.Context, ID string) (RegistrationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return RegistrationResponse{}, err
	}

	tx, err := u.registrationRepository.BeginTx(ctx)
	if err != nil {
		return RegistrationResponse{}, err
	}

	reg, err := u.registrationRepository.FindByIDForUpdate(ctx, ID, tx)
	if err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, err
	}

	if reg.CustomerID != acc.ID {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("registration's properties with id '%s' is not found", ID))
	}

	if reg.Status != StatusApproved {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, errors.New(http.StatusConflict, status.INVALID_STATE, fmt.Sprintf("registration cannot be cancelled from its current state '%s'", reg.Status))
	}

	now := time.Now()
	reg.Status = StatusCancelled
	reg.CancelledAt = &now
	reg.UpdatedAt = now

	if err := u.registrationRepository.Update(ctx, reg.ID, reg, tx); err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, err
	}

	if err := u.registrationRepository.CommitTx(ctx, tx); err != nil {
		return RegistrationResponse{}, err
	}

	u.publish(ctx, "registration-cancelled", reg)

	if e, err := u.eventRepository.FindByID(ctx, reg.EventID, nil); err == nil {
		regID := reg.ID
		_, _ = u.notificationUseCase.NotifyOne(ctx, e.OrganizerID, notification.NotifyRequest{
			Title:       "Registration withdrawn",
			Body:        fmt.Sprintf("%s gave up their seat for '%s'.", reg.CustomerName, e.Title),
			Category:    notification.CategoryInfo,
			RelatedID:   &regID,
			RelatedType: strPtr(relatedTypeRegistration),
		})
	}

	resp := RegistrationResponse{}
	resp.PopulateFromEntity(reg)

	return resp, nil
}

// GetManyRegistration implements RegistrationUseCase.
func (u *registrationUseCase) GetManyRegistration(ctx context.Context, req GetManyRegistrationRequest) (GetManyRegistrationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return GetManyRegistrationResponse{}, err
	}

	offset := (req.Page - 1) * req.Size

	items, err := u.registrationRepository.FindManyByCustomerID(ctx, acc.ID, offset, req.Size, nil)
	if err != nil {
		return GetManyRegistrationResponse{}, err
	}

	total, err := u.registrationRepository.Count(ctx, acc.ID, nil)
	if err != nil {
		return GetManyRegistrationResponse{}, err
	}

	resp := GetManyRegistrationResponse{}
	resp.PopulateFromEntities(items, total)

	return resp, nil
}

func (u *registrationUseCase) publish(ctx context.Context, topic string, reg Registration) {
	regBuff, _ := json.Marshal(reg)
	u.publisher.Publish(ctx, topic, reg.ID, nil, regBuff)
}

func strPtr(s string) *string {
	return &s
}
