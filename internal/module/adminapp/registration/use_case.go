package registration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-registration/internal/module/customerapp/notification"
	"github.com/tsel-ticketmaster/tm-registration/internal/pkg/session"
	"github.com/tsel-ticketmaster/tm-registration/pkg/errors"
	"github.com/tsel-ticketmaster/tm-registration/pkg/pubsub"
	"github.com/tsel-ticketmaster/tm-registration/pkg/realtime"
	"github.com/tsel-ticketmaster/tm-registration/pkg/status"
)

const relatedTypeRegistration = "REGISTRATION"

// TicketCodec mints and verifies the redeemable ticket credential. The
// credential is opaque to everything but check-in.
type TicketCodec interface {
	Sign(claims gojwt.MapClaims) (string, error)
	Parse(token string) (gojwt.MapClaims, error)
}

type RegistrationUseCase interface {
	ApproveRegistration(ctx context.Context, ID string) (RegistrationResponse, error)
	DenyRegistration(ctx context.Context, ID string, req DenyRegistrationRequest) (RegistrationResponse, error)
	CheckInRegistration(ctx context.Context, req CheckInRegistrationRequest) (RegistrationResponse, error)
	GetManyRegistration(ctx context.Context, req GetManyRegistrationRequest) (GetManyRegistrationResponse, error)
	BroadcastAnnouncement(ctx context.Context, req BroadcastAnnouncementRequest) error
}

type registrationUseCase struct {
	logger                 *logrus.Logger
	timeout                time.Duration
	registrationRepository RegistrationRepository
	eventRepository        EventRepository
	notificationUseCase    notification.NotificationUseCase
	ticketCodec            TicketCodec
	publisher              pubsub.Publisher
	hub                    realtime.Hub
}

type RegistrationUseCaseProperty struct {
	Logger                 *logrus.Logger
	Timeout                time.Duration
	RegistrationRepository RegistrationRepository
	EventRepository        EventRepository
	NotificationUseCase    notification.NotificationUseCase
	TicketCodec            TicketCodec
	Publisher              pubsub.Publisher
	Hub                    realtime.Hub
}

func NewRegistrationUseCase(props RegistrationUseCaseProperty) RegistrationUseCase {
	return &registrationUseCase{
		logger:                 props.Logger,
		timeout:                props.Timeout,
		registrationRepository: props.RegistrationRepository,
		eventRepository:        props.EventRepository,
		notificationUseCase:    props.NotificationUseCase,
		ticketCodec:            props.TicketCodec,
		publisher:              props.Publisher,
		hub:                    props.Hub,
	}
}

// ApproveRegistration implements RegistrationUseCase.
//
// The capacity check and the status write happen inside one transaction that
// holds the event row lock, so two administrators approving against the same
// event are serialized and the approved count can never overshoot the
// capacity. A failed capacity check leaves the registration PENDING so the
// administrator can retry once a seat frees up.
func (u *registrationUseCase) ApproveRegistration(ctx context.Context, ID string) (RegistrationResponse, error) {
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

	if reg.Status != StatusPending {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, errors.New(http.StatusConflict, status.INVALID_STATE, fmt.Sprintf("registration cannot be approved from its current state '%s'", reg.Status))
	}

	e, err := u.eventRepository.FindByIDForUpdate(ctx, reg.EventID, tx)
	if err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, err
	}

	if e.Capacity > 0 {
		approvedCount, err := u.registrationRepository.CountApprovedByEventID(ctx, e.ID, tx)
		if err != nil {
			u.registrationRepository.Rollback(ctx, tx)
			return RegistrationResponse{}, err
		}

		if approvedCount >= e.Capacity {
			u.registrationRepository.Rollback(ctx, tx)
			return RegistrationResponse{}, errors.New(http.StatusConflict, status.CAPACITY_EXCEEDED, fmt.Sprintf("event '%s' is full; the registration remains pending", e.Title))
		}
	}

	now := time.Now()

	ticketToken, err := u.ticketCodec.Sign(gojwt.MapClaims{
		"rid": reg.ID,
		"eid": reg.EventID,
		"cid": reg.CustomerID,
		"iat": now.Unix(),
	})
	if err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		u.logger.WithContext(ctx).WithError(err).Error()
		return RegistrationResponse{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while minting ticket credential")
	}

	reg.Status = StatusApproved
	reg.TicketToken = &ticketToken
	reg.ApprovedBy = &acc.ID
	reg.ApprovedAt = &now
	reg.UpdatedAt = now

	if err := u.registrationRepository.Update(ctx, reg.ID, reg, tx); err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, err
	}

	if err := u.registrationRepository.CommitTx(ctx, tx); err != nil {
		return RegistrationResponse{}, err
	}

	u.publish(ctx, "registration-approved", reg)

	// The approval stands regardless of notification delivery.
	regID := reg.ID
	_, _ = u.notificationUseCase.NotifyOne(ctx, reg.CustomerID, notification.NotifyRequest{
		Title:       "Registration approved",
		Body:        fmt.Sprintf("Your seat for '%s' is confirmed. Your ticket is ready.", e.Title),
		Category:    notification.CategorySuccess,
		RelatedID:   &regID,
		RelatedType: strPtr(relatedTypeRegistration),
	})
	_, _ = u.notificationUseCase.NotifyOne(ctx, e.OrganizerID, notification.NotifyRequest{
		Title:       "Participant admitted",
		Body:        fmt.Sprintf("%s was admitted to '%s'.", reg.CustomerName, e.Title),
		Category:    notification.CategoryInfo,
		RelatedID:   &regID,
		RelatedType: strPtr(relatedTypeRegistration),
	})

	resp := RegistrationResponse{}
	resp.PopulateFromEntity(reg)

	return resp, nil
}

// DenyRegistration implements RegistrationUseCase. Denial needs no capacity
// interaction; it only guards the PENDING state.
func (u *registrationUseCase) DenyRegistration(ctx context.Context, ID string, req DenyRegistrationRequest) (RegistrationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	if _, err := session.GetAccountFromCtx(ctx); err != nil {
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

	if reg.Status != StatusPending {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, errors.New(http.StatusConflict, status.INVALID_STATE, fmt.Sprintf("registration cannot be denied from its current state '%s'", reg.Status))
	}

	now := time.Now()
	reg.Status = StatusDenied
	reg.DeniedAt = &now
	reg.UpdatedAt = now
	if req.Reason != "" {
		reg.DenialReason = &req.Reason
	}

	if err := u.registrationRepository.Update(ctx, reg.ID, reg, tx); err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, err
	}

	if err := u.registrationRepository.CommitTx(ctx, tx); err != nil {
		return RegistrationResponse{}, err
	}

	u.publish(ctx, "registration-denied", reg)

	body := "Your registration request was not approved."
	if reg.DenialReason != nil {
		body = fmt.Sprintf("Your registration request was not approved: %s", *reg.DenialReason)
	}

	regID := reg.ID
	_, _ = u.notificationUseCase.NotifyOne(ctx, reg.CustomerID, notification.NotifyRequest{
		Title:       "Registration denied",
		Body:        body,
		Category:    notification.CategoryWarning,
		RelatedID:   &regID,
		RelatedType: strPtr(relatedTypeRegistration),
	})

	if e, err := u.eventRepository.FindByID(ctx, reg.EventID, nil); err == nil {
		_, _ = u.notificationUseCase.NotifyOne(ctx, e.OrganizerID, notification.NotifyRequest{
			Title:       "Registration denied",
			Body:        fmt.Sprintf("%s's request for '%s' was denied.", reg.CustomerName, e.Title),
			Category:    notification.CategoryInfo,
			RelatedID:   &regID,
			RelatedType: strPtr(relatedTypeRegistration),
		})
	}

	resp := RegistrationResponse{}
	resp.PopulateFromEntity(reg)

	return resp, nil
}

// CheckInRegistration implements RegistrationUseCase. The presented ticket
// credential is verified, then the registration moves APPROVED -> ATTENDED.
func (u *registrationUseCase) CheckInRegistration(ctx context.Context, req CheckInRegistrationRequest) (RegistrationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	if _, err := session.GetAccountFromCtx(ctx); err != nil {
		return RegistrationResponse{}, err
	}

	claims, err := u.ticketCodec.Parse(req.TicketToken)
	if err != nil {
		return RegistrationResponse{}, errors.New(http.StatusUnprocessableEntity, status.UNPROCESSABLE_ENTITY, "ticket credential is invalid")
	}

	registrationID, _ := claims["rid"].(string)
	if registrationID == "" {
		return RegistrationResponse{}, errors.New(http.StatusUnprocessableEntity, status.UNPROCESSABLE_ENTITY, "ticket credential is invalid")
	}

	tx, err := u.registrationRepository.BeginTx(ctx)
	if err != nil {
		return RegistrationResponse{}, err
	}

	reg, err := u.registrationRepository.FindByIDForUpdate(ctx, registrationID, tx)
	if err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, err
	}

	if reg.Status != StatusApproved {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, errors.New(http.StatusConflict, status.INVALID_STATE, fmt.Sprintf("registration cannot be checked in from its current state '%s'", reg.Status))
	}

	now := time.Now()
	reg.Status = StatusAttended
	reg.AttendedAt = &now
	reg.UpdatedAt = now

	if err := u.registrationRepository.Update(ctx, reg.ID, reg, tx); err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, err
	}

	if err := u.registrationRepository.CommitTx(ctx, tx); err != nil {
		return RegistrationResponse{}, err
	}

	u.publish(ctx, "registration-attended", reg)

	regID := reg.ID
	_, _ = u.notificationUseCase.NotifyOne(ctx, reg.CustomerID, notification.NotifyRequest{
		Title:       "Checked in",
		Body:        "Welcome! Your ticket has been redeemed.",
		Category:    notification.CategorySuccess,
		RelatedID:   &regID,
		RelatedType: strPtr(relatedTypeRegistration),
	})

	resp := RegistrationResponse{}
	resp.PopulateFromEntity(reg)

	return resp, nil
}

// GetManyRegistration implements RegistrationUseCase.
func (u *registrationUseCase) GetManyRegistration(ctx context.Context, req GetManyRegistrationRequest) (GetManyRegistrationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	offset := (req.Page - 1) * req.Size

	items, err := u.registrationRepository.FindManyByEventIDAndStatus(ctx, req.EventID, req.Status, offset, req.Size, nil)
	if err != nil {
		return GetManyRegistrationResponse{}, err
	}

	total, err := u.registrationRepository.CountByEventIDAndStatus(ctx, req.EventID, req.Status, nil)
	if err != nil {
		return GetManyRegistrationResponse{}, err
	}

	resp := GetManyRegistrationResponse{}
	resp.PopulateFromEntities(items, total)

	return resp, nil
}

// BroadcastAnnouncement implements RegistrationUseCase. Announcements are
// live-only; every connected client receives them regardless of channel
// membership.
func (u *registrationUseCase) BroadcastAnnouncement(ctx context.Context, req BroadcastAnnouncementRequest) error {
	_, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	if _, err := session.GetAccountFromCtx(ctx); err != nil {
		return err
	}

	u.hub.Broadcast(realtime.Message{
		Event: "announcement",
		Payload: AnnouncementPayload{
			Title: req.Title,
			Body:  req.Body,
			At:    time.Now(),
		},
	})

	return nil
}

func (u *registrationUseCase) publish(ctx context.Context, topic string, reg Registration) {
	regBuff, _ := json.Marshal(reg)
	u.publisher.Publish(ctx, topic, reg.ID, nil, regBuff)
}

func strPtr(s string) *string {
	return &s
}
