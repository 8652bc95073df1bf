package event

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type EventUseCase interface {
	GetManyEvent(ctx context.Context, req GetManyEventRequest) (GetManyEventResponse, error)
	GetEvent(ctx context.Context, ID string) (EventResponse, error)
}

type eventUseCase struct {
	logger          *logrus.Logger
	timeout         time.Duration
	eventRepository EventRepository
}

type EventUseCaseProperty struct {
	Logger          *logrus.Logger
	Timeout         time.Duration
	EventRepository EventRepository
}

func NewEventUseCase(props EventUseCaseProperty) EventUseCase {
	return &eventUseCase{
		logger:          props.Logger,
		timeout:         props.Timeout,
		eventRepository: props.EventRepository,
	}
}

// GetManyEvent implements EventUseCase. Customers only browse events that
// passed moderation.
func (u *eventUseCase) GetManyEvent(ctx context.Context, req GetManyEventRequest) (GetManyEventResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	offset := (req.Page - 1) * req.Size

	items, err := u.eventRepository.FindManyByStatus(ctx, StatusApproved, offset, req.Size, nil)
	if err != nil {
		return GetManyEventResponse{}, err
	}

	total, err := u.eventRepository.CountByStatus(ctx, StatusApproved, nil)
	if err != nil {
		return GetManyEventResponse{}, err
	}

	resp := GetManyEventResponse{}
	resp.PopulateFromEntities(items, total)

	return resp, nil
}

// GetEvent implements EventUseCase.
func (u *eventUseCase) GetEvent(ctx context.Context, ID string) (EventResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	e, err := u.eventRepository.FindByID(ctx, ID, nil)
	if err != nil {
		return EventResponse{}, err
	}

	resp := EventResponse{}
	resp.PopulateFromEntity(e)

	return resp, nil
}
