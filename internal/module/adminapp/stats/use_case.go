package stats

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	eventStatusPending        = "PENDING"
	registrationStatusPending = "PENDING"
	organizerStatusPending    = "PENDING"
)

type StatsUseCase interface {
	CollectSnapshot(ctx context.Context) (Snapshot, error)
}

type statsUseCase struct {
	logger          *logrus.Logger
	timeout         time.Duration
	statsRepository StatsRepository
}

type StatsUseCaseProperty struct {
	Logger          *logrus.Logger
	Timeout         time.Duration
	StatsRepository StatsRepository
}

func NewStatsUseCase(props StatsUseCaseProperty) StatsUseCase {
	return &statsUseCase{
		logger:          props.Logger,
		timeout:         props.Timeout,
		statsRepository: props.StatsRepository,
	}
}

// CollectSnapshot implements StatsUseCase. Every figure comes from a fresh
// query; a failure on any of them fails the whole snapshot so a partially
// filled reading is never published.
func (u *statsUseCase) CollectSnapshot(ctx context.Context) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	now := time.Now()
	hourAgo := now.Add(-time.Hour)
	fiveMinAgo := now.Add(-5 * time.Minute)
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	snapshot := Snapshot{GeneratedAt: now}

	var err error

	if snapshot.RegistrationsLastHour, err = u.statsRepository.CountRegistrationsSince(ctx, hourAgo); err != nil {
		return Snapshot{}, err
	}
	if snapshot.RegistrationsLast5Min, err = u.statsRepository.CountRegistrationsSince(ctx, fiveMinAgo); err != nil {
		return Snapshot{}, err
	}
	if snapshot.EventsCreatedToday, err = u.statsRepository.CountEventsCreatedSince(ctx, startOfDay); err != nil {
		return Snapshot{}, err
	}
	if snapshot.CustomersActiveLastHour, err = u.statsRepository.CountActiveCustomersSince(ctx, hourAgo); err != nil {
		return Snapshot{}, err
	}
	if snapshot.CustomersActiveLast5Min, err = u.statsRepository.CountActiveCustomersSince(ctx, fiveMinAgo); err != nil {
		return Snapshot{}, err
	}
	if snapshot.CustomersActiveToday, err = u.statsRepository.CountActiveCustomersSince(ctx, startOfDay); err != nil {
		return Snapshot{}, err
	}
	if snapshot.PendingEvents, err = u.statsRepository.CountEventsByStatus(ctx, eventStatusPending); err != nil {
		return Snapshot{}, err
	}
	if snapshot.PendingRegistrations, err = u.statsRepository.CountRegistrationsByStatus(ctx, registrationStatusPending); err != nil {
		return Snapshot{}, err
	}
	if snapshot.PendingOrganizerApprovals, err = u.statsRepository.CountOrganizersByStatus(ctx, organizerStatusPending); err != nil {
		return Snapshot{}, err
	}

	return snapshot, nil
}
