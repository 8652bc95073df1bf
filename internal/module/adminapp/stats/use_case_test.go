package stats

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatsRepository struct {
	registrationsByWindow map[string]int64
	activeByWindow        map[string]int64
	eventsCreated         int64
	pendingEvents         int64
	pendingRegistrations  int64
	pendingOrganizers     int64
	err                   error
}

func windowKey(since time.Time) string {
	// start-of-day is the only window anchored to midnight
	if since.Hour() == 0 && since.Minute() == 0 && since.Second() == 0 && since.Nanosecond() == 0 {
		return "today"
	}
	if time.Since(since) < 30*time.Minute {
		return "5m"
	}
	return "1h"
}

func (r *fakeStatsRepository) CountRegistrationsSince(ctx context.Context, since time.Time) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	return r.registrationsByWindow[windowKey(since)], nil
}

func (r *fakeStatsRepository) CountEventsCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return r.eventsCreated, r.err
}

func (r *fakeStatsRepository) CountActiveCustomersSince(ctx context.Context, since time.Time) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	return r.activeByWindow[windowKey(since)], nil
}

func (r *fakeStatsRepository) CountEventsByStatus(ctx context.Context, eventStatus string) (int64, error) {
	return r.pendingEvents, r.err
}

func (r *fakeStatsRepository) CountRegistrationsByStatus(ctx context.Context, regStatus string) (int64, error) {
	return r.pendingRegistrations, r.err
}

func (r *fakeStatsRepository) CountOrganizersByStatus(ctx context.Context, organizerStatus string) (int64, error) {
	return r.pendingOrganizers, r.err
}

func newStatsUseCaseWithRepo(repo StatsRepository) StatsUseCase {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	return NewStatsUseCase(StatsUseCaseProperty{
		Logger:          logger,
		Timeout:         5 * time.Second,
		StatsRepository: repo,
	})
}

func TestCollectSnapshot(t *testing.T) {
	repo := &fakeStatsRepository{
		registrationsByWindow: map[string]int64{"5m": 3, "1h": 12, "today": 40},
		activeByWindow:        map[string]int64{"5m": 2, "1h": 9, "today": 30},
		eventsCreated:         4,
		pendingEvents:         6,
		pendingRegistrations:  15,
		pendingOrganizers:     2,
	}

	snapshot, err := newStatsUseCaseWithRepo(repo).CollectSnapshot(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(3), snapshot.RegistrationsLast5Min)
	assert.Equal(t, int64(12), snapshot.RegistrationsLastHour)
	assert.Equal(t, int64(2), snapshot.CustomersActiveLast5Min)
	assert.Equal(t, int64(9), snapshot.CustomersActiveLastHour)
	assert.Equal(t, int64(30), snapshot.CustomersActiveToday)
	assert.Equal(t, int64(4), snapshot.EventsCreatedToday)
	assert.Equal(t, int64(6), snapshot.PendingEvents)
	assert.Equal(t, int64(15), snapshot.PendingRegistrations)
	assert.Equal(t, int64(2), snapshot.PendingOrganizerApprovals)
	assert.False(t, snapshot.GeneratedAt.IsZero())
}

func TestCollectSnapshotFailsAsAWhole(t *testing.T) {
	repo := &fakeStatsRepository{err: fmt.Errorf("connection refused")}

	snapshot, err := newStatsUseCaseWithRepo(repo).CollectSnapshot(context.Background())

	require.Error(t, err)
	assert.Zero(t, snapshot, "a partial snapshot is never returned")
}
