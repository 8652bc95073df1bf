package registration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsel-ticketmaster/tm-registration/internal/module/customerapp/notification"
	"github.com/tsel-ticketmaster/tm-registration/internal/pkg/session"
	"github.com/tsel-ticketmaster/tm-registration/pkg/errors"
	"github.com/tsel-ticketmaster/tm-registration/pkg/realtime"
	"github.com/tsel-ticketmaster/tm-registration/pkg/status"
)

type fakeRegistrationRepository struct {
	registrations map[string]Registration
	approvedCount int64

	countCalls int
	updated    *Registration
	commits    int
	rollbacks  int
	findErr    error
	updateErr  error
}

func newFakeRegistrationRepository() *fakeRegistrationRepository {
	return &fakeRegistrationRepository{registrations: map[string]Registration{}}
}

func (r *fakeRegistrationRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return nil, nil
}

func (r *fakeRegistrationRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	r.commits++
	return nil
}

func (r *fakeRegistrationRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	r.rollbacks++
	return nil
}

func (r *fakeRegistrationRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Registration, error) {
	if r.findErr != nil {
		return Registration{}, r.findErr
	}
	reg, ok := r.registrations[ID]
	if !ok {
		return Registration{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("registration's properties with id '%s' is not found", ID))
	}
	return reg, nil
}

func (r *fakeRegistrationRepository) Update(ctx context.Context, ID string, reg Registration, tx *sql.Tx) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.registrations[ID] = reg
	r.updated = &reg
	return nil
}

func (r *fakeRegistrationRepository) CountApprovedByEventID(ctx context.Context, eventID string, tx *sql.Tx) (int64, error) {
	r.countCalls++
	return r.approvedCount, nil
}

func (r *fakeRegistrationRepository) FindManyByEventIDAndStatus(ctx context.Context, eventID string, regStatus string, offset, limit int64, tx *sql.Tx) ([]Registration, error) {
	items := make([]Registration, 0)
	for _, reg := range r.registrations {
		if reg.EventID == eventID && reg.Status == regStatus {
			items = append(items, reg)
		}
	}
	return items, nil
}

func (r *fakeRegistrationRepository) CountByEventIDAndStatus(ctx context.Context, eventID string, regStatus string, tx *sql.Tx) (int64, error) {
	items, _ := r.FindManyByEventIDAndStatus(ctx, eventID, regStatus, 0, 0, tx)
	return int64(len(items)), nil
}

type fakeEventRepository struct {
	events map[string]Event
}

func (r *fakeEventRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Event, error) {
	e, ok := r.events[ID]
	if !ok {
		return Event{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("event's properties with id '%s' is not found", ID))
	}
	return e, nil
}

func (r *fakeEventRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Event, error) {
	return r.FindByID(ctx, ID, tx)
}

type notifyCall struct {
	recipientID int64
	req         notification.NotifyRequest
}

type fakeNotificationUseCase struct {
	calls []notifyCall
	err   error
}

func (u *fakeNotificationUseCase) NotifyOne(ctx context.Context, recipientID int64, req notification.NotifyRequest) (notification.Notification, error) {
	u.calls = append(u.calls, notifyCall{recipientID: recipientID, req: req})
	if u.err != nil {
		return notification.Notification{}, u.err
	}
	return notification.Notification{RecipientID: recipientID}, nil
}

func (u *fakeNotificationUseCase) NotifyMany(ctx context.Context, recipientIDs []int64, req notification.NotifyRequest) ([]notification.Notification, error) {
	for _, recipientID := range recipientIDs {
		u.calls = append(u.calls, notifyCall{recipientID: recipientID, req: req})
	}
	return nil, u.err
}

func (u *fakeNotificationUseCase) NotifyEventParticipants(ctx context.Context, eventID string, req notification.NotifyRequest, excludeRecipientID *int64) error {
	return u.err
}

func (u *fakeNotificationUseCase) GetManyNotification(ctx context.Context, req notification.GetManyNotificationRequest) (notification.GetManyNotificationResponse, error) {
	return notification.GetManyNotificationResponse{}, nil
}

func (u *fakeNotificationUseCase) MarkRead(ctx context.Context, ID string) (notification.NotificationResponse, error) {
	return notification.NotificationResponse{}, nil
}

func (u *fakeNotificationUseCase) MarkAllRead(ctx context.Context) error {
	return nil
}

func (u *fakeNotificationUseCase) RemoveNotification(ctx context.Context, ID string) error {
	return nil
}

type fakeTicketCodec struct {
	signErr error
	claims  gojwt.MapClaims
}

func (c *fakeTicketCodec) Sign(claims gojwt.MapClaims) (string, error) {
	if c.signErr != nil {
		return "", c.signErr
	}
	c.claims = claims
	return "signed-ticket-token", nil
}

func (c *fakeTicketCodec) Parse(token string) (gojwt.MapClaims, error) {
	if token != "signed-ticket-token" {
		return nil, fmt.Errorf("token is malformed")
	}
	return c.claims, nil
}

type publishedMessage struct {
	topic string
	key   string
}

type fakePublisher struct {
	published []publishedMessage
}

func (p *fakePublisher) Publish(ctx context.Context, topic string, key string, headers map[string]string, message []byte) {
	p.published = append(p.published, publishedMessage{topic: topic, key: key})
}

func (p *fakePublisher) Close() {}

type fakeHub struct {
	delivered   []realtime.Message
	broadcasted []realtime.Message
}

func (h *fakeHub) Register(conn realtime.Connection) {}

func (h *fakeHub) Join(connectionID string, channel string) {}

func (h *fakeHub) Leave(connectionID string, channel string) {}

func (h *fakeHub) OnDisconnect(connectionID string) {}

func (h *fakeHub) Deliver(channel string, m realtime.Message) {
	h.delivered = append(h.delivered, m)
}

func (h *fakeHub) Broadcast(m realtime.Message) {
	h.broadcasted = append(h.broadcasted, m)
}

type useCaseFixture struct {
	registrationRepo *fakeRegistrationRepository
	eventRepo        *fakeEventRepository
	notifier         *fakeNotificationUseCase
	codec            *fakeTicketCodec
	publisher        *fakePublisher
	hub              *fakeHub
	useCase          RegistrationUseCase
}

func newUseCaseFixture() *useCaseFixture {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	f := &useCaseFixture{
		registrationRepo: newFakeRegistrationRepository(),
		eventRepo:        &fakeEventRepository{events: map[string]Event{}},
		notifier:         &fakeNotificationUseCase{},
		codec:            &fakeTicketCodec{},
		publisher:        &fakePublisher{},
		hub:              &fakeHub{},
	}

	f.useCase = NewRegistrationUseCase(RegistrationUseCaseProperty{
		Logger:                 logger,
		Timeout:                5 * time.Second,
		RegistrationRepository: f.registrationRepo,
		EventRepository:        f.eventRepo,
		NotificationUseCase:    f.notifier,
		TicketCodec:            f.codec,
		Publisher:              f.publisher,
		Hub:                    f.hub,
	})

	return f
}

func adminContext() context.Context {
	return session.ContextWithAccount(context.Background(), session.Account{
		ID:    99,
		Name:  "Admin",
		Email: "admin@example.com",
		Role:  session.RoleAdmin,
	})
}

func pendingRegistration(id, eventID string) Registration {
	now := time.Now()
	return Registration{
		ID:            id,
		EventID:       eventID,
		CustomerID:    11,
		CustomerName:  "Jordan",
		CustomerEmail: "jordan@example.com",
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestApproveRegistration(t *testing.T) {
	f := newUseCaseFixture()
	f.registrationRepo.registrations["reg-1"] = pendingRegistration("reg-1", "event-1")
	f.registrationRepo.approvedCount = 4
	f.eventRepo.events["event-1"] = Event{ID: "event-1", Title: "Go Meetup", Status: EventStatusApproved, Capacity: 5, OrganizerID: 21}

	resp, err := f.useCase.ApproveRegistration(adminContext(), "reg-1")

	require.NoError(t, err)
	assert.Equal(t, StatusApproved, resp.Status)
	require.NotNil(t, resp.TicketToken)
	assert.Equal(t, "signed-ticket-token", *resp.TicketToken)
	require.NotNil(t, resp.ApprovedBy)
	assert.Equal(t, int64(99), *resp.ApprovedBy)
	assert.NotNil(t, resp.ApprovedAt)

	assert.Equal(t, 1, f.registrationRepo.commits)
	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, "registration-approved", f.publisher.published[0].topic)

	// participant and organizer both get a message
	require.Len(t, f.notifier.calls, 2)
	assert.Equal(t, int64(11), f.notifier.calls[0].recipientID)
	assert.Equal(t, notification.CategorySuccess, f.notifier.calls[0].req.Category)
	assert.Equal(t, int64(21), f.notifier.calls[1].recipientID)
}

func TestApproveRegistrationAtFullCapacityStaysPending(t *testing.T) {
	f := newUseCaseFixture()
	f.registrationRepo.registrations["reg-1"] = pendingRegistration("reg-1", "event-1")
	f.registrationRepo.approvedCount = 5
	f.eventRepo.events["event-1"] = Event{ID: "event-1", Title: "Go Meetup", Status: EventStatusApproved, Capacity: 5, OrganizerID: 21}

	_, err := f.useCase.ApproveRegistration(adminContext(), "reg-1")

	require.Error(t, err)
	ae := errors.Destruct(err)
	assert.Equal(t, http.StatusConflict, ae.HTTPStatusCode)
	assert.Equal(t, status.CAPACITY_EXCEEDED, ae.Status)

	assert.Equal(t, StatusPending, f.registrationRepo.registrations["reg-1"].Status)
	assert.Nil(t, f.registrationRepo.updated)
	assert.Equal(t, 1, f.registrationRepo.rollbacks)
	assert.Zero(t, f.registrationRepo.commits)
	assert.Empty(t, f.publisher.published)
	assert.Empty(t, f.notifier.calls)
}

func TestApproveRegistrationUnlimitedCapacitySkipsCount(t *testing.T) {
	f := newUseCaseFixture()
	f.registrationRepo.registrations["reg-1"] = pendingRegistration("reg-1", "event-1")
	f.registrationRepo.approvedCount = 100000
	f.eventRepo.events["event-1"] = Event{ID: "event-1", Title: "Open Conference", Status: EventStatusApproved, Capacity: 0, OrganizerID: 21}

	resp, err := f.useCase.ApproveRegistration(adminContext(), "reg-1")

	require.NoError(t, err)
	assert.Equal(t, StatusApproved, resp.Status)
	assert.Zero(t, f.registrationRepo.countCalls, "capacity zero means unlimited")
}

func TestApproveRegistrationFromNonPendingState(t *testing.T) {
	for _, current := range []string{StatusApproved, StatusDenied, StatusAttended, StatusCancelled} {
		t.Run(current, func(t *testing.T) {
			f := newUseCaseFixture()
			reg := pendingRegistration("reg-1", "event-1")
			reg.Status = current
			f.registrationRepo.registrations["reg-1"] = reg
			f.eventRepo.events["event-1"] = Event{ID: "event-1", Status: EventStatusApproved, Capacity: 0, OrganizerID: 21}

			_, err := f.useCase.ApproveRegistration(adminContext(), "reg-1")

			require.Error(t, err)
			ae := errors.Destruct(err)
			assert.Equal(t, http.StatusConflict, ae.HTTPStatusCode)
			assert.Equal(t, status.INVALID_STATE, ae.Status)
			assert.Contains(t, ae.Message, current, "error must name the current state")
		})
	}
}

func TestApproveRegistrationSurvivesNotificationFailure(t *testing.T) {
	f := newUseCaseFixture()
	f.registrationRepo.registrations["reg-1"] = pendingRegistration("reg-1", "event-1")
	f.eventRepo.events["event-1"] = Event{ID: "event-1", Title: "Go Meetup", Status: EventStatusApproved, Capacity: 0, OrganizerID: 21}
	f.notifier.err = fmt.Errorf("notification store is down")

	resp, err := f.useCase.ApproveRegistration(adminContext(), "reg-1")

	require.NoError(t, err, "approval must not fail on notification delivery")
	assert.Equal(t, StatusApproved, resp.Status)
	assert.Equal(t, 1, f.registrationRepo.commits)
}

func TestApproveRegistrationRequiresSession(t *testing.T) {
	f := newUseCaseFixture()

	_, err := f.useCase.ApproveRegistration(context.Background(), "reg-1")

	require.Error(t, err)
	ae := errors.Destruct(err)
	assert.Equal(t, http.StatusUnauthorized, ae.HTTPStatusCode)
}

// contendedState emulates row-level locking the way the database does it: the
// event row lock is taken in FindByIDForUpdate and held until the transaction
// commits or rolls back, which serializes the count-then-update window.
type contendedState struct {
	rowLock sync.Mutex
	mu      sync.Mutex
	held    bool

	registrations map[string]Registration
}

func (s *contendedState) acquireRowLock() {
	s.rowLock.Lock()
	s.mu.Lock()
	s.held = true
	s.mu.Unlock()
}

func (s *contendedState) releaseRowLock() {
	s.mu.Lock()
	if !s.held {
		s.mu.Unlock()
		return
	}
	s.held = false
	s.mu.Unlock()
	s.rowLock.Unlock()
}

type lockingRegistrationRepository struct {
	state *contendedState
}

func (r *lockingRegistrationRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return nil, nil
}

func (r *lockingRegistrationRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	r.state.releaseRowLock()
	return nil
}

func (r *lockingRegistrationRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	r.state.releaseRowLock()
	return nil
}

func (r *lockingRegistrationRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Registration, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	reg, ok := r.state.registrations[ID]
	if !ok {
		return Registration{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("registration's properties with id '%s' is not found", ID))
	}
	return reg, nil
}

func (r *lockingRegistrationRepository) Update(ctx context.Context, ID string, reg Registration, tx *sql.Tx) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	r.state.registrations[ID] = reg
	return nil
}

func (r *lockingRegistrationRepository) CountApprovedByEventID(ctx context.Context, eventID string, tx *sql.Tx) (int64, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	var total int64
	for _, reg := range r.state.registrations {
		if reg.EventID == eventID && reg.Status == StatusApproved {
			total++
		}
	}
	return total, nil
}

func (r *lockingRegistrationRepository) FindManyByEventIDAndStatus(ctx context.Context, eventID string, regStatus string, offset, limit int64, tx *sql.Tx) ([]Registration, error) {
	return nil, nil
}

func (r *lockingRegistrationRepository) CountByEventIDAndStatus(ctx context.Context, eventID string, regStatus string, tx *sql.Tx) (int64, error) {
	return 0, nil
}

type lockingEventRepository struct {
	state *contendedState
	event Event
}

func (r *lockingEventRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Event, error) {
	return r.event, nil
}

func (r *lockingEventRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Event, error) {
	r.state.acquireRowLock()
	return r.event, nil
}

func TestApproveRegistrationConcurrentlyForTheLastSeat(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	state := &contendedState{registrations: map[string]Registration{}}
	regIDs := []string{"reg-1", "reg-2", "reg-3", "reg-4"}
	for _, id := range regIDs {
		state.registrations[id] = pendingRegistration(id, "event-1")
	}

	useCase := NewRegistrationUseCase(RegistrationUseCaseProperty{
		Logger:                 logger,
		Timeout:                5 * time.Second,
		RegistrationRepository: &lockingRegistrationRepository{state: state},
		EventRepository: &lockingEventRepository{
			state: state,
			event: Event{ID: "event-1", Title: "Go Meetup", Status: EventStatusApproved, Capacity: 1, OrganizerID: 21},
		},
		NotificationUseCase: &fakeNotificationUseCase{},
		TicketCodec:         &fakeTicketCodec{},
		Publisher:           &fakePublisher{},
		Hub:                 &fakeHub{},
	})

	errs := make(chan error, len(regIDs))
	var wg sync.WaitGroup
	for _, id := range regIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := useCase.ApproveRegistration(adminContext(), id)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	var approvals, capacityRejections int
	for err := range errs {
		if err == nil {
			approvals++
			continue
		}
		ae := errors.Destruct(err)
		require.Equal(t, status.CAPACITY_EXCEEDED, ae.Status)
		capacityRejections++
	}

	assert.Equal(t, 1, approvals, "only one approval can win the last seat")
	assert.Equal(t, len(regIDs)-1, capacityRejections)

	var approved, pending int
	for _, reg := range state.registrations {
		switch reg.Status {
		case StatusApproved:
			approved++
		case StatusPending:
			pending++
		}
	}
	assert.Equal(t, 1, approved)
	assert.Equal(t, len(regIDs)-1, pending, "losers stay pending for a later seat")
}

func TestDenyRegistration(t *testing.T) {
	f := newUseCaseFixture()
	f.registrationRepo.registrations["reg-1"] = pendingRegistration("reg-1", "event-1")
	f.eventRepo.events["event-1"] = Event{ID: "event-1", Title: "Go Meetup", Status: EventStatusApproved, OrganizerID: 21}

	resp, err := f.useCase.DenyRegistration(adminContext(), "reg-1", DenyRegistrationRequest{Reason: "event is invite only"})

	require.NoError(t, err)
	assert.Equal(t, StatusDenied, resp.Status)
	require.NotNil(t, resp.DenialReason)
	assert.Equal(t, "event is invite only", *resp.DenialReason)
	assert.NotNil(t, resp.DeniedAt)

	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, "registration-denied", f.publisher.published[0].topic)

	require.NotEmpty(t, f.notifier.calls)
	assert.Equal(t, int64(11), f.notifier.calls[0].recipientID)
	assert.Contains(t, f.notifier.calls[0].req.Body, "event is invite only")
}

func TestDenyRegistrationFromNonPendingState(t *testing.T) {
	f := newUseCaseFixture()
	reg := pendingRegistration("reg-1", "event-1")
	reg.Status = StatusDenied
	f.registrationRepo.registrations["reg-1"] = reg

	_, err := f.useCase.DenyRegistration(adminContext(), "reg-1", DenyRegistrationRequest{})

	require.Error(t, err)
	ae := errors.Destruct(err)
	assert.Equal(t, status.INVALID_STATE, ae.Status)
	assert.Contains(t, ae.Message, StatusDenied)
}

func TestCheckInRegistration(t *testing.T) {
	f := newUseCaseFixture()

	reg := pendingRegistration("reg-1", "event-1")
	f.registrationRepo.registrations["reg-1"] = reg
	f.eventRepo.events["event-1"] = Event{ID: "event-1", Title: "Go Meetup", Status: EventStatusApproved, Capacity: 0, OrganizerID: 21}

	approved, err := f.useCase.ApproveRegistration(adminContext(), "reg-1")
	require.NoError(t, err)

	resp, err := f.useCase.CheckInRegistration(adminContext(), CheckInRegistrationRequest{TicketToken: *approved.TicketToken})

	require.NoError(t, err)
	assert.Equal(t, StatusAttended, resp.Status)
	assert.NotNil(t, resp.AttendedAt)
	assert.Equal(t, "registration-attended", f.publisher.published[len(f.publisher.published)-1].topic)
}

func TestCheckInRegistrationWithInvalidToken(t *testing.T) {
	f := newUseCaseFixture()

	_, err := f.useCase.CheckInRegistration(adminContext(), CheckInRegistrationRequest{TicketToken: "garbage"})

	require.Error(t, err)
	ae := errors.Destruct(err)
	assert.Equal(t, http.StatusUnprocessableEntity, ae.HTTPStatusCode)
	assert.Equal(t, status.UNPROCESSABLE_ENTITY, ae.Status)
}

func TestCheckInRegistrationTwice(t *testing.T) {
	f := newUseCaseFixture()

	f.registrationRepo.registrations["reg-1"] = pendingRegistration("reg-1", "event-1")
	f.eventRepo.events["event-1"] = Event{ID: "event-1", Title: "Go Meetup", Status: EventStatusApproved, Capacity: 0, OrganizerID: 21}

	approved, err := f.useCase.ApproveRegistration(adminContext(), "reg-1")
	require.NoError(t, err)

	req := CheckInRegistrationRequest{TicketToken: *approved.TicketToken}

	_, err = f.useCase.CheckInRegistration(adminContext(), req)
	require.NoError(t, err)

	_, err = f.useCase.CheckInRegistration(adminContext(), req)
	require.Error(t, err, "a redeemed ticket cannot be redeemed again")
	ae := errors.Destruct(err)
	assert.Equal(t, status.INVALID_STATE, ae.Status)
	assert.Contains(t, ae.Message, StatusAttended)
}

func TestBroadcastAnnouncement(t *testing.T) {
	f := newUseCaseFixture()

	err := f.useCase.BroadcastAnnouncement(adminContext(), BroadcastAnnouncementRequest{
		Title: "Venue change",
		Body:  "The meetup moved to hall B.",
	})

	require.NoError(t, err)
	require.Len(t, f.hub.broadcasted, 1)
	assert.Equal(t, "announcement", f.hub.broadcasted[0].Event)
}
