package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	medmodels "github.com/azro1/flare-care-sub001/internal/models/medication"
	notifmodels "github.com/azro1/flare-care-sub001/internal/models/notifications"
	"github.com/azro1/flare-care-sub001/internal/push"
)

type mockStore struct {
	dueMedicationsFn        func(ctx context.Context, hhmm string) ([]medmodels.Medication, error)
	medicationsForUserFn    func(ctx context.Context, userUID string) ([]medmodels.Medication, error)
	subscriptionsForUsersFn func(ctx context.Context, userUIDs []string) ([]notifmodels.PushSubscription, error)
	upsertSubscriptionFn    func(ctx context.Context, sub notifmodels.PushSubscription) error

	subscriptionQueries [][]string
	deletedEndpoints    []string
	upserted            []notifmodels.PushSubscription
}

func (m *mockStore) DueMedications(ctx context.Context, hhmm string) ([]medmodels.Medication, error) {
	if m.dueMedicationsFn != nil {
		return m.dueMedicationsFn(ctx, hhmm)
	}
	return nil, nil
}

func (m *mockStore) MedicationsForUser(ctx context.Context, userUID string) ([]medmodels.Medication, error) {
	if m.medicationsForUserFn != nil {
		return m.medicationsForUserFn(ctx, userUID)
	}
	return nil, nil
}

func (m *mockStore) SubscriptionsForUsers(ctx context.Context, userUIDs []string) ([]notifmodels.PushSubscription, error) {
	m.subscriptionQueries = append(m.subscriptionQueries, userUIDs)
	if m.subscriptionsForUsersFn != nil {
		return m.subscriptionsForUsersFn(ctx, userUIDs)
	}
	return nil, nil
}

func (m *mockStore) UpsertSubscription(ctx context.Context, sub notifmodels.PushSubscription) error {
	m.upserted = append(m.upserted, sub)
	if m.upsertSubscriptionFn != nil {
		return m.upsertSubscriptionFn(ctx, sub)
	}
	return nil
}

func (m *mockStore) DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error {
	m.deletedEndpoints = append(m.deletedEndpoints, endpoint)
	return nil
}

type sentPush struct {
	sub     notifmodels.PushSubscription
	payload []byte
}

type mockSender struct {
	sendFn func(ctx context.Context, sub notifmodels.PushSubscription, payload []byte) error
	sends  []sentPush
}

func (m *mockSender) Send(ctx context.Context, sub notifmodels.PushSubscription, payload []byte) error {
	m.sends = append(m.sends, sentPush{sub: sub, payload: payload})
	if m.sendFn != nil {
		return m.sendFn(ctx, sub, payload)
	}
	return nil
}

func dueMedication(id, name, owner, hhmm string) medmodels.Medication {
	return medmodels.Medication{
		ID:               id,
		UserUID:          owner,
		Name:             name,
		TimeOfDay:        hhmm,
		RemindersEnabled: true,
	}
}

func subscription(owner, endpoint string) notifmodels.PushSubscription {
	return notifmodels.PushSubscription{
		ID:        "sub-" + endpoint,
		UserUID:   owner,
		Endpoint:  endpoint,
		P256dhKey: "p256dh",
		AuthKey:   "auth",
	}
}

func newTestDispatchHandler(st *mockStore, sender push.Sender, secret string) *DispatchHandler {
	h := NewDispatchHandler(st, sender, nil, zap.NewNop().Sugar(), secret)
	h.now = func() time.Time {
		return time.Date(2026, time.March, 14, 8, 0, 12, 0, time.UTC)
	}
	return h
}

func performDispatch(h *DispatchHandler, authHeader string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/reminders/dispatch", nil)
	if authHeader != "" {
		c.Request.Header.Set("Authorization", authHeader)
	}
	h.DispatchReminders(c)
	return w
}

func TestDispatchRemindersRejectsBadSecret(t *testing.T) {
	h := newTestDispatchHandler(&mockStore{}, &mockSender{}, "s3cret")

	assert.Equal(t, http.StatusUnauthorized, performDispatch(h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, performDispatch(h, "Bearer wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, performDispatch(h, "s3cret").Code)
}

func TestDispatchRemindersMissingSecretIsMisconfiguration(t *testing.T) {
	h := newTestDispatchHandler(&mockStore{}, &mockSender{}, "")

	assert.Equal(t, http.StatusInternalServerError, performDispatch(h, "Bearer ").Code)
}

func TestDispatchRemindersMissingSenderIsMisconfiguration(t *testing.T) {
	h := newTestDispatchHandler(&mockStore{}, nil, "s3cret")

	assert.Equal(t, http.StatusInternalServerError, performDispatch(h, "Bearer s3cret").Code)
}

func TestDispatchRemindersAcceptsSecret(t *testing.T) {
	h := newTestDispatchHandler(&mockStore{}, &mockSender{}, "s3cret")

	w := performDispatch(h, "Bearer s3cret")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(0), resp["sent"])
}

func TestDispatchRunZeroDueMedications(t *testing.T) {
	sender := &mockSender{}
	h := newTestDispatchHandler(&mockStore{}, sender, "s3cret")

	result := h.Run(context.Background())
	assert.Equal(t, 0, result.Sent)
	assert.Empty(t, sender.sends)
}

func TestDispatchRunZeroSubscriptions(t *testing.T) {
	st := &mockStore{
		dueMedicationsFn: func(ctx context.Context, hhmm string) ([]medmodels.Medication, error) {
			return []medmodels.Medication{dueMedication("m1", "A", "U", hhmm)}, nil
		},
	}
	sender := &mockSender{}
	h := newTestDispatchHandler(st, sender, "s3cret")

	result := h.Run(context.Background())
	assert.Equal(t, 0, result.Sent)
	assert.Empty(t, sender.sends)
}

func TestDispatchRunQueriesAtCurrentMinute(t *testing.T) {
	var queried string
	st := &mockStore{
		dueMedicationsFn: func(ctx context.Context, hhmm string) ([]medmodels.Medication, error) {
			queried = hhmm
			return nil, nil
		},
	}
	h := newTestDispatchHandler(st, &mockSender{}, "s3cret")

	h.Run(context.Background())
	assert.Equal(t, "08:00", queried)
}

func TestDispatchRunJoinsNamesIntoOneSend(t *testing.T) {
	st := &mockStore{
		dueMedicationsFn: func(ctx context.Context, hhmm string) ([]medmodels.Medication, error) {
			return []medmodels.Medication{
				dueMedication("m1", "A", "U", hhmm),
				dueMedication("m2", "B", "U", hhmm),
			}, nil
		},
		subscriptionsForUsersFn: func(ctx context.Context, userUIDs []string) ([]notifmodels.PushSubscription, error) {
			return []notifmodels.PushSubscription{subscription("U", "https://push.example/e1")}, nil
		},
	}
	sender := &mockSender{}
	h := newTestDispatchHandler(st, sender, "s3cret")

	result := h.Run(context.Background())
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Total)

	// Both medications share one owner: exactly one send, names joined
	require.Len(t, sender.sends, 1)
	require.Len(t, st.subscriptionQueries, 1)
	assert.Equal(t, []string{"U"}, st.subscriptionQueries[0])

	var payload notifmodels.ReminderPayload
	require.NoError(t, json.Unmarshal(sender.sends[0].payload, &payload))
	assert.Equal(t, "Medication Reminder", payload.Title)
	assert.Equal(t, "Time to take: A, B", payload.Body)
	assert.Equal(t, "medication-reminder", payload.Tag)
}

func TestDispatchRunGoneSubscriptionDeleted(t *testing.T) {
	st := &mockStore{
		dueMedicationsFn: func(ctx context.Context, hhmm string) ([]medmodels.Medication, error) {
			return []medmodels.Medication{dueMedication("m1", "A", "U", hhmm)}, nil
		},
		subscriptionsForUsersFn: func(ctx context.Context, userUIDs []string) ([]notifmodels.PushSubscription, error) {
			return []notifmodels.PushSubscription{subscription("U", "https://push.example/dead")}, nil
		},
	}
	sender := &mockSender{
		sendFn: func(ctx context.Context, sub notifmodels.PushSubscription, payload []byte) error {
			return push.ErrSubscriptionGone
		},
	}
	h := newTestDispatchHandler(st, sender, "s3cret")

	result := h.Run(context.Background())
	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, []string{"https://push.example/dead"}, st.deletedEndpoints)
}

func TestDispatchRunTransientFailureSkipsWithoutDelete(t *testing.T) {
	st := &mockStore{
		dueMedicationsFn: func(ctx context.Context, hhmm string) ([]medmodels.Medication, error) {
			return []medmodels.Medication{dueMedication("m1", "A", "U", hhmm)}, nil
		},
		subscriptionsForUsersFn: func(ctx context.Context, userUIDs []string) ([]notifmodels.PushSubscription, error) {
			return []notifmodels.PushSubscription{subscription("U", "https://push.example/e1")}, nil
		},
	}
	sender := &mockSender{
		sendFn: func(ctx context.Context, sub notifmodels.PushSubscription, payload []byte) error {
			return errors.New("push service unavailable")
		},
	}
	h := newTestDispatchHandler(st, sender, "s3cret")

	result := h.Run(context.Background())
	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 1, result.Total)
	assert.Empty(t, st.deletedEndpoints)
}

func TestDispatchRunCountsAcrossMixedResults(t *testing.T) {
	st := &mockStore{
		dueMedicationsFn: func(ctx context.Context, hhmm string) ([]medmodels.Medication, error) {
			return []medmodels.Medication{
				dueMedication("m1", "A", "U1", hhmm),
				dueMedication("m2", "B", "U2", hhmm),
				dueMedication("m3", "C", "U1", hhmm),
			}, nil
		},
		subscriptionsForUsersFn: func(ctx context.Context, userUIDs []string) ([]notifmodels.PushSubscription, error) {
			return []notifmodels.PushSubscription{
				subscription("U1", "https://push.example/e1"),
				subscription("U2", "https://push.example/e2"),
				subscription("U2", "https://push.example/e3"),
			}, nil
		},
	}
	sender := &mockSender{
		sendFn: func(ctx context.Context, sub notifmodels.PushSubscription, payload []byte) error {
			if sub.Endpoint == "https://push.example/e2" {
				return errors.New("timeout")
			}
			return nil
		},
	}
	h := newTestDispatchHandler(st, sender, "s3cret")

	result := h.Run(context.Background())
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 3, result.Total)

	// Owners deduplicated, input order preserved
	require.Len(t, st.subscriptionQueries, 1)
	assert.Equal(t, []string{"U1", "U2"}, st.subscriptionQueries[0])
}

func TestDispatchRunStoreFailureMeansNoDueWork(t *testing.T) {
	st := &mockStore{
		dueMedicationsFn: func(ctx context.Context, hhmm string) ([]medmodels.Medication, error) {
			return nil, errors.New("connection refused")
		},
	}
	sender := &mockSender{}
	h := newTestDispatchHandler(st, sender, "s3cret")

	result := h.Run(context.Background())
	assert.Equal(t, 0, result.Sent)
	assert.Empty(t, sender.sends)
}
