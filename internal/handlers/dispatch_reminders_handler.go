package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	dispatchmodels "github.com/azro1/flare-care-sub001/internal/models/dispatch"
	notifmodels "github.com/azro1/flare-care-sub001/internal/models/notifications"
	"github.com/azro1/flare-care-sub001/internal/push"
	"github.com/azro1/flare-care-sub001/internal/reminders"
	"github.com/azro1/flare-care-sub001/internal/store"
)

// DispatchHandler is the server-side reminder dispatcher: invoked by an
// external minute scheduler, it matches medications due at the current
// minute against stored push subscriptions and fans out push messages,
// pruning subscriptions the transport reports as permanently gone.
type DispatchHandler struct {
	store       store.ReminderStore
	sender      push.Sender
	redisClient *redis.Client
	logger      *zap.SugaredLogger
	secret      string
	now         func() time.Time
}

func NewDispatchHandler(reminderStore store.ReminderStore, sender push.Sender, redisClient *redis.Client, logger *zap.SugaredLogger, secret string) *DispatchHandler {
	return &DispatchHandler{
		store:       reminderStore,
		sender:      sender,
		redisClient: redisClient,
		logger:      logger,
		secret:      secret,
		now:         time.Now,
	}
}

// DispatchReminders handles POST /reminders/dispatch. The caller must present
// the shared cron secret as a bearer token.
func (h *DispatchHandler) DispatchReminders(c *gin.Context) {
	if h.secret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server is not configured for reminder dispatch"})
		return
	}
	if c.GetHeader("Authorization") != "Bearer "+h.secret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if h.sender == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Push delivery is not configured"})
		return
	}

	result := h.Run(c.Request.Context())
	c.JSON(http.StatusOK, result)
}

// Run executes one dispatch batch. Store read failures degrade to a zero-sent
// result rather than erroring: a missed background reminder batch is
// preferable to surfacing store errors to the trigger.
func (h *DispatchHandler) Run(ctx context.Context) dispatchmodels.DispatchResponse {
	now := h.now()
	hhmm := now.Format("15:04")

	meds, err := h.store.DueMedications(ctx, hhmm)
	if err != nil {
		h.logger.Errorw("failed to query due medications", "time", hhmm, "error", err)
		return dispatchmodels.DispatchResponse{Sent: 0, Message: "No medications due"}
	}
	if len(meds) == 0 {
		return dispatchmodels.DispatchResponse{Sent: 0, Message: "No medications due"}
	}

	// Distinct owners, input order preserved
	var userUIDs []string
	seen := make(map[string]bool)
	names := make([]string, 0, len(meds))
	for _, med := range meds {
		names = append(names, med.Name)
		if !seen[med.UserUID] {
			seen[med.UserUID] = true
			userUIDs = append(userUIDs, med.UserUID)
		}
	}

	subs, err := h.store.SubscriptionsForUsers(ctx, userUIDs)
	if err != nil {
		h.logger.Errorw("failed to query push subscriptions", "users", len(userUIDs), "error", err)
		return dispatchmodels.DispatchResponse{Sent: 0, Message: "No push subscriptions"}
	}
	if len(subs) == 0 {
		return dispatchmodels.DispatchResponse{Sent: 0, Message: "No push subscriptions"}
	}

	// One payload shared by every recipient in this batch; the query already
	// scopes the batch to a single HH:MM
	payload, err := json.Marshal(notifmodels.ReminderPayload{
		Title: reminders.ReminderTitle,
		Body:  reminders.ReminderBody(names),
		Tag:   reminders.ReminderTag,
	})
	if err != nil {
		h.logger.Errorw("failed to encode reminder payload", "error", err)
		return dispatchmodels.DispatchResponse{Sent: 0, Message: "No push subscriptions"}
	}

	sent := 0
	for _, sub := range subs {
		err := h.sender.Send(ctx, sub, payload)
		if errors.Is(err, push.ErrSubscriptionGone) {
			if derr := h.store.DeleteSubscriptionByEndpoint(ctx, sub.Endpoint); derr != nil {
				h.logger.Errorw("failed to delete gone subscription", "endpoint", sub.Endpoint, "error", derr)
			} else {
				h.logger.Infow("deleted gone subscription", "endpoint", sub.Endpoint)
			}
			continue
		}
		if err != nil {
			// Transient failure: skip, no retry queue; the next trigger
			// re-attempts only if the medication is still due then
			h.logger.Warnw("push send failed", "endpoint", sub.Endpoint, "error", err)
			continue
		}
		sent++
		h.markSent(ctx, sub.UserUID, now)
	}

	h.logger.Infow("reminder dispatch completed", "time", hhmm, "sent", sent, "total", len(subs))
	return dispatchmodels.DispatchResponse{Sent: sent, Total: len(subs)}
}

// markSent records a per-user, per-day delivery marker in Redis, backing the
// reminder stats endpoint. Best effort only.
func (h *DispatchHandler) markSent(ctx context.Context, userUID string, now time.Time) {
	if h.redisClient == nil {
		return
	}
	key := fmt.Sprintf("reminder_sent:%s:%s", userUID, now.Format("2006-01-02"))
	if err := h.redisClient.Set(ctx, key, 1, 48*time.Hour).Err(); err != nil {
		h.logger.Warnw("failed to record reminder sent marker", "key", key, "error", err)
	}
}
