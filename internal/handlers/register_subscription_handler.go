package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	notifmodels "github.com/azro1/flare-care-sub001/internal/models/notifications"
	registermodels "github.com/azro1/flare-care-sub001/internal/models/register_subscription"
	"github.com/azro1/flare-care-sub001/internal/store"
)

type NotificationsHandler struct {
	store          store.ReminderStore
	redisClient    *redis.Client
	logger         *zap.SugaredLogger
	vapidPublicKey string
}

func NewNotificationsHandler(reminderStore store.ReminderStore, redisClient *redis.Client, logger *zap.SugaredLogger, vapidPublicKey string) *NotificationsHandler {
	return &NotificationsHandler{
		store:          reminderStore,
		redisClient:    redisClient,
		logger:         logger,
		vapidPublicKey: vapidPublicKey,
	}
}

// RegisterSubscription handles registering a Web Push subscription for the
// signed-in user. The write is an upsert keyed on the endpoint, so
// re-registering a device overwrites its prior keys.
func (h *NotificationsHandler) RegisterSubscription(c *gin.Context) {
	var req registermodels.RegisterSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	uid, exists := c.Get("uid")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userUID, ok := uid.(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user context"})
		return
	}

	if req.Endpoint == "" || req.P256dhKey == "" || req.AuthKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint, p256dh_key and auth_key are required"})
		return
	}

	sub := notifmodels.PushSubscription{
		ID:        uuid.New().String(),
		UserUID:   userUID,
		Endpoint:  req.Endpoint,
		P256dhKey: req.P256dhKey,
		AuthKey:   req.AuthKey,
	}
	if req.UserAgent != "" {
		sub.UserAgent = &req.UserAgent
	}

	if err := h.store.UpsertSubscription(c.Request.Context(), sub); err != nil {
		h.logError(c, err, "failed to save push subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save subscription"})
		return
	}

	c.JSON(http.StatusOK, registermodels.RegisterSubscriptionResponse{Success: true})
}

// GetVAPIDPublicKey returns the public key clients need to create a push
// subscription. Public, no auth.
func (h *NotificationsHandler) GetVAPIDPublicKey(c *gin.Context) {
	if h.vapidPublicKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Push delivery is not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicKey": h.vapidPublicKey})
}

// GetReminderStats reports which of the last seven days had a reminder push
// delivered to this user, from the dispatcher's Redis markers.
func (h *NotificationsHandler) GetReminderStats(c *gin.Context) {
	uid, exists := c.Get("uid")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userUID := fmt.Sprintf("%v", uid)

	ctx := context.Background()
	weekAgo := time.Now().AddDate(0, 0, -6)
	remindersThisWeek := 0
	for i := 0; i < 7; i++ {
		date := weekAgo.AddDate(0, 0, i)
		key := fmt.Sprintf("reminder_sent:%s:%s", userUID, date.Format("2006-01-02"))
		if h.redisClient.Exists(ctx, key).Val() > 0 {
			remindersThisWeek++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"reminders_this_week": remindersThisWeek,
	})
}
