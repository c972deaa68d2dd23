package push

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	webpush "github.com/SherClockHolmes/webpush-go"

	notifmodels "github.com/azro1/flare-care-sub001/internal/models/notifications"
)

// ErrSubscriptionGone reports that the push service considers the endpoint
// permanently invalid (404/410). Callers delete the subscription so future
// batches stop attempting it.
var ErrSubscriptionGone = errors.New("push subscription gone")

// Reminders are useless once their minute has passed, so the TTL is short.
const reminderTTL = 60

// Config holds the VAPID credentials required by the Web Push protocol.
type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
}

// ConfigFromEnv loads VAPID credentials from the environment. Both keys are
// required; the subscriber contact defaults when unset.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		Subscriber:      os.Getenv("VAPID_SUBSCRIBER"),
	}
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		return Config{}, errors.New("VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY must be set")
	}
	if cfg.Subscriber == "" {
		cfg.Subscriber = "admin@flare-care.app"
	}
	return cfg, nil
}

// Sender delivers one payload to one push subscription.
type Sender interface {
	Send(ctx context.Context, sub notifmodels.PushSubscription, payload []byte) error
}

// WebPushSender implements Sender over the Web Push protocol with VAPID
// authentication.
type WebPushSender struct {
	cfg Config
}

func NewWebPushSender(cfg Config) *WebPushSender {
	return &WebPushSender{cfg: cfg}
}

func (s *WebPushSender) Send(ctx context.Context, sub notifmodels.PushSubscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		Subscriber:      s.cfg.Subscriber,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		TTL:             reminderTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to send push message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return ErrSubscriptionGone
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("push delivery failed with status %d: %s", resp.StatusCode, body)
	}
	return nil
}
