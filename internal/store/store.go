package store

import (
	"context"

	medmodels "github.com/azro1/flare-care-sub001/internal/models/medication"
	notifmodels "github.com/azro1/flare-care-sub001/internal/models/notifications"
)

// ReminderStore is the row-store surface the reminder subsystem depends on.
// Handlers take the interface so tests can swap in mocks.
type ReminderStore interface {
	// DueMedications returns reminder-enabled medications whose resolved
	// target time equals the given HH:MM, excluding the keep-alive row.
	DueMedications(ctx context.Context, hhmm string) ([]medmodels.Medication, error)

	// MedicationsForUser returns the user's medications, keep-alive excluded.
	MedicationsForUser(ctx context.Context, userUID string) ([]medmodels.Medication, error)

	// SubscriptionsForUsers returns all push subscriptions owned by the
	// given users.
	SubscriptionsForUsers(ctx context.Context, userUIDs []string) ([]notifmodels.PushSubscription, error)

	// UpsertSubscription inserts or, keyed on endpoint, overwrites a
	// subscription.
	UpsertSubscription(ctx context.Context, sub notifmodels.PushSubscription) error

	// DeleteSubscriptionByEndpoint removes a subscription the push transport
	// reported as permanently gone.
	DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error
}
