package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	medmodels "github.com/azro1/flare-care-sub001/internal/models/medication"
	notifmodels "github.com/azro1/flare-care-sub001/internal/models/notifications"
)

// PostgresStore implements ReminderStore on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const medicationColumns = `id, user_uid, name, time_of_day, custom_time, reminders_enabled, created_at, updated_at`

func (s *PostgresStore) DueMedications(ctx context.Context, hhmm string) ([]medmodels.Medication, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM medications
		WHERE reminders_enabled = TRUE
		  AND name <> $2
		  AND (time_of_day = $1 OR (time_of_day = $3 AND custom_time = $1))
		ORDER BY created_at
	`, medicationColumns)

	rows, err := s.pool.Query(ctx, query, hhmm, medmodels.KeepAliveName, medmodels.TimeOfDayCustom)
	if err != nil {
		return nil, fmt.Errorf("failed to query due medications: %w", err)
	}
	defer rows.Close()

	return scanMedications(rows)
}

func (s *PostgresStore) MedicationsForUser(ctx context.Context, userUID string) ([]medmodels.Medication, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM medications
		WHERE user_uid = $1 AND name <> $2
		ORDER BY created_at
	`, medicationColumns)

	rows, err := s.pool.Query(ctx, query, userUID, medmodels.KeepAliveName)
	if err != nil {
		return nil, fmt.Errorf("failed to query medications: %w", err)
	}
	defer rows.Close()

	return scanMedications(rows)
}

func scanMedications(rows pgx.Rows) ([]medmodels.Medication, error) {
	var meds []medmodels.Medication
	for rows.Next() {
		var med medmodels.Medication
		if err := rows.Scan(
			&med.ID,
			&med.UserUID,
			&med.Name,
			&med.TimeOfDay,
			&med.CustomTime,
			&med.RemindersEnabled,
			&med.CreatedAt,
			&med.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan medication: %w", err)
		}
		meds = append(meds, med)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read medications: %w", err)
	}
	return meds, nil
}

func (s *PostgresStore) SubscriptionsForUsers(ctx context.Context, userUIDs []string) ([]notifmodels.PushSubscription, error) {
	query := `
		SELECT id, user_uid, endpoint, p256dh_key, auth_key, user_agent, created_at, updated_at
		FROM push_subscriptions
		WHERE user_uid = ANY($1)
		ORDER BY created_at
	`

	rows, err := s.pool.Query(ctx, query, userUIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []notifmodels.PushSubscription
	for rows.Next() {
		var sub notifmodels.PushSubscription
		if err := rows.Scan(
			&sub.ID,
			&sub.UserUID,
			&sub.Endpoint,
			&sub.P256dhKey,
			&sub.AuthKey,
			&sub.UserAgent,
			&sub.CreatedAt,
			&sub.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan push subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read push subscriptions: %w", err)
	}
	return subs, nil
}

func (s *PostgresStore) UpsertSubscription(ctx context.Context, sub notifmodels.PushSubscription) error {
	query := `
		INSERT INTO push_subscriptions (id, user_uid, endpoint, p256dh_key, auth_key, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (endpoint)
		DO UPDATE SET
			user_uid = EXCLUDED.user_uid,
			p256dh_key = EXCLUDED.p256dh_key,
			auth_key = EXCLUDED.auth_key,
			user_agent = EXCLUDED.user_agent,
			updated_at = NOW()
	`

	if _, err := s.pool.Exec(ctx, query,
		sub.ID,
		sub.UserUID,
		sub.Endpoint,
		sub.P256dhKey,
		sub.AuthKey,
		sub.UserAgent,
	); err != nil {
		return fmt.Errorf("failed to upsert push subscription: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM push_subscriptions WHERE endpoint = $1`, endpoint); err != nil {
		return fmt.Errorf("failed to delete push subscription: %w", err)
	}
	return nil
}
