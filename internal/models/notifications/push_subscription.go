package models

import "time"

// PushSubscription is one browser push delivery target. The endpoint is the
// natural key; re-registering the same endpoint overwrites the keys.
type PushSubscription struct {
	ID        string    `json:"id" db:"id"`
	UserUID   string    `json:"user_uid" db:"user_uid"`
	Endpoint  string    `json:"endpoint" db:"endpoint"`
	P256dhKey string    `json:"p256dh_key" db:"p256dh_key"`
	AuthKey   string    `json:"auth_key" db:"auth_key"`
	UserAgent *string   `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
