package models

import "time"

// Sentinel values for Medication.TimeOfDay.
const (
	TimeOfDayAsNeeded = "as-needed"
	TimeOfDayCustom   = "custom"
)

// KeepAliveName marks the bookkeeping row the owning account keeps in the
// medications table. It must never trigger a reminder.
const KeepAliveName = "keep-alive"

type Medication struct {
	ID               string    `json:"id" db:"id"`
	UserUID          string    `json:"user_uid" db:"user_uid"`
	Name             string    `json:"name" db:"name"`
	TimeOfDay        string    `json:"time_of_day" db:"time_of_day"`
	CustomTime       *string   `json:"custom_time,omitempty" db:"custom_time"`
	RemindersEnabled bool      `json:"reminders_enabled" db:"reminders_enabled"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// TargetTime resolves the effective HH:MM reminder time. It reports false for
// as-needed medications and for custom medications without a custom time.
func (m *Medication) TargetTime() (string, bool) {
	switch m.TimeOfDay {
	case TimeOfDayAsNeeded:
		return "", false
	case TimeOfDayCustom:
		if m.CustomTime == nil || *m.CustomTime == "" {
			return "", false
		}
		return *m.CustomTime, true
	case "":
		return "", false
	default:
		return m.TimeOfDay, true
	}
}
