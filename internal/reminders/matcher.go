package reminders

import (
	"strings"
	"time"

	medmodels "github.com/azro1/flare-care-sub001/internal/models/medication"
)

// Shared between the client polling path and the server push payload.
const (
	ReminderTitle = "Medication Reminder"
	ReminderTag   = "medication-reminder"

	// matchTolerance bounds how far from its target time a medication still
	// counts as due. The polling cadence must stay at or below this window or
	// a target time can fall between two evaluations.
	matchTolerance = 30 * time.Second
)

// ReminderBody builds the notification body listing every due medication.
func ReminderBody(names []string) string {
	return "Time to take: " + strings.Join(names, ", ")
}

// DateKey returns the calendar-date key used for fired-today suppression.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// DueNow returns the medications due at now, preserving input order. A
// medication is due when its resolved target time is within the match
// tolerance of now and it has not already fired today per the fired map
// (medication ID -> DateKey of the last firing). fired may be nil, in which
// case no suppression applies; the server path relies on exact-minute
// matching instead and never passes a fired map.
func DueNow(now time.Time, meds []medmodels.Medication, fired map[string]string) []medmodels.Medication {
	var due []medmodels.Medication
	for _, med := range meds {
		if !med.RemindersEnabled {
			continue
		}
		target, ok := med.TargetTime()
		if !ok {
			continue
		}
		clock, err := time.Parse("15:04", target)
		if err != nil {
			continue
		}
		targetAt := time.Date(now.Year(), now.Month(), now.Day(),
			clock.Hour(), clock.Minute(), 0, 0, now.Location())
		diff := now.Sub(targetAt)
		if diff <= -matchTolerance || diff >= matchTolerance {
			continue
		}
		if fired != nil && fired[med.ID] == DateKey(now) {
			continue
		}
		due = append(due, med)
	}
	return due
}
