package event

import "time"

// Draft is the structured event extracted from the model's reply, prior to
// calendar encoding. Description and Location distinguish "absent" (nil)
// from an explicit empty string.
type Draft struct {
	Summary         string
	Start           time.Time
	End             time.Time
	Description     *string
	Location        *string
	Attendees       []string
	ReminderMinutes int
}

// HasReminder reports whether a reminder should be attached to the event.
// A value of zero means "no reminder", not "remind at start time".
func (d *Draft) HasReminder() bool {
	return d.ReminderMinutes > 0
}
