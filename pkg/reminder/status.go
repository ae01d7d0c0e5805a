// Package reminder turns note reminders into at-most-once notifications.
//
// A note moves through NoReminder, Pending, Due and Notified. The Scheduler
// polls the notes on a fixed interval and, for every Due note, persists the
// Notified transition before raising the notification: a crash between the
// two loses one notification instead of repeating it forever.
package reminder

import "github.com/aretw0/purple/pkg/core"

// Status is the reminder state of a note.
type Status int

const (
	NoReminder Status = iota
	Pending
	Due
	Notified
)

func (s Status) String() string {
	switch s {
	case NoReminder:
		return "no-reminder"
	case Pending:
		return "pending"
	case Due:
		return "due"
	case Notified:
		return "notified"
	}
	return "unknown"
}

// StatusOf returns the state of n at now (epoch milliseconds).
func StatusOf(n core.Note, now int64) Status {
	switch {
	case n.Notified:
		return Notified
	case !n.HasReminder():
		return NoReminder
	case now >= n.ReminderAt():
		return Due
	default:
		return Pending
	}
}

// IsReminderComplete reports whether the reminder time has passed, whether
// or not the notification was raised.
func IsReminderComplete(n core.Note, now int64) bool {
	return n.HasReminder() && now >= n.ReminderAt()
}
