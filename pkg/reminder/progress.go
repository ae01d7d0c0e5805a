package reminder

import (
	"fmt"

	"github.com/aretw0/purple/pkg/core"
)

const (
	msPerMinute = int64(60 * 1000)
	msPerHour   = 60 * msPerMinute
)

// CalculateProgress returns how far now is between the creation of n and its
// reminder, as a percentage clamped to [0, 100]. Notes without a reminder are
// at 0.
func CalculateProgress(n core.Note, now int64) float64 {
	if !n.HasReminder() {
		return 0
	}

	total := n.ReminderAt() - n.Created
	if total <= 0 {
		if now >= n.ReminderAt() {
			return 100
		}
		return 0
	}

	p := float64(now-n.Created) / float64(total) * 100
	return min(max(p, 0), 100)
}

// Remaining is the time left before a reminder.
type Remaining struct {
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
}

// Zero reports whether less than a minute is left.
func (r Remaining) Zero() bool {
	return r.Hours == 0 && r.Minutes == 0
}

func (r Remaining) String() string {
	if r.Zero() {
		return "less than a minute"
	}
	return fmt.Sprintf("%dh %dm", r.Hours, r.Minutes)
}

// RemainingTime splits the time left before the reminder of n into whole
// hours and minutes. Overdue notes and notes without a reminder yield zero.
func RemainingTime(n core.Note, now int64) Remaining {
	if !n.HasReminder() {
		return Remaining{}
	}
	left := n.ReminderAt() - now
	if left <= 0 {
		return Remaining{}
	}
	return Remaining{
		Hours:   left / msPerHour,
		Minutes: (left % msPerHour) / msPerMinute,
	}
}
