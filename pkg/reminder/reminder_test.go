package reminder_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/purple/pkg/core"
	"github.com/aretw0/purple/pkg/reminder"
)

func ptr(v int64) *int64 { return &v }

func TestStatusOf(t *testing.T) {
	note := core.Note{ID: 1, Created: 1_000, Reminder: ptr(5_000)}

	assert.Equal(t, reminder.NoReminder, reminder.StatusOf(core.Note{ID: 2}, 10_000))
	assert.Equal(t, reminder.Pending, reminder.StatusOf(note, 4_999))
	assert.Equal(t, reminder.Due, reminder.StatusOf(note, 5_000))

	note.Notified = true
	assert.Equal(t, reminder.Notified, reminder.StatusOf(note, 5_000))
	assert.Equal(t, "notified", reminder.Notified.String())

	assert.True(t, reminder.IsReminderComplete(note, 5_000))
	assert.False(t, reminder.IsReminderComplete(note, 4_000))
}

func TestCalculateProgress(t *testing.T) {
	note := core.Note{Created: 10_000, Reminder: ptr(20_000)}

	assert.Equal(t, 0.0, reminder.CalculateProgress(note, note.Created-1_000))
	assert.Equal(t, 50.0, reminder.CalculateProgress(note, 15_000))
	assert.Equal(t, 100.0, reminder.CalculateProgress(note, note.ReminderAt()+1_000))
	assert.Equal(t, 0.0, reminder.CalculateProgress(core.Note{Created: 1}, 99))

	instant := core.Note{Created: 10_000, Reminder: ptr(10_000)}
	assert.Equal(t, 0.0, reminder.CalculateProgress(instant, 9_999))
	assert.Equal(t, 100.0, reminder.CalculateProgress(instant, 10_000))
}

func TestRemainingTime(t *testing.T) {
	now := int64(1_000_000)
	note := core.Note{Created: 0, Reminder: ptr(now + int64(2*time.Hour/time.Millisecond) + int64(5*time.Minute/time.Millisecond) + 59_000)}

	r := reminder.RemainingTime(note, now)
	assert.Equal(t, reminder.Remaining{Hours: 2, Minutes: 5}, r)
	assert.Equal(t, "2h 5m", r.String())

	assert.Equal(t, reminder.Remaining{}, reminder.RemainingTime(note, note.ReminderAt()+60_000))
	assert.Equal(t, reminder.Remaining{}, reminder.RemainingTime(core.Note{}, now))
	assert.Equal(t, "less than a minute", reminder.RemainingTime(note, note.ReminderAt()-30_000).String())
}

func TestNotifierFunc(t *testing.T) {
	var got reminder.Notification
	n := reminder.NotifierFunc(func(_ context.Context, n reminder.Notification) { got = n })
	n.Notify(context.Background(), reminder.Notification{NoteID: 3})
	assert.Equal(t, int64(3), got.NoteID)
}
