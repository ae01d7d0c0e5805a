// Package purple is the composition root of purple, a persistence and
// notification core for personal notes and a task checklist.
//
// It wires the storage medium, the key-value store, the change bus, the notes
// and tasks collections and the reminder scheduler into a single App that is
// built once and passed around. Nothing is global.
//
// Features:
//
//   - **Shared storage**: several processes may open the same data directory;
//     each sees the others' changes through the change bus.
//   - **Safe compound updates**: read-modify-write operations run under a
//     per-key lock with a bounded wait.
//   - **At-most-once reminders**: a due note is marked notified before the
//     notification is raised.
//
// Usage:
//
//	app, err := purple.New("./data", purple.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer app.Close(ctx)
//
//	if err := app.Start(ctx); err != nil {
//		return err
//	}
//	task, err := app.Tasks.Create(ctx, "buy milk")
package purple
