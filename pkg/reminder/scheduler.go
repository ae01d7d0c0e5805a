package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/jmhodges/clock"

	"github.com/aretw0/purple/pkg/core"
)

// DefaultInterval is the polling period of the scheduler.
const DefaultInterval = time.Second

// Notes is what the scheduler needs from the notes collection.
type Notes interface {
	Due(ctx context.Context, now int64) []core.Note
	MarkNotified(ctx context.Context, id int64) error
}

// Notification is raised once per note when its reminder is due.
type Notification struct {
	NoteID   int64  `json:"noteId"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Reminder int64  `json:"reminder"`
	RaisedAt int64  `json:"raisedAt"`
}

// Notifier presents notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Config holds the configuration for a Scheduler.
type Config struct {
	Logger   *slog.Logger
	Clock    clock.Clock
	Interval time.Duration
	Notifier Notifier
}

// Scheduler polls notes and raises a notification for each due reminder.
// It keeps the set of notifications the user has not dismissed yet.
type Scheduler struct {
	*worker.BaseWorker
	notes  Notes
	config Config
	logger *slog.Logger

	mu     sync.Mutex
	active map[int64]Notification
	polls  uint64
	raised uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a scheduler over notes. It does nothing until Start or Poll.
func New(notes Notes, config Config) *Scheduler {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.Notifier == nil {
		config.Notifier = NotifierFunc(func(context.Context, Notification) {})
	}

	return &Scheduler{
		BaseWorker: worker.NewBaseWorker("reminder-scheduler"),
		notes:      notes,
		config:     config,
		logger:     config.Logger,
		active:     make(map[int64]Notification),
	}
}

// Poll runs one scan and returns how many notifications were raised. A note
// whose Notified flag could not be persisted raises nothing and stays due
// for the next poll; those failures are returned joined.
func (s *Scheduler) Poll(ctx context.Context) (int, error) {
	now := s.config.Clock.Now().UnixMilli()

	s.mu.Lock()
	s.polls++
	s.mu.Unlock()

	var errs []error
	raised := 0
	for _, n := range s.notes.Due(ctx, now) {
		if s.isActive(n.ID) {
			continue
		}

		if err := s.notes.MarkNotified(ctx, n.ID); err != nil {
			s.logger.Warn("failed to mark note notified, will retry", "id", n.ID, "error", err)
			errs = append(errs, fmt.Errorf("note %d: %w", n.ID, err))
			continue
		}

		notification := Notification{
			NoteID:   n.ID,
			Title:    n.Title,
			Content:  n.Content,
			Reminder: n.ReminderAt(),
			RaisedAt: now,
		}
		s.mu.Lock()
		s.active[n.ID] = notification
		s.raised++
		s.mu.Unlock()

		s.logger.Info("reminder due", "id", n.ID, "title", n.Title)
		s.config.Notifier.Notify(ctx, notification)
		raised++
	}
	return raised, errors.Join(errs...)
}

func (s *Scheduler) isActive(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[id]
	return ok
}

// Active returns the raised notifications that were not dismissed, ordered
// by note id.
func (s *Scheduler) Active() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Notification, 0, len(s.active))
	for _, n := range s.active {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NoteID < out[j].NoteID })
	return out
}

// Dismiss removes the notification of a note and persists its Notified flag
// again, in case the note was rewritten by another process meanwhile.
// Dismissing an unknown note only re-asserts the flag.
func (s *Scheduler) Dismiss(ctx context.Context, noteID int64) error {
	s.mu.Lock()
	delete(s.active, noteID)
	s.mu.Unlock()

	if err := s.notes.MarkNotified(ctx, noteID); err != nil && !errors.Is(err, core.ErrNotFound) {
		return err
	}
	return nil
}

// DismissAll dismisses every active notification.
func (s *Scheduler) DismissAll(ctx context.Context) error {
	var errs []error
	for _, n := range s.Active() {
		if err := s.Dismiss(ctx, n.NoteID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Start polls once right away, then every interval until Stop or ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := s.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("scheduler already started (status: %s)", status)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.SetStatus(worker.StatusRunning)
	return s.StartFunc(runCtx, s.run)
}

// Stop cancels the polling loop and waits for it to return.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		s.StopRequested = true
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return s.BaseWorker.Stop(ctx)
}

func (s *Scheduler) State() worker.State {
	s.mu.Lock()
	active, polls, raised := len(s.active), s.polls, s.raised
	s.mu.Unlock()

	return s.ExportState(func(st *worker.State) {
		st.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"interval":          s.config.Interval.String(),
			"active":            strconv.Itoa(active),
			"polls":             strconv.FormatUint(polls, 10),
			"raised":            strconv.FormatUint(raised, 10),
		}
	})
}

// ComponentType implements introspection.Component.
func (s *Scheduler) ComponentType() string {
	return "scheduler"
}

func (s *Scheduler) run(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	defer close(done)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		if _, err := s.Poll(ctx); err != nil {
			s.logger.Debug("poll finished with errors", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
