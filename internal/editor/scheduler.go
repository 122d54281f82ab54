package editor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/starford/vibenotes/internal/models"
)

// DefaultDelay is the quiescence period before an autosave commit.
const DefaultDelay = 500 * time.Millisecond

// Snapshot is the part of the buffer that autosave commits.
type Snapshot struct {
	NoteID  string
	Title   string
	Content string
}

// Committer is the note collection as seen by autosave.
type Committer interface {
	Get(id string) (models.Note, bool)
	Update(id string, patch models.NotePatch) (models.Note, bool)
}

// Timer is a stoppable pending callback.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithAfterFunc replaces the timer source.
func WithAfterFunc(f AfterFunc) SchedulerOption {
	return func(s *Scheduler) { s.after = f }
}

// WithDelay sets the quiescence period.
func WithDelay(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.delay = d
		}
	}
}

// Scheduler debounces buffer changes into commits. At most one timer is
// pending; every Touch restarts it.
type Scheduler struct {
	committer Committer
	logger    *slog.Logger
	delay     time.Duration
	after     AfterFunc

	mu      sync.Mutex
	gen     uint64
	timer   Timer
	pending *Snapshot
}

// NewScheduler creates a Scheduler committing into c.
func NewScheduler(c Committer, logger *slog.Logger, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		committer: c,
		logger:    logger,
		delay:     DefaultDelay,
		after:     realAfterFunc,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Delay returns the quiescence period.
func (s *Scheduler) Delay() time.Duration { return s.delay }

// Touch records snap as the latest state and restarts the timer.
func (s *Scheduler) Touch(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.pending = &snap
	gen := s.gen
	s.timer = s.after(s.delay, func() { s.fire(gen) })
}

// Cancel drops the pending snapshot without committing it.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.pending = nil
}

// Flush commits the pending snapshot now.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return
	}
	snap := *s.pending
	s.stopLocked()
	s.pending = nil
	s.commitLocked(snap)
}

// Pending reports whether a commit is scheduled.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// stopLocked invalidates the current timer. A callback that already started
// sees a stale generation and returns.
func (s *Scheduler) stopLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.pending == nil {
		return
	}
	snap := *s.pending
	s.pending = nil
	s.timer = nil
	s.commitLocked(snap)
}

func (s *Scheduler) commitLocked(snap Snapshot) {
	current, ok := s.committer.Get(snap.NoteID)
	if !ok {
		s.logger.Debug("autosave: note gone", slog.String("id", snap.NoteID))
		return
	}
	if current.Title == snap.Title && current.Content == snap.Content {
		s.logger.Debug("autosave: unchanged", slog.String("id", snap.NoteID))
		return
	}
	s.committer.Update(snap.NoteID, models.NotePatch{Title: &snap.Title, Content: &snap.Content})
	s.logger.Debug("autosave: committed", slog.String("id", snap.NoteID))
}
