package editor

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/starford/vibenotes/internal/apperr"
	"github.com/starford/vibenotes/internal/imaging"
	"github.com/starford/vibenotes/internal/models"
)

// MsgNoNoteOpen is returned by edits made while no note is open.
const MsgNoNoteOpen = "No note is open"

// Ingester turns raw image bytes into an embeddable reference.
type Ingester interface {
	Ingest(ctx context.Context, data []byte, mime string) (*imaging.Embedded, error)
}

// Session owns the buffer of the open note.
type Session struct {
	sched    *Scheduler
	ingester Ingester
	logger   *slog.Logger
	images   *semaphore.Weighted

	mu   sync.Mutex
	buf  Buffer
	open bool
}

// NewSession creates a closed session.
func NewSession(sched *Scheduler, ingester Ingester, logger *slog.Logger) *Session {
	return &Session{
		sched:    sched,
		ingester: ingester,
		logger:   logger,
		images:   semaphore.NewWeighted(1),
	}
}

// Open loads note into the buffer. Any pending autosave for the previous
// note is abandoned.
func (s *Session) Open(note models.Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sched.Cancel()
	s.buf = Buffer{NoteID: note.ID, Title: note.Title, Content: note.Content}
	s.open = true
}

// Close abandons any pending autosave and empties the buffer.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sched.Cancel()
	s.buf = Buffer{}
	s.open = false
}

// Snapshot returns a copy of the buffer and whether a note is open.
func (s *Session) Snapshot() (Buffer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf, s.open
}

// Dirty reports whether an autosave is pending.
func (s *Session) Dirty() bool {
	return s.sched.Pending()
}

// Flush commits pending edits without waiting for the timer.
func (s *Session) Flush() {
	s.sched.Flush()
}

// Edit replaces title, content and selection, then schedules autosave.
func (s *Session) Edit(title, content string, selStart, selEnd int) (Buffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return Buffer{}, apperr.Rejected(MsgNoNoteOpen)
	}
	s.buf.Title = title
	s.buf.Content = content
	s.buf.SelStart = selStart
	s.buf.SelEnd = selEnd
	s.buf.clamp()
	s.sched.Touch(s.buf.snapshot())
	return s.buf, nil
}

// Select moves the selection without scheduling autosave.
func (s *Session) Select(selStart, selEnd int) (Buffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return Buffer{}, apperr.Rejected(MsgNoNoteOpen)
	}
	s.buf.SelStart = selStart
	s.buf.SelEnd = selEnd
	s.buf.clamp()
	return s.buf, nil
}

// Apply runs cmd against the buffer and schedules autosave.
func (s *Session) Apply(cmd Command) (Buffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return Buffer{}, apperr.Rejected(MsgNoNoteOpen)
	}
	next := s.buf
	if err := cmd.Apply(&next); err != nil {
		return s.buf, err
	}
	s.buf = next
	s.sched.Touch(s.buf.snapshot())
	return s.buf, nil
}

// InsertImage ingests data and splices the resulting reference at the
// selection as it stands once ingestion finishes. Only one ingestion runs at
// a time.
func (s *Session) InsertImage(ctx context.Context, data []byte, mime string) (Buffer, *imaging.Embedded, error) {
	if err := s.images.Acquire(ctx, 1); err != nil {
		return Buffer{}, nil, err
	}
	defer s.images.Release(1)

	emb, err := s.ingester.Ingest(ctx, data, mime)
	if err != nil {
		return Buffer{}, nil, err
	}
	buf, err := s.Apply(InsertSnippet{Text: emb.Snippet()})
	if err != nil {
		return Buffer{}, nil, err
	}
	s.logger.Info("editor: image inserted",
		slog.String("id", buf.NoteID),
		slog.Int("width", emb.Width),
		slog.Int("height", emb.Height),
	)
	return buf, emb, nil
}
