// Package noteservice is the application state container. It ties the note
// collection, the editing session, preferences, rendering and export
// together for the HTTP and MCP transports.
package noteservice

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/starford/vibenotes/internal/apperr"
	"github.com/starford/vibenotes/internal/editor"
	"github.com/starford/vibenotes/internal/export"
	"github.com/starford/vibenotes/internal/imaging"
	"github.com/starford/vibenotes/internal/kvstore"
	"github.com/starford/vibenotes/internal/models"
	"github.com/starford/vibenotes/internal/notes"
	"github.com/starford/vibenotes/internal/prefs"
	"github.com/starford/vibenotes/internal/render"
)

// Publisher receives collection change events.
type Publisher interface {
	PublishNoteEvent(kind, id string)
}

// NoteListItem is one sidebar entry.
type NoteListItem struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Excerpt   string       `json:"excerpt"`
	Tags      []string     `json:"tags"`
	Active    bool         `json:"active"`
	Stats     render.Stats `json:"stats"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// NoteDetail is a note with its counters.
type NoteDetail struct {
	models.Note
	Active bool         `json:"active"`
	Stats  render.Stats `json:"stats"`
}

// Config holds tunables.
type Config struct {
	AutosaveDelay time.Duration
	Images        imaging.Limits
}

type options struct {
	publisher Publisher
	after     editor.AfterFunc
	managerOp []notes.Option
}

// Option configures a Service.
type Option func(*options)

// WithPublisher forwards collection events to p.
func WithPublisher(p Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithAfterFunc replaces the autosave timer source.
func WithAfterFunc(f editor.AfterFunc) Option {
	return func(o *options) { o.after = f }
}

// WithManagerOptions passes options through to the note collection.
func WithManagerOptions(opts ...notes.Option) Option {
	return func(o *options) { o.managerOp = append(o.managerOp, opts...) }
}

// Service coordinates the collection and the open editor.
type Service struct {
	notes    *notes.Manager
	session  *editor.Session
	prefs    *prefs.Service
	renderer *render.Renderer
	ingester *imaging.Ingester
	exporter *export.Exporter
	logger   *slog.Logger
}

// New opens the collection in store and opens the editor on the active note.
func New(store kvstore.Store, cfg Config, logger *slog.Logger, opts ...Option) (*Service, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	managerOpts := o.managerOp
	if o.publisher != nil {
		pub := o.publisher
		managerOpts = append(managerOpts, notes.WithNotifier(func(kind, id string) {
			pub.PublishNoteEvent(kind, id)
		}))
	}
	m, err := notes.Open(store, logger, managerOpts...)
	if err != nil {
		return nil, err
	}

	schedOpts := []editor.SchedulerOption{editor.WithDelay(cfg.AutosaveDelay)}
	if o.after != nil {
		schedOpts = append(schedOpts, editor.WithAfterFunc(o.after))
	}
	ingester := imaging.NewIngester(cfg.Images, logger)

	s := &Service{
		notes:    m,
		session:  editor.NewSession(editor.NewScheduler(m, logger, schedOpts...), ingester, logger),
		prefs:    prefs.New(store, logger),
		renderer: render.New(),
		ingester: ingester,
		exporter: export.New(logger),
		logger:   logger,
	}
	s.followActive()
	return s, nil
}

// Close abandons any pending autosave.
func (s *Service) Close() {
	s.session.Close()
}

// Ingester exposes the image pipeline for transports that fetch bytes.
func (s *Service) Ingester() *imaging.Ingester { return s.ingester }

// followActive reopens the session when the active note changed under it.
func (s *Service) followActive() {
	active, ok := s.notes.Active()
	if !ok {
		return
	}
	if buf, open := s.session.Snapshot(); open && buf.NoteID == active.ID {
		return
	}
	s.session.Open(active)
}

func (s *Service) get(id string) (models.Note, error) {
	n, ok := s.notes.Get(id)
	if !ok {
		return models.Note{}, apperr.NotFound("note", id)
	}
	return n, nil
}

// ListNotes returns the sidebar entries in collection order.
func (s *Service) ListNotes() []NoteListItem {
	active := s.notes.ActiveID()
	list := s.notes.List()
	out := make([]NoteListItem, 0, len(list))
	for _, n := range list {
		out = append(out, NoteListItem{
			ID:        n.ID,
			Title:     n.Title,
			Excerpt:   render.Excerpt(n.Content),
			Tags:      n.Tags,
			Active:    n.ID == active,
			Stats:     render.Count(n.Content),
			CreatedAt: n.CreatedAt,
			UpdatedAt: n.UpdatedAt,
		})
	}
	return out
}

// GetNote returns the committed note with id.
func (s *Service) GetNote(id string) (*NoteDetail, error) {
	n, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{Note: n, Active: n.ID == s.notes.ActiveID(), Stats: render.Count(n.Content)}, nil
}

// leave abandons the pending autosave of the open note unless it is id.
// It runs before the active selection moves so a timer cannot commit the
// abandoned edit in between.
func (s *Service) leave(id string) {
	if buf, open := s.session.Snapshot(); open && buf.NoteID != id {
		s.session.Close()
	}
}

// CreateNote adds a note, applies patch to it and opens it.
func (s *Service) CreateNote(patch models.NotePatch) models.Note {
	s.leave("")
	n := s.notes.Create()
	if !patch.Empty() {
		n, _ = s.notes.Update(n.ID, patch)
	}
	s.followActive()
	return n
}

// DeleteNote removes the note with id. Removing the last note is refused.
func (s *Service) DeleteNote(id string) error {
	if _, err := s.get(id); err != nil {
		return err
	}
	if buf, open := s.session.Snapshot(); open && buf.NoteID == id && s.notes.Len() > 1 {
		s.session.Close()
	}
	if err := s.notes.Delete(id); err != nil {
		return err
	}
	s.followActive()
	return nil
}

// DuplicateNote copies the note with id and opens the copy.
func (s *Service) DuplicateNote(id string) (models.Note, error) {
	if _, err := s.get(id); err != nil {
		return models.Note{}, err
	}
	s.leave("")
	dup, ok := s.notes.Duplicate(id)
	if !ok {
		return models.Note{}, apperr.NotFound("note", id)
	}
	s.followActive()
	return dup, nil
}

// ActivateNote selects the note with id and opens it in the editor.
func (s *Service) ActivateNote(id string) (models.Note, error) {
	if _, err := s.get(id); err != nil {
		return models.Note{}, err
	}
	s.leave(id)
	if !s.notes.SetActive(id) {
		return models.Note{}, apperr.NotFound("note", id)
	}
	s.followActive()
	return s.get(id)
}

// Editor returns the live buffer.
func (s *Service) Editor() (editor.Buffer, bool) {
	return s.session.Snapshot()
}

// Dirty reports whether an autosave is pending.
func (s *Service) Dirty() bool {
	return s.session.Dirty()
}

// Edit replaces the buffer and schedules autosave.
func (s *Service) Edit(title, content string, selStart, selEnd int) (editor.Buffer, error) {
	return s.session.Edit(title, content, selStart, selEnd)
}

// Select moves the buffer selection.
func (s *Service) Select(selStart, selEnd int) (editor.Buffer, error) {
	return s.session.Select(selStart, selEnd)
}

// ApplyCommand runs an editor command.
func (s *Service) ApplyCommand(cmd editor.Command) (editor.Buffer, error) {
	return s.session.Apply(cmd)
}

// InsertImage ingests an image into the open note at the cursor.
func (s *Service) InsertImage(ctx context.Context, data []byte, mime string) (editor.Buffer, *imaging.Embedded, error) {
	return s.session.InsertImage(ctx, data, mime)
}

// AppendImage ingests an image and appends it to the note with id. When the
// note is open in the editor the image goes through the buffer and is
// committed at once, so pending edits are kept.
func (s *Service) AppendImage(ctx context.Context, id string, data []byte, mime string) (models.Note, *imaging.Embedded, error) {
	if _, err := s.get(id); err != nil {
		return models.Note{}, nil, err
	}
	emb, err := s.ingester.Ingest(ctx, data, mime)
	if err != nil {
		return models.Note{}, nil, err
	}

	if buf, open := s.session.Snapshot(); open && buf.NoteID == id {
		if _, err := s.session.Apply(editor.Append{Text: emb.Snippet()}); err != nil {
			return models.Note{}, nil, err
		}
		s.session.Flush()
	} else {
		n, err := s.get(id)
		if err != nil {
			return models.Note{}, nil, err
		}
		content := n.Content + emb.Snippet()
		s.notes.Update(id, models.NotePatch{Content: &content})
	}

	n, err := s.get(id)
	return n, emb, err
}

// Segments splits the committed content of the note with id.
func (s *Service) Segments(id string) ([]models.Segment, error) {
	n, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return render.Split(n.Content), nil
}

// RenderHTML renders the note with id. An empty theme uses the preference.
func (s *Service) RenderHTML(id string, theme string) (string, error) {
	n, err := s.get(id)
	if err != nil {
		return "", err
	}
	t := s.prefs.Get().Theme()
	if theme != "" {
		t = models.ParseTheme(theme)
	}
	html, err := s.renderer.HTML(n.Content, t)
	if err != nil {
		return "", apperr.External("render note", err)
	}
	return html, nil
}

// ExportPDF writes a PDF of the note with id to w and returns the download
// filename.
func (s *Service) ExportPDF(ctx context.Context, id string, r export.Rasterizer, w io.Writer) (string, error) {
	n, err := s.get(id)
	if err != nil {
		return "", err
	}
	if err := s.exporter.Export(ctx, r, n, "note-content", w); err != nil {
		return "", err
	}
	return export.Filename(n.Title), nil
}

// Preferences returns the display preferences.
func (s *Service) Preferences() prefs.Preferences {
	return s.prefs.Get()
}

// SetPreferences stores p.
func (s *Service) SetPreferences(p prefs.Preferences) (prefs.Preferences, error) {
	return s.prefs.Set(p)
}

// ReloadFromStore re-reads the collection after another writer changed it.
// A clean editor is refreshed from the new content; a dirty one keeps its
// buffer and will commit over the external change.
func (s *Service) ReloadFromStore() error {
	if err := s.notes.Reload(); err != nil {
		return err
	}
	buf, open := s.session.Snapshot()
	if !open {
		s.followActive()
		return nil
	}
	n, ok := s.notes.Get(buf.NoteID)
	switch {
	case !ok:
		s.followActive()
	case s.session.Dirty():
		s.logger.Info("noteservice: keeping unsaved edits over external change", slog.String("id", n.ID))
	default:
		s.session.Open(n)
		s.followActive()
	}
	return nil
}
