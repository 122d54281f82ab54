// Package notes implements the note collection: create, delete, duplicate
// and update over an in-memory list that is persisted as a whole after every
// structural change.
package notes

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/vibenotes/internal/apperr"
	"github.com/starford/vibenotes/internal/kvstore"
	"github.com/starford/vibenotes/internal/models"
)

// StoreKey is the key holding the serialized collection.
const StoreKey = "notes"

// Placeholder values for new notes.
const (
	UntitledTitle = "Untitled Note"
	CopySuffix    = " (Copy)"
)

// Event kinds passed to a Notifier.
const (
	EventCreated    = "created"
	EventDeleted    = "deleted"
	EventDuplicated = "duplicated"
	EventUpdated    = "updated"
	EventActivated  = "activated"
)

// Notifier receives collection change events.
type Notifier func(kind, id string)

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDs overrides the id generator.
func WithIDs(next func() string) Option {
	return func(m *Manager) { m.newID = next }
}

// WithNotifier registers a change callback. It is invoked after the change
// is applied, outside the manager lock.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notify = n }
}

// Manager owns the note collection and the active selection.
type Manager struct {
	store  kvstore.Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
	notify Notifier

	mu     sync.Mutex
	notes  []models.Note
	active string
}

// Open loads the collection from store. When nothing is stored yet (or the
// stored array is empty) a single welcome note is seeded and persisted.
func Open(store kvstore.Store, logger *slog.Logger, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}

	loaded, err := m.load()
	if err != nil {
		return nil, err
	}
	if len(loaded) == 0 {
		now := m.now().UTC()
		loaded = []models.Note{{
			ID:        m.newID(),
			Title:     WelcomeTitle,
			Content:   WelcomeContent,
			CreatedAt: now,
			UpdatedAt: now,
			Tags:      []string{},
		}}
		m.notes = loaded
		m.persistLocked()
		logger.Info("notes: seeded welcome note", slog.String("id", loaded[0].ID))
	}
	m.notes = loaded
	m.active = loaded[0].ID
	return m, nil
}

func (m *Manager) load() ([]models.Note, error) {
	raw, ok, err := m.store.Get(StoreKey)
	if err != nil {
		return nil, fmt.Errorf("notes: load: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var out []models.Note
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("notes: decode collection: %w", err)
	}
	for i := range out {
		if out[i].Tags == nil {
			out[i].Tags = []string{}
		}
	}
	return out, nil
}

// persistLocked rewrites the whole collection. Failures are logged; the
// in-memory collection stays authoritative.
func (m *Manager) persistLocked() {
	data, err := json.Marshal(m.notes)
	if err != nil {
		m.logger.Error("notes: encode collection", slog.String("error", err.Error()))
		return
	}
	if err := m.store.Set(StoreKey, string(data)); err != nil {
		m.logger.Error("notes: persist collection", slog.String("error", err.Error()))
	}
}

func (m *Manager) emit(kind, id string) {
	if m.notify != nil {
		m.notify(kind, id)
	}
}

func (m *Manager) indexLocked(id string) int {
	return slices.IndexFunc(m.notes, func(n models.Note) bool { return n.ID == id })
}

// Create appends an empty untitled note and makes it active.
func (m *Manager) Create() models.Note {
	now := m.now().UTC()
	n := models.Note{
		ID:        m.newID(),
		Title:     UntitledTitle,
		Content:   "",
		CreatedAt: now,
		UpdatedAt: now,
		Tags:      []string{},
	}

	m.mu.Lock()
	m.notes = append(m.notes, n)
	m.active = n.ID
	m.persistLocked()
	m.mu.Unlock()

	m.emit(EventCreated, n.ID)
	return n.Clone()
}

// Delete removes the note with id. Deleting the last remaining note is
// refused with an invariant violation. When the active note is deleted the
// selection moves to the note that preceded it, or to the new first note.
// An unknown id is a no-op.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	if len(m.notes) == 1 {
		m.mu.Unlock()
		return apperr.InvariantViolation("You must have at least one note!")
	}
	i := m.indexLocked(id)
	if i < 0 {
		m.mu.Unlock()
		m.logger.Debug("notes: delete of unknown note", slog.String("id", id))
		return nil
	}
	m.notes = slices.Delete(m.notes, i, i+1)
	reassigned := ""
	if m.active == id {
		m.active = m.notes[max(i-1, 0)].ID
		reassigned = m.active
	}
	m.persistLocked()
	m.mu.Unlock()

	m.emit(EventDeleted, id)
	if reassigned != "" {
		m.emit(EventActivated, reassigned)
	}
	return nil
}

// Duplicate copies the note with id under a "(Copy)" title and makes the
// copy active. ok is false when id is unknown.
func (m *Manager) Duplicate(id string) (models.Note, bool) {
	m.mu.Lock()
	i := m.indexLocked(id)
	if i < 0 {
		m.mu.Unlock()
		m.logger.Debug("notes: duplicate of unknown note", slog.String("id", id))
		return models.Note{}, false
	}
	now := m.now().UTC()
	dup := m.notes[i].Clone()
	dup.ID = m.newID()
	dup.Title += CopySuffix
	dup.CreatedAt = now
	dup.UpdatedAt = now
	if dup.Tags == nil {
		dup.Tags = []string{}
	}
	m.notes = append(m.notes, dup)
	m.active = dup.ID
	m.persistLocked()
	m.mu.Unlock()

	m.emit(EventDuplicated, dup.ID)
	return dup.Clone(), true
}

// Update merges patch into the note with id and stamps UpdatedAt. ok is
// false when id is unknown.
func (m *Manager) Update(id string, patch models.NotePatch) (models.Note, bool) {
	m.mu.Lock()
	i := m.indexLocked(id)
	if i < 0 {
		m.mu.Unlock()
		m.logger.Debug("notes: update of unknown note", slog.String("id", id))
		return models.Note{}, false
	}
	n := &m.notes[i]
	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Content != nil {
		n.Content = *patch.Content
	}
	n.UpdatedAt = m.now().UTC()
	out := n.Clone()
	m.persistLocked()
	m.mu.Unlock()

	m.emit(EventUpdated, id)
	return out, true
}

// Get returns a copy of the note with id.
func (m *Manager) Get(id string) (models.Note, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(id)
	if i < 0 {
		return models.Note{}, false
	}
	return m.notes[i].Clone(), true
}

// List returns copies of all notes in collection order.
func (m *Manager) List() []models.Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Note, len(m.notes))
	for i, n := range m.notes {
		out[i] = n.Clone()
	}
	return out
}

// Len returns the number of notes.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notes)
}

// ActiveID returns the id of the active note.
func (m *Manager) ActiveID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Active returns the active note, if any.
func (m *Manager) Active() (models.Note, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(m.active)
	if i < 0 {
		return models.Note{}, false
	}
	return m.notes[i].Clone(), true
}

// SetActive selects the note with id. An unknown id leaves the selection
// unchanged and returns false.
func (m *Manager) SetActive(id string) bool {
	m.mu.Lock()
	if m.indexLocked(id) < 0 {
		m.mu.Unlock()
		m.logger.Debug("notes: activate unknown note", slog.String("id", id))
		return false
	}
	changed := m.active != id
	m.active = id
	m.mu.Unlock()

	if changed {
		m.emit(EventActivated, id)
	}
	return true
}

// Reload replaces the in-memory collection with the stored one. The active
// selection is kept when the note still exists. A stored collection that is
// empty or unreadable is ignored so the collection never becomes empty.
func (m *Manager) Reload() error {
	loaded, err := m.load()
	if err != nil {
		return err
	}
	if len(loaded) == 0 {
		m.logger.Warn("notes: reload ignored empty collection")
		return nil
	}

	m.mu.Lock()
	m.notes = loaded
	changed := false
	if m.indexLocked(m.active) < 0 {
		m.active = loaded[0].ID
		changed = true
	}
	active := m.active
	m.mu.Unlock()

	if changed {
		m.emit(EventActivated, active)
	}
	return nil
}
