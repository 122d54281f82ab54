package notes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/starford/vibenotes/internal/apperr"
	"github.com/starford/vibenotes/internal/kvstore"
	"github.com/starford/vibenotes/internal/models"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	m      *Manager
	store  *kvstore.Memory
	now    time.Time
	events []string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{store: kvstore.NewMemory(), now: testNow}
	seq := 0
	m, err := Open(e.store, slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithClock(func() time.Time { return e.now }),
		WithIDs(func() string { seq++; return fmt.Sprintf("n%d", seq) }),
		WithNotifier(func(kind, id string) { e.events = append(e.events, kind+":"+id) }),
	)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	e.m = m
	return e
}

func (e *env) stored(t *testing.T) []models.Note {
	t.Helper()
	raw, ok, _ := e.store.Get(StoreKey)
	if !ok {
		t.Fatal("collection not persisted")
	}
	var out []models.Note
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("decode stored: %v", err)
	}
	return out
}

func TestOpen_SeedsWelcomeNote(t *testing.T) {
	e := newEnv(t)
	list := e.m.List()
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}
	if list[0].Title != WelcomeTitle {
		t.Errorf("title = %q", list[0].Title)
	}
	if e.m.ActiveID() != list[0].ID {
		t.Errorf("active = %q, want %q", e.m.ActiveID(), list[0].ID)
	}
	if got := e.stored(t); len(got) != 1 {
		t.Errorf("stored len = %d, want 1", len(got))
	}
}

func TestOpen_LoadsExistingCollection(t *testing.T) {
	store := kvstore.NewMemory()
	_ = store.Set(StoreKey, `[{"id":"x","title":"A","content":"c","createdAt":"2024-01-01T00:00:00.000Z","updatedAt":"2024-01-02T00:00:00.000Z"}]`)
	m, err := Open(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	n, ok := m.Get("x")
	if !ok {
		t.Fatal("note x not loaded")
	}
	if n.Tags == nil {
		t.Error("missing tags should load as empty slice")
	}
	if !n.UpdatedAt.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("updatedAt = %v", n.UpdatedAt)
	}
}

func TestOpen_CorruptCollection(t *testing.T) {
	store := kvstore.NewMemory()
	_ = store.Set(StoreKey, `{not json`)
	if _, err := Open(store, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Error("expected decode error")
	}
}

func TestCreate(t *testing.T) {
	e := newEnv(t)
	n := e.m.Create()
	if n.Title != UntitledTitle || n.Content != "" {
		t.Errorf("note = %+v", n)
	}
	if !n.CreatedAt.Equal(testNow) || !n.UpdatedAt.Equal(testNow) {
		t.Errorf("timestamps = %v / %v", n.CreatedAt, n.UpdatedAt)
	}
	if e.m.ActiveID() != n.ID {
		t.Errorf("active = %q, want %q", e.m.ActiveID(), n.ID)
	}
	if got := e.stored(t); len(got) != 2 {
		t.Errorf("stored len = %d, want 2", len(got))
	}
}

func TestDelete_LastNoteRefused(t *testing.T) {
	e := newEnv(t)
	before := e.m.List()
	err := e.m.Delete(before[0].ID)
	if !errors.Is(err, apperr.ErrInvariant) {
		t.Fatalf("err = %v, want invariant violation", err)
	}
	if apperr.UserMessage(err, "") != "You must have at least one note!" {
		t.Errorf("message = %q", apperr.UserMessage(err, ""))
	}
	after := e.m.List()
	if len(after) != 1 || after[0].ID != before[0].ID {
		t.Errorf("collection changed: %+v", after)
	}
}

func TestDelete_ReassignsActiveToPreceding(t *testing.T) {
	e := newEnv(t) // n1
	e.m.Create()   // n2
	e.m.Create()   // n3, active

	if err := e.m.Delete("n3"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if e.m.ActiveID() != "n2" {
		t.Errorf("active = %q, want n2", e.m.ActiveID())
	}
	if e.m.Len() != 2 {
		t.Errorf("len = %d, want 2", e.m.Len())
	}
	if got := e.stored(t); len(got) != 2 {
		t.Errorf("stored len = %d, want 2", len(got))
	}
}

func TestDelete_FirstActiveMovesToNewFirst(t *testing.T) {
	e := newEnv(t)
	e.m.Create()
	e.m.SetActive("n1")
	if err := e.m.Delete("n1"); err != nil {
		t.Fatal(err)
	}
	if e.m.ActiveID() != "n2" {
		t.Errorf("active = %q, want n2", e.m.ActiveID())
	}
}

func TestDelete_InactiveKeepsSelection(t *testing.T) {
	e := newEnv(t)
	e.m.Create()
	if err := e.m.Delete("n1"); err != nil {
		t.Fatal(err)
	}
	if e.m.ActiveID() != "n2" {
		t.Errorf("active = %q, want n2", e.m.ActiveID())
	}
}

func TestDelete_UnknownIsNoop(t *testing.T) {
	e := newEnv(t)
	e.m.Create()
	if err := e.m.Delete("ghost"); err != nil {
		t.Fatalf("Delete unknown: %v", err)
	}
	if e.m.Len() != 2 {
		t.Errorf("len = %d, want 2", e.m.Len())
	}
}

func TestDuplicate(t *testing.T) {
	e := newEnv(t)
	orig, _ := e.m.Get("n1")
	e.now = testNow.Add(time.Hour)

	dup, ok := e.m.Duplicate("n1")
	if !ok {
		t.Fatal("Duplicate returned ok=false")
	}
	if dup.ID == orig.ID {
		t.Error("duplicate shares id")
	}
	if dup.Title != orig.Title+" (Copy)" {
		t.Errorf("title = %q", dup.Title)
	}
	if dup.Content != orig.Content {
		t.Error("content differs")
	}
	if !dup.CreatedAt.Equal(e.now) || !dup.UpdatedAt.Equal(e.now) {
		t.Errorf("timestamps = %v / %v, want %v", dup.CreatedAt, dup.UpdatedAt, e.now)
	}
	if e.m.ActiveID() != dup.ID {
		t.Errorf("active = %q, want %q", e.m.ActiveID(), dup.ID)
	}
}

func TestDuplicate_UnknownIsNoop(t *testing.T) {
	e := newEnv(t)
	if _, ok := e.m.Duplicate("ghost"); ok {
		t.Error("expected ok=false")
	}
	if e.m.Len() != 1 {
		t.Errorf("len = %d, want 1", e.m.Len())
	}
}

func TestUpdate_MergesAndStamps(t *testing.T) {
	e := newEnv(t)
	e.now = testNow.Add(5 * time.Minute)
	content := "new body"
	n, ok := e.m.Update("n1", models.NotePatch{Content: &content})
	if !ok {
		t.Fatal("Update returned ok=false")
	}
	if n.Content != content || n.Title != WelcomeTitle {
		t.Errorf("note = %+v", n)
	}
	if !n.UpdatedAt.Equal(e.now) || !n.CreatedAt.Equal(testNow) {
		t.Errorf("timestamps = %v / %v", n.CreatedAt, n.UpdatedAt)
	}
	if e.stored(t)[0].Content != content {
		t.Error("update not persisted")
	}
}

func TestUpdate_UnknownIsNoop(t *testing.T) {
	e := newEnv(t)
	title := "x"
	if _, ok := e.m.Update("ghost", models.NotePatch{Title: &title}); ok {
		t.Error("expected ok=false")
	}
}

func TestSetActive(t *testing.T) {
	e := newEnv(t)
	e.m.Create()
	if !e.m.SetActive("n1") {
		t.Fatal("SetActive n1 failed")
	}
	if e.m.SetActive("ghost") {
		t.Error("SetActive ghost succeeded")
	}
	if e.m.ActiveID() != "n1" {
		t.Errorf("active = %q, want n1", e.m.ActiveID())
	}
}

func TestReload_KeepsActiveWhenPresent(t *testing.T) {
	e := newEnv(t)
	e.m.Create()
	e.m.SetActive("n1")

	_ = e.store.Set(StoreKey, `[{"id":"n1","title":"edited elsewhere","content":"","createdAt":"2025-03-01T12:00:00Z","updatedAt":"2025-03-01T12:00:00Z","tags":[]}]`)
	if err := e.m.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	n, _ := e.m.Get("n1")
	if n.Title != "edited elsewhere" {
		t.Errorf("title = %q", n.Title)
	}
	if e.m.ActiveID() != "n1" || e.m.Len() != 1 {
		t.Errorf("active = %q len = %d", e.m.ActiveID(), e.m.Len())
	}
}

func TestReload_AnnouncesOnlyChangedActive(t *testing.T) {
	e := newEnv(t)
	e.m.Create()
	e.events = nil

	stored, _, _ := e.store.Get(StoreKey)
	if err := e.m.Reload(); err != nil {
		t.Fatal(err)
	}
	if len(e.events) != 0 {
		t.Errorf("unchanged active: events = %v, want none", e.events)
	}

	var list []models.Note
	_ = json.Unmarshal([]byte(stored), &list)
	raw, _ := json.Marshal(list[:1])
	_ = e.store.Set(StoreKey, string(raw))
	if err := e.m.Reload(); err != nil {
		t.Fatal(err)
	}
	want := []string{EventActivated + ":n1"}
	if fmt.Sprint(e.events) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", e.events, want)
	}
	if e.m.ActiveID() != "n1" {
		t.Errorf("active = %q", e.m.ActiveID())
	}
}

func TestReload_IgnoresEmptyCollection(t *testing.T) {
	e := newEnv(t)
	_ = e.store.Set(StoreKey, `[]`)
	if err := e.m.Reload(); err != nil {
		t.Fatal(err)
	}
	if e.m.Len() != 1 {
		t.Errorf("len = %d, want 1", e.m.Len())
	}
}

func TestNotifierEvents(t *testing.T) {
	e := newEnv(t)
	e.m.Create()
	_ = e.m.Delete("n2")
	want := []string{"created:n2", "deleted:n2", "activated:n1"}
	if fmt.Sprint(e.events) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", e.events, want)
	}
}

func TestPersistedRecordFields(t *testing.T) {
	e := newEnv(t)
	raw, _, _ := e.store.Get(StoreKey)
	var recs []map[string]any
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{"id", "title", "content", "createdAt", "updatedAt", "tags"} {
		if _, ok := recs[0][f]; !ok {
			t.Errorf("missing field %q in %v", f, recs[0])
		}
	}
	if recs[0]["createdAt"] != "2025-03-01T12:00:00Z" {
		t.Errorf("createdAt = %v", recs[0]["createdAt"])
	}
}
