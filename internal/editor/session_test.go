package editor

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/starford/vibenotes/internal/apperr"
	"github.com/starford/vibenotes/internal/imaging"
	"github.com/starford/vibenotes/internal/kvstore"
	"github.com/starford/vibenotes/internal/models"
	"github.com/starford/vibenotes/internal/notes"
	"github.com/starford/vibenotes/internal/testutil"
)

type env struct {
	clock   *fakeClock
	m       *notes.Manager
	session *Session
	commits int
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{clock: &fakeClock{}}
	seq := 0
	m, err := notes.Open(kvstore.NewMemory(), testutil.Logger(),
		notes.WithIDs(func() string { seq++; return fmt.Sprintf("n%d", seq) }),
		notes.WithNotifier(func(kind, _ string) {
			if kind == notes.EventUpdated {
				e.commits++
			}
		}),
	)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	e.m = m
	sched := NewScheduler(m, testutil.Logger(), WithAfterFunc(e.clock.AfterFunc))
	e.session = NewSession(sched, imaging.NewIngester(imaging.Limits{}, testutil.Logger()), testutil.Logger())
	active, _ := m.Active()
	e.session.Open(active)
	return e
}

func TestAutosave_DebouncesToSingleCommit(t *testing.T) {
	e := newEnv(t)
	buf, _ := e.session.Snapshot()

	if _, err := e.session.Edit(buf.Title, "first", 0, 0); err != nil {
		t.Fatal(err)
	}
	e.clock.Advance(200 * time.Millisecond)
	if _, err := e.session.Edit(buf.Title, "second", 0, 0); err != nil {
		t.Fatal(err)
	}

	e.clock.Advance(499 * time.Millisecond)
	if e.commits != 0 {
		t.Fatalf("commits at t=699ms = %d, want 0", e.commits)
	}
	e.clock.Advance(1 * time.Millisecond)
	if e.commits != 1 {
		t.Fatalf("commits at t=700ms = %d, want 1", e.commits)
	}
	n, _ := e.m.Get(buf.NoteID)
	if n.Content != "second" {
		t.Errorf("content = %q, want second", n.Content)
	}
	if e.session.Dirty() {
		t.Error("still dirty after commit")
	}

	e.clock.Advance(5 * time.Second)
	if e.commits != 1 {
		t.Errorf("commits = %d after idle, want 1", e.commits)
	}
}

func TestAutosave_SwitchCancelsPending(t *testing.T) {
	e := newEnv(t)
	first, _ := e.session.Snapshot()
	other := e.m.Create()

	if _, err := e.session.Edit("changed", first.Content, 0, 0); err != nil {
		t.Fatal(err)
	}
	e.clock.Advance(100 * time.Millisecond)
	e.session.Open(other)
	e.clock.Advance(time.Second)

	if e.commits != 0 {
		t.Fatalf("commits = %d, want 0", e.commits)
	}
	n, _ := e.m.Get(first.NoteID)
	if n.Title == "changed" {
		t.Error("abandoned edit was committed")
	}
}

func TestAutosave_RevertIsNotCommitted(t *testing.T) {
	e := newEnv(t)
	buf, _ := e.session.Snapshot()

	_, _ = e.session.Edit(buf.Title, buf.Content+"!", 0, 0)
	e.clock.Advance(100 * time.Millisecond)
	_, _ = e.session.Edit(buf.Title, buf.Content, 0, 0)
	e.clock.Advance(time.Second)

	if e.commits != 0 {
		t.Fatalf("commits = %d, want 0", e.commits)
	}
}

func TestAutosave_CloseAbandons(t *testing.T) {
	e := newEnv(t)
	buf, _ := e.session.Snapshot()
	_, _ = e.session.Edit("new title", buf.Content, 0, 0)
	e.session.Close()
	e.clock.Advance(time.Second)
	if e.commits != 0 {
		t.Fatalf("commits = %d, want 0", e.commits)
	}
	if _, err := e.session.Edit("x", "y", 0, 0); !errors.Is(err, apperr.ErrRejected) {
		t.Errorf("edit on closed session: err = %v", err)
	}
}

func TestSession_ApplyFailureKeepsBuffer(t *testing.T) {
	e := newEnv(t)
	before, _ := e.session.Snapshot()
	if _, err := e.session.Apply(Highlight{}); err == nil {
		t.Fatal("highlight without selection succeeded")
	}
	after, _ := e.session.Snapshot()
	if after != before {
		t.Errorf("buffer changed: %+v", after)
	}
	if e.session.Dirty() {
		t.Error("failed command scheduled autosave")
	}
}

func TestSession_InsertImageAtCursor(t *testing.T) {
	e := newEnv(t)
	buf, _ := e.session.Snapshot()
	if _, err := e.session.Edit(buf.Title, "before after", 7, 7); err != nil {
		t.Fatal(err)
	}

	data := testutil.PNG(t, 20, 10, color.White)
	got, emb, err := e.session.InsertImage(context.Background(), data, "image/png")
	if err != nil {
		t.Fatalf("InsertImage: %v", err)
	}
	snippet := emb.Snippet()
	if got.Content != "before "+snippet+"after" {
		t.Errorf("content = %q...", got.Content[:20])
	}
	want := 7 + len([]rune(snippet))
	if got.SelStart != want || got.SelEnd != want {
		t.Errorf("cursor = %d..%d, want %d", got.SelStart, got.SelEnd, want)
	}
	if !strings.Contains(got.Content, "](data:image/jpeg;base64,") {
		t.Error("missing data uri")
	}

	e.clock.Advance(DefaultDelay)
	if e.commits != 1 {
		t.Errorf("commits = %d, want 1", e.commits)
	}
	n, _ := e.m.Get(buf.NoteID)
	if n.Content != got.Content {
		t.Error("committed content differs from buffer")
	}
}

// gatedIngester blocks in Ingest until release is closed.
type gatedIngester struct {
	started chan struct{}
	release chan struct{}
}

func newGatedIngester() *gatedIngester {
	return &gatedIngester{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedIngester) Ingest(ctx context.Context, _ []byte, _ string) (*imaging.Embedded, error) {
	close(g.started)
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &imaging.Embedded{Width: 1, Height: 1, DataURI: "data:image/jpeg;base64,AAAA"}, nil
}

type insertResult struct {
	buf Buffer
	emb *imaging.Embedded
	err error
}

func startInsert(e *env, g *gatedIngester) <-chan insertResult {
	e.session.ingester = g
	done := make(chan insertResult, 1)
	go func() {
		buf, emb, err := e.session.InsertImage(context.Background(), []byte("img"), "image/png")
		done <- insertResult{buf, emb, err}
	}()
	<-g.started
	return done
}

func TestSession_InsertImageUsesCursorAtSplice(t *testing.T) {
	e := newEnv(t)
	buf, _ := e.session.Snapshot()
	if _, err := e.session.Edit(buf.Title, "hello world", 0, 0); err != nil {
		t.Fatal(err)
	}

	g := newGatedIngester()
	done := startInsert(e, g)

	// Typing and moving the cursor while the image is processed.
	if _, err := e.session.Edit(buf.Title, "hello brave world", 6, 6); err != nil {
		t.Fatal(err)
	}
	close(g.release)
	res := <-done
	if res.err != nil {
		t.Fatalf("InsertImage: %v", res.err)
	}

	snippet := res.emb.Snippet()
	if res.buf.Content != "hello "+snippet+"brave world" {
		t.Errorf("content = %q", res.buf.Content)
	}
	want := 6 + len([]rune(snippet))
	if res.buf.SelStart != want || res.buf.SelEnd != want {
		t.Errorf("cursor = %d..%d, want %d", res.buf.SelStart, res.buf.SelEnd, want)
	}
}

func TestSession_InsertImageLandsInNoteOpenedMeanwhile(t *testing.T) {
	e := newEnv(t)
	first, _ := e.session.Snapshot()

	g := newGatedIngester()
	done := startInsert(e, g)

	other := e.m.Create()
	e.session.Open(other)
	close(g.release)
	res := <-done
	if res.err != nil {
		t.Fatalf("InsertImage: %v", res.err)
	}

	if res.buf.NoteID != other.ID {
		t.Errorf("image landed in %q, want %q", res.buf.NoteID, other.ID)
	}
	if res.buf.Content != res.emb.Snippet() {
		t.Errorf("content = %q", res.buf.Content)
	}
	n, _ := e.m.Get(first.NoteID)
	if strings.Contains(n.Content, "data:image/jpeg") {
		t.Error("image committed to the note that was switched away from")
	}
}

func TestSession_InsertImageRejectedLeavesBuffer(t *testing.T) {
	e := newEnv(t)
	before, _ := e.session.Snapshot()
	_, _, err := e.session.InsertImage(context.Background(), []byte("text"), "text/plain")
	if !errors.Is(err, apperr.ErrRejected) {
		t.Fatalf("err = %v", err)
	}
	after, _ := e.session.Snapshot()
	if after != before {
		t.Error("buffer changed")
	}
}

func TestSession_OpenLoadsVerbatim(t *testing.T) {
	e := newEnv(t)
	n := models.Note{ID: "x", Title: "T", Content: "C"}
	e.session.Open(n)
	buf, ok := e.session.Snapshot()
	if !ok || buf.NoteID != "x" || buf.Title != "T" || buf.Content != "C" {
		t.Errorf("buffer = %+v", buf)
	}
}

func TestSession_FlushCommitsImmediately(t *testing.T) {
	e := newEnv(t)
	buf, _ := e.session.Snapshot()
	if _, err := e.session.Apply(Append{Text: "\nmore"}); err != nil {
		t.Fatal(err)
	}
	e.session.Flush()
	if e.commits != 1 {
		t.Fatalf("commits = %d, want 1", e.commits)
	}
	e.clock.Advance(time.Second)
	if e.commits != 1 {
		t.Errorf("timer fired after flush: commits = %d", e.commits)
	}
	n, _ := e.m.Get(buf.NoteID)
	if !strings.HasSuffix(n.Content, "\nmore") {
		t.Errorf("content tail = %q", n.Content[len(n.Content)-10:])
	}
}
