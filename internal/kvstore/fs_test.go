package kvstore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempFS(t *testing.T) *FS {
	t.Helper()
	s, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return s
}

func TestFS_SetAndGet(t *testing.T) {
	s := tempFS(t)
	if err := s.Set("notes", `[{"id":"a"}]`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := s.Get("notes")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got != `[{"id":"a"}]` {
		t.Errorf("value = %q", got)
	}
}

func TestFS_GetMissing(t *testing.T) {
	s := tempFS(t)
	_, ok, err := s.Get("nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected ok=false for missing key")
	}
}

func TestFS_InvalidKeysRejected(t *testing.T) {
	s := tempFS(t)
	for _, k := range []string{"../escape", "a/b", "", "dots.json"} {
		if err := s.Set(k, "x"); err == nil {
			t.Errorf("expected error for key %q", k)
		}
	}
}

func TestFS_AtomicWriteLeavesNoTemp(t *testing.T) {
	s := tempFS(t)
	_ = s.Set("font", "caveat")
	if err := s.Set("font", "kalam"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, _, _ := s.Get("font")
	if got != "kalam" {
		t.Errorf("value = %q, want kalam", got)
	}
	matches, _ := filepath.Glob(filepath.Join(s.Root(), ".vibenotes-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestFS_RootIsFile(t *testing.T) {
	f, _ := os.CreateTemp("", "vibenotes-kv-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	if _, err := NewFS(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestFS_ForeignDetection(t *testing.T) {
	s := tempFS(t)
	_ = s.Set("notes", "mine")
	if s.foreign("notes", []byte("mine")) {
		t.Error("own write reported as foreign")
	}
	if !s.foreign("notes", []byte("theirs")) {
		t.Error("other content not reported as foreign")
	}
}

func TestFS_WatchReportsExternalWrites(t *testing.T) {
	s := tempFS(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan []string, 4)
	go func() {
		_ = s.Watch(ctx, logger, func(keys []string) { changed <- keys })
	}()
	time.Sleep(100 * time.Millisecond)

	// Our own write must not be reported.
	if err := s.Set("notes", "mine"); err != nil {
		t.Fatal(err)
	}
	select {
	case keys := <-changed:
		t.Fatalf("own write reported: %v", keys)
	case <-time.After(500 * time.Millisecond):
	}

	// A second writer.
	if err := os.WriteFile(filepath.Join(s.Root(), "notes.json"), []byte("theirs"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case keys := <-changed:
		if len(keys) != 1 || keys[0] != "notes" {
			t.Errorf("keys = %v, want [notes]", keys)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for external change")
	}
}
