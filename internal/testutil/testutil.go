// Package testutil provides shared test helpers for stores, loggers and image
// fixtures.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/vibenotes/internal/kvstore"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestSQLite creates a temporary SQLite store that is automatically cleaned up.
func TestSQLite(t *testing.T) *kvstore.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "vibenotes-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := kvstore.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestFS creates a temporary directory-backed store.
func TestFS(t *testing.T) (string, *kvstore.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := kvstore.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// Image returns a w x h image filled with c.
func Image(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// PNG encodes a w x h image filled with c.
func PNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, Image(w, h, c)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
