package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/starford/vibenotes/internal/apperr"
	"github.com/starford/vibenotes/internal/models"
	"github.com/starford/vibenotes/internal/testutil"
)

func TestFilename(t *testing.T) {
	cases := map[string]string{
		"My Note!":             "my_note_.pdf",
		"Welcome to VibeNotes": "welcome_to_vibenotes.pdf",
		"Ünïcode 2":            "_n_code_2.pdf",
		"":                     ".pdf",
	}
	for in, want := range cases {
		if got := Filename(in); got != want {
			t.Errorf("Filename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLayout(t *testing.T) {
	p := Layout(210, 297, 420, 297)
	if p.W != 210 || p.H != 148.5 || p.X != 0 || p.Y != TopMargin {
		t.Errorf("wide = %+v", p)
	}

	p = Layout(210, 297, 100, 594)
	if math.Abs(p.H-297) > 1e-9 || math.Abs(p.W-50) > 1e-9 || math.Abs(p.X-80) > 1e-9 {
		t.Errorf("tall = %+v", p)
	}
}

func TestExport_WritesPDF(t *testing.T) {
	e := New(testutil.Logger())
	snap := SnapshotRasterizer{Data: testutil.PNG(t, 80, 120, color.White)}

	var out bytes.Buffer
	err := e.Export(context.Background(), snap, models.Note{ID: "n1", Title: "Hello"}, "note-content", &out)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !bytes.HasPrefix(out.Bytes(), []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header: %q", out.Bytes()[:8])
	}
}

func TestExport_FailureWritesNothing(t *testing.T) {
	e := New(testutil.Logger())
	failing := RasterizerFunc(func(context.Context, string) (image.Image, error) {
		return nil, errors.New("element not found")
	})

	var out bytes.Buffer
	err := e.Export(context.Background(), failing, models.Note{ID: "n1"}, "missing", &out)
	if !errors.Is(err, apperr.ErrExternal) {
		t.Fatalf("err = %v, want ErrExternal", err)
	}
	if apperr.UserMessage(err, "") != MsgExportFailed {
		t.Errorf("message = %q", apperr.UserMessage(err, ""))
	}
	if out.Len() != 0 {
		t.Errorf("wrote %d bytes on failure", out.Len())
	}
}

func TestSnapshotRasterizer_Invalid(t *testing.T) {
	if _, err := (SnapshotRasterizer{}).Rasterize(context.Background(), ""); err == nil {
		t.Error("empty snapshot accepted")
	}
	if _, err := (SnapshotRasterizer{Data: []byte("nope")}).Rasterize(context.Background(), ""); err == nil {
		t.Error("garbage snapshot accepted")
	}
}
