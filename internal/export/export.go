// Package export renders a note view into a single-page A4 PDF.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // snapshot decoders
	"image/png"
	"io"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/starford/vibenotes/internal/apperr"
	"github.com/starford/vibenotes/internal/models"
)

// MsgExportFailed is the notice shown when export fails for any reason.
const MsgExportFailed = "Failed to generate PDF. Please try again."

// TopMargin is the vertical offset of the image on the page, in mm.
const TopMargin = 10.0

// Rasterizer renders the element with the given id to an image. It is the
// boundary to whatever draws the note view.
type Rasterizer interface {
	Rasterize(ctx context.Context, elementID string) (image.Image, error)
}

// RasterizerFunc adapts a function to Rasterizer.
type RasterizerFunc func(ctx context.Context, elementID string) (image.Image, error)

// Rasterize implements Rasterizer.
func (f RasterizerFunc) Rasterize(ctx context.Context, elementID string) (image.Image, error) {
	return f(ctx, elementID)
}

// SnapshotRasterizer returns an image the client already rendered.
type SnapshotRasterizer struct {
	Data []byte
}

// Rasterize decodes the snapshot. The element id is ignored.
func (s SnapshotRasterizer) Rasterize(_ context.Context, _ string) (image.Image, error) {
	if len(s.Data) == 0 {
		return nil, fmt.Errorf("export: empty snapshot")
	}
	img, _, err := image.Decode(bytes.NewReader(s.Data))
	if err != nil {
		return nil, fmt.Errorf("export: decode snapshot: %w", err)
	}
	return img, nil
}

// Placement is where the image lands on the page, in mm.
type Placement struct {
	X, Y, W, H float64
}

// Layout scales an imgW x imgH image to fit the page, centred horizontally
// and offset TopMargin from the top.
func Layout(pageW, pageH, imgW, imgH float64) Placement {
	ratio := math.Min(pageW/imgW, pageH/imgH)
	w, h := imgW*ratio, imgH*ratio
	return Placement{X: (pageW - w) / 2, Y: TopMargin, W: w, H: h}
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Filename derives the download name from a note title.
func Filename(title string) string {
	return strings.ToLower(unsafeFilename.ReplaceAllString(title, "_")) + ".pdf"
}

// Exporter builds PDFs.
type Exporter struct {
	logger *slog.Logger
}

// New creates an Exporter.
func New(logger *slog.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// Export rasterizes elementID and writes a one-page PDF of note to w. The
// document is built in memory, so w receives nothing on failure.
func (e *Exporter) Export(ctx context.Context, r Rasterizer, note models.Note, elementID string, w io.Writer) error {
	out, err := e.build(ctx, r, note, elementID)
	if err != nil {
		e.logger.Error("export: generate pdf",
			slog.String("id", note.ID),
			slog.String("error", err.Error()),
		)
		return apperr.External(MsgExportFailed, err)
	}
	if _, err := out.WriteTo(w); err != nil {
		return fmt.Errorf("export: write: %w", err)
	}
	return nil
}

func (e *Exporter) build(ctx context.Context, r Rasterizer, note models.Note, elementID string) (*bytes.Buffer, error) {
	img, err := r.Rasterize(ctx, elementID)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("export: empty image")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raster bytes.Buffer
	if err := png.Encode(&raster, img); err != nil {
		return nil, fmt.Errorf("export: encode png: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(note.Title, true)
	pdf.SetCreator("VibeNotes", true)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	p := Layout(pageW, pageH, float64(b.Dx()), float64(b.Dy()))
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("note", opts, &raster)
	pdf.ImageOptions("note", p.X, p.Y, p.W, p.H, false, opts, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("export: render pdf: %w", err)
	}
	return &out, nil
}
