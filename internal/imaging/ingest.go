// Package imaging turns raw image bytes into compressed JPEG data URIs that
// can be embedded in note content.
package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder
	"log/slog"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp" // register decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder

	"github.com/starford/vibenotes/internal/apperr"
)

// User-facing refusal messages.
const (
	MsgNotImage = "Please select an image file"
	MsgTooLarge = "Image size should be less than 5MB"
	MsgTooBig   = "Image dimensions are too large"
)

// Limits bounds accepted input and produced output.
type Limits struct {
	MaxBytes  int64
	MaxWidth  int
	MaxHeight int
	Quality   int
	// MaxPixels caps width*height of the decoded source. A small file can
	// declare huge dimensions, so this is checked from the header alone.
	MaxPixels int64
}

// DefaultLimits returns 5 MiB input, 40 megapixels, a 700x1000 box and
// JPEG quality 85.
func DefaultLimits() Limits {
	return Limits{MaxBytes: 5 << 20, MaxWidth: 700, MaxHeight: 1000, Quality: 85, MaxPixels: 40_000_000}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxBytes <= 0 {
		l.MaxBytes = d.MaxBytes
	}
	if l.MaxWidth <= 0 {
		l.MaxWidth = d.MaxWidth
	}
	if l.MaxHeight <= 0 {
		l.MaxHeight = d.MaxHeight
	}
	if l.Quality <= 0 || l.Quality > 100 {
		l.Quality = d.Quality
	}
	if l.MaxPixels <= 0 {
		l.MaxPixels = d.MaxPixels
	}
	return l
}

// Embedded is an ingested image ready to be spliced into content.
type Embedded struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	DataURI string `json:"dataUri"`
}

// Markdown returns the image reference.
func (e Embedded) Markdown() string {
	return "![Image](" + e.DataURI + ")"
}

// Snippet returns the reference surrounded by newlines, as inserted at the
// cursor.
func (e Embedded) Snippet() string {
	return "\n" + e.Markdown() + "\n"
}

// Ingester validates, downscales and re-encodes images.
type Ingester struct {
	limits Limits
	logger *slog.Logger
}

// NewIngester creates an Ingester. Zero limit fields take their defaults.
func NewIngester(limits Limits, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{limits: limits.withDefaults(), logger: logger}
}

// Limits returns the effective limits.
func (i *Ingester) Limits() Limits { return i.limits }

// Ingest converts data into an Embedded JPEG. mimeHint is the type reported
// by the source; when empty the type is sniffed from the bytes.
func (i *Ingester) Ingest(ctx context.Context, data []byte, mimeHint string) (*Embedded, error) {
	mime := strings.TrimSpace(strings.Split(mimeHint, ";")[0])
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mime, "image/") {
		return nil, apperr.Rejected(MsgNotImage)
	}
	if int64(len(data)) > i.limits.MaxBytes {
		return nil, apperr.Rejected(MsgTooLarge)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.External("decode image", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > i.limits.MaxPixels {
		i.logger.Info("image refused: too many pixels",
			slog.Int("src_width", cfg.Width),
			slog.Int("src_height", cfg.Height),
		)
		return nil, apperr.Rejected(MsgTooBig)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.External("decode image", err)
	}

	b := src.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), i.limits.MaxWidth, i.limits.MaxHeight)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: i.limits.Quality}); err != nil {
		return nil, apperr.External("encode image", err)
	}

	i.logger.Debug("image ingested",
		slog.String("format", format),
		slog.Int("src_width", b.Dx()),
		slog.Int("src_height", b.Dy()),
		slog.Int("width", w),
		slog.Int("height", h),
		slog.Int("bytes", buf.Len()),
	)

	return &Embedded{
		Width:   w,
		Height:  h,
		DataURI: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// Fit scales (w, h) down to fit within maxW x maxH keeping the aspect ratio.
// The width clamp is applied first and the height clamp to its result.
// Sizes are truncated and never drop below 1.
func Fit(w, h, maxW, maxH int) (int, int) {
	fw, fh := float64(w), float64(h)
	if fw > float64(maxW) {
		fh = fh * float64(maxW) / fw
		fw = float64(maxW)
	}
	if fh > float64(maxH) {
		fw = fw * float64(maxH) / fh
		fh = float64(maxH)
	}
	return max(1, int(fw)), max(1, int(fh))
}
