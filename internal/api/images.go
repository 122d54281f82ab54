package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/starford/vibenotes/internal/apperr"
	"github.com/starford/vibenotes/internal/imaging"
)

// multipartOverhead is allowed on top of the image limit for form framing.
const multipartOverhead = 1 << 20

// UploadImage handles POST /api/editor/images (multipart/form-data, field
// "file"). The image is spliced into the live buffer at the cursor.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	limit := h.svc.Ingester().Limits().MaxBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	if err := r.ParseMultipartForm(limit + multipartOverhead); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || errors.Is(err, multipart.ErrMessageTooLarge) {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody(imaging.MsgTooLarge))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	// One byte past the limit is enough for the ingester to refuse it.
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	buf, emb, err := h.svc.InsertImage(r.Context(), data, header.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, apperr.ErrExternal) {
			writeError(w, apperr.External("Failed to process image", err), "insert image")
			return
		}
		writeError(w, err, "insert image")
		return
	}
	writeJSON(w, http.StatusCreated, ImageUploadResponse{
		Width:  emb.Width,
		Height: emb.Height,
		Editor: h.editorResponse(buf, true),
	})
}
