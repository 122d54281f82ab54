package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vibenotes/internal/export"
	"github.com/starford/vibenotes/internal/models"
	"github.com/starford/vibenotes/internal/noteservice"
)

const (
	maxJSONBody     = 10 << 20 // 10 MB
	maxSnapshotBody = 32 << 20 // 32 MB
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

func noteID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// decodeJSON reads a JSON body. An empty body leaves v untouched when
// optional is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
	return false
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes in collection order
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	items := h.svc.ListNotes()
	resp := NoteListResponse{Notes: items}
	for _, it := range items {
		if it.Active {
			resp.ActiveID = it.ID
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateNote handles POST /api/notes. The body is optional.
//
//	@Summary		Create a note and make it active
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	false	"Initial title and content"
//	@Success		201		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	note := h.svc.CreateNote(models.NotePatch{Title: req.Title, Content: req.Content})
	writeJSON(w, http.StatusCreated, note)
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a committed note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	noteservice.NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.GetNote(noteID(r))
	if err != nil {
		writeError(w, err, "get note")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{id}. Deleting the last note is
// answered with 409.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNote(noteID(r)); err != nil {
		writeError(w, err, "delete note")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DuplicateNote handles POST /api/notes/{id}/duplicate.
func (h *Handler) DuplicateNote(w http.ResponseWriter, r *http.Request) {
	dup, err := h.svc.DuplicateNote(noteID(r))
	if err != nil {
		writeError(w, err, "duplicate note")
		return
	}
	writeJSON(w, http.StatusCreated, dup)
}

// ActivateNote handles PUT /api/notes/{id}/active.
func (h *Handler) ActivateNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.ActivateNote(noteID(r))
	if err != nil {
		writeError(w, err, "activate note")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Segments handles GET /api/notes/{id}/segments.
func (h *Handler) Segments(w http.ResponseWriter, r *http.Request) {
	segs, err := h.svc.Segments(noteID(r))
	if err != nil {
		writeError(w, err, "segments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"segments": segs})
}

// RenderHTML handles GET /api/notes/{id}/html?theme=light|dark.
func (h *Handler) RenderHTML(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.RenderHTML(noteID(r), r.URL.Query().Get("theme"))
	if err != nil {
		writeError(w, err, "render note")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, out)
}

// ExportPDF handles POST /api/notes/{id}/export. The body is the rendered
// note view as an image; the response is the PDF download.
//
//	@Summary		Export a note view to PDF
//	@Tags			notes
//	@Accept			image/png
//	@Produce		application/pdf
//	@Param			id	path	string	true	"Note id"
//	@Success		200
//	@Failure		404	{object}	errResponse
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/export [post]
func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSnapshotBody)
	snapshot, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("snapshot too large or unreadable"))
		return
	}

	var pdf bytes.Buffer
	name, err := h.svc.ExportPDF(r.Context(), noteID(r), export.SnapshotRasterizer{Data: snapshot}, &pdf)
	if err != nil {
		writeError(w, err, "export pdf")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.WriteHeader(http.StatusOK)
	_, _ = pdf.WriteTo(w)
}
