package api

import (
	"net/http"

	"github.com/starford/vibenotes/internal/editor"
	"github.com/starford/vibenotes/internal/render"
)

func (h *Handler) editorResponse(buf editor.Buffer, open bool) EditorResponse {
	return EditorResponse{
		Open:   open,
		Dirty:  h.svc.Dirty(),
		Buffer: buf,
		Stats:  render.Count(buf.Content),
	}
}

// GetEditor handles GET /api/editor.
func (h *Handler) GetEditor(w http.ResponseWriter, _ *http.Request) {
	buf, open := h.svc.Editor()
	writeJSON(w, http.StatusOK, h.editorResponse(buf, open))
}

// Edit handles PUT /api/editor. The change is committed by autosave, so the
// response is 202.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	buf, err := h.svc.Edit(req.Title, req.Content, req.SelectionStart, req.SelectionEnd)
	if err != nil {
		writeError(w, err, "edit")
		return
	}
	writeJSON(w, http.StatusAccepted, h.editorResponse(buf, true))
}

// ApplyCommand handles POST /api/editor/commands.
func (h *Handler) ApplyCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	cmd, err := editor.ParseCommand(req.Type, req.Text, req.Lang)
	if err != nil {
		writeError(w, err, "parse command")
		return
	}
	if req.SelectionStart != nil {
		if _, err := h.svc.Select(*req.SelectionStart, *req.SelectionEnd); err != nil {
			writeError(w, err, "select")
			return
		}
	}
	buf, err := h.svc.ApplyCommand(cmd)
	if err != nil {
		writeError(w, err, "apply command")
		return
	}
	writeJSON(w, http.StatusOK, h.editorResponse(buf, true))
}
