package api

import (
	"net/http"

	"github.com/starford/vibenotes/internal/models"
	"github.com/starford/vibenotes/internal/prefs"
)

func preferencesResponse(p prefs.Preferences) PreferencesResponse {
	return PreferencesResponse{
		DarkMode:   p.DarkMode,
		Font:       p.Font,
		PageStyle:  p.PageStyle,
		FontClass:  p.Font.Class(),
		PageClass:  p.PageStyle.Class(),
		Fonts:      models.AllFonts(),
		PageStyles: models.AllPageStyles(),
	}
}

// GetPreferences handles GET /api/preferences.
func (h *Handler) GetPreferences(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, preferencesResponse(h.svc.Preferences()))
}

// SetPreferences handles PUT /api/preferences.
func (h *Handler) SetPreferences(w http.ResponseWriter, r *http.Request) {
	var req PreferencesRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	saved, err := h.svc.SetPreferences(prefs.Preferences{
		DarkMode:  req.DarkMode,
		Font:      models.Font(req.Font),
		PageStyle: models.PageStyle(req.PageStyle),
	})
	if err != nil {
		writeError(w, err, "set preferences")
		return
	}
	writeJSON(w, http.StatusOK, preferencesResponse(saved))
}
