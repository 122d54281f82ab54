package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vibenotes/internal/editor"
	"github.com/starford/vibenotes/internal/models"
	"github.com/starford/vibenotes/internal/noteservice"
	"github.com/starford/vibenotes/internal/render"
)

// CreateNoteRequest is the optional body of POST /notes.
type CreateNoteRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// NoteListResponse wraps the sidebar listing.
type NoteListResponse struct {
	Notes    []noteservice.NoteListItem `json:"notes"`
	ActiveID string                     `json:"activeId"`
}

// EditRequest replaces the live buffer.
type EditRequest struct {
	Title          string `json:"title"`
	Content        string `json:"content"`
	SelectionStart int    `json:"selectionStart"`
	SelectionEnd   int    `json:"selectionEnd"`
}

func (r EditRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SelectionStart, validation.Min(0)),
		validation.Field(&r.SelectionEnd, validation.Min(0)),
	)
}

// CommandRequest runs an editor command. When a selection is given it is
// applied before the command.
type CommandRequest struct {
	Type           string `json:"type"`
	Text           string `json:"text,omitempty"`
	Lang           string `json:"lang,omitempty"`
	SelectionStart *int   `json:"selectionStart,omitempty"`
	SelectionEnd   *int   `json:"selectionEnd,omitempty"`
}

func (r CommandRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required,
			validation.In(editor.CmdInsertText, editor.CmdCodeBlock, editor.CmdHighlight)),
		validation.Field(&r.Lang, validation.Length(0, 32)),
		validation.Field(&r.SelectionStart, validation.When(r.SelectionEnd != nil, validation.NotNil), validation.Min(0)),
		validation.Field(&r.SelectionEnd, validation.When(r.SelectionStart != nil, validation.NotNil), validation.Min(0)),
	)
}

// EditorResponse describes the live buffer.
type EditorResponse struct {
	Open   bool          `json:"open"`
	Dirty  bool          `json:"dirty"`
	Buffer editor.Buffer `json:"buffer"`
	Stats  render.Stats  `json:"stats"`
}

// ImageUploadResponse is returned after an image is spliced into the buffer.
type ImageUploadResponse struct {
	Width  int            `json:"width"`
	Height int            `json:"height"`
	Editor EditorResponse `json:"editor"`
}

// PreferencesRequest is the body of PUT /preferences.
type PreferencesRequest struct {
	DarkMode  bool   `json:"darkMode"`
	Font      string `json:"font"`
	PageStyle string `json:"pageStyle"`
}

func (r PreferencesRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Font, validation.Required, validation.In(choiceIDs(models.AllFonts())...)),
		validation.Field(&r.PageStyle, validation.Required, validation.In(choiceIDs(models.AllPageStyles())...)),
	)
}

// PreferencesResponse carries the stored preferences and the catalogues the
// client can choose from.
type PreferencesResponse struct {
	DarkMode   bool             `json:"darkMode"`
	Font       models.Font      `json:"font"`
	PageStyle  models.PageStyle `json:"pageStyle"`
	FontClass  string           `json:"fontClass"`
	PageClass  string           `json:"pageClass"`
	Fonts      []models.Choice  `json:"fonts"`
	PageStyles []models.Choice  `json:"pageStyles"`
}

func choiceIDs(choices []models.Choice) []any {
	out := make([]any, len(choices))
	for i, c := range choices {
		out[i] = c.ID
	}
	return out
}
