// Package models defines the domain types for VibeNotes.
package models

import "time"

// Note is a single user document. Content is the raw markdown source and may
// embed image payloads inline.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Tags      []string  `json:"tags"`
}

// Clone returns a copy that shares no slices with n.
func (n Note) Clone() Note {
	if n.Tags != nil {
		n.Tags = append([]string(nil), n.Tags...)
	}
	return n
}

// NotePatch carries the fields to merge into a note on update.
// Nil fields are left untouched.
type NotePatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Content == nil
}

// SegmentKind discriminates rendered segments.
type SegmentKind string

// Segment kinds.
const (
	SegmentProse SegmentKind = "prose"
	SegmentImage SegmentKind = "image"
)

// Segment is a typed slice of note content produced by the renderer. Prose
// segments carry Text; image segments carry Alt and Src.
type Segment struct {
	Kind        SegmentKind `json:"type"`
	Text        string      `json:"content,omitempty"`
	Alt         string      `json:"alt,omitempty"`
	Src         string      `json:"src,omitempty"`
	Placeholder bool        `json:"placeholder,omitempty"`
}
