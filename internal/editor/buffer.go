// Package editor holds the live edit buffer of the open note, the commands
// that transform it, and the debounced autosave that commits it back to the
// note collection.
package editor

// Buffer is the uncommitted state of the open note. Selection offsets count
// runes, not bytes.
type Buffer struct {
	NoteID   string `json:"noteId"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	SelStart int    `json:"selectionStart"`
	SelEnd   int    `json:"selectionEnd"`
}

// clamp keeps the selection inside the content with start <= end.
func (b *Buffer) clamp() {
	n := len([]rune(b.Content))
	b.SelStart = min(max(b.SelStart, 0), n)
	b.SelEnd = min(max(b.SelEnd, 0), n)
	if b.SelStart > b.SelEnd {
		b.SelStart, b.SelEnd = b.SelEnd, b.SelStart
	}
}

// Selected returns the selected text.
func (b Buffer) Selected() string {
	b.clamp()
	return string([]rune(b.Content)[b.SelStart:b.SelEnd])
}

// replaceSelection swaps the selected runes for text and returns the rune
// offset where text starts.
func (b *Buffer) replaceSelection(text string) int {
	b.clamp()
	r := []rune(b.Content)
	start := b.SelStart
	out := make([]rune, 0, len(r)+len(text))
	out = append(out, r[:start]...)
	out = append(out, []rune(text)...)
	out = append(out, r[b.SelEnd:]...)
	b.Content = string(out)
	return start
}

func (b Buffer) snapshot() Snapshot {
	return Snapshot{NoteID: b.NoteID, Title: b.Title, Content: b.Content}
}
