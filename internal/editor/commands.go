package editor

import (
	"fmt"
	"unicode/utf8"

	"github.com/starford/vibenotes/internal/apperr"
)

// Default language and body of an inserted code block.
const (
	DefaultCodeLang  = "javascript"
	CodeTemplateBody = "// Your code here"
)

// MsgEmptyHighlight is shown when Highlight runs without a selection.
const MsgEmptyHighlight = "Please select text to highlight"

// Command is an edit applied to the buffer. A failing command leaves the
// buffer untouched.
type Command interface {
	Apply(b *Buffer) error
}

// InsertText replaces the selection with Text and puts the cursor after it.
type InsertText struct {
	Text string
}

func (c InsertText) Apply(b *Buffer) error {
	start := b.replaceSelection(c.Text)
	b.SelStart = start + utf8.RuneCountInString(c.Text)
	b.SelEnd = b.SelStart
	return nil
}

// InsertSnippet is InsertText for generated markup such as an image
// reference.
type InsertSnippet struct {
	Text string
}

func (c InsertSnippet) Apply(b *Buffer) error {
	return InsertText(c).Apply(b)
}

// Append adds Text to the end of the content and keeps the selection.
type Append struct {
	Text string
}

func (c Append) Apply(b *Buffer) error {
	b.Content += c.Text
	return nil
}

// InsertCodeBlock wraps the selection in a fenced block, or inserts a
// template block when nothing is selected.
type InsertCodeBlock struct {
	Lang string
}

func (c InsertCodeBlock) Apply(b *Buffer) error {
	lang := c.Lang
	if lang == "" {
		lang = DefaultCodeLang
	}
	body := b.Selected()
	if body == "" {
		body = CodeTemplateBody
	}
	return InsertText{Text: "\n```" + lang + "\n" + body + "\n```\n"}.Apply(b)
}

// Highlight wraps the selection in === markers and selects the result.
type Highlight struct{}

func (Highlight) Apply(b *Buffer) error {
	sel := b.Selected()
	if sel == "" {
		return apperr.Rejected(MsgEmptyHighlight)
	}
	wrapped := "===" + sel + "==="
	start := b.replaceSelection(wrapped)
	b.SelStart = start
	b.SelEnd = start + utf8.RuneCountInString(wrapped)
	return nil
}

// Command names accepted by ParseCommand.
const (
	CmdInsertText = "insert_text"
	CmdCodeBlock  = "code_block"
	CmdHighlight  = "highlight"
)

// ParseCommand builds a Command from its wire name.
func ParseCommand(kind, text, lang string) (Command, error) {
	switch kind {
	case CmdInsertText:
		return InsertText{Text: text}, nil
	case CmdCodeBlock:
		return InsertCodeBlock{Lang: lang}, nil
	case CmdHighlight:
		return Highlight{}, nil
	default:
		return nil, apperr.Rejected(fmt.Sprintf("unknown command %q", kind))
	}
}
