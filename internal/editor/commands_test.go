package editor

import (
	"errors"
	"testing"

	"github.com/starford/vibenotes/internal/apperr"
)

func TestHighlight_WrapsSelection(t *testing.T) {
	b := Buffer{Content: "hello world", SelStart: 6, SelEnd: 11}
	if err := (Highlight{}).Apply(&b); err != nil {
		t.Fatal(err)
	}
	if b.Content != "hello ===world===" {
		t.Errorf("content = %q", b.Content)
	}
	if b.SelStart != 6 || b.SelEnd != 17 {
		t.Errorf("selection = %d..%d, want 6..17", b.SelStart, b.SelEnd)
	}
}

func TestHighlight_EmptySelectionRejected(t *testing.T) {
	b := Buffer{Content: "hello", SelStart: 2, SelEnd: 2}
	err := (Highlight{}).Apply(&b)
	if !errors.Is(err, apperr.ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}
	if apperr.UserMessage(err, "") != MsgEmptyHighlight {
		t.Errorf("message = %q", apperr.UserMessage(err, ""))
	}
	if b.Content != "hello" {
		t.Errorf("content changed: %q", b.Content)
	}
}

func TestInsertCodeBlock(t *testing.T) {
	b := Buffer{Content: "ab", SelStart: 1, SelEnd: 1}
	if err := (InsertCodeBlock{}).Apply(&b); err != nil {
		t.Fatal(err)
	}
	block := "\n```javascript\n// Your code here\n```\n"
	if b.Content != "a"+block+"b" {
		t.Errorf("content = %q", b.Content)
	}
	if want := 1 + len(block); b.SelStart != want || b.SelEnd != want {
		t.Errorf("cursor = %d..%d, want %d", b.SelStart, b.SelEnd, want)
	}

	b = Buffer{Content: "x := 1", SelStart: 0, SelEnd: 6}
	if err := (InsertCodeBlock{Lang: "go"}).Apply(&b); err != nil {
		t.Fatal(err)
	}
	if b.Content != "\n```go\nx := 1\n```\n" {
		t.Errorf("content = %q", b.Content)
	}
}

func TestInsertText_RuneOffsets(t *testing.T) {
	b := Buffer{Content: "héllo wörld", SelStart: 6, SelEnd: 11}
	if err := (InsertText{Text: "ünïcode"}).Apply(&b); err != nil {
		t.Fatal(err)
	}
	if b.Content != "héllo ünïcode" {
		t.Errorf("content = %q", b.Content)
	}
	if b.SelStart != 13 || b.SelEnd != 13 {
		t.Errorf("cursor = %d..%d, want 13", b.SelStart, b.SelEnd)
	}
}

func TestBuffer_ClampsSelection(t *testing.T) {
	b := Buffer{Content: "abc", SelStart: 10, SelEnd: -4}
	if got := b.Selected(); got != "abc" {
		t.Errorf("Selected = %q", got)
	}
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand(CmdCodeBlock, "", "python")
	if err != nil {
		t.Fatal(err)
	}
	if cb, ok := cmd.(InsertCodeBlock); !ok || cb.Lang != "python" {
		t.Errorf("cmd = %#v", cmd)
	}
	if _, err := ParseCommand("bold", "", ""); !errors.Is(err, apperr.ErrRejected) {
		t.Errorf("err = %v, want ErrRejected", err)
	}
}
