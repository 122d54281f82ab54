package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"

	"github.com/starford/vibenotes/internal/models"
)

// Renderer converts note content to HTML. It holds one markdown pipeline per
// theme and is safe for concurrent use.
type Renderer struct {
	light goldmark.Markdown
	dark  goldmark.Markdown
}

// New builds a Renderer.
func New() *Renderer {
	return &Renderer{
		light: newMarkdown(models.ThemeLight),
		dark:  newMarkdown(models.ThemeDark),
	}
}

func newMarkdown(theme models.Theme) goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			&highlightExtension{},
			&codeExtension{theme: theme},
		),
	)
}

func (r *Renderer) markdown(theme models.Theme) goldmark.Markdown {
	if theme == models.ThemeDark {
		return r.dark
	}
	return r.light
}

// Prose renders a single prose segment.
func (r *Renderer) Prose(src string, theme models.Theme) (string, error) {
	var buf bytes.Buffer
	if err := r.markdown(theme).Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render: convert: %w", err)
	}
	return buf.String(), nil
}

// HTML renders every segment of content in order.
func (r *Renderer) HTML(content string, theme models.Theme) (string, error) {
	md := r.markdown(theme)
	var buf bytes.Buffer
	for _, seg := range Split(content) {
		switch seg.Kind {
		case models.SegmentImage:
			fmt.Fprintf(&buf, `<figure class="note-image"><img src="%s" alt="%s" loading="lazy"></figure>`+"\n",
				html.EscapeString(seg.Src), html.EscapeString(seg.Alt))
		default:
			if err := md.Convert([]byte(seg.Text), &buf); err != nil {
				return "", fmt.Errorf("render: convert: %w", err)
			}
		}
	}
	return buf.String(), nil
}
