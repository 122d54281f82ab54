package render

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/starford/vibenotes/internal/models"
)

// Palette returns the chroma style name used for theme.
func Palette(theme models.Theme) string {
	if theme == models.ThemeDark {
		return "monokai"
	}
	return "vs"
}

// Code writes syntax-highlighted HTML for code in the given language.
// Unknown languages fall back to plain tokenisation.
func Code(w io.Writer, lang, code string, theme models.Theme) error {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return fmt.Errorf("render: tokenise %s: %w", lang, err)
	}
	formatter := chromahtml.New(chromahtml.WithClasses(false))
	return formatter.Format(w, styles.Get(Palette(theme)), it)
}

// codeBlockRenderer replaces goldmark's fenced code output. Fences with a
// language tag are highlighted; the rest render as escaped preformatted text.
type codeBlockRenderer struct {
	theme models.Theme
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *codeBlockRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	var code bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		code.Write(line.Value(source))
	}

	lang := string(n.Language(source))
	if lang != "" {
		var out bytes.Buffer
		if err := Code(&out, lang, code.String(), r.theme); err == nil {
			fmt.Fprintf(w, `<div class="code-block" data-lang="%s">`, html.EscapeString(lang))
			_, _ = w.Write(out.Bytes())
			_, _ = w.WriteString("</div>\n")
			return ast.WalkSkipChildren, nil
		}
	}

	_, _ = w.WriteString("<pre><code>")
	_, _ = w.WriteString(html.EscapeString(code.String()))
	_, _ = w.WriteString("</code></pre>\n")
	return ast.WalkSkipChildren, nil
}

type codeExtension struct {
	theme models.Theme
}

func (e *codeExtension) Extend(m goldmark.Markdown) {
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&codeBlockRenderer{theme: e.theme}, 200),
	))
}
