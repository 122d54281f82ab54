package render

import (
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var highlightRe = regexp.MustCompile(`===(.+?)===`)

// KindHighlight is the node kind of a ===highlighted=== inline span.
var KindHighlight = ast.NewNodeKind("Highlight")

// HighlightNode is an inline span whose children are the highlighted text.
type HighlightNode struct {
	ast.BaseInline
}

// Kind implements ast.Node.
func (n *HighlightNode) Kind() ast.NodeKind { return KindHighlight }

// Dump implements ast.Node.
func (n *HighlightNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// Span is one piece of text produced by the highlight pass.
type Span struct {
	Text        string `json:"text"`
	Highlighted bool   `json:"highlighted,omitempty"`
}

// Highlights splits s on ===text=== runs. Delimiters are dropped.
func Highlights(s string) []Span {
	var out []Span
	pos := 0
	for _, loc := range highlightRe.FindAllStringSubmatchIndex(s, -1) {
		if loc[0] > pos {
			out = append(out, Span{Text: s[pos:loc[0]]})
		}
		out = append(out, Span{Text: s[loc[2]:loc[3]], Highlighted: true})
		pos = loc[1]
	}
	if pos < len(s) {
		out = append(out, Span{Text: s[pos:]})
	}
	return out
}

// highlightTransformer rewrites the leaf text of paragraph-level nodes.
// Code, headings and link internals are never visited, so a "=" inside a
// fence or a URL is left alone.
type highlightTransformer struct{}

func (t *highlightTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	var parents []ast.Node
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindCodeBlock, ast.KindFencedCodeBlock, ast.KindHTMLBlock, ast.KindHeading:
			return ast.WalkSkipChildren, nil
		}
		if paragraphLevel(n) {
			parents = append(parents, n)
		}
		return ast.WalkContinue, nil
	})
	for _, p := range parents {
		for _, run := range textRuns(p) {
			first, last := run[0], run[len(run)-1]
			value := source[first.Segment.Start:last.Segment.Stop]
			if highlightRe.Match(value) {
				splitHighlights(run, source)
			}
		}
	}
}

func paragraphLevel(n ast.Node) bool {
	switch n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return true
	}
	return false
}

// textRuns groups the direct text children of parent into runs of nodes
// whose segments are adjacent in the source. The inline parser cuts text
// at every character that may open syntax ("_", "*", "<", "[") even when
// nothing is parsed there, so one visible run of text can span several
// nodes. Runs end at line breaks.
func textRuns(parent ast.Node) [][]*ast.Text {
	var runs [][]*ast.Text
	var cur []*ast.Text
	flush := func() {
		if len(cur) > 0 {
			runs = append(runs, cur)
			cur = nil
		}
	}
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		txt, ok := c.(*ast.Text)
		if !ok || txt.IsRaw() || txt.Segment.Padding != 0 {
			flush()
			continue
		}
		if len(cur) > 0 {
			prev := cur[len(cur)-1]
			if prev.Segment.Stop != txt.Segment.Start || prev.SoftLineBreak() || prev.HardLineBreak() {
				flush()
			}
		}
		cur = append(cur, txt)
	}
	flush()
	return runs
}

// splitHighlights replaces the nodes of run with plain and highlight nodes
// that point into the same source bytes.
func splitHighlights(run []*ast.Text, source []byte) {
	first, last := run[0], run[len(run)-1]
	parent := first.Parent()
	start, stop := first.Segment.Start, last.Segment.Stop
	value := source[start:stop]

	pos := 0
	for _, loc := range highlightRe.FindAllSubmatchIndex(value, -1) {
		if loc[0] > pos {
			parent.InsertBefore(parent, first, ast.NewTextSegment(text.NewSegment(start+pos, start+loc[0])))
		}
		h := &HighlightNode{}
		h.AppendChild(h, ast.NewTextSegment(text.NewSegment(start+loc[2], start+loc[3])))
		parent.InsertBefore(parent, first, h)
		pos = loc[1]
	}

	// The trailing piece inherits the line break of the last node.
	rest := ast.NewTextSegment(text.NewSegment(start+pos, stop))
	rest.SetSoftLineBreak(last.SoftLineBreak())
	rest.SetHardLineBreak(last.HardLineBreak())
	if pos < len(value) || rest.SoftLineBreak() || rest.HardLineBreak() {
		parent.InsertBefore(parent, first, rest)
	}
	for _, txt := range run {
		parent.RemoveChild(parent, txt)
	}
}

type highlightHTMLRenderer struct{}

func (r *highlightHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindHighlight, r.renderHighlight)
}

func (r *highlightHTMLRenderer) renderHighlight(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(`<mark class="highlight">`)
	} else {
		_, _ = w.WriteString("</mark>")
	}
	return ast.WalkContinue, nil
}

type highlightExtension struct{}

func (e *highlightExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&highlightTransformer{}, 100),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&highlightHTMLRenderer{}, 500),
	))
}
