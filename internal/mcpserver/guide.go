package mcpserver

// MarkdownGuide describes the markdown subset the renderer supports.
const MarkdownGuide = `# VibeNotes Markdown Guide

Notes are plain markdown. The renderer follows CommonMark with two additions.

## Supported

- Headings: ` + "`# H1`" + ` through ` + "`###### H6`" + `
- Emphasis: ` + "`*italic*`" + `, ` + "`**bold**`" + `
- Lists: ` + "`- item`" + ` and ` + "`1. item`" + `
- Links: ` + "`[text](https://example.com)`" + `
- Blockquotes: ` + "`> quote`" + `
- Inline code: ` + "`` `code` ``" + `
- Fenced code blocks. A language tag turns on syntax highlighting:

` + "````" + `
` + "```go" + `
fmt.Println("hi")
` + "```" + `
` + "````" + `

## Additions

1. **Highlights.** Wrap text in triple equals: ` + "`===important===`" + `. Only paragraph
   and list text is highlighted; code spans, fences and headings keep the markers verbatim.
2. **Embedded images.** ` + "`![alt](data:image/jpeg;base64,...)`" + ` is rendered as an image.
   Use the ` + "`insert_image`" + ` tool rather than writing data URIs by hand: it downscales
   to fit 700x1000 and re-encodes as JPEG. Images referenced by http(s) URLs are left as
   ordinary markdown.

## Not supported

- Raw HTML is not passed through.
- Tables, footnotes and task lists render as plain text.
`
