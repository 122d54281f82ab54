// Package render turns raw note content into typed segments and HTML.
package render

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/starford/vibenotes/internal/models"
)

// PlaceholderText is rendered in place of empty content.
const PlaceholderText = "*No content yet...*"

// DefaultAlt is used for images without alt text.
const DefaultAlt = "Image"

var imageRe = regexp.MustCompile(`!\[([^\]]*)\]\((data:image/[^)]+)\)`)

// Split scans content for embedded image references and returns prose and
// image segments in source order. Content without images yields a single
// prose segment equal to the input; empty content yields the placeholder.
func Split(content string) []models.Segment {
	if content == "" {
		return []models.Segment{{Kind: models.SegmentProse, Text: PlaceholderText, Placeholder: true}}
	}

	matches := imageRe.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return []models.Segment{{Kind: models.SegmentProse, Text: content}}
	}

	out := make([]models.Segment, 0, 2*len(matches)+1)
	last := 0
	for _, m := range matches {
		if m[0] > last {
			out = append(out, models.Segment{Kind: models.SegmentProse, Text: content[last:m[0]]})
		}
		alt := content[m[2]:m[3]]
		if alt == "" {
			alt = DefaultAlt
		}
		out = append(out, models.Segment{Kind: models.SegmentImage, Alt: alt, Src: content[m[4]:m[5]]})
		last = m[1]
	}
	if last < len(content) {
		out = append(out, models.Segment{Kind: models.SegmentProse, Text: content[last:]})
	}
	return out
}

// Stats holds the counters shown in the editor status bar.
type Stats struct {
	Characters int `json:"characters"`
	Words      int `json:"words"`
}

// Count returns character and word counts of content.
func Count(content string) Stats {
	return Stats{
		Characters: utf8.RuneCountInString(content),
		Words:      len(strings.Fields(content)),
	}
}

const excerptLen = 50

var excerptStrip = strings.NewReplacer("#", "", "*", "", "`", "", "=", "")

// Excerpt returns the short plain preview used in note lists. The ellipsis
// depends on the length of the raw content, not the stripped text.
func Excerpt(content string) string {
	r := []rune(excerptStrip.Replace(content))
	if len(r) > excerptLen {
		r = r[:excerptLen]
	}
	if utf8.RuneCountInString(content) > excerptLen {
		return string(r) + "..."
	}
	return string(r)
}
