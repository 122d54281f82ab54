package models

// Font identifies one of the handwritten typefaces.
type Font string

// Supported fonts.
const (
	FontCaveat  Font = "caveat"
	FontPatrick Font = "patrick"
	FontIndie   Font = "indie"
	FontKalam   Font = "kalam"
	FontShadows Font = "shadows"
)

// DefaultFont is used when no valid font is stored.
const DefaultFont = FontCaveat

// ParseFont maps an identifier to a Font, falling back to DefaultFont.
func ParseFont(s string) Font {
	switch f := Font(s); f {
	case FontCaveat, FontPatrick, FontIndie, FontKalam, FontShadows:
		return f
	default:
		return DefaultFont
	}
}

// Class returns the CSS class of the font.
func (f Font) Class() string {
	switch f {
	case FontPatrick:
		return "font-patrick"
	case FontIndie:
		return "font-indie"
	case FontKalam:
		return "font-kalam"
	case FontShadows:
		return "font-shadows"
	default:
		return "font-caveat"
	}
}

// PageStyle identifies a page background.
type PageStyle string

// Supported page styles.
const (
	PagePlain     PageStyle = "plain"
	PageRuled     PageStyle = "ruled"
	PageDotted    PageStyle = "dotted"
	PageGrid      PageStyle = "grid"
	PageParchment PageStyle = "parchment"
)

// DefaultPageStyle is used when no valid page style is stored.
const DefaultPageStyle = PagePlain

// ParsePageStyle maps an identifier to a PageStyle, falling back to
// DefaultPageStyle.
func ParsePageStyle(s string) PageStyle {
	switch p := PageStyle(s); p {
	case PagePlain, PageRuled, PageDotted, PageGrid, PageParchment:
		return p
	default:
		return DefaultPageStyle
	}
}

// Class returns the CSS classes of the page background.
func (p PageStyle) Class() string {
	const base = "bg-white dark:bg-gray-800"
	switch p {
	case PageRuled:
		return base + " bg-ruled"
	case PageDotted:
		return base + " bg-dotted"
	case PageGrid:
		return base + " bg-grid"
	case PageParchment:
		return "bg-amber-50 dark:bg-amber-900/20 bg-parchment"
	default:
		return base
	}
}

// Theme selects the light or dark palette.
type Theme string

// Themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme returns ThemeDark for "dark" and ThemeLight otherwise.
func ParseTheme(s string) Theme {
	if s == string(ThemeDark) {
		return ThemeDark
	}
	return ThemeLight
}

// Choice is a selectable option shown by the editing surface.
type Choice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AllFonts lists the fonts in display order.
func AllFonts() []Choice {
	return []Choice{
		{ID: string(FontCaveat), Name: "Caveat", Description: "Flowing and casual"},
		{ID: string(FontPatrick), Name: "Patrick Hand", Description: "Friendly and informal"},
		{ID: string(FontIndie), Name: "Indie Flower", Description: "Playful and quirky"},
		{ID: string(FontKalam), Name: "Kalam", Description: "Clean and readable"},
		{ID: string(FontShadows), Name: "Shadows Into Light", Description: "Light and airy"},
	}
}

// AllPageStyles lists the page styles in display order.
func AllPageStyles() []Choice {
	return []Choice{
		{ID: string(PagePlain), Name: "Plain", Description: "Clean blank page"},
		{ID: string(PageRuled), Name: "Ruled", Description: "Lined notebook paper"},
		{ID: string(PageDotted), Name: "Dotted", Description: "Dot grid for sketching"},
		{ID: string(PageGrid), Name: "Grid", Description: "Graph paper style"},
		{ID: string(PageParchment), Name: "Parchment", Description: "Vintage paper look"},
	}
}
