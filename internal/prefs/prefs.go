// Package prefs stores the reader's display preferences.
package prefs

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/starford/vibenotes/internal/kvstore"
	"github.com/starford/vibenotes/internal/models"
)

// Store keys.
const (
	KeyDarkMode  = "darkMode"
	KeyFont      = "font"
	KeyPageStyle = "pageStyle"
)

// Preferences are the display settings.
type Preferences struct {
	DarkMode  bool             `json:"darkMode"`
	Font      models.Font      `json:"font"`
	PageStyle models.PageStyle `json:"pageStyle"`
}

// Defaults returns light mode, caveat and a plain page.
func Defaults() Preferences {
	return Preferences{Font: models.DefaultFont, PageStyle: models.DefaultPageStyle}
}

// Theme derives the palette from DarkMode.
func (p Preferences) Theme() models.Theme {
	if p.DarkMode {
		return models.ThemeDark
	}
	return models.ThemeLight
}

// Service reads and writes preferences in a key-value store.
type Service struct {
	store  kvstore.Store
	logger *slog.Logger
}

// New creates a Service.
func New(store kvstore.Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Get returns the stored preferences. Missing, unreadable and unknown values
// fall back to Defaults.
func (s *Service) Get() Preferences {
	p := Defaults()
	if v, ok := s.read(KeyDarkMode); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			p.DarkMode = b
		}
	}
	if v, ok := s.read(KeyFont); ok {
		p.Font = models.ParseFont(unquote(v))
	}
	if v, ok := s.read(KeyPageStyle); ok {
		p.PageStyle = models.ParsePageStyle(unquote(v))
	}
	return p
}

// Set writes all three preferences. Invalid font or page style values are
// normalized to their defaults first.
func (s *Service) Set(p Preferences) (Preferences, error) {
	p.Font = models.ParseFont(string(p.Font))
	p.PageStyle = models.ParsePageStyle(string(p.PageStyle))

	if err := s.store.Set(KeyDarkMode, strconv.FormatBool(p.DarkMode)); err != nil {
		return p, fmt.Errorf("prefs: set %s: %w", KeyDarkMode, err)
	}
	if err := s.store.Set(KeyFont, string(p.Font)); err != nil {
		return p, fmt.Errorf("prefs: set %s: %w", KeyFont, err)
	}
	if err := s.store.Set(KeyPageStyle, string(p.PageStyle)); err != nil {
		return p, fmt.Errorf("prefs: set %s: %w", KeyPageStyle, err)
	}
	return p, nil
}

func (s *Service) read(key string) (string, bool) {
	v, ok, err := s.store.Get(key)
	if err != nil {
		s.logger.Warn("prefs: read failed", slog.String("key", key), slog.String("error", err.Error()))
		return "", false
	}
	return v, ok
}

// unquote accepts both bare and JSON-quoted string values.
func unquote(v string) string {
	if u, err := strconv.Unquote(v); err == nil {
		return u
	}
	return v
}
