package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vibenotes/internal/editor"
	"github.com/starford/vibenotes/internal/imaging"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Store drivers.
const (
	StoreDriverFS     = "fs"
	StoreDriverSQLite = "sqlite"
	StoreDriverMemory = "memory"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Store  StoreConfig       `yaml:"store"`
	Editor EditorConfig      `yaml:"editor"`
	Images ImagesConfig      `yaml:"images"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Editor.Validate(); err != nil {
		return err
	}
	if err := c.Images.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig selects the key-value backend holding notes and preferences.
//
// Driver is one of:
//   - "fs" (default): one JSON file per key under Path; changes made by
//     other processes are picked up while running.
//   - "sqlite": a single table in the SQLite database at Path.
//   - "memory": nothing is persisted; Path is ignored.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = StoreDriverFS
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required,
			validation.In(StoreDriverFS, StoreDriverSQLite, StoreDriverMemory)),
		validation.Field(&c.Path, validation.When(c.Driver != StoreDriverMemory, validation.Required)),
	)
}

// EditorConfig holds editing session tunables.
type EditorConfig struct {
	AutosaveInterval time.Duration `yaml:"autosave_interval"`
}

// Validate validates the editor configuration.
func (c *EditorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.AutosaveInterval, validation.Required,
			validation.Min(10*time.Millisecond), validation.Max(time.Minute)),
	)
}

// ImagesConfig holds limits applied to inserted images.
type ImagesConfig struct {
	MaxBytes  int64 `yaml:"max_bytes"`
	MaxWidth  int   `yaml:"max_width"`
	MaxHeight int   `yaml:"max_height"`
	Quality   int   `yaml:"quality"`
	MaxPixels int64 `yaml:"max_pixels"`
}

// Validate validates the image limits.
func (c *ImagesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxBytes, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.MaxWidth, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxHeight, validation.Required, validation.Min(1)),
		validation.Field(&c.Quality, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.MaxPixels, validation.Required, validation.Min(int64(1))),
	)
}

// Limits converts the configuration to ingestion limits.
func (c *ImagesConfig) Limits() imaging.Limits {
	return imaging.Limits{
		MaxBytes:  c.MaxBytes,
		MaxWidth:  c.MaxWidth,
		MaxHeight: c.MaxHeight,
		Quality:   c.Quality,
		MaxPixels: c.MaxPixels,
	}
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	limits := imaging.DefaultLimits()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Driver: StoreDriverFS,
			Path:   "./data",
		},
		Editor: EditorConfig{
			AutosaveInterval: editor.DefaultDelay,
		},
		Images: ImagesConfig{
			MaxBytes:  limits.MaxBytes,
			MaxWidth:  limits.MaxWidth,
			MaxHeight: limits.MaxHeight,
			Quality:   limits.Quality,
			MaxPixels: limits.MaxPixels,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
