package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Store backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// LLM providers.
const (
	LLMDisabled = "disabled"
	LLMGemini   = "gemini"
)

// Config represents the application configuration.
type Config struct {
	App          ApplicationConfig  `yaml:"app"`
	Store        StoreConfig        `yaml:"store"`
	Conversation ConversationConfig `yaml:"conversation"`
	Auth         AuthConfig         `yaml:"auth"`
	LLM          LLMConfig          `yaml:"llm"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.Conversation.Validate(); err != nil {
		return fmt.Errorf("conversation: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	return nil
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

// StoreConfig selects where the note document lives.
type StoreConfig struct {
	Backend      string `yaml:"backend"`
	Path         string `yaml:"path"`
	SQLitePath   string `yaml:"sqlite_path"`
	SaveAttempts int    `yaml:"save_attempts"`
	// Watch reloads the JSON document when it is edited outside the process.
	Watch bool `yaml:"watch"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendJSON, BackendSQLite)),
		validation.Field(&c.Path, validation.When(c.Backend == BackendJSON, validation.Required)),
		validation.Field(&c.SQLitePath, validation.When(c.Backend == BackendSQLite, validation.Required)),
		validation.Field(&c.SaveAttempts, validation.Required, validation.Min(1), validation.Max(10)),
	)
}

// DocumentPath returns Path with a leading "~" expanded to the home
// directory.
func (c *StoreConfig) DocumentPath() string {
	return expandHome(c.Path)
}

// ConversationConfig tunes the dialogue engine.
type ConversationConfig struct {
	HistorySize     int           `yaml:"history_size"`
	DefaultLanguage string        `yaml:"default_language"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
}

// Validate validates the conversation configuration.
func (c *ConversationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.HistorySize, validation.Required, validation.Min(1), validation.Max(1000)),
		validation.Field(&c.DefaultLanguage, validation.Required, validation.In("en", "he")),
		validation.Field(&c.SessionTTL, validation.Min(time.Duration(0))),
	)
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

// LLMConfig configures the optional language-model fallback.
type LLMConfig struct {
	Provider string        `yaml:"provider"`
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Validate validates the LLM configuration.
func (c *LLMConfig) Validate() error {
	if c.Provider == "" {
		c.Provider = LLMDisabled
	}
	gemini := c.Provider == LLMGemini
	return validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.In(LLMDisabled, LLMGemini)),
		validation.Field(&c.APIKey, validation.When(gemini, validation.Required)),
		validation.Field(&c.Model, validation.When(gemini, validation.Required)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// Enabled reports whether a provider is configured.
func (c *LLMConfig) Enabled() bool {
	return c.Provider != "" && c.Provider != LLMDisabled
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Backend:      BackendJSON,
			Path:         "~/.note_speaker/notes.json",
			SQLitePath:   "./voxnote.db",
			SaveAttempts: 3,
			Watch:        true,
		},
		Conversation: ConversationConfig{
			HistorySize:     10,
			DefaultLanguage: "en",
			SessionTTL:      30 * time.Minute,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		LLM: LLMConfig{
			Provider: LLMDisabled,
			Model:    "gemini-2.0-flash",
			Timeout:  10 * time.Second,
		},
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
