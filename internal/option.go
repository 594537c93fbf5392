package internal

import (
	"io"

	"github.com/starford/voxnote/internal/conversation"
	"github.com/starford/voxnote/internal/locale"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *Config
	version  string
	in       io.Reader
	out      io.Writer
	lang     locale.Language
	selector conversation.Selector
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithIO sets the streams used by the REPL.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *application) {
		a.in = in
		a.out = out
	}
}

// WithLanguage sets the starting REPL language.
func WithLanguage(lang locale.Language) Option {
	return func(a *application) {
		a.lang = lang
	}
}

// WithSelector overrides the configured fallback tool selector.
func WithSelector(s conversation.Selector) Option {
	return func(a *application) {
		a.selector = s
	}
}
