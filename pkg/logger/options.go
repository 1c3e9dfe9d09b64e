package logger

import (
	"io"
	"log/slog"
)

// Option configures a logger built by New.
type Option func(*config)

// WithDebug lowers the level to Debug. False keeps Info.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithPretty selects the colorized charmbracelet/log handler used by the
// interactive commands.
func WithPretty(pretty bool) Option {
	return func(c *config) { c.pretty = pretty }
}

// WithJSON selects slog's JSON handler, used for --log-file output.
func WithJSON(json bool) Option {
	return func(c *config) { c.json = json }
}

// WithComponent names the part of parley emitting records. Pretty output
// shows it as a prefix; structured output carries it as a "component" attr.
func WithComponent(name string) Option {
	return func(c *config) { c.component = name }
}

// WithWriter replaces the destination. The default is os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(c *config) { c.writers = []io.Writer{w} }
}

// WithWriters writes every record to all of w.
func WithWriters(w ...io.Writer) Option {
	return func(c *config) { c.writers = w }
}

// WithSource adds the caller's file:line.
func WithSource(source bool) Option {
	return func(c *config) { c.source = source }
}
