package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// config accumulates Option settings before a *slog.Logger is built.
type config struct {
	level       slog.Leveler
	json        bool
	output      io.Writer
	attrs       []slog.Attr
	handlerOpts *slog.HandlerOptions
	service     string
	extractors  []ContextExtractor
}

// Option configures a logger built by New.
type Option func(*config)

// ContextExtractor pulls a single attribute out of a context.Context. The
// bool return reports whether the attribute applies; false attributes are
// omitted rather than logged empty.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// WithLevel sets the minimum level records must meet to be emitted.
func WithLevel(l slog.Leveler) Option {
	return func(c *config) { c.level = l }
}

// WithJSONFormatter selects slog.JSONHandler instead of the text handler.
func WithJSONFormatter() Option {
	return func(c *config) { c.json = true }
}

// WithOutput sets the destination writer. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.output = w }
}

// WithAttr attaches attributes to every record the logger emits.
func WithAttr(attrs ...slog.Attr) Option {
	return func(c *config) { c.attrs = append(c.attrs, attrs...) }
}

// WithHandlerOptions overrides the slog.HandlerOptions passed to the
// underlying handler (e.g. to enable AddSource or a custom ReplaceAttr).
func WithHandlerOptions(opts *slog.HandlerOptions) Option {
	return func(c *config) { c.handlerOpts = opts }
}

// WithContextValue wires a ContextExtractor that reads ctxKey out of the
// context via ctx.Value and, if present, logs it under attrKey.
func WithContextValue(ctxKey, attrKey string) Option {
	return func(c *config) {
		c.extractors = append(c.extractors, func(ctx context.Context) (slog.Attr, bool) {
			v := ctx.Value(ctxKey)
			if v == nil {
				return slog.Attr{}, false
			}
			return slog.Any(attrKey, v), true
		})
	}
}

// WithContextExtractors adds custom context-to-attribute extractors, run
// on every *Context logging call.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(c *config) { c.extractors = append(c.extractors, extractors...) }
}

// WithDevelopment configures a human-readable, debug-level logger for the
// named service, writing text to stdout.
func WithDevelopment(service string) Option {
	return func(c *config) {
		c.service = service
		c.level = slog.LevelDebug
		c.json = false
	}
}

// WithStaging configures a JSON, info-level logger for the named service.
func WithStaging(service string) Option {
	return func(c *config) {
		c.service = service
		c.level = slog.LevelInfo
		c.json = true
	}
}

// WithProduction configures a JSON, info-level logger for the named service.
func WithProduction(service string) Option {
	return func(c *config) {
		c.service = service
		c.level = slog.LevelInfo
		c.json = true
	}
}

// New builds a *slog.Logger from the given options. With no options it
// returns a JSON, info-level logger writing to stdout.
func New(opts ...Option) *slog.Logger {
	c := &config{level: slog.LevelInfo, json: true, output: os.Stdout}
	for _, opt := range opts {
		opt(c)
	}

	handlerOpts := c.handlerOpts
	if handlerOpts == nil {
		handlerOpts = &slog.HandlerOptions{Level: c.level}
	}

	var handler slog.Handler
	if c.json {
		handler = slog.NewJSONHandler(c.output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(c.output, handlerOpts)
	}

	if c.service != "" {
		c.attrs = append([]slog.Attr{slog.String("service", c.service)}, c.attrs...)
	}
	if len(c.attrs) > 0 {
		handler = handler.WithAttrs(c.attrs)
	}
	if len(c.extractors) > 0 {
		handler = &contextHandler{Handler: handler, extractors: c.extractors}
	}

	return slog.New(handler)
}

// SetAsDefault installs l as the process-wide default logger, also
// redirecting the top-level slog.* package functions.
func SetAsDefault(l *slog.Logger) {
	slog.SetDefault(l)
}

// contextHandler decorates a slog.Handler, injecting attributes pulled
// from the record's context by the configured extractors.
type contextHandler struct {
	slog.Handler
	extractors []ContextExtractor
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, extract := range h.extractors {
		if attr, ok := extract(ctx); ok {
			r.AddAttrs(attr)
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), extractors: h.extractors}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), extractors: h.extractors}
}
