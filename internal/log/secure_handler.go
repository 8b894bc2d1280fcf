package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// sensitiveKeys are attribute keys whose values are always masked.
var sensitiveKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"password":            true,
	"secret":              true,
	"token":               true,
	"api_key":             true,
	"session":             true,
	"session_id":          true,
}

// sensitiveParams are query parameter name fragments masked inside URLs.
var sensitiveParams = []string{
	"token", "session", "sess", "sid", "auth", "key", "password", "passwd",
	"secret", "signature", "sig", "code", "ticket",
}

// SecureHandler wraps an slog.Handler and sanitizes attributes before
// passing records on.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler creates a new SecureHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled delegates to the underlying handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and passes it to the underlying handler.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the given sanitized attributes added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitizedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitizedAttrs[i] = h.sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitizedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// sanitizeAttr sanitizes a single attribute, recursively handling groups.
func (h *SecureHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitizedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			sanitizedAttrs[i] = h.sanitizeAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitizedAttrs...)}
	}

	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, SanitizeURL(a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok && err != nil {
			return slog.String(a.Key, sanitizeEmbeddedURLs(err.Error()))
		}
	}
	return a
}

// SanitizeURL masks credentials and sensitive query parameters in an
// absolute http(s) URL. Any other string is returned unchanged.
func SanitizeURL(raw string) string {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	changed := false
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), MaskValue)
		} else {
			u.User = url.User(MaskValue)
		}
		changed = true
	}

	if u.RawQuery != "" {
		q := u.Query()
		for name := range q {
			if isSensitiveParam(name) {
				q.Set(name, MaskValue)
				changed = true
			}
		}
		if changed {
			u.RawQuery = q.Encode()
		}
	}

	if !changed {
		return raw
	}
	return u.String()
}

// sanitizeEmbeddedURLs applies SanitizeURL to every whitespace separated
// token of s. Go's net/http errors quote the URL, so quotes are stripped
// before checking and restored afterwards.
func sanitizeEmbeddedURLs(s string) string {
	if !strings.Contains(s, "://") {
		return s
	}
	fields := strings.Fields(s)
	for i, f := range fields {
		trimmed := strings.Trim(f, `"':`)
		if clean := SanitizeURL(trimmed); clean != trimmed {
			fields[i] = strings.Replace(f, trimmed, clean, 1)
		}
	}
	return strings.Join(fields, " ")
}

// isSensitiveParam reports whether a query parameter name looks secret.
func isSensitiveParam(name string) bool {
	name = strings.ToLower(name)
	for _, p := range sensitiveParams {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

// NewLogger creates a *slog.Logger with secure handling.
// verbose selects Debug level (Warn otherwise); jsonOutput selects the JSON
// handler instead of the text handler.
func NewLogger(w io.Writer, verbose, jsonOutput bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(NewSecureHandler(handler))
}
