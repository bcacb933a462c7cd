package logging

import "log/slog"

// Common field names for consistent logging across both tools.
const (
	FieldRunID      = "run_id"
	FieldStatus     = "status"
	FieldError      = "error"
	FieldURL        = "url"
	FieldCursor     = "cursor"
	FieldPage       = "page"
	FieldCount      = "count"
	FieldTotal      = "total"
	FieldIdentifier = "identifier"
	FieldBody       = "body"
)

// RunID returns a slog attribute for the invocation's run ID.
func RunID(id string) slog.Attr {
	return slog.String(FieldRunID, id)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}

// URL returns a slog attribute for a request URL.
func URL(u string) slog.Attr {
	return slog.String(FieldURL, u)
}

// Cursor returns a slog attribute for a pagination cursor.
func Cursor(c string) slog.Attr {
	return slog.String(FieldCursor, c)
}

// Page returns a slog attribute for a page number (1-based).
func Page(n int) slog.Attr {
	return slog.Int(FieldPage, n)
}

// Count returns a slog attribute for a per-step item count.
func Count(n int) slog.Attr {
	return slog.Int(FieldCount, n)
}

// Total returns a slog attribute for a running total.
func Total(n int) slog.Attr {
	return slog.Int(FieldTotal, n)
}

// Identifier returns a slog attribute for a change identifier.
func Identifier(id string) slog.Attr {
	return slog.String(FieldIdentifier, id)
}

// Body returns a slog attribute for a (possibly truncated) response body.
func Body(b string) slog.Attr {
	return slog.String(FieldBody, b)
}
