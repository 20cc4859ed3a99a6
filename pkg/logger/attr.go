package logger

import (
	"log/slog"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// LogID records the delivery log entry identifier under the key "log_id".
func LogID(id string) slog.Attr {
	return slog.String("log_id", id)
}

// MessageID records the transport message identifier under the key "message_id".
// If id is empty, it returns an empty Attr.
func MessageID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("message_id", id)
}

// Template records the template name under the key "template".
func Template(name string) slog.Attr {
	return slog.String("template", name)
}

// Recipient records the (comma-joined) recipient list under the key "to".
func Recipient(to string) slog.Attr {
	return slog.String("to", to)
}

// Attempt records the attempt number and its upper bound as "attempt" and "max_attempts".
func Attempt(n, maxAttempts int) slog.Attr {
	return Group("retry", slog.Int("attempt", n), slog.Int("max_attempts", maxAttempts))
}

// RetryCount records the retry count under the key "retry_count".
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

// Status records a delivery status under the key "status".
func Status(s string) slog.Attr {
	return slog.String("status", s)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
